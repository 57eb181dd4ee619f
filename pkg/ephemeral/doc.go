// Package ephemeral provides disposable PostgreSQL databases backed by
// testcontainers.
//
// The CLI's --ephemeral mode and the integration tests use it to run
// the check suite without touching a long-lived database:
//
//	pg, err := ephemeral.Start(ctx, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pg.Terminate(ctx)
//	// pg.URL is ready for runner.New
//
// Starting a container requires a working Docker environment.
package ephemeral
