package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/migratest/pkg/config"
)

var watchFlags suiteFlags

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the checks whenever the migration directory changes",
	Long: `Watch the migration directory and re-run the consistency checks when
a migration file is added, changed or removed.

Example:
  migratest watch --ephemeral`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := watchMigrations(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to watch migrations: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	registerSuiteFlags(watchCmd, &watchFlags)
}

func watchMigrations(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dir := cfg.MigrationsDir
	if watchFlags.migrationsDir != "" {
		dir = watchFlags.migrationsDir
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	runOnce := func() {
		started := time.Now()
		rep, err := executeSuite(cmd.Context(), cfg, watchFlags)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Check run failed: %v\n", err)
			return
		}
		_, _ = os.Stdout.Write(renderText(rep))
		fmt.Printf("(%s)\n", time.Since(started).Round(time.Millisecond))
	}

	fmt.Printf("Watching %s\n", dir)
	runOnce()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Editors fire several events per save; coalesce them.
	var pending *time.Timer
	debounced := make(chan struct{}, 1)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".sql") {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(250*time.Millisecond, func() {
				select {
				case debounced <- struct{}{}:
				default:
				}
			})
		case <-debounced:
			fmt.Println("Migration change detected, re-running checks")
			runOnce()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
		case <-sigs:
			fmt.Println("Stopping watcher")
			return nil
		}
	}
}
