package integration

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cucumber/godog"

	migrationsdb "github.com/doodlesbykumbi/migratest/db"
	"github.com/doodlesbykumbi/migratest/pkg/checks"
	"github.com/doodlesbykumbi/migratest/pkg/config"
	"github.com/doodlesbykumbi/migratest/pkg/model"
	"github.com/doodlesbykumbi/migratest/pkg/runner"
)

// driftedUser matches the users table except for an extra column that
// no migration creates.
type driftedUser struct {
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Email     string     `gorm:"column:email;type:text;not null;unique"`
	Nickname  string     `gorm:"column:nickname;type:text"`
	CreatedAt time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	LastLogin *time.Time `gorm:"column:last_login;type:timestamptz;index:users_last_login_idx"`
}

func (driftedUser) TableName() string {
	return "users"
}

// StepsContext carries scenario state.
type StepsContext struct {
	tc *TestContext

	source  fs.FS
	models  []any
	floor   uint64
	summary checks.Summary
	ran     bool
}

func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{tc: tc}
}

// RegisterSteps binds the step definitions to the scenario context.
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a clean database$`, s.aCleanDatabase)
	sc.Step(`^the example migration set$`, s.theExampleMigrationSet)
	sc.Step(`^the migration set "([^"]*)"$`, s.theMigrationSet)
	sc.Step(`^the example models are registered$`, s.theExampleModelsAreRegistered)
	sc.Step(`^a drifted model is registered$`, s.aDriftedModelIsRegistered)
	sc.Step(`^the minimum downgrade version is (\d+)$`, s.theMinimumDowngradeVersionIs)
	sc.Step(`^I run the default checks$`, s.iRunTheDefaultChecks)
	sc.Step(`^I run the checks "([^"]*)"$`, s.iRunTheChecks)
	sc.Step(`^the check "([^"]*)" should (pass|fail|be skipped)$`, s.theCheckShould)
	sc.Step(`^every check should pass$`, s.everyCheckShouldPass)
}

func (s *StepsContext) aCleanDatabase(ctx context.Context) error {
	s.source = nil
	s.models = nil
	s.floor = 0
	s.summary = checks.Summary{}
	s.ran = false
	return s.tc.ResetDatabase(ctx)
}

func (s *StepsContext) theExampleMigrationSet() error {
	sub, err := fs.Sub(migrationsdb.Migrations, "migrations")
	if err != nil {
		return err
	}
	s.source = sub
	return nil
}

func (s *StepsContext) theMigrationSet(name string) error {
	dir := filepath.Join("testdata", "migrations", name)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("missing fixture %s: %w", dir, err)
	}
	s.source = os.DirFS(dir)
	return nil
}

func (s *StepsContext) theExampleModelsAreRegistered() error {
	s.models = []any{model.User{}, model.Post{}}
	return nil
}

func (s *StepsContext) aDriftedModelIsRegistered() error {
	s.models = []any{driftedUser{}, model.Post{}}
	return nil
}

func (s *StepsContext) theMinimumDowngradeVersionIs(version int) error {
	if version < 0 {
		return fmt.Errorf("invalid downgrade floor %d", version)
	}
	s.floor = uint64(version)
	return nil
}

func (s *StepsContext) runChecks(ctx context.Context, include []string, experimental bool) error {
	if s.source == nil {
		return fmt.Errorf("no migration set selected")
	}

	mc, err := runner.New(runner.Config{
		DatabaseURL: s.tc.DatabaseURL,
		Source:      s.source,
	})
	if err != nil {
		return err
	}
	defer func() { _ = mc.Close() }()

	selected, err := checks.Select(include, nil, experimental)
	if err != nil {
		return err
	}

	s.summary = checks.RunSuite(ctx, mc, selected, checks.Options{
		DatabaseURL:             s.tc.DatabaseURL,
		Schema:                  "public",
		IgnoreTables:            []string{config.DefaultMigrationsTable},
		MinimumDowngradeVersion: s.floor,
		Models:                  s.models,
	})
	s.ran = true
	return nil
}

func (s *StepsContext) iRunTheDefaultChecks(ctx context.Context) error {
	return s.runChecks(ctx, nil, false)
}

func (s *StepsContext) iRunTheChecks(ctx context.Context, names string) error {
	return s.runChecks(ctx, splitNames(names), false)
}

func splitNames(names string) []string {
	var out []string
	for _, name := range strings.Split(names, ",") {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (s *StepsContext) result(name string) (checks.Result, error) {
	if !s.ran {
		return checks.Result{}, fmt.Errorf("no checks have been run")
	}
	for _, result := range s.summary.Results {
		if result.Check == name {
			return result, nil
		}
	}
	return checks.Result{}, fmt.Errorf("check %q was not part of the run", name)
}

func (s *StepsContext) theCheckShould(name, outcome string) error {
	result, err := s.result(name)
	if err != nil {
		return err
	}

	var want checks.Status
	switch outcome {
	case "pass":
		want = checks.StatusPassed
	case "fail":
		want = checks.StatusFailed
	case "be skipped":
		want = checks.StatusSkipped
	}

	if result.Status != want {
		return fmt.Errorf("check %q: expected %s, got %s (%s)", name, want, result.Status, result.Detail)
	}
	return nil
}

func (s *StepsContext) everyCheckShouldPass() error {
	if !s.ran {
		return fmt.Errorf("no checks have been run")
	}
	for _, result := range s.summary.Results {
		if result.Status != checks.StatusPassed {
			return fmt.Errorf("check %q: %s (%s)", result.Check, result.Status, result.Detail)
		}
	}
	return nil
}
