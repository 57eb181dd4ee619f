package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/migratest/pkg/checks"
	"github.com/doodlesbykumbi/migratest/pkg/config"
	"github.com/doodlesbykumbi/migratest/pkg/report"
)

var checkFlags suiteFlags

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the migration consistency checks",
	Long: `Run the migration consistency checks against a database.

By default the suite runs against the database named by the config file
or DATABASE_URL. With --ephemeral a disposable postgres container is
started for the run and removed afterwards.

Example:
  migratest check
  migratest check --ephemeral --experimental
  migratest check --exclude model_definitions_match_ddl
  migratest check --ephemeral --example --output json`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")
		write, _ := cmd.Flags().GetString("write")

		failed, err := runCheck(cmd, output, write)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Check run failed: %v\n", err)
			os.Exit(1)
		}
		if failed {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	registerSuiteFlags(checkCmd, &checkFlags)
	checkCmd.Flags().StringP("output", "o", "text", "Output format (text, md, html or json)")
	checkCmd.Flags().StringP("write", "w", "", "Write the rendered report to a file")
}

func runCheck(cmd *cobra.Command, output, write string) (bool, error) {
	cfg, err := config.Load()
	if err != nil {
		return false, err
	}

	rep, err := executeSuite(cmd.Context(), cfg, checkFlags)
	if err != nil {
		return false, err
	}

	rendered, err := renderReport(rep, output)
	if err != nil {
		return false, err
	}

	if write != "" {
		if err := os.WriteFile(write, rendered, 0o644); err != nil {
			return false, fmt.Errorf("failed to write report: %w", err)
		}
	} else {
		_, _ = os.Stdout.Write(rendered)
	}

	return rep.Summary.Failed(), nil
}

func renderReport(rep *report.Report, output string) ([]byte, error) {
	switch output {
	case "text":
		return renderText(rep), nil
	case "md":
		return rep.Markdown(), nil
	case "html":
		return rep.HTML()
	case "json":
		return rep.JSON()
	default:
		return nil, fmt.Errorf("unknown output format %q", output)
	}
}

func renderText(rep *report.Report) []byte {
	var out []byte
	for _, result := range rep.Summary.Results {
		line := fmt.Sprintf("%s %s", statusGlyph(result.Status), result.Check)
		if result.Detail != "" {
			line += "\n    " + result.Detail
		}
		out = append(out, line...)
		out = append(out, '\n')
	}

	counts := rep.Summary.Counts()
	out = append(out, fmt.Sprintf("\n%d passed, %d failed, %d skipped, %d errored\n",
		counts[checks.StatusPassed], counts[checks.StatusFailed],
		counts[checks.StatusSkipped], counts[checks.StatusErrored])...)
	return out
}

func statusGlyph(s checks.Status) string {
	switch s {
	case checks.StatusPassed:
		return "✓"
	case checks.StatusFailed:
		return "✗"
	case checks.StatusSkipped:
		return "-"
	default:
		return "!"
	}
}
