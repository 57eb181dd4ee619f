package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/migratest/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show migratest configuration attributes and their sources",
	Long: `Show migratest configuration attributes and their sources.

Config file location: ./migratest.yml (or MIGRATEST_CONFIG_PATH)

Example:
  migratest config
  migratest config --output json`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")
		if err := showConfiguration(output); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to show configuration: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
}

func showConfiguration(output string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	attrs := cfg.Attributes()

	if output == "json" {
		out, err := json.MarshalIndent(attrs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tVALUE\tSOURCE")
	for _, attr := range attrs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", attr.Name, attr.Value, attr.Source)
	}
	return w.Flush()
}
