package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "migratest",
	Short: "Verify database schema migrations are internally consistent",
	Long: `migratest runs consistency checks against a directory of SQL schema
migrations and a real PostgreSQL database: that migrations apply end to
end, that downgrading returns the schema to its earlier state, and that
application models agree with the fully migrated schema.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
