package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"vulnplan/internal/planstore"
	"vulnplan/internal/report"
)

var (
	reportJSON bool
	reportRaw  bool
)

var reportCmd = &cobra.Command{
	Use:   "report [path]",
	Short: "Render the remediation plan from the last scan",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectPath, err := resolveProject(args)
		if err != nil {
			return err
		}

		p, err := planstore.NewFileStore(projectPath).Load()
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("no plan found for %s, run `vulnplan scan` first", projectPath)
		}

		if reportJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		}

		md := report.Remediation(p)
		if reportRaw {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), renderMarkdown(md))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Output the plan as JSON")
	reportCmd.Flags().BoolVar(&reportRaw, "markdown", false, "Output raw markdown without terminal styling")
}
