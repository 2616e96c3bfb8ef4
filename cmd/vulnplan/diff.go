package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"vulnplan/internal/report"
)

var (
	diffJSON bool
	diffRaw  bool
)

var diffCmd = &cobra.Command{
	Use:   "diff [path]",
	Short: "Re-run the pipeline against the cached feed snapshot and show the delta",
	Long: `Replays the feed records cached by the last online scan, rebuilds the
plan with the current configuration and inventory, and partitions the
findings into new, unchanged and resolved relative to the persisted plan.
Nothing is persisted: the stored plan stays as the last scan left it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectPath, err := resolveProject(args)
		if err != nil {
			return err
		}

		_, delta, err := runPipeline(cmd.Context(), projectPath, pipelineOptions{offline: true})
		if err != nil {
			return err
		}

		if diffJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(delta)
		}

		md := report.Delta(*delta)
		if diffRaw {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), renderMarkdown(md))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "Output the delta as JSON")
	diffCmd.Flags().BoolVar(&diffRaw, "markdown", false, "Output raw markdown without terminal styling")
}
