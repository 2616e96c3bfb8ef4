package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vulnplan/internal/planstore"
)

var (
	historyJSON  bool
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history [path]",
	Short: "Show past scans of a project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectPath, err := resolveProject(args)
		if err != nil {
			return err
		}

		store, err := planstore.NewHistoryStore(planstore.HistoryConfig{
			Type:             viper.GetString("history.type"),
			ConnectionString: historyConnString(projectPath),
		})
		if err != nil {
			return err
		}
		defer store.Close()

		scans, err := store.ListScans(projectPath, historyLimit)
		if err != nil {
			return err
		}

		if historyJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(scans)
		}

		if len(scans) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No scans recorded for %s\n", projectPath)
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render("Scan history for "+projectPath))
		fmt.Fprintf(out, "%-20s %9s %9s %6s %8s %5s %8s\n",
			"WHEN", "FINDINGS", "CRITICAL", "HIGH", "MEDIUM", "LOW", "EFFORT")
		for _, s := range scans {
			fmt.Fprintf(out, "%-20s %9d %9d %6d %8d %5d %7.1fh\n",
				s.GeneratedAt.Local().Format("2006-01-02 15:04"),
				s.Findings, s.Critical, s.High, s.Medium, s.Low, s.EffortHours)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output history as JSON")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of scans to show")
}
