package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vulnplan/internal/config"
	"vulnplan/internal/model"
)

var configJSON bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage scanner configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective scoring configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		scoring := config.Scoring()
		phases := config.Phases()

		if configJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"scoring": scoring,
				"phases":  phases,
			})
		}

		out := cmd.OutOrStdout()
		if f := viper.GetString("config_file_used"); f != "" {
			fmt.Fprintf(out, "Config file: %s\n\n", f)
		} else {
			fmt.Fprintln(out, "Config file: (defaults only)")
			fmt.Fprintln(out)
		}

		fmt.Fprintln(out, titleStyle.Render("Scoring weights"))
		fmt.Fprintf(out, "  cvss:           %.2f\n", scoring.CVSSWeight)
		fmt.Fprintf(out, "  exploitability: %.2f\n", scoring.ExploitabilityWeight)
		fmt.Fprintf(out, "  criticality:    %.2f\n", scoring.CriticalityWeight)
		fmt.Fprintf(out, "  exposure:       %.2f\n", scoring.ExposureWeight)
		if err := scoring.Validate(); err != nil {
			fmt.Fprintln(out, warnStyle.Render("  invalid: "+err.Error()))
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, titleStyle.Render("Phase thresholds"))
		fmt.Fprintf(out, "  critical: >= %.1f\n", phases.CriticalThreshold)
		fmt.Fprintf(out, "  high:     >= %.1f\n", phases.HighThreshold)
		fmt.Fprintf(out, "  medium:   >= %.1f\n", phases.MediumThreshold)
		if err := phases.Validate(); err != nil {
			fmt.Fprintln(out, warnStyle.Render("  invalid: "+err.Error()))
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, titleStyle.Render("Effort hours per finding"))
		for _, t := range model.Tiers() {
			fmt.Fprintf(out, "  %-8s %.2f\n", t, phases.EffortHours[t])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configShowCmd.Flags().BoolVar(&configJSON, "json", false, "Output configuration as JSON")
}
