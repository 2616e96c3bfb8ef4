// Package config loads and validates the scanner configuration. The
// scoring weights, phase thresholds and effort table are the single
// recognized configuration surface; everything else is fixed behavior.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"vulnplan/internal/model"
	"vulnplan/internal/plan"
	"vulnplan/internal/score"
)

// Load initializes viper from an optional config file, .env and the
// environment. Called once from the root command.
func Load(cfgFile string) {
	// explicit .env loading; missing file is fine
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".vulnplan")
	}

	viper.SetEnvPrefix("VULNPLAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		viper.Set("config_file_used", viper.ConfigFileUsed())
	}
}

func setDefaults() {
	viper.SetDefault("scoring.cvss_weight", 0.3)
	viper.SetDefault("scoring.exploitability_weight", 0.3)
	viper.SetDefault("scoring.criticality_weight", 0.2)
	viper.SetDefault("scoring.exposure_weight", 0.2)

	viper.SetDefault("scoring.thresholds.critical", 8.5)
	viper.SetDefault("scoring.thresholds.high", 6.5)
	viper.SetDefault("scoring.thresholds.medium", 4.0)

	viper.SetDefault("scoring.effort_hours.critical", 1.0)
	viper.SetDefault("scoring.effort_hours.high", 0.5)
	viper.SetDefault("scoring.effort_hours.medium", 0.25)
	viper.SetDefault("scoring.effort_hours.low", 0.1)

	viper.SetDefault("feeds.timeout_seconds", 30)
	viper.SetDefault("scan.concurrency", 0) // 0 = NumCPU
	viper.SetDefault("history.type", "sqlite")
	viper.SetDefault("verbose", false)

	slackEnabled := os.Getenv("SLACK_BOT_USER_TOKEN") != ""
	viper.SetDefault("notifications.slack.enabled", slackEnabled)
	viper.SetDefault("notifications.slack.channel", "#security")
}

// Scoring reads the weight configuration. Validation happens in the
// scorer, eagerly, before any finding is touched.
func Scoring() score.Config {
	return score.Config{
		CVSSWeight:           viper.GetFloat64("scoring.cvss_weight"),
		ExploitabilityWeight: viper.GetFloat64("scoring.exploitability_weight"),
		CriticalityWeight:    viper.GetFloat64("scoring.criticality_weight"),
		ExposureWeight:       viper.GetFloat64("scoring.exposure_weight"),
	}
}

// Phases reads the threshold and effort configuration.
func Phases() plan.Config {
	return plan.Config{
		CriticalThreshold: viper.GetFloat64("scoring.thresholds.critical"),
		HighThreshold:     viper.GetFloat64("scoring.thresholds.high"),
		MediumThreshold:   viper.GetFloat64("scoring.thresholds.medium"),
		EffortHours: map[model.Tier]float64{
			model.TierCritical: viper.GetFloat64("scoring.effort_hours.critical"),
			model.TierHigh:     viper.GetFloat64("scoring.effort_hours.high"),
			model.TierMedium:   viper.GetFloat64("scoring.effort_hours.medium"),
			model.TierLow:      viper.GetFloat64("scoring.effort_hours.low"),
		},
	}
}

// AssetTags reads the asset tag map (asset name or identity → tags) used
// to derive criticality and exposure tiers.
func AssetTags() map[string][]string {
	return viper.GetStringMapStringSlice("assets.tags")
}
