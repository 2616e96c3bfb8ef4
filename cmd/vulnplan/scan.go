package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vulnplan/internal/aggregate"
	"vulnplan/internal/config"
	"vulnplan/internal/feeds"
	"vulnplan/internal/inventory"
	"vulnplan/internal/metrics"
	"vulnplan/internal/model"
	"vulnplan/internal/notify"
	"vulnplan/internal/plan"
	"vulnplan/internal/planstore"
)

var (
	scanJSON         bool
	scanFailCritical bool
	scanOffline      bool
	scanWithDocker   bool
	scanConcurrency  int
	scanMetricsPort  int
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a project and build its remediation plan",
	Long: `Discovers the project's assets, fetches vulnerability records from the
configured feeds, and builds a phased remediation plan. The plan is
persisted under .vulnplan/ so the next run can report the delta.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Output the plan as JSON")
	scanCmd.Flags().BoolVar(&scanFailCritical, "fail-critical", false, "Exit non-zero when critical findings exist")
	scanCmd.Flags().BoolVar(&scanOffline, "offline", false, "Replay the cached feed snapshot instead of fetching")
	scanCmd.Flags().BoolVar(&scanWithDocker, "with-docker", false, "Include images from the local Docker daemon")
	scanCmd.Flags().IntVar(&scanConcurrency, "concurrency", 0, "Normalization worker count (0 = NumCPU)")
	scanCmd.Flags().IntVar(&scanMetricsPort, "metrics-port", 0, "Expose Prometheus metrics on this port during the scan")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	projectPath, err := resolveProject(args)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if scanMetricsPort > 0 {
		m = metrics.New()
		srv := m.Serve(scanMetricsPort)
		defer srv.Close()
	}

	current, delta, err := runPipeline(ctx, projectPath, pipelineOptions{
		offline:     scanOffline,
		withDocker:  scanWithDocker,
		concurrency: scanConcurrency,
		metrics:     m,
	})
	if err != nil {
		return err
	}

	store := planstore.NewFileStore(projectPath)
	if err := store.Save(current); err != nil {
		return err
	}
	recordHistory(projectPath, current)

	notifier := notify.NewManager(slog.Default())
	if notifier.Enabled() {
		if err := notifier.ScanComplete(ctx, current, delta); err != nil {
			slog.Warn("notification failed", "error", err)
		}
	}

	if scanJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(current); err != nil {
			return err
		}
	} else {
		printScanSummary(cmd, current, delta)
	}

	if scanFailCritical {
		if ph := current.Phase(model.TierCritical); ph != nil && len(ph.Findings) > 0 {
			return fmt.Errorf("found %d critical findings", len(ph.Findings))
		}
	}
	return nil
}

type pipelineOptions struct {
	offline     bool
	withDocker  bool
	concurrency int
	metrics     *metrics.Metrics
}

// runPipeline executes discovery, fetch, aggregation, scoring and plan
// building, and diffs the result against the persisted previous plan. It
// does not persist anything itself.
func runPipeline(ctx context.Context, projectPath string, opts pipelineOptions) (*model.RemediationPlan, *plan.Delta, error) {
	start := time.Now()
	logger := slog.Default()

	scoring := config.Scoring()
	if err := scoring.Validate(); err != nil {
		return nil, nil, err
	}
	phaseCfg := config.Phases()
	if err := phaseCfg.Validate(); err != nil {
		return nil, nil, err
	}

	assets, err := inventory.Discover(projectPath, inventory.Options{
		Tags:   config.AssetTags(),
		Logger: logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("asset discovery failed: %w", err)
	}
	if opts.withDocker {
		assets = appendDaemonImages(ctx, assets, logger)
	}
	logger.Info("inventory discovered", "assets", len(assets), "project", projectPath)

	records, feedWarnings, err := collectRecords(ctx, projectPath, assets, opts, logger)
	if err != nil {
		return nil, nil, err
	}

	res, err := aggregate.Aggregate(assets, records, aggregate.Options{
		Concurrency: opts.concurrency,
		Logger:      logger,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("aggregation complete",
		"findings", len(res.Findings), "dropped", res.Dropped, "warnings", len(res.Warnings))
	if opts.metrics != nil {
		opts.metrics.RecordsDropped.Add(float64(res.Dropped))
	}

	scored, err := scoring.All(res.Findings)
	if err != nil {
		return nil, nil, err
	}

	current, err := plan.Build(scored, projectPath, phaseCfg)
	if err != nil {
		return nil, nil, err
	}
	current.Warnings = mergeWarnings(current.Warnings, feedWarnings, res.Warnings)

	if opts.metrics != nil {
		for _, ph := range current.Phases {
			opts.metrics.FindingsTotal.WithLabelValues(string(ph.Tier)).Add(float64(len(ph.Findings)))
		}
		opts.metrics.ObservePipeline(start)
	}

	previous, err := planstore.NewFileStore(projectPath).Load()
	if err != nil {
		logger.Warn("could not load previous plan", "error", err)
	}
	delta := plan.Diff(previous, current)
	return current, &delta, nil
}

// collectRecords fetches from all feeds (or replays the cache), then runs
// the NVD and KEV enrichment passes over what was discovered.
func collectRecords(ctx context.Context, projectPath string, assets []model.Asset, opts pipelineOptions, logger *slog.Logger) ([]model.RawFindingRecord, []model.PlanWarning, error) {
	cache := planstore.NewFeedCache(projectPath)
	if opts.offline {
		records, err := cache.Load()
		if err != nil {
			return nil, nil, err
		}
		logger.Info("replaying cached feed snapshot", "records", len(records))
		return records, nil, nil
	}

	timeout := time.Duration(viper.GetInt("feeds.timeout_seconds")) * time.Second
	clients := []feeds.Client{feeds.NewOSVClient(), feeds.NewGHSAClient()}
	records, warnings := feeds.FetchAll(ctx, clients, assets, timeout, logger)

	if enriched, err := feeds.NewNVDClient().Enrich(ctx, records); err != nil {
		logger.Warn("NVD enrichment failed", "error", err)
		warnings = append(warnings, model.PlanWarning{Source: model.SourceNVD, Message: err.Error()})
	} else {
		records = append(records, enriched...)
	}

	if catalog, err := feeds.NewKEVClient().Catalog(ctx); err != nil {
		logger.Warn("KEV catalog fetch failed", "error", err)
		warnings = append(warnings, model.PlanWarning{Source: model.SourceKEV, Message: err.Error()})
	} else {
		records = append(records, feeds.Annotate(records, catalog)...)
	}

	if opts.metrics != nil {
		bySource := map[string]int{}
		for _, r := range records {
			bySource[r.SourceID]++
		}
		for src, n := range bySource {
			opts.metrics.RecordsFetched.WithLabelValues(src).Add(float64(n))
		}
	}

	if err := cache.Save(records); err != nil {
		logger.Warn("could not save feed cache", "error", err)
	}
	return records, warnings, nil
}

func appendDaemonImages(ctx context.Context, assets []model.Asset, logger *slog.Logger) []model.Asset {
	d, err := inventory.NewDockerImages()
	if err != nil {
		logger.Warn("docker daemon unavailable", "error", err)
		return assets
	}
	defer d.Close()

	images, err := d.List(ctx)
	if err != nil {
		logger.Warn("could not list docker images", "error", err)
		return assets
	}
	return append(assets, images...)
}

func mergeWarnings(groups ...[]model.PlanWarning) []model.PlanWarning {
	var out []model.PlanWarning
	for _, g := range groups {
		out = append(out, g...)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		return a.Message < b.Message
	})
	return out
}

func recordHistory(projectPath string, p *model.RemediationPlan) {
	store, err := planstore.NewHistoryStore(planstore.HistoryConfig{
		Type:             viper.GetString("history.type"),
		ConnectionString: historyConnString(projectPath),
	})
	if err != nil {
		slog.Warn("history store unavailable", "error", err)
		return
	}
	defer store.Close()

	rec := planstore.ScanRecord{
		ProjectPath: projectPath,
		GeneratedAt: p.GeneratedAt,
		Findings:    p.FindingCount(),
		EffortHours: p.TotalEffortHours,
	}
	for _, ph := range p.Phases {
		switch ph.Tier {
		case model.TierCritical:
			rec.Critical = len(ph.Findings)
		case model.TierHigh:
			rec.High = len(ph.Findings)
		case model.TierMedium:
			rec.Medium = len(ph.Findings)
		case model.TierLow:
			rec.Low = len(ph.Findings)
		}
	}
	if err := store.SaveScan(rec); err != nil {
		slog.Warn("could not record scan history", "error", err)
	}
}

func historyConnString(projectPath string) string {
	if dsn := viper.GetString("history.connection_string"); dsn != "" {
		return dsn
	}
	if viper.GetString("history.type") == "postgres" {
		return ""
	}
	return filepath.Join(projectPath, ".vulnplan", "history.db")
}

func resolveProject(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return "", fmt.Errorf("project path %s is not a directory", abs)
	}
	return abs, nil
}
