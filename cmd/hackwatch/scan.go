package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hackwatch/hackwatch/internal/config"
	"github.com/hackwatch/hackwatch/internal/ingestion"
	"github.com/hackwatch/hackwatch/internal/logging"
	"github.com/hackwatch/hackwatch/internal/report"
	"github.com/hackwatch/hackwatch/internal/temporal"
)

var (
	inputPath   string
	githubToken string
	gitlabToken string
	strategy    string
	outDir      string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Ingest submitted repositories and score temporal originality risk",
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringVar(&inputPath, "input", "", "CSV or YAML submissions file (required)")
	scanCmd.Flags().StringVar(&githubToken, "github-token", "", "GitHub token override (default: GITHUB_TOKEN)")
	scanCmd.Flags().StringVar(&gitlabToken, "gitlab-token", "", "GitLab token override (default: GITLAB_TOKEN)")
	scanCmd.Flags().StringVar(&strategy, "strategy", "", "fetch strategy: api or clone (default: from config)")
	scanCmd.Flags().StringVar(&outDir, "out", "", "report output directory (default: from config)")
	_ = scanCmd.MarkFlagRequired("input")
}

func runScan(cmd *cobra.Command, args []string) error {
	if strategy != "" {
		cfg.Fetch.Strategy = strategy
	}
	if outDir != "" {
		cfg.Report.OutputDir = outDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	specs, err := config.LoadSubmissions(inputPath)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	slogger := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		JSONFormat: cfg.Log.JSONFormat,
	})
	if verbose {
		slogger = logging.New(logging.Config{Level: "debug", JSONFormat: cfg.Log.JSONFormat})
	}

	creds := config.StaticCredentials{
		GitHub:   githubToken,
		GitLab:   gitlabToken,
		Fallback: config.EnvCredentials{},
	}

	var fetcher ingestion.HistoryFetcher
	switch cfg.Fetch.Strategy {
	case "clone":
		fetcher = ingestion.NewCloneFetcher(creds, slogger)
	default:
		fetcher = ingestion.NewAPIFetcher(creds, slogger,
			ingestion.WithRateLimit(cfg.Fetch.RateLimit),
			ingestion.WithDetailWorkers(cfg.Fetch.DetailWorkers),
		)
	}

	orchOpts := []ingestion.OrchestratorOption{ingestion.WithFanout(cfg.Fetch.Fanout)}
	if cfg.Cache.Enabled {
		cache, err := ingestion.OpenCache(cfg.Cache.Path, cfg.Cache.TTL)
		if err != nil {
			logger.WithError(err).Warn("commit cache unavailable, continuing without it")
		} else {
			defer cache.Close()
			orchOpts = append(orchOpts, ingestion.WithCache(cache))
		}
	}
	orch := ingestion.NewOrchestrator(fetcher, slogger, orchOpts...)

	results := orch.IngestAll(cmd.Context(), specs)

	var (
		reports      []report.TeamReport
		totalCommits int
		totalErrors  int
	)
	for _, result := range results {
		totalCommits += len(result.Commits)
		totalErrors += len(result.Errors)

		var temporalReport *temporal.Report
		if result.OK() {
			temporalReport, err = temporal.Analyze(result, cfg.Window)
			if err != nil {
				return fmt.Errorf("temporal analysis failed for %s: %w", result.Spec.RepoURL, err)
			}
		}
		reports = append(reports, report.Build(result, temporalReport))

		logger.Infof("%s | %s | commits=%d", result.Spec.Team, result.Spec.RepoURL, len(result.Commits))
		for _, warning := range result.Warnings {
			logger.Warnf("  warning: %s", warning)
		}
		for _, errMsg := range result.Errors {
			logger.Errorf("  error: %s", errMsg)
		}
	}

	written, err := report.Write(cfg.Report.OutputDir, reports)
	if err != nil {
		return err
	}

	logger.Infof("Processed repos: %d", len(specs))
	logger.Infof("Total commits: %d", totalCommits)
	logger.Infof("Total errors: %d", totalErrors)
	logger.Infof("Reports written: %d (under %s)", len(written), cfg.Report.OutputDir)
	return nil
}
