package ingestion

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hackwatch/hackwatch/internal/logging"
	"github.com/hackwatch/hackwatch/internal/models"
	"github.com/hackwatch/hackwatch/internal/resolve"
)

const defaultFanout = 4

// Orchestrator drives the configured history fetcher per repository.
// Every repository is an independent unit of work: Ingest always
// returns a result and captures all failure as data, so one broken
// repository can never affect another's outcome.
type Orchestrator struct {
	fetcher HistoryFetcher
	cache   *Cache
	log     *slog.Logger
	fanout  int
}

// OrchestratorOption customizes an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithFanout bounds how many repositories are ingested concurrently.
func WithFanout(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.fanout = n
		}
	}
}

// WithCache attaches a read-through commit cache.
func WithCache(cache *Cache) OrchestratorOption {
	return func(o *Orchestrator) {
		o.cache = cache
	}
}

// NewOrchestrator builds an orchestrator around a fetch strategy.
func NewOrchestrator(fetcher HistoryFetcher, log *slog.Logger, opts ...OrchestratorOption) *Orchestrator {
	if log == nil {
		log = logging.Discard()
	}
	o := &Orchestrator{
		fetcher: fetcher,
		log:     log,
		fanout:  defaultFanout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Ingest retrieves the commit history for one repository. It never
// returns an error: an unresolvable URL becomes a single error entry,
// and everything past resolution is recorded by the fetcher.
func (o *Orchestrator) Ingest(ctx context.Context, spec models.RepoSpec) *models.IngestResult {
	result := &models.IngestResult{Spec: spec}

	addr, err := resolve.Resolve(spec.RepoURL)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	if o.cache != nil {
		if commits, ok := o.cache.Get(spec.RepoURL); ok {
			o.log.Debug("commit cache hit", "repo", spec.RepoURL, "commits", len(commits))
			result.Commits = commits
			return result
		}
	}

	o.log.Info("ingesting repository",
		"team", spec.Team, "repo", spec.RepoURL, "provider", string(addr.Provider))
	o.fetcher.FetchHistory(ctx, addr, result)
	o.log.Info("ingestion finished",
		"repo", spec.RepoURL,
		"commits", len(result.Commits),
		"warnings", len(result.Warnings),
		"errors", len(result.Errors))

	if o.cache != nil && result.OK() {
		if err := o.cache.Put(spec.RepoURL, result.Commits); err != nil {
			o.log.Warn("failed to update commit cache", "repo", spec.RepoURL, "error", err)
		}
	}

	return result
}

// IngestAll processes every spec with bounded concurrency. Results are
// positionally aligned with the input specs.
func (o *Orchestrator) IngestAll(ctx context.Context, specs []models.RepoSpec) []*models.IngestResult {
	results := make([]*models.IngestResult, len(specs))

	var g errgroup.Group
	g.SetLimit(o.fanout)
	for i, spec := range specs {
		g.Go(func() error {
			results[i] = o.Ingest(ctx, spec)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
