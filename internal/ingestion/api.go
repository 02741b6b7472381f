package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/hackwatch/hackwatch/internal/config"
	"github.com/hackwatch/hackwatch/internal/logging"
	"github.com/hackwatch/hackwatch/internal/models"
	"github.com/hackwatch/hackwatch/internal/resolve"
)

// APIFetcher retrieves history through the provider's REST API:
// a paginated commit list plus one detail request per commit (GitLab
// additionally needs a diff request for the changed-file list).
type APIFetcher struct {
	creds         config.CredentialProvider
	log           *slog.Logger
	httpClient    *http.Client
	limiter       *rate.Limiter
	detailWorkers int

	// Endpoint overrides for self-hosted providers and tests.
	githubBaseURL string
	gitlabBaseURL string
}

// APIOption customizes an APIFetcher.
type APIOption func(*APIFetcher)

// WithRateLimit overrides the per-second API request budget.
func WithRateLimit(perSecond float64) APIOption {
	return func(f *APIFetcher) {
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithDetailWorkers bounds concurrent per-commit detail requests
// within a page.
func WithDetailWorkers(n int) APIOption {
	return func(f *APIFetcher) {
		if n > 0 {
			f.detailWorkers = n
		}
	}
}

// WithHTTPClient substitutes the HTTP client, used by tests to point
// the fetcher at a local server.
func WithHTTPClient(client *http.Client) APIOption {
	return func(f *APIFetcher) {
		f.httpClient = client
	}
}

// NewAPIFetcher builds the API strategy. Tokens come from the injected
// credential provider; a missing token degrades to anonymous access.
func NewAPIFetcher(creds config.CredentialProvider, log *slog.Logger, opts ...APIOption) *APIFetcher {
	if log == nil {
		log = logging.Discard()
	}
	f := &APIFetcher{
		creds:         creds,
		log:           log,
		httpClient:    newHTTPClient(),
		limiter:       rate.NewLimiter(defaultRateLimit, 1),
		detailWorkers: defaultDetailWorkers,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchHistory dispatches to the provider-specific API walker. The API
// strategy has no endpoint to guess for unknown hosts, so those are
// skipped with a warning rather than treated as failures.
func (f *APIFetcher) FetchHistory(ctx context.Context, addr resolve.Address, result *models.IngestResult) {
	switch addr.Provider {
	case resolve.ProviderGitHub:
		f.fetchGitHub(ctx, addr, result)
	case resolve.ProviderGitLab:
		f.fetchGitLab(ctx, addr, result)
	default:
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Unsupported host %q for %s; skipped", addr.Host, result.Spec.RepoURL))
	}
}

func (f *APIFetcher) wait(ctx context.Context) error {
	return f.limiter.Wait(ctx)
}
