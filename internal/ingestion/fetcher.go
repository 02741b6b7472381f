// Package ingestion retrieves full commit history for a repository
// from its hosting provider and aggregates per-repository results.
//
// Two interchangeable strategies implement HistoryFetcher: APIFetcher
// walks the provider's paginated REST API, CloneFetcher performs a
// bare clone and reads the log. Both emit the same Commit shape, so
// everything downstream is strategy-agnostic.
package ingestion

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/hackwatch/hackwatch/internal/models"
	"github.com/hackwatch/hackwatch/internal/resolve"
)

const (
	// pageSize is the per-page item count requested from provider
	// list endpoints. Pagination terminates on the first short page.
	pageSize = 100

	// httpTimeout applies to every provider API call. A timeout is
	// treated like any other transport failure.
	httpTimeout = 30 * time.Second

	defaultDetailWorkers = 8
	defaultRateLimit     = rate.Limit(5)
)

// HistoryFetcher retrieves the commit history for a resolved address,
// appending commits, warnings and errors onto the result. The result
// accumulator is owned by the calling orchestration; fetchers never
// return control-flow errors of their own.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, addr resolve.Address, result *models.IngestResult)
}

// recordStatusFailure translates an HTTP status from a provider API
// into the result taxonomy shared by both providers. status 0 means
// the request never produced a response (timeout, DNS, connection).
// Every branch terminates the fetch for this repository.
func recordStatusFailure(result *models.IngestResult, provider string, status int, hasToken bool) {
	url := result.Spec.RepoURL
	switch {
	case status == 0:
		result.Errors = append(result.Errors, fmt.Sprintf("%s request failed for %s", provider, url))
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if hasToken {
			result.Errors = append(result.Errors, fmt.Sprintf("%s access denied for %s; token may lack scope", provider, url))
		} else {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s repo may be private: %s; missing token, skipped", provider, url))
		}
	case status == http.StatusNotFound:
		result.Errors = append(result.Errors, fmt.Sprintf("%s repo not found or unreachable: %s", provider, url))
	default:
		result.Errors = append(result.Errors, fmt.Sprintf("%s API error (%d) for %s", provider, status, url))
	}
}

func detailWarning(result *models.IngestResult, sha string) string {
	return fmt.Sprintf("Failed to fetch commit details for %s in %s", sha, result.Spec.RepoURL)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}
