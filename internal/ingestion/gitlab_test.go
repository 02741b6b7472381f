package ingestion

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackwatch/hackwatch/internal/models"
	"github.com/hackwatch/hackwatch/internal/resolve"
)

var gitlabAddr = resolve.Address{
	Provider:  resolve.ProviderGitLab,
	Host:      "gitlab.com",
	Namespace: "group",
	Repo:      "project",
}

func gitlabResult() *models.IngestResult {
	return &models.IngestResult{
		Spec: models.RepoSpec{Team: "team-b", RepoURL: "https://gitlab.com/group/project"},
	}
}

// gitlabHandler routes on the escaped path because GitLab project IDs
// keep their slashes percent-encoded.
func gitlabHandler(routes map[string]http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := routes[r.URL.EscapedPath()]; ok {
			handler(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

func newGitLabFetcher(t *testing.T, handler http.Handler, creds staticCreds) *APIFetcher {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewAPIFetcher(creds, nil,
		WithGitLabBaseURL(server.URL+"/api/v4"),
		WithHTTPClient(server.Client()),
		WithRateLimit(10000),
	)
}

func TestGitLabFetchHappyPath(t *testing.T) {
	const base = "/api/v4/projects/group%2Fproject/repository/commits"

	routes := map[string]http.HandlerFunc{
		base: func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[{"id":"aaa111"},{"id":"bbb222"}]`)
		},
		base + "/aaa111": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{
				"id": "aaa111",
				"author_name": "Alice",
				"author_email": "alice@example.com",
				"committed_date": "2026-02-21T13:00:00+01:00",
				"message": "add feature"
			}`)
		},
		base + "/aaa111/diff": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[{"new_path":"feature.go","old_path":"feature.go"},{"new_path":"","old_path":"legacy.go"}]`)
		},
		base + "/bbb222": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{
				"id": "bbb222",
				"author_name": "Bob",
				"author_email": "bob@example.com",
				"committed_date": "2026-02-20T09:00:00Z",
				"message": "initial"
			}`)
		},
		base + "/bbb222/diff": func(w http.ResponseWriter, r *http.Request) {
			// Diff retrieval failing degrades to an empty file list.
			http.Error(w, `{"message":"404 not found"}`, http.StatusNotFound)
		},
	}

	fetcher := newGitLabFetcher(t, gitlabHandler(routes), staticCreds{})
	result := gitlabResult()
	fetcher.FetchHistory(context.Background(), gitlabAddr, result)

	require.Empty(t, result.Errors)
	require.Empty(t, result.Warnings)
	require.Len(t, result.Commits, 2)

	first := result.Commits[0]
	assert.Equal(t, "aaa111", first.SHA)
	assert.Equal(t, "Alice", first.Author)
	assert.Equal(t, "2026-02-21T12:00:00Z", first.Timestamp, "offsets normalize to UTC")
	assert.Equal(t, []string{"feature.go", "legacy.go"}, first.FilesChanged)

	assert.Empty(t, result.Commits[1].FilesChanged)
}

func TestGitLabFetchDetailFailureIsWarning(t *testing.T) {
	const base = "/api/v4/projects/group%2Fproject/repository/commits"

	routes := map[string]http.HandlerFunc{
		base: func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[{"id":"gone999"}]`)
		},
		// No detail route: the follow-up request 404s.
	}

	fetcher := newGitLabFetcher(t, gitlabHandler(routes), staticCreds{})
	result := gitlabResult()
	fetcher.FetchHistory(context.Background(), gitlabAddr, result)

	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Commits)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "gone999")
}

func TestGitLabFetchNotFoundIsError(t *testing.T) {
	fetcher := newGitLabFetcher(t, gitlabHandler(nil), staticCreds{})
	result := gitlabResult()
	fetcher.FetchHistory(context.Background(), gitlabAddr, result)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "not found or unreachable")
}

func TestGitLabFetchUnauthorizedWithoutTokenIsWarning(t *testing.T) {
	const base = "/api/v4/projects/group%2Fproject/repository/commits"
	routes := map[string]http.HandlerFunc{
		base: func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"401 Unauthorized"}`, http.StatusUnauthorized)
		},
	}

	fetcher := newGitLabFetcher(t, gitlabHandler(routes), staticCreds{})
	result := gitlabResult()
	fetcher.FetchHistory(context.Background(), gitlabAddr, result)

	assert.Empty(t, result.Errors)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "may be private")
}

func TestGitLabFetchUnauthorizedWithTokenIsError(t *testing.T) {
	const base = "/api/v4/projects/group%2Fproject/repository/commits"
	routes := map[string]http.HandlerFunc{
		base: func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"403 Forbidden"}`, http.StatusForbidden)
		},
	}

	fetcher := newGitLabFetcher(t, gitlabHandler(routes), staticCreds{gitlab: "glpat-token"})
	result := gitlabResult()
	fetcher.FetchHistory(context.Background(), gitlabAddr, result)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "access denied")
	assert.Empty(t, result.Warnings)
}
