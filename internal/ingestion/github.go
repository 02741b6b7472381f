package ingestion

import (
	"context"
	"errors"
	"net/url"

	"github.com/google/go-github/v57/github"
	"golang.org/x/sync/errgroup"

	"github.com/hackwatch/hackwatch/internal/models"
	"github.com/hackwatch/hackwatch/internal/resolve"
)

// WithGitHubBaseURL points the GitHub client at a non-default API
// endpoint (GitHub Enterprise, or a test server). Must end in a slash.
func WithGitHubBaseURL(base string) APIOption {
	return func(f *APIFetcher) {
		f.githubBaseURL = base
	}
}

func (f *APIFetcher) githubClient() (*github.Client, bool) {
	client := github.NewClient(f.httpClient)
	token := f.creds.GitHubToken()
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if f.githubBaseURL != "" {
		if base, err := url.Parse(f.githubBaseURL); err == nil {
			client.BaseURL = base
		}
	}
	return client, token != ""
}

// fetchGitHub walks the paginated commit list and issues one detail
// request per summary entry; the detail response carries the changed
// files inline. List-level failures terminate the fetch with the
// shared status taxonomy, detail-level failures drop that one commit
// with a warning.
func (f *APIFetcher) fetchGitHub(ctx context.Context, addr resolve.Address, result *models.IngestResult) {
	client, hasToken := f.githubClient()

	opts := &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: pageSize},
	}

	for {
		if err := f.wait(ctx); err != nil {
			recordStatusFailure(result, "GitHub", 0, hasToken)
			return
		}

		summaries, resp, err := client.Repositories.ListCommits(ctx, addr.Owner, addr.Repo, opts)
		if err != nil {
			recordStatusFailure(result, "GitHub", githubStatus(err), hasToken)
			return
		}
		if len(summaries) == 0 {
			return
		}

		f.appendGitHubDetails(ctx, client, addr, summaries, result)

		if resp.NextPage == 0 || len(summaries) < pageSize {
			return
		}
		opts.Page = resp.NextPage
	}
}

// appendGitHubDetails fetches full commit metadata for one page of
// summaries. Detail requests run concurrently under the worker bound;
// each worker writes only its own slot so rejoining by index preserves
// the provider's history order.
func (f *APIFetcher) appendGitHubDetails(ctx context.Context, client *github.Client, addr resolve.Address, summaries []*github.RepositoryCommit, result *models.IngestResult) {
	type slot struct {
		commit  *models.Commit
		warning string
	}
	slots := make([]slot, len(summaries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.detailWorkers)
	for i, summary := range summaries {
		sha := summary.GetSHA()
		if sha == "" {
			continue
		}
		g.Go(func() error {
			if err := f.wait(gctx); err != nil {
				slots[i].warning = detailWarning(result, sha)
				return nil
			}
			detail, _, err := client.Repositories.GetCommit(gctx, addr.Owner, addr.Repo, sha, nil)
			if err != nil {
				slots[i].warning = detailWarning(result, sha)
				return nil
			}
			slots[i].commit = githubCommit(sha, detail)
			return nil
		})
	}
	_ = g.Wait()

	for _, s := range slots {
		switch {
		case s.commit != nil:
			result.Commits = append(result.Commits, *s.commit)
		case s.warning != "":
			result.Warnings = append(result.Warnings, s.warning)
		}
	}
}

func githubCommit(sha string, detail *github.RepositoryCommit) *models.Commit {
	inner := detail.GetCommit()
	author := inner.GetAuthor()

	timestamp := ""
	if date := author.GetDate(); !date.IsZero() {
		timestamp = models.FormatTimestamp(date.Time)
	}

	files := make([]string, 0, len(detail.Files))
	for _, file := range detail.Files {
		if name := file.GetFilename(); name != "" {
			files = append(files, name)
		}
	}

	return &models.Commit{
		SHA:          sha,
		Author:       orUnknown(author.GetName()),
		Email:        orUnknown(author.GetEmail()),
		Timestamp:    timestamp,
		Message:      inner.GetMessage(),
		FilesChanged: files,
	}
}

// githubStatus extracts the HTTP status from a go-github error; 0
// means the failure happened below HTTP (timeout, DNS, connection).
func githubStatus(err error) int {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return rateErr.Response.StatusCode
	}
	return 0
}

func orUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
