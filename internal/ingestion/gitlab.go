package ingestion

import (
	"context"
	"fmt"

	gitlab "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/sync/errgroup"

	"github.com/hackwatch/hackwatch/internal/models"
	"github.com/hackwatch/hackwatch/internal/resolve"
)

// WithGitLabBaseURL points the GitLab client at a fixed API endpoint
// instead of deriving it from the resolved host. Used by tests.
func WithGitLabBaseURL(base string) APIOption {
	return func(f *APIFetcher) {
		f.gitlabBaseURL = base
	}
}

func (f *APIFetcher) gitlabClient(addr resolve.Address) (*gitlab.Client, bool, error) {
	token := f.creds.GitLabToken()

	base := f.gitlabBaseURL
	if base == "" {
		// Self-hosted instances are addressed by the URL's own host.
		base = fmt.Sprintf("https://%s/api/v4", addr.Host)
	}

	client, err := gitlab.NewClient(token,
		gitlab.WithBaseURL(base),
		gitlab.WithHTTPClient(f.httpClient),
	)
	return client, token != "", err
}

// fetchGitLab walks the paginated commit list. GitLab's detail
// endpoint does not include changed files, so every commit costs a
// detail request plus a diff request; a failed diff degrades to an
// empty file list while a failed detail drops the commit with a
// warning.
func (f *APIFetcher) fetchGitLab(ctx context.Context, addr resolve.Address, result *models.IngestResult) {
	client, hasToken, err := f.gitlabClient(addr)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("GitLab client init failed for %s: %v", result.Spec.RepoURL, err))
		return
	}

	project := addr.ProjectPath()
	opts := &gitlab.ListCommitsOptions{
		ListOptions: gitlab.ListOptions{PerPage: pageSize, Page: 1},
	}

	for {
		if err := f.wait(ctx); err != nil {
			recordStatusFailure(result, "GitLab", 0, hasToken)
			return
		}

		summaries, resp, err := client.Commits.ListCommits(project, opts, gitlab.WithContext(ctx))
		if err != nil {
			recordStatusFailure(result, "GitLab", gitlabStatus(resp), hasToken)
			return
		}
		if len(summaries) == 0 {
			return
		}

		f.appendGitLabDetails(ctx, client, project, summaries, result)

		if resp.NextPage == 0 || len(summaries) < pageSize {
			return
		}
		opts.Page = resp.NextPage
	}
}

func (f *APIFetcher) appendGitLabDetails(ctx context.Context, client *gitlab.Client, project string, summaries []*gitlab.Commit, result *models.IngestResult) {
	type slot struct {
		commit  *models.Commit
		warning string
	}
	slots := make([]slot, len(summaries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.detailWorkers)
	for i, summary := range summaries {
		sha := summary.ID
		if sha == "" {
			continue
		}
		g.Go(func() error {
			if err := f.wait(gctx); err != nil {
				slots[i].warning = detailWarning(result, sha)
				return nil
			}
			detail, _, err := client.Commits.GetCommit(project, sha, nil, gitlab.WithContext(gctx))
			if err != nil {
				slots[i].warning = detailWarning(result, sha)
				return nil
			}

			files := f.gitlabChangedFiles(gctx, client, project, sha)
			slots[i].commit = gitlabCommit(sha, detail, files)
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

// gitlabChangedFiles fetches the diff for one commit. Diff failures
// are tolerated with an empty file list because the commit metadata is
// still usable for temporal classification.
func (f *APIFetcher) gitlabChangedFiles(ctx context.Context, client *gitlab.Client, project, sha string) []string {
	if err := f.wait(ctx); err != nil {
		return nil
	}
	diffs, _, err := client.Commits.GetCommitDiff(project, sha,
		&gitlab.GetCommitDiffOptions{ListOptions: gitlab.ListOptions{PerPage: pageSize}},
		gitlab.WithContext(ctx),
	)
	if err != nil {
		return nil
	}

	var files []string
	for _, diff := range diffs {
		switch {
		case diff.NewPath != "":
			files = append(files, diff.NewPath)
		case diff.OldPath != "":
			files = append(files, diff.OldPath)
		}
	}
	return files
}

func gitlabCommit(sha string, detail *gitlab.Commit, files []string) *models.Commit {
	timestamp := ""
	if detail.CommittedDate != nil {
		timestamp = models.FormatTimestamp(*detail.CommittedDate)
	}
	return &models.Commit{
		SHA:          sha,
		Author:       orUnknown(detail.AuthorName),
		Email:        orUnknown(detail.AuthorEmail),
		Timestamp:    timestamp,
		Message:      detail.Message,
		FilesChanged: files,
	}
}

// gitlabStatus extracts the HTTP status from a GitLab API response; 0
// means no response was received at all.
func gitlabStatus(resp *gitlab.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}
