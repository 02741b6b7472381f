package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"github.com/hackwatch/hackwatch/internal/config"
	"github.com/hackwatch/hackwatch/internal/logging"
	"github.com/hackwatch/hackwatch/internal/models"
	"github.com/hackwatch/hackwatch/internal/resolve"
)

// fieldSep separates header fields in the git log format. 0x1f (unit
// separator) cannot appear in a SHA, author identity, ISO date or
// subject line, so splitting on it is unambiguous.
const fieldSep = "\x1f"

const redactionMarker = "***REDACTED***"

// privateRepoMarkers are the stderr fragments that indicate a clone
// was refused for lack of credentials rather than because the repo is
// gone. Matched case-insensitively against sanitized output.
var privateRepoMarkers = []string{
	"authentication failed",
	"could not read username",
	"access denied",
	"unauthorized",
}

// CloneFetcher retrieves history with a bare `git clone` into an
// ephemeral directory followed by a single structured `git log` pass.
// Unlike the API strategy it will attempt unknown hosts, treating
// their failures as warnings since support was never guaranteed.
type CloneFetcher struct {
	creds config.CredentialProvider
	log   *slog.Logger
}

// NewCloneFetcher builds the clone strategy.
func NewCloneFetcher(creds config.CredentialProvider, log *slog.Logger) *CloneFetcher {
	if log == nil {
		log = logging.Discard()
	}
	return &CloneFetcher{creds: creds, log: log}
}

// FetchHistory clones the repository bare and parses its log. The
// temporary directory is removed on every exit path.
func (f *CloneFetcher) FetchHistory(ctx context.Context, addr resolve.Address, result *models.IngestResult) {
	token := f.tokenFor(addr.Provider)
	cloneURL := buildCloneURL(addr, result.Spec.RepoURL, token)

	tmpDir, err := os.MkdirTemp("", "hackwatch-clone-")
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to create temp dir for %s: %v", result.Spec.RepoURL, err))
		return
	}
	defer os.RemoveAll(tmpDir)

	if out, err := runGit(ctx, "clone", "--bare", "--quiet", cloneURL, tmpDir); err != nil {
		f.recordCloneFailure(result, addr, token, out)
		return
	}

	out, err := runGit(ctx,
		"-C", tmpDir,
		"log",
		"--no-merges",
		"--name-only",
		"--pretty=format:%H"+fieldSep+"%an"+fieldSep+"%ae"+fieldSep+"%aI"+fieldSep+"%s",
	)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("git log failed for %s: %s", result.Spec.RepoURL, redactToken(out, token)))
		return
	}

	commits, malformed := parseGitLog(out)
	result.Commits = append(result.Commits, commits...)
	for i := 0; i < malformed; i++ {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Skipped a malformed log record in %s", result.Spec.RepoURL))
	}
	f.log.Debug("clone fetch complete",
		"repo", result.Spec.RepoURL, "commits", len(commits), "malformed", malformed)
}

func (f *CloneFetcher) tokenFor(provider resolve.Provider) string {
	switch provider {
	case resolve.ProviderGitHub:
		return f.creds.GitHubToken()
	case resolve.ProviderGitLab:
		return f.creds.GitLabToken()
	default:
		return ""
	}
}

// recordCloneFailure applies the clone-failure taxonomy. Output is
// sanitized before it can reach any message; leaking the token is
// never acceptable, including in warnings.
func (f *CloneFetcher) recordCloneFailure(result *models.IngestResult, addr resolve.Address, token, output string) {
	sanitized := strings.TrimSpace(redactToken(output, token))
	repoURL := result.Spec.RepoURL

	if addr.Provider == resolve.ProviderUnknown {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Unable to clone unknown host %q for %s; skipped: %s", addr.Host, repoURL, sanitized))
		return
	}

	if token == "" && containsPrivateMarker(sanitized) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Repo may be private: %s; missing token, skipped", repoURL))
		return
	}

	result.Errors = append(result.Errors, fmt.Sprintf("git clone failed for %s: %s", repoURL, sanitized))
}

// buildCloneURL embeds the token in the URL credential position using
// each provider's convention: GitHub takes the token as the username,
// GitLab takes it as an OAuth2 password. The returned URL must never
// be logged or placed in a message verbatim.
func buildCloneURL(addr resolve.Address, rawURL, token string) string {
	if token == "" {
		return rawURL
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}

	switch addr.Provider {
	case resolve.ProviderGitHub:
		parsed.User = url.User(token)
	case resolve.ProviderGitLab:
		parsed.User = url.UserPassword("oauth2", token)
	default:
		return rawURL
	}
	return parsed.String()
}

// redactToken removes every occurrence of the token from text. Exact
// substring replacement: the token value is the only secret in play.
func redactToken(text, token string) string {
	if token == "" {
		return text
	}
	return strings.ReplaceAll(text, token, redactionMarker)
}

func containsPrivateMarker(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range privateRepoMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// runGit executes git with prompts disabled. On success it returns
// stdout; on failure it returns the captured stderr (which callers
// must sanitize before surfacing).
func runGit(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return msg, err
	}
	return stdout.String(), nil
}

// parseGitLog turns the structured log output into commits. Each
// record is a header line of five fieldSep-separated fields followed
// by the changed file paths, with blank lines between records. A
// header with the wrong field count skips that record (counted for a
// warning) instead of aborting the fetch.
func parseGitLog(out string) (commits []models.Commit, malformed int) {
	var current *models.Commit

	flush := func() {
		if current != nil {
			commits = append(commits, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, fieldSep) {
			flush()
			fields := strings.Split(line, fieldSep)
			if len(fields) != 5 || fields[0] == "" {
				malformed++
				continue
			}
			current = &models.Commit{
				SHA:          fields[0],
				Author:       fields[1],
				Email:        fields[2],
				Timestamp:    models.NormalizeTimestamp(fields[3]),
				Message:      fields[4],
				FilesChanged: []string{},
			}
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if current != nil {
			current.FilesChanged = append(current.FilesChanged, line)
		}
	}
	flush()
	return commits, malformed
}
