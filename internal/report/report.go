// Package report rolls per-repository temporal reports into team-level
// verdicts and renders them as markdown.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/hackwatch/hackwatch/internal/models"
	"github.com/hackwatch/hackwatch/internal/risk"
	"github.com/hackwatch/hackwatch/internal/temporal"
)

// Severity is the organizer-facing roll-up of a team's signals.
type Severity string

const (
	SeverityClean   Severity = "clean"
	SeverityReview  Severity = "review-recommended"
	SeverityFlagged Severity = "flagged"
)

// TeamReport is the final per-team verdict.
type TeamReport struct {
	Team          string           `json:"team"`
	RepoURL       string           `json:"repo_url"`
	Temporal      *temporal.Report `json:"temporal,omitempty"`
	IngestErrors  []string         `json:"ingest_errors,omitempty"`
	IngestWarns   []string         `json:"ingest_warnings,omitempty"`
	OverallFlag   Severity         `json:"overall_flag"`
	OverallReason string           `json:"overall_reason"`
}

// Build derives the team verdict from one ingest result and its
// temporal report (nil when analysis was unavailable). High temporal
// risk flags the team, medium recommends review, anything else is
// clean. Zero commits from a failed or private repository scores low
// rather than inferring certainty.
func Build(result *models.IngestResult, rep *temporal.Report) TeamReport {
	out := TeamReport{
		Team:         result.Spec.Team,
		RepoURL:      result.Spec.RepoURL,
		Temporal:     rep,
		IngestErrors: result.Errors,
		IngestWarns:  result.Warnings,
	}

	switch {
	case rep != nil && rep.RiskFlag == risk.FlagHigh:
		out.OverallFlag = SeverityFlagged
		out.OverallReason = fmt.Sprintf(
			"Temporal originality risk is high: %s Recommend organizer review before judging.", rep.RiskReason)
	case rep != nil && rep.RiskFlag == risk.FlagMedium:
		out.OverallFlag = SeverityReview
		out.OverallReason = fmt.Sprintf("Temporal originality risk is medium: %s", rep.RiskReason)
	default:
		out.OverallFlag = SeverityClean
		out.OverallReason = "No major originality concerns were detected from available signals."
	}
	return out
}

// RenderMarkdown renders one team report.
func RenderMarkdown(r TeamReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s - %s\n\n", r.Team, strings.ToUpper(string(r.OverallFlag)))
	fmt.Fprintf(&b, "**Repo:** %s\n\n", r.RepoURL)

	b.WriteString("## Temporal Originality\n")
	if r.Temporal == nil {
		b.WriteString("Temporal analysis was not available for this repository.\n")
	} else {
		fmt.Fprintf(&b, "- Commits analyzed: %d\n", r.Temporal.TotalCommits)
		fmt.Fprintf(&b, "- Commit timing: pre-window=%d, in-window=%d, post-window=%d\n",
			r.Temporal.PreWindow, r.Temporal.InWindow, r.Temporal.PostWindow)
		fmt.Fprintf(&b, "- Pre-window percentage: %.1f%%\n", r.Temporal.PreWindowPct)
		fmt.Fprintf(&b, "- Risk flag: %s\n", r.Temporal.RiskFlag)
		fmt.Fprintf(&b, "- Reason: %s\n", r.Temporal.RiskReason)
	}

	if len(r.IngestErrors) > 0 || len(r.IngestWarns) > 0 {
		b.WriteString("\n## Ingestion Notes\n")
		for _, e := range r.IngestErrors {
			fmt.Fprintf(&b, "- error: %s\n", e)
		}
		for _, w := range r.IngestWarns {
			fmt.Fprintf(&b, "- warning: %s\n", w)
		}
	}

	fmt.Fprintf(&b, "\n## Summary\n%s\n", r.OverallReason)
	return b.String()
}

// RenderIndex renders the cross-team summary table, worst severity
// first, alphabetical within a severity.
func RenderIndex(reports []TeamReport) string {
	rank := map[Severity]int{SeverityFlagged: 0, SeverityReview: 1, SeverityClean: 2}
	ordered := make([]TeamReport, len(reports))
	copy(ordered, reports)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, rj := rank[ordered[i].OverallFlag], rank[ordered[j].OverallFlag]
		if ri != rj {
			return ri < rj
		}
		return strings.ToLower(ordered[i].Team) < strings.ToLower(ordered[j].Team)
	})

	var b strings.Builder
	b.WriteString("# Submission Originality Summary\n\n")
	b.WriteString("| Team | Flag | Temporal Risk | Pre-window % |\n")
	b.WriteString("|---|---|---|---:|\n")
	for _, r := range ordered {
		temporalRisk, preWindowPct := "n/a", "n/a"
		if r.Temporal != nil {
			temporalRisk = string(r.Temporal.RiskFlag)
			preWindowPct = fmt.Sprintf("%.1f%%", r.Temporal.PreWindowPct)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", r.Team, r.OverallFlag, temporalRisk, preWindowPct)
	}
	return b.String()
}

// Write renders every team report plus the index into dir, one run
// directory per invocation so repeated runs never clobber each other.
// Returns the paths written.
func Write(dir string, reports []TeamReport) ([]string, error) {
	runDir := filepath.Join(dir, "run-"+uuid.NewString()[:8])
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	var written []string
	for _, r := range reports {
		path := filepath.Join(runDir, slugify(r.Team)+".md")
		if err := os.WriteFile(path, []byte(RenderMarkdown(r)), 0o644); err != nil {
			return written, fmt.Errorf("failed to write report for %s: %w", r.Team, err)
		}
		written = append(written, path)
	}

	indexPath := filepath.Join(runDir, "index.md")
	if err := os.WriteFile(indexPath, []byte(RenderIndex(reports)), 0o644); err != nil {
		return written, fmt.Errorf("failed to write index: %w", err)
	}
	return append(written, indexPath), nil
}

func slugify(value string) string {
	var b strings.Builder
	lastDash := true
	for _, ch := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9':
			b.WriteRune(ch)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "team-report"
	}
	return slug
}
