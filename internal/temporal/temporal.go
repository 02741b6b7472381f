// Package temporal classifies commits against a hackathon window and
// aggregates per-repository temporal reports.
package temporal

import (
	"fmt"
	"time"

	"github.com/hackwatch/hackwatch/internal/models"
	"github.com/hackwatch/hackwatch/internal/risk"
)

// Period is a commit's temporal bucket relative to the window.
type Period string

const (
	PeriodPre  Period = "pre"
	PeriodIn   Period = "in"
	PeriodPost Period = "post"
)

// Window is a hackathon's start/end pair interpreted in an IANA zone.
// Endpoints without an explicit offset are assumed to already be
// expressed in Timezone.
type Window struct {
	Start    string `yaml:"start_datetime" mapstructure:"start_datetime"`
	End      string `yaml:"end_datetime" mapstructure:"end_datetime"`
	Timezone string `yaml:"timezone" mapstructure:"timezone"`
}

// Report is the immutable per-repository outcome of temporal analysis.
type Report struct {
	Team                string         `json:"team"`
	RepoURL             string         `json:"repo_url"`
	TotalCommits        int            `json:"total_commits"`
	PreWindow           int            `json:"pre_window"`
	InWindow            int            `json:"in_window"`
	PostWindow          int            `json:"post_window"`
	PreWindowPct        float64        `json:"pre_window_pct"`
	LargestPreCommit    *models.Commit `json:"largest_pre_commit,omitempty"`
	FirstInWindowCommit *models.Commit `json:"first_in_window_commit,omitempty"`
	RiskFlag            risk.Flag      `json:"risk_flag"`
	RiskReason          string         `json:"risk_reason"`
}

// ParseWindow resolves the window endpoints to instants. A window
// whose end precedes its start is a configuration error and fails
// fast here rather than skewing classification later.
func ParseWindow(w Window) (start, end time.Time, err error) {
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid hackathon timezone %q: %w", w.Timezone, err)
	}
	start, err = parseInZone(w.Start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid window start %q: %w", w.Start, err)
	}
	end, err = parseInZone(w.End, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid window end %q: %w", w.End, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("hackathon window end %q precedes start %q", w.End, w.Start)
	}
	return start, end, nil
}

// parseInZone accepts RFC3339 timestamps (offset wins) and naive
// ISO-8601 timestamps, which are interpreted in loc.
func parseInZone(raw string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format")
}

// Classify labels one commit pre, in, or post relative to the window.
// Both endpoints are inclusive: a commit exactly at start or end is in.
func Classify(commit models.Commit, window Window) (Period, error) {
	start, end, err := ParseWindow(window)
	if err != nil {
		return "", err
	}
	ts, err := parseCommitTime(commit.Timestamp)
	if err != nil {
		return "", err
	}
	return classifyInstant(ts, start, end), nil
}

func classifyInstant(ts, start, end time.Time) Period {
	if ts.Before(start) {
		return PeriodPre
	}
	if ts.After(end) {
		return PeriodPost
	}
	return PeriodIn
}

func parseCommitTime(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable commit timestamp %q", raw)
}

// Analyze buckets every commit of one ingest result, computes the
// aggregate counts, and scores the repository. Commits whose
// timestamps cannot be parsed are counted in the total but left out of
// every bucket, mirroring how the fetchers pass unparseable provider
// timestamps through rather than dropping the commit.
func Analyze(result *models.IngestResult, window Window) (*Report, error) {
	start, end, err := ParseWindow(window)
	if err != nil {
		return nil, err
	}

	var (
		preCommits []models.Commit
		inCommits  []models.Commit
		postCount  int
	)
	for _, commit := range result.Commits {
		ts, err := parseCommitTime(commit.Timestamp)
		if err != nil {
			continue
		}
		switch classifyInstant(ts, start, end) {
		case PeriodPre:
			preCommits = append(preCommits, commit)
		case PeriodPost:
			postCount++
		default:
			inCommits = append(inCommits, commit)
		}
	}

	total := len(result.Commits)
	preWindowPct := 0.0
	if total > 0 {
		preWindowPct = float64(len(preCommits)) / float64(total) * 100.0
	}

	var largestPre *models.Commit
	for i := range preCommits {
		if largestPre == nil || len(preCommits[i].FilesChanged) > len(largestPre.FilesChanged) {
			largestPre = &preCommits[i]
		}
	}

	var firstIn *models.Commit
	var firstInTime time.Time
	for i := range inCommits {
		ts, err := parseCommitTime(inCommits[i].Timestamp)
		if err != nil {
			continue
		}
		if firstIn == nil || ts.Before(firstInTime) {
			firstIn = &inCommits[i]
			firstInTime = ts
		}
	}

	largestPreFiles := 0
	if largestPre != nil {
		largestPreFiles = len(largestPre.FilesChanged)
	}
	flag, reason := risk.Score(total, preWindowPct, largestPreFiles)

	return &Report{
		Team:                result.Spec.Team,
		RepoURL:             result.Spec.RepoURL,
		TotalCommits:        total,
		PreWindow:           len(preCommits),
		InWindow:            len(inCommits),
		PostWindow:          postCount,
		PreWindowPct:        preWindowPct,
		LargestPreCommit:    largestPre,
		FirstInWindowCommit: firstIn,
		RiskFlag:            flag,
		RiskReason:          reason,
	}, nil
}
