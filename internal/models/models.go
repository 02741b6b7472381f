// Package models holds the shared data types that flow through the
// ingestion and analysis pipeline.
package models

import "time"

// RepoSpec identifies one repository to ingest. It is constructed once
// from an input row and never mutated.
type RepoSpec struct {
	Team    string `json:"team" yaml:"team"`
	RepoURL string `json:"repo_url" yaml:"repo_url"`
}

// Commit is the provider-independent representation of a single commit.
// Timestamp is an ISO-8601 string normalized to UTC with a trailing Z
// whenever the source value was parseable; otherwise the raw value is
// carried through unchanged.
type Commit struct {
	SHA          string   `json:"sha"`
	Author       string   `json:"author"`
	Email        string   `json:"email"`
	Timestamp    string   `json:"timestamp"`
	Message      string   `json:"message"`
	FilesChanged []string `json:"files_changed"`
}

// IngestResult accumulates the outcome of ingesting one repository.
// It is owned by a single orchestration call while being built and is
// treated as read-only once returned. Errors mean the ingestion cannot
// be trusted for this repository; warnings mean partial degradation.
type IngestResult struct {
	Spec     RepoSpec `json:"spec"`
	Commits  []Commit `json:"commits"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// OK reports whether ingestion completed without errors. Warnings do
// not affect this.
func (r *IngestResult) OK() bool {
	return len(r.Errors) == 0
}

// NormalizeTimestamp parses an ISO-8601 timestamp (a trailing Z is
// accepted as UTC) and re-emits it in UTC with a trailing Z. Values
// that fail to parse are returned unchanged rather than rejected, so
// callers never lose the original provider value.
func NormalizeTimestamp(raw string) string {
	if raw == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return raw
}

// FormatTimestamp renders a time in the canonical UTC Z form used by
// Commit.Timestamp.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
