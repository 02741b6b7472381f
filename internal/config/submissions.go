package config

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hackwatch/hackwatch/internal/models"
)

// LoadSubmissions reads the list of repositories to ingest from a CSV
// or YAML file. CSV files need a header with "team" and "repo_url"
// columns; YAML accepts either a top-level list of entries or a
// mapping with a "submissions" list.
func LoadSubmissions(path string) ([]models.RepoSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read submissions file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseCSVSubmissions(data, path)
	case ".yaml", ".yml":
		return parseYAMLSubmissions(data, path)
	default:
		return nil, fmt.Errorf("unsupported submissions format for %s (expected .csv or .yaml/.yml)", path)
	}
}

func parseCSVSubmissions(data []byte, source string) ([]models.RepoSpec, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty; expected a header row with team and repo_url", source)
	}

	teamIdx, urlIdx := -1, -1
	for i, col := range records[0] {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "team":
			teamIdx = i
		case "repo_url":
			urlIdx = i
		}
	}
	if teamIdx < 0 || urlIdx < 0 {
		return nil, fmt.Errorf("%s must have 'team' and 'repo_url' columns", source)
	}

	var specs []models.RepoSpec
	for row, record := range records[1:] {
		spec := models.RepoSpec{}
		if teamIdx < len(record) {
			spec.Team = strings.TrimSpace(record[teamIdx])
		}
		if urlIdx < len(record) {
			spec.RepoURL = strings.TrimSpace(record[urlIdx])
		}
		if spec.Team == "" || spec.RepoURL == "" {
			return nil, fmt.Errorf("invalid row at %s:%d; expected non-empty team and repo_url", source, row+2)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseYAMLSubmissions(data []byte, source string) ([]models.RepoSpec, error) {
	var asList []models.RepoSpec
	if err := yaml.Unmarshal(data, &asList); err == nil && asList != nil {
		return validateSpecs(asList, source)
	}

	var asDoc struct {
		Submissions []models.RepoSpec `yaml:"submissions"`
	}
	if err := yaml.Unmarshal(data, &asDoc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	if asDoc.Submissions == nil {
		return nil, fmt.Errorf("%s must be a list of submissions or a mapping with a 'submissions' list", source)
	}
	return validateSpecs(asDoc.Submissions, source)
}

func validateSpecs(specs []models.RepoSpec, source string) ([]models.RepoSpec, error) {
	for i, spec := range specs {
		if strings.TrimSpace(spec.Team) == "" || strings.TrimSpace(spec.RepoURL) == "" {
			return nil, fmt.Errorf("invalid entry at %s:%d; expected non-empty team and repo_url", source, i+1)
		}
	}
	return specs, nil
}
