package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackwatch/hackwatch/internal/models"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSubmissionsCSV(t *testing.T) {
	path := writeTemp(t, "subs.csv", "team,repo_url\nalpha,https://github.com/acme/alpha\nbeta,https://gitlab.com/acme/beta\n")

	specs, err := LoadSubmissions(path)
	require.NoError(t, err)
	assert.Equal(t, []models.RepoSpec{
		{Team: "alpha", RepoURL: "https://github.com/acme/alpha"},
		{Team: "beta", RepoURL: "https://gitlab.com/acme/beta"},
	}, specs)
}

func TestLoadSubmissionsCSVExtraColumns(t *testing.T) {
	path := writeTemp(t, "subs.csv", "track,team,repo_url\nweb,alpha,https://github.com/acme/alpha\n")

	specs, err := LoadSubmissions(path)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "alpha", specs[0].Team)
}

func TestLoadSubmissionsCSVRejectsEmptyFields(t *testing.T) {
	path := writeTemp(t, "subs.csv", "team,repo_url\nalpha,\n")

	_, err := LoadSubmissions(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ":2")
}

func TestLoadSubmissionsYAMLList(t *testing.T) {
	path := writeTemp(t, "subs.yaml", `
- team: alpha
  repo_url: https://github.com/acme/alpha
- team: beta
  repo_url: https://gitlab.com/acme/beta
`)

	specs, err := LoadSubmissions(path)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "beta", specs[1].Team)
}

func TestLoadSubmissionsYAMLMapping(t *testing.T) {
	path := writeTemp(t, "subs.yml", `
submissions:
  - team: alpha
    repo_url: https://github.com/acme/alpha
`)

	specs, err := LoadSubmissions(path)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "alpha", specs[0].Team)
}

func TestLoadSubmissionsUnsupportedFormat(t *testing.T) {
	path := writeTemp(t, "subs.json", `[]`)

	_, err := LoadSubmissions(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported submissions format")
}

func TestLoadSubmissionsMissingFile(t *testing.T) {
	_, err := LoadSubmissions(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}
