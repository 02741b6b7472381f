package config

import "os"

// CredentialProvider supplies optional provider tokens. Absence of a
// token is not an error; fetchers degrade to anonymous access.
type CredentialProvider interface {
	GitHubToken() string
	GitLabToken() string
}

// EnvCredentials sources tokens from the process environment.
// GITHUB_TOKEN is preferred over GH_TOKEN for the GitHub-like
// provider; GitLab reads GITLAB_TOKEN.
type EnvCredentials struct{}

func (EnvCredentials) GitHubToken() string {
	for _, key := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if token := os.Getenv(key); token != "" {
			return token
		}
	}
	return ""
}

func (EnvCredentials) GitLabToken() string {
	return os.Getenv("GITLAB_TOKEN")
}

// StaticCredentials holds explicitly supplied tokens (typically CLI
// flags) and falls back to another provider for anything unset.
type StaticCredentials struct {
	GitHub   string
	GitLab   string
	Fallback CredentialProvider
}

func (s StaticCredentials) GitHubToken() string {
	if s.GitHub != "" {
		return s.GitHub
	}
	if s.Fallback != nil {
		return s.Fallback.GitHubToken()
	}
	return ""
}

func (s StaticCredentials) GitLabToken() string {
	if s.GitLab != "" {
		return s.GitLab
	}
	if s.Fallback != nil {
		return s.Fallback.GitLabToken()
	}
	return ""
}
