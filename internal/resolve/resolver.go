// Package resolve classifies repository URLs into a hosting provider
// plus the provider-specific address needed to fetch history.
package resolve

import (
	"fmt"
	"net/url"
	"strings"
)

// Provider is a code-hosting platform identified by URL host.
type Provider string

const (
	ProviderGitHub  Provider = "github"
	ProviderGitLab  Provider = "gitlab"
	ProviderUnknown Provider = "unknown"
)

// Address is the resolved location of a repository. For the unknown
// provider only Host is populated; Owner is set for GitHub and
// Namespace (possibly nested, slash-joined) for GitLab.
type Address struct {
	Provider  Provider
	Host      string
	Owner     string
	Namespace string
	Repo      string
}

// ProjectPath returns the GitLab project path (namespace/repo) used as
// a project identifier in API calls.
func (a Address) ProjectPath() string {
	if a.Namespace == "" {
		return a.Repo
	}
	return a.Namespace + "/" + a.Repo
}

// InvalidURLError reports a URL that matches a known provider's host
// but does not carry enough path segments to identify a repository.
type InvalidURLError struct {
	Provider Provider
	URL      string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid %s URL: %s", e.Provider, e.URL)
}

var githubHosts = map[string]bool{
	"github.com":     true,
	"www.github.com": true,
}

// Resolve parses a repository URL and determines its provider and
// address. Unrecognized hosts resolve to the unknown provider rather
// than failing; callers decide whether a best-effort fetch is worth
// attempting.
func Resolve(rawURL string) (Address, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Address{Provider: ProviderUnknown}, nil
	}

	host := strings.ToLower(strings.TrimSpace(parsed.Host))
	if host == "" {
		return Address{Provider: ProviderUnknown}, nil
	}

	var segments []string
	for _, seg := range strings.Split(parsed.Path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}

	if githubHosts[host] {
		if len(segments) < 2 {
			return Address{}, &InvalidURLError{Provider: ProviderGitHub, URL: rawURL}
		}
		return Address{
			Provider: ProviderGitHub,
			Host:     host,
			Owner:    segments[0],
			Repo:     strings.TrimSuffix(segments[1], ".git"),
		}, nil
	}

	if strings.Contains(host, "gitlab") {
		if len(segments) < 2 {
			return Address{}, &InvalidURLError{Provider: ProviderGitLab, URL: rawURL}
		}
		return Address{
			Provider:  ProviderGitLab,
			Host:      host,
			Namespace: strings.Join(segments[:len(segments)-1], "/"),
			Repo:      strings.TrimSuffix(segments[len(segments)-1], ".git"),
		}, nil
	}

	return Address{Provider: ProviderUnknown, Host: host}, nil
}
