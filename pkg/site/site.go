// Package site holds the configured Halo sites and the registry invariants
// the reconciliation engine relies on: canonical origin URLs, non-empty
// credentials, and at most one default site.
package site

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Site is one configured Halo instance. URL is a canonical scheme-qualified
// origin (plus optional base path) with no trailing slash. Token is a
// personal access token with post-manage permission.
type Site struct {
	ID      string `yaml:"id,omitempty"`
	Name    string `yaml:"name,omitempty"`
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	Default bool   `yaml:"default,omitempty"`
}

// NormalizeURL canonicalizes a site URL: trims whitespace, assumes https
// when no scheme is given, strips trailing slashes, and keeps only the
// origin plus path. Returns "" when the input cannot be parsed into a URL
// with a host.
func NormalizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		s = "https://" + s
	}
	s = strings.TrimRight(s, "/")

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	path := strings.TrimRight(u.Path, "/")
	return u.Scheme + "://" + u.Host + path
}

// normalize validates and canonicalizes one site. A site lacking a usable
// URL or token is invalid and reported with ok=false.
func normalize(s Site) (Site, bool) {
	s.URL = NormalizeURL(s.URL)
	s.Token = strings.TrimSpace(s.Token)
	s.Name = strings.TrimSpace(s.Name)
	if s.URL == "" || s.Token == "" {
		return Site{}, false
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return s, true
}
