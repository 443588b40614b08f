package crawler

import (
	"net/url"
	"strings"
)

// Default filter values for the public document listing the crawler targets.
var (
	DefaultAllowedHosts          = []string{"www.justice.gov", "justice.gov"}
	DefaultBlockedPathSubstrings = []string{"/epstein/search"}
	DefaultAllowedExtensions     = []string{".pdf", ".zip"}
)

// Filter decides which discovered links are kept.
// All checks are independent and all of them must pass.
type Filter struct {
	allowedHosts map[string]struct{}
	blockedPaths []string
	extensions   []string
}

// NewFilter creates a Filter. Hosts and extensions are compared lower-cased;
// blocked path substrings are matched as given. An empty extension list
// accepts any path.
func NewFilter(allowedHosts, blockedPathSubstrings, allowedExtensions []string) *Filter {
	f := &Filter{
		allowedHosts: make(map[string]struct{}, len(allowedHosts)),
		blockedPaths: make([]string, 0, len(blockedPathSubstrings)),
		extensions:   make([]string, 0, len(allowedExtensions)),
	}
	for _, h := range allowedHosts {
		f.allowedHosts[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	for _, b := range blockedPathSubstrings {
		if b != "" {
			f.blockedPaths = append(f.blockedPaths, b)
		}
	}
	for _, e := range allowedExtensions {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			f.extensions = append(f.extensions, e)
		}
	}
	return f
}

// DefaultFilter returns a Filter with the default hosts, blocked paths and extensions.
func DefaultFilter() *Filter {
	return NewFilter(DefaultAllowedHosts, DefaultBlockedPathSubstrings, DefaultAllowedExtensions)
}

// Allow reports whether the absolute URL passes every filter.
func (f *Filter) Allow(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	// Host keeps any explicit port, so "justice.gov:8443" is a different host.
	if _, ok := f.allowedHosts[strings.ToLower(u.Host)]; !ok {
		return false
	}

	// Both path checks see the path as written, escapes included.
	escaped := u.EscapedPath()
	for _, blocked := range f.blockedPaths {
		if strings.Contains(escaped, blocked) {
			return false
		}
	}

	if len(f.extensions) == 0 {
		return true
	}
	path := strings.ToLower(escaped)
	for _, ext := range f.extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
