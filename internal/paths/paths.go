// Package paths resolves site-relative links against the deployment base path
// so the same markup works under a path-scoped deployment and at a domain root.
package paths

import (
	"net/http"
	"strings"
)

// RemoveTrailingSlash strips a single trailing slash from path.
func RemoveTrailingSlash(path string) string {
	return strings.TrimSuffix(path, "/")
}

// IsExternalURL reports whether url is an absolute http(s) URL.
func IsExternalURL(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// IsSpecialURL reports whether url uses the mailto: or tel: scheme.
func IsSpecialURL(url string) bool {
	return strings.HasPrefix(url, "mailto:") || strings.HasPrefix(url, "tel:")
}

// IsHashLink reports whether url is an in-page fragment link.
func IsHashLink(url string) bool {
	return strings.HasPrefix(url, "#")
}

// Resolver prefixes site-absolute links with the configured base path.
type Resolver struct {
	base string
}

// NewResolver constructs a Resolver for the given deployment base path, e.g.
// "/watt-media-website/" or "" for a root-domain deployment.
func NewResolver(base string) Resolver {
	return Resolver{base: base}
}

// BasePath returns the configured base path without its trailing slash.
func (r Resolver) BasePath() string {
	return RemoveTrailingSlash(r.base)
}

// AddBasePath prefixes site-absolute urls with the base path. External,
// mailto/tel, fragment and relative urls are returned unchanged.
//
// The result is not idempotent; callers must apply it exactly once.
func (r Resolver) AddBasePath(url string) string {
	if IsExternalURL(url) || IsSpecialURL(url) || IsHashLink(url) || !strings.HasPrefix(url, "/") {
		return url
	}
	return r.BasePath() + url
}

// StripBasePath removes the base path from an incoming request path. It
// reports false when path lies outside the base path.
func (r Resolver) StripBasePath(path string) (string, bool) {
	base := r.BasePath()
	if base == "" {
		return path, true
	}
	if path == base {
		return "/", true
	}
	if !strings.HasPrefix(path, base+"/") {
		return "", false
	}
	return strings.TrimPrefix(path, base), true
}

// Middleware serves the wrapped handler under the base path. Requests outside
// the base path receive 404.
func (r Resolver) Middleware(next http.Handler) http.Handler {
	if r.BasePath() == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		stripped, ok := r.StripBasePath(req.URL.Path)
		if !ok {
			http.NotFound(w, req)
			return
		}
		clone := req.Clone(req.Context())
		clone.URL.Path = stripped
		clone.URL.RawPath = ""
		next.ServeHTTP(w, clone)
	})
}
