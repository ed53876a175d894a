// Package site describes the site navigation served to the front end.
package site

import (
	"strings"

	"github.com/noah-isme/watt-media-api/internal/paths"
)

// Link is a navigation entry as authored, with a site-absolute or external href.
type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// ResolvedLink is a Link with its href resolved against the base path.
type ResolvedLink struct {
	Label    string `json:"label"`
	Href     string `json:"href"`
	External bool   `json:"external"`
	Active   bool   `json:"active"`
}

// DefaultLinks returns the primary site sections.
func DefaultLinks() []Link {
	return []Link{
		{Label: "Home", Href: "/"},
		{Label: "Services", Href: "/services"},
		{Label: "Pricing", Href: "/pricing"},
		{Label: "Portfolio", Href: "/portfolio"},
		{Label: "Contact", Href: "/contact"},
	}
}

// Navigation resolves a fixed set of links for one deployment.
type Navigation struct {
	resolver paths.Resolver
	links    []Link
}

// NavigationConfig groups Navigation settings. SocialURL and ContactEmail
// add an external link and a mailto link when set.
type NavigationConfig struct {
	Resolver     paths.Resolver
	Links        []Link
	SocialURL    string
	ContactEmail string
}

// NewNavigation constructs a Navigation. Nil Links means DefaultLinks.
func NewNavigation(cfg NavigationConfig) *Navigation {
	links := cfg.Links
	if links == nil {
		links = DefaultLinks()
	}
	links = append([]Link(nil), links...)
	if url := strings.TrimSpace(cfg.SocialURL); url != "" {
		links = append(links, Link{Label: "Social", Href: url})
	}
	if email := strings.TrimSpace(cfg.ContactEmail); email != "" {
		links = append(links, Link{Label: "Email", Href: "mailto:" + email})
	}
	return &Navigation{resolver: cfg.Resolver, links: links}
}

// BasePath returns the deployment base path.
func (n *Navigation) BasePath() string {
	return n.resolver.BasePath()
}

// Links resolves every link and marks the ones active for currentPath. An
// empty currentPath marks nothing active.
func (n *Navigation) Links(currentPath string) []ResolvedLink {
	out := make([]ResolvedLink, 0, len(n.links))
	for _, l := range n.links {
		external := paths.IsExternalURL(l.Href) || paths.IsSpecialURL(l.Href)
		out = append(out, ResolvedLink{
			Label:    l.Label,
			Href:     n.resolver.AddBasePath(l.Href),
			External: external,
			Active:   !external && currentPath != "" && IsActive(l.Href, currentPath, n.resolver.BasePath()),
		})
	}
	return out
}

// IsActive reports whether the site-absolute href is the current section.
// currentPath may be given with or without the base path. Home matches only
// the root; other links match themselves and their sub-paths.
func IsActive(href, currentPath, basePath string) bool {
	full := currentPath
	if basePath == "" || !hasSegmentPrefix(currentPath, basePath) {
		full = basePath + currentPath
	}
	if href == "/" {
		return full == basePath || full == basePath+"/" || full == "/"
	}
	return hasSegmentPrefix(full, basePath+href)
}

func hasSegmentPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || strings.HasPrefix(rest, "/") || strings.HasSuffix(prefix, "/")
}
