package enricher

import (
	"regexp"
	"strings"
)

const defaultScheme = "https://"

// leadingScheme matches an RFC 3986 scheme followed by "://" at the start only.
var leadingScheme = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)

// NormalizeURL returns an absolute URL for a stored website, prefixing https://
// when the value carries no scheme.
func NormalizeURL(website string) string {
	website = strings.TrimSpace(website)
	if website == "" {
		return ""
	}
	if leadingScheme.MatchString(website) {
		return website
	}
	return defaultScheme + strings.TrimPrefix(website, "//")
}

// DisplayName derives a company name from the host segment of a website.
func DisplayName(website string) string {
	website = strings.TrimSpace(website)
	if loc := leadingScheme.FindStringIndex(website); loc != nil {
		website = website[loc[1]:]
	} else {
		website = strings.TrimPrefix(website, "//")
	}
	if idx := strings.IndexAny(website, "/?#"); idx >= 0 {
		website = website[:idx]
	}
	return website
}
