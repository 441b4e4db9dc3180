// AngelaMos | 2026
// redirect.go

package auth

import (
	"net/url"
	"strings"
)

const DefaultRedirect = "/"

// SafeRedirect accepts only a same-site absolute path. Anything that could
// leave the site (scheme, host, protocol-relative or backslash tricks)
// falls back to the feed.
func SafeRedirect(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return DefaultRedirect
	}
	if strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n\t") {
		return DefaultRedirect
	}

	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return DefaultRedirect
	}

	return u.String()
}
