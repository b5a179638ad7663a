package urlutil

import (
	"net/url"
	"strings"
)

// IsLocalPath reports whether p is a same-origin absolute path such as "/tool".
// Scheme-relative ("//evil.example"), backslash and absolute URLs are rejected.
func IsLocalPath(p string) bool {
	if p == "" || p[0] != '/' {
		return false
	}
	if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
		return false
	}
	if strings.ContainsAny(p, "\r\n") {
		return false
	}
	u, err := url.Parse(p)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

// LoginPath builds the login URL that will bring the user back to returnTo.
// Returns a URL like: /login?returnTo={returnTo}
func LoginPath(returnTo string) string {
	if !IsLocalPath(returnTo) {
		return "/login"
	}
	q := url.Values{}
	q.Set("returnTo", returnTo)
	return "/login?" + q.Encode()
}

// ExternalURL joins a public base URL (e.g. "https://cv.example.com") and a path.
func ExternalURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return u.String(), nil
}
