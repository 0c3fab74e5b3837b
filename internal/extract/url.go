package extract

import (
	"net/url"
	"strings"
)

// originOf returns the scheme://host origin of a page URL, or "" when the
// URL cannot be parsed.
func originOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// ResolveURL turns a candidate image/link reference into an absolute URL
// against the page origin. data: URIs and already-absolute URLs pass through
// untouched; protocol-relative references get https. Any resolution failure
// returns the input unchanged.
func ResolveURL(raw, base string) string {
	if raw == "" || strings.HasPrefix(raw, "data:") {
		return raw
	}
	if strings.HasPrefix(raw, "http") {
		return raw
	}
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	baseURL, err := url.Parse(base)
	if err != nil || base == "" {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return baseURL.ResolveReference(ref).String()
}
