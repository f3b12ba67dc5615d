package usecase

import (
	"encoding/base64"
	"net/url"
	"strings"
	"unicode"
)

// redirectorTargetParams lists, per redirector host suffix, the query
// parameters that may carry the wrapped target URL.
var redirectorTargetParams = map[string][]string{
	"duckduckgo.com": {"uddg"},
	"bing.com":       {"u"},
	"google.com":     {"q", "url"},
	"google.com.au":  {"q", "url"},
	"google.co.nz":   {"q", "url"},
}

// placeholderHosts are test/demo hosts that never serve a real document.
// Decoded targets pointing at them are rejected.
var placeholderHosts = map[string]bool{
	"example.com": true,
	"example.org": true,
	"example.net": true,
	"test.com":    true,
	"localhost":   true,
	"127.0.0.1":   true,
}

// searchEngineHosts are hosts whose own pages are not usable candidates
var searchEngineHosts = []string{
	"duckduckgo.com",
	"bing.com",
	"google.com",
	"google.com.au",
	"google.co.nz",
	"mojeek.com",
	"googleusercontent.com",
}

// ResolveRedirect unwraps a search engine's redirect/tracking URL into its
// direct target. Non-wrapped or unresolvable input is returned unchanged;
// the function never fails and is idempotent.
func ResolveRedirect(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return raw
	}

	params := targetParamsForHost(u.Host)
	if len(params) == 0 {
		return raw
	}

	query := u.Query()
	for _, param := range params {
		value := query.Get(param)
		if value == "" {
			continue
		}
		target := decodeTarget(value)
		if target == "" {
			continue
		}
		if isPlaceholderTarget(target) {
			continue
		}
		return target
	}

	return raw
}

// NormalizeURL canonicalizes a URL for deduplication: lowercased
// scheme/host, fragment stripped, trailing slash removed.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return trimmed
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

// IsSearchEngineHost reports whether a host belongs to a search engine,
// meaning a link to it is a wrapper or result page rather than a candidate.
func IsSearchEngineHost(host string) bool {
	h := canonicalHost(host)
	for _, engine := range searchEngineHosts {
		if h == engine || strings.HasSuffix(h, "."+engine) {
			return true
		}
	}
	return false
}

// targetParamsForHost returns the wrapped-target parameter names for a
// redirector host, or nil if the host is not a known redirector.
func targetParamsForHost(host string) []string {
	h := canonicalHost(host)
	for suffix, params := range redirectorTargetParams {
		if h == suffix || strings.HasSuffix(h, "."+suffix) {
			return params
		}
	}
	return nil
}

// decodeTarget recovers an absolute URL from a redirector parameter value.
// Percent-decoding is tried first; a base64 variant is tried when the
// payload looks like encoded binary (first two characters letter+digit).
func decodeTarget(value string) string {
	if isHTTPURL(value) {
		return value
	}

	if unescaped, err := url.QueryUnescape(value); err == nil && isHTTPURL(unescaped) {
		return unescaped
	}

	if looksBase64Payload(value) {
		if target := decodeBase64Target(value); target != "" {
			return target
		}
	}

	return ""
}

// decodeBase64Target strips the two-character version prefix and decodes
// the remainder as unpadded URL-safe base64.
func decodeBase64Target(value string) string {
	payload := strings.TrimRight(value[2:], "=")
	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return ""
	}
	target := string(decoded)
	if !isHTTPURL(target) {
		return ""
	}
	return target
}

// looksBase64Payload applies the letter+digit prefix heuristic used by
// version-prefixed base64 wrappers (e.g. "a1aHR0cHM...").
func looksBase64Payload(value string) bool {
	if len(value) < 10 {
		return false
	}
	return unicode.IsLetter(rune(value[0])) && unicode.IsDigit(rune(value[1]))
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func isPlaceholderTarget(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return true
	}
	h := canonicalHost(u.Host)
	if placeholderHosts[h] {
		return true
	}
	for placeholder := range placeholderHosts {
		if strings.HasSuffix(h, "."+placeholder) {
			return true
		}
	}
	return false
}

// canonicalHost lowercases a host and strips any port and www prefix
func canonicalHost(host string) string {
	h := strings.ToLower(host)
	if i := strings.IndexByte(h, ':'); i >= 0 {
		h = h[:i]
	}
	return strings.TrimPrefix(h, "www.")
}
