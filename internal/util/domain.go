package util

import (
	"fmt"
	"net/url"
	"strings"
)

// Domain returns the lowercased hostname of rawURL with a leading "www." removed
func Domain(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", fmt.Errorf("parse URL %q: no host", rawURL)
	}
	return strings.TrimPrefix(host, "www."), nil
}

// DomainOr returns Domain(rawURL), or fallback when rawURL has no parsable host
func DomainOr(rawURL, fallback string) string {
	d, err := Domain(rawURL)
	if err != nil {
		return fallback
	}
	return d
}

// NormalizeDomain lowercases a bare domain and strips "www."
func NormalizeDomain(domain string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), "www.")
}

// Slug lowercases s and collapses every run of non [a-z0-9] characters into "-"
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return b.String()
}
