package utils

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// ValidateURL reports whether raw is an absolute URL (scheme and host) and
// returns it trimmed.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("url %q is not absolute", raw)
	}

	host := parsed.Hostname()
	if host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	if _, err := idna.ToASCII(strings.ToLower(host)); err != nil {
		return "", fmt.Errorf("url %q has invalid host: %w", raw, err)
	}
	return raw, nil
}
