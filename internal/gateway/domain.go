package gateway

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidDomain is returned for domains that cannot form a base URL
var ErrInvalidDomain = errors.New("invalid domain")

// NormalizeDomain turns user input such as "fasten.example.com/" into a base
// URL: trimmed, https:// prefixed when no scheme is given, no trailing slash.
func NormalizeDomain(raw string) (string, error) {
	domain := strings.TrimSpace(raw)
	if domain == "" {
		return "", ErrInvalidDomain
	}
	if !strings.HasPrefix(domain, "http://") && !strings.HasPrefix(domain, "https://") {
		domain = "https://" + domain
	}
	domain = strings.TrimRight(domain, "/")

	u, err := url.Parse(domain)
	if err != nil || u.Host == "" {
		return "", ErrInvalidDomain
	}
	return domain, nil
}
