// Package safety holds the policy applied to URLs before tools fetch them.
package safety

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrInvalidURL marks input that does not parse as an absolute URL with a host.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrDeniedURL marks well-formed URLs the policy refuses to fetch.
	ErrDeniedURL = errors.New("URL not allowed")
)

// ValidateURL parses raw and accepts only absolute http(s) URLs with a host.
// User info is rejected so credentials are never forwarded to a scraped site.
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute URL", ErrInvalidURL, raw)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrDeniedURL, u.Scheme)
	}
	if u.User != nil {
		return nil, fmt.Errorf("%w: credentials in URL", ErrDeniedURL)
	}
	return u, nil
}
