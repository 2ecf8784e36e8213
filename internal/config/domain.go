package config

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

// maxDomainLength is the longest hostname allowed in DNS.
const maxDomainLength = 253

// maxLabelLength is the longest single DNS label.
const maxLabelLength = 63

// ValidateDomain checks that s is a bare, fully qualified hostname and
// returns it in lowercase ASCII (punycode) form.
//
// Accepted: "example.com", "blog.example.co.uk", "bücher.example".
// Rejected: "https://example.com", "example.com/*", "example.com:8080",
// "localhost", "".
func ValidateDomain(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidDomain)
	}
	if strings.ContainsAny(s, "/:@?#*\\ \t") {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, s)
	}

	ascii, err := idna.Lookup.ToASCII(strings.TrimSuffix(s, "."))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidDomain, s, err)
	}
	ascii = strings.ToLower(ascii)

	if len(ascii) > maxDomainLength {
		return "", fmt.Errorf("%w: %q is too long", ErrInvalidDomain, s)
	}

	labels := strings.Split(ascii, ".")
	if len(labels) < 2 {
		return "", fmt.Errorf("%w: %q has no top-level domain", ErrInvalidDomain, s)
	}
	for _, label := range labels {
		if !validLabel(label) {
			return "", fmt.Errorf("%w: %q has invalid label %q", ErrInvalidDomain, s, label)
		}
	}
	if isNumeric(labels[len(labels)-1]) {
		return "", fmt.Errorf("%w: %q has a numeric top-level domain", ErrInvalidDomain, s)
	}

	return ascii, nil
}

// validLabel reports whether label is a valid LDH label.
func validLabel(label string) bool {
	if label == "" || len(label) > maxLabelLength {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for i := range len(label) {
		c := label[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return false
		}
	}
	return true
}

func isNumeric(s string) bool {
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
