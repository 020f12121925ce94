package core

import (
	"strings"
	"unicode"
)

// minAPIKeyLength rejects obviously truncated credentials before they reach the provider.
const minAPIKeyLength = 16

// ValidateAPIKey checks that a provider key is present and plausibly formed.
// The key is never included in the returned error.
func ValidateAPIKey(key string) error {
	if key == "" {
		return NewValidationError(ErrMissingParameter, "API key cannot be empty").
			WithGuidance("Set BING_MAPS_KEY or pass -key.")
	}

	if len(key) < minAPIKeyLength {
		return NewValidationError(ErrInvalidParameter, "API key is too short").
			WithGuidance("Check that the full key was copied.")
	}

	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return NewValidationError(ErrInvalidParameter, "API key contains whitespace").
			WithGuidance("Remove surrounding spaces or newlines from the key.")
	}

	return nil
}

// MaskSecret keeps the last four characters of a secret for log correlation.
func MaskSecret(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
