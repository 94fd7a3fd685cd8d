package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Size limits (in bytes)
const (
	MaxSourceSize  = 256 * 1024 // default snippet source limit
	MaxMessageSize = 16 * 1024  // single WebSocket frame from a client
)

// String length limits
const (
	MaxIDLength      = 128
	MaxProfileLength = 32
)

// SafeIDPattern allows alphanumeric, hyphens, underscores
var SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil // Optional field, empty is OK
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateSource checks a snippet source against a byte limit. Empty source
// is valid: running it is a no-op. maxBytes <= 0 selects MaxSourceSize.
func ValidateSource(source string, maxBytes int) error {
	if maxBytes <= 0 {
		maxBytes = MaxSourceSize
	}
	if len(source) > maxBytes {
		return fmt.Errorf("source size %d bytes exceeds maximum %d bytes", len(source), maxBytes)
	}
	if !utf8.ValidString(source) {
		return fmt.Errorf("source is not valid UTF-8")
	}
	if strings.Contains(source, "\x00") {
		return fmt.Errorf("source contains NUL bytes")
	}
	return nil
}
