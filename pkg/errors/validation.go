package errors

import (
	"strings"
	"unicode"
)

// MaxIDLength bounds entity identifiers accepted from the command line or
// the HTTP API.
const MaxIDLength = 128

// ValidateEntityID validates a person or family identifier given by a user.
// GEDCOM cross-reference delimiters ("@I1@") are accepted and must be
// stripped with [NormalizeID] before lookup.
func ValidateEntityID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "entity ID cannot be empty")
	}
	if len(id) > MaxIDLength {
		return New(ErrCodeInvalidInput, "entity ID too long (max %d characters)", MaxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "entity ID contains invalid characters: %q", id)
		}
	}
	if NormalizeID(id) == "" {
		return New(ErrCodeInvalidInput, "entity ID cannot be empty")
	}
	return nil
}

// NormalizeID strips GEDCOM cross-reference delimiters: "@I1@" becomes "I1".
func NormalizeID(id string) string {
	if len(id) >= 2 && strings.HasPrefix(id, "@") && strings.HasSuffix(id, "@") {
		return id[1 : len(id)-1]
	}
	return id
}

// ValidateSize validates a box size in pixels.
func ValidateSize(width, height int) error {
	const maxSide = 10000
	if width <= 0 || height <= 0 {
		return New(ErrCodeInvalidSize, "size must be positive, got %dx%d", width, height)
	}
	if width > maxSide || height > maxSide {
		return New(ErrCodeInvalidSize, "size too large (max %d), got %dx%d", maxSide, width, height)
	}
	return nil
}

// ValidateFormat validates an output format against the set of supported
// ones.
func ValidateFormat(format string, valid map[string]bool) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	if !valid[format] {
		return New(ErrCodeInvalidFormat, "unsupported format: %q", format)
	}
	return nil
}

// ValidatePath validates an input file path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}
	return nil
}
