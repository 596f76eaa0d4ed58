package errors

import (
	"strings"
	"unicode"
)

// ValidateNodeName validates a node name arriving from untrusted frame data.
// It rejects names that could not be used safely as map keys, cache keys, or
// file-name components for exported artifacts.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path traversal sequences (.., //, backslash)
//   - Maximum length of 256 characters
func ValidateNodeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidNode, "node name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidNode, "node name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidNode, "node name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidNode, "node name contains invalid characters: %q", pattern)
		}
	}

	return nil
}
