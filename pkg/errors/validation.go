package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxGridSize bounds each grid axis. Diagrams are meant to be tens of cells
// per axis; anything beyond this is almost certainly a typo.
const MaxGridSize = 1000

// ValidateGrid checks that both grid dimensions are positive and bounded.
func ValidateGrid(cells, rows int) error {
	if cells <= 0 || rows <= 0 {
		return New(ErrCodeInvalidGrid, "grid dimensions must be positive, got %dx%d", cells, rows)
	}
	if cells > MaxGridSize || rows > MaxGridSize {
		return New(ErrCodeInvalidGrid, "grid dimensions too large (max %d per axis), got %dx%d", MaxGridSize, cells, rows)
	}
	return nil
}

var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidateColor validates a #rrggbb display color.
func ValidateColor(c string) error {
	if !hexColorRegex.MatchString(c) {
		return New(ErrCodeInvalidColor, "invalid color %q (want #rrggbb)", c)
	}
	return nil
}

// ValidateFormat checks that format is one of the allowed names.
func ValidateFormat(format string, allowed map[string]bool) error {
	if !allowed[format] {
		return New(ErrCodeInvalidFormat, "invalid format: %s", format)
	}
	return nil
}

// ValidatePath validates a user-supplied file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.TrimSpace(path) != path {
		return New(ErrCodeInvalidPath, "path has leading or trailing whitespace")
	}

	return nil
}
