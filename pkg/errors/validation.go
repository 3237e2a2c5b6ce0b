package errors

import (
	"path"
	"regexp"
	"strings"
	"unicode"
)

// prefixRegex matches catalog collection prefixes ("mdi", "simple-icons", "fa6-solid").
var prefixRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidatePrefix validates a collection prefix before it is placed in a URL path.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return New(ErrCodeInvalidPrefix, "collection prefix cannot be empty")
	}
	if len(prefix) > 64 {
		return New(ErrCodeInvalidPrefix, "collection prefix too long (max 64 characters)")
	}
	if !prefixRegex.MatchString(prefix) {
		return New(ErrCodeInvalidPrefix, "invalid collection prefix: %q", prefix)
	}
	return nil
}

// ValidateIconName validates an icon name. Names may contain colons
// ("custom:a:b" yields the name "a:b") but never path separators.
func ValidateIconName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidIconName, "icon name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidIconName, "icon name too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidIconName, "icon name contains invalid control characters")
		}
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return New(ErrCodeInvalidIconName, "icon name contains invalid characters: %q", name)
	}
	return nil
}

// ValidateSize validates a raster edge length in pixels.
func ValidateSize(size int) error {
	const maxSize = 4096
	if size <= 0 {
		return New(ErrCodeInvalidSize, "size must be positive, got %d", size)
	}
	if size > maxSize {
		return New(ErrCodeInvalidSize, "size too large (max %d), got %d", maxSize, size)
	}
	return nil
}

// ValidateRelativePath validates an output path that must stay inside its
// destination directory, such as a template icon name ("mipmap-hdpi/ic_launcher.png").
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateRelativePath(p string) error {
	if p == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(p) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range p {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(p, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(p, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	for _, part := range strings.Split(path.Clean(p), "/") {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
