// Package security validates the file paths the viewer reads from dataset
// tables and the names it derives for rendered output.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePathWithinDirectory checks that filePath, after cleaning and
// resolving symlinks, stays inside safeDir.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	absSafeDir, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory path: %w", err)
	}

	canonicalSafeDir, err := filepath.EvalSymlinks(absSafeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory symlinks: %w", err)
	}

	relPath, err := filepath.Rel(canonicalSafeDir, canonicalize(absPath))
	if err != nil {
		return fmt.Errorf("path is outside safe directory: %w", err)
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) || filepath.IsAbs(relPath) {
		return fmt.Errorf("path traversal detected: %s attempts to escape %s", filePath, safeDir)
	}
	return nil
}

// canonicalize resolves symlinks in the deepest existing ancestor of p, so a
// not-yet-written file under a symlinked directory is judged by where it
// would really land.
func canonicalize(p string) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	for dir := filepath.Dir(p); ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rel, _ := filepath.Rel(dir, p)
			return filepath.Join(resolved, rel)
		}
		if filepath.Dir(dir) == dir {
			return p
		}
	}
}

// ResolveDatasetPath joins a table-relative filename (e.g.
// "samples/CAM_FRONT/x.jpg") onto dataroot and rejects anything that escapes it.
func ResolveDatasetPath(dataroot, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("empty dataset filename")
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("dataset filename %q must be relative", rel)
	}
	full := filepath.Join(dataroot, filepath.FromSlash(rel))
	if err := ValidatePathWithinDirectory(full, dataroot); err != nil {
		return "", err
	}
	return full, nil
}

// SanitizeFilename makes a safe filename from an arbitrary string such as a
// sample token or window title. Anything other than ASCII letters, digits,
// dot, underscore or dash becomes a single underscore.
func SanitizeFilename(s string) string {
	const maxLen = 128
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
