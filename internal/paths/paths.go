// Package paths provides repo-relative path normalization and symlink
// escape protection for the repository walk.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// Relative converts an absolute path to a repo-relative path with forward
// slashes. When the path cannot be made relative it is returned unchanged.
func Relative(absolutePath, repoRoot string) string {
	rel, err := filepath.Rel(repoRoot, absolutePath)
	if err != nil {
		return filepath.ToSlash(absolutePath)
	}
	return filepath.ToSlash(rel)
}

// WithinRoot reports whether path, after resolving symlinks, stays inside
// root. Non-existent paths resolve to themselves.
func WithinRoot(path, root string) bool {
	resolvedPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return false
		}
		resolvedPath = path
	}
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		if !os.IsNotExist(err) {
			return false
		}
		resolvedRoot = root
	}
	rel, err := filepath.Rel(resolvedRoot, resolvedPath)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel == "." || (!strings.HasPrefix(rel, "../") && rel != "..")
}

// ModulePath derives the dotted module path for a repo-relative file path:
// the extension is stripped and path separators become dots, so
// "pkg/sub/file.py" yields "pkg.sub.file".
func ModulePath(relativePath string) string {
	p := filepath.ToSlash(relativePath)
	ext := filepath.Ext(p)
	if ext != "" {
		p = p[:len(p)-len(ext)]
	}
	return strings.ReplaceAll(p, "/", ".")
}
