// Package scanner walks a repository and builds a filtered file tree.
package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"depwiki/internal/lang"
	"depwiki/internal/logging"
	"depwiki/internal/paths"
)

// FileNode is one entry in the repository file tree.
type FileNode struct {
	Type      string      `json:"type" yaml:"type"`
	Name      string      `json:"name" yaml:"name"`
	Path      string      `json:"path" yaml:"path"`
	Extension string      `json:"extension,omitempty" yaml:"extension,omitempty"`
	SizeBytes int64       `json:"-" yaml:"-"`
	Children  []*FileNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Tree is the scan result: the filtered file tree plus summary stats.
type Tree struct {
	Root        *FileNode `json:"file_tree" yaml:"file_tree"`
	TotalFiles  int       `json:"total_files" yaml:"total_files"`
	TotalSizeKB float64   `json:"total_size_kb" yaml:"total_size_kb"`
}

// CodeFile is a source file selected for analysis.
type CodeFile struct {
	Path         string        `json:"path" yaml:"path"`
	RelativePath string        `json:"relative_path" yaml:"relative_path"`
	Name         string        `json:"name" yaml:"name"`
	Language     lang.Language `json:"language" yaml:"language"`
	SizeBytes    int64         `json:"size_bytes" yaml:"size_bytes"`
}

// Scanner filters a repository walk by include and exclude patterns.
type Scanner struct {
	includePatterns []string
	excludePatterns []string
	logger          *logging.Logger
}

// New builds a Scanner. A non-nil include set replaces the defaults; the
// exclude set always merges with the built-in ignore patterns.
func New(includePatterns, excludePatterns []string, logger *logging.Logger) *Scanner {
	include := DefaultIncludePatterns
	if includePatterns != nil {
		include = includePatterns
	}
	exclude := append([]string{}, DefaultIgnorePatterns...)
	exclude = append(exclude, excludePatterns...)
	return &Scanner{
		includePatterns: include,
		excludePatterns: exclude,
		logger:          logger,
	}
}

// Scan walks repoRoot and returns the filtered tree. Symlinks are rejected,
// as is anything that resolves outside the root.
func (s *Scanner) Scan(repoRoot string) (*Tree, error) {
	absRoot, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, err
	}
	info, err := os.Lstat(absRoot)
	if err != nil {
		return nil, err
	}
	root := s.buildTree(absRoot, absRoot, info)
	if root == nil {
		root = &FileNode{Type: "directory", Name: filepath.Base(absRoot), Path: "."}
	}
	return &Tree{
		Root:        root,
		TotalFiles:  CountFiles(root),
		TotalSizeKB: TotalSizeKB(root),
	}, nil
}

func (s *Scanner) buildTree(path, root string, info os.FileInfo) *FileNode {
	relPath := paths.Relative(path, root)

	if info.Mode()&os.ModeSymlink != 0 {
		s.logger.Debug("skipping symlink", map[string]interface{}{"path": relPath})
		return nil
	}
	if !paths.WithinRoot(path, root) {
		s.logger.Warn("path escapes repository root, skipping", map[string]interface{}{"path": relPath})
		return nil
	}
	if relPath != "." && shouldExclude(relPath, info.Name(), s.excludePatterns) {
		return nil
	}

	if info.Mode().IsRegular() {
		if !shouldInclude(relPath, info.Name(), s.includePatterns) {
			return nil
		}
		return &FileNode{
			Type:      "file",
			Name:      info.Name(),
			Path:      relPath,
			Extension: filepath.Ext(info.Name()),
			SizeBytes: info.Size(),
		}
	}

	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			// Unreadable directories are dropped, not fatal
			s.logger.Debug("unreadable directory", map[string]interface{}{"path": relPath, "error": err.Error()})
			entries = nil
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		var children []*FileNode
		for _, entry := range entries {
			childInfo, err := entry.Info()
			if err != nil {
				continue
			}
			child := s.buildTree(filepath.Join(path, entry.Name()), root, childInfo)
			if child != nil {
				children = append(children, child)
			}
		}
		// Empty directories are pruned except the root itself
		if len(children) > 0 || relPath == "." {
			return &FileNode{
				Type:     "directory",
				Name:     info.Name(),
				Path:     relPath,
				Children: children,
			}
		}
		return nil
	}

	// Sockets, devices and other special files
	return nil
}

// CountFiles returns the number of file entries under node.
func CountFiles(node *FileNode) int {
	if node == nil {
		return 0
	}
	if node.Type == "file" {
		return 1
	}
	total := 0
	for _, child := range node.Children {
		total += CountFiles(child)
	}
	return total
}

// TotalSizeKB returns the cumulative size in kilobytes under node.
func TotalSizeKB(node *FileNode) float64 {
	if node == nil {
		return 0
	}
	if node.Type == "file" {
		return float64(node.SizeBytes) / 1024
	}
	total := 0.0
	for _, child := range node.Children {
		total += TotalSizeKB(child)
	}
	return total
}

// CodeFiles flattens the tree into analyzable source files, ordered by
// relative path. The second return counts the files dropped for having no
// supported language.
func CodeFiles(tree *Tree, repoRoot string) ([]CodeFile, int) {
	var files []CodeFile
	skipped := 0
	var walk func(node *FileNode)
	walk = func(node *FileNode) {
		if node == nil {
			return
		}
		if node.Type == "file" {
			language := lang.FromPath(node.Name)
			if language == lang.Unknown {
				skipped++
				return
			}
			files = append(files, CodeFile{
				Path:         filepath.Join(repoRoot, filepath.FromSlash(node.Path)),
				RelativePath: node.Path,
				Name:         node.Name,
				Language:     language,
				SizeBytes:    node.SizeBytes,
			})
			return
		}
		for _, child := range node.Children {
			walk(child)
		}
	}
	walk(tree.Root)
	sort.Slice(files, func(i, j int) bool { return files[i].RelativePath < files[j].RelativePath })
	return files, skipped
}

// FindReadme returns the repo's top-level README path, or empty string.
func FindReadme(repoRoot string) string {
	candidates := []string{"README.md", "README.rst", "README.txt", "README", "readme.md"}
	entries, err := os.ReadDir(repoRoot)
	if err != nil {
		return ""
	}
	for _, want := range candidates {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if strings.EqualFold(entry.Name(), want) {
				return filepath.Join(repoRoot, entry.Name())
			}
		}
	}
	return ""
}
