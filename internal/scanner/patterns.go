package scanner

import (
	"regexp"
	"strings"
)

// DefaultIgnorePatterns are always excluded from scans. User-supplied
// exclude patterns merge with this set.
var DefaultIgnorePatterns = []string{
	".github", ".vscode", ".git", ".gitignore", ".gitmodules",
	".gitattributes", ".svn", ".hg",
	"examples", "Examples", "tests", "test", "Tests", "Test",
	// Python
	"*.pyc", "*.pyo", "*.pyd", "__pycache__", ".pytest_cache",
	".coverage", ".tox", ".nox", ".mypy_cache", ".ruff_cache",
	".hypothesis", "poetry.lock", "Pipfile.lock",
	// JavaScript
	"node_modules", "package-lock.json", "yarn.lock", ".npm", ".yarn",
	".pnpm-store", "bun.lock", "bun.lockb",
	// Java
	"*.class", "*.jar", "*.war", "*.ear", "*.nar", ".gradle/",
	".settings/", ".classpath", "gradle-app.setting", "*.gradle",
	".project",
	// C/C++
	"*.o", "*.obj", "*.dll", "*.dylib", "*.exe", "*.lib", "*.out",
	"*.a", "*.pdb",
	// .NET
	"*.suo", "*.user", "*.userosscache", "*.sln.docstates", "*.nupkg",
	"bin/",
	// Media
	"*.svg", "*.png", "*.jpg", "*.jpeg", "*.gif", "*.ico", "*.pdf",
	"*.mov", "*.mp4", "*.mp3", "*.wav",
	// Virtual environments
	"venv", ".venv", "env", ".env", "virtualenv",
	// IDEs and editors
	".idea", ".vs", "*.swo", "*.swn", "*.sublime-*",
	// Temporary and cache files
	"*.log", "*.bak", "*.swp", "*.tmp", "*.temp", ".cache",
	".sass-cache", ".DS_Store", "Thumbs.db", "desktop.ini",
	// Build artifacts
	"*.egg-info", "*.egg", "*.whl", "*.so",
	".docusaurus",
	// Minified sources and maps
	"*.min.js", "*.min.css", "*.map",
	// Terraform
	".terraform", "*.tfstate*",
	"digest.txt", "*.ini",
}

// DefaultIncludePatterns select the files kept in the tree when the caller
// supplies no include set. User-supplied include patterns replace this set.
var DefaultIncludePatterns = []string{
	"*.py", "*.js", "*.ts", "*.jsx", "*.tsx", "*.java", "*.cpp", "*.c",
	"*.h", "*.cs", "*.go", "*.rs", "*.php", "*.rb", "*.swift", "*.kt",
	"*.scala", "*.clj", "*.hs", "*.ml", "*.dml", "*.sql",
	"*.html", "*.css", "*.scss", "*.sass", "*.json", "*.yaml", "*.yml",
	"*.xml", "*.md", "*.txt", "*.toml", "*.cfg",
}

// fnmatch reports whether name matches pattern, with "*" matching any run
// of characters including path separators and "?" matching one character.
func fnmatch(name, pattern string) bool {
	re, err := fnmatchRegexp(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(name)
}

var fnmatchCache = map[string]*regexp.Regexp{}

func fnmatchRegexp(pattern string) (*regexp.Regexp, error) {
	if re, ok := fnmatchCache[pattern]; ok {
		return re, nil
	}
	var b strings.Builder
	b.WriteString("(?s)^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, err
	}
	fnmatchCache[pattern] = re
	return re, nil
}

// shouldExclude applies the exclude pattern semantics: a pattern hits the
// glob on the relative path or the basename, a directory-style pattern
// prefixes the path, or the pattern equals any path segment.
func shouldExclude(relPath, name string, patterns []string) bool {
	segments := strings.Split(relPath, "/")
	for _, pattern := range patterns {
		if fnmatch(relPath, pattern) || fnmatch(name, pattern) {
			return true
		}
		if strings.HasSuffix(pattern, "/") && strings.HasPrefix(relPath, strings.TrimRight(pattern, "/")) {
			return true
		}
		if strings.HasPrefix(relPath, pattern+"/") || relPath == pattern {
			return true
		}
		for _, seg := range segments {
			if seg == pattern {
				return true
			}
		}
	}
	return false
}

// shouldInclude applies include pattern semantics to a file. An empty
// pattern set includes everything.
func shouldInclude(relPath, name string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if fnmatch(relPath, pattern) || fnmatch(name, pattern) {
			return true
		}
	}
	return false
}
