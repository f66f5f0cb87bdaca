// Package analyzers contains the per-language AST analyzers. Each analyzer
// walks one file and yields the declared components plus the raw call
// relationships found in it. Resolution across files happens later in the
// callgraph package.
package analyzers

import (
	"context"

	"depwiki/internal/graph"
	"depwiki/internal/lang"
	"depwiki/internal/logging"
	"depwiki/internal/paths"
)

// Source is one file handed to an analyzer.
type Source struct {
	// AbsPath is the absolute path on disk
	AbsPath string
	// RelPath is the slash-separated path relative to the repo root
	RelPath string
	Content []byte
}

// ModulePath is the dotted module identifier derived from the relative path.
func (s Source) ModulePath() string {
	return paths.ModulePath(s.RelPath)
}

// ComponentID builds the dotted component identifier for a declaration.
// Methods get a Class.method suffix.
func (s Source) ComponentID(name, className string) string {
	if className != "" {
		return s.ModulePath() + "." + className + "." + name
	}
	return s.ModulePath() + "." + name
}

// LanguageAnalyzer extracts components and call relationships from one file.
type LanguageAnalyzer interface {
	Analyze(ctx context.Context, src Source) ([]*graph.Node, []graph.CallRelationship, error)
}

// Registry maps languages to their analyzers. Tree-sitter parsers are not
// safe for concurrent use, so each worker should hold its own Registry.
type Registry map[lang.Language]LanguageAnalyzer

// NewRegistry builds the full analyzer set.
func NewRegistry(logger *logging.Logger) Registry {
	return Registry{
		lang.Python:     NewPythonAnalyzer(logger),
		lang.JavaScript: NewJavaScriptAnalyzer(logger),
		lang.TypeScript: NewTypeScriptAnalyzer(logger),
		lang.Java:       NewJavaAnalyzer(logger),
		lang.CSharp:     NewCSharpAnalyzer(logger),
		lang.C:          NewCAnalyzer(logger),
		lang.Cpp:        NewCppAnalyzer(logger),
		lang.PHP:        NewPHPAnalyzer(logger),
		lang.DML:        NewDMLAnalyzer(logger),
	}
}

// For returns the analyzer for a language, or nil when unsupported.
func (r Registry) For(language lang.Language) LanguageAnalyzer {
	return r[language]
}
