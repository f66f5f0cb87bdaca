// Package lang maps source files to languages and tree-sitter grammars.
package lang

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language identifies a supported analysis language.
type Language string

const (
	Python     Language = "python"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	Java       Language = "java"
	CSharp     Language = "csharp"
	C          Language = "c"
	Cpp        Language = "cpp"
	PHP        Language = "php"
	DML        Language = "dml"
	Unknown    Language = ""
)

// extensions maps lowercase file extensions to languages. JSX files go
// through the JavaScript grammar, which parses JSX natively.
var extensions = map[string]Language{
	".py":    Python,
	".pyw":   Python,
	".js":    JavaScript,
	".jsx":   JavaScript,
	".mjs":   JavaScript,
	".cjs":   JavaScript,
	".ts":    TypeScript,
	".tsx":   TypeScript,
	".java":  Java,
	".cs":    CSharp,
	".c":     C,
	".h":     C,
	".cpp":   Cpp,
	".cc":    Cpp,
	".cxx":   Cpp,
	".hpp":   Cpp,
	".hh":    Cpp,
	".hxx":   Cpp,
	".php":   PHP,
	".phtml": PHP,
	".dml":   DML,
	".sql":   DML,
}

// FromPath returns the language for a file path, or Unknown.
func FromPath(path string) Language {
	ext := strings.ToLower(filepath.Ext(path))
	return extensions[ext]
}

// IsSupported reports whether the file maps to an analyzable language.
func IsSupported(path string) bool {
	return FromPath(path) != Unknown
}

// Extensions returns the set of recognized file extensions.
func Extensions() map[string]Language {
	out := make(map[string]Language, len(extensions))
	for k, v := range extensions {
		out[k] = v
	}
	return out
}

// Grammar returns the tree-sitter grammar for a language, or nil when the
// language has no grammar (DML is handled by a regex fallback).
func Grammar(language Language, path string) *sitter.Language {
	switch language {
	case Python:
		return python.GetLanguage()
	case JavaScript:
		return javascript.GetLanguage()
	case TypeScript:
		if strings.EqualFold(filepath.Ext(path), ".tsx") {
			return tsx.GetLanguage()
		}
		return typescript.GetLanguage()
	case Java:
		return java.GetLanguage()
	case CSharp:
		return csharp.GetLanguage()
	case C:
		return c.GetLanguage()
	case Cpp:
		return cpp.GetLanguage()
	case PHP:
		return php.GetLanguage()
	default:
		return nil
	}
}
