package lang

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"depwiki/internal/errors"
)

// Parser wraps tree-sitter for multi-language parsing.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a new tree-sitter parser. A Parser is not safe for
// concurrent use; create one per worker.
func NewParser() *Parser {
	return &Parser{
		parser: sitter.NewParser(),
	}
}

// Parse parses source code and returns the AST root node. The file path is
// needed to pick the right grammar dialect (ts vs tsx).
func (p *Parser) Parse(ctx context.Context, source []byte, language Language, path string) (*sitter.Node, error) {
	grammar := Grammar(language, path)
	if grammar == nil {
		return nil, errors.New(errors.UnsupportedLanguage, fmt.Sprintf("no grammar for language %q", language))
	}

	p.parser.SetLanguage(grammar)
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, errors.Wrap(errors.ParseFailed, "parsing "+path, err)
	}

	return tree.RootNode(), nil
}
