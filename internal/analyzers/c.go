package analyzers

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"depwiki/internal/graph"
	"depwiki/internal/lang"
	"depwiki/internal/logging"
)

// CAnalyzer extracts function definitions and named structs from C sources
// and headers, plus direct call relationships.
type CAnalyzer struct {
	logger *logging.Logger
}

func NewCAnalyzer(logger *logging.Logger) *CAnalyzer {
	return &CAnalyzer{logger: logger}
}

type cPass struct {
	src      Source
	logger   *logging.Logger
	nodes    []*graph.Node
	rels     []graph.CallRelationship
	topLevel map[string]*graph.Node
	seen     map[relKey]struct{}
}

func (a *CAnalyzer) Analyze(ctx context.Context, src Source) ([]*graph.Node, []graph.CallRelationship, error) {
	root, err := lang.NewParser().Parse(ctx, src.Content, lang.C, src.RelPath)
	if err != nil {
		return nil, nil, err
	}
	p := &cPass{
		src:      src,
		logger:   a.logger,
		topLevel: map[string]*graph.Node{},
		seen:     map[relKey]struct{}{},
	}
	p.collectDeclarations(root, 0)
	p.collectCalls(root, "", 0)
	return p.nodes, p.rels, nil
}

func (p *cPass) addRelationship(rel graph.CallRelationship) {
	key := relKey{rel.Caller, rel.Callee, rel.CallLine}
	if _, dup := p.seen[key]; dup {
		return
	}
	p.seen[key] = struct{}{}
	p.rels = append(p.rels, rel)
}

func (p *cPass) collectDeclarations(node *sitter.Node, depth int) {
	if depth > maxWalkDepth {
		return
	}
	switch node.Type() {
	case "function_definition":
		if name := p.declaratorName(node); name != "" {
			fn := p.componentNode(node, name, "function")
			fn.Parameters = p.parameters(node)
			p.nodes = append(p.nodes, fn)
			p.topLevel[name] = fn
		}
	case "struct_specifier", "union_specifier", "enum_specifier":
		// Only named definitions with a body count as components
		name := nodeText(node.ChildByFieldName("name"), p.src.Content)
		if name != "" && node.ChildByFieldName("body") != nil {
			kind := map[string]string{
				"struct_specifier": "struct",
				"union_specifier":  "union",
				"enum_specifier":   "enum",
			}[node.Type()]
			if _, exists := p.topLevel[name]; !exists {
				decl := p.componentNode(node, name, kind)
				p.nodes = append(p.nodes, decl)
				p.topLevel[name] = decl
			}
		}
	case "type_definition":
		if name := nodeText(node.ChildByFieldName("declarator"), p.src.Content); name != "" {
			if inner := childByTypes(node, "struct_specifier", "union_specifier", "enum_specifier"); inner != nil && inner.ChildByFieldName("body") != nil {
				if _, exists := p.topLevel[name]; !exists {
					decl := p.componentNode(node, name, "struct")
					p.nodes = append(p.nodes, decl)
					p.topLevel[name] = decl
				}
			}
		}
	}
	eachChild(node, func(child *sitter.Node) {
		p.collectDeclarations(child, depth+1)
	})
}

func (p *cPass) componentNode(node *sitter.Node, name, kind string) *graph.Node {
	componentID := p.src.ComponentID(name, "")
	return &graph.Node{
		ID:            componentID,
		Name:          name,
		ComponentType: kind,
		FilePath:      p.src.AbsPath,
		RelativePath:  p.src.RelPath,
		SourceCode:    snippet(p.src.Content, startLine(node), endLine(node)),
		StartLine:     startLine(node),
		EndLine:       endLine(node),
		NodeType:      kind,
		DisplayName:   kind + " " + name,
		ComponentID:   componentID,
		DependsOn:     graph.NewStringSet(),
	}
}

// declaratorName digs through pointer and function declarators to the
// function's identifier.
func (p *cPass) declaratorName(node *sitter.Node) string {
	decl := node.ChildByFieldName("declarator")
	for decl != nil {
		switch decl.Type() {
		case "identifier", "field_identifier":
			return nodeText(decl, p.src.Content)
		case "function_declarator", "pointer_declarator", "parenthesized_declarator":
			decl = decl.ChildByFieldName("declarator")
		default:
			if inner := childByType(decl, "identifier"); inner != nil {
				return nodeText(inner, p.src.Content)
			}
			return ""
		}
	}
	return ""
}

func (p *cPass) parameters(node *sitter.Node) []string {
	decl := node.ChildByFieldName("declarator")
	for decl != nil && decl.Type() != "function_declarator" {
		decl = decl.ChildByFieldName("declarator")
	}
	if decl == nil {
		return nil
	}
	var params []string
	if list := decl.ChildByFieldName("parameters"); list != nil {
		eachChild(list, func(param *sitter.Node) {
			if param.Type() != "parameter_declaration" {
				return
			}
			if d := param.ChildByFieldName("declarator"); d != nil {
				name := d
				for name != nil && name.Type() != "identifier" {
					name = name.ChildByFieldName("declarator")
				}
				if name != nil {
					params = append(params, nodeText(name, p.src.Content))
				}
			}
		})
	}
	return params
}

func (p *cPass) collectCalls(node *sitter.Node, callerName string, depth int) {
	if depth > maxWalkDepth {
		return
	}
	if node.Type() == "function_definition" {
		if name := p.declaratorName(node); name != "" {
			callerName = name
		}
	}
	if node.Type() == "call_expression" && callerName != "" {
		fn := node.ChildByFieldName("function")
		if fn != nil && fn.Type() == "identifier" {
			calleeName := nodeText(fn, p.src.Content)
			if calleeName != "" && calleeName != callerName {
				_, local := p.topLevel[calleeName]
				p.addRelationship(graph.CallRelationship{
					Caller:     p.src.ComponentID(callerName, ""),
					Callee:     p.src.ComponentID(calleeName, ""),
					CallLine:   startLine(node),
					IsResolved: local,
				})
			}
		}
	}
	eachChild(node, func(child *sitter.Node) {
		p.collectCalls(child, callerName, depth+1)
	})
}
