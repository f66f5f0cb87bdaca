package analyzers

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"depwiki/internal/graph"
	"depwiki/internal/lang"
	"depwiki/internal/logging"
)

// CppAnalyzer extracts classes, structs, free functions and methods from
// C++ sources, including out-of-line Class::method definitions.
type CppAnalyzer struct {
	logger *logging.Logger
}

func NewCppAnalyzer(logger *logging.Logger) *CppAnalyzer {
	return &CppAnalyzer{logger: logger}
}

type cppPass struct {
	src      Source
	logger   *logging.Logger
	nodes    []*graph.Node
	rels     []graph.CallRelationship
	topLevel map[string]*graph.Node
	seen     map[relKey]struct{}
}

func (a *CppAnalyzer) Analyze(ctx context.Context, src Source) ([]*graph.Node, []graph.CallRelationship, error) {
	root, err := lang.NewParser().Parse(ctx, src.Content, lang.Cpp, src.RelPath)
	if err != nil {
		return nil, nil, err
	}
	p := &cppPass{
		src:      src,
		logger:   a.logger,
		topLevel: map[string]*graph.Node{},
		seen:     map[relKey]struct{}{},
	}
	p.collectDeclarations(root, "", 0)
	p.collectCalls(root, "", "", 0)
	return p.nodes, p.rels, nil
}

func (p *cppPass) addRelationship(rel graph.CallRelationship) {
	key := relKey{rel.Caller, rel.Callee, rel.CallLine}
	if _, dup := p.seen[key]; dup {
		return
	}
	p.seen[key] = struct{}{}
	p.rels = append(p.rels, rel)
}

func (p *cppPass) collectDeclarations(node *sitter.Node, className string, depth int) {
	if depth > maxWalkDepth {
		return
	}
	switch node.Type() {
	case "class_specifier", "struct_specifier":
		name := nodeText(node.ChildByFieldName("name"), p.src.Content)
		body := node.ChildByFieldName("body")
		if name != "" && body != nil {
			kind := "class"
			if node.Type() == "struct_specifier" {
				kind = "struct"
			}
			decl := p.typeNode(node, name, kind)
			p.nodes = append(p.nodes, decl)
			p.topLevel[name] = decl
			eachChild(body, func(member *sitter.Node) {
				p.collectDeclarations(member, name, depth+1)
			})
			return
		}
	case "function_definition":
		name, owner := p.functionName(node)
		if name == "" {
			break
		}
		if owner == "" {
			owner = className
		}
		fn := p.functionNode(node, name, owner)
		p.nodes = append(p.nodes, fn)
		if owner != "" {
			p.topLevel[owner+"."+name] = fn
		} else {
			p.topLevel[name] = fn
		}
		return
	}
	eachChild(node, func(child *sitter.Node) {
		p.collectDeclarations(child, className, depth+1)
	})
}

func (p *cppPass) typeNode(node *sitter.Node, name, kind string) *graph.Node {
	var baseClasses []string
	if bases := childByType(node, "base_class_clause"); bases != nil {
		eachChild(bases, func(child *sitter.Node) {
			if child.Type() == "type_identifier" || child.Type() == "qualified_identifier" {
				baseClasses = append(baseClasses, nodeText(child, p.src.Content))
			}
		})
	}
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
		BaseClasses:   baseClasses,
		DisplayName:   kind + " " + name,
		ComponentID:   componentID,
		DependsOn:     graph.NewStringSet(),
	}
}

// functionName resolves the declarator to a name, recognizing out-of-line
// Class::method definitions via qualified identifiers.
func (p *cppPass) functionName(node *sitter.Node) (name, owner string) {
	decl := node.ChildByFieldName("declarator")
	for decl != nil {
		switch decl.Type() {
		case "identifier", "field_identifier", "destructor_name", "operator_name":
			return nodeText(decl, p.src.Content), ""
		case "qualified_identifier":
			full := nodeText(decl, p.src.Content)
			if idx := strings.LastIndex(full, "::"); idx >= 0 {
				return full[idx+2:], strings.ReplaceAll(full[:idx], "::", ".")
			}
			return full, ""
		case "function_declarator", "pointer_declarator", "reference_declarator", "parenthesized_declarator":
			decl = decl.ChildByFieldName("declarator")
		default:
			return "", ""
		}
	}
	return "", ""
}

func (p *cppPass) functionNode(node *sitter.Node, name, owner string) *graph.Node {
	componentType := "function"
	display := "function " + name
	if owner != "" {
		componentType = "method"
		display = "method " + name
	}
	componentID := p.src.ComponentID(name, owner)
	return &graph.Node{
		ID:            componentID,
		Name:          name,
		ComponentType: componentType,
		FilePath:      p.src.AbsPath,
		RelativePath:  p.src.RelPath,
		SourceCode:    snippet(p.src.Content, startLine(node), endLine(node)),
		StartLine:     startLine(node),
		EndLine:       endLine(node),
		NodeType:      componentType,
		ClassName:     owner,
		DisplayName:   display,
		ComponentID:   componentID,
		DependsOn:     graph.NewStringSet(),
	}
}

func (p *cppPass) collectCalls(node *sitter.Node, className, callerName string, depth int) {
	if depth > maxWalkDepth {
		return
	}
	switch node.Type() {
	case "class_specifier", "struct_specifier":
		name := nodeText(node.ChildByFieldName("name"), p.src.Content)
		if name != "" && node.ChildByFieldName("body") != nil {
			className = name
			callerName = name
			p.inheritanceRels(name)
		}
	case "function_definition":
		name, owner := p.functionName(node)
		if name != "" {
			if owner == "" {
				owner = className
			}
			if owner != "" {
				callerName = owner + "." + name
				className = owner
			} else {
				callerName = name
			}
		}
	case "call_expression":
		if callerName != "" {
			p.callRel(node, className, callerName)
		}
	}
	eachChild(node, func(child *sitter.Node) {
		p.collectCalls(child, className, callerName, depth+1)
	})
}

func (p *cppPass) inheritanceRels(className string) {
	typeNode := p.topLevel[className]
	if typeNode == nil {
		return
	}
	for _, base := range typeNode.BaseClasses {
		p.addRelationship(graph.CallRelationship{
			Caller:   p.src.ComponentID(className, ""),
			Callee:   p.src.ComponentID(base, ""),
			CallLine: typeNode.StartLine,
		})
	}
}

func (p *cppPass) callRel(node *sitter.Node, className, callerName string) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}
	var calleeName string
	selfCall := false
	switch fn.Type() {
	case "identifier":
		calleeName = nodeText(fn, p.src.Content)
	case "field_expression":
		calleeName = nodeText(fn.ChildByFieldName("field"), p.src.Content)
		object := nodeText(fn.ChildByFieldName("argument"), p.src.Content)
		selfCall = object == "this" || strings.HasPrefix(nodeText(fn, p.src.Content), "this->")
	case "qualified_identifier":
		full := nodeText(fn, p.src.Content)
		if idx := strings.LastIndex(full, "::"); idx >= 0 {
			calleeName = full[idx+2:]
		} else {
			calleeName = full
		}
	}
	if calleeName == "" {
		return
	}

	callee := p.src.ComponentID(calleeName, "")
	resolved := false
	if selfCall && className != "" {
		if _, ok := p.topLevel[className+"."+calleeName]; ok {
			callee = p.src.ComponentID(calleeName, className)
			resolved = true
		}
	} else if _, ok := p.topLevel[calleeName]; ok {
		resolved = true
	}

	var caller string
	if dot := strings.Index(callerName, "."); dot >= 0 {
		caller = p.src.ComponentID(callerName[dot+1:], callerName[:dot])
	} else {
		caller = p.src.ComponentID(callerName, "")
	}
	p.addRelationship(graph.CallRelationship{
		Caller:     caller,
		Callee:     callee,
		CallLine:   startLine(node),
		IsResolved: resolved,
	})
}
