package analyzers

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"depwiki/internal/graph"
	"depwiki/internal/lang"
	"depwiki/internal/logging"
)

// CSharpAnalyzer extracts classes, interfaces, structs, records, enums,
// delegates and their methods from C# files.
type CSharpAnalyzer struct {
	logger *logging.Logger
}

func NewCSharpAnalyzer(logger *logging.Logger) *CSharpAnalyzer {
	return &CSharpAnalyzer{logger: logger}
}

var csharpTypeDecls = map[string]string{
	"class_declaration":     "class",
	"interface_declaration": "interface",
	"struct_declaration":    "struct",
	"enum_declaration":      "enum",
	"record_declaration":    "record",
	"delegate_declaration":  "delegate",
}

type csharpPass struct {
	src      Source
	logger   *logging.Logger
	nodes    []*graph.Node
	rels     []graph.CallRelationship
	topLevel map[string]*graph.Node
	seen     map[relKey]struct{}
}

func (a *CSharpAnalyzer) Analyze(ctx context.Context, src Source) ([]*graph.Node, []graph.CallRelationship, error) {
	root, err := lang.NewParser().Parse(ctx, src.Content, lang.CSharp, src.RelPath)
	if err != nil {
		return nil, nil, err
	}
	p := &csharpPass{
		src:      src,
		logger:   a.logger,
		topLevel: map[string]*graph.Node{},
		seen:     map[relKey]struct{}{},
	}
	p.collectDeclarations(root, "", 0)
	p.collectCalls(root, "", "", 0)
	return p.nodes, p.rels, nil
}

func (p *csharpPass) addRelationship(rel graph.CallRelationship) {
	key := relKey{rel.Caller, rel.Callee, rel.CallLine}
	if _, dup := p.seen[key]; dup {
		return
	}
	p.seen[key] = struct{}{}
	p.rels = append(p.rels, rel)
}

func (p *csharpPass) collectDeclarations(node *sitter.Node, className string, depth int) {
	if depth > maxWalkDepth {
		return
	}
	if kind, isType := csharpTypeDecls[node.Type()]; isType {
		name := nodeText(node.ChildByFieldName("name"), p.src.Content)
		if name != "" {
			typeNode := p.typeDeclNode(node, name, kind)
			p.nodes = append(p.nodes, typeNode)
			p.topLevel[name] = typeNode
			if body := node.ChildByFieldName("body"); body != nil {
				eachChild(body, func(member *sitter.Node) {
					p.collectDeclarations(member, name, depth+1)
				})
			}
			return
		}
	}
	switch node.Type() {
	case "method_declaration", "constructor_declaration", "local_function_statement":
		name := nodeText(node.ChildByFieldName("name"), p.src.Content)
		if name != "" && className != "" {
			method := p.methodNode(node, name, className)
			p.nodes = append(p.nodes, method)
			p.topLevel[className+"."+name] = method
		}
		return
	}
	eachChild(node, func(child *sitter.Node) {
		p.collectDeclarations(child, className, depth+1)
	})
}

func (p *csharpPass) typeDeclNode(node *sitter.Node, name, kind string) *graph.Node {
	var baseClasses []string
	if bases := childByType(node, "base_list"); bases != nil {
		eachChild(bases, func(child *sitter.Node) {
			switch child.Type() {
			case "identifier", "qualified_name", "generic_name":
				base := nodeText(child, p.src.Content)
				if idx := strings.Index(base, "<"); idx > 0 {
					base = base[:idx]
				}
				baseClasses = append(baseClasses, base)
			}
		})
	}
	if kind == "class" {
		eachChild(node, func(child *sitter.Node) {
			if child.Type() == "modifier" && nodeText(child, p.src.Content) == "abstract" {
				kind = "abstract class"
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

func (p *csharpPass) methodNode(node *sitter.Node, name, className string) *graph.Node {
	var params []string
	if list := childByType(node, "parameter_list"); list != nil {
		eachChild(list, func(param *sitter.Node) {
			if param.Type() == "parameter" {
				if ident := param.ChildByFieldName("name"); ident != nil {
					params = append(params, nodeText(ident, p.src.Content))
				}
			}
		})
	}
	componentID := p.src.ComponentID(name, className)
	return &graph.Node{
		ID:            componentID,
		Name:          name,
		ComponentType: "method",
		FilePath:      p.src.AbsPath,
		RelativePath:  p.src.RelPath,
		SourceCode:    snippet(p.src.Content, startLine(node), endLine(node)),
		StartLine:     startLine(node),
		EndLine:       endLine(node),
		Parameters:    params,
		NodeType:      "method",
		ClassName:     className,
		DisplayName:   "method " + name,
		ComponentID:   componentID,
		DependsOn:     graph.NewStringSet(),
	}
}

func (p *csharpPass) collectCalls(node *sitter.Node, className, callerName string, depth int) {
	if depth > maxWalkDepth {
		return
	}
	if _, isType := csharpTypeDecls[node.Type()]; isType {
		name := nodeText(node.ChildByFieldName("name"), p.src.Content)
		if name != "" {
			className = name
			callerName = name
			p.inheritanceRels(name)
		}
	} else if node.Type() == "method_declaration" || node.Type() == "constructor_declaration" {
		name := nodeText(node.ChildByFieldName("name"), p.src.Content)
		if name != "" && className != "" {
			callerName = className + "." + name
		}
	}

	switch node.Type() {
	case "invocation_expression":
		if callerName != "" {
			p.invocationRel(node, className, callerName)
		}
	case "object_creation_expression":
		if callerName != "" {
			if typeNode := node.ChildByFieldName("type"); typeNode != nil {
				typeName := nodeText(typeNode, p.src.Content)
				if idx := strings.Index(typeName, "<"); idx > 0 {
					typeName = typeName[:idx]
				}
				if typeName != "" {
					p.addRelationship(graph.CallRelationship{
						Caller:   p.callerID(callerName),
						Callee:   p.src.ComponentID(typeName, ""),
						CallLine: startLine(node),
					})
				}
			}
		}
	}

	eachChild(node, func(child *sitter.Node) {
		p.collectCalls(child, className, callerName, depth+1)
	})
}

func (p *csharpPass) inheritanceRels(className string) {
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

func (p *csharpPass) invocationRel(node *sitter.Node, className, callerName string) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}
	var calleeName, object string
	switch fn.Type() {
	case "identifier":
		calleeName = nodeText(fn, p.src.Content)
	case "member_access_expression":
		calleeName = nodeText(fn.ChildByFieldName("name"), p.src.Content)
		object = nodeText(fn.ChildByFieldName("expression"), p.src.Content)
	}
	if calleeName == "" {
		return
	}

	callee := p.src.ComponentID(calleeName, "")
	resolved := false
	if (object == "" || object == "this") && className != "" {
		if _, ok := p.topLevel[className+"."+calleeName]; ok {
			callee = p.src.ComponentID(calleeName, className)
			resolved = true
		}
	} else if _, ok := p.topLevel[object+"."+calleeName]; ok {
		callee = p.src.ComponentID(calleeName, object)
		resolved = true
	}
	p.addRelationship(graph.CallRelationship{
		Caller:     p.callerID(callerName),
		Callee:     callee,
		CallLine:   startLine(node),
		IsResolved: resolved,
	})
}

func (p *csharpPass) callerID(callerName string) string {
	if dot := strings.Index(callerName, "."); dot >= 0 {
		return p.src.ComponentID(callerName[dot+1:], callerName[:dot])
	}
	return p.src.ComponentID(callerName, "")
}
