package analyzers

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"depwiki/internal/graph"
	"depwiki/internal/lang"
	"depwiki/internal/logging"
)

// JavaAnalyzer extracts classes, interfaces, enums, records and their
// methods from Java files along with invocation relationships.
type JavaAnalyzer struct {
	logger *logging.Logger
}

func NewJavaAnalyzer(logger *logging.Logger) *JavaAnalyzer {
	return &JavaAnalyzer{logger: logger}
}

var javaTypeDecls = map[string]string{
	"class_declaration":      "class",
	"interface_declaration":  "interface",
	"enum_declaration":       "enum",
	"record_declaration":     "record",
	"annotation_declaration": "annotation",
}

type javaPass struct {
	src      Source
	logger   *logging.Logger
	nodes    []*graph.Node
	rels     []graph.CallRelationship
	topLevel map[string]*graph.Node
	seen     map[relKey]struct{}
}

func (a *JavaAnalyzer) Analyze(ctx context.Context, src Source) ([]*graph.Node, []graph.CallRelationship, error) {
	root, err := lang.NewParser().Parse(ctx, src.Content, lang.Java, src.RelPath)
	if err != nil {
		return nil, nil, err
	}
	p := &javaPass{
		src:      src,
		logger:   a.logger,
		topLevel: map[string]*graph.Node{},
		seen:     map[relKey]struct{}{},
	}
	p.collectDeclarations(root, "", 0)
	p.collectCalls(root, "", "", 0)
	return p.nodes, p.rels, nil
}

func (p *javaPass) addRelationship(rel graph.CallRelationship) {
	key := relKey{rel.Caller, rel.Callee, rel.CallLine}
	if _, dup := p.seen[key]; dup {
		return
	}
	p.seen[key] = struct{}{}
	p.rels = append(p.rels, rel)
}

func (p *javaPass) collectDeclarations(node *sitter.Node, className string, depth int) {
	if depth > maxWalkDepth {
		return
	}
	if kind, isType := javaTypeDecls[node.Type()]; isType {
		name := nodeText(node.ChildByFieldName("name"), p.src.Content)
		if name != "" {
			typeNode := p.typeDeclNode(node, name, kind)
			p.nodes = append(p.nodes, typeNode)
			p.topLevel[name] = typeNode
			if body := childByTypes(node, "class_body", "interface_body", "enum_body", "record_body", "annotation_type_body"); body != nil {
				eachChild(body, func(member *sitter.Node) {
					p.collectDeclarations(member, name, depth+1)
				})
			}
			return
		}
	}
	if node.Type() == "method_declaration" || node.Type() == "constructor_declaration" {
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

func (p *javaPass) typeDeclNode(node *sitter.Node, name, kind string) *graph.Node {
	var baseClasses []string
	if super := childByType(node, "superclass"); super != nil {
		eachChild(super, func(child *sitter.Node) {
			if child.Type() == "type_identifier" {
				baseClasses = append(baseClasses, nodeText(child, p.src.Content))
			}
		})
	}
	if interfaces := childByType(node, "super_interfaces"); interfaces != nil {
		if list := childByType(interfaces, "type_list"); list != nil {
			eachChild(list, func(child *sitter.Node) {
				if child.Type() == "type_identifier" {
					baseClasses = append(baseClasses, nodeText(child, p.src.Content))
				}
			})
		}
	}
	if kind == "class" && p.isAbstract(node) {
		kind = "abstract class"
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

func (p *javaPass) isAbstract(node *sitter.Node) bool {
	if modifiers := childByType(node, "modifiers"); modifiers != nil {
		return strings.Contains(nodeText(modifiers, p.src.Content), "abstract")
	}
	return false
}

func (p *javaPass) methodNode(node *sitter.Node, name, className string) *graph.Node {
	var params []string
	if formal := node.ChildByFieldName("parameters"); formal != nil {
		eachChild(formal, func(param *sitter.Node) {
			if param.Type() == "formal_parameter" || param.Type() == "spread_parameter" {
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

func (p *javaPass) collectCalls(node *sitter.Node, className, callerName string, depth int) {
	if depth > maxWalkDepth {
		return
	}
	if _, isType := javaTypeDecls[node.Type()]; isType {
		name := nodeText(node.ChildByFieldName("name"), p.src.Content)
		if name != "" {
			className = name
			callerName = name
			p.inheritanceRels(node, name)
		}
	} else if node.Type() == "method_declaration" || node.Type() == "constructor_declaration" {
		name := nodeText(node.ChildByFieldName("name"), p.src.Content)
		if name != "" && className != "" {
			callerName = className + "." + name
		}
	}

	switch node.Type() {
	case "method_invocation":
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

func (p *javaPass) inheritanceRels(node *sitter.Node, className string) {
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

func (p *javaPass) invocationRel(node *sitter.Node, className, callerName string) {
	calleeName := nodeText(node.ChildByFieldName("name"), p.src.Content)
	if calleeName == "" {
		return
	}
	object := nodeText(node.ChildByFieldName("object"), p.src.Content)

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

func (p *javaPass) callerID(callerName string) string {
	if dot := strings.Index(callerName, "."); dot >= 0 {
		return p.src.ComponentID(callerName[dot+1:], callerName[:dot])
	}
	return p.src.ComponentID(callerName, "")
}
