package analyzers

import (
	"context"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"depwiki/internal/graph"
	"depwiki/internal/lang"
	"depwiki/internal/logging"
)

// JavaScriptAnalyzer extracts top-level functions, classes and their call
// relationships from JavaScript and JSX files.
type JavaScriptAnalyzer struct {
	logger *logging.Logger
}

func NewJavaScriptAnalyzer(logger *logging.Logger) *JavaScriptAnalyzer {
	return &JavaScriptAnalyzer{logger: logger}
}

type relKey struct {
	caller string
	callee string
	line   int
}

// jsPass carries the per-file analysis state.
type jsPass struct {
	src      Source
	logger   *logging.Logger
	nodes    []*graph.Node
	rels     []graph.CallRelationship
	topLevel map[string]*graph.Node
	seen     map[relKey]struct{}
}

func (a *JavaScriptAnalyzer) Analyze(ctx context.Context, src Source) ([]*graph.Node, []graph.CallRelationship, error) {
	root, err := lang.NewParser().Parse(ctx, src.Content, lang.JavaScript, src.RelPath)
	if err != nil {
		return nil, nil, err
	}
	p := &jsPass{
		src:      src,
		logger:   a.logger,
		topLevel: map[string]*graph.Node{},
		seen:     map[relKey]struct{}{},
	}
	p.collectDeclarations(root, 0)
	sort.SliceStable(p.nodes, func(i, j int) bool { return p.nodes[i].StartLine < p.nodes[j].StartLine })
	p.collectCalls(root, "", 0)
	return p.nodes, p.rels, nil
}

func (p *jsPass) addRelationship(rel graph.CallRelationship) bool {
	key := relKey{rel.Caller, rel.Callee, rel.CallLine}
	if _, dup := p.seen[key]; dup {
		return false
	}
	p.seen[key] = struct{}{}
	p.rels = append(p.rels, rel)
	return true
}

func (p *jsPass) collectDeclarations(node *sitter.Node, depth int) {
	if depth > maxWalkDepth {
		return
	}
	switch node.Type() {
	case "class_declaration", "abstract_class_declaration", "interface_declaration":
		if cls := p.classNode(node); cls != nil {
			p.nodes = append(p.nodes, cls)
			p.topLevel[cls.Name] = cls
			p.classMethods(node, cls.Name)
		}
	case "function_declaration", "generator_function_declaration":
		// Exported functions are emitted by the export_statement case
		if node.Parent() != nil && node.Parent().Type() == "export_statement" {
			break
		}
		if ancestorOfType(node, "class_declaration", "abstract_class_declaration", "interface_declaration") == nil {
			if fn := p.functionNode(node); fn != nil {
				p.nodes = append(p.nodes, fn)
				p.topLevel[fn.Name] = fn
			}
		}
	case "export_statement":
		if fn := p.exportedFunctionNode(node); fn != nil {
			p.nodes = append(p.nodes, fn)
			p.topLevel[fn.Name] = fn
		}
	case "lexical_declaration":
		if ancestorOfType(node, "class_declaration", "abstract_class_declaration", "interface_declaration") == nil {
			if fn := p.arrowFunctionNode(node); fn != nil {
				p.nodes = append(p.nodes, fn)
				p.topLevel[fn.Name] = fn
			}
		}
	}
	eachChild(node, func(child *sitter.Node) {
		p.collectDeclarations(child, depth+1)
	})
}

func (p *jsPass) classNode(node *sitter.Node) *graph.Node {
	nameNode := childByTypes(node, "type_identifier", "identifier")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, p.src.Content)

	var baseClasses []string
	if heritage := childByType(node, "class_heritage"); heritage != nil {
		eachChild(heritage, func(child *sitter.Node) {
			if child.Type() == "identifier" || child.Type() == "type_identifier" {
				baseClasses = append(baseClasses, nodeText(child, p.src.Content))
			}
		})
	}

	nodeType := "class"
	switch node.Type() {
	case "abstract_class_declaration":
		nodeType = "abstract class"
	case "interface_declaration":
		nodeType = "interface"
	}

	componentID := p.src.ComponentID(name, "")
	return &graph.Node{
		ID:            componentID,
		Name:          name,
		ComponentType: nodeType,
		FilePath:      p.src.AbsPath,
		RelativePath:  p.src.RelPath,
		SourceCode:    snippet(p.src.Content, startLine(node), endLine(node)),
		StartLine:     startLine(node),
		EndLine:       endLine(node),
		Parameters:    nil,
		NodeType:      nodeType,
		BaseClasses:   baseClasses,
		DisplayName:   nodeType + " " + name,
		ComponentID:   componentID,
		DependsOn:     graph.NewStringSet(),
	}
}

// classMethods registers method nodes under module.Class.method keys so that
// intra-class calls can be filtered during call extraction. The methods are
// lookup entries only, not emitted components.
func (p *jsPass) classMethods(classNode *sitter.Node, className string) {
	body := childByType(classNode, "class_body")
	if body == nil {
		return
	}
	eachChild(body, func(child *sitter.Node) {
		var methodName string
		switch child.Type() {
		case "method_definition":
			methodName = nodeText(childByType(child, "property_identifier"), p.src.Content)
		case "field_definition":
			if childByType(child, "arrow_function") != nil {
				methodName = nodeText(childByType(child, "property_identifier"), p.src.Content)
			}
		}
		if methodName == "" {
			return
		}
		componentID := p.src.ComponentID(methodName, className)
		p.topLevel[componentID] = &graph.Node{
			ID:            componentID,
			Name:          methodName,
			ComponentType: "method",
			FilePath:      p.src.AbsPath,
			RelativePath:  p.src.RelPath,
			SourceCode:    snippet(p.src.Content, startLine(child), endLine(child)),
			StartLine:     startLine(child),
			EndLine:       endLine(child),
			NodeType:      "method",
			ClassName:     className,
			DisplayName:   "method " + methodName,
			ComponentID:   componentID,
			DependsOn:     graph.NewStringSet(),
		}
	})
}

func (p *jsPass) functionNode(node *sitter.Node) *graph.Node {
	nameNode := childByType(node, "identifier")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, p.src.Content)
	code := nodeText(node, p.src.Content)

	isAsync := strings.Contains(code, "async function")
	isGenerator := strings.Contains(code, "function*")
	displayName := "function " + name
	switch {
	case isAsync && isGenerator:
		displayName = "async generator " + name
	case isAsync:
		displayName = "async function " + name
	case isGenerator:
		displayName = "generator function " + name
	}

	componentID := p.src.ComponentID(name, "")
	return &graph.Node{
		ID:            componentID,
		Name:          name,
		ComponentType: "function",
		FilePath:      p.src.AbsPath,
		RelativePath:  p.src.RelPath,
		SourceCode:    code,
		StartLine:     startLine(node),
		EndLine:       endLine(node),
		Parameters:    p.parameters(node),
		NodeType:      "function",
		DisplayName:   displayName,
		ComponentID:   componentID,
		DependsOn:     graph.NewStringSet(),
	}
}

func (p *jsPass) exportedFunctionNode(node *sitter.Node) *graph.Node {
	funcDecl := childByTypes(node, "function_declaration", "generator_function_declaration")
	if funcDecl == nil {
		return nil
	}
	fn := p.functionNode(funcDecl)
	if fn == nil {
		return nil
	}
	exportText := nodeText(node, p.src.Content)
	if strings.Contains(exportText, "export default") && strings.Contains(exportText, "function (") {
		fn.Name = "default"
	}
	return fn
}

func (p *jsPass) arrowFunctionNode(node *sitter.Node) *graph.Node {
	var result *graph.Node
	eachChild(node, func(child *sitter.Node) {
		if result != nil || child.Type() != "variable_declarator" {
			return
		}
		nameNode := childByType(child, "identifier")
		funcNode := childByTypes(child, "arrow_function", "function_expression")
		if nameNode == nil || funcNode == nil {
			return
		}
		name := nodeText(nameNode, p.src.Content)
		componentID := p.src.ComponentID(name, "")
		result = &graph.Node{
			ID:            componentID,
			Name:          name,
			ComponentType: "function",
			FilePath:      p.src.AbsPath,
			RelativePath:  p.src.RelPath,
			SourceCode:    nodeText(child, p.src.Content),
			StartLine:     startLine(funcNode),
			EndLine:       endLine(funcNode),
			Parameters:    p.parameters(funcNode),
			NodeType:      "function",
			DisplayName:   "function " + name,
			ComponentID:   componentID,
			DependsOn:     graph.NewStringSet(),
		}
	})
	return result
}

func (p *jsPass) parameters(node *sitter.Node) []string {
	var params []string
	if formal := childByType(node, "formal_parameters"); formal != nil {
		eachChild(formal, func(child *sitter.Node) {
			if child.Type() == "identifier" {
				params = append(params, nodeText(child, p.src.Content))
			}
		})
	}
	return params
}

func (p *jsPass) collectCalls(node *sitter.Node, currentTopLevel string, depth int) {
	if depth > maxWalkDepth {
		return
	}
	if currentTopLevel != "" {
		p.jsdocDependencies(node, currentTopLevel)
	}

	switch node.Type() {
	case "class_declaration", "abstract_class_declaration", "interface_declaration":
		if nameNode := childByTypes(node, "type_identifier", "identifier"); nameNode != nil {
			currentTopLevel = nodeText(nameNode, p.src.Content)
			if heritage := childByType(node, "class_heritage"); heritage != nil {
				eachChild(heritage, func(child *sitter.Node) {
					if child.Type() == "identifier" || child.Type() == "type_identifier" {
						p.addRelationship(graph.CallRelationship{
							Caller:   p.src.ComponentID(currentTopLevel, ""),
							Callee:   p.src.ComponentID(nodeText(child, p.src.Content), ""),
							CallLine: startLine(node),
						})
					}
				})
			}
		}
	case "function_declaration", "generator_function_declaration":
		if nameNode := childByType(node, "identifier"); nameNode != nil {
			currentTopLevel = nodeText(nameNode, p.src.Content)
		}
	case "lexical_declaration":
		eachChild(node, func(child *sitter.Node) {
			if child.Type() != "variable_declarator" {
				return
			}
			nameNode := childByType(child, "identifier")
			funcNode := childByTypes(child, "arrow_function", "function_expression")
			if nameNode != nil && funcNode != nil {
				currentTopLevel = nodeText(nameNode, p.src.Content)
			}
		})
	}

	switch {
	case node.Type() == "call_expression" && currentTopLevel != "":
		if rel, ok := p.callRelationship(node, currentTopLevel); ok {
			p.addRelationship(rel)
		}
	case node.Type() == "await_expression" && currentTopLevel != "":
		if callExpr := childByType(node, "call_expression"); callExpr != nil {
			if rel, ok := p.callRelationship(callExpr, currentTopLevel); ok {
				p.addRelationship(rel)
			}
		}
	case node.Type() == "new_expression" && currentTopLevel != "":
		if callee := nodeText(childByType(node, "identifier"), p.src.Content); callee != "" {
			p.addRelationship(graph.CallRelationship{
				Caller:   p.src.ComponentID(currentTopLevel, ""),
				Callee:   p.src.ComponentID(callee, ""),
				CallLine: startLine(node),
			})
		}
	}

	eachChild(node, func(child *sitter.Node) {
		p.collectCalls(child, currentTopLevel, depth+1)
	})
}

func (p *jsPass) callRelationship(node *sitter.Node, callerName string) (graph.CallRelationship, bool) {
	calleeName := p.calleeName(node)
	if calleeName == "" {
		return graph.CallRelationship{}, false
	}

	callText := nodeText(node, p.src.Content)
	isMethodCall := strings.Contains(callText, "this.") || strings.Contains(callText, "super.")
	callerID := p.src.ComponentID(callerName, "")

	// Intra-class method calls stay internal to the class component
	if isMethodCall {
		currentClass := ""
		for key, obj := range p.topLevel {
			if obj.ComponentType == "class" && strings.Contains(key, callerName) {
				currentClass = obj.Name
				break
			}
		}
		if currentClass != "" {
			if _, ok := p.topLevel[p.src.ComponentID(calleeName, currentClass)]; ok {
				return graph.CallRelationship{}, false
			}
		}
	}

	_, local := p.topLevel[calleeName]
	return graph.CallRelationship{
		Caller:     callerID,
		Callee:     p.src.ComponentID(calleeName, ""),
		CallLine:   startLine(node),
		IsResolved: local,
	}, true
}

func (p *jsPass) jsdocDependencies(node *sitter.Node, callerName string) {
	if prev := node.PrevSibling(); prev != nil && prev.Type() == "comment" {
		p.jsdocTypes(nodeText(prev, p.src.Content), callerName, startLine(node))
	}
	eachChild(node, func(child *sitter.Node) {
		if child.Type() == "comment" {
			p.jsdocTypes(nodeText(child, p.src.Content), callerName, startLine(node))
		}
	})
}

func (p *jsPass) jsdocTypes(comment, callerName string, line int) {
	for _, typeName := range jsdocTypeRefs(comment) {
		if typeName == "" || isJSBuiltinType(typeName) {
			continue
		}
		p.addRelationship(graph.CallRelationship{
			Caller:   p.src.ComponentID(callerName, ""),
			Callee:   p.src.ComponentID(typeName, ""),
			CallLine: line,
		})
	}
}

func (p *jsPass) calleeName(callNode *sitter.Node) string {
	if callNode.ChildCount() == 0 {
		return ""
	}
	callee := callNode.Child(0)
	switch callee.Type() {
	case "identifier":
		return nodeText(callee, p.src.Content)
	case "member_expression":
		if prop := childByType(callee, "property_identifier"); prop != nil {
			return nodeText(prop, p.src.Content)
		}
		if computed := childByType(callee, "computed_property_name"); computed != nil {
			if ident := childByType(computed, "identifier"); ident != nil {
				return nodeText(ident, p.src.Content)
			}
		}
	case "super":
		return "super"
	case "this":
		return "this"
	}
	return ""
}
