package analyzers

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"depwiki/internal/graph"
	"depwiki/internal/lang"
	"depwiki/internal/logging"
)

// PythonAnalyzer extracts classes, functions and methods from Python files
// together with call relationships and docstrings.
type PythonAnalyzer struct {
	logger *logging.Logger
}

func NewPythonAnalyzer(logger *logging.Logger) *PythonAnalyzer {
	return &PythonAnalyzer{logger: logger}
}

type pyPass struct {
	src      Source
	logger   *logging.Logger
	nodes    []*graph.Node
	rels     []graph.CallRelationship
	topLevel map[string]*graph.Node
	seen     map[relKey]struct{}
}

func (a *PythonAnalyzer) Analyze(ctx context.Context, src Source) ([]*graph.Node, []graph.CallRelationship, error) {
	root, err := lang.NewParser().Parse(ctx, src.Content, lang.Python, src.RelPath)
	if err != nil {
		return nil, nil, err
	}
	p := &pyPass{
		src:      src,
		logger:   a.logger,
		topLevel: map[string]*graph.Node{},
		seen:     map[relKey]struct{}{},
	}
	p.collectDeclarations(root, "", 0)
	p.collectCalls(root, "", "", 0)
	return p.nodes, p.rels, nil
}

func (p *pyPass) addRelationship(rel graph.CallRelationship) {
	key := relKey{rel.Caller, rel.Callee, rel.CallLine}
	if _, dup := p.seen[key]; dup {
		return
	}
	p.seen[key] = struct{}{}
	p.rels = append(p.rels, rel)
}

func (p *pyPass) collectDeclarations(node *sitter.Node, className string, depth int) {
	if depth > maxWalkDepth {
		return
	}
	switch node.Type() {
	case "class_definition":
		name := nodeText(node.ChildByFieldName("name"), p.src.Content)
		if name == "" {
			break
		}
		cls := p.classNode(node, name)
		p.nodes = append(p.nodes, cls)
		p.topLevel[name] = cls
		if body := node.ChildByFieldName("body"); body != nil {
			eachChild(body, func(stmt *sitter.Node) {
				p.collectDeclarations(stmt, name, depth+1)
			})
			// Base classes become edges during the call pass
		}
		return
	case "function_definition":
		name := nodeText(node.ChildByFieldName("name"), p.src.Content)
		if name == "" {
			break
		}
		fn := p.functionNode(node, name, className)
		p.nodes = append(p.nodes, fn)
		if className != "" {
			p.topLevel[className+"."+name] = fn
		} else {
			p.topLevel[name] = fn
		}
		// Nested defs are not components of their own
		return
	case "decorated_definition":
		if def := childByTypes(node, "class_definition", "function_definition"); def != nil {
			p.collectDeclarations(def, className, depth+1)
			return
		}
	}
	eachChild(node, func(child *sitter.Node) {
		p.collectDeclarations(child, className, depth+1)
	})
}

func (p *pyPass) classNode(node *sitter.Node, name string) *graph.Node {
	var baseClasses []string
	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		eachChild(supers, func(arg *sitter.Node) {
			switch arg.Type() {
			case "identifier", "attribute":
				baseClasses = append(baseClasses, nodeText(arg, p.src.Content))
			}
		})
	}
	docstring := p.docstring(node)
	componentID := p.src.ComponentID(name, "")
	return &graph.Node{
		ID:            componentID,
		Name:          name,
		ComponentType: "class",
		FilePath:      p.src.AbsPath,
		RelativePath:  p.src.RelPath,
		SourceCode:    snippet(p.src.Content, startLine(node), endLine(node)),
		StartLine:     startLine(node),
		EndLine:       endLine(node),
		HasDocstring:  docstring != "",
		Docstring:     docstring,
		NodeType:      "class",
		BaseClasses:   baseClasses,
		DisplayName:   "class " + name,
		ComponentID:   componentID,
		DependsOn:     graph.NewStringSet(),
	}
}

func (p *pyPass) functionNode(node *sitter.Node, name, className string) *graph.Node {
	docstring := p.docstring(node)
	componentType := "function"
	display := "function " + name
	if className != "" {
		componentType = "method"
		display = "method " + name
	}
	if strings.HasPrefix(strings.TrimSpace(nodeText(node, p.src.Content)), "async ") {
		display = "async " + display
	}
	componentID := p.src.ComponentID(name, className)
	return &graph.Node{
		ID:            componentID,
		Name:          name,
		ComponentType: componentType,
		FilePath:      p.src.AbsPath,
		RelativePath:  p.src.RelPath,
		SourceCode:    snippet(p.src.Content, startLine(node), endLine(node)),
		StartLine:     startLine(node),
		EndLine:       endLine(node),
		HasDocstring:  docstring != "",
		Docstring:     docstring,
		Parameters:    p.parameters(node),
		NodeType:      componentType,
		ClassName:     className,
		DisplayName:   display,
		ComponentID:   componentID,
		DependsOn:     graph.NewStringSet(),
	}
}

// docstring returns the leading string literal of a def or class body.
func (p *pyPass) docstring(node *sitter.Node) string {
	body := node.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" {
		return ""
	}
	str := childByType(first, "string")
	if str == nil {
		return ""
	}
	text := nodeText(str, p.src.Content)
	for _, quote := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(text, quote) && strings.HasSuffix(text, quote) && len(text) >= 2*len(quote) {
			return strings.TrimSpace(text[len(quote) : len(text)-len(quote)])
		}
	}
	return strings.TrimSpace(text)
}

func (p *pyPass) parameters(node *sitter.Node) []string {
	var params []string
	if formal := node.ChildByFieldName("parameters"); formal != nil {
		eachChild(formal, func(child *sitter.Node) {
			switch child.Type() {
			case "identifier":
				params = append(params, nodeText(child, p.src.Content))
			case "typed_parameter", "default_parameter", "typed_default_parameter":
				if ident := childByType(child, "identifier"); ident != nil {
					params = append(params, nodeText(ident, p.src.Content))
				}
			}
		})
	}
	return params
}

// collectCalls walks the tree tracking the enclosing class and callable so
// every call expression can be attributed to a component.
func (p *pyPass) collectCalls(node *sitter.Node, className, callerName string, depth int) {
	if depth > maxWalkDepth {
		return
	}
	switch node.Type() {
	case "class_definition":
		name := nodeText(node.ChildByFieldName("name"), p.src.Content)
		if name != "" {
			className = name
			callerName = name
			p.inheritanceRels(node, name)
		}
	case "function_definition":
		name := nodeText(node.ChildByFieldName("name"), p.src.Content)
		if name != "" {
			if className != "" {
				callerName = className + "." + name
			} else {
				callerName = name
			}
		}
	case "call":
		if callerName != "" {
			p.callRel(node, className, callerName)
		}
	}
	eachChild(node, func(child *sitter.Node) {
		p.collectCalls(child, className, callerName, depth+1)
	})
}

func (p *pyPass) inheritanceRels(node *sitter.Node, className string) {
	supers := node.ChildByFieldName("superclasses")
	if supers == nil {
		return
	}
	eachChild(supers, func(arg *sitter.Node) {
		if arg.Type() != "identifier" && arg.Type() != "attribute" {
			return
		}
		base := nodeText(arg, p.src.Content)
		if base == "" || base == "object" {
			return
		}
		if dot := strings.LastIndex(base, "."); dot >= 0 {
			base = base[dot+1:]
		}
		p.addRelationship(graph.CallRelationship{
			Caller:   p.src.ComponentID(className, ""),
			Callee:   p.src.ComponentID(base, ""),
			CallLine: startLine(node),
		})
	})
}

func (p *pyPass) callRel(node *sitter.Node, className, callerName string) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}
	var calleeName string
	isSelfCall := false
	switch fn.Type() {
	case "identifier":
		calleeName = nodeText(fn, p.src.Content)
	case "attribute":
		calleeName = nodeText(fn.ChildByFieldName("attribute"), p.src.Content)
		object := nodeText(fn.ChildByFieldName("object"), p.src.Content)
		isSelfCall = object == "self" || object == "cls"
	}
	if calleeName == "" || isPyBuiltin(calleeName) {
		return
	}

	callee := p.src.ComponentID(calleeName, "")
	resolved := false
	if isSelfCall && className != "" {
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

var pyBuiltins = map[string]struct{}{
	"print": {}, "len": {}, "range": {}, "str": {}, "int": {}, "float": {},
	"bool": {}, "list": {}, "dict": {}, "set": {}, "tuple": {}, "type": {},
	"isinstance": {}, "issubclass": {}, "getattr": {}, "setattr": {},
	"hasattr": {}, "super": {}, "enumerate": {}, "zip": {}, "map": {},
	"filter": {}, "sorted": {}, "reversed": {}, "open": {}, "repr": {},
	"abs": {}, "min": {}, "max": {}, "sum": {}, "any": {}, "all": {},
	"iter": {}, "next": {}, "id": {}, "hash": {}, "vars": {}, "format": {},
}

func isPyBuiltin(name string) bool {
	_, ok := pyBuiltins[name]
	return ok
}
