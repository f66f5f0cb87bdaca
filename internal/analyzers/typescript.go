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

// TypeScriptAnalyzer extracts functions, classes, interfaces, type aliases
// and enums from TypeScript and TSX files, plus call and type dependency
// relationships.
type TypeScriptAnalyzer struct {
	logger *logging.Logger
}

func NewTypeScriptAnalyzer(logger *logging.Logger) *TypeScriptAnalyzer {
	return &TypeScriptAnalyzer{logger: logger}
}

// tsExcludedNames never become components of their own.
var tsExcludedNames = map[string]struct{}{
	"constructor": {},
	"__proto__":   {},
	"prototype":   {},
}

var tsBuiltinTypes = map[string]struct{}{
	"string": {}, "number": {}, "boolean": {}, "object": {}, "undefined": {},
	"null": {}, "void": {}, "never": {}, "any": {}, "unknown": {},
}

// tsEntity is a declaration found anywhere in the file, top-level or not.
type tsEntity struct {
	name        string
	typ         string
	subtype     string
	node        *sitter.Node
	params      []string
	baseClasses []string
	code        string
	displayName string
	depth       int
}

type tsPass struct {
	src      Source
	logger   *logging.Logger
	nodes    []*graph.Node
	rels     []graph.CallRelationship
	entities map[string]*tsEntity
	topLevel map[string]*graph.Node
	seen     map[relKey]struct{}
}

func (a *TypeScriptAnalyzer) Analyze(ctx context.Context, src Source) ([]*graph.Node, []graph.CallRelationship, error) {
	root, err := lang.NewParser().Parse(ctx, src.Content, lang.TypeScript, src.RelPath)
	if err != nil {
		return nil, nil, err
	}
	p := &tsPass{
		src:      src,
		logger:   a.logger,
		entities: map[string]*tsEntity{},
		topLevel: map[string]*graph.Node{},
		seen:     map[relKey]struct{}{},
	}
	p.collectEntities(root, 0)
	p.promoteTopLevel()
	sort.SliceStable(p.nodes, func(i, j int) bool { return p.nodes[i].StartLine < p.nodes[j].StartLine })
	p.collectRelationships(root, "", 0)
	return p.nodes, p.rels, nil
}

func (p *tsPass) addRel(callerName, calleeName string, line int) {
	rel := graph.CallRelationship{
		Caller:   p.src.ComponentID(callerName, ""),
		Callee:   p.src.ComponentID(calleeName, ""),
		CallLine: line,
	}
	key := relKey{rel.Caller, rel.Callee, rel.CallLine}
	if _, dup := p.seen[key]; dup {
		return
	}
	p.seen[key] = struct{}{}
	p.rels = append(p.rels, rel)
}

func (p *tsPass) collectEntities(node *sitter.Node, depth int) {
	if depth > maxWalkDepth {
		return
	}
	var entity *tsEntity
	switch node.Type() {
	case "function_declaration":
		entity = p.functionEntity(node, "function")
	case "generator_function_declaration":
		entity = p.functionEntity(node, "generator_function")
	case "arrow_function":
		entity = p.arrowEntity(node)
	case "method_definition":
		entity = p.methodEntity(node)
	case "class_declaration":
		entity = p.classEntity(node, "class")
	case "abstract_class_declaration":
		entity = p.classEntity(node, "abstract_class")
	case "interface_declaration":
		entity = p.interfaceEntity(node)
	case "type_alias_declaration":
		entity = p.typeAliasEntity(node)
	case "enum_declaration":
		entity = p.enumEntity(node)
	case "variable_declarator":
		entity = p.variableEntity(node)
	case "export_statement":
		entity = p.exportEntity(node)
	case "lexical_declaration", "variable_declaration":
		entity = p.lexicalEntity(node)
	}
	if entity != nil && entity.name != "" {
		entity.node = node
		entity.depth = depth
		p.entities[entity.name] = entity
	}
	eachChild(node, func(child *sitter.Node) {
		p.collectEntities(child, depth+1)
	})
}

// promoteTopLevel turns entities declared at module scope into components.
// Variables without function values stay out of the node set, as do method
// internals like constructor.
func (p *tsPass) promoteTopLevel() {
	for name, entity := range p.entities {
		if !p.isTopLevel(entity) {
			continue
		}
		if entity.typ == "variable" {
			continue
		}
		if _, excluded := tsExcludedNames[strings.ToLower(name)]; excluded {
			continue
		}
		node := p.entityNode(entity)
		p.nodes = append(p.nodes, node)
		p.topLevel[name] = node

		if entity.subtype == "class" || entity.subtype == "abstract_class" || entity.subtype == "export_class" {
			p.constructorDependencies(entity.node, name)
		}
	}
}

func (p *tsPass) isTopLevel(entity *tsEntity) bool {
	node := entity.node
	if node == nil || node.Parent() == nil {
		return true
	}
	if p.insideFunctionBody(node) {
		return false
	}
	for current := node.Parent(); current != nil; current = current.Parent() {
		switch current.Type() {
		case "program", "export_statement", "ambient_declaration", "module":
			return true
		case "statement_block":
			if gp := current.Parent(); gp != nil && (gp.Type() == "module" || gp.Type() == "ambient_declaration") {
				return true
			}
		}
	}
	return false
}

func (p *tsPass) insideFunctionBody(node *sitter.Node) bool {
	for current := node.Parent(); current != nil; current = current.Parent() {
		if current.Type() != "statement_block" {
			continue
		}
		parent := current.Parent()
		if parent == nil {
			continue
		}
		switch parent.Type() {
		case "function_declaration", "generator_function_declaration", "arrow_function",
			"function_expression", "method_definition":
			return true
		}
	}
	return false
}

func (p *tsPass) entityNode(entity *tsEntity) *graph.Node {
	componentID := p.src.ComponentID(entity.name, "")
	return &graph.Node{
		ID:            componentID,
		Name:          entity.name,
		ComponentType: entity.typ,
		FilePath:      p.src.AbsPath,
		RelativePath:  p.src.RelPath,
		SourceCode:    entity.code,
		StartLine:     startLine(entity.node),
		EndLine:       endLine(entity.node),
		Parameters:    entity.params,
		NodeType:      entity.subtype,
		BaseClasses:   entity.baseClasses,
		DisplayName:   entity.displayName,
		ComponentID:   componentID,
		DependsOn:     graph.NewStringSet(),
	}
}

func (p *tsPass) functionEntity(node *sitter.Node, subtype string) *tsEntity {
	nameNode := childByType(node, "identifier")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, p.src.Content)
	code := nodeText(node, p.src.Content)
	isAsync := strings.HasPrefix(strings.TrimSpace(code), "async")
	display := subtype + " " + name
	if isAsync {
		display = "async " + display
	}
	return &tsEntity{
		name: name, typ: "function", subtype: subtype,
		params: p.parameters(node), code: code, displayName: display,
	}
}

func (p *tsPass) arrowEntity(node *sitter.Node) *tsEntity {
	parent := node.Parent()
	if parent == nil || parent.Type() != "variable_declarator" {
		return nil
	}
	nameNode := childByType(parent, "identifier")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, p.src.Content)
	code := nodeText(parent, p.src.Content)
	display := "arrow function " + name
	if strings.Contains(strings.SplitN(code, "=", 2)[0], "async") {
		display = "async " + display
	}
	return &tsEntity{
		name: name, typ: "function", subtype: "arrow_function",
		params: p.parameters(node), code: code, displayName: display,
	}
}

func (p *tsPass) methodEntity(node *sitter.Node) *tsEntity {
	nameNode := childByType(node, "property_identifier")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, p.src.Content)
	code := nodeText(node, p.src.Content)
	display := "method " + name
	if strings.Contains(code, "async") {
		display = "async " + display
	}
	if strings.Contains(code, "static") {
		display = "static " + display
	}
	return &tsEntity{
		name: name, typ: "function", subtype: "method",
		params: p.parameters(node), code: code, displayName: display,
	}
}

func (p *tsPass) classEntity(node *sitter.Node, subtype string) *tsEntity {
	nameNode := childByTypes(node, "type_identifier", "identifier")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, p.src.Content)
	bases := p.inheritance(node)
	display := strings.ReplaceAll(subtype, "_", " ") + " " + name
	if len(bases) > 0 {
		display += " extends " + strings.Join(bases, ", ")
	}
	return &tsEntity{
		name: name, typ: "class", subtype: subtype,
		baseClasses: bases, code: nodeText(node, p.src.Content), displayName: display,
	}
}

func (p *tsPass) interfaceEntity(node *sitter.Node) *tsEntity {
	nameNode := childByType(node, "type_identifier")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, p.src.Content)
	bases := p.inheritance(node)
	display := "interface " + name
	if len(bases) > 0 {
		display += " extends " + strings.Join(bases, ", ")
	}
	return &tsEntity{
		name: name, typ: "interface", subtype: "interface",
		baseClasses: bases, code: nodeText(node, p.src.Content), displayName: display,
	}
}

func (p *tsPass) typeAliasEntity(node *sitter.Node) *tsEntity {
	nameNode := childByType(node, "type_identifier")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, p.src.Content)
	return &tsEntity{
		name: name, typ: "type", subtype: "type_alias",
		code: nodeText(node, p.src.Content), displayName: "type " + name,
	}
}

func (p *tsPass) enumEntity(node *sitter.Node) *tsEntity {
	nameNode := childByType(node, "identifier")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, p.src.Content)
	return &tsEntity{
		name: name, typ: "enum", subtype: "enum",
		code: nodeText(node, p.src.Content), displayName: "enum " + name,
	}
}

func (p *tsPass) variableEntity(node *sitter.Node) *tsEntity {
	nameNode := childByType(node, "identifier")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, p.src.Content)
	return &tsEntity{
		name: name, typ: "variable", subtype: "variable",
		code: nodeText(node, p.src.Content), displayName: "variable " + name,
	}
}

func (p *tsPass) lexicalEntity(node *sitter.Node) *tsEntity {
	declarator := childByType(node, "variable_declarator")
	if declarator == nil {
		return nil
	}
	nameNode := childByType(declarator, "identifier")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, p.src.Content)
	code := nodeText(node, p.src.Content)
	declType := "var"
	if strings.HasPrefix(code, "const") {
		declType = "const"
	} else if strings.HasPrefix(code, "let") {
		declType = "let"
	}
	typ := "variable"
	if childByTypes(declarator, "arrow_function", "function_expression") != nil {
		typ = "function"
	}
	return &tsEntity{
		name: name, typ: typ, subtype: declType + "_declaration",
		code: code, displayName: declType + " " + name,
	}
}

func (p *tsPass) exportEntity(node *sitter.Node) *tsEntity {
	code := nodeText(node, p.src.Content)
	if funcDecl := childByType(node, "function_declaration"); funcDecl != nil {
		if nameNode := childByType(funcDecl, "identifier"); nameNode != nil {
			name := nodeText(nameNode, p.src.Content)
			return &tsEntity{
				name: name, typ: "function", subtype: "export_function",
				params: p.parameters(funcDecl), code: code,
				displayName: "export function " + name,
			}
		}
	}
	if classDecl := childByTypes(node, "class_declaration", "abstract_class_declaration"); classDecl != nil {
		if nameNode := childByTypes(classDecl, "type_identifier", "identifier"); nameNode != nil {
			name := nodeText(nameNode, p.src.Content)
			return &tsEntity{
				name: name, typ: "class", subtype: "export_class",
				baseClasses: p.inheritance(classDecl), code: code,
				displayName: "export class " + name,
			}
		}
	}
	if ifaceDecl := childByType(node, "interface_declaration"); ifaceDecl != nil {
		if nameNode := childByType(ifaceDecl, "type_identifier"); nameNode != nil {
			name := nodeText(nameNode, p.src.Content)
			return &tsEntity{
				name: name, typ: "interface", subtype: "export_interface",
				baseClasses: p.inheritance(ifaceDecl), code: code,
				displayName: "export interface " + name,
			}
		}
	}
	if lexical := childByType(node, "lexical_declaration"); lexical != nil {
		if declarator := childByType(lexical, "variable_declarator"); declarator != nil {
			nameNode := childByType(declarator, "identifier")
			funcExpr := childByTypes(declarator, "arrow_function", "function_expression")
			if nameNode != nil && funcExpr != nil {
				name := nodeText(nameNode, p.src.Content)
				return &tsEntity{
					name: name, typ: "function", subtype: "export_arrow_function",
					params: p.parameters(funcExpr), code: code,
					displayName: "export const " + name,
				}
			}
		}
	}
	// export default someCall(...)
	if childByType(node, "default") != nil {
		if callExpr := childByType(node, "call_expression"); callExpr != nil && callExpr.ChildCount() > 0 {
			name := nodeText(callExpr.Child(0), p.src.Content)
			return &tsEntity{
				name: name, typ: "function", subtype: "export_default_call",
				code: code, displayName: "export default " + name + "(...)",
			}
		}
	}
	return nil
}

// constructorDependencies records dependency-injected constructor parameter
// types as edges from the class.
func (p *tsPass) constructorDependencies(classNode *sitter.Node, className string) {
	body := childByType(classNode, "class_body")
	if body == nil {
		if inner := childByTypes(classNode, "class_declaration", "abstract_class_declaration"); inner != nil {
			body = childByType(inner, "class_body")
		}
		if body == nil {
			return
		}
	}
	eachChild(body, func(member *sitter.Node) {
		if member.Type() != "method_definition" {
			return
		}
		prop := childByType(member, "property_identifier")
		if prop == nil || nodeText(prop, p.src.Content) != "constructor" {
			return
		}
		formal := childByType(member, "formal_parameters")
		if formal == nil {
			return
		}
		eachChild(formal, func(param *sitter.Node) {
			if param.Type() != "required_parameter" && param.Type() != "optional_parameter" {
				return
			}
			annotation := childByType(param, "type_annotation")
			if annotation == nil {
				return
			}
			typeID := childByType(annotation, "type_identifier")
			if typeID == nil {
				return
			}
			depName := nodeText(typeID, p.src.Content)
			if depName != "" && depName != className {
				p.addRel(className, depName, startLine(param))
			}
		})
	})
}

func (p *tsPass) inheritance(node *sitter.Node) []string {
	var bases []string
	collect := func(clause *sitter.Node) {
		eachChild(clause, func(child *sitter.Node) {
			if child.Type() == "identifier" || child.Type() == "type_identifier" {
				bases = append(bases, nodeText(child, p.src.Content))
			}
		})
	}
	if extends := childByType(node, "extends_clause"); extends != nil {
		collect(extends)
	}
	if implements := childByType(node, "implements_clause"); implements != nil {
		collect(implements)
	}
	return bases
}

func (p *tsPass) parameters(node *sitter.Node) []string {
	var params []string
	formal := childByType(node, "formal_parameters")
	if formal == nil {
		return nil
	}
	eachChild(formal, func(child *sitter.Node) {
		switch child.Type() {
		case "identifier":
			params = append(params, nodeText(child, p.src.Content))
		case "required_parameter", "optional_parameter":
			if ident := childByType(child, "identifier"); ident != nil {
				params = append(params, nodeText(ident, p.src.Content))
			}
		}
	})
	return params
}

func (p *tsPass) collectRelationships(node *sitter.Node, currentTopLevel string, depth int) {
	if depth > maxWalkDepth {
		return
	}
	if name := p.topLevelName(node); name != "" {
		if _, ok := p.topLevel[name]; ok {
			currentTopLevel = name
		}
	}

	if currentTopLevel != "" {
		switch node.Type() {
		case "call_expression":
			p.callRelationship(node, currentTopLevel)
		case "new_expression":
			p.newRelationship(node, currentTopLevel)
		case "member_expression":
			if prop := childByType(node, "property_identifier"); prop != nil {
				name := nodeText(prop, p.src.Content)
				if name != "" {
					p.addRel(currentTopLevel, name, startLine(node))
				}
			}
		case "type_annotation":
			p.typeRelationships(node, currentTopLevel)
		case "type_arguments":
			eachChild(node, func(child *sitter.Node) {
				if child.Type() == "type_identifier" {
					p.resolvedTypeRel(currentTopLevel, nodeText(child, p.src.Content), startLine(node))
				}
			})
		case "extends_clause", "implements_clause":
			eachChild(node, func(child *sitter.Node) {
				if child.Type() == "identifier" || child.Type() == "type_identifier" {
					p.resolvedTypeRel(currentTopLevel, nodeText(child, p.src.Content), startLine(node))
				}
			})
		}
	}

	eachChild(node, func(child *sitter.Node) {
		p.collectRelationships(child, currentTopLevel, depth+1)
	})
}

func (p *tsPass) topLevelName(node *sitter.Node) string {
	switch node.Type() {
	case "function_declaration", "generator_function_declaration", "enum_declaration":
		return nodeText(childByType(node, "identifier"), p.src.Content)
	case "class_declaration", "abstract_class_declaration", "interface_declaration", "type_alias_declaration":
		return nodeText(childByTypes(node, "type_identifier", "identifier"), p.src.Content)
	case "export_statement":
		if funcDecl := childByType(node, "function_declaration"); funcDecl != nil {
			return nodeText(childByType(funcDecl, "identifier"), p.src.Content)
		}
		if classDecl := childByType(node, "class_declaration"); classDecl != nil {
			return nodeText(childByType(classDecl, "type_identifier"), p.src.Content)
		}
		if lexical := childByType(node, "lexical_declaration"); lexical != nil {
			if declarator := childByType(lexical, "variable_declarator"); declarator != nil {
				return nodeText(childByType(declarator, "identifier"), p.src.Content)
			}
		}
		if callExpr := childByType(node, "call_expression"); callExpr != nil {
			return nodeText(childByType(callExpr, "identifier"), p.src.Content)
		}
	case "lexical_declaration", "variable_declaration":
		if declarator := childByType(node, "variable_declarator"); declarator != nil {
			return nodeText(childByType(declarator, "identifier"), p.src.Content)
		}
	}
	return ""
}

func (p *tsPass) callRelationship(node *sitter.Node, callerName string) {
	calleeName := p.calleeName(node)
	if calleeName == "" {
		return
	}

	callText := nodeText(node, p.src.Content)
	if strings.Contains(callText, "this.") || strings.Contains(callText, "super.") {
		// Calls to own methods stay internal to the class
		if entity, ok := p.entities[calleeName]; ok && entity.subtype == "method" {
			return
		}
	}

	if entity, ok := p.entities[calleeName]; ok && !p.isTopLevel(entity) {
		if _, top := p.topLevel[calleeName]; !top {
			return
		}
	}
	p.addRel(callerName, calleeName, startLine(node))
}

func (p *tsPass) newRelationship(node *sitter.Node, callerName string) {
	var constructor *sitter.Node
	eachChild(node, func(child *sitter.Node) {
		if constructor != nil {
			return
		}
		switch child.Type() {
		case "new", "type_arguments", "arguments":
		default:
			constructor = child
		}
	})
	if constructor == nil {
		return
	}
	name := nodeText(constructor, p.src.Content)
	if name != "" {
		p.addRel(callerName, name, startLine(node))
	}
}

func (p *tsPass) typeRelationships(node *sitter.Node, callerName string) {
	var identifiers []*sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "type_identifier" {
			identifiers = append(identifiers, n)
		}
		eachChild(n, walk)
	}
	walk(node)

	for _, typeNode := range identifiers {
		name := nodeText(typeNode, p.src.Content)
		if _, builtin := tsBuiltinTypes[name]; builtin {
			continue
		}
		if _, known := p.entities[name]; known {
			p.resolvedTypeRel(callerName, name, startLine(node))
		} else {
			p.addRel(callerName, name, startLine(node))
		}
	}
}

// resolvedTypeRel only records the edge when the target is a known top-level
// component of this file.
func (p *tsPass) resolvedTypeRel(callerName, typeName string, line int) {
	if typeName == "" {
		return
	}
	if _, ok := p.topLevel[typeName]; ok {
		p.addRel(callerName, typeName, line)
	}
}

func (p *tsPass) calleeName(callNode *sitter.Node) string {
	if callNode.ChildCount() == 0 {
		return ""
	}
	callee := callNode.Child(0)
	switch callee.Type() {
	case "identifier":
		return nodeText(callee, p.src.Content)
	case "member_expression":
		return nodeText(callee, p.src.Content)
	}
	return ""
}
