package analyzers

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"depwiki/internal/graph"
	"depwiki/internal/lang"
	"depwiki/internal/logging"
)

// phpPrimitives are PHP primitive and built-in types excluded from
// dependency edges.
var phpPrimitives = map[string]struct{}{
	"string": {}, "int": {}, "float": {}, "bool": {}, "array": {},
	"object": {}, "callable": {}, "iterable": {}, "mixed": {}, "void": {},
	"null": {}, "false": {}, "true": {}, "never": {}, "self": {},
	"static": {}, "parent": {}, "integer": {}, "boolean": {}, "double": {},
	"exception": {}, "error": {}, "throwable": {}, "closure": {},
	"generator": {}, "iterator": {}, "iteratoraggregate": {},
	"traversable": {}, "arrayaccess": {}, "serializable": {},
	"countable": {}, "jsonserializable": {}, "stringable": {},
	"datetime": {}, "datetimeinterface": {}, "datetimeimmutable": {},
	"dateinterval": {}, "stdclass": {}, "arrayobject": {},
	"splobjectstorage": {}, "weakreference": {},
}

// phpTemplateSuffixes and phpTemplateDirs mark files that are views rather
// than code.
var phpTemplateSuffixes = []string{".blade.php", ".phtml", ".twig.php"}
var phpTemplateDirs = []string{"views", "templates", "resources/views"}

// NamespaceResolver resolves PHP class names to fully qualified names using
// the file's namespace and use statements.
type NamespaceResolver struct {
	namespace string
	useMap    map[string]string
}

func NewNamespaceResolver() *NamespaceResolver {
	return &NamespaceResolver{useMap: map[string]string{}}
}

// SetNamespace records the file's namespace.
func (r *NamespaceResolver) SetNamespace(ns string) {
	r.namespace = strings.ReplaceAll(ns, `\\`, `\`)
}

// RegisterUse records a use statement; an empty alias defaults to the final
// segment of the imported name.
func (r *NamespaceResolver) RegisterUse(fqn, alias string) {
	fqn = strings.TrimPrefix(strings.ReplaceAll(fqn, `\\`, `\`), `\`)
	if alias == "" {
		parts := strings.Split(fqn, `\`)
		alias = parts[len(parts)-1]
	}
	r.useMap[alias] = fqn
}

// Resolve expands name to its fully qualified form.
func (r *NamespaceResolver) Resolve(name string) string {
	if name == "" {
		return name
	}
	name = strings.ReplaceAll(name, `\\`, `\`)
	if strings.HasPrefix(name, `\`) {
		return name[1:]
	}
	if fqn, ok := r.useMap[name]; ok {
		return fqn
	}
	parts := strings.Split(name, `\`)
	if base, ok := r.useMap[parts[0]]; ok {
		if len(parts) > 1 {
			return base + `\` + strings.Join(parts[1:], `\`)
		}
		return base
	}
	if r.namespace != "" {
		return r.namespace + `\` + name
	}
	return name
}

// PHPAnalyzer extracts classes, interfaces, traits, enums, functions and
// methods from PHP files, resolving names through namespaces and use
// statements. Template files yield nothing.
type PHPAnalyzer struct {
	logger *logging.Logger
}

func NewPHPAnalyzer(logger *logging.Logger) *PHPAnalyzer {
	return &PHPAnalyzer{logger: logger}
}

type phpPass struct {
	src      Source
	logger   *logging.Logger
	resolver *NamespaceResolver
	nodes    []*graph.Node
	rels     []graph.CallRelationship
	topLevel map[string]*graph.Node
}

func IsPHPTemplate(relPath string) bool {
	for _, suffix := range phpTemplateSuffixes {
		if strings.HasSuffix(relPath, suffix) {
			return true
		}
	}
	for _, dir := range phpTemplateDirs {
		if strings.Contains(relPath, "/"+dir+"/") || strings.HasPrefix(relPath, dir+"/") {
			return true
		}
	}
	return false
}

func (a *PHPAnalyzer) Analyze(ctx context.Context, src Source) ([]*graph.Node, []graph.CallRelationship, error) {
	if IsPHPTemplate(src.RelPath) {
		a.logger.Debug("skipping php template", map[string]interface{}{"file": src.RelPath})
		return nil, nil, nil
	}
	root, err := lang.NewParser().Parse(ctx, src.Content, lang.PHP, src.RelPath)
	if err != nil {
		return nil, nil, err
	}
	p := &phpPass{
		src:      src,
		logger:   a.logger,
		resolver: NewNamespaceResolver(),
		topLevel: map[string]*graph.Node{},
	}
	p.collectNamespaceInfo(root, 0)
	p.collectNodes(root, "", 0)
	p.collectRelationships(root, 0)
	return p.nodes, p.rels, nil
}

// componentID prefers the namespace over the module path when one exists.
func (p *phpPass) componentID(name string) string {
	if p.resolver.namespace != "" {
		return strings.ReplaceAll(p.resolver.namespace, `\`, ".") + "." + name
	}
	return p.src.ComponentID(name, "")
}

func (p *phpPass) collectNamespaceInfo(node *sitter.Node, depth int) {
	if depth > maxWalkDepth {
		return
	}
	switch node.Type() {
	case "namespace_definition":
		if name := childByType(node, "namespace_name"); name != nil {
			p.resolver.SetNamespace(nodeText(name, p.src.Content))
		}
	case "namespace_use_declaration":
		p.collectUseStatement(node)
	}
	eachChild(node, func(child *sitter.Node) {
		p.collectNamespaceInfo(child, depth+1)
	})
}

func (p *phpPass) collectUseStatement(node *sitter.Node) {
	// Group use: use App\{User, Post as P};
	if group := childByType(node, "namespace_use_group"); group != nil {
		prefix := nodeText(childByType(node, "namespace_name"), p.src.Content)
		eachChild(group, func(clause *sitter.Node) {
			if clause.Type() != "namespace_use_group_clause" {
				return
			}
			name := nodeText(childByType(clause, "namespace_name"), p.src.Content)
			if name == "" {
				return
			}
			fqn := name
			if prefix != "" {
				fqn = prefix + `\` + name
			}
			p.resolver.RegisterUse(fqn, p.useAlias(clause))
		})
		return
	}
	eachChild(node, func(clause *sitter.Node) {
		if clause.Type() != "namespace_use_clause" {
			return
		}
		name := childByTypes(clause, "qualified_name", "namespace_name", "name")
		if name == nil {
			return
		}
		p.resolver.RegisterUse(nodeText(name, p.src.Content), p.useAlias(clause))
	})
}

func (p *phpPass) useAlias(clause *sitter.Node) string {
	if aliasing := childByType(clause, "namespace_aliasing_clause"); aliasing != nil {
		return nodeText(childByType(aliasing, "name"), p.src.Content)
	}
	return ""
}

func (p *phpPass) collectNodes(node *sitter.Node, parentClass string, depth int) {
	if depth > maxWalkDepth {
		p.logger.Warn("max recursion depth reached", map[string]interface{}{"file": p.src.RelPath})
		return
	}

	var nodeType, nodeName string
	switch node.Type() {
	case "class_declaration":
		nodeType = "class"
		if p.hasAbstractModifier(node) {
			nodeType = "abstract class"
		}
		nodeName = nodeText(childByType(node, "name"), p.src.Content)
	case "interface_declaration":
		nodeType = "interface"
		nodeName = nodeText(childByType(node, "name"), p.src.Content)
	case "trait_declaration":
		nodeType = "trait"
		nodeName = nodeText(childByType(node, "name"), p.src.Content)
	case "enum_declaration":
		nodeType = "enum"
		nodeName = nodeText(childByType(node, "name"), p.src.Content)
	case "function_definition":
		nodeType = "function"
		nodeName = nodeText(childByType(node, "name"), p.src.Content)
	case "method_declaration":
		if methodName := nodeText(childByType(node, "name"), p.src.Content); methodName != "" {
			nodeType = "method"
			owner := parentClass
			if owner == "" {
				owner = p.containingClassName(node)
			}
			if owner != "" {
				nodeName = owner + "." + methodName
			} else {
				nodeName = methodName
			}
		}
	}

	if nodeType != "" && nodeName != "" {
		docstring := p.precedingDocComment(node)
		var params []string
		if nodeType == "function" || nodeType == "method" {
			params = p.parameters(node)
		}
		var baseClasses []string
		if nodeType == "class" || nodeType == "abstract class" {
			baseClasses = p.baseClasses(node)
		}
		componentID := p.componentID(nodeName)
		component := &graph.Node{
			ID:            componentID,
			Name:          nodeName,
			ComponentType: nodeType,
			FilePath:      p.src.AbsPath,
			RelativePath:  p.src.RelPath,
			SourceCode:    snippet(p.src.Content, startLine(node), endLine(node)),
			StartLine:     startLine(node),
			EndLine:       endLine(node),
			HasDocstring:  docstring != "",
			Docstring:     docstring,
			Parameters:    params,
			NodeType:      nodeType,
			BaseClasses:   baseClasses,
			ClassName:     parentClass,
			DisplayName:   nodeType + " " + nodeName,
			ComponentID:   componentID,
			DependsOn:     graph.NewStringSet(),
		}
		p.nodes = append(p.nodes, component)
		p.topLevel[nodeName] = component

		switch nodeType {
		case "class", "abstract class", "interface", "trait", "enum":
			parentClass = nodeName
		}
	}

	eachChild(node, func(child *sitter.Node) {
		p.collectNodes(child, parentClass, depth+1)
	})
}

func (p *phpPass) hasAbstractModifier(node *sitter.Node) bool {
	abstract := false
	eachChild(node, func(child *sitter.Node) {
		if child.Type() == "abstract_modifier" || nodeText(child, p.src.Content) == "abstract" && child.Type() == "modifier" {
			abstract = true
		}
	})
	return abstract
}

func (p *phpPass) collectRelationships(node *sitter.Node, depth int) {
	if depth > maxWalkDepth {
		return
	}
	switch node.Type() {
	case "namespace_use_declaration":
		p.useRelationships(node)
	case "class_declaration":
		className := nodeText(childByType(node, "name"), p.src.Content)
		if base := childByType(node, "base_clause"); base != nil && className != "" {
			if baseName := nodeText(childByTypes(base, "name", "qualified_name"), p.src.Content); baseName != "" && !p.isPrimitive(baseName) {
				p.addResolvedRel(className, baseName, startLine(node))
			}
		}
		p.interfaceRels(node, className)
	case "enum_declaration":
		p.interfaceRels(node, nodeText(childByType(node, "name"), p.src.Content))
	case "object_creation_expression":
		if owner := p.containingClassName(node); owner != "" {
			if created := nodeText(childByTypes(node, "name", "qualified_name"), p.src.Content); created != "" && !p.isPrimitive(created) {
				p.addResolvedRel(owner, created, startLine(node))
			}
		}
	case "scoped_call_expression":
		if owner := p.containingClassName(node); owner != "" {
			if target := nodeText(childByTypes(node, "name", "qualified_name"), p.src.Content); target != "" && !p.isPrimitive(target) {
				p.addResolvedRel(owner, target, startLine(node))
			}
		}
	case "property_promotion_parameter":
		if owner := p.containingClassName(node); owner != "" {
			if typeName := p.promotedTypeName(node); typeName != "" && !p.isPrimitive(typeName) {
				p.addResolvedRel(owner, typeName, startLine(node))
			}
		}
	}
	eachChild(node, func(child *sitter.Node) {
		p.collectRelationships(child, depth+1)
	})
}

func (p *phpPass) interfaceRels(node *sitter.Node, implementer string) {
	if implementer == "" {
		return
	}
	clause := childByType(node, "class_interface_clause")
	if clause == nil {
		return
	}
	eachChild(clause, func(child *sitter.Node) {
		if child.Type() == "name" || child.Type() == "qualified_name" {
			name := nodeText(child, p.src.Content)
			if !p.isPrimitive(name) {
				p.addResolvedRel(implementer, name, startLine(node))
			}
		}
	})
}

// addResolvedRel resolves the callee through the namespace resolver and
// records the dotted edge.
func (p *phpPass) addResolvedRel(callerName, calleeName string, line int) {
	resolved := p.resolver.Resolve(calleeName)
	p.rels = append(p.rels, graph.CallRelationship{
		Caller:   p.componentID(callerName),
		Callee:   strings.ReplaceAll(resolved, `\`, "."),
		CallLine: line,
	})
}

// useRelationships links the file itself to its imports.
func (p *phpPass) useRelationships(node *sitter.Node) {
	fileID := p.src.ModulePath()
	eachChild(node, func(child *sitter.Node) {
		switch child.Type() {
		case "namespace_use_clause":
			if name := childByTypes(child, "qualified_name", "namespace_name"); name != nil {
				p.rels = append(p.rels, graph.CallRelationship{
					Caller:   fileID,
					Callee:   strings.ReplaceAll(nodeText(name, p.src.Content), `\`, "."),
					CallLine: startLine(node),
				})
			}
		case "namespace_use_group":
			prefix := nodeText(childByType(node, "namespace_name"), p.src.Content)
			eachChild(child, func(clause *sitter.Node) {
				if clause.Type() != "namespace_use_group_clause" {
					return
				}
				if name := childByType(clause, "namespace_name"); name != nil {
					fqn := nodeText(name, p.src.Content)
					if prefix != "" {
						fqn = prefix + `\` + fqn
					}
					p.rels = append(p.rels, graph.CallRelationship{
						Caller:   fileID,
						Callee:   strings.ReplaceAll(fqn, `\`, "."),
						CallLine: startLine(node),
					})
				}
			})
		}
	})
}

func (p *phpPass) containingClassName(node *sitter.Node) string {
	owner := ancestorOfType(node, "class_declaration", "interface_declaration", "trait_declaration", "enum_declaration")
	if owner == nil {
		return ""
	}
	return nodeText(childByType(owner, "name"), p.src.Content)
}

// precedingDocComment returns the PHPDoc block immediately before a node.
func (p *phpPass) precedingDocComment(node *sitter.Node) string {
	prev := node.PrevNamedSibling()
	if prev != nil && prev.Type() == "comment" {
		text := nodeText(prev, p.src.Content)
		if strings.HasPrefix(text, "/**") {
			return text
		}
	}
	return ""
}

func (p *phpPass) parameters(node *sitter.Node) []string {
	formal := childByType(node, "formal_parameters")
	if formal == nil {
		return nil
	}
	var params []string
	eachChild(formal, func(param *sitter.Node) {
		switch param.Type() {
		case "simple_parameter", "property_promotion_parameter", "variadic_parameter":
			variable := childByType(param, "variable_name")
			if variable == nil {
				return
			}
			text := nodeText(variable, p.src.Content)
			if typeNode := childByTypes(param, "named_type", "primitive_type"); typeNode != nil {
				text = nodeText(typeNode, p.src.Content) + " " + text
			}
			params = append(params, text)
		}
	})
	return params
}

func (p *phpPass) baseClasses(node *sitter.Node) []string {
	var bases []string
	if base := childByType(node, "base_clause"); base != nil {
		eachChild(base, func(child *sitter.Node) {
			if child.Type() == "name" || child.Type() == "qualified_name" {
				bases = append(bases, nodeText(child, p.src.Content))
			}
		})
	}
	if clause := childByType(node, "class_interface_clause"); clause != nil {
		eachChild(clause, func(child *sitter.Node) {
			if child.Type() == "name" || child.Type() == "qualified_name" {
				bases = append(bases, nodeText(child, p.src.Content))
			}
		})
	}
	return bases
}

func (p *phpPass) promotedTypeName(node *sitter.Node) string {
	typeNode := childByTypes(node, "type_list", "named_type")
	if typeNode == nil {
		return ""
	}
	if typeNode.Type() == "type_list" {
		if named := childByType(typeNode, "named_type"); named != nil {
			typeNode = named
		}
	}
	if typeNode.Type() == "named_type" {
		if name := childByTypes(typeNode, "name", "qualified_name"); name != nil {
			return nodeText(name, p.src.Content)
		}
	}
	return nodeText(typeNode, p.src.Content)
}

func (p *phpPass) isPrimitive(typeName string) bool {
	if typeName == "" {
		return true
	}
	parts := strings.Split(strings.TrimPrefix(typeName, `\`), `\`)
	_, ok := phpPrimitives[strings.ToLower(parts[len(parts)-1])]
	return ok
}
