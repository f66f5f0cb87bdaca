package analyzers

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// maxWalkDepth bounds AST recursion so pathological inputs cannot blow the
// stack.
const maxWalkDepth = 100

// childByType returns the first named or anonymous child of the given type.
func childByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && child.Type() == nodeType {
			return child
		}
	}
	return nil
}

// childByTypes returns the first child matching any of the given types.
func childByTypes(node *sitter.Node, nodeTypes ...string) *sitter.Node {
	for _, t := range nodeTypes {
		if child := childByType(node, t); child != nil {
			return child
		}
	}
	return nil
}

// nodeText returns the source text spanned by node.
func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if int(end) > len(source) {
		end = uint32(len(source))
	}
	if start >= end {
		return ""
	}
	return string(source[start:end])
}

// startLine and endLine convert tree-sitter 0-based rows to 1-based lines.
func startLine(node *sitter.Node) int { return int(node.StartPoint().Row) + 1 }
func endLine(node *sitter.Node) int   { return int(node.EndPoint().Row) + 1 }

// snippet returns the source lines from first to last inclusive, 1-based.
func snippet(source []byte, first, last int) string {
	lines := strings.Split(string(source), "\n")
	if first < 1 {
		first = 1
	}
	if last > len(lines) {
		last = len(lines)
	}
	if first > last {
		return ""
	}
	return strings.Join(lines[first-1:last], "\n")
}

// eachChild invokes fn for every child of node.
func eachChild(node *sitter.Node, fn func(child *sitter.Node)) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child != nil {
			fn(child)
		}
	}
}

// ancestorOfType walks up the tree looking for a node of one of the given
// types, returning nil when none exists.
func ancestorOfType(node *sitter.Node, nodeTypes ...string) *sitter.Node {
	current := node.Parent()
	for current != nil {
		for _, t := range nodeTypes {
			if current.Type() == t {
				return current
			}
		}
		current = current.Parent()
	}
	return nil
}
