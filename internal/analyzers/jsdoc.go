package analyzers

import (
	"regexp"
	"strings"
)

// JSDoc tag patterns that carry type references.
var jsdocTypePatterns = []*regexp.Regexp{
	regexp.MustCompile(`@param\s*\{([^}]+)\}`),
	regexp.MustCompile(`@returns?\s*\{([^}]+)\}`),
	regexp.MustCompile(`@type\s*\{([^}]+)\}`),
	regexp.MustCompile(`@typedef\s*\{[^}]*\}\s*(\w+)`),
	regexp.MustCompile(`@interface\s+(\w+)`),
}

var (
	jsdocMainType    = regexp.MustCompile(`^(\w+)`)
	jsdocGenericArgs = regexp.MustCompile(`<([^<>]+)>`)
	jsdocWord        = regexp.MustCompile(`\b(\w+)\b`)
)

// jsdocTypeRefs extracts the type names referenced by a JSDoc comment,
// decomposing generics and unions into their member types.
func jsdocTypeRefs(comment string) []string {
	var refs []string
	for _, pattern := range jsdocTypePatterns {
		for _, match := range pattern.FindAllStringSubmatch(comment, -1) {
			refs = append(refs, jsdocBaseTypes(match[1])...)
		}
	}
	return refs
}

func jsdocBaseTypes(typeExpr string) []string {
	typeExpr = strings.TrimSpace(typeExpr)
	var types []string
	if m := jsdocMainType.FindStringSubmatch(typeExpr); m != nil {
		types = append(types, m[1])
	}
	for _, generic := range jsdocGenericArgs.FindAllStringSubmatch(typeExpr, -1) {
		for _, word := range jsdocWord.FindAllStringSubmatch(generic[1], -1) {
			types = append(types, word[1])
		}
	}
	if strings.Contains(typeExpr, "|") {
		for _, part := range strings.Split(typeExpr, "|") {
			if m := jsdocWord.FindStringSubmatch(strings.TrimSpace(part)); m != nil {
				types = append(types, m[1])
			}
		}
	}
	return types
}

// jsBuiltinTypes are JSDoc type names that never resolve to repo components.
var jsBuiltinTypes = map[string]struct{}{
	"string": {}, "number": {}, "boolean": {}, "object": {}, "undefined": {},
	"null": {}, "void": {}, "any": {},
	"Array": {}, "Promise": {}, "Date": {}, "RegExp": {}, "Error": {},
	"Map": {}, "Set": {}, "WeakMap": {}, "WeakSet": {}, "Function": {},
	"Object": {}, "String": {}, "Number": {}, "Boolean": {}, "Symbol": {},
	"BigInt": {},
	"Element": {}, "HTMLElement": {}, "Document": {}, "Window": {},
	"Event": {}, "EventTarget": {}, "Node": {}, "Response": {},
	"Request": {}, "Headers": {}, "URL": {}, "URLSearchParams": {},
	"FormData": {}, "Blob": {}, "File": {},
	"T": {}, "U": {}, "V": {}, "K": {}, "P": {}, "R": {}, "E": {},
}

func isJSBuiltinType(name string) bool {
	_, ok := jsBuiltinTypes[name]
	return ok
}
