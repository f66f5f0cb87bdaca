package analyzers

import (
	"context"
	"regexp"
	"strings"

	"depwiki/internal/graph"
	"depwiki/internal/logging"
)

// DMLAnalyzer extracts table, procedure and function definitions from DML
// and SQL files. There is no tree-sitter grammar for this dialect, so the
// analyzer works on statement patterns instead of an AST.
type DMLAnalyzer struct {
	logger *logging.Logger
}

func NewDMLAnalyzer(logger *logging.Logger) *DMLAnalyzer {
	return &DMLAnalyzer{logger: logger}
}

var (
	dmlCreateTable = regexp.MustCompile(`(?i)CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([a-zA-Z_][a-zA-Z0-9_]*)`)
	dmlCreateProc  = regexp.MustCompile(`(?i)CREATE\s+(?:OR\s+REPLACE\s+)?(PROCEDURE|FUNCTION)\s+([a-zA-Z_][a-zA-Z0-9_]*)`)
	dmlEndKeyword  = regexp.MustCompile(`(?i)\bEND\b`)
)

func (a *DMLAnalyzer) Analyze(ctx context.Context, src Source) ([]*graph.Node, []graph.CallRelationship, error) {
	lines := strings.Split(string(src.Content), "\n")
	var nodes []*graph.Node

	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)

		if m := dmlCreateTable.FindStringSubmatch(trimmed); m != nil {
			// Table statements end at the first semicolon
			end := lineNo
			for j := i; j < len(lines); j++ {
				if strings.Contains(lines[j], ";") {
					end = j + 1
					break
				}
			}
			nodes = append(nodes, a.statementNode(src, m[1], "table", lineNo, end, lines))
		}

		if m := dmlCreateProc.FindStringSubmatch(trimmed); m != nil {
			kind := "procedure"
			if strings.EqualFold(m[1], "FUNCTION") {
				kind = "function"
			}
			// Procedure bodies end at the END keyword
			end := lineNo
			for j := i; j < len(lines); j++ {
				if dmlEndKeyword.MatchString(lines[j]) {
					end = j + 1
					break
				}
			}
			nodes = append(nodes, a.statementNode(src, m[2], kind, lineNo, end, lines))
		}
	}

	return nodes, nil, nil
}

func (a *DMLAnalyzer) statementNode(src Source, name, kind string, first, last int, lines []string) *graph.Node {
	if last > len(lines) {
		last = len(lines)
	}
	componentID := src.ComponentID(name, "")
	return &graph.Node{
		ID:            componentID,
		Name:          name,
		ComponentType: kind,
		FilePath:      src.AbsPath,
		RelativePath:  src.RelPath,
		SourceCode:    strings.Join(lines[first-1:last], "\n"),
		StartLine:     first,
		EndLine:       last,
		NodeType:      kind,
		DisplayName:   kind + " " + name,
		ComponentID:   componentID,
		DependsOn:     graph.NewStringSet(),
	}
}
