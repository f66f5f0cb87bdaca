// Package callgraph orchestrates the per-language analyzers across a whole
// repository and resolves the raw call relationships they report into a
// single graph.
package callgraph

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"depwiki/internal/analyzers"
	"depwiki/internal/graph"
	"depwiki/internal/lang"
	"depwiki/internal/logging"
	"depwiki/internal/scanner"
)

// Summary describes one analysis pass over a file set.
type Summary struct {
	TotalFunctions int      `json:"total_functions"`
	TotalCalls     int      `json:"total_calls"`
	LanguagesFound []string `json:"languages_found"`
	FilesAnalyzed  int      `json:"files_analyzed"`
	FilesFailed    int      `json:"files_failed"`
	// FilesSkipped counts files dropped before parsing, either for an
	// unsupported language or by the file cap
	FilesSkipped    int `json:"files_skipped"`
	ResolvedCalls   int `json:"resolved_calls"`
	UnresolvedCalls int `json:"unresolved_calls"`
}

// Result is the merged output of an analysis pass. Functions preserves a
// deterministic component order in IDs, with later files overwriting
// earlier ones on ID collisions.
type Result struct {
	Functions     map[string]*graph.Node
	IDs           []string
	Relationships []graph.CallRelationship
	Summary       Summary
}

// Options bound an analysis pass.
type Options struct {
	// Workers is the parse fan-out width; values below 1 mean sequential
	Workers int
	// FileTimeout bounds a single file's analysis; 0 disables the bound
	FileTimeout time.Duration
}

// Analyzer runs language analyzers over code files and merges their output.
type Analyzer struct {
	opts   Options
	logger *logging.Logger
}

func New(opts Options, logger *logging.Logger) *Analyzer {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Analyzer{opts: opts, logger: logger}
}

type fileOutput struct {
	nodes []*graph.Node
	rels  []graph.CallRelationship
	err   error
}

// Analyze processes every file, merges components and relationships, then
// resolves and deduplicates the call graph. A file that fails to parse is
// logged and skipped; it never aborts the pass.
func (a *Analyzer) Analyze(ctx context.Context, files []scanner.CodeFile) (*Result, error) {
	outputs := make([]fileOutput, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i := range files {
		i := i
		g.Go(func() error {
			// Parsers are not concurrency safe, so every worker task
			// builds its own registry
			registry := analyzers.NewRegistry(a.logger)
			outputs[i] = a.analyzeFile(gctx, registry, files[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Functions: map[string]*graph.Node{}}
	languages := map[string]struct{}{}
	for i, out := range outputs {
		if out.err != nil {
			result.Summary.FilesFailed++
			a.logger.Error("file analysis failed", map[string]interface{}{
				"file":  files[i].RelativePath,
				"error": out.err.Error(),
			})
			continue
		}
		result.Summary.FilesAnalyzed++
		languages[string(files[i].Language)] = struct{}{}
		for _, node := range out.nodes {
			if node.ID == "" {
				node.ID = files[i].RelativePath + ":" + node.Name
			}
			if _, exists := result.Functions[node.ID]; !exists {
				result.IDs = append(result.IDs, node.ID)
			}
			// Last writer wins on ID collisions
			result.Functions[node.ID] = node
		}
		result.Relationships = append(result.Relationships, out.rels...)
	}

	a.resolve(result)
	a.deduplicate(result)

	result.Summary.TotalFunctions = len(result.Functions)
	result.Summary.TotalCalls = len(result.Relationships)
	for _, rel := range result.Relationships {
		if rel.IsResolved {
			result.Summary.ResolvedCalls++
		} else {
			result.Summary.UnresolvedCalls++
		}
	}
	for language := range languages {
		result.Summary.LanguagesFound = append(result.Summary.LanguagesFound, language)
	}
	sort.Strings(result.Summary.LanguagesFound)

	a.logger.Info("analysis complete", map[string]interface{}{
		"files":         result.Summary.FilesAnalyzed,
		"failed":        result.Summary.FilesFailed,
		"components":    result.Summary.TotalFunctions,
		"relationships": result.Summary.TotalCalls,
	})
	return result, nil
}

func (a *Analyzer) analyzeFile(ctx context.Context, registry analyzers.Registry, file scanner.CodeFile) fileOutput {
	analyzer := registry.For(file.Language)
	if analyzer == nil {
		return fileOutput{}
	}
	content, err := os.ReadFile(file.Path)
	if err != nil {
		return fileOutput{err: err}
	}

	if a.opts.FileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.FileTimeout)
		defer cancel()
	}

	nodes, rels, err := analyzer.Analyze(ctx, analyzers.Source{
		AbsPath: file.Path,
		RelPath: file.RelativePath,
		Content: content,
	})
	return fileOutput{nodes: nodes, rels: rels, err: err}
}

// resolve matches relationship callees against the merged component set.
// The lookup maps full IDs, bare names, component IDs and bare method names,
// with later components overwriting earlier entries. A dotted callee that
// misses falls back to its final segment.
func (a *Analyzer) resolve(result *Result) {
	lookup := map[string]string{}
	for _, id := range result.IDs {
		node := result.Functions[id]
		lookup[id] = id
		lookup[node.Name] = id
		if node.ComponentID != "" {
			lookup[node.ComponentID] = id
			parts := strings.Split(node.ComponentID, ".")
			method := parts[len(parts)-1]
			if _, taken := lookup[method]; !taken {
				lookup[method] = id
			}
		}
	}

	for i := range result.Relationships {
		rel := &result.Relationships[i]
		if target, ok := lookup[rel.Callee]; ok {
			rel.Callee = target
			rel.IsResolved = true
			continue
		}
		if idx := strings.LastIndex(rel.Callee, "."); idx >= 0 {
			if target, ok := lookup[rel.Callee[idx+1:]]; ok {
				rel.Callee = target
				rel.IsResolved = true
			}
		}
	}
}

// deduplicate keeps the first occurrence of each caller/callee pair.
func (a *Analyzer) deduplicate(result *Result) {
	type pair struct{ caller, callee string }
	seen := map[pair]struct{}{}
	unique := result.Relationships[:0]
	for _, rel := range result.Relationships {
		key := pair{rel.Caller, rel.Callee}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, rel)
	}
	result.Relationships = unique
}

// TrimToMostConnected cuts the component set down to the target count,
// keeping the nodes with the highest undirected degree. Relationships
// touching removed components are dropped.
func (r *Result) TrimToMostConnected(target int) {
	if len(r.Functions) <= target {
		return
	}
	if len(r.Relationships) == 0 {
		r.IDs = r.IDs[:target]
		kept := map[string]struct{}{}
		for _, id := range r.IDs {
			kept[id] = struct{}{}
		}
		for id := range r.Functions {
			if _, ok := kept[id]; !ok {
				delete(r.Functions, id)
			}
		}
		return
	}

	degree := map[string]int{}
	neighbors := map[string]map[string]struct{}{}
	for _, rel := range r.Relationships {
		_, callerKnown := r.Functions[rel.Caller]
		_, calleeKnown := r.Functions[rel.Callee]
		if !callerKnown || !calleeKnown {
			continue
		}
		if neighbors[rel.Caller] == nil {
			neighbors[rel.Caller] = map[string]struct{}{}
		}
		if neighbors[rel.Callee] == nil {
			neighbors[rel.Callee] = map[string]struct{}{}
		}
		neighbors[rel.Caller][rel.Callee] = struct{}{}
		neighbors[rel.Callee][rel.Caller] = struct{}{}
	}
	for id := range r.Functions {
		degree[id] = len(neighbors[id])
	}

	ranked := append([]string{}, r.IDs...)
	sort.SliceStable(ranked, func(i, j int) bool { return degree[ranked[i]] > degree[ranked[j]] })
	kept := map[string]struct{}{}
	for _, id := range ranked[:target] {
		kept[id] = struct{}{}
	}

	var ids []string
	for _, id := range r.IDs {
		if _, ok := kept[id]; ok {
			ids = append(ids, id)
		} else {
			delete(r.Functions, id)
		}
	}
	r.IDs = ids

	var rels []graph.CallRelationship
	for _, rel := range r.Relationships {
		_, callerKept := kept[rel.Caller]
		_, calleeKept := kept[rel.Callee]
		if callerKept && calleeKept {
			rels = append(rels, rel)
		}
	}
	r.Relationships = rels
}

// VizElement is one Cytoscape-style node or edge.
type VizElement struct {
	Data    map[string]interface{} `json:"data"`
	Classes string                 `json:"classes"`
}

// Visualization is a renderer-ready view of the graph.
type Visualization struct {
	Elements []VizElement `json:"elements"`
	Summary  struct {
		TotalNodes      int `json:"total_nodes"`
		TotalEdges      int `json:"total_edges"`
		UnresolvedCalls int `json:"unresolved_calls"`
	} `json:"summary"`
}

// Visualization builds graph elements for rendering: one element per
// component plus one per resolved edge.
func (r *Result) Visualization() *Visualization {
	viz := &Visualization{}
	for _, id := range r.IDs {
		node := r.Functions[id]
		classes := []string{"node-function"}
		if node.NodeType == "method" {
			classes[0] = "node-method"
		}
		ext := strings.ToLower(filepath.Ext(node.RelativePath))
		language := lang.FromPath(node.RelativePath)
		if language != lang.Unknown {
			classes = append(classes, "lang-"+string(language))
		}
		viz.Elements = append(viz.Elements, VizElement{
			Data: map[string]interface{}{
				"id":       id,
				"label":    node.Name,
				"file":     node.RelativePath,
				"type":     node.NodeType,
				"language": string(language),
				"ext":      ext,
			},
			Classes: strings.Join(classes, " "),
		})
	}
	resolved := 0
	for _, rel := range r.Relationships {
		if !rel.IsResolved {
			continue
		}
		resolved++
		viz.Elements = append(viz.Elements, VizElement{
			Data: map[string]interface{}{
				"id":     rel.Caller + "->" + rel.Callee,
				"source": rel.Caller,
				"target": rel.Callee,
				"line":   rel.CallLine,
			},
			Classes: "edge-call",
		})
	}
	viz.Summary.TotalNodes = len(r.Functions)
	viz.Summary.TotalEdges = resolved
	viz.Summary.UnresolvedCalls = len(r.Relationships) - resolved
	return viz
}
