// Package builder turns a repository into a persisted dependency graph. It
// drives the scanner and the call graph analyzer, materializes the component
// registry, and writes the graph document.
package builder

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"depwiki/internal/callgraph"
	"depwiki/internal/errors"
	"depwiki/internal/graph"
	"depwiki/internal/logging"
	"depwiki/internal/scanner"
)

// Options configure a build pass.
type Options struct {
	IncludePatterns []string
	ExcludePatterns []string
	// MaxFiles caps how many code files are analyzed; 0 means unlimited
	MaxFiles    int
	Workers     int
	FileTimeout time.Duration
}

// Builder parses a repository into components and their dependencies.
type Builder struct {
	repoRoot string
	opts     Options
	logger   *logging.Logger

	components graph.Registry
	modules    map[string]struct{}
}

func New(repoRoot string, opts Options, logger *logging.Logger) *Builder {
	return &Builder{
		repoRoot:   repoRoot,
		opts:       opts,
		logger:     logger,
		components: graph.NewRegistry(),
		modules:    map[string]struct{}{},
	}
}

// Output is everything a build pass produces. Files is the analyzed file
// list after language filtering and the file cap.
type Output struct {
	Components graph.Registry
	Modules    []string
	Tree       *scanner.Tree
	Files      []scanner.CodeFile
	Summary    callgraph.Summary
	Result     *callgraph.Result
	ReadmePath string
}

// Build scans the repository, analyzes every code file, and links the
// resolved relationships into component dependencies.
func (b *Builder) Build(ctx context.Context) (*Output, error) {
	absRoot, err := filepath.Abs(b.repoRoot)
	if err != nil {
		return nil, errors.Wrap(errors.RootUnreadable, "resolving repository root", err)
	}
	if _, err := os.Stat(absRoot); err != nil {
		return nil, errors.Wrap(errors.RootUnreadable, "reading repository root", err)
	}

	scan := scanner.New(b.opts.IncludePatterns, b.opts.ExcludePatterns, b.logger)
	tree, err := scan.Scan(absRoot)
	if err != nil {
		return nil, errors.Wrap(errors.RootUnreadable, "scanning repository", err)
	}
	b.logger.Info("repository scanned", map[string]interface{}{
		"files":   tree.TotalFiles,
		"size_kb": tree.TotalSizeKB,
	})

	files, skipped := scanner.CodeFiles(tree, absRoot)
	if b.opts.MaxFiles > 0 && len(files) > b.opts.MaxFiles {
		b.logger.Warn("file cap reached, truncating", map[string]interface{}{
			"total": len(files),
			"cap":   b.opts.MaxFiles,
			"code":  string(errors.FileLimitExceeded),
		})
		skipped += len(files) - b.opts.MaxFiles
		files = files[:b.opts.MaxFiles]
	}

	analyzer := callgraph.New(callgraph.Options{
		Workers:     b.opts.Workers,
		FileTimeout: b.opts.FileTimeout,
	}, b.logger)
	result, err := analyzer.Analyze(ctx, files)
	if err != nil {
		return nil, err
	}
	result.Summary.FilesSkipped = skipped

	b.link(result)

	return &Output{
		Components: b.components,
		Modules:    b.Modules(),
		Tree:       tree,
		Files:      files,
		Summary:    result.Summary,
		Result:     result,
		ReadmePath: scanner.FindReadme(absRoot),
	}, nil
}

// link materializes the registry and populates depends_on from resolved
// relationships. A callee that misses the ID map falls back to a bare name
// match against registered components.
func (b *Builder) link(result *callgraph.Result) {
	idMap := map[string]string{}
	for _, id := range result.IDs {
		node := result.Functions[id]
		b.components.Add(node)
		idMap[id] = id

		if strings.Contains(id, ".") {
			parts := strings.Split(id, ".")
			modulePath := strings.Join(parts[:len(parts)-1], ".")
			if modulePath != "" {
				b.modules[modulePath] = struct{}{}
			}
		}
	}

	linked := 0
	for _, rel := range result.Relationships {
		callerID, ok := idMap[rel.Caller]
		if !ok {
			continue
		}
		calleeID, ok := idMap[rel.Callee]
		if !ok {
			for _, id := range result.IDs {
				if result.Functions[id].Name == rel.Callee {
					calleeID = id
					break
				}
			}
		}
		if calleeID == "" {
			continue
		}
		if caller := b.components.Get(callerID); caller != nil {
			caller.AddDependency(calleeID)
			linked++
		}
	}
	b.logger.Debug("relationships linked", map[string]interface{}{"count": linked})
}

// Modules returns the sorted module prefixes seen across all components.
func (b *Builder) Modules() []string {
	modules := make([]string, 0, len(b.modules))
	for m := range b.modules {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	return modules
}

// SaveGraph writes the dependency graph as JSON keyed by component ID. When
// compress is set, a zstd-compressed snapshot is written next to it.
func SaveGraph(components graph.Registry, outputPath string, compress bool) error {
	doc := map[string]*graph.Node{}
	for _, id := range components.IDs() {
		doc[id] = components.Get(id)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(errors.GraphPersistFailed, "encoding dependency graph", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.GraphPersistFailed, "creating graph directory", err)
		}
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return errors.Wrap(errors.GraphPersistFailed, "writing dependency graph", err)
	}

	if compress {
		if err := writeSnapshot(outputPath+".zst", data); err != nil {
			return err
		}
	}
	return nil
}

func writeSnapshot(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.GraphPersistFailed, "creating graph snapshot", err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return errors.Wrap(errors.GraphPersistFailed, "initializing snapshot encoder", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return errors.Wrap(errors.GraphPersistFailed, "writing graph snapshot", err)
	}
	return enc.Close()
}

// LoadGraph reads a dependency graph document back into a registry.
func LoadGraph(path string) (graph.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.GraphPersistFailed, "reading dependency graph", err)
	}
	doc := map[string]*graph.Node{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.GraphPersistFailed, "decoding dependency graph", err)
	}
	registry := graph.NewRegistry()
	for id, node := range doc {
		if node.ID == "" {
			node.ID = id
		}
		registry.Add(node)
	}
	return registry, nil
}
