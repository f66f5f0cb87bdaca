package analyzers

import (
	"context"
	"testing"

	"depwiki/internal/logging"
)

const javaSample = `public class Processor extends Base implements Runnable {
    public void run() {
        helper();
        Parser p = new Parser();
        p.parse();
    }

    public void helper() {
    }
}
`

func TestJavaDeclarations(t *testing.T) {
	a := NewJavaAnalyzer(logging.NewDiscardLogger())
	nodes, _, err := a.Analyze(context.Background(), src("com/app/Processor.java", javaSample))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	processor := requireNode(t, nodes, "com.app.Processor.Processor")
	if processor.ComponentType != "class" {
		t.Errorf("Processor type = %q", processor.ComponentType)
	}
	if len(processor.BaseClasses) != 2 {
		t.Errorf("base classes = %v", processor.BaseClasses)
	}

	run := requireNode(t, nodes, "com.app.Processor.Processor.run")
	if run.ComponentType != "method" || run.ClassName != "Processor" {
		t.Errorf("run = %+v", run)
	}
}

func TestJavaRelationships(t *testing.T) {
	a := NewJavaAnalyzer(logging.NewDiscardLogger())
	_, rels, err := a.Analyze(context.Background(), src("com/app/Processor.java", javaSample))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if !hasRel(rels, "com.app.Processor.Processor", "com.app.Processor.Base") {
		t.Errorf("missing extends edge: %v", rels)
	}
	if !hasRel(rels, "com.app.Processor.Processor", "com.app.Processor.Runnable") {
		t.Errorf("missing implements edge: %v", rels)
	}

	// Unqualified invocation resolves to the sibling method.
	call := findRel(rels, "com.app.Processor.Processor.run", "com.app.Processor.Processor.helper")
	if call == nil || !call.IsResolved {
		t.Errorf("run->helper not resolved: %v", rels)
	}

	// Instantiation of an unknown type stays an unresolved raw edge.
	created := findRel(rels, "com.app.Processor.Processor.run", "com.app.Processor.Parser")
	if created == nil || created.IsResolved {
		t.Errorf("new Parser() edge wrong: %v", rels)
	}
}
