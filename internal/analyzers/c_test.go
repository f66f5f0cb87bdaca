package analyzers

import (
	"context"
	"testing"

	"depwiki/internal/logging"
)

const cSample = `struct point {
    int x;
    int y;
};

typedef struct {
    double r;
} circle;

static int square(int value) {
    return value * value;
}

int sum_squares(int a, int b) {
    return square(a) + square(b) + printf("");
}
`

func TestCAnalyzer(t *testing.T) {
	nodes, rels, err := NewCAnalyzer(logging.NewDiscardLogger()).
		Analyze(context.Background(), src("lib/math.c", cSample))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	point := requireNode(t, nodes, "lib.math.point")
	if point.NodeType != "struct" {
		t.Errorf("point NodeType = %q", point.NodeType)
	}

	// The anonymous struct surfaces under its typedef name.
	alias := requireNode(t, nodes, "lib.math.circle")
	if alias.NodeType != "struct" {
		t.Errorf("circle NodeType = %q", alias.NodeType)
	}

	square := requireNode(t, nodes, "lib.math.square")
	if len(square.Parameters) != 1 || square.Parameters[0] != "value" {
		t.Errorf("square params = %v", square.Parameters)
	}
	sum := requireNode(t, nodes, "lib.math.sum_squares")
	if len(sum.Parameters) != 2 {
		t.Errorf("sum_squares params = %v", sum.Parameters)
	}

	// Two calls to square on one line collapse into a single edge.
	count := 0
	for _, rel := range rels {
		if rel.Caller == "lib.math.sum_squares" && rel.Callee == "lib.math.square" {
			count++
			if !rel.IsResolved {
				t.Errorf("local call should be resolved: %+v", rel)
			}
		}
	}
	if count != 1 {
		t.Errorf("square edges = %d, want 1", count)
	}

	// An external callee keeps the edge but stays unresolved.
	external := findRel(rels, "lib.math.sum_squares", "lib.math.printf")
	if external == nil || external.IsResolved {
		t.Errorf("external call mishandled: %v", rels)
	}
}
