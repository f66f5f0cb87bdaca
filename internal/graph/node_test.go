package graph

import (
	"encoding/json"
	"testing"
)

func TestStringSetMarshalSorted(t *testing.T) {
	s := NewStringSet("b", "a", "c")
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `["a","b","c"]` {
		t.Errorf("Marshal = %s, want sorted array", data)
	}

	var back StringSet
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !back.Contains("b") || len(back.Values()) != 3 {
		t.Errorf("roundtrip lost members: %v", back.Values())
	}
}

func TestAddDependencyGuards(t *testing.T) {
	n := &Node{ID: "pkg.mod.Foo", DependsOn: NewStringSet()}
	n.AddDependency("pkg.mod.Foo") // self-loop
	n.AddDependency("")            // empty
	n.AddDependency("pkg.mod.Bar")
	n.AddDependency("pkg.mod.Bar") // duplicate

	if got := n.DependsOn.Values(); len(got) != 1 || got[0] != "pkg.mod.Bar" {
		t.Errorf("DependsOn = %v, want [pkg.mod.Bar]", got)
	}
}

func TestRegistryAddAndGet(t *testing.T) {
	r := NewRegistry()
	r.Add(&Node{ID: "b.Two"})
	r.Add(&Node{ID: "a.One"})
	r.Add(nil)
	r.Add(&Node{}) // missing ID is ignored

	if got := r.IDs(); len(got) != 2 || got[0] != "a.One" || got[1] != "b.Two" {
		t.Errorf("IDs() = %v, want sorted [a.One b.Two]", got)
	}
	if r.Get("a.One") == nil {
		t.Errorf("Get(a.One) returned nil")
	}
	if r.Get("missing") != nil {
		t.Errorf("Get(missing) should return nil")
	}
}
