package analyzers

import (
	"context"
	"testing"

	"depwiki/internal/logging"
)

const pythonSample = `class Animal:
    """Base type for pets."""

    def speak(self):
        pass


class Dog(Animal):
    def speak(self):
        self.bark()

    def bark(self):
        print("woof")


def helper(count):
    return process(count)


def process(count):
    return count + 1
`

func TestPythonDeclarations(t *testing.T) {
	a := NewPythonAnalyzer(logging.NewDiscardLogger())
	nodes, _, err := a.Analyze(context.Background(), src("zoo/pets.py", pythonSample))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	animal := requireNode(t, nodes, "zoo.pets.Animal")
	if animal.ComponentType != "class" || !animal.HasDocstring {
		t.Errorf("Animal = %+v", animal)
	}
	if animal.Docstring != "Base type for pets." {
		t.Errorf("docstring = %q", animal.Docstring)
	}

	dog := requireNode(t, nodes, "zoo.pets.Dog")
	if len(dog.BaseClasses) != 1 || dog.BaseClasses[0] != "Animal" {
		t.Errorf("Dog base classes = %v", dog.BaseClasses)
	}

	bark := requireNode(t, nodes, "zoo.pets.Dog.bark")
	if bark.ComponentType != "method" || bark.ClassName != "Dog" {
		t.Errorf("bark = %+v", bark)
	}

	helper := requireNode(t, nodes, "zoo.pets.helper")
	if helper.ComponentType != "function" {
		t.Errorf("helper type = %q", helper.ComponentType)
	}
	if len(helper.Parameters) != 1 || helper.Parameters[0] != "count" {
		t.Errorf("helper parameters = %v", helper.Parameters)
	}
}

func TestPythonCallRelationships(t *testing.T) {
	a := NewPythonAnalyzer(logging.NewDiscardLogger())
	_, rels, err := a.Analyze(context.Background(), src("zoo/pets.py", pythonSample))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	// Inheritance edge from subclass to base.
	if !hasRel(rels, "zoo.pets.Dog", "zoo.pets.Animal") {
		t.Errorf("missing inheritance edge, rels = %v", rels)
	}

	// self.bark() resolves to the method within the same class.
	selfCall := findRel(rels, "zoo.pets.Dog.speak", "zoo.pets.Dog.bark")
	if selfCall == nil || !selfCall.IsResolved {
		t.Errorf("self call not resolved: %v", rels)
	}

	// A call to a later top-level function still resolves.
	call := findRel(rels, "zoo.pets.helper", "zoo.pets.process")
	if call == nil || !call.IsResolved {
		t.Errorf("helper->process not resolved: %v", rels)
	}

	// Builtins never produce edges.
	for _, r := range rels {
		if r.Callee == "zoo.pets.print" {
			t.Errorf("builtin leaked into relationships: %+v", r)
		}
	}
}
