package moduletree

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// OverridesFile is the optional module declaration file read from the
// .depwiki directory. Declarations there pin components to hand-named
// modules regardless of what the clusterer produced.
const OverridesFile = "modules.toml"

// Override declares one hand-maintained module.
type Override struct {
	Path       string   `toml:"path"`
	Components []string `toml:"components"`
}

// Overrides is the parsed declaration file.
type Overrides struct {
	Modules map[string]Override `toml:"modules"`
}

// LoadOverrides reads module declarations from path. A missing file is
// not an error and yields an empty set.
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Overrides{Modules: map[string]Override{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read module overrides: %w", err)
	}
	var overrides Overrides
	if err := toml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse module overrides: %w", err)
	}
	if overrides.Modules == nil {
		overrides.Modules = map[string]Override{}
	}
	return &overrides, nil
}

// Apply merges declarations into the tree. Declared components are moved
// out of whatever module the clusterer assigned them to; a declared
// module is created if it does not exist, and its path label is replaced
// when the declaration provides one.
func (o *Overrides) Apply(tree Tree) {
	if len(o.Modules) == 0 {
		return
	}

	claimed := make(map[string]bool)
	for _, override := range o.Modules {
		for _, id := range override.Components {
			claimed[id] = true
		}
	}
	removeClaimed(tree, claimed)

	for name, override := range o.Modules {
		module := tree[name]
		if module == nil {
			module = &Module{Children: NewTree()}
			tree[name] = module
		}
		if override.Path != "" {
			module.Path = override.Path
		}
		for _, id := range override.Components {
			if !contains(module.Components, id) {
				module.Components = append(module.Components, id)
			}
		}
	}
}

func removeClaimed(tree Tree, claimed map[string]bool) {
	for _, module := range tree {
		kept := module.Components[:0]
		for _, id := range module.Components {
			if !claimed[id] {
				kept = append(kept, id)
			}
		}
		module.Components = kept
		removeClaimed(module.Children, claimed)
	}
}

func contains(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
