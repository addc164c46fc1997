package weapon

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// LoadWeapons reads all *.yaml files from dir, parses each as a Weapon,
// validates it, and returns the collected slice sorted by ID.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid Weapons or the first encountered error.
func LoadWeapons(dir string) ([]*Weapon, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadWeapons: cannot read directory %q: %w", dir, err)
	}

	var weapons []*Weapon
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadWeapons: cannot read file %q: %w", path, err)
		}
		var w Weapon
		if err := yaml.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("LoadWeapons: cannot parse file %q: %w", path, err)
		}
		if w.ID == "" {
			return nil, fmt.Errorf("LoadWeapons: weapon in %q has no id", path)
		}
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("LoadWeapons: invalid weapon in %q: %w", path, err)
		}
		weapons = append(weapons, &w)
	}
	sort.Slice(weapons, func(i, j int) bool { return weapons[i].ID < weapons[j].ID })
	return weapons, nil
}

// Registry holds the preset weapon profiles indexed by ID.
// It is populated at startup and read-only afterwards.
type Registry struct {
	byID map[string]*Weapon
}

// NewRegistry builds a Registry from ws.
//
// Postcondition: returns an error if two weapons share an ID.
func NewRegistry(ws []*Weapon) (*Registry, error) {
	r := &Registry{byID: make(map[string]*Weapon, len(ws))}
	for _, w := range ws {
		if _, exists := r.byID[w.ID]; exists {
			return nil, fmt.Errorf("weapon: Registry: weapon ID %q already registered", w.ID)
		}
		r.byID[w.ID] = w
	}
	return r, nil
}

// Lookup returns a copy of the preset with the given ID, or matching name
// case-insensitively, and whether it was found.
func (r *Registry) Lookup(key string) (Weapon, bool) {
	if w, ok := r.byID[key]; ok {
		return *w, true
	}
	want := normalize(key)
	for _, w := range r.byID {
		if normalize(w.Name) == want || normalize(w.ID) == want {
			return *w, true
		}
	}
	return Weapon{}, false
}

// All returns every preset sorted by ID.
func (r *Registry) All() []Weapon {
	out := make([]Weapon, 0, len(r.byID))
	for _, w := range r.byID {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
