package combat

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/omnissiah/internal/game/dice"
)

//go:embed hit_locations.yaml
var hitLocationsYAML []byte

// Location categories used by the transition table.
const (
	LocationHead = "Head"
	LocationArm  = "Arm"
	LocationBody = "Body"
	LocationLeg  = "Leg"
)

type hitLocationBand struct {
	Max      int    `yaml:"max"`
	Location string `yaml:"location"`
}

type hitLocationFile struct {
	Base        []hitLocationBand   `yaml:"base"`
	Transitions map[string][]string `yaml:"transitions"`
}

// HitLocationTable maps attack rolls to body locations. It is immutable once
// built and safe for concurrent use.
type HitLocationTable struct {
	base        []hitLocationBand
	transitions map[string][]string
}

// NewHitLocationTable parses a YAML hit location table.
//
// Postcondition: the base bands are sorted, cover [1, 100] and every
// category has a non-empty transition sequence.
func NewHitLocationTable(data []byte) (*HitLocationTable, error) {
	var f hitLocationFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("combat: parsing hit location table: %w", err)
	}
	if len(f.Base) == 0 {
		return nil, fmt.Errorf("combat: hit location table has no base bands")
	}
	sort.Slice(f.Base, func(i, j int) bool { return f.Base[i].Max < f.Base[j].Max })
	if f.Base[len(f.Base)-1].Max < 100 {
		return nil, fmt.Errorf("combat: hit location table does not cover 100")
	}
	for _, cat := range []string{LocationHead, LocationArm, LocationBody, LocationLeg} {
		if len(f.Transitions[cat]) == 0 {
			return nil, fmt.Errorf("combat: hit location table has no transitions for %s", cat)
		}
	}
	return &HitLocationTable{base: f.Base, transitions: f.Transitions}, nil
}

var (
	defaultTableOnce sync.Once
	defaultTable     *HitLocationTable
)

// DefaultHitLocationTable returns the built-in table.
func DefaultHitLocationTable() *HitLocationTable {
	defaultTableOnce.Do(func() {
		t, err := NewHitLocationTable(hitLocationsYAML)
		if err != nil {
			panic(err)
		}
		defaultTable = t
	})
	return defaultTable
}

// Base returns the location for a percentile value without digit reversal.
func (t *HitLocationTable) Base(v int) string {
	for _, b := range t.base {
		if v <= b.Max {
			return b.Location
		}
	}
	return t.base[len(t.base)-1].Location
}

// Category collapses a location to Head, Arm, Body, or Leg.
func Category(location string) string {
	switch {
	case strings.Contains(location, LocationArm):
		return LocationArm
	case strings.Contains(location, LocationLeg):
		return LocationLeg
	default:
		return location
	}
}

// Locate returns the location of each of hits hits for an attack roll.
// The first location comes from the base table read with the roll's digits
// reversed. Further hits follow the transition sequence for the first
// location's category, repeating its last entry once exhausted.
//
// Precondition: initialRoll is in [1, 100].
// Postcondition: len(result) == max(hits, 0).
func (t *HitLocationTable) Locate(initialRoll, hits int) []string {
	if hits <= 0 {
		return []string{}
	}
	first := t.Base(dice.ReverseDigits(initialRoll))
	locs := make([]string, 0, hits)
	locs = append(locs, first)
	if hits == 1 {
		return locs
	}
	seq := t.transitions[Category(first)]
	if len(seq) == 0 {
		seq = []string{first}
	}
	for i := 0; i < hits-1; i++ {
		locs = append(locs, seq[min(i, len(seq)-1)])
	}
	return locs
}
