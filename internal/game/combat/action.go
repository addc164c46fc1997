package combat

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cory-johannsen/omnissiah/internal/game/weapon"
)

// ErrNotFound is returned when an action name is not in the catalog.
var ErrNotFound = errors.New("action not found")

// ActionCost is the share of a turn an action consumes.
// The zero value is intentionally invalid.
type ActionCost int

const (
	CostUnknown ActionCost = iota
	CostHalf
	CostFull
)

// String returns "half", "full", or "unknown".
func (c ActionCost) String() string {
	switch c {
	case CostHalf:
		return "half"
	case CostFull:
		return "full"
	default:
		return "unknown"
	}
}

// Names of the built-in combat actions.
const (
	AimFull        = "Aim Full"
	AimHalf        = "Aim Half"
	AllOutAttack   = "All Out Attack"
	CalledShot     = "Called Shot"
	Charge         = "Charge"
	FullAutoBurst  = "Full Auto Burst"
	SemiAutoBurst  = "Semi Auto Burst"
	StandardAttack = "Standard Attack"
)

// Action is a named rule modifier chosen for an attack.
// Before effects run prior to the to-hit roll; After effects run only on a
// hit, once degrees of success are known.
type Action struct {
	Name    string
	Before  []Modifier
	After   []Modifier
	Special string
	Cost    ActionCost
}

// Catalog is an immutable set of actions keyed by normalised name.
// It is safe for concurrent use.
type Catalog struct {
	byKey map[string]Action
	names []string
}

func actionKey(name string) string {
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// NewCatalog builds a Catalog from actions.
//
// Precondition: every action has a non-empty Name and a valid Cost.
// Postcondition: returns an error if two actions share a normalised name.
func NewCatalog(actions ...Action) (*Catalog, error) {
	c := &Catalog{byKey: make(map[string]Action, len(actions))}
	for _, a := range actions {
		key := actionKey(a.Name)
		if key == "" {
			return nil, errors.New("combat: NewCatalog: action name must not be empty")
		}
		if a.Cost != CostHalf && a.Cost != CostFull {
			return nil, fmt.Errorf("combat: NewCatalog: action %q has invalid cost %d", a.Name, a.Cost)
		}
		if _, exists := c.byKey[key]; exists {
			return nil, fmt.Errorf("combat: NewCatalog: action %q already registered", a.Name)
		}
		c.byKey[key] = a
		c.names = append(c.names, a.Name)
	}
	sort.Strings(c.names)
	return c, nil
}

// DefaultCatalog returns the eight standard attack actions.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		Action{
			Name: AimFull,
			Before: []Modifier{
				CharacteristicBonus{weapon.WeaponSkill, 20},
				CharacteristicBonus{weapon.BallisticSkill, 20},
			},
			Cost: CostFull,
		},
		Action{
			Name: AimHalf,
			Before: []Modifier{
				CharacteristicBonus{weapon.WeaponSkill, 10},
				CharacteristicBonus{weapon.BallisticSkill, 10},
			},
			Cost: CostHalf,
		},
		Action{
			Name:    AllOutAttack,
			Before:  []Modifier{CharacteristicBonus{weapon.WeaponSkill, 20}},
			Special: "Cannot dodge or parry",
			Cost:    CostFull,
		},
		Action{
			Name: CalledShot,
			Before: []Modifier{
				CharacteristicBonus{weapon.WeaponSkill, -20},
				CharacteristicBonus{weapon.BallisticSkill, -20},
			},
			Special: "Attack a specific location",
			Cost:    CostFull,
		},
		Action{
			Name:    Charge,
			Before:  []Modifier{CharacteristicBonus{weapon.WeaponSkill, 10}},
			Special: "Must move 4 metres",
			Cost:    CostFull,
		},
		Action{
			Name:   FullAutoBurst,
			Before: []Modifier{CharacteristicBonus{weapon.BallisticSkill, 20}},
			After:  []Modifier{ExtraHitsBonus{DoSDivisor: 1}},
			Cost:   CostFull,
		},
		Action{
			Name:   SemiAutoBurst,
			Before: []Modifier{CharacteristicBonus{weapon.BallisticSkill, 10}},
			After:  []Modifier{ExtraHitsBonus{DoSDivisor: 1}},
			Cost:   CostFull,
		},
		Action{
			Name: StandardAttack,
			Cost: CostHalf,
		},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the action registered under name. Matching ignores case and
// treats '-' and '_' as spaces.
//
// Postcondition: returns an error wrapping ErrNotFound if name is unknown.
func (c *Catalog) Lookup(name string) (Action, error) {
	a, ok := c.byKey[actionKey(name)]
	if !ok {
		return Action{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return a, nil
}

// Names returns the registered action names in sorted order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// All returns every action sorted by name.
func (c *Catalog) All() []Action {
	out := make([]Action, 0, len(c.names))
	for _, n := range c.names {
		out = append(out, c.byKey[actionKey(n)])
	}
	return out
}
