package combat

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/omnissiah/internal/game/weapon"
)

// MaxTestBonus caps the sum of all test bonuses. There is no lower cap.
const MaxTestBonus = 60

// TestBonus is one contribution to the to-hit test.
type TestBonus struct {
	Source string `json:"source"`
	Value  int    `json:"value"`
}

// AttackContext accumulates the state of a single attack resolution.
// It is owned by one Resolve call and must not be shared between attacks.
type AttackContext struct {
	Weapon         weapon.Instance
	Characteristic weapon.Characteristic
	TestBase       int
	TargetRange    int
	Actions        []Action
	Bonuses        []TestBonus
	RangeBand      RangeBand

	HitsBase  int
	HitsExtra int

	// AttackRoll is zero until the to-hit roll is made.
	AttackRoll int
	DoS        int

	DamageRolls []*DamageRoll
	DamageBonus int

	table *HitLocationTable
}

// NewAttackContext creates a context for an attack with w tested against
// testBase.
func NewAttackContext(w weapon.Instance, testBase, targetRange int, actions []Action, table *HitLocationTable) *AttackContext {
	if table == nil {
		table = DefaultHitLocationTable()
	}
	return &AttackContext{
		Weapon:         w,
		Characteristic: w.TestCharacteristic(),
		TestBase:       testBase,
		TargetRange:    targetRange,
		Actions:        actions,
		table:          table,
	}
}

// AddTestBonus records a contribution to the test.
func (c *AttackContext) AddTestBonus(source string, v int) {
	c.Bonuses = append(c.Bonuses, TestBonus{Source: source, Value: v})
}

// AddHits adds n extra hits.
func (c *AttackContext) AddHits(n int) { c.HitsExtra += n }

// AddDamageRoll records the damage for one hit.
func (c *AttackContext) AddDamageRoll(d *DamageRoll) {
	c.DamageRolls = append(c.DamageRolls, d)
}

// TestBonus returns the sum of all contributions, capped at MaxTestBonus.
func (c *AttackContext) TestBonus() int {
	sum := 0
	for _, b := range c.Bonuses {
		sum += b.Value
	}
	return min(MaxTestBonus, sum)
}

// Test returns the effective test value.
func (c *AttackContext) Test() int {
	return c.TestBase + c.TestBonus()
}

// Rolled reports whether the to-hit roll has been made.
func (c *AttackContext) Rolled() bool { return c.AttackRoll > 0 }

// Success reports whether the attack roll hit.
func (c *AttackContext) Success() bool {
	return c.Rolled() && c.AttackRoll <= c.Test()
}

// HasAction reports whether the named action was selected.
func (c *AttackContext) HasAction(name string) bool {
	key := actionKey(name)
	for _, a := range c.Actions {
		if actionKey(a.Name) == key {
			return true
		}
	}
	return false
}

// HitCap returns the maximum hits allowed by the firing mode.
func (c *AttackContext) HitCap() int {
	switch {
	case c.HasAction(SemiAutoBurst):
		return c.Weapon.RoF.Semi
	case c.HasAction(FullAutoBurst):
		return c.Weapon.RoF.Auto
	case c.Weapon.IsMelee():
		return 1
	case c.Weapon.RoF.Single:
		return 1
	default:
		return 0
	}
}

// Hits returns the number of hits scored, bounded by HitCap.
func (c *AttackContext) Hits() int {
	return max(0, min(c.HitsBase+c.HitsExtra, c.HitCap()))
}

// TotalDamage returns the damage of every hit plus the context damage bonus.
func (c *AttackContext) TotalDamage() int {
	sum := c.DamageBonus
	for _, d := range c.DamageRolls {
		sum += d.Total()
	}
	return sum
}

// Locations returns the hit location of each hit. It is empty until the
// attack roll has been made.
func (c *AttackContext) Locations() []string {
	if !c.Rolled() {
		return []string{}
	}
	return c.table.Locate(c.AttackRoll, c.Hits())
}

// Specials returns the special rule text of every selected action that has one.
func (c *AttackContext) Specials() []string {
	var out []string
	for _, a := range c.Actions {
		if a.Special != "" {
			out = append(out, a.Name+": "+a.Special)
		}
	}
	return out
}

// TestString renders the test, e.g. "35 <= (40+10=50)".
func (c *AttackContext) TestString() string {
	var b strings.Builder
	fmt.Fprint(&b, c.TestBase)
	for _, bonus := range c.Bonuses {
		if bonus.Value >= 0 {
			fmt.Fprintf(&b, "+%d", bonus.Value)
		} else {
			fmt.Fprintf(&b, "-%d", -bonus.Value)
		}
	}
	return fmt.Sprintf("%d <= (%s=%d)", c.AttackRoll, b.String(), c.Test())
}

// DamageString renders every damage roll on its own line followed by the
// context damage bonus, if any.
func (c *AttackContext) DamageString() string {
	lines := make([]string, 0, len(c.DamageRolls))
	for _, d := range c.DamageRolls {
		lines = append(lines, d.String())
	}
	s := strings.Join(lines, "\n")
	if c.DamageBonus != 0 {
		s += fmt.Sprintf(" + %d", c.DamageBonus)
	}
	return s
}

// AttackResult is the outcome of an attack, suitable for rendering and
// serialisation.
type AttackResult struct {
	Weapon           string       `json:"weapon"`
	Characteristic   string       `json:"characteristic"`
	Actions          []string     `json:"actions"`
	Specials         []string     `json:"specials,omitempty"`
	RangeBand        string       `json:"range_band"`
	Success          bool         `json:"success"`
	Test             int          `json:"test"`
	TestBreakdown    string       `json:"test_breakdown"`
	Bonuses          []TestBonus  `json:"bonuses,omitempty"`
	AttackRoll       int          `json:"attack_roll"`
	DegreesOfSuccess int          `json:"degrees_of_success"`
	Hits             int          `json:"hits"`
	Locations        []string     `json:"locations"`
	Damage           []DamageRoll `json:"damage"`
	DamageBonus      int          `json:"damage_bonus"`
	TotalDamage      int          `json:"total_damage"`
}

// Result projects the context into an AttackResult. A missed attack reports
// zero hits and no locations.
func (c *AttackContext) Result() AttackResult {
	r := AttackResult{
		Weapon:           c.Weapon.Name,
		Characteristic:   string(c.Characteristic),
		Specials:         c.Specials(),
		RangeBand:        c.RangeBand.String(),
		Success:          c.Success(),
		Test:             c.Test(),
		TestBreakdown:    c.TestString(),
		Bonuses:          append([]TestBonus(nil), c.Bonuses...),
		AttackRoll:       c.AttackRoll,
		DegreesOfSuccess: c.DoS,
		Locations:        []string{},
		Damage:           make([]DamageRoll, 0, len(c.DamageRolls)),
		DamageBonus:      c.DamageBonus,
	}
	for _, a := range c.Actions {
		r.Actions = append(r.Actions, a.Name)
	}
	if r.Success {
		r.Hits = c.Hits()
		r.Locations = c.Locations()
		for _, d := range c.DamageRolls {
			r.Damage = append(r.Damage, *d)
		}
		r.TotalDamage = c.TotalDamage()
	}
	return r
}
