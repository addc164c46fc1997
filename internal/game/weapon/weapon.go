// Package weapon defines the static weapon data used by the combat resolver:
// classification enums, weapon profiles, player-owned instances, and the
// YAML preset loader.
package weapon

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid weapon")

// RateOfFire describes the firing modes a weapon supports. Semi and Auto are
// the maximum hits a burst in that mode can score; zero means unsupported.
type RateOfFire struct {
	Single bool `yaml:"single" json:"single"`
	Semi   int  `yaml:"semi" json:"semi"`
	Auto   int  `yaml:"auto" json:"auto"`
}

// String renders the profile in rulebook notation, e.g. "S/3/-".
func (r RateOfFire) String() string {
	single := "-"
	if r.Single {
		single = "S"
	}
	mode := func(n int) string {
		if n == 0 {
			return "-"
		}
		return fmt.Sprint(n)
	}
	return single + "/" + mode(r.Semi) + "/" + mode(r.Auto)
}

// Weapon is a static weapon profile.
type Weapon struct {
	ID           string       `yaml:"id" json:"id,omitempty"`
	Name         string       `yaml:"name" json:"name"`
	Availability Availability `yaml:"availability" json:"availability"`
	Class        Class        `yaml:"class" json:"class"`
	Type         Type         `yaml:"type" json:"type"`
	Range        int          `yaml:"range" json:"range"` // metres; 0 for melee
	RoF          RateOfFire   `yaml:"rof" json:"rof"`
	DamageDice   int          `yaml:"damage_dice" json:"damage_dice"` // number of d10s
	DamageBonus  int          `yaml:"damage_bonus" json:"damage_bonus"`
	DamageType   DamageType   `yaml:"damage_type" json:"damage_type"`
	Pen          int          `yaml:"pen" json:"pen"`
	Clip         int          `yaml:"clip" json:"clip"`
	ReloadTime   float64      `yaml:"reload_time" json:"reload_time"` // in actions
	Mass         float64      `yaml:"mass" json:"mass"`               // kg
	Specials     []string     `yaml:"specials" json:"specials,omitempty"`
}

// IsMelee reports whether the weapon is wielded in close combat.
func (w *Weapon) IsMelee() bool { return w.Class == ClassMelee }

// UsesStrengthBonus reports whether the wielder's bonus is added to damage.
func (w *Weapon) UsesStrengthBonus() bool {
	return w.Class == ClassMelee || w.Class == ClassThrown
}

// TestCharacteristic returns the characteristic an attack with w is tested against.
func (w *Weapon) TestCharacteristic() Characteristic {
	if w.IsMelee() {
		return WeaponSkill
	}
	return BallisticSkill
}

// DamageString renders the damage profile, e.g. "1d10+3 E".
func (w *Weapon) DamageString() string {
	s := fmt.Sprintf("%dd10", w.DamageDice)
	if w.DamageBonus != 0 {
		s += fmt.Sprintf("%+d", w.DamageBonus)
	}
	if w.DamageType != "" {
		s += " " + string(w.DamageType)[:1]
	}
	return s
}

// String renders a one-line profile suitable for chat output.
func (w *Weapon) String() string {
	return fmt.Sprintf("%s (%s %s, %dm, %s, %s, Pen %d, Clip %d)",
		w.Name, w.Class, w.Type, w.Range, w.RoF, w.DamageString(), w.Pen, w.Clip)
}

// Validate checks that the Weapon satisfies its invariants.
//
// Postcondition: returns nil iff all fields are valid; otherwise the error wraps ErrInvalid.
func (w *Weapon) Validate() error {
	var errs []string
	if strings.TrimSpace(w.Name) == "" {
		errs = append(errs, "name must not be empty")
	}
	if !contains(Classes, w.Class) {
		errs = append(errs, fmt.Sprintf("unknown class %q", w.Class))
	}
	if w.Type != "" && !contains(Types, w.Type) {
		errs = append(errs, fmt.Sprintf("unknown type %q", w.Type))
	}
	if w.DamageType != "" && !contains(DamageTypes, w.DamageType) {
		errs = append(errs, fmt.Sprintf("unknown damage type %q", w.DamageType))
	}
	if w.Availability != "" && !contains(Availabilities, w.Availability) {
		errs = append(errs, fmt.Sprintf("unknown availability %q", w.Availability))
	}
	if !w.RoF.Single && w.RoF.Semi == 0 && w.RoF.Auto == 0 {
		errs = append(errs, "at least one rate of fire mode must be set")
	}
	if w.RoF.Semi < 0 || w.RoF.Auto < 0 {
		errs = append(errs, "rate of fire must not be negative")
	}
	if !w.IsMelee() && w.Range <= 0 {
		errs = append(errs, "range must be > 0 for non-melee weapons")
	}
	if w.Range < 0 {
		errs = append(errs, "range must not be negative")
	}
	if w.DamageDice < 1 {
		errs = append(errs, "damage dice must be >= 1")
	}
	if w.DamageBonus < 0 {
		errs = append(errs, "damage bonus must be >= 0")
	}
	if w.Pen < 0 {
		errs = append(errs, "penetration must be >= 0")
	}
	if !w.IsMelee() && w.Clip < 1 {
		errs = append(errs, "clip must be >= 1 for ranged weapons")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %q: %s", ErrInvalid, w.Name, strings.Join(errs, "; "))
	}
	return nil
}

// Instance is a Weapon bound to a craftsmanship tier; it is what a player owns.
type Instance struct {
	Weapon        `yaml:",inline"`
	Craftsmanship Craftsmanship `yaml:"craftsmanship" json:"craftsmanship"`
}

// NewInstance binds w to craftsmanship c. An empty c means Common.
func NewInstance(w Weapon, c Craftsmanship) Instance {
	if c == "" {
		c = CraftsmanshipCommon
	}
	return Instance{Weapon: w, Craftsmanship: c}
}

// Validate checks the weapon profile and the craftsmanship tier.
func (i *Instance) Validate() error {
	if err := i.Weapon.Validate(); err != nil {
		return err
	}
	if i.Craftsmanship != "" && !contains(Craftsmanships, i.Craftsmanship) {
		return fmt.Errorf("%w %q: unknown craftsmanship %q", ErrInvalid, i.Name, i.Craftsmanship)
	}
	return nil
}
