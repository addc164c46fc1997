package combat

import (
	"fmt"
	"strings"
)

// DamageRoll is the damage dealt by a single hit.
type DamageRoll struct {
	// Dice holds the d10 results after lowest-die replacement.
	Dice []int `json:"dice"`
	// Bonus is the weapon's flat damage bonus.
	Bonus int `json:"bonus"`
	// Special is the bonus granted by weapon special rules.
	Special int `json:"special,omitempty"`
	// Fury holds the extra dice added by the righteous fury chain, in order.
	Fury []int `json:"fury,omitempty"`
}

// NewDamageRoll copies dice into a new roll with the given flat bonus.
func NewDamageRoll(dice []int, bonus int) *DamageRoll {
	d := make([]int, len(dice))
	copy(d, dice)
	return &DamageRoll{Dice: d, Bonus: bonus}
}

// ReplaceLowest raises the lowest die to v if it is below v. Only the first
// lowest die is replaced.
//
// Postcondition: no die value decreases.
func (d *DamageRoll) ReplaceLowest(v int) {
	if len(d.Dice) == 0 {
		return
	}
	low := 0
	for i, x := range d.Dice {
		if x < d.Dice[low] {
			low = i
		}
	}
	if d.Dice[low] < v {
		d.Dice[low] = v
	}
}

// HasMax reports whether any die shows the maximum face.
func (d *DamageRoll) HasMax() bool {
	for _, x := range d.Dice {
		if x == 10 {
			return true
		}
	}
	return false
}

// AddFury records one fury die.
func (d *DamageRoll) AddFury(v int) { d.Fury = append(d.Fury, v) }

// AddSpecial adds n to the special rule bonus.
func (d *DamageRoll) AddSpecial(n int) { d.Special += n }

// DiceTotal returns the sum of the dice.
func (d *DamageRoll) DiceTotal() int {
	sum := 0
	for _, x := range d.Dice {
		sum += x
	}
	return sum
}

// FuryBonus returns the sum of the fury dice.
func (d *DamageRoll) FuryBonus() int {
	sum := 0
	for _, x := range d.Fury {
		sum += x
	}
	return sum
}

// Total returns dice + bonus + special + fury.
func (d *DamageRoll) Total() int {
	return d.DiceTotal() + d.Bonus + d.Special + d.FuryBonus()
}

// String renders the roll, e.g. "(1d10 → [7]) + 3 + (fury → [10 4])".
func (d *DamageRoll) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "(%dd10 → %v) + %d", len(d.Dice), d.Dice, d.Bonus)
	if d.Special != 0 {
		fmt.Fprintf(&b, " + (special %d)", d.Special)
	}
	if len(d.Fury) > 0 {
		fmt.Fprintf(&b, " + (fury → %v)", d.Fury)
	}
	return b.String()
}
