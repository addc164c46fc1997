package combat

import (
	"fmt"

	"github.com/cory-johannsen/omnissiah/internal/game/weapon"
)

// Modifier is one effect of a combat action, applied to the attack context
// either before the to-hit roll or after a successful hit.
//
// The set of modifiers is closed: CharacteristicBonus and ExtraHitsBonus.
type Modifier interface {
	// Apply mutates ctx according to the modifier.
	Apply(ctx *AttackContext)
	// String describes the modifier for display.
	String() string
}

// CharacteristicBonus adds Bonus to the test when the attack is tested
// against Characteristic.
type CharacteristicBonus struct {
	Characteristic weapon.Characteristic
	Bonus          int
}

// Apply adds the bonus iff ctx tests the same characteristic.
func (m CharacteristicBonus) Apply(ctx *AttackContext) {
	if ctx.Characteristic == m.Characteristic {
		ctx.AddTestBonus(m.String(), m.Bonus)
	}
}

func (m CharacteristicBonus) String() string {
	return fmt.Sprintf("%s %+d", m.Characteristic, m.Bonus)
}

// ExtraHitsBonus grants one extra hit per DoSDivisor degrees of success.
// A divisor below 1 is treated as 1.
type ExtraHitsBonus struct {
	DoSDivisor int
}

// Apply adds DoS / DoSDivisor extra hits to ctx.
func (m ExtraHitsBonus) Apply(ctx *AttackContext) {
	ctx.AddHits(ctx.DoS / m.divisor())
}

func (m ExtraHitsBonus) divisor() int {
	return max(1, m.DoSDivisor)
}

func (m ExtraHitsBonus) String() string {
	return fmt.Sprintf("1 extra hit per %d DoS", m.divisor())
}
