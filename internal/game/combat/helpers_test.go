package combat_test

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/omnissiah/internal/game/combat"
	"github.com/cory-johannsen/omnissiah/internal/game/dice"
	"github.com/cory-johannsen/omnissiah/internal/game/weapon"
)

// fixedSrc always returns min(v, n-1).
type fixedSrc struct{ v int }

func (f fixedSrc) Intn(n int) int {
	if f.v >= n {
		return n - 1
	}
	return f.v
}

// seqSrc returns vals in order, cycling, each clamped to n-1. It counts draws.
type seqSrc struct {
	vals  []int
	calls int
}

func (s *seqSrc) Intn(n int) int {
	v := 0
	if len(s.vals) > 0 {
		v = s.vals[s.calls%len(s.vals)]
	}
	s.calls++
	if v >= n {
		return n - 1
	}
	return v
}

// pistol is the reference weapon: range 20, single shot, 1d10+3.
func pistol() weapon.Weapon {
	return weapon.Weapon{
		Name:        "Reference Pistol",
		Class:       weapon.ClassPistol,
		Type:        weapon.TypeLas,
		Range:       20,
		RoF:         weapon.RateOfFire{Single: true},
		DamageDice:  1,
		DamageBonus: 3,
		DamageType:  weapon.DamageEnergy,
		Clip:        10,
		ReloadTime:  1,
		Mass:        2,
	}
}

func autogun() weapon.Weapon {
	w := pistol()
	w.Name = "Autogun"
	w.Class = weapon.ClassBasic
	w.Range = 90
	w.RoF = weapon.RateOfFire{Single: true, Semi: 3, Auto: 10}
	return w
}

func chainsword() weapon.Weapon {
	return weapon.Weapon{
		Name:        "Chainsword",
		Class:       weapon.ClassMelee,
		Type:        weapon.TypeChain,
		RoF:         weapon.RateOfFire{Single: true},
		DamageDice:  1,
		DamageBonus: 2,
		DamageType:  weapon.DamageRending,
		Pen:         2,
	}
}

func newResolver(t *testing.T, src dice.Source, opts ...combat.Option) *combat.Resolver {
	t.Helper()
	return newResolverWith(t, combat.DefaultCatalog(), src, opts...)
}

func newResolverWith(t *testing.T, catalog *combat.Catalog, src dice.Source, opts ...combat.Option) *combat.Resolver {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return combat.NewResolver(catalog, dice.NewLoggedRoller(src, logger), logger, opts...)
}

func request(w weapon.Weapon, value, targetRange int, actions ...string) combat.Request {
	return combat.Request{
		Weapon:              weapon.NewInstance(w, ""),
		CharacteristicValue: value,
		Actions:             actions,
		TargetRange:         targetRange,
	}
}
