package gameserver_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/omnissiah/internal/armoury"
	"github.com/cory-johannsen/omnissiah/internal/game/combat"
	"github.com/cory-johannsen/omnissiah/internal/game/dice"
	"github.com/cory-johannsen/omnissiah/internal/game/weapon"
	"github.com/cory-johannsen/omnissiah/internal/gameserver"
)

// fixedSrc always returns min(v, n-1).
type fixedSrc struct{ v int }

func (f fixedSrc) Intn(n int) int {
	if f.v >= n {
		return n - 1
	}
	return f.v
}

type recordingSink struct {
	mu   sync.Mutex
	msgs []string
}

func (s *recordingSink) Publish(channel, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, channel+"|"+text)
}

func (s *recordingSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.msgs...)
}

func laspistol() *weapon.Weapon {
	return &weapon.Weapon{
		ID:          "laspistol",
		Name:        "Laspistol",
		Class:       weapon.ClassPistol,
		Type:        weapon.TypeLas,
		Range:       30,
		RoF:         weapon.RateOfFire{Single: true, Semi: 2},
		DamageDice:  1,
		DamageBonus: 2,
		DamageType:  weapon.DamageEnergy,
		Clip:        30,
	}
}

// newService builds a CombatService whose dice always roll v+1 on a d10 and
// v+1 on a d100 (clamped), so v=19 gives a d100 of 20 and a d10 of 10.
func newService(t *testing.T, v int) (*gameserver.CombatService, *recordingSink) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	roller := dice.NewLoggedRoller(fixedSrc{v: v}, logger)
	presets, err := weapon.NewRegistry([]*weapon.Weapon{laspistol()})
	require.NoError(t, err)
	resolver := combat.NewResolver(combat.DefaultCatalog(), roller, logger, combat.WithMaxFuryDepth(2))
	sink := &recordingSink{}
	svc := gameserver.NewCombatService(
		resolver,
		armoury.NewService(armoury.NewMemoryStore(), logger),
		presets,
		roller,
		sink,
		logger,
	)
	return svc, sink
}
