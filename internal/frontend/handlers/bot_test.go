package handlers_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/omnissiah/internal/armoury"
	"github.com/cory-johannsen/omnissiah/internal/config"
	"github.com/cory-johannsen/omnissiah/internal/frontend/handlers"
	"github.com/cory-johannsen/omnissiah/internal/frontend/telnet"
	"github.com/cory-johannsen/omnissiah/internal/game/combat"
	"github.com/cory-johannsen/omnissiah/internal/game/command"
	"github.com/cory-johannsen/omnissiah/internal/game/dice"
	"github.com/cory-johannsen/omnissiah/internal/game/weapon"
	"github.com/cory-johannsen/omnissiah/internal/gameserver"
	"github.com/cory-johannsen/omnissiah/internal/render"
	"github.com/cory-johannsen/omnissiah/internal/testutil"
)

const timeout = 2 * time.Second

// fixedSrc always returns min(v, n-1).
type fixedSrc struct{ v int }

func (f fixedSrc) Intn(n int) int {
	if f.v >= n {
		return n - 1
	}
	return f.v
}

func newDispatcher(t *testing.T) *command.Dispatcher {
	t.Helper()
	logger := zaptest.NewLogger(t)
	roller := dice.NewLoggedRoller(fixedSrc{v: 4}, logger)
	presets, err := weapon.NewRegistry([]*weapon.Weapon{{
		ID:          "laspistol",
		Name:        "Laspistol",
		Class:       weapon.ClassPistol,
		Type:        weapon.TypeLas,
		Range:       30,
		RoF:         weapon.RateOfFire{Single: true},
		DamageDice:  1,
		DamageBonus: 2,
		DamageType:  weapon.DamageEnergy,
		Clip:        30,
	}})
	require.NoError(t, err)
	svc := gameserver.NewCombatService(
		combat.NewResolver(combat.DefaultCatalog(), roller, logger),
		armoury.NewService(armoury.NewMemoryStore(), logger),
		presets,
		roller,
		nil,
		logger,
	)
	return command.NewDispatcher(command.DefaultRegistry(), svc, render.ANSI, logger)
}

func serve(t *testing.T, d handlers.Dispatcher) *testutil.TelnetClient {
	t.Helper()
	logger := zaptest.NewLogger(t)
	acc := telnet.NewAcceptor(config.TelnetConfig{ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second},
		handlers.NewBotHandler(d, logger), logger)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = acc.Serve(ln) }()
	t.Cleanup(acc.Stop)
	return testutil.NewTelnetClient(t, ln.Addr().String())
}

func TestBotSession_AttackAndQuit(t *testing.T) {
	c := serve(t, newDispatcher(t))

	banner := c.ReadUntil("Name: ", timeout)
	assert.Contains(t, banner, "OMNISSIAH")
	c.Send("ann")
	c.ReadUntil("Ave, ann.", timeout)
	c.ReadUntil("ann> ", timeout)

	c.Send("addweapon laspistol good")
	assert.Contains(t, c.ReadUntil("ann> ", timeout), "Added Laspistol [Good]")

	c.Send("attack laspistol 40 range=20")
	out := c.ReadUntil("ann> ", timeout)
	assert.Contains(t, out, "ann attacks with Laspistol")
	assert.Contains(t, out, "HIT with 3 DoS")
	assert.Contains(t, out, "Total damage: 7\r\n")

	c.Send("quit")
	c.ReadUntil("watches over you", timeout)
}

func TestBotSession_RejectsBadNames(t *testing.T) {
	c := serve(t, newDispatcher(t))

	c.ReadUntil("Name: ", timeout)
	c.Send("x")
	c.ReadUntil("Names are", timeout)
	c.Send("bad name!")
	c.ReadUntil("Names are", timeout)
	c.Send("")
	c.ReadUntil("Too many attempts.", timeout)
}

func TestBotSession_QuitAtNamePrompt(t *testing.T) {
	c := serve(t, newDispatcher(t))
	c.ReadUntil("Name: ", timeout)
	c.Send("quit")
	c.ReadUntil("Goodbye!", timeout)
}

type failingDispatcher struct{}

func (failingDispatcher) Handle(context.Context, string, string) (command.Reply, error) {
	return command.Reply{}, errors.New("storage down")
}

func TestBotSession_InternalErrorKeepsSession(t *testing.T) {
	c := serve(t, failingDispatcher{})
	c.Login("ann", timeout)

	c.Send("weapons")
	c.ReadUntil("An internal error occurred.", timeout)
	c.ReadUntil("ann> ", timeout)
}

func TestValidName(t *testing.T) {
	assert.True(t, handlers.ValidName("Inquisitor_Ann-2"))
	assert.False(t, handlers.ValidName("a"))
	assert.False(t, handlers.ValidName("two words"))
}

func TestPropertyValidNameAcceptsSafeNames(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringMatching(`[A-Za-z0-9_-]{2,32}`).Draw(t, "name")
		if !handlers.ValidName(name) {
			t.Fatalf("%q rejected", name)
		}
	})
}
