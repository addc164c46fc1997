// Command simulate resolves many attacks with one weapon profile and prints
// the hit rate and damage distribution.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/omnissiah/internal/config"
	"github.com/cory-johannsen/omnissiah/internal/game/combat"
	"github.com/cory-johannsen/omnissiah/internal/game/dice"
	"github.com/cory-johannsen/omnissiah/internal/game/weapon"
	"github.com/cory-johannsen/omnissiah/internal/observability"
	"github.com/cory-johannsen/omnissiah/internal/scripting"
	"github.com/cory-johannsen/omnissiah/internal/simulate"
)

func main() {
	bs := flag.Int("bs", 40, "ballistic (or weapon) skill tested against")
	actions := flag.String("actions", "", "comma separated attack actions")
	targetRange := flag.Int("target-range", 10, "distance to the target in metres")

	preset := flag.String("preset", "", "preset weapon id; overrides the profile flags")
	weaponsDir := flag.String("weapons", "content/weapons", "preset weapon directory")
	name := flag.String("name", "RT Weapon", "weapon name")
	availability := flag.String("availability", string(weapon.AvailabilityScarce), "weapon availability")
	class := flag.String("class", string(weapon.ClassPistol), "weapon class")
	typ := flag.String("type", string(weapon.TypeLas), "weapon type")
	rng := flag.Int("range", 20, "weapon range in metres")
	rofSingle := flag.Bool("rof-single", true, "weapon can fire single shots")
	rofSemi := flag.Int("rof-semi", 0, "semi-auto hit cap (0 = unsupported)")
	rofAuto := flag.Int("rof-auto", 0, "full-auto hit cap (0 = unsupported)")
	damageD10 := flag.Int("damage-d10", 1, "number of damage d10s")
	damageBonus := flag.Int("damage-bonus", 3, "flat damage bonus")
	damageType := flag.String("damage-type", string(weapon.DamageEnergy), "damage type")
	pen := flag.Int("pen", 0, "penetration")
	clip := flag.Int("clip", 10, "clip size")
	reloadTime := flag.Float64("reload-time", 1, "reload time in actions")
	mass := flag.Float64("mass", 2, "mass in kg")
	specials := flag.String("specials", "", "comma separated weapon specials, e.g. Tearing,Proven(3)")
	craftsmanship := flag.String("craftsmanship", string(weapon.CraftsmanshipCommon), "craftsmanship")

	scriptsDir := flag.String("scripts", "content/scripts/specials", "Lua special rules directory (empty disables specials)")
	trials := flag.Int("n", simulate.DefaultTrials, "number of trials")
	seed := flag.Int64("seed", 0, "dice seed; any explicit value, 0 included, makes the run deterministic")
	workers := flag.Int("workers", runtime.NumCPU(), "parallel workers")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	seeded := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seeded = true
		}
	})

	logger := observability.MustLogger(config.LoggingConfig{Level: *logLevel, Format: "console"}, "simulate")
	defer func() { _ = logger.Sync() }()

	var w weapon.Weapon
	if *preset != "" {
		ws, err := weapon.LoadWeapons(*weaponsDir)
		if err != nil {
			fail("loading presets: %v", err)
		}
		reg, err := weapon.NewRegistry(ws)
		if err != nil {
			fail("loading presets: %v", err)
		}
		var ok bool
		if w, ok = reg.Lookup(*preset); !ok {
			fail("unknown preset %q", *preset)
		}
	} else {
		var err error
		w, err = buildWeapon(profile{
			name: *name, availability: *availability, class: *class, typ: *typ,
			rng: *rng, rofSingle: *rofSingle, rofSemi: *rofSemi, rofAuto: *rofAuto,
			damageD10: *damageD10, damageBonus: *damageBonus, damageType: *damageType,
			pen: *pen, clip: *clip, reloadTime: *reloadTime, mass: *mass, specials: *specials,
		})
		if err != nil {
			fail("%v", err)
		}
	}
	craft, err := weapon.ParseCraftsmanship(*craftsmanship)
	if err != nil {
		fail("%v", err)
	}

	cfg := simulate.Config{
		Weapon:         weapon.NewInstance(w, craft),
		Characteristic: *bs,
		Actions:        splitList(*actions),
		TargetRange:    *targetRange,
		Trials:         *trials,
		Seed:           *seed,
		Seeded:         seeded,
		Workers:        *workers,
	}
	if *scriptsDir != "" && len(w.Specials) > 0 {
		src := dice.NewCryptoSource()
		if seeded {
			src = dice.NewSeededSource(*seed)
		}
		mgr := scripting.NewManager(dice.NewLoggedRoller(src, logger), logger, 0)
		defer mgr.Close()
		if err := mgr.LoadDir(*scriptsDir); err != nil {
			fail("loading special rules: %v", err)
		}
		cfg.Options = append(cfg.Options, combat.WithSpecials(scripting.NewSpecials(mgr)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := simulate.Run(ctx, cfg, logger)
	if err != nil {
		logger.Error("simulation failed", zap.Error(err))
		fail("%v", err)
	}
	fmt.Print(report.String())
	fmt.Printf("[%s]\n", report.Elapsed.Round(time.Millisecond))
}

type profile struct {
	name, availability, class, typ, damageType, specials string
	rng, rofSemi, rofAuto, damageD10, damageBonus        int
	pen, clip                                            int
	rofSingle                                            bool
	reloadTime, mass                                     float64
}

func buildWeapon(p profile) (weapon.Weapon, error) {
	avail, err := weapon.ParseAvailability(p.availability)
	if err != nil {
		return weapon.Weapon{}, err
	}
	class, err := weapon.ParseClass(p.class)
	if err != nil {
		return weapon.Weapon{}, err
	}
	typ, err := weapon.ParseType(p.typ)
	if err != nil {
		return weapon.Weapon{}, err
	}
	dt, err := weapon.ParseDamageType(p.damageType)
	if err != nil {
		return weapon.Weapon{}, err
	}
	return weapon.Weapon{
		Name:         p.name,
		Availability: avail,
		Class:        class,
		Type:         typ,
		Range:        p.rng,
		RoF:          weapon.RateOfFire{Single: p.rofSingle, Semi: p.rofSemi, Auto: p.rofAuto},
		DamageDice:   p.damageD10,
		DamageBonus:  p.damageBonus,
		DamageType:   dt,
		Pen:          p.pen,
		Clip:         p.clip,
		ReloadTime:   p.reloadTime,
		Mass:         p.mass,
		Specials:     splitList(p.specials),
	}, nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "simulate: "+format+"\n", args...)
	os.Exit(1)
}
