package combat_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/omnissiah/internal/game/combat"
	"github.com/cory-johannsen/omnissiah/internal/game/dice"
	"github.com/cory-johannsen/omnissiah/internal/game/weapon"
)

func TestResolve_CloseRangeHit(t *testing.T) {
	// d100 -> 35, damage d10 -> 6.
	src := &seqSrc{vals: []int{34, 5}}
	ctx, err := newResolver(t, src).Resolve(request(pistol(), 40, 10))
	require.NoError(t, err)

	assert.Equal(t, combat.RangeClose, ctx.RangeBand)
	assert.Equal(t, 50, ctx.Test())
	assert.Equal(t, 35, ctx.AttackRoll)
	assert.True(t, ctx.Success())
	assert.Equal(t, 1, ctx.DoS)
	assert.Equal(t, 1, ctx.Hits())
	require.Len(t, ctx.DamageRolls, 1)
	assert.Equal(t, []int{6}, ctx.DamageRolls[0].Dice)
	assert.Equal(t, 6+3, ctx.TotalDamage())
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, "35 <= (40+10=50)", ctx.TestString())
	assert.Len(t, ctx.Locations(), 1)
}

func TestResolve_CloseRangeHitDamageProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		die := rapid.IntRange(0, 8).Draw(rt, "die")
		src := &seqSrc{vals: []int{34, die}}
		ctx, err := newResolver(t, src).Resolve(request(pistol(), 40, 10))
		require.NoError(rt, err)
		assert.Equal(rt, die+1+3, ctx.TotalDamage())
	})
}

func TestResolve_FullAutoUnsupported_NoDraws(t *testing.T) {
	src := &seqSrc{vals: []int{0}}
	_, err := newResolver(t, src).Resolve(request(pistol(), 40, 10, combat.FullAutoBurst))
	require.Error(t, err)
	assert.ErrorIs(t, err, combat.ErrFullAutoUnsupported)
	assert.ErrorIs(t, err, combat.ErrInvalidRequest)
	assert.Zero(t, src.calls)
}

func TestResolve_SemiAutoUnsupported_NoDraws(t *testing.T) {
	src := &seqSrc{}
	_, err := newResolver(t, src).Resolve(request(pistol(), 40, 10, combat.SemiAutoBurst))
	assert.ErrorIs(t, err, combat.ErrSemiAutoUnsupported)
	assert.Zero(t, src.calls)
}

func TestResolve_TooManyActions(t *testing.T) {
	src := &seqSrc{}
	_, err := newResolver(t, src).Resolve(request(autogun(), 40, 10,
		combat.AimHalf, combat.SemiAutoBurst, combat.CalledShot))
	assert.ErrorIs(t, err, combat.ErrTooManyActions)
	assert.ErrorIs(t, err, combat.ErrInvalidRequest)
	assert.Zero(t, src.calls)
}

func TestResolve_TooManyActionsProperty(t *testing.T) {
	names := combat.DefaultCatalog().Names()
	rapid.Check(t, func(rt *rapid.T) {
		picked := rapid.SliceOfNDistinct(rapid.SampledFrom(names), 3, len(names), func(s string) string { return s }).Draw(rt, "actions")
		src := &seqSrc{}
		_, err := newResolver(t, src).Resolve(request(autogun(), 40, 10, picked...))
		assert.ErrorIs(rt, err, combat.ErrTooManyActions)
		assert.Zero(rt, src.calls)
	})
}

// The action limit is a raw count: two full actions are accepted.
func TestResolve_TwoFullActionsAccepted(t *testing.T) {
	src := fixedSrc{v: 99}
	_, err := newResolver(t, src).Resolve(request(autogun(), 40, 10, combat.AimFull, combat.CalledShot))
	assert.NoError(t, err)
}

func TestResolve_DuplicateActionsCountOnce(t *testing.T) {
	src := fixedSrc{v: 99}
	ctx, err := newResolver(t, src).Resolve(request(autogun(), 40, 10,
		combat.AimHalf, "aim half", combat.AimHalf))
	require.NoError(t, err)
	assert.Len(t, ctx.Actions, 1)
}

func TestResolve_UnknownAction(t *testing.T) {
	src := &seqSrc{}
	_, err := newResolver(t, src).Resolve(request(pistol(), 40, 10, "Lightning Attack"))
	assert.ErrorIs(t, err, combat.ErrUnknownAction)
	assert.ErrorIs(t, err, combat.ErrNotFound)
	assert.ErrorIs(t, err, combat.ErrInvalidRequest)
	assert.Zero(t, src.calls)
}

func TestResolve_OutOfRangeProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		wr := rapid.IntRange(1, 100).Draw(rt, "weaponRange")
		tr := rapid.IntRange(4*wr+1, 10*wr).Draw(rt, "targetRange")
		w := pistol()
		w.Range = wr
		src := &seqSrc{}
		_, err := newResolver(t, src).Resolve(request(w, 40, tr))
		assert.ErrorIs(rt, err, combat.ErrOutOfRange)
		assert.ErrorIs(rt, err, combat.ErrInvalidRequest)
		assert.Zero(rt, src.calls)
	})
}

func TestResolve_FourTimesRangeAllowed(t *testing.T) {
	_, err := newResolver(t, fixedSrc{v: 99}).Resolve(request(pistol(), 40, 80))
	assert.NoError(t, err)
}

func TestResolve_InvalidWeaponAndNegativeValues(t *testing.T) {
	src := &seqSrc{}
	r := newResolver(t, src)

	w := pistol()
	w.DamageDice = 0
	_, err := r.Resolve(request(w, 40, 10))
	assert.ErrorIs(t, err, combat.ErrInvalidWeapon)
	assert.True(t, errors.Is(err, weapon.ErrInvalid))

	_, err = r.Resolve(request(pistol(), 40, -1))
	assert.ErrorIs(t, err, combat.ErrNegativeValue)

	_, err = r.Resolve(request(pistol(), -5, 10))
	assert.ErrorIs(t, err, combat.ErrNegativeValue)
	assert.Zero(t, src.calls)
}

func TestResolve_Miss(t *testing.T) {
	// d100 -> 90 against 50.
	src := &seqSrc{vals: []int{89}}
	ctx, err := newResolver(t, src).Resolve(request(pistol(), 40, 10))
	require.NoError(t, err)
	assert.False(t, ctx.Success())
	assert.Equal(t, 4, ctx.DoS)
	assert.Empty(t, ctx.DamageRolls)
	assert.Equal(t, 1, src.calls)

	res := ctx.Result()
	assert.False(t, res.Success)
	assert.Zero(t, res.Hits)
	assert.Empty(t, res.Locations)
	assert.Zero(t, res.TotalDamage)
}

func TestResolve_SemiAutoBurst(t *testing.T) {
	// d100 -> 10 against 40+10(semi)+10(close)=60: 5 DoS, 1+5 hits capped at 3.
	src := &seqSrc{vals: []int{9, 4, 4, 4}}
	ctx, err := newResolver(t, src).Resolve(request(autogun(), 40, 10, combat.SemiAutoBurst))
	require.NoError(t, err)
	assert.Equal(t, 60, ctx.Test())
	assert.Equal(t, 5, ctx.DoS)
	assert.Equal(t, 3, ctx.Hits())
	require.Len(t, ctx.DamageRolls, 3)
	for _, d := range ctx.DamageRolls {
		assert.Equal(t, []int{5}, d.Dice)
	}
	assert.Equal(t, 3*(5+3), ctx.TotalDamage())
	// 10 reads as 01: Head, then the Head sequence.
	assert.Equal(t, []string{"Head", "Head", "Arm"}, ctx.Locations())
}

func TestResolve_SemiAutoBurstOneHitPerDoS(t *testing.T) {
	w := autogun()
	w.RoF.Semi = 10
	// d100 -> 10 against 40+10(semi), no band at 60m: 4 DoS, 1+4 hits under the cap.
	src := &seqSrc{vals: []int{9, 4, 4, 4, 4, 4}}
	ctx, err := newResolver(t, src).Resolve(request(w, 40, 60, combat.SemiAutoBurst))
	require.NoError(t, err)
	assert.Equal(t, 50, ctx.Test())
	assert.Equal(t, 4, ctx.DoS)
	assert.Equal(t, 4, ctx.HitsExtra)
	assert.Equal(t, 5, ctx.Hits())
	assert.Len(t, ctx.DamageRolls, 5)
	assert.Len(t, ctx.Locations(), 5)
}

func TestResolve_FullAutoBurstCappedByRoF(t *testing.T) {
	w := autogun()
	w.RoF.Auto = 4
	// d100 -> 1 against 40+20+10=70: 6 DoS, 7 hits capped at 4.
	src := &seqSrc{vals: []int{0, 5, 5, 5, 5}}
	ctx, err := newResolver(t, src).Resolve(request(w, 40, 10, combat.FullAutoBurst))
	require.NoError(t, err)
	assert.Equal(t, 6, ctx.DoS)
	assert.Equal(t, 6, ctx.HitsExtra)
	assert.Equal(t, 4, ctx.Hits())
	assert.Len(t, ctx.DamageRolls, 4)
	// Each die of 6 is raised to the 6 DoS only if lower; it is not.
	assert.Equal(t, []int{6}, ctx.DamageRolls[0].Dice)
}

func TestResolve_ReplaceLowestWithDoS(t *testing.T) {
	// d100 -> 1 against 50: 4 DoS; damage die 2 is raised to 4.
	src := &seqSrc{vals: []int{0, 1}}
	ctx, err := newResolver(t, src).Resolve(request(pistol(), 40, 10))
	require.NoError(t, err)
	assert.Equal(t, 4, ctx.DoS)
	assert.Equal(t, []int{4}, ctx.DamageRolls[0].Dice)
	assert.Equal(t, 4+3, ctx.TotalDamage())
}

func TestResolve_BonusClampedAt60(t *testing.T) {
	catalog, err := combat.NewCatalog(
		combat.Action{Name: "Steady", Before: []combat.Modifier{
			combat.CharacteristicBonus{Characteristic: weapon.BallisticSkill, Bonus: 50},
		}, Cost: combat.CostFull},
	)
	require.NoError(t, err)
	// +50 from the action and +30 point blank.
	ctx, err := newResolverWith(t, catalog, fixedSrc{v: 99}).Resolve(request(pistol(), 30, 1, "Steady"))
	require.NoError(t, err)
	sum := 0
	for _, b := range ctx.Bonuses {
		sum += b.Value
	}
	assert.Equal(t, 80, sum)
	assert.Equal(t, combat.MaxTestBonus, ctx.TestBonus())
	assert.Equal(t, 30+combat.MaxTestBonus, ctx.Test())
}

func TestResolve_CalledShotLowersTest(t *testing.T) {
	src := fixedSrc{v: 99}
	ctx, err := newResolver(t, src).Resolve(request(pistol(), 40, 30, combat.CalledShot))
	require.NoError(t, err)
	assert.Equal(t, combat.RangeNormal, ctx.RangeBand)
	assert.Equal(t, 20, ctx.Test())
	assert.Equal(t, []string{"Called Shot: Attack a specific location"}, ctx.Specials())
}

func TestResolve_MeleeAddsCharacteristicBonus(t *testing.T) {
	// d100 -> 20 against WS 45 (no range band): 2 DoS; die 1 raised to 2.
	src := &seqSrc{vals: []int{19, 0}}
	ctx, err := newResolver(t, src).Resolve(request(chainsword(), 45, 1))
	require.NoError(t, err)
	assert.Equal(t, combat.RangeNone, ctx.RangeBand)
	assert.Equal(t, weapon.WeaponSkill, ctx.Characteristic)
	assert.Equal(t, 45, ctx.Test())
	assert.Equal(t, 4, ctx.DamageBonus)
	assert.Equal(t, 2+2+4, ctx.TotalDamage())
}

func TestResolve_ExplicitCharacteristicBonus(t *testing.T) {
	src := &seqSrc{vals: []int{19, 0}}
	req := request(chainsword(), 45, 1)
	sb := 7
	req.CharacteristicBonus = &sb
	ctx, err := newResolver(t, src).Resolve(req)
	require.NoError(t, err)
	assert.Equal(t, 7, ctx.DamageBonus)
}

func TestResolve_MeleeAllOutAttack(t *testing.T) {
	ctx, err := newResolver(t, fixedSrc{v: 99}).Resolve(request(chainsword(), 45, 0, combat.AllOutAttack, combat.Charge))
	require.NoError(t, err)
	assert.Equal(t, 75, ctx.Test())
}

func TestResolve_RangedDoesNotAddCharacteristicBonus(t *testing.T) {
	src := &seqSrc{vals: []int{34, 5}}
	ctx, err := newResolver(t, src).Resolve(request(pistol(), 40, 10))
	require.NoError(t, err)
	assert.Zero(t, ctx.DamageBonus)
}

func TestResolve_FuryChain(t *testing.T) {
	// d100 35, d10 10, fury d100 20 <= 50, fury d10 10, fury d100 30, fury d10 7.
	src := &seqSrc{vals: []int{34, 9, 19, 9, 29, 6}}
	ctx, err := newResolver(t, src).Resolve(request(pistol(), 40, 10))
	require.NoError(t, err)
	require.Len(t, ctx.DamageRolls, 1)
	assert.Equal(t, []int{10, 7}, ctx.DamageRolls[0].Fury)
	assert.Equal(t, 10+3+17, ctx.TotalDamage())
	assert.Equal(t, 6, src.calls)
}

func TestResolve_FuryFailsPercentile(t *testing.T) {
	// d100 35, d10 10, fury d100 100 > 50.
	src := &seqSrc{vals: []int{34, 9, 99}}
	ctx, err := newResolver(t, src).Resolve(request(pistol(), 40, 10))
	require.NoError(t, err)
	assert.Empty(t, ctx.DamageRolls[0].Fury)
	assert.Equal(t, 13, ctx.TotalDamage())
	assert.Equal(t, 3, src.calls)
}

func TestResolve_FuryChainTerminatesAtDepth(t *testing.T) {
	// Every d100 is 10 and every d10 is 10: the chain would never end.
	ctx, err := newResolver(t, fixedSrc{v: 9}, combat.WithMaxFuryDepth(5)).Resolve(request(pistol(), 40, 10))
	require.NoError(t, err)
	assert.Equal(t, []int{10, 10, 10, 10, 10}, ctx.DamageRolls[0].Fury)
	assert.Equal(t, 10+3+50, ctx.TotalDamage())
}

func TestResolve_DamageLowerBoundProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64().Draw(rt, "seed")
		bs := rapid.IntRange(0, 100).Draw(rt, "bs")
		tr := rapid.IntRange(0, 360).Draw(rt, "targetRange")
		action := rapid.SampledFrom([]string{"", combat.AimFull, combat.SemiAutoBurst, combat.FullAutoBurst}).Draw(rt, "action")
		w := autogun()
		w.DamageDice = rapid.IntRange(1, 4).Draw(rt, "dice")

		var actions []string
		if action != "" {
			actions = append(actions, action)
		}
		ctx, err := newResolver(t, dice.NewSeededSource(seed)).Resolve(request(w, bs, tr, actions...))
		require.NoError(rt, err)
		if !ctx.Success() {
			assert.Empty(rt, ctx.DamageRolls)
			return
		}
		assert.Len(rt, ctx.DamageRolls, ctx.Hits())
		assert.Len(rt, ctx.Locations(), ctx.Hits())
		floor := 0
		for _, d := range ctx.DamageRolls {
			assert.Len(rt, d.Dice, w.DamageDice)
			floor += w.DamageBonus
			for _, v := range d.Dice {
				assert.GreaterOrEqual(rt, v, 1)
				floor += v
			}
		}
		assert.GreaterOrEqual(rt, ctx.TotalDamage(), floor)
	})
}

type flatSpecials map[string]int

func (f flatSpecials) DamageBonus(sp weapon.Special, _ []int, _ int) int { return f[sp.Name] }

func TestResolve_SpecialRules(t *testing.T) {
	w := pistol()
	w.Specials = []string{"Proven (3)", "Cursed", "Tearing"}
	src := &seqSrc{vals: []int{34, 5}}
	specials := flatSpecials{"tearing": 2, "cursed": -5}
	ctx, err := newResolver(t, src, combat.WithSpecials(specials)).Resolve(request(w, 40, 10))
	require.NoError(t, err)
	assert.Equal(t, 2, ctx.DamageRolls[0].Special)
	assert.Equal(t, 6+3+2, ctx.TotalDamage())
}

func TestResult_Projection(t *testing.T) {
	src := &seqSrc{vals: []int{34, 5}}
	ctx, err := newResolver(t, src).Resolve(request(pistol(), 40, 10, combat.StandardAttack))
	require.NoError(t, err)
	res := ctx.Result()
	assert.Equal(t, "Reference Pistol", res.Weapon)
	assert.Equal(t, []string{combat.StandardAttack}, res.Actions)
	assert.Equal(t, "close", res.RangeBand)
	assert.True(t, res.Success)
	assert.Equal(t, 50, res.Test)
	assert.Equal(t, 35, res.AttackRoll)
	assert.Equal(t, 1, res.DegreesOfSuccess)
	assert.Equal(t, 1, res.Hits)
	assert.Len(t, res.Locations, 1)
	require.Len(t, res.Damage, 1)
	assert.Equal(t, 9, res.TotalDamage)
	assert.Equal(t, "Ballistic Skill", res.Characteristic)
}
