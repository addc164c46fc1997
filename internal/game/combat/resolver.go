package combat

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/omnissiah/internal/game/dice"
	"github.com/cory-johannsen/omnissiah/internal/game/weapon"
)

// MaxActions is the number of actions that may be combined in one attack.
// The count is raw: a full action and a half action together are allowed.
const MaxActions = 2

// DefaultMaxFuryDepth bounds the righteous fury chain of a single hit.
const DefaultMaxFuryDepth = 64

// ErrInvalidRequest is wrapped by every request validation failure.
var ErrInvalidRequest = errors.New("invalid attack request")

// Distinct validation failures. Each wraps ErrInvalidRequest.
var (
	ErrTooManyActions      = fmt.Errorf("%w: too many actions", ErrInvalidRequest)
	ErrUnknownAction       = fmt.Errorf("%w: unknown action", ErrInvalidRequest)
	ErrSemiAutoUnsupported = fmt.Errorf("%w: semi-auto not supported", ErrInvalidRequest)
	ErrFullAutoUnsupported = fmt.Errorf("%w: full-auto not supported", ErrInvalidRequest)
	ErrOutOfRange          = fmt.Errorf("%w: target out of range", ErrInvalidRequest)
	ErrInvalidWeapon       = fmt.Errorf("%w: invalid weapon", ErrInvalidRequest)
	ErrNegativeValue       = fmt.Errorf("%w: negative value", ErrInvalidRequest)
)

// SpecialRules computes flat damage bonuses granted by weapon special rules.
// Implementations must be safe for concurrent use.
type SpecialRules interface {
	// DamageBonus returns the bonus special grants to one hit whose dice are
	// dice, scored with dos degrees of success.
	DamageBonus(special weapon.Special, dice []int, dos int) int
}

// Request is a single attack to resolve.
type Request struct {
	Weapon              weapon.Instance
	CharacteristicValue int
	// CharacteristicBonus defaults to CharacteristicValue / 10 when nil.
	CharacteristicBonus *int
	Actions             []string
	TargetRange         int
}

// Resolver runs the attack pipeline. It holds no per-attack state and is safe
// for concurrent use when its Roller's source is.
type Resolver struct {
	catalog      *Catalog
	table        *HitLocationTable
	roller       *dice.Roller
	logger       *zap.Logger
	specials     SpecialRules
	maxFuryDepth int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSpecials installs a weapon special rules hook.
func WithSpecials(s SpecialRules) Option {
	return func(r *Resolver) { r.specials = s }
}

// WithMaxFuryDepth overrides DefaultMaxFuryDepth. Values below 1 are ignored.
func WithMaxFuryDepth(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxFuryDepth = n
		}
	}
}

// WithHitLocationTable replaces the built-in hit location table.
func WithHitLocationTable(t *HitLocationTable) Option {
	return func(r *Resolver) { r.table = t }
}

// NewResolver creates a Resolver.
//
// Precondition: catalog, roller and logger must be non-nil.
func NewResolver(catalog *Catalog, roller *dice.Roller, logger *zap.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		catalog:      catalog,
		table:        DefaultHitLocationTable(),
		roller:       roller,
		logger:       logger,
		maxFuryDepth: DefaultMaxFuryDepth,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Catalog returns the resolver's action catalog.
func (r *Resolver) Catalog() *Catalog { return r.catalog }

// Validate checks req and resolves its action names. It draws no dice.
//
// Postcondition: on error, the error wraps ErrInvalidRequest.
func (r *Resolver) Validate(req Request) ([]Action, error) {
	seen := make(map[string]bool, len(req.Actions))
	var actions []Action
	for _, name := range req.Actions {
		a, err := r.catalog.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnknownAction, err)
		}
		if seen[a.Name] {
			continue
		}
		seen[a.Name] = true
		actions = append(actions, a)
	}
	if len(actions) > MaxActions {
		return nil, fmt.Errorf("%w: %d selected, at most %d allowed", ErrTooManyActions, len(actions), MaxActions)
	}
	w := req.Weapon
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWeapon, err)
	}
	if req.TargetRange < 0 || req.CharacteristicValue < 0 {
		return nil, fmt.Errorf("%w: target range %d, characteristic %d", ErrNegativeValue, req.TargetRange, req.CharacteristicValue)
	}
	if seen[SemiAutoBurst] && w.RoF.Semi == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSemiAutoUnsupported, w.Name)
	}
	if seen[FullAutoBurst] && w.RoF.Auto == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFullAutoUnsupported, w.Name)
	}
	if !(w.IsMelee() && w.Range == 0) && req.TargetRange > 4*w.Range {
		return nil, fmt.Errorf("%w: %s cannot fire more than %dm", ErrOutOfRange, w.Name, 4*w.Range)
	}
	return actions, nil
}

// Resolve validates req and runs the attack. A miss is not an error: it is
// reported by the returned context's Success method.
//
// Postcondition: on error no dice have been drawn; otherwise the context has
// a non-zero AttackRoll and, on a hit, one DamageRoll per hit.
func (r *Resolver) Resolve(req Request) (*AttackContext, error) {
	actions, err := r.Validate(req)
	if err != nil {
		return nil, err
	}
	charBonus := req.CharacteristicValue / 10
	if req.CharacteristicBonus != nil {
		charBonus = *req.CharacteristicBonus
	}

	ctx := NewAttackContext(req.Weapon, req.CharacteristicValue, req.TargetRange, actions, r.table)
	for _, a := range actions {
		for _, m := range a.Before {
			m.Apply(ctx)
		}
	}

	ctx.RangeBand = ClassifyRange(req.TargetRange, req.Weapon.Range, req.Weapon.Class)
	if ctx.RangeBand != RangeNone && ctx.RangeBand != RangeNormal {
		ctx.AddTestBonus(ctx.RangeBand.String()+" range", ctx.RangeBand.Modifier())
	}

	ctx.AttackRoll = r.roller.D100()
	ctx.DoS = abs(ctx.Test()-ctx.AttackRoll) / 10
	if !ctx.Success() {
		r.log(ctx)
		return ctx, nil
	}
	ctx.HitsBase = 1

	for _, a := range actions {
		for _, m := range a.After {
			m.Apply(ctx)
		}
	}

	specials := req.Weapon.ParsedSpecials()
	for range ctx.Hits() {
		roll := NewDamageRoll(r.roller.RollN(req.Weapon.DamageDice, 10), req.Weapon.DamageBonus)
		roll.ReplaceLowest(ctx.DoS)
		if r.specials != nil {
			for _, sp := range specials {
				roll.AddSpecial(max(0, r.specials.DamageBonus(sp, roll.Dice, ctx.DoS)))
			}
		}
		ctx.AddDamageRoll(roll)
		r.fury(ctx, roll)
	}

	if req.Weapon.UsesStrengthBonus() {
		ctx.DamageBonus += charBonus
	}
	r.log(ctx)
	return ctx, nil
}

// fury resolves the righteous fury chain for roll: while the last die was a
// 10, a successful percentile test adds another d10.
func (r *Resolver) fury(ctx *AttackContext, roll *DamageRoll) {
	if !roll.HasMax() {
		return
	}
	for range r.maxFuryDepth {
		if r.roller.D100() > ctx.Test() {
			return
		}
		v := r.roller.D10()
		roll.AddFury(v)
		if v != 10 {
			return
		}
	}
	r.logger.Warn("fury chain truncated", zap.Int("depth", r.maxFuryDepth))
}

func (r *Resolver) log(ctx *AttackContext) {
	r.logger.Debug("attack resolved",
		zap.String("weapon", ctx.Weapon.Name),
		zap.String("range_band", ctx.RangeBand.String()),
		zap.Int("test", ctx.Test()),
		zap.Int("roll", ctx.AttackRoll),
		zap.Int("dos", ctx.DoS),
		zap.Bool("success", ctx.Success()),
		zap.Int("hits", len(ctx.DamageRolls)),
		zap.Int("damage", ctx.TotalDamage()),
	)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
