// Package gameserver hosts the combat application service shared by every
// front end, and its gRPC transport.
package gameserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/omnissiah/internal/armoury"
	"github.com/cory-johannsen/omnissiah/internal/feed"
	"github.com/cory-johannsen/omnissiah/internal/game/combat"
	"github.com/cory-johannsen/omnissiah/internal/game/dice"
	"github.com/cory-johannsen/omnissiah/internal/game/weapon"
	"github.com/cory-johannsen/omnissiah/internal/render"
)

// DiceChannel is the feed channel attack and dice results are published to.
const DiceChannel = "dice"

// ErrWeaponNotFound is returned when a weapon reference matches neither an
// armoury record nor a preset.
var ErrWeaponNotFound = errors.New("weapon not found")

// AttackRequest is one attack as submitted by a front end. Exactly one of
// Weapon and WeaponRef should be set; Weapon wins when both are.
type AttackRequest struct {
	Owner               string           `json:"owner,omitempty"`
	Actor               string           `json:"actor,omitempty"`
	Weapon              *weapon.Instance `json:"weapon,omitempty"`
	WeaponRef           string           `json:"weapon_ref,omitempty"`
	Characteristic      int              `json:"characteristic"`
	CharacteristicBonus *int             `json:"characteristic_bonus,omitempty"`
	Actions             []string         `json:"actions,omitempty"`
	TargetRange         int              `json:"target_range"`
	Publish             bool             `json:"publish,omitempty"`
}

// CombatService resolves attacks against owned or preset weapons and
// publishes the outcomes.
type CombatService struct {
	resolver *combat.Resolver
	armoury  *armoury.Service
	presets  *weapon.Registry
	roller   *dice.Roller
	sink     feed.Sink
	logger   *zap.Logger
}

// NewCombatService wires the service.
//
// Precondition: resolver, armourySvc, presets, roller, and logger must be
// non-nil. sink may be nil, in which case nothing is published.
func NewCombatService(
	resolver *combat.Resolver,
	armourySvc *armoury.Service,
	presets *weapon.Registry,
	roller *dice.Roller,
	sink feed.Sink,
	logger *zap.Logger,
) *CombatService {
	return &CombatService{
		resolver: resolver,
		armoury:  armourySvc,
		presets:  presets,
		roller:   roller,
		sink:     sink,
		logger:   logger,
	}
}

// Armoury returns the armoury service.
func (s *CombatService) Armoury() *armoury.Service { return s.armoury }

// Presets returns the preset weapon registry.
func (s *CombatService) Presets() *weapon.Registry { return s.presets }

// Actions returns the action catalog sorted by name.
func (s *CombatService) Actions() []combat.Action { return s.resolver.Catalog().All() }

// ResolveWeapon looks ref up in the owner's armoury, then in the presets.
func (s *CombatService) ResolveWeapon(ctx context.Context, owner, ref string) (weapon.Instance, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return weapon.Instance{}, fmt.Errorf("%w: empty reference", ErrWeaponNotFound)
	}
	if strings.TrimSpace(owner) != "" {
		rec, err := s.armoury.Find(ctx, owner, ref)
		if err == nil {
			return rec.Weapon, nil
		}
		if !errors.Is(err, armoury.ErrNotFound) {
			return weapon.Instance{}, err
		}
	}
	if w, ok := s.presets.Lookup(ref); ok {
		return weapon.NewInstance(w, weapon.CraftsmanshipCommon), nil
	}
	return weapon.Instance{}, fmt.Errorf("%w: %q", ErrWeaponNotFound, ref)
}

// Attack resolves req and, when req.Publish is set, posts a summary to the feed.
//
// Postcondition: errors wrap ErrWeaponNotFound, combat.ErrInvalidRequest, or
// a storage error.
func (s *CombatService) Attack(ctx context.Context, req AttackRequest) (combat.AttackResult, error) {
	var inst weapon.Instance
	if req.Weapon != nil {
		inst = *req.Weapon
	} else {
		var err error
		if inst, err = s.ResolveWeapon(ctx, req.Owner, req.WeaponRef); err != nil {
			return combat.AttackResult{}, err
		}
	}
	if inst.Craftsmanship == "" {
		inst.Craftsmanship = weapon.CraftsmanshipCommon
	}

	actx, err := s.resolver.Resolve(combat.Request{
		Weapon:              inst,
		CharacteristicValue: req.Characteristic,
		CharacteristicBonus: req.CharacteristicBonus,
		Actions:             req.Actions,
		TargetRange:         req.TargetRange,
	})
	if err != nil {
		return combat.AttackResult{}, err
	}
	result := actx.Result()

	s.logger.Info("attack",
		zap.String("owner", req.Owner),
		zap.String("weapon", result.Weapon),
		zap.Strings("actions", result.Actions),
		zap.Bool("success", result.Success),
		zap.Int("hits", result.Hits),
		zap.Int("damage", result.TotalDamage),
	)
	if req.Publish {
		s.publish(render.Summary(actorName(req), result))
	}
	return result, nil
}

// Roll rolls a free-form dice expression such as "2d10+3".
func (s *CombatService) Roll(actor, expr string, publish bool) (dice.RollResult, error) {
	res, err := s.roller.RollExpr(strings.TrimSpace(expr))
	if err != nil {
		return dice.RollResult{}, err
	}
	if publish {
		s.publish(fmt.Sprintf("%s: %s", actor, res.String()))
	}
	return res, nil
}

func (s *CombatService) publish(text string) {
	if s.sink != nil {
		s.sink.Publish(DiceChannel, text)
	}
}

// IsNotFound reports whether err means a weapon or record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWeaponNotFound) || errors.Is(err, armoury.ErrNotFound)
}

// IsInvalidInput reports whether err was caused by a malformed request that
// the caller can correct and resubmit.
func IsInvalidInput(err error) bool {
	return errors.Is(err, combat.ErrInvalidRequest) ||
		errors.Is(err, combat.ErrNotFound) ||
		errors.Is(err, armoury.ErrInvalidOwner) ||
		errors.Is(err, armoury.ErrAmbiguous) ||
		errors.Is(err, weapon.ErrInvalid)
}

func actorName(req AttackRequest) string {
	switch {
	case req.Actor != "":
		return req.Actor
	case req.Owner != "":
		return req.Owner
	default:
		return "someone"
	}
}
