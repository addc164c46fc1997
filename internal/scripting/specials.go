package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/omnissiah/internal/game/weapon"
)

// SpecialHookPrefix prefixes the Lua global that implements a weapon special,
// e.g. special_tearing for "Tearing".
const SpecialHookPrefix = "special_"

// Specials computes weapon special damage bonuses by calling
// special_<name>(dice, dos, value) in the Manager's VM. Specials without a
// hook contribute nothing.
type Specials struct {
	mgr *Manager
}

// NewSpecials wraps mgr.
func NewSpecials(mgr *Manager) *Specials {
	return &Specials{mgr: mgr}
}

// Supports reports whether a hook is loaded for special.
func (s *Specials) Supports(special weapon.Special) bool {
	return s.mgr.HasHook(SpecialHookPrefix + special.Name)
}

// DamageBonus returns the integer the hook returns, or 0 when the hook is
// missing, fails, or returns a non-number.
func (s *Specials) DamageBonus(special weapon.Special, dice []int, dos int) int {
	hook := SpecialHookPrefix + special.Name
	if !s.mgr.HasHook(hook) {
		return 0
	}
	ret, err := s.mgr.CallHook(hook, s.mgr.IntSlice(dice), lua.LNumber(dos), lua.LNumber(special.Value))
	if err != nil {
		return 0
	}
	n, ok := ret.(lua.LNumber)
	if !ok {
		if ret != lua.LNil {
			s.mgr.logger.Warn("special hook returned a non-number",
				zap.String("hook", hook),
				zap.String("type", ret.Type().String()),
			)
		}
		return 0
	}
	return int(n)
}
