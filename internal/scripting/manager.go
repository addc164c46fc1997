package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/omnissiah/internal/game/dice"
)

// Manager owns one sandboxed LState and exposes hook dispatch.
//
// An LState is single-threaded, so every load and call holds mu.
type Manager struct {
	mu        sync.Mutex
	L         *lua.LState
	roller    *dice.Roller
	logger    *zap.Logger
	instLimit int
	loaded    []string
}

// NewManager creates a Manager with an empty VM and the engine.* modules registered.
//
// Precondition: roller and logger must be non-nil; instLimit <= 0 means
// DefaultInstructionLimit.
// Postcondition: Returns a non-nil Manager. Call Close to release the VM.
func NewManager(roller *dice.Roller, logger *zap.Logger, instLimit int) *Manager {
	m := &Manager{
		L:         NewSandboxedState(),
		roller:    roller,
		logger:    logger,
		instLimit: instLimit,
	}
	m.RegisterModules(m.L)
	return m
}

// LoadDir executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: returns error on the first Lua load failure; files loaded
// before it stay loaded.
func (m *Manager) LoadDir(scriptDir string) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("scripting: reading %q: %w", path, err)
		}
		if err := m.LoadString(filepath.Base(path), string(src)); err != nil {
			return err
		}
	}
	m.logger.Info("scripts loaded", zap.String("dir", scriptDir), zap.Int("files", len(luaFiles)))
	return nil
}

// LoadString executes src under the instruction limit. name is used in errors.
func (m *Manager) LoadString(name, src string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	disarm := limitInstructions(m.L, m.instLimit)
	defer disarm()
	if err := m.L.DoString(src); err != nil {
		return fmt.Errorf("scripting: loading %q: %w", name, err)
	}
	m.loaded = append(m.loaded, name)
	return nil
}

// Loaded returns the names of the scripts loaded so far, in load order.
func (m *Manager) Loaded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loaded...)
}

// HasHook reports whether a global function named hook is defined.
func (m *Manager) HasHook(hook string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.L.GetGlobal(hook).Type() == lua.LTFunction
}

// CallHook calls the named Lua global function. Returns (LNil, nil) if the
// hook is not defined. Lua runtime errors, including hitting the instruction
// limit, are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances created for this
// Manager's state (see NewTable).
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn := m.L.GetGlobal(hook)
	if fn.Type() != lua.LTFunction {
		return lua.LNil, nil
	}

	disarm := limitInstructions(m.L, m.instLimit)
	defer disarm()
	if err := m.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := m.L.Get(-1)
	m.L.Pop(1)
	return ret, nil
}

// IntSlice converts vals into a Lua array table owned by this Manager's state.
func (m *Manager) IntSlice(vals []int) *lua.LTable {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.L.CreateTable(len(vals), 0)
	for _, v := range vals {
		t.Append(lua.LNumber(v))
	}
	return t
}

// Close releases the VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.L.Close()
}
