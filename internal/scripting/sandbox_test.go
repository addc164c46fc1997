package scripting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"
)

func TestNewSandboxedState_UnsafeLibsNil(t *testing.T) {
	L := NewSandboxedState()
	require.NotNil(t, L)
	defer L.Close()
	for _, name := range []string{"os", "io", "debug"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "expected %s to be nil", name)
	}
}

func TestNewSandboxedState_DangerousGlobalsNil(t *testing.T) {
	L := NewSandboxedState()
	defer L.Close()
	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "expected %s to be nil", name)
	}
}

func TestNewSandboxedState_SafeLibsAvailable(t *testing.T) {
	L := NewSandboxedState()
	defer L.Close()
	err := L.DoString(`
		local x = math.sqrt(4)
		assert(x == 2.0, "math.sqrt failed")
		local s = string.upper("hello")
		assert(s == "HELLO", "string.upper failed")
		local t = {}
		table.insert(t, 1)
		assert(#t == 1, "table.insert failed")
	`)
	assert.NoError(t, err)
}

func TestLimitInstructions_Exceeded(t *testing.T) {
	L := NewSandboxedState()
	defer L.Close()
	disarm := limitInstructions(L, 10)
	err := L.DoString(`while true do end`)
	disarm()
	assert.Error(t, err, "expected instruction limit error")
}

func TestLimitInstructions_ResetsPerExecution(t *testing.T) {
	L := NewSandboxedState()
	defer L.Close()
	for range 5 {
		disarm := limitInstructions(L, 1000)
		require.NoError(t, L.DoString(`local x = 0 for i = 1, 50 do x = x + i end`))
		disarm()
	}
}

func TestLimitInstructions_DefaultLimitRunsNormalScript(t *testing.T) {
	L := NewSandboxedState()
	defer L.Close()
	disarm := limitInstructions(L, 0)
	defer disarm()
	assert.NoError(t, L.DoString(`local x = 1 + 1`))
}

func TestProperty_InstructionLimitAlwaysErrors(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(1, 50).Draw(t, "limit")
		L := NewSandboxedState()
		defer L.Close()
		disarm := limitInstructions(L, limit)
		defer disarm()
		if err := L.DoString(`while true do end`); err == nil {
			t.Fatalf("expected error with limit=%d but got nil", limit)
		}
	})
}
