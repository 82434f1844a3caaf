package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/dice"
)

// GlobalScope is the reserved scope for shared scripts loaded via LoadGlobal.
// CallHook falls back to it when the requested scope has no VM.
const GlobalScope = "__global__"

// EnemyInfo is a snapshot of an enemy passed to Lua callbacks.
type EnemyInfo struct {
	ID        string
	Archetype string
	Health    int
	MaxHealth int
	State     string
}

type vm struct {
	mu sync.Mutex
	sb *Sandbox
}

// close releases the sandbox once no call is running on it.
func (v *vm) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sb != nil {
		v.sb.Close()
		v.sb = nil
	}
}

// Manager owns one sandboxed VM per scope and exposes hook dispatch.
//
// Manager is safe for concurrent use. Calls into the same scope are
// serialized; different scopes run concurrently.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	src    dice.Source
	limit  int
	logger *zap.Logger

	// Injected after construction. nil = engine.enemy returns nil.
	GetEnemy func(id string) *EnemyInfo
}

// NewManager creates a Manager whose VMs run under instLimit opcodes per call.
//
// Precondition: src and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no scopes loaded.
func NewManager(src dice.Source, logger *zap.Logger, instLimit int) *Manager {
	if src == nil {
		panic("scripting.NewManager: src must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		vms:    make(map[string]*vm),
		src:    src,
		limit:  instLimit,
		logger: logger.Named("scripting"),
	}
}

// LoadScope creates a sandboxed VM for scope, registers the engine module,
// then executes every *.lua file in scriptDir in lexicographic order. A
// previously loaded VM for scope is replaced only when loading succeeds.
//
// Precondition: scope must be non-empty; scriptDir must be a readable directory.
func (m *Manager) LoadScope(scope, scriptDir string) error {
	sb := NewSandbox(m.limit)
	m.RegisterModules(sb.L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		sb.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, scope, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(files)
	for _, path := range files {
		if err := sb.DoFile(path); err != nil {
			sb.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, scope, err)
		}
	}

	m.mu.Lock()
	old := m.vms[scope]
	m.vms[scope] = &vm{sb: sb}
	m.mu.Unlock()
	if old != nil {
		old.close()
	}
	m.logger.Info("scripts loaded", zap.String("scope", scope), zap.Int("files", len(files)))
	return nil
}

// LoadGlobal loads the shared fallback scope.
func (m *Manager) LoadGlobal(scriptDir string) error {
	return m.LoadScope(GlobalScope, scriptDir)
}

// Scopes returns the loaded scope names in sorted order.
func (m *Manager) Scopes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.vms))
	for k := range m.vms {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// CallHook calls the named Lua global function in scope's VM, falling back to
// the global scope. Returns (LNil, nil) if the hook is not defined or no VM
// exists. Lua runtime errors, including an exhausted instruction budget, are
// logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	v, ok := m.vms[scope]
	if !ok {
		v = m.vms[GlobalScope]
	}
	m.mu.RUnlock()

	if v == nil {
		m.logger.Info("no VM for scope", zap.String("scope", scope), zap.String("hook", hook))
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sb == nil {
		return lua.LNil, nil
	}
	fn := v.sb.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}
	var ret lua.LValue = lua.LNil
	err := v.sb.Run(func(L *lua.LState) error {
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
			return err
		}
		ret = L.Get(-1)
		L.Pop(1)
		return nil
	})
	if err != nil {
		m.logger.Warn("Lua runtime error",
			zap.String("scope", scope),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}
	return ret, nil
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	vms := m.vms
	m.vms = make(map[string]*vm)
	m.mu.Unlock()
	for _, v := range vms {
		v.close()
	}
}
