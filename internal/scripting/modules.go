package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/dice"
)

// RegisterModules installs the engine table into L:
//
//	engine.log.debug/info/warn/error(msg)
//	engine.random(lo, hi) -> number in [lo, hi]
//	engine.enemy(id)      -> {id, archetype, health, max_health, state} or nil
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()

	logTbl := L.NewTable()
	for name, fn := range map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	} {
		logFn := fn
		L.SetField(logTbl, name, L.NewFunction(func(L *lua.LState) int {
			logFn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	L.SetField(engine, "log", logTbl)

	L.SetField(engine, "random", L.NewFunction(func(L *lua.LState) int {
		lo := float64(L.CheckNumber(1))
		hi := float64(L.CheckNumber(2))
		L.Push(lua.LNumber(dice.Uniform(m.src, lo, hi)))
		return 1
	}))

	L.SetField(engine, "enemy", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		if m.GetEnemy == nil {
			L.Push(lua.LNil)
			return 1
		}
		info := m.GetEnemy(id)
		if info == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(enemyToTable(L, info))
		return 1
	}))

	L.SetGlobal("engine", engine)
}

func enemyToTable(L *lua.LState, e *EnemyInfo) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(e.ID))
	t.RawSetString("archetype", lua.LString(e.Archetype))
	t.RawSetString("health", lua.LNumber(e.Health))
	t.RawSetString("max_health", lua.LNumber(e.MaxHealth))
	t.RawSetString("state", lua.LString(e.State))
	return t
}
