package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/l1jgo/nonsend/internal/core/ecs"
	"github.com/l1jgo/nonsend/internal/core/nonsend"
	coresys "github.com/l1jgo/nonsend/internal/core/system"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM whose scripts queue non-send resource
// commands by kind name. Single-goroutine access only (the owner loop).
type Engine struct {
	vm    *lua.LState
	kinds *nonsend.Kinds
	queue ecs.CommandQueue
	log   *zap.Logger
}

// NewEngine creates a VM with the commands API installed. Scripts are loaded
// separately with LoadDir or DoString.
func NewEngine(kinds *nonsend.Kinds, queue ecs.CommandQueue, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, kinds: kinds, queue: queue, log: log}
	e.installCommands()
	return e
}

func (e *Engine) Close() { e.vm.Close() }

// LoadDir runs every .lua file in dir in name order. A missing dir is not an
// error.
func (e *Engine) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// CallHook calls the global Lua function name with no arguments. A missing
// hook is skipped.
func (e *Engine) CallHook(name string) error {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return nil
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
		return fmt.Errorf("hook %s: %w", name, err)
	}
	return nil
}

func (e *Engine) installCommands() {
	t := e.vm.NewTable()
	e.vm.SetFuncs(t, map[string]lua.LGFunction{
		"init":   e.luaInit,
		"insert": e.luaInsert,
		"remove": e.luaRemove,
		"kinds":  e.luaKinds,
	})
	e.vm.SetGlobal("commands", t)
}

func (e *Engine) luaInit(L *lua.LState) int {
	if err := e.kinds.Init(e.queue, L.CheckString(1)); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

func (e *Engine) luaInsert(L *lua.LState) int {
	name := L.CheckString(1)
	var values map[string]any
	if L.GetTop() >= 2 {
		values = tableToMap(L.CheckTable(2))
	}
	if err := e.kinds.Insert(e.queue, name, values); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

func (e *Engine) luaRemove(L *lua.LState) int {
	if err := e.kinds.Remove(e.queue, L.CheckString(1)); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

func (e *Engine) luaKinds(L *lua.LState) int {
	out := L.NewTable()
	for _, name := range e.kinds.Names() {
		out.Append(lua.LString(name))
	}
	L.Push(out)
	return 1
}

func tableToMap(t *lua.LTable) map[string]any {
	m := make(map[string]any)
	t.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return // array part is ignored
		}
		m[string(key)] = fromLua(v)
	})
	return m
}

func fromLua(v lua.LValue) any {
	switch lv := v.(type) {
	case lua.LString:
		return string(lv)
	case lua.LNumber:
		return float64(lv)
	case lua.LBool:
		return bool(lv)
	case *lua.LTable:
		return tableToMap(lv)
	}
	return nil
}

// HookSystem calls the on_tick hook once per tick.
type HookSystem struct {
	engine *Engine
	log    *zap.Logger
}

func NewHookSystem(engine *Engine) *HookSystem {
	return &HookSystem{engine: engine, log: engine.log}
}

func (s *HookSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *HookSystem) Update(_ *ecs.Owner, _ time.Duration) {
	if err := s.engine.CallHook("on_tick"); err != nil {
		s.log.Warn("lua on_tick failed", zap.Error(err))
	}
}
