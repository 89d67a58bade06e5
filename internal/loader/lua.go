// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package loader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/plugindictator/dictator/internal/registry"
)

// safeLibrary is a Lua library opened in sandboxed states.
type safeLibrary struct {
	name string
	fn   lua.LGFunction
}

// Safe: base, table, string, math. Blocked: os, io, debug, package.
var safeLibraries = []safeLibrary{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// unsafeBaseFunctions reach the filesystem from inside a script.
var unsafeBaseFunctions = []string{"dofile", "loadfile", "loadstring", "load"}

// LuaIncluder runs .lua plugin files in sandboxed Lua states. Each plugin
// gets its own state, kept open until Close. Scripts see a global
// "dictator" table with the plugin's slug, path and tier, and a log
// function writing to the includer's logger.
type LuaIncluder struct {
	logger *slog.Logger

	mu     sync.Mutex
	states map[string]*lua.LState
}

// NewLuaIncluder creates an includer that logs script output to logger.
func NewLuaIncluder(logger *slog.Logger) *LuaIncluder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LuaIncluder{
		logger: logger,
		states: make(map[string]*lua.LState),
	}
}

// Include implements Includer. Including a slug twice is a no-op.
func (i *LuaIncluder) Include(ctx context.Context, plugin registry.CustomPlugin) error {
	if !strings.EqualFold(filepath.Ext(plugin.Path), ".lua") {
		return oops.Code("INCLUDE_UNSUPPORTED").
			With("plugin", plugin.Slug).
			With("path", plugin.Path).
			Errorf("only .lua plugins can be included")
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.states[plugin.Slug]; ok {
		return nil
	}

	L, err := newSandbox()
	if err != nil {
		return oops.Code("INCLUDE_FAILED").With("plugin", plugin.Slug).Wrap(err)
	}
	L.SetContext(ctx)
	L.SetGlobal("dictator", i.pluginTable(L, plugin))

	if err := L.DoFile(plugin.Path); err != nil {
		L.Close()
		return oops.Code("INCLUDE_FAILED").
			With("plugin", plugin.Slug).
			With("path", plugin.Path).
			Wrap(err)
	}
	L.RemoveContext()
	i.states[plugin.Slug] = L
	return nil
}

// Included reports whether slug has been included.
func (i *LuaIncluder) Included(slug string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.states[slug]
	return ok
}

// Global returns a global variable of an included plugin's state.
func (i *LuaIncluder) Global(slug, name string) (lua.LValue, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	L, ok := i.states[slug]
	if !ok {
		return lua.LNil, false
	}
	return L.GetGlobal(name), true
}

// Close closes every plugin state.
func (i *LuaIncluder) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	for slug, L := range i.states {
		L.Close()
		delete(i.states, slug)
	}
}

func (i *LuaIncluder) pluginTable(L *lua.LState, plugin registry.CustomPlugin) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("slug", lua.LString(plugin.Slug))
	t.RawSetString("path", lua.LString(plugin.Path))
	t.RawSetString("tier", lua.LNumber(plugin.Priority))
	t.RawSetString("log", L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for n := 1; n <= L.GetTop(); n++ {
			parts = append(parts, L.ToStringMeta(L.Get(n)).String())
		}
		i.logger.Info(strings.Join(parts, " "), "plugin", plugin.Slug)
		return 0
	}))
	return t
}

func newSandbox() (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range safeLibraries {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("failed to open library %s: %w", lib.name, err)
		}
	}
	for _, fn := range unsafeBaseFunctions {
		L.SetGlobal(fn, lua.LNil)
	}
	return L, nil
}
