// Copyright © 2024 Jeff Berkowitz (pdxjjb@gmail.com)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.

package scenario

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Action is what a scripted program's step function decided to do on
// its current turn: issue a syscall (HasCall), optionally naming a
// child program file for SPAWN, or do nothing and let the timer
// consume its quantum (a CPU-bound burst).
type Action struct {
	HasCall   bool
	Call      int
	Arg       int
	ChildFile string
}

// Engine holds one gopher-lua VM per registered program script. Each
// script must define a global `step(n)` function returning up to three
// values: call (integer or nil), arg (integer or nil), child_file
// (string or nil, used only for SPAWN instead of arg).
type Engine struct {
	states map[string]*lua.LState
}

// NewEngine returns an Engine with no scripts registered.
func NewEngine() *Engine {
	return &Engine{states: make(map[string]*lua.LState)}
}

// Register compiles and runs script under name, making its top-level
// `step` function callable via Step. The script's top-level statements
// run once immediately, exactly like requiring a module.
func (e *Engine) Register(name, script string) error {
	L := lua.NewState()
	if err := L.DoString(script); err != nil {
		L.Close()
		return fmt.Errorf("scenario engine: loading script %q: %w", name, err)
	}
	e.states[name] = L
	return nil
}

// Close releases every registered script's Lua state.
func (e *Engine) Close() {
	for _, L := range e.states {
		L.Close()
	}
}

// Step calls name's step(n) function and translates its return values
// into an Action.
func (e *Engine) Step(name string, n int) (Action, error) {
	L, ok := e.states[name]
	if !ok {
		return Action{}, fmt.Errorf("scenario engine: no script registered for %q", name)
	}

	fn := L.GetGlobal("step")
	if fn == lua.LNil {
		return Action{}, fmt.Errorf("scenario engine: script %q has no step function", name)
	}

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    3,
		Protect: true,
	}, lua.LNumber(n)); err != nil {
		return Action{}, fmt.Errorf("scenario engine: %q step(%d): %w", name, n, err)
	}

	childFile := L.Get(-1)
	arg := L.Get(-2)
	call := L.Get(-3)
	L.Pop(3)

	action := Action{}
	if callNum, ok := call.(lua.LNumber); ok {
		action.HasCall = true
		action.Call = int(callNum)
	}
	if argNum, ok := arg.(lua.LNumber); ok {
		action.Arg = int(argNum)
	}
	if s, ok := childFile.(lua.LString); ok {
		action.ChildFile = string(s)
	}
	return action, nil
}
