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
	"io"
	"log"

	"github.com/pdxjjb/wut4-supervisor/kernel"
	"github.com/pdxjjb/wut4-supervisor/machine"
)

// scratchFilenameAddr is where the harness stashes a SPAWN target's
// filename before triggering the syscall trap; it is reused on every
// spawn since each is resolved synchronously within one trap.
const scratchFilenameAddr = 0x9000

// Harness drives a kernel against an in-process fake machine, using an
// Engine to decide what syscall (if any) each RUNNING process issues on
// its turn. It plays the role of the assembly trap stub and the CPU's
// instruction clock combined.
type Harness struct {
	K      *kernel.Kernel
	CPU    *machine.FakeCPU
	Mem    *machine.FakeMemory
	IO     *machine.FakeIOBus
	Reader *machine.FakeProgramReader
	Engine *Engine
	Logger *log.Logger

	cfg         kernel.Config
	nextBase    int
	pidScript   map[int]string
	steps       map[int]int
	seenRunning map[int]bool
}

// SeenRunning reports whether pid was ever observed as the current
// RUNNING process during Run.
func (h *Harness) SeenRunning(pid int) bool {
	return h.seenRunning[pid]
}

// NewHarness constructs a Harness with fresh fakes wired to a new
// kernel built from cfg and engine. Callers register each simulated
// program with RegisterProgram before calling Boot.
func NewHarness(cfg kernel.Config, engine *Engine) *Harness {
	logger := log.New(io.Discard, "", 0)
	h := &Harness{
		CPU:         machine.NewFakeCPU(),
		Mem:         machine.NewFakeMemory(),
		IO:          machine.NewFakeIOBus(),
		Reader:      machine.NewFakeProgramReader(),
		Engine:      engine,
		Logger:      logger,
		cfg:         cfg,
		nextBase:    0x4000,
		pidScript:   make(map[int]string),
		steps:       make(map[int]int),
		seenRunning: make(map[int]bool),
	}
	h.K = kernel.New(cfg, h.CPU, h.Mem, h.IO, h.Reader, logger)
	return h
}

// RegisterProgram registers a named program with both the Lua engine
// (its step function) and the fake loader (a placeholder one-word
// image, since the scripted process never really executes machine
// code). filename "trap.maq" is reserved for the trap-handler stub
// loaded at ADDR_TRAP_VECTOR.
func (h *Harness) RegisterProgram(filename, script string) error {
	if err := h.Engine.Register(filename, script); err != nil {
		return err
	}
	base := h.nextBase
	if filename == h.cfg.TrapHandlerProgram {
		base = kernel.AddrTrapVector
	} else {
		h.nextBase++
	}
	h.Reader.Register(filename, &machine.Program{
		Segments: []machine.Segment{{Base: base, Data: []int{0}}},
	})
	return nil
}

// Boot loads the trap handler and init.maq, binding pid 1 to
// kernel.InitProgram's script.
func (h *Harness) Boot() error {
	if err := h.K.Boot(); err != nil {
		return err
	}
	h.pidScript[1] = kernel.InitProgram
	return nil
}

// Run drives the kernel to completion (or maxEntries kernel entries,
// whichever comes first): on each entry, if the RUNNING process has a
// registered script, its next step decides the syscall; otherwise (or
// when it has nothing to do) a TIMER interrupt advances the clock.
func (h *Harness) Run(maxEntries int) error {
	entries := 0
	for !h.K.Done() {
		if maxEntries > 0 && entries >= maxEntries {
			return fmt.Errorf("scenario harness: exceeded %d kernel entries without reaching shutdown", maxEntries)
		}

		if pid, ok := h.K.CurrentPID(); ok {
			h.seenRunning[pid] = true
			if name, ok := h.pidScript[pid]; ok {
				acted, err := h.runStep(pid, name)
				if err != nil {
					return err
				}
				if acted {
					entries++
					continue
				}
			}
		}

		h.IO.Tick(kernel.RegInstrCounter, h.cfg.Interval)
		h.CPU.Trap(int(kernel.IRQTimer))
		entries++
	}
	return nil
}

// runStep asks the current process's script for its next action and,
// if it chose to issue a syscall, carries it out. It reports whether a
// syscall trap was taken.
func (h *Harness) runStep(pid int, name string) (bool, error) {
	n := h.steps[pid]
	action, err := h.Engine.Step(name, n)
	if err != nil {
		return false, err
	}
	h.steps[pid] = n + 1

	if !action.HasCall {
		return false, nil
	}

	arg := action.Arg
	if action.Call == kernel.CallSpawn && action.ChildFile != "" {
		arg = h.writeFilename(action.ChildFile)
	}

	h.Mem.Poke(kernel.AddrA, action.Call)
	h.Mem.Poke(kernel.AddrX, arg)
	h.CPU.Trap(int(kernel.IRQSyscall))

	if action.Call == kernel.CallSpawn && action.ChildFile != "" {
		h.bindNewestChild(action.ChildFile)
	}
	return true, nil
}

// writeFilename stashes name as a NUL-terminated byte string at the
// scratch address and returns that address.
func (h *Harness) writeFilename(name string) int {
	addr := scratchFilenameAddr
	for i, b := range append([]byte(name), 0) {
		h.Mem.Poke(addr+i, int(b))
	}
	return addr
}

// bindNewestChild binds the most recently created descriptor (the one
// SPAWN just appended) to childFile's script.
func (h *Harness) bindNewestChild(childFile string) {
	procs := h.K.Processes()
	if len(procs) == 0 {
		return
	}
	newest := procs[len(procs)-1]
	h.pidScript[newest.PID] = childFile
}
