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
	"strings"
	"testing"

	"github.com/pdxjjb/wut4-supervisor/kernel"
)

func mustScript(t *testing.T, name string) string {
	t.Helper()
	src, err := ScriptSource(name)
	if err != nil {
		t.Fatalf("ScriptSource(%q): %v", name, err)
	}
	return src
}

// TestScenarioRoundRobinFairness: three CPU-bound children spawned from
// init, scheduled round-robin. Every
// child must get a RUNNING turn, and the preemption counter must climb
// as each one is rotated out at quantum expiry.
func TestScenarioRoundRobinFairness(t *testing.T) {
	cfg := kernel.DefaultConfig()
	cfg.Policy = kernel.PolicyRoundRobin
	cfg.Quantum = 3
	cfg.Interval = 10

	engine := NewEngine()
	defer engine.Close()
	h := NewHarness(cfg, engine)

	if err := h.RegisterProgram(cfg.TrapHandlerProgram, ""); err != nil {
		t.Fatalf("RegisterProgram(trap): %v", err)
	}
	if err := h.RegisterProgram(kernel.InitProgram, mustScript(t, "s3_init")); err != nil {
		t.Fatalf("RegisterProgram(init): %v", err)
	}
	if err := h.RegisterProgram("s3_cpubound.maq", mustScript(t, "s3_cpubound")); err != nil {
		t.Fatalf("RegisterProgram(cpubound): %v", err)
	}

	if err := h.Boot(); err != nil {
		t.Fatalf("Boot: %v", err)
	}

	err := h.Run(80)
	if err == nil || !strings.Contains(err.Error(), "exceeded") {
		t.Fatalf("Run: want bounded-exhaustion error (init waits on a child that never terminates), got %v", err)
	}

	for pid := 2; pid <= 4; pid++ {
		if !h.SeenRunning(pid) {
			t.Errorf("pid %d (cpu-bound child) was never scheduled RUNNING", pid)
		}
	}

	if got := h.K.Metrics().Preemptions; got < 2 {
		t.Errorf("Preemptions = %d, want >= 2 after rotating through three children", got)
	}
}

// TestScenarioWaitChain: init waits on child A, child A waits on child
// B, child B kills itself. The termination must
// propagate through both waiters via the pending-I/O sweep until init
// itself terminates and the kernel reaches shutdown.
func TestScenarioWaitChain(t *testing.T) {
	cfg := kernel.DefaultConfig()

	engine := NewEngine()
	defer engine.Close()
	h := NewHarness(cfg, engine)

	if err := h.RegisterProgram(cfg.TrapHandlerProgram, ""); err != nil {
		t.Fatalf("RegisterProgram(trap): %v", err)
	}
	if err := h.RegisterProgram(kernel.InitProgram, mustScript(t, "s5_init")); err != nil {
		t.Fatalf("RegisterProgram(init): %v", err)
	}
	if err := h.RegisterProgram("s5_childA.maq", mustScript(t, "s5_childA")); err != nil {
		t.Fatalf("RegisterProgram(childA): %v", err)
	}
	if err := h.RegisterProgram("s5_childB.maq", mustScript(t, "s5_childB")); err != nil {
		t.Fatalf("RegisterProgram(childB): %v", err)
	}

	if err := h.Boot(); err != nil {
		t.Fatalf("Boot: %v", err)
	}

	if err := h.Run(30); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !h.K.Done() {
		t.Fatalf("kernel did not reach shutdown")
	}

	for _, p := range h.K.Processes() {
		if p.State != kernel.StateTerminated {
			t.Errorf("pid %d: state = %s, want TERMINATED", p.PID, p.State)
		}
	}
}
