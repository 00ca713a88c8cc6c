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

package kernel

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pdxjjb/wut4-supervisor/machine"
)

// testMachine bundles the fakes a kernel test drives directly.
type testMachine struct {
	mem    *machine.FakeMemory
	io     *machine.FakeIOBus
	cpu    *machine.FakeCPU
	reader *machine.FakeProgramReader
}

// newTestKernel boots a kernel against fresh fakes, with trap.maq and
// init.maq pre-registered. t.Helper keeps failures pointing at the
// caller, matching emul/emul_test.go's runTestBinary convention.
func newTestKernel(t *testing.T, cfg Config) (*Kernel, *testMachine) {
	t.Helper()

	tm := &testMachine{
		mem:    machine.NewFakeMemory(),
		io:     machine.NewFakeIOBus(),
		cpu:    machine.NewFakeCPU(),
		reader: machine.NewFakeProgramReader(),
	}
	tm.reader.Register("trap.maq", &machine.Program{
		Segments: []machine.Segment{{Base: AddrTrapVector, Data: []int{0}}},
	})
	tm.reader.Register(InitProgram, &machine.Program{
		Segments: []machine.Segment{{Base: 0x4000, Data: []int{0, 0, 0}}},
	})

	k := New(cfg, tm.cpu, tm.mem, tm.io, tm.reader, testLogger())
	if err := k.Boot(); err != nil {
		t.Fatalf("Boot() = %v", err)
	}
	return k, tm
}

func TestBootSynthesizesPidOne(t *testing.T) {
	k, _ := newTestKernel(t, DefaultConfig())

	if k.current == nil {
		t.Fatalf("current is nil after boot")
	}
	if k.current.PID != 1 {
		t.Fatalf("pid = %d, want 1", k.current.PID)
	}
	if k.current.State != StateRunning {
		t.Fatalf("state = %s, want RUNNING", k.current.State)
	}
	if k.current.PC != 0x4000 {
		t.Fatalf("pc = %#x, want 0x4000", k.current.PC)
	}
}

// TestScenarioS1BootOnlyKillSelf: init.maq immediately invokes KILL(0).
// After one further kernel entry, pid 1 is TERMINATED, shutdown fires,
// and the metrics report lists exactly one process with preemptions=0
//.
func TestScenarioS1BootOnlyKillSelf(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy = PolicyRoundRobin
	k, tm := newTestKernel(t, cfg)

	var metrics bytes.Buffer
	k.SetMetricsWriter(&metrics)

	tm.mem.Poke(AddrA, CallKill)
	tm.mem.Poke(AddrX, 0)
	code := tm.cpu.Trap(int(IRQSyscall))

	if code != 1 {
		t.Fatalf("return code = %d, want 1 (halt/shutdown)", code)
	}
	procs := k.Processes()
	if len(procs) != 1 {
		t.Fatalf("process count = %d, want 1", len(procs))
	}
	if procs[0].State != StateTerminated {
		t.Fatalf("pid 1 state = %s, want TERMINATED", procs[0].State)
	}
	if procs[0].Metrics.Preemptions != 0 {
		t.Fatalf("preemptions = %d, want 0", procs[0].Metrics.Preemptions)
	}
	if !strings.Contains(metrics.String(), "pid 1") {
		t.Fatalf("metrics report missing pid 1: %s", metrics.String())
	}
}

// TestScenarioS2ReadBlocksThenUnblocks drives a single RUNNING process
// through a blocking READ and its later completion by the sweep
//.
func TestScenarioS2ReadBlocksThenUnblocks(t *testing.T) {
	k, tm := newTestKernel(t, DefaultConfig())

	// keyboard-ready for terminal 0 (pid 1) starts at 0: the read blocks.
	tm.mem.Poke(AddrA, CallRead)
	tm.mem.Poke(AddrX, 0)
	code := tm.cpu.Trap(int(IRQSyscall))
	if code != 1 {
		t.Fatalf("return code = %d, want 1 (idle, nothing else runnable)", code)
	}
	if k.current != nil {
		t.Fatalf("current should be idle while pid 1 is blocked")
	}
	p := k.table.ByPID(1)
	if p.State != StateBlocked || p.BlockReason != WaitRead {
		t.Fatalf("pid 1 = %s/%s, want BLOCKED/WAIT_READ", p.State, p.BlockReason)
	}

	// Device becomes ready with data word 'Q' = 81; next trap's sweep
	// unblocks and dispatches pid 1 with the value already in A.
	tm.io.Poke(keyboardReadyAddr(0), 1)
	tm.io.Poke(keyboardDataAddr(0), 81)
	code = tm.cpu.Trap(int(IRQTimer))
	if code != 0 {
		t.Fatalf("return code = %d, want 0 (resume)", code)
	}
	if p.State != StateRunning {
		t.Fatalf("pid 1 state = %s, want RUNNING", p.State)
	}
	if p.Reg[0] != 81 {
		t.Fatalf("pid 1 A register = %d, want 81", p.Reg[0])
	}
	if got := tm.mem.Peek(AddrA); got != 81 {
		t.Fatalf("ADDR_A = %d, want 81", got)
	}
}

// TestScenarioS6SelfWaitRejected: init calls WAIT(1) on itself. A=-1,
// init remains RUNNING, no state change.
func TestScenarioS6SelfWaitRejected(t *testing.T) {
	k, tm := newTestKernel(t, DefaultConfig())

	tm.mem.Poke(AddrA, CallWait)
	tm.mem.Poke(AddrX, 1)
	code := tm.cpu.Trap(int(IRQSyscall))

	if code != 0 {
		t.Fatalf("return code = %d, want 0 (resume)", code)
	}
	p := k.table.ByPID(1)
	if p.State != StateRunning {
		t.Fatalf("pid 1 state = %s, want RUNNING", p.State)
	}
	if p.Reg[0] != -1 {
		t.Fatalf("A register = %d, want -1", p.Reg[0])
	}
	if got := tm.mem.Peek(AddrA); got != -1 {
		t.Fatalf("ADDR_A = %d, want -1", got)
	}
}

func TestUnknownSyscallKillsCaller(t *testing.T) {
	k, tm := newTestKernel(t, DefaultConfig())

	tm.mem.Poke(AddrA, 99) // not one of the five defined calls
	code := tm.cpu.Trap(int(IRQSyscall))

	if code != 1 {
		t.Fatalf("return code = %d, want 1 (no process left to run)", code)
	}
	p := k.table.ByPID(1)
	if p.State != StateTerminated {
		t.Fatalf("pid 1 state = %s, want TERMINATED", p.State)
	}
}

func TestCPUErrorTerminatesAndSetsInternalError(t *testing.T) {
	k, tm := newTestKernel(t, DefaultConfig())

	tm.mem.Poke(AddrErr, 7)
	tm.cpu.Trap(int(IRQCPUError))

	p := k.table.ByPID(1)
	if p.State != StateTerminated {
		t.Fatalf("pid 1 state = %s, want TERMINATED (redesigned CPU_ERROR handling)", p.State)
	}
	if p.BlockReason != BlockNone {
		t.Fatalf("block reason = %s, want untouched NONE", p.BlockReason)
	}
	if !k.InternalError() {
		t.Fatalf("internal error flag not set")
	}
}

func TestSpawnReturnsPIDInCallerRegisterZero(t *testing.T) {
	k, tm := newTestKernel(t, DefaultConfig())
	tm.reader.Register("child.maq", &machine.Program{
		Segments: []machine.Segment{{Base: 0x5000, Data: []int{0}}},
	})

	nameAddr := 0x9000
	for i, b := range []byte("child.maq\x00") {
		tm.mem.Poke(nameAddr+i, int(b))
	}

	tm.mem.Poke(AddrA, CallSpawn)
	tm.mem.Poke(AddrX, nameAddr)
	tm.cpu.Trap(int(IRQSyscall))

	p := k.table.ByPID(1)
	if p.Reg[0] != 2 {
		t.Fatalf("caller A register = %d, want 2 (new child pid)", p.Reg[0])
	}
	if k.table.ByPID(2) == nil {
		t.Fatalf("child descriptor not created")
	}
}

func TestMetricsReportIncludesGlobalCounters(t *testing.T) {
	k, _ := newTestKernel(t, DefaultConfig())
	var buf bytes.Buffer
	if err := k.EmitMetrics(&buf); err != nil {
		t.Fatalf("EmitMetrics() = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"total_ticks", "idle_ticks", "preemptions", "irq_counts", "processes"} {
		if !strings.Contains(out, want) {
			t.Fatalf("metrics report missing %q: %s", want, out)
		}
	}
}
