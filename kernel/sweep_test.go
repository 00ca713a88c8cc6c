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

import "testing"

// TestSweepWaitPIDResetsRegisterToZero: once the awaited pid has
// terminated, the sweep must leave the waiter's A register holding the
// syscall's actual return value, 0, not the target pid sysWait stashed
// there while blocked.
func TestSweepWaitPIDResetsRegisterToZero(t *testing.T) {
	k, mem, _, p := newSyscallTestKernel(t)
	target := NewProcess(2, 0, 0, testLogger())
	k.table.Add(target)
	p.Reg[1] = 2

	k.sysWait()
	if p.State != StateBlocked || p.BlockReason != WaitPID {
		t.Fatalf("caller = %s/%s, want BLOCKED/WAIT_PID", p.State, p.BlockReason)
	}
	if p.Reg[0] != 2 {
		t.Fatalf("A = %d, want target pid 2 stashed for the sweep", p.Reg[0])
	}

	k.killProcess(target)
	k.sweepWaitPID(p)

	if p.State != StateReady {
		t.Fatalf("caller state = %s, want READY", p.State)
	}
	if p.Reg[0] != 0 {
		t.Fatalf("A = %d, want 0 after WAIT_PID unblocks", p.Reg[0])
	}

	p.TransitionTo(StateRunning)
	if ret := k.dispatch(); ret != 0 {
		t.Fatalf("dispatch() = %d, want 0 (resume)", ret)
	}
	if got := mem.Peek(AddrA); got != 0 {
		t.Fatalf("ADDR_A = %d, want 0", got)
	}
}
