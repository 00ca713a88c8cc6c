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

// keyboardReadyAddr, keyboardDataAddr, screenReadyAddr and
// screenDataAddr compute a terminal's device register addresses: base
// + 4*terminal.
func keyboardReadyAddr(terminal int) int { return BaseKeyboardReady + 4*terminal }
func keyboardDataAddr(terminal int) int  { return BaseKeyboardData + 4*terminal }
func screenReadyAddr(terminal int) int   { return BaseScreenReady + 4*terminal }
func screenDataAddr(terminal int) int    { return BaseScreenData + 4*terminal }

// sweepPendingIO polls every BLOCKED descriptor's device readiness (or,
// for WAIT_PID, the awaited pid's termination) and unblocks it,
// appending newly-READY descriptors to the ready queue. Runs
// unconditionally on every trap.
func (k *Kernel) sweepPendingIO() {
	for _, p := range k.table.All() {
		if p.State != StateBlocked {
			continue
		}
		switch p.BlockReason {
		case WaitRead:
			k.sweepWaitRead(p)
		case WaitWrite:
			k.sweepWaitWrite(p)
		case WaitPID:
			k.sweepWaitPID(p)
		}
	}
}

// sweepWaitRead unblocks a WAIT_READ descriptor once its terminal's
// keyboard becomes ready. It completes the read at unblock time, the
// same way sweepWaitWrite completes the pending write: the keyboard
// data register is read into the descriptor's A register so that the
// READ syscall's result is already in place when the
// process is next dispatched, symmetric with the WAIT_WRITE transfer.
func (k *Kernel) sweepWaitRead(p *Process) {
	terminal := terminalFor(p.PID)
	ready, err := k.io.ReadWord(keyboardReadyAddr(terminal))
	if err != nil {
		k.logger.Printf("sweep: pid %d: reading keyboard-ready: %v", p.PID, err)
		return
	}
	if ready == 0 {
		return
	}
	data, err := k.io.ReadWord(keyboardDataAddr(terminal))
	if err != nil {
		k.logger.Printf("sweep: pid %d: reading keyboard-data: %v", p.PID, err)
		return
	}
	p.Reg[0] = data
	p.TransitionTo(StateReady)
	k.ready.EnqueueTail(p)
}

func (k *Kernel) sweepWaitWrite(p *Process) {
	terminal := terminalFor(p.PID)
	ready, err := k.io.ReadWord(screenReadyAddr(terminal))
	if err != nil {
		k.logger.Printf("sweep: pid %d: reading screen-ready: %v", p.PID, err)
		return
	}
	if ready == 0 {
		return
	}
	if err := k.io.WriteWord(screenDataAddr(terminal), p.PendingData); err != nil {
		k.logger.Printf("sweep: pid %d: writing screen-data: %v", p.PID, err)
		return
	}
	p.TransitionTo(StateReady)
	k.ready.EnqueueTail(p)
}

// sweepWaitPID unblocks a WAIT_PID descriptor once its awaited pid has
// terminated. p.Reg[0] holds the awaited pid (stashed there by sysWait)
// while blocked; completing the wait means replacing it with the
// syscall's actual result, 0, the same way sweepWaitRead and
// sweepWaitWrite overwrite A with their own completed result at
// unblock time.
func (k *Kernel) sweepWaitPID(p *Process) {
	target := k.table.ByPID(p.Reg[0])
	if target == nil || target.State != StateTerminated {
		return
	}
	p.Reg[0] = 0
	p.TransitionTo(StateReady)
	k.ready.EnqueueTail(p)
}
