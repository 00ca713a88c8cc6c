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

// Entry is the kernel's single entry point: the
// assembly trap-handler stub invokes it with the IRQ cause that fired.
// It saves user state, dispatches the cause, sweeps pending I/O,
// schedules, and dispatches the chosen descriptor back into the trap
// frame, returning 0 (resume a user process) or 1 (halt until the next
// interrupt).
func (k *Kernel) Entry(irq int) int {
	code := IRQCode(irq)
	k.metrics.IRQCounts[code]++

	k.saveUserState()
	k.updateClock()

	k.dispatchIRQ(code)

	k.sweepPendingIO()
	k.schedule()

	return k.dispatch()
}

// dispatchIRQ routes the trap cause to its handler.
func (k *Kernel) dispatchIRQ(code IRQCode) {
	switch code {
	case IRQReset:
		k.handleReset()
	case IRQSyscall:
		k.handleSyscall()
	case IRQCPUError:
		k.handleCPUError()
	case IRQTimer:
		k.handleTimer()
	default:
		k.internalError = true
	}
}

// handleReset synthesizes the first user process: loads init.maq,
// creates descriptor pid=1, makes it the RUNNING current, and writes its
// pc into ADDR_PC.
func (k *Kernel) handleReset() {
	entry, err := k.loader.LoadProgram(InitProgram)
	if err != nil {
		k.logger.Printf("reset: loading %s: %v", InitProgram, err)
		k.internalError = true
		return
	}

	p := NewProcess(k.nextPID, entry, k.metrics.TotalTicks, k.logger)
	k.nextPID++
	k.table.Add(p)
	p.TransitionTo(StateRunning)
	k.current = p

	if err := k.mem.WriteWord(AddrPC, p.PC); err != nil {
		k.logger.Printf("reset: writing ADDR_PC: %v", err)
	}
}

// handleSyscall reads the call number saved from the trap frame into
// the current descriptor's A register and dispatches to the syscall
// layer. Unknown call numbers kill the calling process.
func (k *Kernel) handleSyscall() {
	if k.current == nil {
		k.internalError = true
		return
	}
	callNum := k.current.Reg[0]
	if !k.dispatchSyscall(callNum) {
		k.killProcess(k.current)
	}
}

// handleCPUError logs the CPU error code and terminates the offending
// process. The original source conflates a block reason into the
// state field here; this redesigns it to state=TERMINATED
// with block reason left untouched, matching the logged intent.
func (k *Kernel) handleCPUError() {
	if k.current == nil {
		k.internalError = true
		return
	}
	code, err := k.mem.ReadWord(AddrErr)
	if err != nil {
		k.logger.Printf("cpu error: reading ADDR_ERR: %v", err)
	} else {
		k.logger.Printf("cpu error: pid %d: code %d", k.current.PID, code)
	}
	k.current.TransitionTo(StateTerminated)
	k.internalError = true
	k.current = nil
}

// handleTimer rearms the timer peripheral and decrements the running
// process's remaining quantum, floored at 0.
func (k *Kernel) handleTimer() {
	if err := k.io.WriteWord(RegTimerSignal, 0); err != nil {
		k.logger.Printf("timer: clearing interrupt signal: %v", err)
	}
	if err := k.io.WriteWord(RegTimerInterval, k.cfg.Interval); err != nil {
		k.logger.Printf("timer: rearming interval: %v", err)
	}
	if k.quantum > 0 {
		k.quantum--
	}
}
