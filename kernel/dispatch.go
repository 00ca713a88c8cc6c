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

// dispatch decides what the trap-handler stub does next: if no
// non-terminated descriptor remains in the table, it runs shutdown and
// tells the stub to halt. Otherwise, if there is a
// chosen current, its registers and pc are written back into the trap
// frame and the stub is told to resume user mode; if current is absent,
// the stub is told to halt until the next interrupt.
//
// The exhaustion check runs before the resume/halt decision: once every
// descriptor is TERMINATED there is nothing left to schedule, so
// shutdown runs immediately rather than after one more idle dispatch.
func (k *Kernel) dispatch() int {
	if !k.table.AnyNonTerminated() {
		k.runShutdown()
		return 1
	}

	if k.current == nil {
		return 1
	}

	if err := k.mem.WriteWord(AddrPC, k.current.PC); err != nil {
		k.logger.Printf("dispatch: writing ADDR_PC: %v", err)
	}
	if err := k.mem.WriteWord(AddrA, k.current.Reg[0]); err != nil {
		k.logger.Printf("dispatch: writing ADDR_A: %v", err)
	}
	if err := k.mem.WriteWord(AddrX, k.current.Reg[1]); err != nil {
		k.logger.Printf("dispatch: writing ADDR_X: %v", err)
	}
	return 0
}

// runShutdown disables the timer and emits the metrics report to the
// configured metrics writer. Idempotent: safe to call on every
// subsequent trap once the table is exhausted.
func (k *Kernel) runShutdown() {
	if err := k.io.WriteWord(RegTimerInterval, 0); err != nil {
		k.logger.Printf("shutdown: disabling timer interval: %v", err)
	}
	if err := k.io.WriteWord(RegTimerSignal, 0); err != nil {
		k.logger.Printf("shutdown: disabling timer signal: %v", err)
	}
	if err := k.EmitMetrics(k.metricsWriter); err != nil {
		k.logger.Printf("shutdown: emitting metrics: %v", err)
	}
}
