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

// saveUserState copies the user state the CPU deposited in the fixed
// trap frame (ADDR_PC, ADDR_A, ADDR_X) into the current descriptor.
// Reading failures are logged but do not abort: the frame is trusted
// on the resume path regardless.
func (k *Kernel) saveUserState() {
	if k.current == nil {
		return
	}
	pc, err := k.mem.ReadWord(AddrPC)
	if err != nil {
		k.logger.Printf("save user state: reading ADDR_PC: %v", err)
	} else {
		k.current.PC = pc
	}
	a, err := k.mem.ReadWord(AddrA)
	if err != nil {
		k.logger.Printf("save user state: reading ADDR_A: %v", err)
	} else {
		k.current.Reg[0] = a
	}
	x, err := k.mem.ReadWord(AddrX)
	if err != nil {
		k.logger.Printf("save user state: reading ADDR_X: %v", err)
	} else {
		k.current.Reg[1] = x
	}
}

// updateClock reads the instruction-clock register and, if a previous
// reading exists, distributes the elapsed delta: into global total
// ticks (and idle ticks if the CPU is currently idle), and into every
// descriptor's current-state accumulated time, turnaround, and response
// time.
func (k *Kernel) updateClock() {
	reading, err := k.io.ReadWord(RegInstrCounter)
	if err != nil {
		k.logger.Printf("update clock: reading instruction counter: %v", err)
		return
	}

	if k.haveLastClock {
		delta := uint64(reading - k.lastClock)
		k.metrics.TotalTicks += delta
		if k.current == nil {
			k.metrics.IdleTicks += delta
		}
		for _, p := range k.table.All() {
			p.addStateTicks(delta)
		}
	}

	k.lastClock = reading
	k.haveLastClock = true
}
