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

package machine

// Memory is the opaque memory array collaborator. The trap frame (saved
// PC, registers, and error code) and loaded program images both live at
// fixed word addresses in it.
type Memory interface {
	ReadWord(addr int) (int, error)
	WriteWord(addr int, value int) error
}

// IOBus is the opaque peripheral bus collaborator: per-terminal keyboard
// and screen registers, the timer, and the instruction clock.
type IOBus interface {
	ReadWord(addr int) (int, error)
	WriteWord(addr int, value int) error
}

// HostCallFunc is the kernel's single entry point, as seen by the CPU. The
// CPU invokes it with the IRQ cause every time the trap-handler stub
// executes the host-call instruction; the return value tells the stub
// whether to resume user mode (0) or halt until the next interrupt (1).
type HostCallFunc func(irq int) int

// CPU is the opaque CPU collaborator. The kernel's only use of it is to
// install itself as the host-call target during boot; everything else
// (fetch, decode, execute, trap delivery) is the CPU's own business.
type CPU interface {
	InstallTrapHandler(fn HostCallFunc)
}

// Segment is one contiguous range of a program image: Data is copied into
// Memory starting at Base.
type Segment struct {
	Base int
	Data []int
}

// Program is an executable image as the loader bridge sees it: an ordered
// list of segments to copy into memory, already parsed from whatever file
// format the real executable reader uses.
type Program struct {
	Segments []Segment
}

// ProgramReader is the opaque executable-file-reader collaborator.
type ProgramReader interface {
	ReadProgram(filename string) (*Program, error)
}
