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
	"fmt"
	"log"

	"github.com/pdxjjb/wut4-supervisor/machine"
)

// Loader is the adapter around the external program reader: it
// copies a parsed program's segments into the memory image and reports
// the entry address.
type Loader struct {
	reader machine.ProgramReader
	mem    machine.Memory
	logger *log.Logger
}

// NewLoader constructs a Loader bridging reader and mem.
func NewLoader(reader machine.ProgramReader, mem machine.Memory, logger *log.Logger) *Loader {
	return &Loader{reader: reader, mem: mem, logger: logger}
}

// LoadProgram reads filename via the external reader, copies every
// word of every declared segment into memory at its declared base, and
// returns the first segment's base as the entry address. Any reader or
// memory-write failure is surfaced to the caller, who decides whether
// it is fatal.
func (l *Loader) LoadProgram(filename string) (int, error) {
	prog, err := l.reader.ReadProgram(filename)
	if err != nil {
		return -1, fmt.Errorf("loading %q: %w", filename, err)
	}
	if prog == nil || len(prog.Segments) == 0 {
		return -1, fmt.Errorf("loading %q: empty program", filename)
	}

	for _, seg := range prog.Segments {
		for i, word := range seg.Data {
			if err := l.mem.WriteWord(seg.Base+i, word); err != nil {
				return -1, fmt.Errorf("loading %q: writing word %d of segment at %#x: %w", filename, i, seg.Base, err)
			}
		}
	}

	return prog.Segments[0].Base, nil
}
