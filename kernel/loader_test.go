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
	"testing"

	"github.com/pdxjjb/wut4-supervisor/machine"
)

func TestLoaderCopiesSegmentsAndReturnsEntryBase(t *testing.T) {
	mem := machine.NewFakeMemory()
	reader := machine.NewFakeProgramReader()
	reader.Register("p.maq", &machine.Program{
		Segments: []machine.Segment{{Base: 0x4000, Data: []int{11, 22, 33}}},
	})
	loader := NewLoader(reader, mem, testLogger())

	entry, err := loader.LoadProgram("p.maq")
	if err != nil {
		t.Fatalf("LoadProgram() = %v", err)
	}
	if entry != 0x4000 {
		t.Fatalf("entry = %#x, want 0x4000", entry)
	}
	for i, want := range []int{11, 22, 33} {
		got, _ := mem.ReadWord(0x4000 + i)
		if got != want {
			t.Fatalf("word %d = %d, want %d", i, got, want)
		}
	}
}

func TestLoaderPropagatesReaderFailure(t *testing.T) {
	mem := machine.NewFakeMemory()
	reader := machine.NewFakeProgramReader()
	loader := NewLoader(reader, mem, testLogger())

	if _, err := loader.LoadProgram("missing.maq"); err == nil {
		t.Fatalf("expected error for unregistered program")
	}
}

func TestLoaderPropagatesMemoryWriteFailure(t *testing.T) {
	mem := machine.NewFakeMemory()
	mem.FaultWrite(0x4000, true)
	reader := machine.NewFakeProgramReader()
	reader.Register("p.maq", &machine.Program{
		Segments: []machine.Segment{{Base: 0x4000, Data: []int{1}}},
	})
	loader := NewLoader(reader, mem, testLogger())

	if _, err := loader.LoadProgram("p.maq"); err == nil {
		t.Fatalf("expected error when memory write fails")
	}
}
