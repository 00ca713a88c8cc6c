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
	"io"
	"log"

	"github.com/pdxjjb/wut4-supervisor/machine"
)

// Config holds the kernel's tunables: these are ordinary
// struct fields rather than compile-time constants so tests can drive
// all three policies and alternate quanta without recompilation, while
// cmd/supervisor still exposes them as CLI flags.
type Config struct {
	Interval           int
	Quantum            int
	Policy             Policy
	Terminals          int
	TrapHandlerProgram string
	MetricsFile        string
}

// DefaultConfig returns the standard tunables: INTERVAL=20, QUANTUM=5,
// policy 3 (simple/FIFO), 4 terminals.
func DefaultConfig() Config {
	return Config{
		Interval:           DefaultInterval,
		Quantum:            DefaultQuantum,
		Policy:             PolicySimple,
		Terminals:          NumTerminals,
		TrapHandlerProgram: "trap.maq",
		MetricsFile:        DefaultMetricsFile,
	}
}

// GlobalMetrics is the kernel-wide metrics block: total and
// idle tick counts, per-IRQ counts, and the global preemption count.
type GlobalMetrics struct {
	TotalTicks  uint64
	IdleTicks   uint64
	IRQCounts   map[IRQCode]uint64
	Preemptions uint64
}

// Kernel holds all kernel state: handles to
// its external collaborators, the process table, the ready queue, the
// currently-running descriptor, scheduling bookkeeping, and metrics.
// Modeled as a single value threaded through every operation rather
// than process-wide globals.
type Kernel struct {
	cfg Config

	cpu    machine.CPU
	mem    machine.Memory
	io     machine.IOBus
	reader machine.ProgramReader
	loader *Loader

	logger *log.Logger

	table   *ProcessTable
	ready   *ReadyQueue
	current *Process
	nextPID int

	quantum int

	lastClock     int
	haveLastClock bool
	internalError bool

	metrics       GlobalMetrics
	metricsWriter io.Writer
}

// New constructs a Kernel wired to the given collaborators. A nil logger
// installs a discarding logger (exer/cex/dev.Arduino's injected-logger
// convention).
func New(cfg Config, cpu machine.CPU, mem machine.Memory, iobus machine.IOBus, reader machine.ProgramReader, logger *log.Logger) *Kernel {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Kernel{
		cfg:           cfg,
		cpu:           cpu,
		mem:           mem,
		io:            iobus,
		reader:        reader,
		loader:        NewLoader(reader, mem, logger),
		logger:        logger,
		table:         NewProcessTable(),
		ready:         NewReadyQueue(),
		nextPID:       1,
		quantum:       cfg.Quantum,
		metrics:       GlobalMetrics{IRQCounts: make(map[IRQCode]uint64)},
		metricsWriter: io.Discard,
	}
}

// SetMetricsWriter sets the destination the kernel writes its metrics
// report to when shutdown is triggered automatically, from inside
// dispatch, by process-table exhaustion. Metrics file
// emission itself is an external convenience; by default
// the report is discarded unless a caller wires a real sink.
func (k *Kernel) SetMetricsWriter(w io.Writer) {
	k.metricsWriter = w
}

// Boot installs the kernel as the CPU's host-call target, loads the
// trap-handler image at the fixed trap vector (verifying the loader's
// returned base matches ADDR_TRAP_VECTOR), programs the timer to the
// configured interval, and synthesizes the first kernel entry (RESET)
// to bring up pid 1.
func (k *Kernel) Boot() error {
	k.cpu.InstallTrapHandler(k.Entry)

	base, err := k.loader.LoadProgram(k.cfg.TrapHandlerProgram)
	if err != nil {
		k.internalError = true
		return fmt.Errorf("boot: loading trap handler %q: %w", k.cfg.TrapHandlerProgram, err)
	}
	if base != AddrTrapVector {
		k.internalError = true
		return fmt.Errorf("boot: trap handler loaded at %#x, want trap vector %#x", base, AddrTrapVector)
	}

	if err := k.io.WriteWord(RegTimerInterval, k.cfg.Interval); err != nil {
		return fmt.Errorf("boot: programming timer interval: %w", err)
	}

	k.Entry(int(IRQReset))
	return nil
}

// Shutdown disables the timer and emits the metrics report to w.
// Idempotent: calling it more than once just writes the same report
// again.
func (k *Kernel) Shutdown(w io.Writer) error {
	if err := k.io.WriteWord(RegTimerInterval, 0); err != nil {
		k.logger.Printf("shutdown: disabling timer interval: %v", err)
	}
	if err := k.io.WriteWord(RegTimerSignal, 0); err != nil {
		k.logger.Printf("shutdown: disabling timer signal: %v", err)
	}
	return k.EmitMetrics(w)
}

// InternalError reports whether the kernel has flagged an internal
// failure since boot.
func (k *Kernel) InternalError() bool {
	return k.internalError
}

// Done reports whether every descriptor in the table has reached
// TERMINATED, i.e. whether the next dispatch will run shutdown.
func (k *Kernel) Done() bool {
	return !k.table.AnyNonTerminated()
}

// CurrentPID returns the pid of the currently RUNNING descriptor, or
// (0, false) if the CPU is idle.
func (k *Kernel) CurrentPID() (int, bool) {
	if k.current == nil {
		return 0, false
	}
	return k.current.PID, true
}
