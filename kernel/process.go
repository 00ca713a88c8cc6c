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

import "log"

// StateMetrics accumulates the entry count and cumulative tick time a
// descriptor has spent in one lifecycle state.
type StateMetrics struct {
	Entries uint64
	Ticks   uint64
}

// ProcessMetrics is the per-descriptor metrics block: per-state entry
// counts and accumulated time, preemption count, response time, and
// turnaround time.
type ProcessMetrics struct {
	ByState     [4]StateMetrics
	Preemptions uint64
	Turnaround  uint64
	Response    float64
}

// Process is a process descriptor: identity, register save area,
// lifecycle state, block reason, and metrics.
type Process struct {
	PID          int
	PC           int
	Reg          [2]int // Reg[0] = "A", Reg[1] = "X"
	State        State
	BlockReason  BlockReason
	PendingData  int
	Priority     float64
	Metrics      ProcessMetrics
	CreationTick uint64

	logger *log.Logger
}

// NewProcess constructs a descriptor in state READY with both register
// slots zeroed, priority 0.5, zeroed metrics, and the READY entry counter
// bumped to 1.
func NewProcess(pid, pc int, creationTick uint64, logger *log.Logger) *Process {
	p := &Process{
		PID:          pid,
		PC:           pc,
		State:        StateReady,
		BlockReason:  BlockNone,
		Priority:     0.5,
		CreationTick: creationTick,
		logger:       logger,
	}
	p.Metrics.ByState[StateReady].Entries = 1
	return p
}

// TransitionTo moves the descriptor to state s. It increments the
// process's preemption counter when the transition matches the
// preemption pattern (RUNNING→READY), increments the destination
// state's entry counter unconditionally, and logs diagnostically.
// State writes are not idempotent: re-entering the current state still
// bumps its entry counter.
func (p *Process) TransitionTo(s State) {
	if p.State == StateRunning && s == StateReady {
		p.Metrics.Preemptions++
	}
	from := p.State
	p.State = s
	p.Metrics.ByState[s].Entries++
	if p.logger != nil {
		p.logger.Printf("pid %d: %s -> %s", p.PID, from, s)
	}
}

// addStateTicks adds delta ticks to the process's current-state
// accumulated time, and to turnaround unless the process is TERMINATED
//.
func (p *Process) addStateTicks(delta uint64) {
	p.Metrics.ByState[p.State].Ticks += delta
	if p.State != StateTerminated {
		p.Metrics.Turnaround += delta
	}
	p.recomputeResponse()
	if p.logger != nil {
		p.logger.Printf("Processo PID: %d, Tempo: %d, Estado: %s", p.PID, p.Metrics.ByState[p.State].Ticks, p.State)
	}
}

// recomputeResponse recomputes response time as accumulated-READY-time
// over READY-entry-count, when the denominator is positive: a
// mean-wait approximation of first-response latency.
func (p *Process) recomputeResponse() {
	rm := p.Metrics.ByState[StateReady]
	if rm.Entries > 0 {
		p.Metrics.Response = float64(rm.Ticks) / float64(rm.Entries)
	}
}
