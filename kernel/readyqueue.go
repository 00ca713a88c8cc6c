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

// ReadyQueue is the ordered collection of runnable descriptors. Under
// the round-robin and priority policies it holds only READY
// descriptors. The simple policy picks from the process table and never
// dequeues, so under it descriptors stay queued after they leave READY
// (and an unblocked one can be queued twice). A flat slice with linear
// min-scan is adequate here: the priority update only ever touches the
// outgoing runner at scheduling time, so entries already queued never
// change priority while they wait.
type ReadyQueue struct {
	items []*Process
}

// NewReadyQueue returns an empty ready queue.
func NewReadyQueue() *ReadyQueue {
	return &ReadyQueue{}
}

// EnqueueTail appends p to the tail in O(1).
func (q *ReadyQueue) EnqueueTail(p *Process) {
	q.items = append(q.items, p)
}

// RemoveHead pops the descriptor at the head (FIFO / round-robin), or
// returns nil if the queue is empty.
func (q *ReadyQueue) RemoveHead() *Process {
	if len(q.items) == 0 {
		return nil
	}
	p := q.items[0]
	q.items = q.items[1:]
	return p
}

// RemoveMinPriority scans linearly and removes the descriptor with
// numerically smallest Priority; ties are broken by scan (insertion)
// order. Returns nil if the queue is empty.
func (q *ReadyQueue) RemoveMinPriority() *Process {
	if len(q.items) == 0 {
		return nil
	}
	minIdx := 0
	for i := 1; i < len(q.items); i++ {
		if q.items[i].Priority < q.items[minIdx].Priority {
			minIdx = i
		}
	}
	p := q.items[minIdx]
	q.items = append(q.items[:minIdx], q.items[minIdx+1:]...)
	return p
}

// RemovePID scans linearly and unlinks the descriptor with the given
// pid, if present (used by KILL). Returns true if found and removed.
func (q *ReadyQueue) RemovePID(pid int) bool {
	for i, p := range q.items {
		if p.PID == pid {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Empty reports whether the queue holds no descriptors.
func (q *ReadyQueue) Empty() bool {
	return len(q.items) == 0
}

// Len reports the number of queued descriptors.
func (q *ReadyQueue) Len() int {
	return len(q.items)
}

// ProcessTable is the insertion-ordered sequence of every descriptor
// ever created, including TERMINATED ones, which remain reapable for
// pid-based wait resolution and metrics.
type ProcessTable struct {
	procs []*Process
}

// NewProcessTable returns an empty process table.
func NewProcessTable() *ProcessTable {
	return &ProcessTable{}
}

// Add appends a newly created descriptor to the table.
func (t *ProcessTable) Add(p *Process) {
	t.procs = append(t.procs, p)
}

// ByPID returns the descriptor with the given pid, or nil if none
// exists (TERMINATED descriptors are still findable).
func (t *ProcessTable) ByPID(pid int) *Process {
	for _, p := range t.procs {
		if p.PID == pid {
			return p
		}
	}
	return nil
}

// FirstInState returns the first descriptor (table order) in state s,
// or nil if none. Generalizes the original's
// obtem_processo_por_estado, used by the simple/FIFO scheduler.
func (t *ProcessTable) FirstInState(s State) *Process {
	for _, p := range t.procs {
		if p.State == s {
			return p
		}
	}
	return nil
}

// AnyInState reports whether any descriptor is currently in state s.
func (t *ProcessTable) AnyInState(s State) bool {
	return t.FirstInState(s) != nil
}

// AnyNonTerminated reports whether any descriptor in the table has not
// reached TERMINATED (used by dispatch's shutdown-on-exhaustion check).
func (t *ProcessTable) AnyNonTerminated() bool {
	for _, p := range t.procs {
		if p.State != StateTerminated {
			return true
		}
	}
	return false
}

// All returns every descriptor in the table, in insertion order.
func (t *ProcessTable) All() []*Process {
	return t.procs
}

// Len reports the number of descriptors ever created.
func (t *ProcessTable) Len() int {
	return len(t.procs)
}
