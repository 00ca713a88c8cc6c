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

import "testing"

func TestReadyQueueFIFOOrder(t *testing.T) {
	q := NewReadyQueue()
	a := NewProcess(1, 0, 0, testLogger())
	b := NewProcess(2, 0, 0, testLogger())
	q.EnqueueTail(a)
	q.EnqueueTail(b)

	if got := q.RemoveHead(); got != a {
		t.Fatalf("head = pid %d, want pid %d", got.PID, a.PID)
	}
	if got := q.RemoveHead(); got != b {
		t.Fatalf("head = pid %d, want pid %d", got.PID, b.PID)
	}
	if !q.Empty() {
		t.Fatalf("queue should be empty")
	}
	if q.RemoveHead() != nil {
		t.Fatalf("RemoveHead on empty queue should return nil")
	}
}

func TestReadyQueueMinPriorityTieBreaksByInsertionOrder(t *testing.T) {
	q := NewReadyQueue()
	a := NewProcess(1, 0, 0, testLogger())
	b := NewProcess(2, 0, 0, testLogger())
	c := NewProcess(3, 0, 0, testLogger())
	a.Priority, b.Priority, c.Priority = 0.5, 0.2, 0.2

	q.EnqueueTail(a)
	q.EnqueueTail(b)
	q.EnqueueTail(c)

	got := q.RemoveMinPriority()
	if got != b {
		t.Fatalf("min priority = pid %d, want pid %d (first of the tied pair)", got.PID, b.PID)
	}
	if q.Len() != 2 {
		t.Fatalf("queue length = %d, want 2", q.Len())
	}
}

func TestReadyQueueRemovePID(t *testing.T) {
	q := NewReadyQueue()
	a := NewProcess(1, 0, 0, testLogger())
	b := NewProcess(2, 0, 0, testLogger())
	q.EnqueueTail(a)
	q.EnqueueTail(b)

	if !q.RemovePID(1) {
		t.Fatalf("RemovePID(1) = false, want true")
	}
	if q.RemovePID(1) {
		t.Fatalf("RemovePID(1) again should be false")
	}
	if got := q.RemoveHead(); got != b {
		t.Fatalf("remaining head = pid %d, want pid %d", got.PID, b.PID)
	}
}

func TestProcessTableFirstInStateAndExhaustion(t *testing.T) {
	table := NewProcessTable()
	a := NewProcess(1, 0, 0, testLogger())
	b := NewProcess(2, 0, 0, testLogger())
	table.Add(a)
	table.Add(b)

	if got := table.FirstInState(StateReady); got != a {
		t.Fatalf("first ready = pid %d, want pid %d", got.PID, a.PID)
	}

	a.TransitionTo(StateTerminated)
	if !table.AnyNonTerminated() {
		t.Fatalf("table should still have a non-terminated descriptor")
	}

	b.TransitionTo(StateTerminated)
	if table.AnyNonTerminated() {
		t.Fatalf("table should report exhaustion once every descriptor is terminated")
	}
}
