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

// schedule picks the next descriptor to run: it updates the
// outgoing current's priority, applies the configured policy, and
// settles on the chosen descriptor.
func (k *Kernel) schedule() {
	k.updatePriority()

	var chosen *Process
	switch k.cfg.Policy {
	case PolicySimple:
		chosen = k.scheduleSimple()
	case PolicyRoundRobin:
		chosen = k.scheduleRoundRobin()
	case PolicyPriority:
		chosen = k.schedulePriority()
	default:
		chosen = k.scheduleSimple()
	}

	k.settle(chosen)
}

// updatePriority penalizes the outgoing current in proportion to how
// much of its quantum it consumed: a process that used more of its
// quantum is pushed toward lower precedence (a larger numeric
// priority). Applied unconditionally before policy dispatch.
func (k *Kernel) updatePriority() {
	if k.current == nil || k.current.State != StateRunning {
		return
	}
	quantum := float64(k.cfg.Quantum)
	if quantum <= 0 {
		return
	}
	remaining := float64(k.quantum)
	k.current.Priority += ((quantum - remaining) / quantum) / 2
}

// scheduleSimple implements policy 3 (FIFO-ish): keep the current
// process if it is still RUNNING, else pick the first READY descriptor
// in table order. If none is READY but some are BLOCKED, idle. If none
// at all, flag internal error to signal shutdown.
func (k *Kernel) scheduleSimple() *Process {
	if k.current != nil && k.current.State == StateRunning {
		return k.current
	}
	chosen := k.table.FirstInState(StateReady)
	if chosen == nil && !k.table.AnyInState(StateBlocked) {
		k.internalError = true
	}
	return chosen
}

// scheduleRoundRobin implements policy 2: keep current while RUNNING
// with quantum remaining; otherwise requeue it at the tail and pop the
// head of the ready queue.
func (k *Kernel) scheduleRoundRobin() *Process {
	if k.current != nil && k.current.State == StateRunning {
		if k.quantum > 0 {
			return k.current
		}
		k.ready.EnqueueTail(k.current)
	}
	return k.ready.RemoveHead()
}

// schedulePriority implements policy 1: keep current while RUNNING with
// quantum remaining; otherwise requeue it at the tail and remove the
// descriptor of minimum priority from the ready queue.
func (k *Kernel) schedulePriority() *Process {
	if k.current != nil && k.current.State == StateRunning {
		if k.quantum > 0 {
			return k.current
		}
		k.ready.EnqueueTail(k.current)
	}
	return k.ready.RemoveMinPriority()
}

// settle carries out the execution transition once the
// policy has chosen a descriptor: the outgoing current, if it is being
// replaced and still RUNNING, moves to READY and counts as a global
// preemption; the incoming descriptor, if not already RUNNING, moves to
// RUNNING; current is then set. The quantum is refilled only when a
// different descriptor takes the CPU or the kept one has used it up, so
// a process kept by its policy keeps counting down toward expiry.
func (k *Kernel) settle(chosen *Process) {
	prev := k.current
	if chosen == nil {
		k.logger.Printf("scheduler: no process selected, idling")
	} else {
		k.logger.Printf("scheduler: selecting pid %d (state %s, priority %.3f)", chosen.PID, chosen.State, chosen.Priority)
	}
	if prev != nil && chosen != prev && prev.State == StateRunning {
		prev.TransitionTo(StateReady)
		k.metrics.Preemptions++
	}
	if chosen != nil && chosen.State != StateRunning {
		chosen.TransitionTo(StateRunning)
	}
	k.current = chosen
	if chosen != prev || k.quantum <= 0 {
		k.quantum = k.cfg.Quantum
	}
}
