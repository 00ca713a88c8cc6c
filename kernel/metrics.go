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
	"sort"
)

// Metrics returns a snapshot of the kernel-wide metrics block.
func (k *Kernel) Metrics() GlobalMetrics {
	return k.metrics
}

// Processes returns every descriptor ever created, in creation order,
// for callers that want to inspect per-process metrics directly.
func (k *Kernel) Processes() []*Process {
	return k.table.All()
}

// EmitMetrics writes a human-readable metrics report to w: global
// counters, per-IRQ counts, and per-process preemption/response/
// turnaround and per-state entry/tick counts. The exact layout is not
// load-bearing; tests assert field presence and numeric
// invariants, not column alignment.
func (k *Kernel) EmitMetrics(w io.Writer) error {
	bw := func(format string, args ...any) error {
		_, err := fmt.Fprintf(w, format, args...)
		return err
	}

	if err := bw("=== kernel metrics ===\n"); err != nil {
		return err
	}
	if err := bw("total_ticks: %d\n", k.metrics.TotalTicks); err != nil {
		return err
	}
	if err := bw("idle_ticks: %d\n", k.metrics.IdleTicks); err != nil {
		return err
	}
	if err := bw("preemptions: %d\n", k.metrics.Preemptions); err != nil {
		return err
	}

	codes := make([]IRQCode, 0, len(k.metrics.IRQCounts))
	for c := range k.metrics.IRQCounts {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	if err := bw("irq_counts:\n"); err != nil {
		return err
	}
	for _, c := range codes {
		if err := bw("  %s: %d\n", c, k.metrics.IRQCounts[c]); err != nil {
			return err
		}
	}

	if err := bw("processes:\n"); err != nil {
		return err
	}
	for _, p := range k.table.All() {
		if err := bw("  pid %d: state=%s preemptions=%d response=%.3f turnaround=%d\n",
			p.PID, p.State, p.Metrics.Preemptions, p.Metrics.Response, p.Metrics.Turnaround); err != nil {
			return err
		}
		for s := StateReady; s <= StateTerminated; s++ {
			sm := p.Metrics.ByState[s]
			if err := bw("    %s: entries=%d ticks=%d\n", s, sm.Entries, sm.Ticks); err != nil {
				return err
			}
		}
	}

	return nil
}
