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

// maxFilenameLen bounds the NUL-terminated filename SPAWN copies out of
// user memory.
const maxFilenameLen = 100

// dispatchSyscall routes the call number saved in the current
// descriptor's A register to its handler. It reports false for an
// unrecognized call number, which the caller treats as the offending
// process's death sentence.
//
// Every handler writes its result directly into the current
// descriptor's Reg[0], never into ADDR_A mid-syscall: the dispatcher
// unconditionally writes the descriptor's Reg[0] back into ADDR_A
// on resume, so a mid-syscall memory write would just be clobbered.
// SPAWN's register-0 return falls out of this naturally.
func (k *Kernel) dispatchSyscall(callNum int) bool {
	switch callNum {
	case CallRead:
		k.sysRead()
	case CallWrite:
		k.sysWrite()
	case CallSpawn:
		k.sysSpawn()
	case CallKill:
		k.sysKill()
	case CallWait:
		k.sysWait()
	default:
		return false
	}
	return true
}

// sysRead implements READ(1): read one word from the caller's terminal
// keyboard, blocking WAIT_READ if it is not yet ready.
func (k *Kernel) sysRead() {
	p := k.current
	terminal := terminalFor(p.PID)

	ready, err := k.io.ReadWord(keyboardReadyAddr(terminal))
	if err != nil {
		k.logger.Printf("read: pid %d: reading keyboard-ready: %v", p.PID, err)
		p.Reg[0] = -1
		return
	}
	if ready == 0 {
		p.BlockReason = WaitRead
		p.TransitionTo(StateBlocked)
		return
	}

	data, err := k.io.ReadWord(keyboardDataAddr(terminal))
	if err != nil {
		k.logger.Printf("read: pid %d: reading keyboard-data: %v", p.PID, err)
		p.Reg[0] = -1
		return
	}
	p.Reg[0] = data
}

// sysWrite implements WRITE(2): write the argument word to the
// caller's terminal screen, blocking WAIT_WRITE if it is not yet ready.
func (k *Kernel) sysWrite() {
	p := k.current
	terminal := terminalFor(p.PID)
	char := p.Reg[1]

	ready, err := k.io.ReadWord(screenReadyAddr(terminal))
	if err != nil {
		k.logger.Printf("write: pid %d: reading screen-ready: %v", p.PID, err)
		p.Reg[0] = -1
		return
	}
	if ready == 0 {
		p.PendingData = char
		p.BlockReason = WaitWrite
		p.TransitionTo(StateBlocked)
		return
	}

	if err := k.io.WriteWord(screenDataAddr(terminal), char); err != nil {
		k.logger.Printf("write: pid %d: writing screen-data: %v", p.PID, err)
		p.Reg[0] = -1
		return
	}
	p.Reg[0] = 0
}

// sysSpawn implements SPAWN(7): copy the NUL-terminated filename out of
// the caller's memory, load it, and create a new READY descriptor for
// it. Returns the new pid in the caller's Reg[0] or -1.
func (k *Kernel) sysSpawn() {
	p := k.current
	name, ok := k.readCString(p.Reg[1], maxFilenameLen)
	if !ok {
		p.Reg[0] = -1
		return
	}

	entry, err := k.loader.LoadProgram(name)
	if err != nil {
		k.logger.Printf("spawn: pid %d: loading %q: %v", p.PID, name, err)
		p.Reg[0] = -1
		return
	}

	child := NewProcess(k.nextPID, entry, k.metrics.TotalTicks, k.logger)
	k.nextPID++
	k.table.Add(child)
	k.ready.EnqueueTail(child)

	p.Reg[0] = child.PID
}

// sysKill implements KILL(8): pid=0 means "self". Terminates the
// target, clearing it as current and out of the ready queue if needed.
func (k *Kernel) sysKill() {
	caller := k.current
	pid := caller.Reg[1]
	if pid == 0 {
		pid = caller.PID
	}

	target := k.table.ByPID(pid)
	if target == nil {
		caller.Reg[0] = -1
		return
	}
	k.killProcess(target)
	caller.Reg[0] = 0
}

// sysWait implements WAIT(9): blocks the caller on the target pid's
// termination, or returns immediately if the target is unknown,
// already terminated, or is the caller itself.
func (k *Kernel) sysWait() {
	p := k.current
	targetPID := p.Reg[1]

	if targetPID == p.PID {
		p.Reg[0] = -1
		return
	}
	target := k.table.ByPID(targetPID)
	if target == nil {
		p.Reg[0] = -1
		return
	}
	if target.State == StateTerminated {
		p.Reg[0] = 0
		return
	}

	p.Reg[0] = targetPID
	p.BlockReason = WaitPID
	p.TransitionTo(StateBlocked)
}

// killProcess transitions target to TERMINATED, clears it as current if
// it was running, and unlinks it from the ready queue.
func (k *Kernel) killProcess(target *Process) {
	target.TransitionTo(StateTerminated)
	if k.current == target {
		k.current = nil
	}
	k.ready.RemovePID(target.PID)
}

// readCString copies a NUL-terminated string out of memory one word at
// a time, starting at addr. A byte outside [0,255] or a read failure
// aborts with false; exceeding maxLen without a terminator also fails
//.
func (k *Kernel) readCString(addr, maxLen int) (string, bool) {
	buf := make([]byte, 0, maxLen)
	for i := 0; i < maxLen; i++ {
		w, err := k.mem.ReadWord(addr + i)
		if err != nil {
			return "", false
		}
		if w < 0 || w > 255 {
			return "", false
		}
		if w == 0 {
			return string(buf), true
		}
		buf = append(buf, byte(w))
	}
	return "", false
}
