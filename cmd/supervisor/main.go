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

// Command supervisor runs the kernel to completion against an
// in-process fake machine (or, with -serial-port, a real terminal over
// a serial line for keyboard input) and writes the resulting metrics
// report to a file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/pdxjjb/wut4-supervisor/kernel"
	"github.com/pdxjjb/wut4-supervisor/machine"
)

var (
	policy      = flag.Int("policy", int(kernel.PolicySimple), "scheduler policy: 1=priority, 2=round-robin, 3=simple")
	quantum     = flag.Int("quantum", kernel.DefaultQuantum, "timer ticks per quantum")
	interval    = flag.Int("interval", kernel.DefaultInterval, "timer interrupt interval")
	programDir  = flag.String("dir", ".", "directory holding init.maq, trap.maq, and spawnable programs")
	metricsFile = flag.String("metrics", "", "metrics report path (default: "+kernel.DefaultMetricsFile+")")
	serialPort  = flag.String("serial-port", "", "real serial device supplying terminal 0's keyboard input, instead of stdin")
	maxEntries  = flag.Uint64("max-entries", 0, "stop after N kernel entries (0 = unlimited)")
	showVersion = flag.Bool("version", false, "show version and exit")
)

const version = "1.0.0"

var savedTermState *term.State

// setupTerminal puts the controlling terminal in raw mode so keyboard
// bytes reach the fake UART one at a time without line buffering,
// mirroring emul/main.go's setupTerminal.
func setupTerminal() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	state, err := term.GetState(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("getting terminal state: %w", err)
	}
	savedTermState = state
	if _, err := term.MakeRaw(int(os.Stdin.Fd())); err != nil {
		return fmt.Errorf("setting raw mode: %w", err)
	}
	return nil
}

func restoreTerminal() {
	if savedTermState != nil && term.IsTerminal(int(os.Stdin.Fd())) {
		term.Restore(int(os.Stdin.Fd()), savedTermState)
	}
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("wut4-supervisor v%s\n", version)
		os.Exit(0)
	}

	if *metricsFile == "" {
		*metricsFile = kernel.DefaultMetricsFile
	}

	logger := newStderrLogger()

	cfg := kernel.DefaultConfig()
	cfg.Policy = kernel.Policy(*policy)
	cfg.Quantum = *quantum
	cfg.Interval = *interval

	cpu := machine.NewFakeCPU()
	mem := machine.NewFakeMemory()
	iobus := machine.NewFakeIOBus()
	reader := machine.NewFileProgramReader(*programDir)

	k := kernel.New(cfg, cpu, mem, iobus, reader, logger)

	metricsOut, err := os.Create(*metricsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating metrics file: %v\n", err)
		os.Exit(1)
	}
	defer metricsOut.Close()
	k.SetMetricsWriter(metricsOut)

	var console *machine.SerialConsole
	if *serialPort != "" {
		console, err = machine.NewSerialConsole(*serialPort, 9600, logger, false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening serial port: %v\n", err)
			os.Exit(1)
		}
		defer console.Close()
	} else {
		if err := setupTerminal(); err != nil {
			fmt.Fprintf(os.Stderr, "Error setting up terminal: %v\n", err)
			os.Exit(1)
		}
		defer restoreTerminal()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		restoreTerminal()
		os.Exit(130)
	}()

	if err := k.Boot(); err != nil {
		restoreTerminal()
		fmt.Fprintf(os.Stderr, "Error booting kernel: %v\n", err)
		os.Exit(1)
	}

	keys := make(chan byte, 64)
	if console == nil {
		go readStdinBytes(keys)
	}

	fmt.Fprintf(os.Stderr, "wut4-supervisor: booted, policy=%d quantum=%d interval=%d\n", cfg.Policy, cfg.Quantum, cfg.Interval)

	startTime := time.Now()
	entries := uint64(1) // Boot already delivered RESET
	for !k.Done() {
		if *maxEntries > 0 && entries >= *maxEntries {
			fmt.Fprintf(os.Stderr, "\nMax entries reached (%d)\n", *maxEntries)
			break
		}
		pumpTerminalZero(console, iobus, keys)
		iobus.Tick(kernel.RegInstrCounter, cfg.Interval)
		cpu.Trap(int(kernel.IRQTimer))
		entries++
		time.Sleep(time.Millisecond)
	}
	elapsed := time.Since(startTime)

	restoreTerminal()

	fmt.Fprintf(os.Stderr, "\n========================================\n")
	fmt.Fprintf(os.Stderr, "Kernel entries: %d\n", entries)
	fmt.Fprintf(os.Stderr, "Time: %v\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "Metrics written to: %s\n", *metricsFile)
}

// pumpTerminalZero feeds a waiting keyboard byte (from the real serial
// console, or from a background stdin reader) into terminal 0's
// keyboard registers, the same I/O bus registers the kernel polls.
func pumpTerminalZero(console *machine.SerialConsole, iobus *machine.FakeIOBus, keys <-chan byte) {
	if console != nil {
		if console.KeyboardReady() {
			iobus.Poke(kernel.BaseKeyboardData, console.KeyboardData())
			iobus.Poke(kernel.BaseKeyboardReady, 1)
		}
		return
	}
	select {
	case b := <-keys:
		iobus.Poke(kernel.BaseKeyboardData, int(b))
		iobus.Poke(kernel.BaseKeyboardReady, 1)
	default:
	}
}

func readStdinBytes(out chan<- byte) {
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		if n > 0 {
			out <- buf[0]
		}
	}
}

func newStderrLogger() *log.Logger {
	return log.New(os.Stderr, "wut4-supervisor: ", log.LstdFlags)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "wut4-supervisor - run the supervisor kernel to completion\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
}
