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

package machine

import (
	"fmt"
	"log"
	"time"

	"go.bug.st/serial"
)

// SerialConsole is a real-hardware terminal backend for one of the
// kernel's four logical terminals: a physical serial port standing in
// for the simulated keyboard/screen device pair, modeled on
// dev.Arduino's serial.Open/serial.Mode usage.
type SerialConsole struct {
	port  serial.Port
	log   *log.Logger
	debug bool

	pending byte
	hasData bool
}

// NewSerialConsole opens deviceName at baudRate with a short read
// timeout and returns a SerialConsole reading and writing raw bytes
// over it.
func NewSerialConsole(deviceName string, baudRate int, logger *log.Logger, debug bool) (*SerialConsole, error) {
	mode := &serial.Mode{BaudRate: baudRate}
	port, err := serial.Open(deviceName, mode)
	if err != nil {
		return nil, fmt.Errorf("serial console: opening %s: %w", deviceName, err)
	}
	if err := port.SetReadTimeout(time.Millisecond); err != nil {
		port.Close()
		return nil, fmt.Errorf("serial console: setting read timeout on %s: %w", deviceName, err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SerialConsole{port: port, log: logger, debug: debug}, nil
}

// Close releases the underlying serial port.
func (c *SerialConsole) Close() error {
	return c.port.Close()
}

// poll performs a non-blocking check for one waiting byte, filling
// pending/hasData if one arrived. Real terminal hardware has no
// "bytes available" query, so this relies on the short read timeout
// NewSerialConsole sets on the port.
func (c *SerialConsole) poll() {
	if c.hasData {
		return
	}
	buf := make([]byte, 1)
	n, err := c.port.Read(buf)
	if err != nil {
		if c.debug {
			c.log.Printf("serial console: read: %v", err)
		}
		return
	}
	if n > 0 {
		c.pending = buf[0]
		c.hasData = true
	}
}

// KeyboardReady reports whether a byte is waiting to be read.
func (c *SerialConsole) KeyboardReady() bool {
	c.poll()
	return c.hasData
}

// KeyboardData consumes and returns the waiting byte as a word, or 0 if
// none is waiting.
func (c *SerialConsole) KeyboardData() int {
	c.poll()
	if !c.hasData {
		return 0
	}
	c.hasData = false
	return int(c.pending)
}

// ScreenReady always reports true: a serial port is always writable
// from the kernel's perspective (it may simply buffer).
func (c *SerialConsole) ScreenReady() bool {
	return true
}

// ScreenWrite writes one word, truncated to a byte, to the port.
func (c *SerialConsole) ScreenWrite(word int) error {
	_, err := c.port.Write([]byte{byte(word)})
	if err != nil {
		return fmt.Errorf("serial console: write: %w", err)
	}
	return nil
}
