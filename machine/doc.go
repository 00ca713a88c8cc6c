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

// Package machine declares the contracts the kernel package uses to talk
// to its external collaborators — the CPU, the memory array, the I/O bus,
// and the executable loader — and provides one reference implementation
// of each for tests, the demo binary, and the scripted scenario harness.
//
// None of these are the supervisor kernel's concern: a real deployment
// would plug in a CPU simulator, a memory-mapped peripheral bus, and a
// loader that reads the machine's own executable format. This package
// exists so the kernel package can be compiled and tested without any of
// that machinery.
package machine
