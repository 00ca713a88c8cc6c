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

// Package kernel implements the supervisor kernel of a teaching-grade
// computer simulator: the code that runs inside the simulated machine's
// privileged mode, multiplexes its single CPU across many user processes,
// serves their system calls, and reclaims control on every trap.
//
// The kernel has exactly one entry point, Kernel.Entry, invoked by an
// external trap-handler stub with the IRQ cause that fired. Everything
// else — the CPU, the memory array, the I/O bus, and the executable
// loader — is an opaque external collaborator reached only through the
// interfaces in package machine; diagnostic output goes to an injected
// *log.Logger.
package kernel
