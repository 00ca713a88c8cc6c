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

// Package scenario plays the role of the user-space programs a real
// deployment would load and run: each simulated program is a small Lua
// script, executed on an embedded gopher-lua VM, whose step function
// decides what syscall (if any) that program's process issues the next
// time the kernel dispatches it. A Harness wires these scripts to a
// kernel.Kernel running against an in-process fake machine, letting
// multi-process end-to-end behavior be expressed as data rather than
// hand-assembled programs.
package scenario
