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

package scenario

import "embed"

// scripts holds the bundled .lua programs used to drive the end-to-end
// scenarios; callers read them with ScriptSource rather than reaching
// into the embedded tree directly.
//
//go:embed scripts/*.lua
var scripts embed.FS

// ScriptSource returns the source of the bundled script named name
// (without the "scripts/" prefix or ".lua" suffix), e.g. "s3_init".
func ScriptSource(name string) (string, error) {
	b, err := scripts.ReadFile("scripts/" + name + ".lua")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
