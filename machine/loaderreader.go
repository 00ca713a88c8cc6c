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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileProgramReader is a minimal real ProgramReader: it resolves a
// filename against Dir and decodes a JSON-encoded Program from it. The
// simulator's own executable format is out of scope; this
// exists so cmd/supervisor has something concrete to point at besides
// FakeProgramReader.
type FileProgramReader struct {
	Dir string
}

// NewFileProgramReader returns a FileProgramReader rooted at dir.
func NewFileProgramReader(dir string) *FileProgramReader {
	return &FileProgramReader{Dir: dir}
}

func (r *FileProgramReader) ReadProgram(filename string) (*Program, error) {
	path := filepath.Join(r.Dir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("file program reader: reading %s: %w", path, err)
	}
	var prog Program
	if err := json.Unmarshal(data, &prog); err != nil {
		return nil, fmt.Errorf("file program reader: decoding %s: %w", path, err)
	}
	if len(prog.Segments) == 0 {
		return nil, fmt.Errorf("file program reader: %s has no segments", path)
	}
	return &prog, nil
}
