// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package token

import (
	"fmt"
	"sort"

	"github.com/rivo/uniseg"
)

// Position identifies a location in an input source.
type Position struct {
	Filename string
	// Line and Col are 1-based. Col counts grapheme clusters, not bytes, so
	// a reported column matches what an editor shows.
	Line, Col int
	// Offset is the zero-based byte offset into the input.
	Offset int
}

func (p Position) String() string {
	if p.Line <= 0 || p.Col <= 0 {
		return p.Filename
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Col)
}

// FileInfo resolves byte offsets in a source buffer to positions. A lexer
// accumulates tokens with byte offsets and uses a FileInfo to attach
// line/column information.
type FileInfo struct {
	name string
	data []byte
	// Zero-based byte offset at which each line begins. lines[0] is always 0.
	lines []int
}

// NewFileInfo indexes the line structure of contents.
func NewFileInfo(filename string, contents []byte) *FileInfo {
	fi := &FileInfo{name: filename, data: contents, lines: []int{0}}
	for i, b := range contents {
		if b == '\n' {
			fi.lines = append(fi.lines, i+1)
		}
	}
	return fi
}

func (f *FileInfo) Name() string {
	return f.name
}

// Position resolves a byte offset to a Position. Offsets past the end of the
// input resolve to one past the last column of the last line.
func (f *FileInfo) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(f.data) {
		offset = len(f.data)
	}
	// Find the last line starting at or before offset.
	line := sort.Search(len(f.lines), func(i int) bool { return f.lines[i] > offset }) - 1
	start := f.lines[line]
	return Position{
		Filename: f.name,
		Line:     line + 1,
		Col:      uniseg.GraphemeClusterCount(string(f.data[start:offset])) + 1,
		Offset:   offset,
	}
}
