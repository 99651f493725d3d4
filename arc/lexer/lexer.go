// Copyright 2024 The Arcana Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package lexer provides the character-level scanning primitives that
// package parser builds its recursive-descent grammar on, in the
// style of cue/scanner.Scanner.next: a single rune of current state,
// advanced one codepoint at a time, with line tracking for position
// reporting.
//
// Arcana's grammar is "free text punctuated by two-character tag
// openers" rather than a fixed token grammar, so unlike cue/scanner,
// Lexer does not itself recognize tokens -- it only exposes the
// primitives (current rune, peek, advance, position) that the parser
// uses to recognize tag sigils, block delimiters, and escapes itself.
package lexer

import "unicode/utf8"

import "arcana.dev/arcana/arc/token"

// EOF is returned by Cur once the source is exhausted.
const EOF rune = -1

// Lexer scans a single source buffer one rune at a time.
type Lexer struct {
	file     *token.File
	src      []byte
	ch       rune
	offset   int
	rdOffset int
}

// New creates a Lexer over src, named name for position reporting.
func New(name string, src []byte) *Lexer {
	l := &Lexer{file: token.NewFile(name, len(src)), src: src}
	l.Advance()
	return l
}

// File returns the underlying position-tracking file.
func (l *Lexer) File() *token.File { return l.file }

// Cur returns the current rune, or EOF at end of input.
func (l *Lexer) Cur() rune { return l.ch }

// Offset returns the byte offset of the current rune.
func (l *Lexer) Offset() int { return l.offset }

// Pos converts a byte offset into a reportable Position.
func (l *Lexer) Pos(offset int) token.Position { return l.file.Position(offset) }

// AtEOF reports whether the current rune is EOF.
func (l *Lexer) AtEOF() bool { return l.ch == EOF }

// Advance reads the next rune into Cur.
func (l *Lexer) Advance() {
	if l.rdOffset < len(l.src) {
		l.offset = l.rdOffset
		if l.ch == '\n' {
			l.file.AddLine(l.offset)
		}
		r, w := rune(l.src[l.rdOffset]), 1
		if r >= utf8.RuneSelf {
			r, w = utf8.DecodeRune(l.src[l.rdOffset:])
		}
		l.rdOffset += w
		l.ch = r
	} else {
		l.offset = len(l.src)
		if l.ch == '\n' {
			l.file.AddLine(l.offset)
		}
		l.ch = EOF
	}
}

// Peek returns the rune after Cur without consuming it.
func (l *Lexer) Peek() rune {
	if l.rdOffset >= len(l.src) {
		return EOF
	}
	r := rune(l.src[l.rdOffset])
	if r >= utf8.RuneSelf {
		r, _ = utf8.DecodeRune(l.src[l.rdOffset:])
	}
	return r
}

// Slice returns the raw source bytes between two offsets as a string.
func (l *Lexer) Slice(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(l.src) {
		end = len(l.src)
	}
	if start >= end {
		return ""
	}
	return string(l.src[start:end])
}

// Len returns the length of the source buffer in bytes.
func (l *Lexer) Len() int { return len(l.src) }

// Mark captures the lexer's current scan position so the parser can
// speculatively scan ahead (e.g. to check whether an optional block
// follows a tag) and roll back if the lookahead doesn't pan out.
type Mark struct {
	ch       rune
	offset   int
	rdOffset int
}

// Mark returns a checkpoint of the current position.
func (l *Lexer) Mark() Mark { return Mark{l.ch, l.offset, l.rdOffset} }

// Reset rewinds the lexer to a previously captured Mark.
func (l *Lexer) Reset(m Mark) {
	l.ch, l.offset, l.rdOffset = m.ch, m.offset, m.rdOffset
}
