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

// Package errors defines the error taxonomy shared by Arcana's lexer,
// parser, evaluator, and file-effects layer.
package errors

import (
	"fmt"
	"sort"
	"strings"

	"arcana.dev/arcana/arc/token"
)

// Kind classifies an Error per the Parse/Resolve/IO/Semantic groups.
type Kind int

const (
	_ Kind = iota

	// Parse
	UnterminatedTag
	UnterminatedBlock
	UnknownSigil
	BadModifier
	BadCondition
	BadEscape

	// Resolve
	AliasNotFound
	TypeMismatch
	NotAnArray
	NotAnObject

	// IO
	ReadFailed
	WriteFailed
	NotFound
	NotADirectory

	// Semantic
	CycleDetected
	RecursionLimitExceeded
	InvalidJSON
	InvalidPath
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case UnterminatedTag:
		return "unterminated tag"
	case UnterminatedBlock:
		return "unterminated block"
	case UnknownSigil:
		return "unknown sigil"
	case BadModifier:
		return "bad modifier"
	case BadCondition:
		return "bad condition"
	case BadEscape:
		return "bad escape"
	case AliasNotFound:
		return "alias not found"
	case TypeMismatch:
		return "type mismatch"
	case NotAnArray:
		return "not an array"
	case NotAnObject:
		return "not an object"
	case ReadFailed:
		return "read failed"
	case WriteFailed:
		return "write failed"
	case NotFound:
		return "not found"
	case NotADirectory:
		return "not a directory"
	case CycleDetected:
		return "cycle detected"
	case RecursionLimitExceeded:
		return "recursion limit exceeded"
	case InvalidJSON:
		return "invalid JSON"
	case InvalidPath:
		return "invalid path"
	case Cancelled:
		return "cancelled"
	default:
		return "error"
	}
}

// Error is Arcana's error interface. It carries the source position at
// which the error was detected, in the style of cue/errors.Error.
type Error interface {
	error
	Kind() Kind
	Position() token.Position
}

type arcError struct {
	kind Kind
	pos  token.Position
	msg  string
	wrap error
}

func (e *arcError) Error() string {
	loc := e.pos.String()
	if loc == "-" {
		return fmt.Sprintf("%s: %s", e.kind, e.msg)
	}
	return fmt.Sprintf("%s: %s: %s", loc, e.kind, e.msg)
}

func (e *arcError) Kind() Kind            { return e.kind }
func (e *arcError) Position() token.Position { return e.pos }
func (e *arcError) Unwrap() error         { return e.wrap }

// Newf creates a new Error of the given kind at pos.
func Newf(kind Kind, pos token.Position, format string, args ...any) Error {
	return &arcError{kind: kind, pos: pos, msg: fmt.Sprintf(format, args...)}
}

// Wrapf creates a new Error of the given kind at pos, wrapping err.
func Wrapf(kind Kind, pos token.Position, err error, format string, args ...any) Error {
	return &arcError{kind: kind, pos: pos, msg: fmt.Sprintf(format, args...), wrap: err}
}

// List is a sortable collection of Errors, in the style of cue/errors.List.
type List []Error

// Add appends err to the list.
func (l *List) Add(err Error) {
	*l = append(*l, err)
}

// Err returns l as an error, or nil if l is empty.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

func (l List) Error() string {
	var b strings.Builder
	for i, e := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Error())
	}
	return b.String()
}

// Sanitize sorts the list by position and removes exact duplicates,
// mirroring cue/errors.Sanitize.
func (l List) Sanitize() List {
	out := make(List, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].Position(), out[j].Position()
		if pi.Line != pj.Line {
			return pi.Line < pj.Line
		}
		return pi.Column < pj.Column
	})
	var dedup List
	for i, e := range out {
		if i > 0 && e.Error() == out[i-1].Error() {
			continue
		}
		dedup = append(dedup, e)
	}
	return dedup
}

// IsCancelled reports whether err is (or wraps) a Cancelled error.
func IsCancelled(err error) bool {
	var ae Error
	for err != nil {
		if e, ok := err.(Error); ok {
			ae = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ae != nil && ae.Kind() == Cancelled
}
