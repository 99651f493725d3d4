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

package eval

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"arcana.dev/arcana/arc/ast"
	arcerr "arcana.dev/arcana/arc/errors"
	"arcana.dev/arcana/arc/token"
	"arcana.dev/arcana/arc/value"
)

var (
	lowerCaser = cases.Lower(language.Und)
	upperCaser = cases.Upper(language.Und)
)

// applyContentModifiers folds Include-Content's modifier pipeline over
// v left to right (spec.md §4.D, §9 "ordered list of enum variants"),
// returning the final string to emit.
func (e *Evaluator) applyContentModifiers(v value.Value, mods []ast.Modifier, pos token.Position) (string, error) {
	pathMarked := false
	for _, m := range mods {
		switch m.Name {
		case "lower":
			v = value.NewString(lowerCaser.String(v.String()))
		case "upper":
			v = value.NewString(upperCaser.String(v.String()))
		case "trim":
			v = value.NewString(strings.TrimSpace(v.String()))
		case "replace":
			if len(m.Args) != 2 {
				return "", arcerr.Newf(arcerr.BadModifier, pos, "replace: expected 2 arguments, got %d", len(m.Args))
			}
			v = value.NewString(strings.ReplaceAll(v.String(), m.Args[0], m.Args[1]))
		case "split":
			if len(m.Args) != 2 {
				return "", arcerr.Newf(arcerr.BadModifier, pos, "split: expected 2 arguments, got %d", len(m.Args))
			}
			n, err1 := strconv.Atoi(m.Args[0])
			i, err2 := strconv.Atoi(m.Args[1])
			if err1 != nil || err2 != nil {
				return "", arcerr.Newf(arcerr.BadModifier, pos, "split: arguments must be integers")
			}
			part, err := splitEven(v.String(), n, i)
			if err != nil {
				return "", arcerr.Wrapf(arcerr.BadModifier, pos, err, "split")
			}
			v = value.NewString(part)
		case "path":
			pathMarked = true
		case "filename":
			if !pathMarked {
				return "", arcerr.Newf(arcerr.BadModifier, pos, "filename: requires a prior path modifier")
			}
			v = value.NewString(filepath.Base(v.String()))
		case "json":
			s, err := value.Serialize(v, false)
			if err != nil {
				return "", arcerr.Wrapf(arcerr.InvalidJSON, pos, err, "json")
			}
			v = value.NewString(s)
		default:
			return "", arcerr.Newf(arcerr.BadModifier, pos, "unknown include-content modifier %q", m.Name)
		}
	}
	return v.String(), nil
}

// splitEven divides s into n contiguous, as-equal-as-possible byte
// ranges and returns the one at index i (negative i counts from the
// end). This is grounded on spec.md §8 scenario 7 rather than §4.D's
// looser "splits on whitespace" prose: "Jane Doe"|split 2 1 must yield
// " Doe" (note the leading space), which only a length-based partition
// of the whole string reproduces -- a whitespace-delimited split
// discards the separator and would yield "Doe" instead. See DESIGN.md.
func splitEven(s string, n, i int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("n must be positive, got %d", n)
	}
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return "", fmt.Errorf("index out of range: %d", i)
	}
	l := len(s)
	start := i * l / n
	end := (i + 1) * l / n
	return s[start:end], nil
}

// hasMod reports whether mods contains a modifier named name.
func hasMod(mods []ast.Modifier, name string) bool {
	for _, m := range mods {
		if m.Name == name {
			return true
		}
	}
	return false
}

// collectModArgs returns the first argument of every occurrence of a
// (possibly repeated) modifier named name, per For-Each-File's `ext`
// modifier ("may repeat").
func collectModArgs(mods []ast.Modifier, name string) []string {
	var out []string
	for _, m := range mods {
		if m.Name == name && len(m.Args) == 1 {
			out = append(out, m.Args[0])
		}
	}
	return out
}
