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

// Package scope implements Arcana's Context Stack: an ordered stack of
// scopes with alias-path lookup and sealed-boundary write propagation,
// per spec.md §3.
package scope

import (
	"fmt"

	"arcana.dev/arcana/arc/value"
)

// rootAlias is the reserved name resolving to the outermost scope's
// root object (spec.md §3, §4.E).
const rootAlias = "$root"

// scope is one frame of the Context Stack: a root object plus whether
// it bounds write propagation.
type scope struct {
	root   value.Value // always Kind Object
	sealed bool
}

// Stack is Arcana's Context Stack. At least one scope (the root scope)
// is always present. The zero Stack is not usable; use NewStack.
type Stack struct {
	scopes []*scope
}

// NewStack creates a Stack with a single, unsealed root scope wrapping
// initial, which must be an Object value.
func NewStack(initial value.Value) *Stack {
	if initial.Kind() != value.Object {
		initial = value.NewObject(value.NewObj())
	}
	return &Stack{scopes: []*scope{{root: initial}}}
}

// Depth returns the number of scopes currently on the stack.
func (s *Stack) Depth() int { return len(s.scopes) }

func (s *Stack) top() *scope { return s.scopes[len(s.scopes)-1] }

func (s *Stack) topIndex() int { return len(s.scopes) - 1 }

func (s *Stack) outermost() *scope { return s.scopes[0] }

// Enter pushes a new scope, sealed or not, onto the stack.
func (s *Stack) Enter(sealed bool) {
	s.scopes = append(s.scopes, &scope{root: value.NewObject(value.NewObj()), sealed: sealed})
}

// Exit pops the topmost scope. It panics if called on the root scope,
// which is a programmer error (every Enter must be matched by an Exit
// before the evaluator that pushed it returns).
func (s *Stack) Exit() {
	if len(s.scopes) <= 1 {
		panic("scope: Exit called with only the root scope on the stack")
	}
	s.scopes = s.scopes[:len(s.scopes)-1]
}

// Root returns the outermost scope's root object -- what a bare
// "$root" alias resolves to when read.
func (s *Stack) Root() value.Value { return s.outermost().root }

// TopRoot returns the current (topmost) scope's root object.
func (s *Stack) TopRoot() value.Value { return s.top().root }

// findOwner returns the index of the innermost-to-outermost scope
// whose root object has key as a top-level key, or -1 if none does.
func (s *Stack) findOwner(key string) int {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if _, ok := s.scopes[i].root.Obj().Get(key); ok {
			return i
		}
	}
	return -1
}

// Resolve looks up a dotted alias path, innermost scope to outermost.
// "$root[.rest]" resolves against the outermost scope's root object,
// per spec.md §3.
func (s *Stack) Resolve(path []string) (value.Value, bool) {
	if len(path) == 0 {
		return value.Value{}, false
	}
	if path[0] == rootAlias {
		if len(path) == 1 {
			return s.outermost().root, true
		}
		return value.Get(s.outermost().root, path[1:])
	}
	owner := s.findOwner(path[0])
	if owner < 0 {
		return value.Value{}, false
	}
	return value.Get(s.scopes[owner].root, path)
}

// Write implements spec.md §3's write-propagation rule: an alias that
// doesn't exist anywhere is created in the top scope; one that exists
// in some scope is updated there, unless a sealed scope lies between
// the top and the owning scope, in which case the write shadows into
// the top scope instead.
func (s *Stack) Write(path []string, v value.Value) error {
	if len(path) == 0 {
		return fmt.Errorf("scope: write with empty path")
	}
	top := s.topIndex()
	owner := s.findOwner(path[0])
	if owner < 0 {
		return value.Set(&s.scopes[top].root, path, v)
	}
	for i := owner + 1; i <= top; i++ {
		if s.scopes[i].sealed {
			return value.Set(&s.scopes[top].root, path, v)
		}
	}
	return value.Set(&s.scopes[owner].root, path, v)
}

// Unset removes the alias if it exists in any scope; a missing alias
// is a no-op. It never auto-vivifies structure.
func (s *Stack) Unset(path []string) (value.Value, bool) {
	if len(path) == 0 {
		return value.Value{}, false
	}
	owner := s.findOwner(path[0])
	if owner < 0 {
		return value.Value{}, false
	}
	return value.Unset(&s.scopes[owner].root, path)
}

// ArrayPush appends v to the array at path, following the same
// owner-search-or-create-at-top rule as Write.
func (s *Stack) ArrayPush(path []string, v value.Value) error {
	if len(path) == 0 {
		return fmt.Errorf("scope: push with empty path")
	}
	top := s.topIndex()
	owner := s.findOwner(path[0])
	if owner < 0 {
		return value.Push(&s.scopes[top].root, path, v)
	}
	for i := owner + 1; i <= top; i++ {
		if s.scopes[i].sealed {
			return value.Push(&s.scopes[top].root, path, v)
		}
	}
	return value.Push(&s.scopes[owner].root, path, v)
}

// ArrayPop removes and returns the last element of the array at path.
func (s *Stack) ArrayPop(path []string) (value.Value, bool, error) {
	if len(path) == 0 {
		return value.Value{}, false, fmt.Errorf("scope: pop with empty path")
	}
	owner := s.findOwner(path[0])
	if owner < 0 {
		return value.Value{}, false, nil
	}
	return value.Pop(&s.scopes[owner].root, path)
}

// MergeIntoCurrent overwrites matching keys of the current (top)
// scope's root object with src's keys, per spec.md §4.E's Source-File
// ("merge into current scope at root") and Siphon-to-$root ("merge
// its keys into the current scope's root") semantics -- both target
// the same place, the topmost scope's own root.
func (s *Stack) MergeIntoCurrent(src *value.Obj) {
	dst := s.top().root.Obj()
	for _, k := range src.Keys() {
		v, _ := src.Get(k)
		dst.Set(k, v)
	}
}

// Snapshot captures the current scope's root object for later
// equality comparison (used by tests asserting the context-seal
// invariant).
func (s *Stack) Snapshot() value.Value {
	return s.top().root.Clone()
}
