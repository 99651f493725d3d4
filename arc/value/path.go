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

package value

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitPath splits a dotted alias into path segments. Reserved names
// ($content, $loop, $root, ...) are ordinary segments at this layer;
// their special meaning is resolved by package scope.
func SplitPath(alias string) []string {
	if alias == "" {
		return nil
	}
	return strings.Split(alias, ".")
}

// notFoundError describes a missing path. Get itself reports "no such
// path" through its bool result, which keeps it distinct from a stored
// Null, per spec.md §3 ("Missing intermediate segments yield *not
// found* (distinct from Null)").
type notFoundError struct{ path []string }

func (e *notFoundError) Error() string { return fmt.Sprintf("path not found: %v", e.path) }

// Get walks path from root and returns the value found, or
// (Value{}, false) if any segment is missing.
func Get(root Value, path []string) (Value, bool) {
	cur := root
	for _, seg := range path {
		switch cur.kind {
		case Object:
			child, ok := cur.obj.Get(seg)
			if !ok {
				return Value{}, false
			}
			cur = child
		case Array:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(cur.arr) {
				return Value{}, false
			}
			cur = cur.arr[idx]
		default:
			return Value{}, false
		}
	}
	return cur, true
}

// Set writes v at path under root, creating intermediate objects as
// needed and overwriting any existing leaf.
func Set(root *Value, path []string, v Value) error {
	if len(path) == 0 {
		return fmt.Errorf("set: empty path")
	}
	return navigate(root, path, true, func(container *Value, seg string) error {
		return writeChild(container, seg, v, true)
	})
}

// Unset removes the leaf at path, reporting whether it was present.
// A missing path is a no-op: Unset never auto-vivifies structure.
func Unset(root *Value, path []string) (removed Value, ok bool) {
	if len(path) == 0 {
		return Value{}, false
	}
	navigate(root, path, false, func(container *Value, seg string) error {
		removed, ok = deleteChild(container, seg)
		return nil
	})
	return removed, ok
}

// Push appends v to the array at path, initializing path as an empty
// array first if it is missing or not already an array.
func Push(root *Value, path []string, v Value) error {
	if len(path) == 0 {
		return fmt.Errorf("push: empty path")
	}
	return navigate(root, path, true, func(container *Value, seg string) error {
		cur, ok := readChild(container, seg)
		if !ok || cur.kind != Array {
			cur = NewArray(nil)
		}
		cur.arr = append(cur.arr, v)
		return writeChild(container, seg, cur, true)
	})
}

// Pop removes and returns the last element of the array at path. A
// missing path is a no-op and never auto-vivifies structure.
func Pop(root *Value, path []string) (popped Value, ok bool, err error) {
	if len(path) == 0 {
		return Value{}, false, fmt.Errorf("pop: empty path")
	}
	err = navigate(root, path, false, func(container *Value, seg string) error {
		cur, exists := readChild(container, seg)
		if !exists {
			return nil
		}
		if cur.kind != Array {
			return fmt.Errorf("pop: not an array")
		}
		if len(cur.arr) == 0 {
			return nil
		}
		popped = cur.arr[len(cur.arr)-1]
		ok = true
		cur.arr = cur.arr[:len(cur.arr)-1]
		return writeChild(container, seg, cur, true)
	})
	return popped, ok, err
}

// navigate walks root down to the parent container of path's final
// segment, then invokes leaf on that container with the final
// segment. When create is true, missing or non-container
// intermediates are auto-vivified as empty objects; when false, a
// missing intermediate makes navigate a no-op (leaf is never called).
// navigate writes every intermediate container back to its own
// parent, since Array mutation (append) changes a Value's slice
// header rather than mutating shared state the way Obj's pointer
// does.
func navigate(root *Value, path []string, create bool, leaf func(container *Value, seg string) error) error {
	cur := *root
	if cur.kind != Object && cur.kind != Array {
		if !create {
			return nil
		}
		cur = NewObject(NewObj())
	}
	if len(path) == 1 {
		if err := leaf(&cur, path[0]); err != nil {
			return err
		}
		*root = cur
		return nil
	}
	child, ok := readChild(&cur, path[0])
	if !ok || (child.kind != Object && child.kind != Array) {
		if !create {
			return nil
		}
		child = NewObject(NewObj())
	}
	if err := navigate(&child, path[1:], create, leaf); err != nil {
		return err
	}
	if err := writeChild(&cur, path[0], child, true); err != nil {
		return err
	}
	*root = cur
	return nil
}

func readChild(container *Value, seg string) (Value, bool) {
	switch container.kind {
	case Object:
		return container.obj.Get(seg)
	case Array:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(container.arr) {
			return Value{}, false
		}
		return container.arr[idx], true
	default:
		return Value{}, false
	}
}

func writeChild(container *Value, seg string, v Value, create bool) error {
	switch container.kind {
	case Object:
		container.obj.Set(seg, v)
		return nil
	case Array:
		idx, err := strconv.Atoi(seg)
		if err != nil {
			return fmt.Errorf("not an array index: %q", seg)
		}
		switch {
		case idx >= 0 && idx < len(container.arr):
			container.arr[idx] = v
		case idx == len(container.arr) && create:
			container.arr = append(container.arr, v)
		default:
			return fmt.Errorf("array index out of range: %d", idx)
		}
		return nil
	default:
		return fmt.Errorf("not an object or array")
	}
}

func deleteChild(container *Value, seg string) (Value, bool) {
	switch container.kind {
	case Object:
		v, ok := container.obj.Get(seg)
		if !ok {
			return Value{}, false
		}
		container.obj.Delete(seg)
		return v, true
	case Array:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(container.arr) {
			return Value{}, false
		}
		v := container.arr[idx]
		container.arr = append(container.arr[:idx], container.arr[idx+1:]...)
		return v, true
	default:
		return Value{}, false
	}
}
