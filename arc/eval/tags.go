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
	"context"
	"path/filepath"
	"strings"

	"arcana.dev/arcana/arc/ast"
	"arcana.dev/arcana/arc/effects"
	arcerr "arcana.dev/arcana/arc/errors"
	"arcana.dev/arcana/arc/parser"
	"arcana.dev/arcana/arc/value"
)

func (e *Evaluator) evalIncludeContent(nd *ast.IncludeContent) (string, error) {
	v, ok := e.stack.Resolve(nd.Alias)
	if !ok {
		return "", arcerr.Newf(arcerr.AliasNotFound, nd.Pos(), "alias %q not found", strings.Join(nd.Alias, "."))
	}
	return e.applyContentModifiers(v, nd.Modifiers, nd.Pos())
}

// evalSourceFile implements spec.md §4.E's Source-File semantics:
// read path, parse as JSON, merge into current scope root, or place
// at an `as` alias instead of merging.
func (e *Evaluator) evalSourceFile(nd *ast.SourceFile) error {
	path, err := e.resolvePathlike(nd.Path, nd.Pos())
	if err != nil {
		return err
	}
	data, err := effects.ReadFile(e.resolvePath(path))
	if err != nil {
		return arcerr.Wrapf(arcerr.ReadFailed, nd.Pos(), err, "source: read %s", path)
	}
	v, err := value.ParseJSON(data)
	if err != nil {
		return arcerr.Wrapf(arcerr.InvalidJSON, nd.Pos(), err, "source: parse %s", path)
	}
	for _, m := range nd.Modifiers {
		if m.Name == "as" {
			if len(m.Args) != 1 {
				return arcerr.Newf(arcerr.BadModifier, nd.Pos(), "as: expected one alias argument")
			}
			return e.stack.Write(strings.Split(m.Args[0], "."), v)
		}
	}
	if v.Kind() != value.Object {
		return arcerr.Newf(arcerr.TypeMismatch, nd.Pos(), "source: %s does not contain a JSON object to merge", path)
	}
	e.stack.MergeIntoCurrent(v.Obj())
	return nil
}

// evalIncludeFile implements spec.md §4.E's Include-File semantics: a
// sealed scope, an optional setup block assigned to $content, then
// either the target's raw bytes or its fully parsed-and-evaluated
// output, optionally post-processed through markdown.
func (e *Evaluator) evalIncludeFile(ctx context.Context, nd *ast.IncludeFile) (string, error) {
	path, err := e.resolvePathlike(nd.Path, nd.Pos())
	if err != nil {
		return "", err
	}
	full := e.resolvePath(path)

	e.stack.Enter(true)
	defer e.stack.Exit()

	if nd.Setup != nil {
		setupOut, err := e.evalBlock(ctx, nd.Setup)
		if err != nil {
			return "", err
		}
		if err := e.stack.Write([]string{"$content"}, value.NewString(setupOut)); err != nil {
			return "", err
		}
	}

	data, err := effects.ReadFile(full)
	if err != nil {
		return "", arcerr.Wrapf(arcerr.ReadFailed, nd.Pos(), err, "include: read %s", path)
	}

	var content string
	if hasMod(nd.Modifiers, "raw") {
		content = string(data)
	} else {
		done, err := e.enterFile(nd.Pos(), full)
		if err != nil {
			return "", err
		}
		defer done()
		nodes, err := parser.Parse(full, data)
		if err != nil {
			return "", err
		}
		content, err = e.evalFile(ctx, full, nodes)
		if err != nil {
			return "", err
		}
	}
	if hasMod(nd.Modifiers, "md") {
		content, err = effects.MarkdownPostProcess(content)
		if err != nil {
			return "", arcerr.Wrapf(arcerr.ReadFailed, nd.Pos(), err, "include: markdown post-process %s", path)
		}
	}
	return content, nil
}

// applyExtend implements Extend-Template: the file's own (already
// produced) output becomes $content in the current scope, and the
// extension file's evaluated output replaces it entirely.
func (e *Evaluator) applyExtend(ctx context.Context, nd *ast.ExtendTemplate, produced string) (string, error) {
	path, err := e.resolvePathlike(nd.Path, nd.Pos())
	if err != nil {
		return "", err
	}
	full := e.resolvePath(path)

	done, err := e.enterFile(nd.Pos(), full)
	if err != nil {
		return "", err
	}
	defer done()

	data, err := effects.ReadFile(full)
	if err != nil {
		return "", arcerr.Wrapf(arcerr.ReadFailed, nd.Pos(), err, "extend: read %s", path)
	}
	if err := e.stack.Write([]string{"$content"}, value.NewString(produced)); err != nil {
		return "", err
	}
	nodes, err := parser.Parse(full, data)
	if err != nil {
		return "", err
	}
	return e.evalFile(ctx, full, nodes)
}

func (e *Evaluator) evalIf(ctx context.Context, nd *ast.If) (string, error) {
	ok, err := e.evalCondition(nd.Cond, nd.Pos())
	if err != nil {
		return "", err
	}
	if ok {
		return e.evalBlock(ctx, nd.Then)
	}
	return e.evalBlock(ctx, nd.Else)
}

// loopValue builds the $loop object for iteration index/length of a
// for-each pass, per spec.md §8's loop-counter invariant. first/last
// are set only when true, per spec.md §4.E.
func loopValue(index, length int, pathsMode bool, entrySource string) value.Value {
	o := value.NewObj()
	o.Set("index", value.NewNumber(float64(index)))
	o.Set("position", value.NewNumber(float64(index+1)))
	o.Set("length", value.NewNumber(float64(length)))
	o.Set("max", value.NewNumber(float64(length-1)))
	if index == 0 {
		o.Set("first", value.NewBool(true))
	}
	if index == length-1 {
		o.Set("last", value.NewBool(true))
	}
	if pathsMode {
		o.Set("entry", entryValue(entrySource))
	}
	return value.NewObject(o)
}

// entryValue splits a path-shaped string into stem/name/ext/dir, the
// schema spec.md §9 leaves undocumented beyond one worked example
// (`$loop.entry.stem`); resolved per DESIGN.md.
func entryValue(p string) value.Value {
	dir, name := filepath.Split(p)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	dir = strings.TrimSuffix(dir, string(filepath.Separator))
	o := value.NewObj()
	o.Set("stem", value.NewString(stem))
	o.Set("name", value.NewString(name))
	o.Set("ext", value.NewString(ext))
	o.Set("dir", value.NewString(dir))
	return value.NewObject(o)
}

func reverseValues(items []value.Value) []value.Value {
	out := make([]value.Value, len(items))
	for i, v := range items {
		out[len(items)-1-i] = v
	}
	return out
}

// evalForEachItem implements spec.md §4.E's For-Each-Item semantics.
func (e *Evaluator) evalForEachItem(ctx context.Context, nd *ast.ForEachItem) (string, error) {
	v, ok := e.stack.Resolve(nd.Source)
	if !ok || v.Kind() != value.Array || len(v.Array()) == 0 {
		return e.evalBlock(ctx, nd.Empty)
	}
	items := v.Array()
	if hasMod(nd.Modifiers, "reverse") {
		items = reverseValues(items)
	}
	pathsMode := hasMod(nd.Modifiers, "paths")

	var b strings.Builder
	n := len(items)
	for idx, item := range items {
		e.stack.Enter(true)
		if err := e.stack.Write([]string{nd.Var}, item); err != nil {
			e.stack.Exit()
			return "", err
		}
		if err := e.stack.Write([]string{"$loop"}, loopValue(idx, n, pathsMode, item.String())); err != nil {
			e.stack.Exit()
			return "", err
		}
		out, err := e.evalBlock(ctx, nd.Body)
		e.stack.Exit()
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}
	return b.String(), nil
}

// evalForEachFile implements spec.md §4.E's For-Each-File semantics:
// resolve a directory, list and filter its entries, and iterate with
// each entry's path as the loop variable.
func (e *Evaluator) evalForEachFile(ctx context.Context, nd *ast.ForEachFile) (string, error) {
	path, err := e.resolvePathlike(nd.Path, nd.Pos())
	if err != nil {
		return "", err
	}
	filesOnly := !hasMod(nd.Modifiers, "paths")
	entries, err := effects.ListEntries(e.resolvePath(path), effects.ListOptions{
		Extensions: collectModArgs(nd.Modifiers, "ext"),
		FilesOnly:  filesOnly,
		Reverse:    hasMod(nd.Modifiers, "reverse"),
	})
	if err != nil {
		return "", arcerr.Wrapf(arcerr.ReadFailed, nd.Pos(), err, "for-each-file: list %s", path)
	}
	if len(entries) == 0 {
		return e.evalBlock(ctx, nd.Empty)
	}

	var b strings.Builder
	n := len(entries)
	for idx, entry := range entries {
		e.stack.Enter(true)
		if err := e.stack.Write([]string{nd.Var}, value.NewString(entry)); err != nil {
			e.stack.Exit()
			return "", err
		}
		if err := e.stack.Write([]string{"$loop"}, loopValue(idx, n, true, entry)); err != nil {
			e.stack.Exit()
			return "", err
		}
		out, err := e.evalBlock(ctx, nd.Body)
		e.stack.Exit()
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}
	return b.String(), nil
}

// evalSetItem implements spec.md §4.E's Set-Item semantics across
// both delimiter dialects and the `array`/`path` modifiers.
func (e *Evaluator) evalSetItem(ctx context.Context, nd *ast.SetItem) error {
	arrayMode := hasMod(nd.Modifiers, "array")
	pathMode := hasMod(nd.Modifiers, "path")
	for _, blk := range nd.Blocks {
		e.stack.Enter(true)
		out, err := e.evalBlock(ctx, blk)
		e.stack.Exit()
		if err != nil {
			return err
		}
		var v value.Value
		if blk.JSONDialect() {
			v, err = value.ParseJSON([]byte(out))
			if err != nil {
				return arcerr.Wrapf(arcerr.InvalidJSON, nd.Pos(), err, "set: invalid JSON body")
			}
		} else {
			v = value.NewString(out)
		}
		if pathMode {
			v = value.NewString(filepath.Clean(v.String()))
		}

		if len(nd.Alias) == 0 {
			if v.Kind() != value.Object {
				return arcerr.Newf(arcerr.TypeMismatch, nd.Pos(), "set: root-merge body must be a JSON object")
			}
			e.stack.MergeIntoCurrent(v.Obj())
			continue
		}
		if arrayMode {
			if err := e.stack.ArrayPush(nd.Alias, v); err != nil {
				return arcerr.Wrapf(arcerr.NotAnArray, nd.Pos(), err, "set")
			}
			continue
		}
		if err := e.stack.Write(nd.Alias, v); err != nil {
			return arcerr.Wrapf(arcerr.InvalidPath, nd.Pos(), err, "set")
		}
	}
	return nil
}

// evalSiphon implements spec.md §4.E's Siphon semantics: deep-copy,
// with $root as the merge-into-root destination.
func (e *Evaluator) evalSiphon(nd *ast.Siphon) error {
	v, ok := e.stack.Resolve(nd.Src)
	if !ok {
		return arcerr.Newf(arcerr.AliasNotFound, nd.Pos(), "siphon: %q not found", strings.Join(nd.Src, "."))
	}
	cp := v.Clone()
	if len(nd.Dst) == 1 && nd.Dst[0] == "$root" {
		if cp.Kind() != value.Object {
			return arcerr.Newf(arcerr.TypeMismatch, nd.Pos(), "siphon: $root merge requires an object source")
		}
		e.stack.MergeIntoCurrent(cp.Obj())
		return nil
	}
	return e.stack.Write(nd.Dst, cp)
}

func (e *Evaluator) evalUnset(nd *ast.Unset) error {
	if hasMod(nd.Modifiers, "pop") {
		_, _, err := e.stack.ArrayPop(nd.Alias)
		return err
	}
	e.stack.Unset(nd.Alias)
	return nil
}

func (e *Evaluator) evalWrite(ctx context.Context, nd *ast.Write) error {
	out, err := e.evalBlock(ctx, nd.Body)
	if err != nil {
		return err
	}
	path, err := e.resolvePathlike(nd.Path, nd.Pos())
	if err != nil {
		return err
	}
	full := e.resolvePath(path)
	if err := effects.WriteFile(full, []byte(out)); err != nil {
		return arcerr.Wrapf(arcerr.WriteFailed, nd.Pos(), err, "write %s", path)
	}
	return nil
}

func (e *Evaluator) evalCopyPath(nd *ast.CopyPath) error {
	src, err := e.resolvePathlike(nd.Src, nd.Pos())
	if err != nil {
		return err
	}
	dst, err := e.resolvePathlike(nd.Dst, nd.Pos())
	if err != nil {
		return err
	}
	if err := effects.CopyFile(e.resolvePath(src), e.resolvePath(dst)); err != nil {
		return arcerr.Wrapf(arcerr.WriteFailed, nd.Pos(), err, "copy %s -> %s", src, dst)
	}
	return nil
}

func (e *Evaluator) evalDeletePath(nd *ast.DeletePath) error {
	path, err := e.resolvePathlike(nd.Path, nd.Pos())
	if err != nil {
		return err
	}
	if err := effects.DeleteFile(e.resolvePath(path)); err != nil {
		return arcerr.Wrapf(arcerr.WriteFailed, nd.Pos(), err, "delete %s", path)
	}
	return nil
}
