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

// Package deploy translates a deployment schema's JSON action list into
// calls against arc/eval and arc/effects. It carries no template or
// file-effect semantics of its own: every action is a thin dispatch
// onto the core packages, in the spirit of cmd/cue/cmd's declarative
// task runner.
package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"arcana.dev/arcana/arc/effects"
	arcerr "arcana.dev/arcana/arc/errors"
	"arcana.dev/arcana/arc/eval"
	"arcana.dev/arcana/arc/token"
	"arcana.dev/arcana/arc/value"
)

// Schema is the top-level deployment document: an ordered list of
// actions, applied in order.
type Schema struct {
	Actions []Action `json:"actions"`
}

// TargetStep drills one level into a compile-against context, applying
// a template once per entry of a nested array instead of once for the
// whole context document.
type TargetStep struct {
	// Alias is the dotted path, within the current context, of the
	// array to iterate.
	Alias string `json:"alias"`
	// ForEach names the loop variable each entry is bound to while
	// the template evaluates.
	ForEach string `json:"for-each"`
	// FilenameExtractor is a dotted path, within the context as bound
	// by ForEach (e.g. "person.slug"), whose string value becomes
	// that entry's output filename (before OutputExt is appended).
	FilenameExtractor string `json:"filename-extractor"`
	// AliasTo re-binds the entry under a second alias alongside
	// ForEach, for templates written against a fixed name.
	AliasTo string `json:"alias-to"`
}

// Action is one deployment step. Only the fields relevant to Type are
// populated; the rest are left zero.
type Action struct {
	Type string `json:"action"`

	// compile-file / compile-directory / compile-against
	Template  string       `json:"template,omitempty"`
	Context   string       `json:"context,omitempty"`
	Output    string       `json:"output,omitempty"`
	Ext       string       `json:"ext,omitempty"`
	OutputExt string       `json:"output-ext,omitempty"`
	Target    []TargetStep `json:"target,omitempty"`

	// copy-file / copy-directory / delete-file
	Source string `json:"source,omitempty"`
	Dest   string `json:"dest,omitempty"`
	Path   string `json:"path,omitempty"`
}

// Driver runs a Schema's actions against a root directory, using Config
// to build the eval.Evaluator for every compile action.
type Driver struct {
	Root   string
	Cfg    eval.Config
	Logger *slog.Logger
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

func (d *Driver) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(d.Root, p)
}

// Run executes every action in schema in order, stopping at the first
// error.
func (d *Driver) Run(ctx context.Context, schema Schema) error {
	for i, a := range schema.Actions {
		d.logger().Debug("deploy: action", "index", i, "type", a.Type)
		if err := d.runOne(ctx, a); err != nil {
			return fmt.Errorf("action %d (%s): %w", i, a.Type, err)
		}
	}
	return nil
}

func (d *Driver) runOne(ctx context.Context, a Action) error {
	switch a.Type {
	case "compile-file":
		return d.compileFile(ctx, a.Template, a.Context, a.Output)
	case "compile-directory":
		return d.compileDirectory(ctx, a)
	case "compile-against":
		return d.compileAgainst(ctx, a)
	case "copy-file":
		return effects.CopyFile(d.resolve(a.Source), d.resolve(a.Dest))
	case "copy-directory":
		return d.copyDirectory(a.Source, a.Dest)
	case "delete-file":
		return effects.DeleteFile(d.resolve(a.Path))
	default:
		return fmt.Errorf("unknown deployment action %q", a.Type)
	}
}

// loadContext reads and parses a JSON context document, defaulting to
// an empty object when path is empty (a template that needs no
// context, e.g. static boilerplate).
func (d *Driver) loadContext(path string) (value.Value, error) {
	if path == "" {
		return value.NewObject(value.NewObj()), nil
	}
	data, err := effects.ReadFile(d.resolve(path))
	if err != nil {
		return value.Value{}, err
	}
	return value.ParseJSON(data)
}

func (d *Driver) compileFile(ctx context.Context, template, contextPath, output string) error {
	root, err := d.loadContext(contextPath)
	if err != nil {
		return err
	}
	src, err := effects.ReadFile(d.resolve(template))
	if err != nil {
		return err
	}
	ev := eval.New(d.Cfg, root)
	out, err := ev.Run(ctx, template, src)
	if err != nil {
		return err
	}
	return effects.WriteFile(d.resolve(output), []byte(out))
}

// compileDirectory applies template once per context file found under
// a directory, writing one output file per context into the Output
// directory, named after the context file's stem plus OutputExt
// (".txt" by default).
func (d *Driver) compileDirectory(ctx context.Context, a Action) error {
	entries, err := effects.ListEntries(d.resolve(a.Context), effects.ListOptions{
		Extensions: extList(a.Ext, ".json"),
		FilesOnly:  true,
	})
	if err != nil {
		return err
	}
	src, err := effects.ReadFile(d.resolve(a.Template))
	if err != nil {
		return err
	}
	for _, entry := range entries {
		data, err := effects.ReadFile(entry)
		if err != nil {
			return err
		}
		root, err := value.ParseJSON(data)
		if err != nil {
			return fmt.Errorf("%s: %w", entry, err)
		}
		ev := eval.New(d.Cfg, root)
		out, err := ev.Run(ctx, a.Template, src)
		if err != nil {
			return err
		}
		outPath := filepath.Join(d.resolve(a.Output), stemOf(entry)+outputExtOf(a.OutputExt))
		if err := effects.WriteFile(outPath, []byte(out)); err != nil {
			return err
		}
	}
	return nil
}

// compileAgainst applies one template to many contexts: either a.Context
// itself (when a.Target is empty, behaving like compile-file but with
// a plural name for schema symmetry), or one output per entry of a
// nested array reached by drilling through a.Target.
func (d *Driver) compileAgainst(ctx context.Context, a Action) error {
	root, err := d.loadContext(a.Context)
	if err != nil {
		return err
	}
	src, err := effects.ReadFile(d.resolve(a.Template))
	if err != nil {
		return err
	}
	if len(a.Target) == 0 {
		ev := eval.New(d.Cfg, root)
		out, err := ev.Run(ctx, a.Template, src)
		if err != nil {
			return err
		}
		return effects.WriteFile(d.resolve(a.Output), []byte(out))
	}
	return d.compileAgainstTarget(ctx, src, root, a.Target, a.Output, a.OutputExt)
}

// compileAgainstTarget recursively drills into steps, binding one
// context per leaf entry and invoking the template on it. Non-leaf
// steps only narrow which array the next step walks; only the final
// step produces compiled output, one file per entry, named via its
// FilenameExtractor.
func (d *Driver) compileAgainstTarget(ctx context.Context, src []byte, root value.Value, steps []TargetStep, outDir, outExt string) error {
	step := steps[0]
	arr, ok := value.Get(root, value.SplitPath(step.Alias))
	if !ok || arr.Kind() != value.Array {
		return arcerr.Newf(arcerr.NotAnArray, token.Position{}, "compile-against: %q is not an array in this context", step.Alias)
	}
	for _, entry := range arr.Array() {
		bound := root.Clone()
		path := value.SplitPath(step.ForEach)
		if err := value.Set(&bound, path, entry); err != nil {
			return err
		}
		if step.AliasTo != "" {
			if err := value.Set(&bound, value.SplitPath(step.AliasTo), entry); err != nil {
				return err
			}
		}
		if len(steps) > 1 {
			if err := d.compileAgainstTarget(ctx, src, bound, steps[1:], outDir, outExt); err != nil {
				return err
			}
			continue
		}
		name, err := extractFilename(bound, step.FilenameExtractor)
		if err != nil {
			return err
		}
		ev := eval.New(d.Cfg, bound)
		out, err := ev.Run(ctx, name, src)
		if err != nil {
			return err
		}
		outPath := filepath.Join(d.resolve(outDir), name+outputExtOf(outExt))
		if err := effects.WriteFile(outPath, []byte(out)); err != nil {
			return err
		}
	}
	return nil
}

func extractFilename(entry value.Value, extractor string) (string, error) {
	if extractor == "" {
		return "", fmt.Errorf("compile-against: target requires a filename-extractor")
	}
	v, ok := value.Get(entry, value.SplitPath(extractor))
	if !ok || v.Kind() != value.String {
		return "", fmt.Errorf("compile-against: filename-extractor %q did not resolve to a string", extractor)
	}
	return v.String(), nil
}

func (d *Driver) copyDirectory(src, dst string) error {
	entries, err := effects.ListEntries(d.resolve(src), effects.ListOptions{FilesOnly: true})
	if err != nil {
		return err
	}
	for _, entry := range entries {
		rel := strings.TrimPrefix(entry, d.resolve(src))
		rel = strings.TrimPrefix(rel, string(filepath.Separator))
		if err := effects.CopyFile(entry, filepath.Join(d.resolve(dst), rel)); err != nil {
			return err
		}
	}
	return nil
}

func stemOf(p string) string {
	name := filepath.Base(p)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// outputExtOf normalizes an OutputExt field, defaulting to ".txt" and
// tolerating a value given with or without its leading dot.
func outputExtOf(ext string) string {
	if ext == "" {
		return ".txt"
	}
	if !strings.HasPrefix(ext, ".") {
		return "." + ext
	}
	return ext
}

func extList(custom, fallback string) []string {
	if custom == "" {
		return []string{fallback}
	}
	return []string{custom}
}
