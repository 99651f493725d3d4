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

// Package eval walks the Node tree package parser produces, against a
// scope.Stack, per spec.md §4.D-§4.F: resolving alias expressions and
// modifier pipelines, executing per-tag semantics, and driving file
// effects for Write/Copy/Delete and Source/Include.
package eval

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"arcana.dev/arcana/arc/ast"
	arcerr "arcana.dev/arcana/arc/errors"
	"arcana.dev/arcana/arc/parser"
	"arcana.dev/arcana/arc/scope"
	"arcana.dev/arcana/arc/token"
	"arcana.dev/arcana/arc/value"
)

// Config configures one compile, mirroring the teacher's habit of
// building a single context object once and threading it through
// (cue/cuecontext, internal/encoding.Config).
type Config struct {
	// Root is the directory file paths are resolved relative to.
	// Defaults to ".".
	Root string
	// RecursionLimit bounds Extend-Template/Include-File nesting
	// depth (spec.md §5). Defaults to 64.
	RecursionLimit int
	// Logger receives debug-level tag/node tracing when non-nil.
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Root == "" {
		c.Root = "."
	}
	if c.RecursionLimit <= 0 {
		c.RecursionLimit = 64
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Evaluator drives one compile: a Context Stack plus the bookkeeping
// (active file set, recursion depth) that spans however many nested
// Extend/Include files that compile touches.
type Evaluator struct {
	cfg    Config
	stack  *scope.Stack
	active map[string]bool
	depth  int
}

// New creates an Evaluator rooted at root (must be an Object, or an
// empty object is substituted).
func New(cfg Config, root value.Value) *Evaluator {
	return &Evaluator{cfg: cfg.withDefaults(), stack: scope.NewStack(root), active: map[string]bool{}}
}

// Run parses src (named name, for position reporting) and evaluates
// it, returning the rendered text.
func (e *Evaluator) Run(ctx context.Context, name string, src []byte) (string, error) {
	nodes, err := parser.Parse(name, src)
	if err != nil {
		return "", err
	}
	return e.evalFile(ctx, name, nodes)
}

// fileFrame tracks the at-most-one active Extend-Template node for a
// single parsed source file (spec.md §4.E: "Only one extend may be
// active per file"). A fresh frame is used per file-level parse;
// nested blocks (if/for/setup bodies) reuse the enclosing call's
// throwaway frame via evalBlock, since Extend-Template is only
// meaningful at a file's own top level.
type fileFrame struct {
	extend *ast.ExtendTemplate
}

// evalFile evaluates nodes as the top level of one parsed source file
// and applies Extend-Template if one was encountered.
func (e *Evaluator) evalFile(ctx context.Context, name string, nodes []ast.Node) (string, error) {
	frame := &fileFrame{}
	out, err := e.evalNodes(ctx, nodes, frame)
	if err != nil {
		return "", err
	}
	if frame.extend != nil {
		return e.applyExtend(ctx, frame.extend, out)
	}
	return out, nil
}

// evalBlock evaluates a captured Block's Nodes with a throwaway frame:
// a Block is never itself "a file", so an Extend-Template tag nested
// inside one has no effect beyond being ignored.
func (e *Evaluator) evalBlock(ctx context.Context, b *ast.Block) (string, error) {
	if b == nil {
		return "", nil
	}
	return e.evalNodes(ctx, b.Nodes, &fileFrame{})
}

func (e *Evaluator) evalNodes(ctx context.Context, nodes []ast.Node, frame *fileFrame) (string, error) {
	var b strings.Builder
	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return "", arcerr.Wrapf(arcerr.Cancelled, n.Pos(), err, "evaluation cancelled")
		}
		e.cfg.Logger.Debug("eval: node", "type", fmt.Sprintf("%T", n), "pos", n.Pos().String())
		if err := e.evalNode(ctx, n, frame, &b); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func (e *Evaluator) evalNode(ctx context.Context, n ast.Node, frame *fileFrame, out *strings.Builder) error {
	switch nd := n.(type) {
	case *ast.Text:
		out.WriteString(nd.Value)
	case *ast.WhitespaceContinuation:
		// emits nothing; whitespace already elided at parse time.
	case *ast.Comment:
		// emits nothing.
	case *ast.Ignore:
		// emits nothing.
	case *ast.ExtendTemplate:
		if frame.extend != nil {
			return arcerr.Newf(arcerr.InvalidPath, nd.Pos(), "extend: only one extend may be active per file")
		}
		frame.extend = nd
	case *ast.SourceFile:
		return e.evalSourceFile(nd)
	case *ast.IncludeFile:
		s, err := e.evalIncludeFile(ctx, nd)
		if err != nil {
			return err
		}
		out.WriteString(s)
	case *ast.If:
		s, err := e.evalIf(ctx, nd)
		if err != nil {
			return err
		}
		out.WriteString(s)
	case *ast.ForEachItem:
		s, err := e.evalForEachItem(ctx, nd)
		if err != nil {
			return err
		}
		out.WriteString(s)
	case *ast.ForEachFile:
		s, err := e.evalForEachFile(ctx, nd)
		if err != nil {
			return err
		}
		out.WriteString(s)
	case *ast.IncludeContent:
		s, err := e.evalIncludeContent(nd)
		if err != nil {
			return err
		}
		out.WriteString(s)
	case *ast.SetItem:
		return e.evalSetItem(ctx, nd)
	case *ast.Siphon:
		return e.evalSiphon(nd)
	case *ast.Unset:
		return e.evalUnset(nd)
	case *ast.Write:
		return e.evalWrite(ctx, nd)
	case *ast.CopyPath:
		return e.evalCopyPath(nd)
	case *ast.DeletePath:
		return e.evalDeletePath(nd)
	default:
		return arcerr.Newf(arcerr.UnknownSigil, n.Pos(), "eval: unhandled node type %T", n)
	}
	return nil
}

// resolvePath joins p under cfg.Root unless p is already absolute.
func (e *Evaluator) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.cfg.Root, p)
}

// resolvePathlike resolves a pathlike Expr (spec.md glossary: "a
// literal quoted path or an alias resolving to a string path").
func (e *Evaluator) resolvePathlike(expr ast.Expr, pos token.Position) (string, error) {
	if expr.IsLit {
		return expr.Literal, nil
	}
	v, ok := e.stack.Resolve(expr.Alias)
	if !ok {
		return "", arcerr.Newf(arcerr.AliasNotFound, pos, "alias %q not found", strings.Join(expr.Alias, "."))
	}
	if v.Kind() != value.String {
		return "", arcerr.Newf(arcerr.TypeMismatch, pos, "alias %q is not a string path", strings.Join(expr.Alias, "."))
	}
	return v.String(), nil
}

// enterFile records full as on the evaluation stack for cycle
// detection and checks the recursion limit, per spec.md §5 and §9's
// "evaluation-stack set of canonicalized paths" design note. The
// returned func must be called to leave the file.
func (e *Evaluator) enterFile(pos token.Position, full string) (func(), error) {
	canon, err := filepath.Abs(full)
	if err != nil {
		canon = full
	}
	if e.active[canon] {
		return nil, arcerr.Newf(arcerr.CycleDetected, pos, "cycle detected: %s is already being evaluated", full)
	}
	if e.depth >= e.cfg.RecursionLimit {
		return nil, arcerr.Newf(arcerr.RecursionLimitExceeded, pos, "recursion limit (%d) exceeded at %s", e.cfg.RecursionLimit, full)
	}
	e.active[canon] = true
	e.depth++
	return func() {
		delete(e.active, canon)
		e.depth--
	}, nil
}
