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

// Package ast defines the node tree produced by package parser and
// walked by package eval, per spec.md §3's Node and Block types.
package ast

import "arcana.dev/arcana/arc/token"

// Node is any element of a parsed template. Concrete types below
// correspond one-to-one with spec.md §3's tagged Node variants.
type Node interface {
	Pos() token.Position
}

// Modifier is one stage of a tag's modifier pipeline (spec.md §4.D):
// a name plus its positional arguments.
type Modifier struct {
	Name string
	Args []string
	At   token.Position
}

// Expr is a pathlike or alias expression: either a bare alias path
// (dotted, reserved names intact) or a quoted string literal.
type Expr struct {
	Alias   []string // non-nil => alias reference
	Literal string
	IsLit   bool
}

// Block is a captured, already-parsed sequence of Nodes plus the
// delimiter pair it was read with. The pair matters only for
// Set-Item, where it selects the string-body vs JSON-body dialect
// (spec.md §4.C, §6).
type Block struct {
	Nodes []Node
	Open  byte // '{' or '('
	Close byte // '}' or ')'
}

// JSONDialect reports whether this block was captured with ( ... ),
// the newer dialect whose body is parsed as a JSON literal.
func (b *Block) JSONDialect() bool { return b.Open == '(' }

// Base is embedded by every concrete Node to supply Pos(). It is
// exported so package parser can build nodes directly as literals.
type Base struct{ At token.Position }

func (b Base) Pos() token.Position { return b.At }

// Text is literal output.
type Text struct {
	Base
	Value string
}

// WhitespaceContinuation is a backslash-at-EOL: it consumes the
// newline and all following whitespace, emitting nothing.
type WhitespaceContinuation struct{ Base }

// Comment is a `#{...}#` node: parsed, never emits output.
type Comment struct {
	Base
	Raw string
}

// Ignore is a `!{...}!` node: parsed, never emits output.
type Ignore struct {
	Base
	Raw string
}

// ExtendTemplate is `+{path}`.
type ExtendTemplate struct {
	Base
	Path Expr
}

// SourceFile is `.{path}` with an optional `as <alias>` modifier.
type SourceFile struct {
	Base
	Path      Expr
	Modifiers []Modifier
}

// IncludeFile is `&{path}{setup?}` with `raw`/`md` modifiers.
type IncludeFile struct {
	Base
	Path      Expr
	Modifiers []Modifier
	Setup     *Block // nil if no setup block was given
}

// Term is one operand of a Condition, per spec.md §4.C's condition
// grammar.
type Term struct {
	Negate    bool
	Alias     []string
	Predicate string // "exists", "empty", "truthy" (implicit), or "" when CompareOp is set
	CompareOp string // "==", "!=", ">", ">=", "<", "<=", or "" for a predicate term
	Right     []string
}

// Condition is a left-to-right, equal-precedence chain of Terms
// joined by && / ||.
type Condition struct {
	Terms []Term
	Ops   []string // len(Ops) == len(Terms)-1, each "&&" or "||"
}

// If is `%{cond}then{else?}`.
type If struct {
	Base
	Cond Condition
	Then *Block
	Else *Block // nil if no else-block was given
}

// ForEachItem is `@{var in source}{body}{empty?}`.
type ForEachItem struct {
	Base
	Var       string
	Source    []string
	Modifiers []Modifier
	Body      *Block
	Empty     *Block
}

// ForEachFile is `*{var in path}{body}{empty?}`.
type ForEachFile struct {
	Base
	Var       string
	Path      Expr
	Modifiers []Modifier
	Body      *Block
	Empty     *Block
}

// IncludeContent is `${alias|modifiers}`.
type IncludeContent struct {
	Base
	Alias     []string
	Modifiers []Modifier
}

// SetItem is `={alias}{body}...`. Alias is an empty, non-nil slice for
// the root-merge form `={}(...)`.
type SetItem struct {
	Base
	Alias     []string
	Modifiers []Modifier
	Blocks    []*Block
}

// Siphon is `={dst}<{src}`.
type Siphon struct {
	Base
	Dst []string
	Src []string
}

// Unset is `/{alias}`.
type Unset struct {
	Base
	Alias     []string
	Modifiers []Modifier
}

// Write is `^{path}(body)`.
type Write struct {
	Base
	Path Expr
	Body *Block
}

// CopyPath is `~{src}{dst}`.
type CopyPath struct {
	Base
	Src Expr
	Dst Expr
}

// DeletePath is `-{path}`.
type DeletePath struct {
	Base
	Path Expr
}
