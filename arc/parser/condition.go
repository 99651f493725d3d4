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

package parser

import (
	"strings"

	"arcana.dev/arcana/arc/ast"
	arcerr "arcana.dev/arcana/arc/errors"
	"arcana.dev/arcana/arc/token"
)

var compareOps = map[string]bool{
	"==": true, "!=": true, ">": true, ">=": true, "<": true, "<=": true,
}

// parseCondition implements the If tag's condition grammar:
//
//	condition := term (('&&'|'||') term)*
//	term      := ['!'] alias [op alias]?
//	           | ['!'] alias predicate
//	op        := '=='|'!='|'>'|'>='|'<'|'<='
//	predicate := 'exists' | 'empty' | (implicit 'truthy')
//
// && and || share one left-to-right precedence level (spec.md §4.C);
// the evaluator folds Terms/Ops in order rather than building a
// nested tree.
func (p *parser) parseCondition(exprText string, pos token.Position) ast.Condition {
	c := &condParser{toks: splitFields(exprText), p: p, pos: pos}
	return c.parse()
}

type condParser struct {
	toks []string
	idx  int
	p    *parser
	pos  token.Position
}

func (c *condParser) peek() string {
	if c.idx < len(c.toks) {
		return c.toks[c.idx]
	}
	return ""
}

func (c *condParser) next() string {
	t := c.peek()
	c.idx++
	return t
}

func (c *condParser) parse() ast.Condition {
	var cond ast.Condition
	cond.Terms = append(cond.Terms, c.parseTerm())
	for c.idx < len(c.toks) {
		op := c.next()
		if op != "&&" && op != "||" {
			c.p.errorf(arcerr.BadCondition, c.pos, "expected && or ||, got %q", op)
			break
		}
		cond.Ops = append(cond.Ops, op)
		cond.Terms = append(cond.Terms, c.parseTerm())
	}
	return cond
}

func (c *condParser) parseTerm() ast.Term {
	var term ast.Term
	tok := c.next()
	switch {
	case tok == "!":
		term.Negate = true
		tok = c.next()
	case strings.HasPrefix(tok, "!") && len(tok) > 1:
		term.Negate = true
		tok = tok[1:]
	}
	term.Alias = splitAliasText(tok)

	if c.idx >= len(c.toks) {
		term.Predicate = "truthy"
		return term
	}
	switch nxt := c.peek(); {
	case compareOps[nxt]:
		term.CompareOp = c.next()
		if c.idx >= len(c.toks) {
			c.p.errorf(arcerr.BadCondition, c.pos, "expected a value after %q", term.CompareOp)
			return term
		}
		term.Right = splitAliasText(c.next())
	case nxt == "exists" || nxt == "empty":
		term.Predicate = c.next()
	default:
		term.Predicate = "truthy"
	}
	return term
}
