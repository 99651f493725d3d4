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

// parseHeadRaw scans a tag-head or raw path span: Cur() is the
// opener ('{' or '(') on entry. Nesting is tracked only for the same
// delimiter pair, and only outside a quoted string, so a literal
// brace inside a quoted modifier argument never closes the span
// early. `\{ \} \( \)` escape the delimiter characters themselves;
// other backslash sequences (`\"`, `\\`) are passed through untouched
// for later argument unquoting.
func (p *parser) parseHeadRaw(pos token.Position) (raw string, open, close byte, ok bool) {
	open = byte(p.lx.Cur())
	close = matchingClose(open)
	p.lx.Advance()
	depth := 1
	inQuote := false
	var b strings.Builder

	for {
		if p.lx.AtEOF() {
			p.errorf(arcerr.UnterminatedTag, pos, "unterminated tag: expected %q", string(close))
			return b.String(), open, close, false
		}
		ch := p.lx.Cur()

		if ch == '\\' {
			switch nxt := p.lx.Peek(); nxt {
			case rune(open), rune(close):
				b.WriteRune(nxt)
				p.lx.Advance()
				p.lx.Advance()
			case '"':
				b.WriteByte('\\')
				b.WriteRune(nxt)
				p.lx.Advance()
				p.lx.Advance()
			default:
				b.WriteRune(ch)
				p.lx.Advance()
			}
			continue
		}
		if ch == '"' {
			inQuote = !inQuote
			b.WriteRune(ch)
			p.lx.Advance()
			continue
		}
		if !inQuote && ch == rune(open) {
			depth++
			b.WriteRune(ch)
			p.lx.Advance()
			continue
		}
		if !inQuote && ch == rune(close) {
			depth--
			p.lx.Advance()
			if depth == 0 {
				return b.String(), open, close, true
			}
			b.WriteRune(ch)
			continue
		}
		b.WriteRune(ch)
		p.lx.Advance()
	}
}

// parseHead scans a tag-head and splits it into its leading
// expression text and trailing `| modifier arg...` pipeline stages.
func (p *parser) parseHead(pos token.Position) (exprText string, mods []ast.Modifier, open, close byte, ok bool) {
	raw, open, close, ok := p.parseHeadRaw(pos)
	if !ok {
		return "", nil, open, close, false
	}
	parts := splitTopLevel(raw, '|')
	exprText = strings.TrimSpace(parts[0])
	for _, seg := range parts[1:] {
		fields := splitFields(strings.TrimSpace(seg))
		if len(fields) == 0 {
			p.errorf(arcerr.BadModifier, pos, "empty modifier")
			continue
		}
		mod := ast.Modifier{Name: fields[0], At: pos}
		for _, a := range fields[1:] {
			mod.Args = append(mod.Args, unquote(a))
		}
		mods = append(mods, mod)
	}
	return exprText, mods, open, close, true
}

// parseExprText turns trimmed head expression text into an Expr: a
// double-quoted span is a literal, anything else is a dotted alias
// path (empty text becomes the zero-length "root" alias).
func parseExprText(s string) ast.Expr {
	s = strings.TrimSpace(s)
	if isQuoted(s) {
		return ast.Expr{IsLit: true, Literal: unquote(s)}
	}
	return ast.Expr{Alias: splitAliasText(s)}
}

// splitAliasText dot-splits an alias; empty text is the (non-nil,
// empty) root alias used by Set-Item's merge form.
func splitAliasText(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ".")
}

func isQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

func unquote(tok string) string {
	if !isQuoted(tok) {
		return tok
	}
	inner := tok[1 : len(tok)-1]
	return strings.ReplaceAll(inner, `\"`, `"`)
}

// splitTopLevel splits s on sep, ignoring occurrences inside a
// double-quoted span.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) && s[i+1] == '"' {
			cur.WriteByte(c)
			cur.WriteByte(s[i+1])
			i++
			continue
		}
		if c == '"' {
			inQuote = !inQuote
			cur.WriteByte(c)
			continue
		}
		if !inQuote && c == sep {
			parts = append(parts, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	parts = append(parts, cur.String())
	return parts
}

// splitFields splits s on whitespace runs, ignoring occurrences
// inside a double-quoted span.
func splitFields(s string) []string {
	var fields []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) && s[i+1] == '"' {
			cur.WriteByte(c)
			cur.WriteByte(s[i+1])
			i++
			continue
		}
		if c == '"' {
			inQuote = !inQuote
			cur.WriteByte(c)
			continue
		}
		if !inQuote && (c == ' ' || c == '\t' || c == '\n' || c == '\r') {
			flush()
			continue
		}
		cur.WriteByte(c)
	}
	flush()
	return fields
}

// skipSimpleSpace consumes spaces and tabs, but not newlines: plain
// whitespace between a tag-head and its first trailing block must
// stay on one line unless a chain hyphen says otherwise.
func (p *parser) skipSimpleSpace() {
	for p.lx.Cur() == ' ' || p.lx.Cur() == '\t' {
		p.lx.Advance()
	}
}

func (p *parser) skipAllWhitespace() {
	for isWhitespaceRune(p.lx.Cur()) {
		p.lx.Advance()
	}
}

// tryBlock attempts to capture an optional trailing block. It first
// skips same-line whitespace; a lone `-` immediately before a block
// opener is a chain marker that additionally skips whitespace across
// line breaks (spec.md §4.C). If no block follows, the lexer position
// is rolled back so the skipped text is available to whatever parses
// next.
func (p *parser) tryBlock() *ast.Block {
	mark := p.lx.Mark()
	p.skipSimpleSpace()
	if p.lx.Cur() == '-' {
		p.lx.Advance()
		p.skipAllWhitespace()
	}
	if p.lx.Cur() == '{' || p.lx.Cur() == '(' {
		return p.parseBlockBody()
	}
	p.lx.Reset(mark)
	return nil
}

func (p *parser) requireBlock(pos token.Position, what string) *ast.Block {
	b := p.tryBlock()
	if b == nil {
		p.errorf(arcerr.UnterminatedTag, pos, "expected %s block", what)
	}
	return b
}

// parseBlockBody captures a block's content as an already-parsed Node
// sequence: spec.md's design notes call for parsing once per source
// and evaluating the resulting Nodes many times (e.g. once per loop
// iteration), not re-parsing captured text on every pass. Cur() is
// the opener on entry.
func (p *parser) parseBlockBody() *ast.Block {
	open := byte(p.lx.Cur())
	close := matchingClose(open)
	p.lx.Advance()
	term := &blockTerm{open: open, close: close, depth: 1}
	nodes := p.parseNodes(term)
	return &ast.Block{Nodes: nodes, Open: open, Close: close}
}

// parseBlockList captures Set-Item's list-of-value-blocks: one
// required block followed by as many further chained blocks as
// follow.
func (p *parser) parseBlockList(pos token.Position) []*ast.Block {
	first := p.requireBlock(pos, "value")
	if first == nil {
		return nil
	}
	blocks := []*ast.Block{first}
	for {
		b := p.tryBlock()
		if b == nil {
			break
		}
		blocks = append(blocks, b)
	}
	return blocks
}
