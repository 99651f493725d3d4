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

// Package parser turns a template source buffer into a tree of
// arc/ast.Node values, combining cue/parser's recursive-descent shape
// with the text-and-tag split used by Go's own text/template parser
// and by robfig-soy's template parser: free text is copied through
// verbatim except where a two-character tag opener (sigil + `{` or
// sigil + `(`) is recognized, at which point control hands off to a
// tag-specific grammar.
//
// Unlike cue/parser, there is no separate tokenizing pass: package
// lexer exposes only rune-level primitives, and the parser itself
// decides, character by character, whether it is looking at plain
// text or the start of a tag.
package parser

import (
	"strings"

	"arcana.dev/arcana/arc/ast"
	arcerr "arcana.dev/arcana/arc/errors"
	"arcana.dev/arcana/arc/lexer"
	"arcana.dev/arcana/arc/token"
)

// Parse parses src (named name, for position reporting) into a Node
// tree. It always returns whatever nodes it managed to assemble;
// check the returned error to see whether parsing was clean.
func Parse(name string, src []byte) ([]ast.Node, error) {
	p := &parser{lx: lexer.New(name, src)}
	nodes := p.parseNodes(nil)
	return nodes, p.errs.Sanitize().Err()
}

type parser struct {
	lx   *lexer.Lexer
	errs arcerr.List
}

func (p *parser) errorf(kind arcerr.Kind, pos token.Position, format string, args ...any) {
	p.errs.Add(arcerr.Newf(kind, pos, format, args...))
}

// blockTerm tracks the depth of one open delimiter pair while
// parseNodes scans the body of a block. Depth is tracked
// independently per delimiter pair (spec.md §4.C): a `(` appearing
// inside a `{...}`-delimited block is plain text, and vice versa.
type blockTerm struct {
	open, close byte
	depth       int
}

func matchingClose(open byte) byte {
	if open == '{' {
		return '}'
	}
	return ')'
}

func isWhitespaceRune(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isSigilRune(r rune) bool {
	switch r {
	case '#', '!', '+', '.', '&', '%', '@', '*', '$', '=', '/', '^', '~', '-':
		return true
	}
	return false
}

// parseNodes scans text and tags until either EOF (term == nil, the
// top-level call) or term's close delimiter is seen at depth 0 (a
// block body). The closing delimiter is consumed but not
// included in the returned nodes.
func (p *parser) parseNodes(term *blockTerm) []ast.Node {
	var nodes []ast.Node
	var buf strings.Builder
	var bufPos token.Position
	haveBufPos := false

	flush := func() {
		if buf.Len() > 0 {
			nodes = append(nodes, &ast.Text{Base: ast.Base{At: bufPos}, Value: buf.String()})
			buf.Reset()
			haveBufPos = false
		}
	}
	appendRune := func(r rune) {
		if !haveBufPos {
			bufPos = p.lx.Pos(p.lx.Offset())
			haveBufPos = true
		}
		buf.WriteRune(r)
	}

	for {
		if p.lx.AtEOF() {
			if term != nil {
				p.errorf(arcerr.UnterminatedBlock, bufPosOrHere(p, haveBufPos, bufPos), "unterminated block: expected %q", string(term.close))
			}
			break
		}
		ch := p.lx.Cur()

		if term != nil && ch == rune(term.open) {
			term.depth++
			appendRune(ch)
			p.lx.Advance()
			continue
		}
		if term != nil && ch == rune(term.close) {
			term.depth--
			p.lx.Advance()
			if term.depth == 0 {
				break
			}
			appendRune(ch)
			continue
		}

		if ch == '\\' {
			ws, lit, isText := p.scanEscape()
			if ws != nil {
				flush()
				nodes = append(nodes, ws)
				continue
			}
			if isText {
				appendRune(lit)
			}
			continue
		}

		if isSigilRune(ch) {
			if nxt := p.lx.Peek(); nxt == '{' || nxt == '(' {
				flush()
				pos := p.lx.Pos(p.lx.Offset())
				if node := p.parseTag(ch, pos); node != nil {
					nodes = append(nodes, node)
				}
				continue
			}
		}

		appendRune(ch)
		p.lx.Advance()
	}
	flush()
	return nodes
}

func bufPosOrHere(p *parser, have bool, pos token.Position) token.Position {
	if have {
		return pos
	}
	return p.lx.Pos(p.lx.Offset())
}

// scanEscape handles a backslash encountered in free text. A
// backslash immediately before a newline is whitespace continuation:
// it and all following whitespace are consumed, emitting a
// WhitespaceContinuation node. Otherwise the following character is
// emitted as literal text.
func (p *parser) scanEscape() (*ast.WhitespaceContinuation, rune, bool) {
	pos := p.lx.Pos(p.lx.Offset())
	p.lx.Advance() // consume backslash
	if p.lx.Cur() == '\n' {
		p.lx.Advance()
		for isWhitespaceRune(p.lx.Cur()) {
			p.lx.Advance()
		}
		return &ast.WhitespaceContinuation{Base: ast.Base{At: pos}}, 0, false
	}
	if p.lx.AtEOF() {
		p.errorf(arcerr.BadEscape, pos, "backslash at end of input")
		return nil, 0, false
	}
	r := p.lx.Cur()
	p.lx.Advance()
	return nil, r, true
}

// parseTag dispatches on the sigil that precedes an opener already
// confirmed to be `{` or `(`. Cur() is the sigil itself on entry.
func (p *parser) parseTag(sigil rune, pos token.Position) ast.Node {
	p.lx.Advance() // consume the sigil; Cur() is now '{' or '('
	switch sigil {
	case '#':
		node := p.parseCommentLike(pos, "}#", func(b ast.Base, raw string) ast.Node {
			return &ast.Comment{Base: b, Raw: raw}
		})
		p.consumeOneNewline()
		return node
	case '!':
		node := p.parseCommentLike(pos, "}!", func(b ast.Base, raw string) ast.Node {
			return &ast.Ignore{Base: b, Raw: raw}
		})
		p.consumeOneNewline()
		return node
	case '+':
		return p.parseExtendTemplate(pos)
	case '.':
		return p.parseSourceFile(pos)
	case '&':
		return p.parseIncludeFile(pos)
	case '%':
		return p.parseIf(pos)
	case '@':
		return p.parseForEachItem(pos)
	case '*':
		return p.parseForEachFile(pos)
	case '$':
		return p.parseIncludeContent(pos)
	case '=':
		return p.parseSetOrSiphon(pos)
	case '/':
		return p.parseUnset(pos)
	case '^':
		return p.parseWrite(pos)
	case '~':
		return p.parseCopyPath(pos)
	case '-':
		return p.parseDeletePath(pos)
	default:
		p.errorf(arcerr.UnknownSigil, pos, "unknown sigil %q", string(sigil))
		return nil
	}
}

// parseCommentLike swallows raw content verbatim (no nested tag
// recognition, no nesting depth) up to the literal two-byte closer.
// Cur() is the opener ('{' or '(') on entry.
func (p *parser) parseCommentLike(pos token.Position, closer string, build func(ast.Base, string) ast.Node) ast.Node {
	p.lx.Advance() // consume opener
	var raw strings.Builder
	for {
		if p.lx.AtEOF() {
			p.errorf(arcerr.UnterminatedTag, pos, "unterminated tag: expected %q", closer)
			break
		}
		if p.lx.Cur() == rune(closer[0]) && p.lx.Peek() == rune(closer[1]) {
			p.lx.Advance()
			p.lx.Advance()
			break
		}
		raw.WriteRune(p.lx.Cur())
		p.lx.Advance()
	}
	return build(ast.Base{At: pos}, raw.String())
}

// consumeOneNewline swallows a single trailing newline right after a
// comment or ignore tag closes, per spec.md §4.E ("A comment or ignore
// immediately followed by a single newline consumes that newline").
// Folding this into the parser, rather than the evaluator, keeps the
// node's span covering the newline it owns, so §8's "replace a
// comment/ignore node with empty text" invariant holds exactly.
func (p *parser) consumeOneNewline() {
	if p.lx.Cur() == '\n' {
		p.lx.Advance()
	}
}
