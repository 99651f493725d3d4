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

func (p *parser) parseExtendTemplate(pos token.Position) ast.Node {
	raw, _, _, ok := p.parseHeadRaw(pos)
	if !ok {
		return nil
	}
	return &ast.ExtendTemplate{Base: ast.Base{At: pos}, Path: parseExprText(raw)}
}

func (p *parser) parseSourceFile(pos token.Position) ast.Node {
	exprText, mods, _, _, ok := p.parseHead(pos)
	if !ok {
		return nil
	}
	return &ast.SourceFile{Base: ast.Base{At: pos}, Path: parseExprText(exprText), Modifiers: mods}
}

func (p *parser) parseIncludeFile(pos token.Position) ast.Node {
	exprText, mods, _, _, ok := p.parseHead(pos)
	if !ok {
		return nil
	}
	setup := p.tryBlock()
	return &ast.IncludeFile{Base: ast.Base{At: pos}, Path: parseExprText(exprText), Modifiers: mods, Setup: setup}
}

func (p *parser) parseIf(pos token.Position) ast.Node {
	raw, _, _, ok := p.parseHeadRaw(pos)
	if !ok {
		return nil
	}
	cond := p.parseCondition(raw, pos)
	then := p.requireBlock(pos, "then")
	if then == nil {
		return nil
	}
	elseB := p.tryBlock()
	return &ast.If{Base: ast.Base{At: pos}, Cond: cond, Then: then, Else: elseB}
}

// parseForEachHeader splits "VAR in REST" head text, returning REST
// unsplit since ForEachItem and ForEachFile interpret it differently
// (a bare alias path vs. a pathlike alias-or-literal).
func parseForEachHeader(exprText string) (varName, rest string, errMsg string) {
	fields := splitFields(exprText)
	if len(fields) < 3 || fields[1] != "in" {
		return "", "", "expected 'VAR in SOURCE'"
	}
	return fields[0], strings.Join(fields[2:], " "), ""
}

func (p *parser) parseForEachItem(pos token.Position) ast.Node {
	exprText, mods, _, _, ok := p.parseHead(pos)
	if !ok {
		return nil
	}
	varName, rest, errMsg := parseForEachHeader(exprText)
	if errMsg != "" {
		p.errorf(arcerr.BadModifier, pos, "for-each: %s", errMsg)
		return nil
	}
	body := p.requireBlock(pos, "body")
	if body == nil {
		return nil
	}
	empty := p.tryBlock()
	return &ast.ForEachItem{
		Base: ast.Base{At: pos}, Var: varName, Source: splitAliasText(rest),
		Modifiers: mods, Body: body, Empty: empty,
	}
}

func (p *parser) parseForEachFile(pos token.Position) ast.Node {
	exprText, mods, _, _, ok := p.parseHead(pos)
	if !ok {
		return nil
	}
	varName, rest, errMsg := parseForEachHeader(exprText)
	if errMsg != "" {
		p.errorf(arcerr.BadModifier, pos, "for-each: %s", errMsg)
		return nil
	}
	body := p.requireBlock(pos, "body")
	if body == nil {
		return nil
	}
	empty := p.tryBlock()
	return &ast.ForEachFile{
		Base: ast.Base{At: pos}, Var: varName, Path: parseExprText(rest),
		Modifiers: mods, Body: body, Empty: empty,
	}
}

func (p *parser) parseIncludeContent(pos token.Position) ast.Node {
	exprText, mods, _, _, ok := p.parseHead(pos)
	if !ok {
		return nil
	}
	return &ast.IncludeContent{Base: ast.Base{At: pos}, Alias: splitAliasText(exprText), Modifiers: mods}
}

// parseSetOrSiphon handles the `=` sigil, shared by Set-Item
// (`={alias|mods}{body}...`) and Siphon (`={dst}<{src}`): after the
// head, a `<` marks the Siphon form.
func (p *parser) parseSetOrSiphon(pos token.Position) ast.Node {
	exprText, mods, _, _, ok := p.parseHead(pos)
	if !ok {
		return nil
	}
	dst := splitAliasText(exprText)

	mark := p.lx.Mark()
	p.skipSimpleSpace()
	if p.lx.Cur() == '<' {
		p.lx.Advance()
		p.skipSimpleSpace()
		if p.lx.Cur() != '{' && p.lx.Cur() != '(' {
			p.errorf(arcerr.UnterminatedTag, pos, "siphon: expected source block after '<'")
			return nil
		}
		srcRaw, _, _, ok2 := p.parseHeadRaw(pos)
		if !ok2 {
			return nil
		}
		return &ast.Siphon{Base: ast.Base{At: pos}, Dst: dst, Src: splitAliasText(srcRaw)}
	}
	p.lx.Reset(mark)

	blocks := p.parseBlockList(pos)
	if blocks == nil {
		return nil
	}
	return &ast.SetItem{Base: ast.Base{At: pos}, Alias: dst, Modifiers: mods, Blocks: blocks}
}

func (p *parser) parseUnset(pos token.Position) ast.Node {
	exprText, mods, _, _, ok := p.parseHead(pos)
	if !ok {
		return nil
	}
	return &ast.Unset{Base: ast.Base{At: pos}, Alias: splitAliasText(exprText), Modifiers: mods}
}

func (p *parser) parseWrite(pos token.Position) ast.Node {
	raw, _, _, ok := p.parseHeadRaw(pos)
	if !ok {
		return nil
	}
	body := p.requireBlock(pos, "body")
	if body == nil {
		return nil
	}
	return &ast.Write{Base: ast.Base{At: pos}, Path: parseExprText(raw), Body: body}
}

func (p *parser) parseCopyPath(pos token.Position) ast.Node {
	srcRaw, _, _, ok := p.parseHeadRaw(pos)
	if !ok {
		return nil
	}
	p.skipSimpleSpace()
	if p.lx.Cur() != '{' && p.lx.Cur() != '(' {
		p.errorf(arcerr.UnterminatedTag, pos, "copy: expected destination path")
		return nil
	}
	dstRaw, _, _, ok2 := p.parseHeadRaw(pos)
	if !ok2 {
		return nil
	}
	return &ast.CopyPath{Base: ast.Base{At: pos}, Src: parseExprText(srcRaw), Dst: parseExprText(dstRaw)}
}

func (p *parser) parseDeletePath(pos token.Position) ast.Node {
	raw, _, _, ok := p.parseHeadRaw(pos)
	if !ok {
		return nil
	}
	return &ast.DeletePath{Base: ast.Base{At: pos}, Path: parseExprText(raw)}
}
