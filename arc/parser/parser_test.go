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

package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arcana.dev/arcana/arc/ast"
	"arcana.dev/arcana/arc/parser"
)

func TestIdempotentTextPassthrough(t *testing.T) {
	src := "plain text, no tags, no backslashes here."
	nodes, err := parser.Parse("t", []byte(src))
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	text := nodes[0].(*ast.Text)
	assert.Equal(t, src, text.Value)
}

func TestCommentAndIgnoreAreTransparent(t *testing.T) {
	nodes, err := parser.Parse("t", []byte(`A#{ dropped }#B!{ also dropped }!C`))
	require.NoError(t, err)
	require.Len(t, nodes, 5)
	assert.Equal(t, "A", nodes[0].(*ast.Text).Value)
	assert.Equal(t, " dropped ", nodes[1].(*ast.Comment).Raw)
	assert.Equal(t, "B", nodes[2].(*ast.Text).Value)
	assert.Equal(t, " also dropped ", nodes[3].(*ast.Ignore).Raw)
	assert.Equal(t, "C", nodes[4].(*ast.Text).Value)
}

func TestWhitespaceContinuation(t *testing.T) {
	nodes, err := parser.Parse("t", []byte("A \\\n   B"))
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, "A ", nodes[0].(*ast.Text).Value)
	assert.IsType(t, &ast.WhitespaceContinuation{}, nodes[1])
	assert.Equal(t, "B", nodes[2].(*ast.Text).Value)
}

func TestBasicIncludeContent(t *testing.T) {
	nodes, err := parser.Parse("t", []byte(`Hello ${n}!`))
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, "Hello ", nodes[0].(*ast.Text).Value)
	ic := nodes[1].(*ast.IncludeContent)
	assert.Equal(t, []string{"n"}, ic.Alias)
	assert.Equal(t, "!", nodes[2].(*ast.Text).Value)
}

func TestSourceFileWithAsModifier(t *testing.T) {
	nodes, err := parser.Parse("t", []byte(`.{"c.json"|as p}${p.name}: ${p.age}`))
	require.NoError(t, err)
	require.Len(t, nodes, 4)

	sf := nodes[0].(*ast.SourceFile)
	assert.True(t, sf.Path.IsLit)
	assert.Equal(t, "c.json", sf.Path.Literal)
	require.Len(t, sf.Modifiers, 1)
	assert.Equal(t, "as", sf.Modifiers[0].Name)
	assert.Equal(t, []string{"p"}, sf.Modifiers[0].Args)

	first := nodes[1].(*ast.IncludeContent)
	assert.Equal(t, []string{"p", "name"}, first.Alias)
	assert.Equal(t, ": ", nodes[2].(*ast.Text).Value)
	second := nodes[3].(*ast.IncludeContent)
	assert.Equal(t, []string{"p", "age"}, second.Alias)
}

func TestIfElseExists(t *testing.T) {
	nodes, err := parser.Parse("t", []byte(`%{x exists}{Y}{N}`))
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	ifNode := nodes[0].(*ast.If)
	require.Len(t, ifNode.Cond.Terms, 1)
	term := ifNode.Cond.Terms[0]
	assert.Equal(t, []string{"x"}, term.Alias)
	assert.Equal(t, "exists", term.Predicate)
	assert.False(t, term.Negate)

	require.NotNil(t, ifNode.Then)
	require.Len(t, ifNode.Then.Nodes, 1)
	assert.Equal(t, "Y", ifNode.Then.Nodes[0].(*ast.Text).Value)

	require.NotNil(t, ifNode.Else)
	require.Len(t, ifNode.Else.Nodes, 1)
	assert.Equal(t, "N", ifNode.Else.Nodes[0].(*ast.Text).Value)
}

func TestForEachWithLoopContext(t *testing.T) {
	nodes, err := parser.Parse("t", []byte(`@{i in xs}{${$loop.position}:${i};}{none}`))
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	fe := nodes[0].(*ast.ForEachItem)
	assert.Equal(t, "i", fe.Var)
	assert.Equal(t, []string{"xs"}, fe.Source)

	require.Len(t, fe.Body.Nodes, 3)
	loopPos := fe.Body.Nodes[0].(*ast.IncludeContent)
	assert.Equal(t, []string{"$loop", "position"}, loopPos.Alias)
	assert.Equal(t, ":", fe.Body.Nodes[1].(*ast.Text).Value)
	item := fe.Body.Nodes[2].(*ast.IncludeContent)
	assert.Equal(t, []string{"i"}, item.Alias)

	require.Len(t, fe.Empty.Nodes, 1)
	assert.Equal(t, "none", fe.Empty.Nodes[0].(*ast.Text).Value)
}

func TestSiphonRoot(t *testing.T) {
	nodes, err := parser.Parse("t", []byte(`={$root}<{album}${name}`))
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	siphon := nodes[0].(*ast.Siphon)
	assert.Equal(t, []string{"$root"}, siphon.Dst)
	assert.Equal(t, []string{"album"}, siphon.Src)

	ic := nodes[1].(*ast.IncludeContent)
	assert.Equal(t, []string{"name"}, ic.Alias)
}

func TestSetItemJSONDialect(t *testing.T) {
	nodes, err := parser.Parse("t", []byte(`={}({"k":"v"})${k}`))
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	set := nodes[0].(*ast.SetItem)
	assert.Equal(t, []string{}, set.Alias)
	require.Len(t, set.Blocks, 1)
	assert.True(t, set.Blocks[0].JSONDialect())
	require.Len(t, set.Blocks[0].Nodes, 1)
	assert.Equal(t, `{"k":"v"}`, set.Blocks[0].Nodes[0].(*ast.Text).Value)

	ic := nodes[1].(*ast.IncludeContent)
	assert.Equal(t, []string{"k"}, ic.Alias)
}

func TestSetItemStringDialectDoesNotUseJSON(t *testing.T) {
	nodes, err := parser.Parse("t", []byte(`={greeting}{hi there}`))
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	set := nodes[0].(*ast.SetItem)
	assert.Equal(t, []string{"greeting"}, set.Alias)
	require.Len(t, set.Blocks, 1)
	assert.False(t, set.Blocks[0].JSONDialect())
	assert.Equal(t, "hi there", set.Blocks[0].Nodes[0].(*ast.Text).Value)
}

func TestSplitModifierParsesPositionalArgs(t *testing.T) {
	nodes, err := parser.Parse("t", []byte(`${n|split 2 1}`))
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	ic := nodes[0].(*ast.IncludeContent)
	assert.Equal(t, []string{"n"}, ic.Alias)
	require.Len(t, ic.Modifiers, 1)
	assert.Equal(t, "split", ic.Modifiers[0].Name)
	assert.Equal(t, []string{"2", "1"}, ic.Modifiers[0].Args)
}

func TestChainCollapsesWhitespaceAcrossNewlines(t *testing.T) {
	nodes, err := parser.Parse("t", []byte("%{t exists}-\n  {yes}-\n  {no}"))
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	ifNode := nodes[0].(*ast.If)
	require.Len(t, ifNode.Then.Nodes, 1)
	assert.Equal(t, "yes", ifNode.Then.Nodes[0].(*ast.Text).Value)
	require.Len(t, ifNode.Else.Nodes, 1)
	assert.Equal(t, "no", ifNode.Else.Nodes[0].(*ast.Text).Value)
}

func TestIndependentDelimiterNesting(t *testing.T) {
	// The '(' inside this {}-delimited Write body must not affect the
	// body's own closing '}': nesting is tracked per delimiter pair.
	nodes, err := parser.Parse("t", []byte(`^{out.txt}{plain (text) here}`))
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	w := nodes[0].(*ast.Write)
	require.Len(t, w.Body.Nodes, 1)
	assert.Equal(t, "plain (text) here", w.Body.Nodes[0].(*ast.Text).Value)
}

func TestCopyAndDeletePaths(t *testing.T) {
	nodes, err := parser.Parse("t", []byte(`~{"a.txt"}{"b.txt"}-{"a.txt"}`))
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	cp := nodes[0].(*ast.CopyPath)
	assert.Equal(t, "a.txt", cp.Src.Literal)
	assert.Equal(t, "b.txt", cp.Dst.Literal)

	del := nodes[1].(*ast.DeletePath)
	assert.Equal(t, "a.txt", del.Path.Literal)
}

func TestUnterminatedTagIsAnError(t *testing.T) {
	_, err := parser.Parse("t", []byte(`${unterminated`))
	require.Error(t, err)
}

func TestComparisonCondition(t *testing.T) {
	nodes, err := parser.Parse("t", []byte(`%{a == b}{eq}{neq}`))
	require.NoError(t, err)
	ifNode := nodes[0].(*ast.If)
	term := ifNode.Cond.Terms[0]
	assert.Equal(t, "==", term.CompareOp)
	assert.Equal(t, []string{"a"}, term.Alias)
	assert.Equal(t, []string{"b"}, term.Right)
}

func TestNegatedAndCombinedCondition(t *testing.T) {
	nodes, err := parser.Parse("t", []byte(`%{!a exists && b empty}{Y}{N}`))
	require.NoError(t, err)
	ifNode := nodes[0].(*ast.If)
	require.Len(t, ifNode.Cond.Terms, 2)
	require.Len(t, ifNode.Cond.Ops, 1)
	assert.Equal(t, "&&", ifNode.Cond.Ops[0])
	assert.True(t, ifNode.Cond.Terms[0].Negate)
	assert.Equal(t, "exists", ifNode.Cond.Terms[0].Predicate)
	assert.Equal(t, "empty", ifNode.Cond.Terms[1].Predicate)
}
