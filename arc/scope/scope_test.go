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

package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arcana.dev/arcana/arc/scope"
	"arcana.dev/arcana/arc/value"
)

func rootWith(t *testing.T, json string) value.Value {
	t.Helper()
	v, err := value.ParseJSON([]byte(json))
	require.NoError(t, err)
	return v
}

func TestResolveWalksOutward(t *testing.T) {
	s := scope.NewStack(rootWith(t, `{"n":"Jane"}`))
	s.Enter(false)
	require.NoError(t, s.Write([]string{"m"}, value.NewString("inner")))

	got, ok := s.Resolve([]string{"n"})
	require.True(t, ok)
	assert.Equal(t, "Jane", got.String())

	got, ok = s.Resolve([]string{"m"})
	require.True(t, ok)
	assert.Equal(t, "inner", got.String())
}

func TestRootAliasResolvesOutermost(t *testing.T) {
	s := scope.NewStack(rootWith(t, `{"n":"Jane"}`))
	s.Enter(true)
	got, ok := s.Resolve([]string{"$root", "n"})
	require.True(t, ok)
	assert.Equal(t, "Jane", got.String())
}

func TestWriteNewAliasCreatedAtTop(t *testing.T) {
	s := scope.NewStack(rootWith(t, `{}`))
	s.Enter(true)
	require.NoError(t, s.Write([]string{"fresh"}, value.NewString("x")))

	_, ok := s.Resolve([]string{"fresh"})
	require.True(t, ok)

	before := s.Root()
	s.Exit()
	assert.Equal(t, 0, before.Obj().Len(), "fresh alias must not have leaked to root scope")
}

func TestWriteToExistingOuterAliasUpdatesInPlaceWhenUnsealed(t *testing.T) {
	s := scope.NewStack(rootWith(t, `{"n":1}`))
	s.Enter(false) // unsealed child
	require.NoError(t, s.Write([]string{"n"}, value.NewNumber(2)))
	s.Exit()

	got, _ := s.Resolve([]string{"n"})
	assert.Equal(t, float64(2), got.Number())
}

func TestSealedScopeShadowsWriteToOuterAlias(t *testing.T) {
	s := scope.NewStack(rootWith(t, `{"n":1}`))
	s.Enter(true) // sealed child, as Include-File/For-Each/Set-body push
	require.NoError(t, s.Write([]string{"n"}, value.NewNumber(99)))

	got, _ := s.Resolve([]string{"n"})
	assert.Equal(t, float64(99), got.Number(), "write should be visible inside the sealed scope")

	s.Exit()
	got, _ = s.Resolve([]string{"n"})
	assert.Equal(t, float64(1), got.Number(), "outer alias must be unchanged after popping the sealed scope")
}

func TestContextSealInvariantAcrossNestedSeal(t *testing.T) {
	s := scope.NewStack(rootWith(t, `{"a":1,"b":{"c":2}}`))
	before := s.Snapshot()

	s.Enter(true)
	require.NoError(t, s.Write([]string{"a"}, value.NewNumber(1000)))
	require.NoError(t, s.Write([]string{"d"}, value.NewString("new")))
	s.Exit()

	after := s.Snapshot()
	assert.True(t, value.Equal(before, after), "caller scope must be unchanged after a sealed child scope pops")
}

func TestMergeIntoCurrent(t *testing.T) {
	s := scope.NewStack(rootWith(t, `{"album":{"name":"A"}}`))
	album, ok := s.Resolve([]string{"album"})
	require.True(t, ok)

	s.MergeIntoCurrent(album.Obj())
	got, ok := s.Resolve([]string{"name"})
	require.True(t, ok)
	assert.Equal(t, "A", got.String())
}

func TestArrayPushAndPop(t *testing.T) {
	s := scope.NewStack(rootWith(t, `{}`))
	require.NoError(t, s.ArrayPush([]string{"xs"}, value.NewNumber(1)))
	require.NoError(t, s.ArrayPush([]string{"xs"}, value.NewNumber(2)))

	v, ok, err := s.ArrayPop([]string{"xs"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float64(2), v.Number())
}
