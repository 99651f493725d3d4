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

package value_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arcana.dev/arcana/arc/value"
)

func TestParseJSONPreservesKeyOrder(t *testing.T) {
	v, err := value.ParseJSON([]byte(`{"z":1,"a":2,"m":3}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, v.Obj().Keys())
}

func TestJSONRoundTrip(t *testing.T) {
	src := `{"name":"Jane","age":42,"tags":["a","b"],"nested":{"x":1,"y":null},"ok":true}`
	v, err := value.ParseJSON([]byte(src))
	require.NoError(t, err)

	out, err := value.Serialize(v, false)
	require.NoError(t, err)

	roundTripped, err := value.ParseJSON([]byte(out))
	require.NoError(t, err)

	if diff := cmp.Diff(dump(v), dump(roundTripped)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// dump flattens a Value into a comparable plain structure for cmp,
// since Value itself has unexported fields.
func dump(v value.Value) any {
	switch v.Kind() {
	case value.Object:
		m := map[string]any{}
		order := v.Obj().Keys()
		for _, k := range order {
			child, _ := v.Obj().Get(k)
			m[k] = dump(child)
		}
		return struct {
			Order []string
			Vals  map[string]any
		}{order, m}
	case value.Array:
		out := make([]any, len(v.Array()))
		for i, e := range v.Array() {
			out[i] = dump(e)
		}
		return out
	case value.String:
		return v.String()
	case value.Number:
		return v.Number()
	case value.Bool:
		return v.Bool()
	default:
		return nil
	}
}

func TestGetSetPath(t *testing.T) {
	root := value.NewObject(value.NewObj())
	require.NoError(t, value.Set(&root, []string{"a", "b", "c"}, value.NewString("hi")))

	got, ok := value.Get(root, []string{"a", "b", "c"})
	require.True(t, ok)
	assert.Equal(t, "hi", got.String())

	_, ok = value.Get(root, []string{"a", "missing"})
	assert.False(t, ok)
}

func TestSetOverwritesArrayElement(t *testing.T) {
	root := value.NewObject(value.NewObj())
	require.NoError(t, value.Set(&root, []string{"xs"}, value.NewArray([]value.Value{
		value.NewString("a"), value.NewString("b"),
	})))
	require.NoError(t, value.Set(&root, []string{"xs", "1"}, value.NewString("B")))

	got, ok := value.Get(root, []string{"xs", "1"})
	require.True(t, ok)
	assert.Equal(t, "B", got.String())
}

func TestUnsetDoesNotVivifyMissingPath(t *testing.T) {
	root := value.NewObject(value.NewObj())
	_, ok := value.Unset(&root, []string{"a", "b", "c"})
	assert.False(t, ok)
	assert.Equal(t, 0, root.Obj().Len())
}

func TestPushInitializesArray(t *testing.T) {
	root := value.NewObject(value.NewObj())
	require.NoError(t, value.Push(&root, []string{"xs"}, value.NewNumber(1)))
	require.NoError(t, value.Push(&root, []string{"xs"}, value.NewNumber(2)))

	got, ok := value.Get(root, []string{"xs"})
	require.True(t, ok)
	require.Len(t, got.Array(), 2)
	assert.Equal(t, float64(2), got.Array()[1].Number())
}

func TestPop(t *testing.T) {
	root := value.NewObject(value.NewObj())
	require.NoError(t, value.Set(&root, []string{"xs"}, value.NewArray([]value.Value{
		value.NewNumber(1), value.NewNumber(2), value.NewNumber(3),
	})))

	popped, ok, err := value.Pop(&root, []string{"xs"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float64(3), popped.Number())

	got, _ := value.Get(root, []string{"xs"})
	assert.Len(t, got.Array(), 2)
}

func TestTruthinessAndEmptiness(t *testing.T) {
	assert.False(t, value.Nul().Truthy())
	assert.True(t, value.Nul().Empty())

	assert.False(t, value.NewNumber(0).Truthy())
	assert.True(t, value.NewNumber(1).Truthy())

	assert.True(t, value.NewString("").Truthy())
	assert.True(t, value.NewString("").Empty())

	assert.True(t, value.NewArray(nil).Empty())
	assert.False(t, value.NewArray([]value.Value{value.Nul()}).Empty())

	obj := value.NewObj()
	empty := value.NewObject(obj)
	assert.True(t, empty.Empty())
	assert.False(t, empty.Truthy())
	obj.Set("k", value.NewString("v"))
	assert.False(t, empty.Empty())
	assert.True(t, empty.Truthy())
}

func TestCompareTypeMismatch(t *testing.T) {
	_, err := value.Compare(value.NewNumber(1), value.NewString("x"))
	assert.ErrorIs(t, err, value.ErrTypeMismatch)

	c, err := value.Compare(value.NewNumber(1), value.NewNumber(2))
	require.NoError(t, err)
	assert.Equal(t, -1, c)
}
