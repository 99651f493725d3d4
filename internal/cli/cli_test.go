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

package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arcana.dev/arcana/internal/cli"
)

func runCmd(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	c := cli.New(args)
	var out, errBuf bytes.Buffer
	c.SetOut(&out)
	c.SetErr(&errBuf)
	c.SetIn(strings.NewReader(stdin))
	err = c.ExecuteContext(context.Background())
	return out.String(), errBuf.String(), err
}

func TestCompileFromString(t *testing.T) {
	out, _, err := runCmd(t, "", "-s", "Hello, World!")
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", out)
}

func TestCompileFromStdin(t *testing.T) {
	out, _, err := runCmd(t, "plain text", "-i")
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)
}

func TestCompileFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tpl.txt")
	require.NoError(t, os.WriteFile(path, []byte("static"), 0o644))

	out, _, err := runCmd(t, "", path)
	require.NoError(t, err)
	assert.Equal(t, "static", out)
}

func TestVersionFlag(t *testing.T) {
	out, _, err := runCmd(t, "", "-V")
	require.NoError(t, err)
	assert.Contains(t, out, "arcc version")
}

func TestLicenseNoticeFlag(t *testing.T) {
	out, _, err := runCmd(t, "", "-l")
	require.NoError(t, err)
	assert.Contains(t, out, "Apache License")
}

func TestDeployFlag(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tpl.txt"), []byte("Hi ${n}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ctx.json"), []byte(`{"n":"A"}`), 0o644))
	schema := `{"actions":[{"action":"compile-file","template":"tpl.txt","context":"ctx.json","output":"out.txt"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.json"), []byte(schema), 0o644))

	_, _, err := runCmd(t, "", "-d", filepath.Join(dir, "schema.json"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Hi A", string(data))
}

func TestNoArgsPrintsHelp(t *testing.T) {
	out, _, err := runCmd(t, "")
	require.NoError(t, err)
	assert.Contains(t, out, "arcc")
}
