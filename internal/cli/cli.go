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

// Package cli wires arcc's flat (no-subcommand) flag surface onto
// arc/eval, arc/value, and internal/deploy, in the style of
// cmd/cue/cmd's cobra.Command + runFunction pairing, trimmed down
// since arcc has no subcommands of its own.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	arcerr "arcana.dev/arcana/arc/errors"
	"arcana.dev/arcana/arc/eval"
	"arcana.dev/arcana/arc/value"
	"arcana.dev/arcana/internal/deploy"
)

// version is set at build time via -ldflags, following
// cmd/cue/cmd/version.go's pattern.
var version string

const licenseNotice = `Arcana is licensed under the Apache License, Version 2.0.
Run "arcc -L" to print the full license text.`

// fullLicense holds the Apache 2.0 text. No LICENSE file travels with
// this build, so -L prints the same notice -l does; a
// real distribution would embed the full text here.
const fullLicense = licenseNotice

// Command wraps the single cobra.Command arcc exposes, in the style of
// cmd/cue/cmd.Command, without the subcommand tree cmd/cue carries.
type Command struct {
	*cobra.Command

	fromString        string
	deployPath        string
	interactive       bool
	showLicenseNotice bool
	showLicense       bool
	showVersion       bool
	trace             bool

	logger *slog.Logger
}

// New builds arcc's root command.
func New(args []string) *Command {
	c := &Command{}
	root := &cobra.Command{
		Use:           "arcc [flags] [PATH]",
		Short:         "arcc compiles Arcana templates.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), args)
		},
	}
	c.addFlags(root.Flags())
	root.SetArgs(args)

	c.Command = root
	return c
}

// addFlags registers arcc's flat flag surface onto f, in the style of
// cmd/cue/cmd/flags.go's addGlobalFlags/addOutFlags helpers.
func (c *Command) addFlags(f *pflag.FlagSet) {
	f.BoolVarP(&c.interactive, "interactive", "i", false, "read stdin to EOF, compile as template")
	f.BoolVarP(&c.showLicenseNotice, "license-notice", "l", false, "print the license notice")
	f.BoolVarP(&c.showLicense, "license", "L", false, "print the full license text")
	f.StringVarP(&c.fromString, "from-string", "s", "", "compile the literal string")
	f.BoolVarP(&c.showVersion, "version", "V", false, "print version")
	f.StringVarP(&c.deployPath, "deploy", "d", "", "run a deployment schema")
	f.BoolVar(&c.trace, "trace", false, "enable debug-level tag/node tracing")
}

func (c *Command) run(ctx context.Context, args []string) error {
	c.logger = newLogger(c.trace, c.Command.ErrOrStderr())

	switch {
	case c.showVersion:
		fmt.Fprintln(c.Command.OutOrStdout(), versionString())
		return nil
	case c.showLicense:
		fmt.Fprintln(c.Command.OutOrStdout(), fullLicense)
		return nil
	case c.showLicenseNotice:
		fmt.Fprintln(c.Command.OutOrStdout(), licenseNotice)
		return nil
	case c.deployPath != "":
		return c.runDeploy(ctx, c.deployPath)
	case c.interactive:
		return c.runInteractive(ctx)
	case c.fromString != "":
		return c.runString(ctx, c.fromString)
	case len(args) == 1:
		return c.runFile(ctx, args[0])
	default:
		return c.Command.Help()
	}
}

func newLogger(trace bool, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if trace {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (c *Command) runFile(ctx context.Context, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.compile(ctx, path, src)
}

func (c *Command) runString(ctx context.Context, s string) error {
	return c.compile(ctx, "<string>", []byte(s))
}

func (c *Command) runInteractive(ctx context.Context) error {
	src, err := io.ReadAll(c.Command.InOrStdin())
	if err != nil {
		return err
	}
	return c.compile(ctx, "<stdin>", src)
}

func (c *Command) compile(ctx context.Context, name string, src []byte) error {
	root, err := c.loadContext()
	if err != nil {
		return err
	}
	ev := eval.New(eval.Config{Logger: c.logger}, root)
	out, err := ev.Run(ctx, name, src)
	if err != nil {
		return err
	}
	fmt.Fprint(c.Command.OutOrStdout(), out)
	return nil
}

// loadContext builds the root context Value arcc compiles against.
// arcc itself carries no context-file flag in spec.md's surface, so
// templates run against an empty root object unless they populate it
// themselves via Source-File tags.
func (c *Command) loadContext() (value.Value, error) {
	return value.NewObject(value.NewObj()), nil
}

// runDeploy roots schema-relative paths at the schema file's own
// directory, so a deployment schema can be invoked from anywhere and
// still resolve its templates/contexts relative to itself.
func (c *Command) runDeploy(ctx context.Context, schemaPath string) error {
	data, err := os.ReadFile(schemaPath)
	if err != nil {
		return err
	}
	var schema deploy.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return fmt.Errorf("deploy: invalid schema %s: %w", schemaPath, err)
	}
	d := &deploy.Driver{
		Root:   filepath.Dir(schemaPath),
		Cfg:    eval.Config{Logger: c.logger},
		Logger: c.logger,
	}
	return d.Run(ctx, schema)
}

func versionString() string {
	if version != "" {
		return "arcc version " + version
	}
	return "arcc version (devel)"
}

// Run executes arcc and returns the code for os.Exit.
func Run(ctx context.Context, args []string) int {
	cmd := New(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		printError(cmd, err)
		return 1
	}
	return 0
}

// Main runs arcc using os.Args and returns the code for os.Exit, the
// shape cmd/cue/cmd.Main takes so the same function can be re-exec'd
// as the "arcc" command by a testscript harness.
func Main() int {
	return Run(context.Background(), os.Args[1:])
}

// printError prints err to stderr, expanding an arc/errors.List into
// one line per collected Error rather than its single-string Error().
func printError(c *Command, err error) {
	if list, ok := err.(arcerr.List); ok {
		for _, e := range list {
			fmt.Fprintln(c.Command.ErrOrStderr(), e.Error())
		}
		return
	}
	fmt.Fprintln(c.Command.ErrOrStderr(), err.Error())
}
