package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridgegen/internal/derive"
	"bridgegen/internal/errors"
	"bridgegen/internal/gen"
)

const greetDecl = `
module: greet
opaque_types:
  - name: Greeter
    methods:
      - { name: new, init: true, return: Greeter }
      - { name: greet, args: [{ name: who, type: "&str" }], return: String }
functions:
  - name: greeting_len
    args: [{ name: name, type: "&str" }]
    return: usize
`

// run executes the CLI inside a fresh working directory so no project
// configuration leaks in.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(dir)

	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func writeDecl(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	writeDecl(t, dir, "greet.yaml", greetDecl)

	out, err := run(t, dir, "generate", "-o", "bridge", "greet.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote greet.rs")

	for _, name := range []string{
		"greet.rs", "greet.swift", "greet.h",
		derive.CoreSystemsName, derive.CoreManagedName, derive.CoreHeaderName,
		gen.ManifestName,
	} {
		assert.FileExists(t, filepath.Join(dir, "bridge", name))
	}

	header, err := os.ReadFile(filepath.Join(dir, "bridge", "greet.h"))
	require.NoError(t, err)
	assert.Contains(t, string(header), "__swift_bridge__$greeting_len")

	out, err = run(t, dir, "generate", "-o", "bridge", "greet.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "0 written, 6 unchanged, 0 removed")
}

func TestGenerateWithoutCoreUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeDecl(t, dir, "greet.yaml", greetDecl)
	writeDecl(t, dir, "bridgegen.toml", `
[output]
dir = "from-config"
core = false

[naming]
prefix = "__my__"
`)

	_, err := run(t, dir, "generate", "greet.yaml")
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "from-config", derive.CoreHeaderName))

	header, err := os.ReadFile(filepath.Join(dir, "from-config", "greet.h"))
	require.NoError(t, err)
	assert.Contains(t, string(header), "__my__$greeting_len")
}

func TestCheckReportsDiagnostics(t *testing.T) {
	dir := t.TempDir()
	writeDecl(t, dir, "bad.yaml", `
module: bad
functions:
  - name: f
    args: [{ name: a, type: Missing }]
`)

	out, err := run(t, dir, "check", "bad.yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errDiagnostics))
	assert.Contains(t, out, "error[unresolved-type] bad.yaml: fn f (functions.0.args.0)")
	assert.NoDirExists(t, filepath.Join(dir, "generated"))
}

func TestGenerateRejectsConflictingFiles(t *testing.T) {
	dir := t.TempDir()
	writeDecl(t, dir, "a.yaml", `
module: a
structs:
  - name: Point
    fields: [{ name: x, type: u8 }]
`)
	writeDecl(t, dir, "b.yaml", `
module: b
structs:
  - name: Point
    fields: [{ name: y, type: u32 }]
`)

	out, err := run(t, dir, "generate", "-o", "bridge", "a.yaml", "b.yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errDiagnostics))
	assert.Contains(t, out, "error[declaration-conflict] b.yaml: struct Point (structs.0)")
	assert.NoDirExists(t, filepath.Join(dir, "bridge"))
}

func TestCheckOK(t *testing.T) {
	dir := t.TempDir()
	writeDecl(t, dir, "greet.yaml", greetDecl)

	out, err := run(t, dir, "check", "greet.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "1 declaration files ok")
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	writeDecl(t, dir, "greet.yaml", greetDecl)

	out, err := run(t, dir, "inspect", "-f", "greet.yaml", "Option<Greeter>")
	require.NoError(t, err)
	assert.Contains(t, out, "strategy: sentinel_reuse")
	assert.Contains(t, out, "layout:   size 8, align 8")

	out, err = run(t, dir, "inspect", "--dump", "Result<u8, String>")
	require.NoError(t, err)
	assert.Contains(t, out, `Strategy: (string) (len=12) "tagged_union"`)

	_, err = run(t, dir, "inspect", "Unknown")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "bridgegen "+version)
}
