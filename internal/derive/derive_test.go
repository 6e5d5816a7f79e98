package derive_test

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/tools/txtar"

	"bridgegen/internal/decl"
	"bridgegen/internal/derive"
	"bridgegen/internal/diagnostic"
	"bridgegen/internal/errors"
)

func newFacade() *derive.Facade {
	return derive.New(derive.Config{Logger: zap.NewNop().Sugar()})
}

func parse(t *testing.T, src string) *decl.File {
	t.Helper()

	f, err := decl.Parse([]byte(src), decl.FormatYAML)
	require.NoError(t, err)

	return f
}

func section(a *txtar.Archive, name string) []byte {
	for _, f := range a.Files {
		if f.Name == name {
			return f.Data
		}
	}

	return nil
}

// assertFragments checks that every non-empty line of want appears in got,
// ignoring leading and trailing whitespace.
func assertFragments(t *testing.T, artifact string, want, got []byte) {
	t.Helper()

	for _, line := range strings.Split(string(want), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		assert.Contains(t, string(got), line, "%s is missing a fragment", artifact)
	}
}

func TestDeriveFixtures(t *testing.T) {
	t.Parallel()

	paths, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(strings.TrimSuffix(filepath.Base(path), ".txtar"), func(t *testing.T) {
			t.Parallel()

			archive, err := txtar.ParseFile(path)
			require.NoError(t, err)

			file, err := decl.Parse(section(archive, "decl.yaml"), decl.FormatYAML)
			require.NoError(t, err)

			art, diags, err := newFacade().Derive(context.Background(), file)
			require.NoError(t, err)
			require.False(t, diags.HasErrors(), "unexpected diagnostics: %v", diags.All())
			require.NotNil(t, art)

			assertFragments(t, "systems artifact", section(archive, "want.rs"), art.Systems)
			assertFragments(t, "managed artifact", section(archive, "want.swift"), art.Managed)
			assertFragments(t, "header", section(archive, "want.h"), art.Header)
		})
	}
}

func TestDeriveDeterministic(t *testing.T) {
	t.Parallel()

	archive, err := txtar.ParseFile(filepath.Join("testdata", "shared.txtar"))
	require.NoError(t, err)

	var first *derive.Artifacts

	for range 5 {
		file, err := decl.Parse(section(archive, "decl.yaml"), decl.FormatYAML)
		require.NoError(t, err)

		art, _, err := newFacade().Derive(context.Background(), file)
		require.NoError(t, err)
		require.NotNil(t, art)

		if first == nil {
			first = art
			continue
		}

		assert.True(t, bytes.Equal(first.Systems, art.Systems))
		assert.True(t, bytes.Equal(first.Managed, art.Managed))
		assert.True(t, bytes.Equal(first.Header, art.Header))
	}
}

func TestDeriveDiagnostics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		src       string
		code      string
		severity  diagnostic.DiagnosticSeverity
		artifacts bool
	}{
		{
			name: "unresolved argument type",
			src: `
module: m
functions:
  - name: f
    args: [{ name: a, type: Missing }]
`,
			code:     diagnostic.CodeUnresolvedType,
			severity: diagnostic.DiagnosticError,
		},
		{
			name: "duplicate declaration",
			src: `
module: m
opaque_types:
  - name: Thing
structs:
  - name: Thing
    fields: [{ name: a, type: u8 }]
`,
			code:     diagnostic.CodeDeclarationConflict,
			severity: diagnostic.DiagnosticError,
		},
		{
			name: "malformed declaration",
			src: `
module: m
structs:
  - name: Pair
    fields: [{ name: a, type: u8 }, { name: a, type: u16 }]
`,
			code:     diagnostic.CodeDeclarationConflict,
			severity: diagnostic.DiagnosticError,
		},
		{
			name: "initializer returning another type",
			src: `
module: m
opaque_types:
  - name: Counter
    methods:
      - { name: new, init: true, return: u32 }
`,
			code:     diagnostic.CodeInvalidDeclaration,
			severity: diagnostic.DiagnosticError,
		},
		{
			name: "type declared by another group",
			src: `
module: m
opaque_types:
  - name: Shared
    already_declared: true
functions:
  - name: touch
    args: [{ name: s, type: "&Shared" }]
`,
			code:      diagnostic.CodeAlreadyDeclared,
			severity:  diagnostic.DiagnosticInfo,
			artifacts: true,
		},
		{
			name: "optional reusing a null pointer",
			src: `
module: m
functions:
  - name: name
    return: Option<String>
`,
			code:      diagnostic.CodeSentinelReuse,
			severity:  diagnostic.DiagnosticInfo,
			artifacts: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			art, diags, err := newFacade().Derive(context.Background(), parse(t, tt.src))
			require.NoError(t, err)

			found := diags.WithCode(tt.code)
			require.NotEmpty(t, found, "diagnostics: %v", diags.All())
			assert.Equal(t, tt.severity, found[0].Severity)

			if tt.artifacts {
				assert.NotNil(t, art)
				assert.False(t, diags.HasErrors())
			} else {
				assert.Nil(t, art)
				assert.True(t, diags.HasErrors())
			}
		})
	}
}

func TestDeriveAlreadyDeclaredIsNotEmitted(t *testing.T) {
	t.Parallel()

	art, _, err := newFacade().Derive(context.Background(), parse(t, `
module: m
opaque_types:
  - name: Shared
    already_declared: true
functions:
  - name: make
    return: Shared
`))
	require.NoError(t, err)
	require.NotNil(t, art)

	assert.NotContains(t, string(art.Systems), "__swift_bridge__$Shared$_free")
	assert.NotContains(t, string(art.Managed), "public class SharedRef")
	assert.Contains(t, string(art.Managed), "return Shared(ptr: __swift_bridge__$make())")
}

func TestDeriveCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	art, _, err := newFacade().Derive(ctx, parse(t, "module: m\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, art)
}

func TestArtifactsFiles(t *testing.T) {
	t.Parallel()

	art, _, err := newFacade().Derive(context.Background(), parse(t, "module: empty\n"))
	require.NoError(t, err)
	require.NotNil(t, art)

	files := art.Files()
	require.Len(t, files, 3)
	assert.Equal(t, "empty.rs", files[0].Name)
	assert.Equal(t, "empty.swift", files[1].Name)
	assert.Equal(t, "empty.h", files[2].Name)
	assert.Contains(t, string(files[2].Content), `#include "SwiftBridgeCore.h"`)
}

func TestCore(t *testing.T) {
	t.Parallel()

	files, err := derive.Core(derive.Config{Logger: zap.NewNop().Sugar()})
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, derive.CoreSystemsName, files[0].Name)
	assert.Equal(t, derive.CoreManagedName, files[1].Name)
	assert.Equal(t, derive.CoreHeaderName, files[2].Name)

	systems, managed, header := string(files[0].Content), string(files[1].Content), string(files[2].Content)

	assert.Contains(t, systems, "pub mod string {")
	assert.Contains(t, systems, `#[export_name = "__swift_bridge__$Vec_u8$new"]`)
	assert.Contains(t, systems, `#[export_name = "__swift_bridge__$Vec_RustString$push"]`)
	assert.Contains(t, managed, "public protocol Vectorizable {")
	assert.Contains(t, managed, "extension UInt8: Vectorizable {")
	assert.Contains(t, header, "typedef struct RustStr { uint8_t* start; uintptr_t len; } RustStr;")
	assert.Contains(t, header, "__swift_bridge__$Vec_u8$len(")
}

func ExampleFacade_Derive() {
	file, _ := decl.Parse([]byte(`
module: greet
functions:
  - name: greeting_len
    args: [{ name: name, type: "&str" }]
    return: usize
`), decl.FormatYAML)

	art, _, _ := derive.New(derive.Config{Logger: zap.NewNop().Sugar()}).Derive(context.Background(), file)

	for _, line := range strings.Split(string(art.Header), "\n") {
		if strings.Contains(line, "greeting_len") {
			fmt.Println(line)
		}
	}
	// Output: uintptr_t __swift_bridge__$greeting_len(struct RustStr name);
}

func TestInspect(t *testing.T) {
	t.Parallel()

	file := parse(t, `
module: m
opaque_types:
  - name: Handle
structs:
  - name: Point
    fields: [{ name: x, type: f64 }, { name: y, type: f64 }]
`)

	tests := []struct {
		src      string
		shape    string
		strategy string
		size     int
		align    int
	}{
		{src: "u32", shape: "value", size: 4, align: 4},
		{src: "Option<u32>", shape: "value", strategy: "tagged_struct", size: 8, align: 4},
		{src: "Option<String>", shape: "value", strategy: "sentinel_reuse", size: 8, align: 8},
		{src: "Option<()>", shape: "value", strategy: "tag_only", size: 1, align: 1},
		{src: "Result<(), Handle>", shape: "value", strategy: "nullable_pointer", size: 8, align: 8},
		{src: "Point", shape: "value", size: 16, align: 8},
		{src: "Handle", shape: "pointer", size: 8, align: 8},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()

			in, diags, err := newFacade().Inspect(context.Background(), file, tt.src)
			require.NoError(t, err)
			require.False(t, diags.HasErrors(), "diagnostics: %v", diags.All())
			require.NotNil(t, in)

			assert.Equal(t, tt.shape, in.Shape)
			assert.Equal(t, tt.strategy, in.Strategy)
			assert.Equal(t, tt.size, in.Size)
			assert.Equal(t, tt.align, in.Align)
			assert.NotEmpty(t, in.Wire.C)

			if tt.strategy != "" {
				assert.NotEmpty(t, in.Explanation)
			}
		})
	}
}

func TestInspectUnresolved(t *testing.T) {
	t.Parallel()

	in, diags, err := newFacade().Inspect(context.Background(), parse(t, "module: m\n"), "Vec<Nope>")
	require.NoError(t, err)
	assert.Nil(t, in)
	assert.NotEmpty(t, diags.WithCode(diagnostic.CodeUnresolvedType))
}

func TestUnresolvedSuggestsNearNames(t *testing.T) {
	t.Parallel()

	_, diags, err := newFacade().Derive(context.Background(), parse(t, `
module: m
opaque_types:
  - name: Counter
functions:
  - name: f
    args: [{ name: c, type: "&Countr" }]
    return: Strng
`))
	require.NoError(t, err)

	found := diags.WithCode(diagnostic.CodeUnresolvedType)
	require.Len(t, found, 2)

	var hints []string
	for _, d := range found {
		hints = append(hints, d.Suggestions...)
	}

	assert.Contains(t, hints, "did you mean Counter?")
	assert.Contains(t, hints, "did you mean String?")
}
