package gen_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bridgegen/internal/derive"
	"bridgegen/internal/errors"
	"bridgegen/internal/gen"
)

func newWriter(t *testing.T, dir, version string) *gen.Writer {
	t.Helper()

	w, err := gen.NewWriter(gen.Options{Dir: dir, Version: version, Logger: zap.NewNop().Sugar()})
	require.NoError(t, err)

	return w
}

func read(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func TestWriteCreatesFilesAndManifest(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	w := newWriter(t, dir, "1.2.0")

	res, err := w.Write(context.Background(), gen.FromDerive("things", []derive.File{
		{Name: "things.rs", Content: []byte("rs")},
		{Name: "things.h", Content: []byte("h")},
	}))
	require.NoError(t, err)

	want := &gen.Result{Written: []string{"things.h", "things.rs"}}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "rs", read(t, filepath.Join(dir, "things.rs")))

	m, err := gen.ReadManifest(dir)
	require.NoError(t, err)

	wantManifest := &gen.Manifest{
		Generator: "1.2.0",
		Artifacts: []gen.Entry{
			{Name: "things.h", Module: "things", SHA256: gen.Digest([]byte("h"))},
			{Name: "things.rs", Module: "things", SHA256: gen.Digest([]byte("rs"))},
		},
	}
	if diff := cmp.Diff(wantManifest, m); diff != "" {
		t.Errorf("manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteSkipsUnchanged(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := newWriter(t, dir, "1.0.0")
	ctx := context.Background()

	first := []gen.Artifact{
		{Module: "a", Name: "a.rs", Content: []byte("one")},
		{Module: "a", Name: "a.h", Content: []byte("two")},
	}

	_, err := w.Write(ctx, first)
	require.NoError(t, err)

	second := []gen.Artifact{
		{Module: "a", Name: "a.rs", Content: []byte("one")},
		{Module: "a", Name: "a.h", Content: []byte("changed")},
	}

	res, err := w.Write(ctx, second)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.h"}, res.Written)
	assert.Equal(t, []string{"a.rs"}, res.Unchanged)
	assert.Equal(t, "changed", read(t, filepath.Join(dir, "a.h")))
}

func TestWriteRepairsEditedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := newWriter(t, dir, "1.0.0")
	ctx := context.Background()
	files := []gen.Artifact{{Module: "a", Name: "a.swift", Content: []byte("generated")}}

	_, err := w.Write(ctx, files)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.swift"), []byte("hand edit"), 0o644))

	res, err := w.Write(ctx, files)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.swift"}, res.Written)
	assert.Equal(t, "generated", read(t, filepath.Join(dir, "a.swift")))
}

func TestWritePrunesStaleArtifacts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := newWriter(t, dir, "1.0.0")
	ctx := context.Background()

	_, err := w.Write(ctx, []gen.Artifact{
		{Module: "a", Name: "a.rs", Content: []byte("a")},
		{Module: "b", Name: "b.rs", Content: []byte("b")},
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("mine"), 0o644))

	res, err := w.Write(ctx, []gen.Artifact{{Module: "a", Name: "a.rs", Content: []byte("a")}})
	require.NoError(t, err)

	assert.Equal(t, []string{"b.rs"}, res.Removed)
	assert.NoFileExists(t, filepath.Join(dir, "b.rs"))
	assert.FileExists(t, filepath.Join(dir, "keep.txt"))
}

func TestWriteRefusesNewerMajor(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := []gen.Artifact{{Module: "a", Name: "a.h", Content: []byte("x")}}

	_, err := newWriter(t, dir, "3.1.0").Write(context.Background(), files)
	require.NoError(t, err)

	_, err = newWriter(t, dir, "2.9.9").Write(context.Background(), files)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gen.ErrManifestVersion))
	assert.NotEmpty(t, errors.GetAllHints(err))

	_, err = newWriter(t, dir, "3.0.0").Write(context.Background(), files)
	assert.NoError(t, err, "older minor of the same major is accepted")
}

func TestWriteRejectsBadNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files []gen.Artifact
	}{
		{"path separator", []gen.Artifact{{Module: "a", Name: "sub/a.rs"}}},
		{"parent directory", []gen.Artifact{{Module: "a", Name: "../a.rs"}}},
		{"manifest", []gen.Artifact{{Module: "a", Name: gen.ManifestName}}},
		{"duplicate", []gen.Artifact{{Module: "a", Name: "x.rs"}, {Module: "b", Name: "x.rs"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			_, err := newWriter(t, dir, "1.0.0").Write(context.Background(), tt.files)
			require.Error(t, err)
			assert.NoFileExists(t, filepath.Join(dir, gen.ManifestName))
		})
	}
}

func TestWriteCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	_, err := newWriter(t, dir, "1.0.0").Write(ctx, []gen.Artifact{{Module: "a", Name: "a.rs"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.NoFileExists(t, filepath.Join(dir, "a.rs"))
}

func TestNewWriterValidation(t *testing.T) {
	t.Parallel()

	_, err := gen.NewWriter(gen.Options{Version: "1.0.0"})
	require.Error(t, err)

	_, err = gen.NewWriter(gen.Options{Dir: t.TempDir(), Version: "not-a-version"})
	require.Error(t, err)
}

func TestManifestCompatible(t *testing.T) {
	t.Parallel()

	current := semver.MustParse("1.4.0")

	assert.NoError(t, (&gen.Manifest{}).Compatible(current))
	assert.NoError(t, (&gen.Manifest{Generator: "1.9.0"}).Compatible(current))
	assert.NoError(t, (&gen.Manifest{Generator: "0.3.0"}).Compatible(current))
	assert.Error(t, (&gen.Manifest{Generator: "garbage"}).Compatible(current))
	assert.True(t, errors.Is((&gen.Manifest{Generator: "2.0.0"}).Compatible(current), gen.ErrManifestVersion))
}

func TestReadManifestCorrupt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, gen.ManifestName), []byte("generator = [\n"), 0o644))

	_, err := gen.ReadManifest(dir)
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))
}
