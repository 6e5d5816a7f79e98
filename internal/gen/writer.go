package gen

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bridgegen/internal/derive"
	"bridgegen/internal/errors"
	"bridgegen/internal/logger"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

const defaultConcurrency = 4

// Artifact is one file to write, tagged with the module that produced it.
type Artifact struct {
	Module  string
	Name    string
	Content []byte
}

// FromDerive tags derived files with their module.
func FromDerive(module string, files []derive.File) []Artifact {
	out := make([]Artifact, 0, len(files))
	for _, f := range files {
		out = append(out, Artifact{Module: module, Name: f.Name, Content: f.Content})
	}

	return out
}

// Options configures a Writer.
type Options struct {
	// Dir is created when missing.
	Dir string
	// Version is the semantic version recorded in the manifest.
	Version string
	// Concurrency bounds parallel file writes; zero selects a default.
	Concurrency int
	Logger      *zap.SugaredLogger
}

// Writer writes artifacts into one output directory.
type Writer struct {
	dir     string
	version *semver.Version
	limit   int
	log     *zap.SugaredLogger
}

// Result summarizes a Write call. All lists are sorted.
type Result struct {
	Written   []string
	Unchanged []string
	Removed   []string
}

// NewWriter validates opts.
func NewWriter(opts Options) (*Writer, error) {
	if opts.Dir == "" {
		return nil, errors.New("output directory is required")
	}

	v, err := semver.NewVersion(opts.Version)
	if err != nil {
		return nil, errors.Wrapf(err, "generator version %q", opts.Version)
	}

	w := &Writer{dir: opts.Dir, version: v, limit: opts.Concurrency, log: opts.Logger}
	if w.limit <= 0 {
		w.limit = defaultConcurrency
	}

	if w.log == nil {
		w.log = logger.Named("gen")
	}

	return w, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Write brings the output directory in line with artifacts. Files whose
// content is unchanged are left alone; files recorded by the previous
// manifest but absent from artifacts are removed.
func (w *Writer) Write(ctx context.Context, artifacts []Artifact) (*Result, error) {
	if err := checkNames(artifacts); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(w.dir, dirPerm); err != nil {
		return nil, errors.Wrap(err, "creating output directory")
	}

	previous, err := ReadManifest(w.dir)
	if err != nil {
		return nil, err
	}

	if err := previous.Compatible(w.version); err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		result Result
		next   = &Manifest{Generator: w.version.String()}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.limit)

	for _, a := range artifacts {
		digest := Digest(a.Content)
		next.Artifacts = append(next.Artifacts, Entry{Name: a.Name, Module: a.Module, SHA256: digest})

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			path := filepath.Join(w.dir, a.Name)

			if w.unchanged(previous, a.Name, digest, path) {
				mu.Lock()
				result.Unchanged = append(result.Unchanged, a.Name)
				mu.Unlock()

				return nil
			}

			if err := writeAtomic(path, a.Content); err != nil {
				return errors.Wrapf(err, "writing file %s", a.Name)
			}

			w.log.Infow("artifact written", "file", a.Name, "module", a.Module, "bytes", len(a.Content))

			mu.Lock()
			result.Written = append(result.Written, a.Name)
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	removed, err := w.prune(previous, next)
	if err != nil {
		return nil, err
	}

	result.Removed = removed

	data, err := next.encode()
	if err != nil {
		return nil, err
	}

	if err := writeAtomic(filepath.Join(w.dir, ManifestName), data); err != nil {
		return nil, errors.Wrap(err, "writing manifest")
	}

	slices.Sort(result.Written)
	slices.Sort(result.Unchanged)

	w.log.Debugw("output synchronized",
		"dir", w.dir, "written", len(result.Written),
		"unchanged", len(result.Unchanged), "removed", len(result.Removed))

	return &result, nil
}

// unchanged reports whether the file on disk still holds the recorded digest.
func (w *Writer) unchanged(previous *Manifest, name, digest, path string) bool {
	entry, ok := previous.Lookup(name)
	if !ok || entry.SHA256 != digest {
		return false
	}

	onDisk, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	return Digest(onDisk) == digest
}

func (w *Writer) prune(previous, next *Manifest) ([]string, error) {
	var removed []string

	for _, e := range previous.Artifacts {
		if _, ok := next.Lookup(e.Name); ok {
			continue
		}

		if !filepath.IsLocal(e.Name) {
			w.log.Warnw("manifest entry outside the output directory ignored", "file", e.Name)
			continue
		}

		err := os.Remove(filepath.Join(w.dir, e.Name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "removing stale file %s", e.Name)
		}

		w.log.Infow("stale artifact removed", "file", e.Name, "module", e.Module)
		removed = append(removed, e.Name)
	}

	slices.Sort(removed)

	return removed, nil
}

func checkNames(artifacts []Artifact) error {
	seen := make(map[string]string, len(artifacts))

	for _, a := range artifacts {
		if !filepath.IsLocal(a.Name) || filepath.Base(a.Name) != a.Name {
			return errors.Newf("artifact name %q is not a plain file name", a.Name)
		}

		if a.Name == ManifestName {
			return errors.Newf("artifact name %q is reserved", a.Name)
		}

		if other, ok := seen[a.Name]; ok {
			return errors.WithHint(
				errors.Newf("artifact %s is produced by modules %s and %s", a.Name, other, a.Module),
				"module names must be unique across declaration files")
		}

		seen[a.Name] = a.Module
	}

	return nil
}

// writeAtomic replaces path through a temporary file in the same directory.
func writeAtomic(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}

	defer os.Remove(tmp.Name())

	if _, err := bytes.NewReader(content).WriteTo(tmp); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
