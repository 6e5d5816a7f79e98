package gen

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml/v2"

	"bridgegen/internal/errors"
)

// ManifestName is the file the writer records generated artifacts in.
const ManifestName = "bridgegen.manifest.toml"

// ErrManifestVersion is returned when the output directory was produced by a
// newer major version of the generator.
var ErrManifestVersion = errors.New("output produced by a newer generator")

// Manifest lists the artifacts of one output directory.
type Manifest struct {
	Generator string  `toml:"generator"`
	Artifacts []Entry `toml:"artifact"`
}

// Entry is one generated artifact.
type Entry struct {
	Name   string `toml:"name"`
	Module string `toml:"module"`
	SHA256 string `toml:"sha256"`
}

// Digest returns the hex-encoded SHA-256 of content.
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// ReadManifest loads the manifest of dir. A missing manifest yields an empty
// one.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if errors.Is(err, fs.ErrNotExist) {
		return &Manifest{}, nil
	}

	if err != nil {
		return nil, errors.Wrap(err, "reading manifest")
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, errors.WithHintf(errors.Wrap(err, "decoding manifest"),
			"delete %s to regenerate from scratch", ManifestName)
	}

	return &m, nil
}

// Lookup returns the entry for name.
func (m *Manifest) Lookup(name string) (Entry, bool) {
	for _, e := range m.Artifacts {
		if e.Name == name {
			return e, true
		}
	}

	return Entry{}, false
}

// Compatible reports an error when the manifest was written by a generator
// whose major version is newer than current.
func (m *Manifest) Compatible(current *semver.Version) error {
	if m.Generator == "" {
		return nil
	}

	recorded, err := semver.NewVersion(m.Generator)
	if err != nil {
		return errors.Wrapf(err, "manifest generator version %q", m.Generator)
	}

	if recorded.Major() > current.Major() {
		return errors.WithHintf(
			errors.Wrapf(ErrManifestVersion, "manifest version %s, generator %s", recorded, current),
			"upgrade bridgegen to %d.x or pick another output directory", recorded.Major())
	}

	return nil
}

func (m *Manifest) sort() {
	slices.SortFunc(m.Artifacts, func(a, b Entry) int {
		return strings.Compare(a.Name, b.Name)
	})
}

func (m *Manifest) encode() ([]byte, error) {
	m.sort()

	data, err := toml.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "encoding manifest")
	}

	return data, nil
}
