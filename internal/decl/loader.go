package decl

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"bridgegen/internal/errors"
)

// Format is the syntax of a declaration file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported declaration format")

// FormatOf returns the format implied by the extension of path.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errors.WithHint(
			errors.Wrapf(ErrUnsupportedFormat, "%s", path),
			"use a .yaml, .yml or .toml extension")
	}
}

// LoadFile loads and parses a declaration file from the given path.
func LoadFile(path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading declaration file %s", path)
	}

	f, err := Parse(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}

	f.Path = path

	if f.Module == "" {
		f.Module = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return f, nil
}

// Parse parses declaration data in the given format.
func Parse(data []byte, format Format) (*File, error) {
	var f File

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)

		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrap(err, "parsing declaration YAML")
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, errors.Wrap(err, "parsing declaration TOML")
		}

		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.Newf("parsing declaration TOML: unknown key %q", undecoded[0].String())
		}
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", format)
	}

	applyDefaults(&f)

	return &f, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(f *File) {
	if f.Version == "" {
		f.Version = "1"
	}

	for i := range f.OpaqueTypes {
		o := &f.OpaqueTypes[i]
		if o.Side == "" {
			o.Side = SideSystems
		}

		for j := range o.Methods {
			m := &o.Methods[j]
			if m.Receiver != "" {
				continue
			}

			if m.Init {
				m.Receiver = ReceiverNone
			} else {
				m.Receiver = ReceiverRef
			}
		}
	}

	for i := range f.Functions {
		if f.Functions[i].Side == "" {
			f.Functions[i].Side = SideSystems
		}
	}
}
