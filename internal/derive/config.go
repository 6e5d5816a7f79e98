package derive

import (
	"go.uber.org/zap"

	"bridgegen/internal/logger"
	"bridgegen/internal/naming"
)

// Core artifact file names.
const (
	CoreHeaderName  = "SwiftBridgeCore.h"
	CoreSystemsName = "swift_bridge_core.rs"
	CoreManagedName = "SwiftBridgeCore.swift"
)

// Config controls naming in the generated artifacts.
type Config struct {
	// Prefix namespaces wire symbols; empty selects naming.DefaultPrefix.
	Prefix string
	// RuntimePath is the systems-side path of the runtime module; empty
	// selects naming.DefaultRuntimePath.
	RuntimePath string
	// Logger defaults to the global logger.
	Logger *zap.SugaredLogger
}

func (c Config) withDefaults() Config {
	if c.Prefix == "" {
		c.Prefix = naming.DefaultPrefix
	}

	if c.RuntimePath == "" {
		c.RuntimePath = naming.DefaultRuntimePath
	}

	if c.Logger == nil {
		c.Logger = logger.Named("derive")
	}

	return c
}

// Artifacts are the generated texts of one declaration group.
type Artifacts struct {
	Module  string
	Systems []byte
	Managed []byte
	Header  []byte
}

// File is one named artifact.
type File struct {
	Name    string
	Content []byte
}

// Files returns the artifacts with their file names.
func (a *Artifacts) Files() []File {
	return []File{
		{Name: a.Module + ".rs", Content: a.Systems},
		{Name: a.Module + ".swift", Content: a.Managed},
		{Name: a.Module + ".h", Content: a.Header},
	}
}
