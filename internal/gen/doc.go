// Package gen writes derived artifacts to an output directory.
//
// Every generate run records a manifest, bridgegen.manifest.toml, next to the
// artifacts. The manifest carries the generator version and a SHA-256 digest
// per artifact, which lets the writer:
//   - skip artifacts whose content did not change
//   - remove artifacts a previous run produced that are no longer derived
//   - refuse to touch output written by a newer major version
package gen
