// Package main provides the CLI entrypoint for bridgegen.
//
// bridgegen reads bridge declaration files and generates the glue that lets
// Rust and Swift call each other through a C ABI:
//   - a Rust source file with #[export_name] entry points and extern imports
//   - a Swift source file with classes, structs and @_cdecl exports
//   - a C header both toolchains compile against
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"bridgegen/internal/errors"
	"bridgegen/internal/report"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.4.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		report.ForFile(os.Stderr).Error(err, errors.GetAllHints(err))
		stop()
		os.Exit(1)
	}
}
