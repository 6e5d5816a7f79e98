package main

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"bridgegen/internal/decl"
	"bridgegen/internal/derive"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func (a *app) inspectCmd() *cobra.Command {
	var (
		declPath string
		dump     bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <type>",
		Short: "Show how a type crosses the bridge",
		Long: `Show the wire representation chosen for a type expression: its shape, the
optional or result strategy and why it was picked, the C, Rust and Swift
spellings and the C layout. Types declared in --decl may be used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := &decl.File{Module: "inspect"}

			if declPath != "" {
				loaded, err := decl.LoadFile(declPath)
				if err != nil {
					return err
				}

				file = loaded
			}

			in, diags, err := a.facade().Inspect(cmd.Context(), file, args[0])
			if err != nil {
				return err
			}

			source := declPath
			if source == "" {
				source = "<type>"
			}

			if diags.HasErrors() {
				a.rep.Diagnostics(source, &diags)
				return errDiagnostics
			}

			if dump {
				dumper.Fdump(cmd.OutOrStdout(), in)
				return nil
			}

			printInspection(cmd.OutOrStdout(), in)

			return nil
		},
	}

	cmd.Flags().StringVarP(&declPath, "decl", "f", "", "declaration file providing named types")
	cmd.Flags().BoolVar(&dump, "dump", false, "dump the full inspection")

	return cmd
}

func printInspection(w io.Writer, in *derive.Inspection) {
	fmt.Fprintf(w, "type:     %s\n", in.Type)
	fmt.Fprintf(w, "shape:    %s\n", in.Shape)

	if in.Strategy != "" {
		fmt.Fprintf(w, "strategy: %s (%s)\n", in.Strategy, in.Explanation)
	}

	fmt.Fprintf(w, "rust:     %s\n", in.Systems)
	fmt.Fprintf(w, "swift:    %s\n", in.Managed)
	fmt.Fprintf(w, "wire:     %s / %s / %s (%s)\n", in.Wire.C, in.Wire.Rust, in.Wire.Swift, in.Wire.Ownership)
	fmt.Fprintf(w, "layout:   size %d, align %d\n", in.Size, in.Align)
}
