package main

import (
	"context"

	"github.com/spf13/cobra"

	"bridgegen/internal/decl"
	"bridgegen/internal/derive"
	"bridgegen/internal/errors"
	"bridgegen/internal/gen"
	"bridgegen/internal/logger"
	"bridgegen/internal/watch"
)

func (a *app) generateCmd() *cobra.Command {
	var watchMode bool

	cmd := &cobra.Command{
		Use:   "generate <decl-file>...",
		Short: "Write the artifacts of one or more declaration files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.generate(cmd.Context(), args); err != nil {
				return err
			}

			if !watchMode {
				return nil
			}

			return a.watch(cmd.Context(), args)
		},
	}

	cmd.Flags().StringP("out", "o", "", "output directory (default: generated)")
	cmd.Flags().Bool("core", true, "also write the shared runtime artifacts")
	cmd.Flags().String("prefix", "", "symbol prefix (default: __swift_bridge__)")
	cmd.Flags().String("runtime-path", "", "Rust path of the runtime module (default: swift_bridge)")
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "regenerate whenever a declaration file changes")
	cmd.Flags().Int("debounce", 0, "watch quiet period in milliseconds")

	return cmd
}

// deriveAll loads every file and derives them as one program, reporting
// diagnostics per file. It returns errDiagnostics when any file has errors.
func (a *app) deriveAll(ctx context.Context, paths []string) ([]*derive.Artifacts, error) {
	files := make([]*decl.File, len(paths))

	for i, path := range paths {
		file, err := decl.LoadFile(path)
		if err != nil {
			return nil, err
		}

		files[i] = file
	}

	arts, diags, err := a.facade().DeriveAll(ctx, files)
	if err != nil {
		return nil, err
	}

	failed := false

	for i, path := range paths {
		a.rep.Diagnostics(path, &diags[i])
		failed = failed || diags[i].HasErrors()
	}

	if failed {
		return nil, errDiagnostics
	}

	return arts, nil
}

func (a *app) generate(ctx context.Context, paths []string) error {
	results, err := a.deriveAll(ctx, paths)
	if err != nil {
		return err
	}

	var artifacts []gen.Artifact

	for _, art := range results {
		artifacts = append(artifacts, gen.FromDerive(art.Module, art.Files())...)
	}

	if a.cfg.Output.Core {
		core, err := derive.Core(a.cfg.Derive(logger.Named("derive")))
		if err != nil {
			return errors.Wrap(err, "deriving core artifacts")
		}

		artifacts = append(artifacts, gen.FromDerive("core", core)...)
	}

	w, err := gen.NewWriter(gen.Options{
		Dir:     a.cfg.Output.Dir,
		Version: version,
		Logger:  logger.Named("gen"),
	})
	if err != nil {
		return err
	}

	res, err := w.Write(ctx, artifacts)
	if err != nil {
		return err
	}

	a.rep.Result(w.Dir(), res)

	return nil
}

func (a *app) watch(ctx context.Context, paths []string) error {
	w, err := watch.New(paths, a.cfg.Watch.Debounce(), logger.Named("watch"))
	if err != nil {
		return err
	}

	return w.Run(ctx, func(ctx context.Context, _ []string) {
		// Every file is regenerated so pruning sees the complete output.
		err := a.generate(ctx, paths)
		if err != nil && !errors.Is(err, errDiagnostics) {
			a.rep.Error(err, errors.GetAllHints(err))
		}
	})
}
