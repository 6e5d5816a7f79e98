package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bridgegen/internal/config"
	"bridgegen/internal/derive"
	"bridgegen/internal/errors"
	"bridgegen/internal/logger"
	"bridgegen/internal/report"
)

// errDiagnostics is returned after diagnostics with errors were reported.
var errDiagnostics = errors.New("declarations have errors")

// app is the state shared by every command of one invocation.
type app struct {
	v          *viper.Viper
	configPath string
	cfg        *config.Config
	rep        *report.Reporter
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "bridgegen",
		Short: "Generate Rust/Swift FFI glue from bridge declarations",
		Long: `bridgegen derives the three artifacts of a Rust/Swift bridge from a
declaration file: the Rust glue, the Swift glue and the C header both sides
compile against.

Examples:
  bridgegen generate api.yaml              # write artifacts to ./generated
  bridgegen generate -o Bridge api.toml    # pick the output directory
  bridgegen generate --watch api.yaml      # regenerate on every save
  bridgegen check api.yaml                 # report diagnostics only
  bridgegen inspect -f api.yaml 'Option<Point>'`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: nearest "+config.FileName+")")
	root.PersistentFlags().CountP("verbose", "v", "increase log verbosity (-v, -vv)")
	root.PersistentFlags().Bool("log-json", false, "log as JSON")

	root.AddCommand(
		a.generateCmd(),
		a.checkCmd(),
		a.inspectCmd(),
		versionCmd(),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}

	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}

	if err := logger.Initialize(cfg.Log.JSON, cfg.Log.Verbosity); err != nil {
		return errors.Wrap(err, "initializing logger")
	}

	a.cfg = cfg

	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		a.rep = report.ForFile(f)
	} else {
		a.rep = report.New(cmd.OutOrStdout(), false)
	}

	if cfg.File != "" {
		logger.Logger.Debugw("configuration loaded", "file", cfg.File)
	}

	return nil
}

func (a *app) facade() *derive.Facade {
	return derive.New(a.cfg.Derive(logger.Named("derive")))
}
