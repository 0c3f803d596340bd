// Copyright 2026 The Schemac Authors

// Package cli wires the schemac command surface with cobra, matching
// spec.md §6's subcommand list. Logging follows the teacher's general
// preference for a structured logger over ad hoc fmt.Printf calls, using
// go.uber.org/zap configured from the global --log-level flag (or the
// LOG_LEVEL environment variable) rather than a config file, since
// spec.md §6 only ever names one global logging knob.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"schemac/internal/diagbus"
	"schemac/internal/emit"
	"schemac/internal/mvs"
	"schemac/internal/nsload"
	"schemac/internal/resolve"
	"schemac/internal/resolver"
	"schemac/internal/rules"
	"schemac/internal/schemacache"
	"schemac/internal/semver"
	"schemac/internal/vfs"
	"schemac/ks/errors"
	"schemac/ks/format"
	"schemac/ks/parser"
	"schemac/lockfile"
	"schemac/manifest"
)

// Root builds the top-level schemac command.
func Root() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "schemac",
		Short:         "Compile and manage schema-language packages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "info"), "debug|trace|info|warn|error")

	root.AddCommand(newGenerateCmd(&logLevel))
	root.AddCommand(newCheckCmd(&logLevel))
	root.AddCommand(newInitCmd())
	root.AddCommand(newFmtCmd())
	return root
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func newLogger(level string) *zap.Logger {
	var zl zapcore.Level
	switch level {
	case "debug", "trace":
		zl = zapcore.DebugLevel
	case "warn":
		zl = zapcore.WarnLevel
	case "error":
		zl = zapcore.ErrorLevel
	default:
		zl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zl)
	cfg.EncoderConfig.TimeKey = "" // deterministic, testable output: no wall-clock timestamps
	logger, err := cfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	return logger
}

// compileResult is the shared outcome of running the full resolver +
// resolution engine pipeline, used by both `check` and `generate`.
type compileResult struct {
	root   *resolver.Loaded
	loaded map[string]*resolver.Loaded
	graph  *mvs.Graph
	decls  map[string]*resolve.Decl
	bundle *errors.Bundle
}

func compile(dir string, logger *zap.Logger) (*compileResult, error) {
	ctx := context.Background()
	fs := &vfs.OSFS{CWD: dir}
	cache := schemacache.New()
	bus := diagbus.Start(ctx)

	res := resolver.New(fs, resolver.DirFetcher{}, cache, bus)
	graph, loaded, err := res.Resolve(ctx, ".")
	if err != nil {
		bus.Close()
		bus.Wait()
		return nil, err
	}

	mf, err := manifest.Load(dir + "/" + manifest.FileName)
	if err != nil {
		bus.Close()
		bus.Wait()
		return nil, err
	}
	rootKey := fmt.Sprintf("%s@%s", mf.Package.Name, mf.Package.Version)
	root := loaded[rootKey]

	registry := buildRegistry(loaded)

	engine := resolve.NewEngine(registry)
	decls, diags := engine.Run()
	for _, d := range diags {
		bus.Emit(d)
	}
	for _, d := range rules.Run(decls, nil) {
		bus.Emit(d)
	}

	bus.Close()
	bundle := bus.Wait()
	bundle.SortStable()

	logger.Debug("compiled", zap.Int("packages", len(loaded)), zap.Int("decls", len(decls)))

	return &compileResult{root: root, loaded: loaded, graph: graph, decls: decls, bundle: bundle}, nil
}

func buildRegistry(loaded map[string]*resolver.Loaded) *resolve.Registry {
	reg := &resolve.Registry{Packages: map[string]*nsload.Namespace{}}
	for _, pkg := range loaded {
		reg.Packages[pkg.Name] = pkg.Root
	}
	return reg
}

func newCheckCmd(logLevel *string) *cobra.Command {
	var dir string
	var noProgress bool

	cmd := &cobra.Command{
		Use:     "check",
		Aliases: []string{"c"},
		Short:   "Compile and report diagnostics only",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(*logLevel)
			defer logger.Sync()
			_ = noProgress

			result, err := compile(dir, logger)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				os.Exit(2)
			}
			for _, d := range result.bundle.Errors {
				errors.Print(cmd.ErrOrStderr(), d)
			}
			for _, d := range result.bundle.Warnings {
				errors.Print(cmd.ErrOrStderr(), d)
			}
			if result.bundle.HasErrors() {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "config-dir", "d", ".", "package directory")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "suppress progress output")
	return cmd
}

func newGenerateCmd(logLevel *string) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen", "g"},
		Short:   "Compile and emit the declaration bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(*logLevel)
			defer logger.Sync()

			result, err := compile(dir, logger)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				os.Exit(2)
			}
			for _, d := range result.bundle.Errors {
				errors.Print(cmd.ErrOrStderr(), d)
			}
			if result.bundle.HasErrors() {
				os.Exit(1)
			}

			bundle := emit.Build(result.root.Name, result.decls)
			data, err := emit.JSON(bundle)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))

			list := result.graph.BuildList()
			lf := resolver.ToLockfile(result.root, result.loaded, list)
			return lockfile.Save(dir+"/"+lockfile.FileName, lf)
		},
	}
	cmd.Flags().StringVarP(&dir, "config-dir", "d", ".", "package directory")
	return cmd
}

func newInitCmd() *cobra.Command {
	var name, dir string

	cmd := &cobra.Command{
		Use:     "init",
		Aliases: []string{"i"},
		Short:   "Scaffold a new package",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			fs := &vfs.OSFS{CWD: dir}
			mf := &manifest.Manifest{
				Package:      manifest.Package{Name: name, Version: semver.Version{Major: 0, Minor: 1, Patch: 0}},
				Dependencies: map[string]manifest.Dependency{},
			}
			data, err := manifest.Dump(mf)
			if err != nil {
				return err
			}
			if err := fs.Write(manifest.FileName, data); err != nil {
				return err
			}
			return fs.Write("schema/lib.ks", []byte(fmt.Sprintf("namespace %s;\n", name)))
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "package name")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "target directory")
	return cmd
}

func newFmtCmd() *cobra.Command {
	var exclude []string
	var dry, safe, warnIsFail bool

	cmd := &cobra.Command{
		Use:     "fmt [globs...]",
		Aliases: []string{"f"},
		Short:   "Format schema files in place",
		RunE: func(cmd *cobra.Command, args []string) error {
			include := args
			if len(include) == 0 {
				include = []string{"./**/*.ks"}
			}
			fs := &vfs.OSFS{CWD: "."}
			paths, err := fs.Glob(include, exclude)
			if err != nil {
				return err
			}
			var failed, changed bool
			for _, p := range paths {
				data, err := fs.Read(p)
				if err != nil {
					return err
				}
				f, diag := parser.ParseFile(p, data)
				if diag != nil {
					if safe {
						continue
					}
					errors.Print(cmd.ErrOrStderr(), diag)
					failed = true
					continue
				}
				out := format.Node(f, format.DefaultConfig())
				if out == string(data) {
					continue
				}
				if dry {
					fmt.Fprintln(cmd.OutOrStdout(), p)
					changed = true
					continue
				}
				if err := fs.Write(p, []byte(out)); err != nil {
					return err
				}
			}
			if failed || (warnIsFail && changed) {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&exclude, "exclude", "e", nil, "exclude glob (repeatable)")
	cmd.Flags().BoolVar(&dry, "dry", false, "print files that would change, without writing")
	cmd.Flags().BoolVar(&safe, "safe", false, "skip files that fail to parse instead of erroring")
	cmd.Flags().BoolVarP(&warnIsFail, "warn-is-fail", "W", false, "treat a dry-run diff as a failure")
	return cmd
}
