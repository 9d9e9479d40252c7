// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/AleutianAI/blockmap/cmd/blockmap/config"
	"github.com/AleutianAI/blockmap/pkg/logging"
	"github.com/AleutianAI/blockmap/pkg/telemetry"
	"github.com/AleutianAI/blockmap/pkg/ux"
	"github.com/AleutianAI/blockmap/services/blockmap"
	"github.com/AleutianAI/blockmap/services/blockmap/export"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath  string
	root        string
	hideParts   bool
	jsonOut     bool
	outFile     string
	logLevel    string
	logJSON     bool
	logDir      string
	personality string
	trace       bool
	metricsFile string
	metricsAddr string
}

// app holds the state one command invocation sets up and tears down.
type app struct {
	stdout io.Writer
	stderr io.Writer

	flags      globalFlags
	cfg        config.BlockmapConfig
	configPath string

	logger   *logging.Logger
	printer  *ux.Printer
	shutdown func(context.Context) error
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "blockmap",
		Short: "Build and query the block definition map of a project",
		Long: `blockmap collects the .block-definition.yml files of a project into a
hierarchy of scopes, blocks and parts, resolves their based/extend
references and highlights what is related to a selected node.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "config file (default: nearest blockmap.yaml)")
	pf.StringVarP(&a.flags.root, "root", "r", "", "project directory or project file (default: source.root)")
	pf.BoolVar(&a.flags.hideParts, "hide-parts", false, "build the map without Part nodes")
	pf.BoolVar(&a.flags.jsonOut, "json", false, "write the renderer payload as JSON")
	pf.StringVarP(&a.flags.outFile, "out", "o", "", "write JSON output to a file instead of stdout")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&a.flags.logJSON, "log-json", false, "log as JSON")
	pf.StringVar(&a.flags.logDir, "log-dir", "", "also write JSON logs to this directory")
	pf.StringVar(&a.flags.personality, "personality", "", "output style: standard, minimal, machine")
	pf.BoolVar(&a.flags.trace, "trace", false, "export trace spans to stderr")
	pf.StringVar(&a.flags.metricsFile, "metrics-file", "", "write prometheus metrics to this file on exit")

	root.AddCommand(
		newBuildCmd(a),
		newTreeCmd(a),
		newRelatedCmd(a),
		newHighlightCmd(a),
		newSearchCmd(a),
		newWatchCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup loads configuration, applies flag overrides and starts logging and
// telemetry.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, path, err := config.Load(a.flags.configPath, cwd)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd.Flags(), a.flags, &cfg); err != nil {
		return usageError{err}
	}
	if cmd.Name() == "watch" && cfg.Watch.MetricsAddr != "" {
		cfg.Telemetry.MetricExporter = telemetry.ExporterPrometheus
	}
	if err := cfg.Validate(); err != nil {
		return usageError{err}
	}
	a.cfg = cfg
	a.configPath = path

	if a.flags.personality != "" {
		ux.SetPersonalityLevel(ux.ParsePersonalityLevel(a.flags.personality))
	} else {
		ux.InitPersonality()
	}
	a.printer = ux.NewPrinter(a.stdout, a.stderr)

	logCfg := cfg.LoggingConfig("blockmap")
	logCfg.Output = a.stderr
	a.logger = logging.New(logCfg)
	if path != "" {
		a.logger.Debug("config loaded", "path", path)
	}

	telCfg := cfg.TelemetryConfig(version)
	telCfg.Output = a.stderr
	shutdown, err := telemetry.Init(cmd.Context(), telCfg)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	a.shutdown = shutdown
	return nil
}

// applyFlags copies explicitly set flags over cfg.
func applyFlags(fs *pflag.FlagSet, f globalFlags, cfg *config.BlockmapConfig) error {
	if fs.Changed("root") {
		cfg.Source.Root = f.root
	}
	if fs.Changed("hide-parts") {
		cfg.Graph.HideParts = f.hideParts
	}
	if fs.Changed("log-level") {
		if _, err := logging.ParseLevel(f.logLevel); err != nil {
			return err
		}
		cfg.Log.Level = f.logLevel
	}
	if fs.Changed("log-json") {
		cfg.Log.JSON = f.logJSON
	}
	if fs.Changed("log-dir") {
		cfg.Log.Dir = f.logDir
	}
	if fs.Changed("trace") {
		cfg.Telemetry.TraceExporter = telemetry.ExporterNone
		if f.trace {
			cfg.Telemetry.TraceExporter = telemetry.ExporterStdout
		}
	}
	if fs.Changed("metrics-addr") {
		cfg.Watch.MetricsAddr = f.metricsAddr
	}
	if fs.Changed("metrics-file") {
		cfg.Telemetry.MetricsFile = f.metricsFile
		if f.metricsFile != "" {
			cfg.Telemetry.MetricExporter = telemetry.ExporterPrometheus
		}
	}
	return nil
}

// close flushes telemetry and closes the log file.
func (a *app) close() error {
	var errs []error
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
		}
	}
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *app) service() *blockmap.Service {
	return blockmap.New(a.cfg.Source.Root,
		blockmap.WithSourceConfig(a.cfg.SourceConfig()),
		blockmap.WithHideParts(a.cfg.Graph.HideParts),
		blockmap.WithLogger(a.logger.Slog()),
	)
}

func (a *app) refresh(ctx context.Context) (*blockmap.Snapshot, error) {
	return a.service().Refresh(ctx)
}

// writeJSON writes v to --out or stdout.
func (a *app) writeJSON(v any) error {
	if a.flags.outFile == "" {
		return encodeJSON(a.stdout, v)
	}

	f, err := os.Create(a.flags.outFile)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := encodeJSON(f, v); err != nil {
		_ = f.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

func encodeJSON(w io.Writer, v any) error {
	if p, ok := v.(export.Payload); ok {
		return export.Write(w, p, true)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// noArgs and exactArgs wrap cobra's validators as usage errors.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError{err}
	}
	return nil
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}
