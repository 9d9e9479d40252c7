// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config holds the blockmap CLI configuration file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/blockmap/pkg/logging"
	"github.com/AleutianAI/blockmap/pkg/telemetry"
	"github.com/AleutianAI/blockmap/services/blockmap/source"
	"github.com/AleutianAI/blockmap/services/blockmap/watch"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// BlockmapConfig is the content of blockmap.yaml.
type BlockmapConfig struct {
	Source    SourceConfig    `yaml:"source"`
	Graph     GraphConfig     `yaml:"graph"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Watch     WatchConfig     `yaml:"watch"`
}

// SourceConfig controls project discovery.
type SourceConfig struct {
	// Root is the project directory or project file. Relative paths are
	// resolved against the config file's directory.
	Root string `yaml:"root"`

	DefinitionFile    string   `yaml:"definition_file" validate:"required,excludesall=/\\"`
	ScopesCatalogFile string   `yaml:"scopes_catalog_file" validate:"excludesall=/\\"`
	BlockCatalogFile  string   `yaml:"block_catalog_file" validate:"excludesall=/\\"`
	ExcludeDirs       []string `yaml:"exclude_dirs"`
	ExcludeGlobs      []string `yaml:"exclude_globs"`
	RespectGitignore  bool     `yaml:"respect_gitignore"`
	MaxVisits         int      `yaml:"max_visits" validate:"gt=0"`

	// Workers of 0 means runtime.NumCPU().
	Workers int `yaml:"workers" validate:"gte=0"`

	CountStats              bool     `yaml:"count_stats"`
	StatsExtensions         []string `yaml:"stats_extensions"`
	StatsExcludedExtensions []string `yaml:"stats_excluded_extensions"`
}

// GraphConfig controls graph building.
type GraphConfig struct {
	HideParts bool `yaml:"hide_parts"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error DEBUG INFO WARN ERROR"`
	JSON  bool   `yaml:"json"`
	Dir   string `yaml:"dir"`
}

// TelemetryConfig controls tracing and metrics export.
type TelemetryConfig struct {
	TraceExporter  string `yaml:"trace_exporter" validate:"omitempty,oneof=stdout none"`
	MetricExporter string `yaml:"metric_exporter" validate:"omitempty,oneof=prometheus stdout none"`
	MetricsFile    string `yaml:"metrics_file"`
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`

	// MetricsAddr, when set, serves /metrics while watching,
	// e.g. "127.0.0.1:9464".
	MetricsAddr string `yaml:"metrics_addr" validate:"omitempty,hostname_port"`
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() BlockmapConfig {
	src := source.DefaultConfig()
	return BlockmapConfig{
		Source: SourceConfig{
			Root:                    ".",
			DefinitionFile:          src.DefinitionFile,
			ScopesCatalogFile:       src.ScopesCatalogFile,
			BlockCatalogFile:        src.BlockCatalogFile,
			ExcludeDirs:             src.ExcludeDirs,
			ExcludeGlobs:            []string{},
			RespectGitignore:        src.RespectGitignore,
			MaxVisits:               src.MaxVisits,
			CountStats:              src.CountStats,
			StatsExtensions:         src.StatsExtensions,
			StatsExcludedExtensions: src.StatsExcludedExtensions,
		},
		Log: LogConfig{Level: "info"},
		Telemetry: TelemetryConfig{
			TraceExporter:  telemetry.ExporterNone,
			MetricExporter: telemetry.ExporterNone,
		},
		Watch: WatchConfig{Debounce: watch.DefaultOptions().Debounce},
	}
}

var configValidate = validator.New()

// Validate checks struct tags and cross-field rules.
func (c BlockmapConfig) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(fields, ", "))
	}
	if c.Telemetry.MetricsFile != "" && c.Telemetry.MetricExporter != telemetry.ExporterPrometheus {
		return fmt.Errorf("%w: telemetry.metrics_file requires metric_exporter prometheus", ErrInvalidConfig)
	}
	if err := c.SourceConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// SourceConfig converts the source section for source.NewLoader.
func (c BlockmapConfig) SourceConfig() source.Config {
	cfg := source.DefaultConfig()
	cfg.DefinitionFile = c.Source.DefinitionFile
	cfg.ScopesCatalogFile = c.Source.ScopesCatalogFile
	cfg.BlockCatalogFile = c.Source.BlockCatalogFile
	cfg.ExcludeDirs = c.Source.ExcludeDirs
	if len(c.Source.ExcludeGlobs) > 0 {
		cfg.ExcludeGlobs = c.Source.ExcludeGlobs
	}
	cfg.RespectGitignore = c.Source.RespectGitignore
	cfg.MaxVisits = c.Source.MaxVisits
	if c.Source.Workers > 0 {
		cfg.Workers = c.Source.Workers
	}
	cfg.CountStats = c.Source.CountStats
	if len(c.Source.StatsExtensions) > 0 {
		cfg.StatsExtensions = c.Source.StatsExtensions
	}
	if c.Source.StatsExcludedExtensions != nil {
		cfg.StatsExcludedExtensions = c.Source.StatsExcludedExtensions
	}
	return cfg
}

// LoggingConfig converts the log section. An unparseable level falls back
// to info; Validate rejects it earlier.
func (c BlockmapConfig) LoggingConfig(service string) logging.Config {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.Config{
		Level:   level,
		JSON:    c.Log.JSON,
		LogDir:  c.Log.Dir,
		Service: service,
	}
}

// TelemetryConfig converts the telemetry section.
func (c BlockmapConfig) TelemetryConfig(version string) telemetry.Config {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = version
	if c.Telemetry.TraceExporter != "" {
		cfg.TraceExporter = c.Telemetry.TraceExporter
	}
	if c.Telemetry.MetricExporter != "" {
		cfg.MetricExporter = c.Telemetry.MetricExporter
	}
	cfg.MetricsFile = c.Telemetry.MetricsFile
	return cfg
}

// WatchOptions converts the watch section. Only definition and catalog
// files trigger a rebuild.
func (c BlockmapConfig) WatchOptions() watch.Options {
	opts := watch.DefaultOptions()
	opts.Debounce = c.Watch.Debounce
	opts.ExcludeDirs = c.Source.ExcludeDirs
	opts.IgnoreGlobs = append(append([]string{}, opts.IgnoreGlobs...), c.Source.ExcludeGlobs...)
	opts.Names = nonEmpty(c.Source.DefinitionFile, c.Source.ScopesCatalogFile, c.Source.BlockCatalogFile)
	return opts
}

func nonEmpty(items ...string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
