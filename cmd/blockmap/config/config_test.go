// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/blockmap/pkg/logging"
	"github.com/AleutianAI/blockmap/services/blockmap/source"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, source.DefaultDefinitionFile, cfg.Source.DefinitionFile)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
}

func TestDefaultConfig_MatchesSourceDefaults(t *testing.T) {
	got := DefaultConfig().SourceConfig()
	want := source.DefaultConfig()
	got.Workers, want.Workers = 0, 0
	assert.Equal(t, want, got)
	assert.True(t, got.RespectGitignore)
	assert.True(t, got.CountStats)
}

func TestLoad_PartialFileKeepsSourceDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "log:\n  level: warn\n")

	cfg, _, err := Load("", dir)
	require.NoError(t, err)

	assert.True(t, cfg.Source.RespectGitignore)
	assert.True(t, cfg.Source.CountStats)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestFind_WalksUp(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, "graph:\n  hide_parts: true\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := Find(nested)
	require.NoError(t, err)
	assert.Equal(t, path, found)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, path, err := Load("", t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, DefaultConfig().Source.DefinitionFile, cfg.Source.DefinitionFile)
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
source:
  root: project
  exclude_globs: ["legacy/**"]
  count_stats: true
graph:
  hide_parts: true
log:
  level: debug
watch:
  debounce: 1s
`)

	cfg, path, err := Load("", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), path)

	assert.Equal(t, filepath.Join(dir, "project"), cfg.Source.Root)
	assert.True(t, cfg.Graph.HideParts)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, source.DefaultDefinitionFile, cfg.Source.DefinitionFile, "unset keys keep defaults")

	src := cfg.SourceConfig()
	assert.True(t, src.CountStats)
	assert.Equal(t, []string{"legacy/**"}, src.ExcludeGlobs)
	assert.Greater(t, src.Workers, 0)

	assert.Equal(t, logging.LevelDebug, cfg.LoggingConfig("blockmap").Level)
}

func TestLoad_ExplicitMissing(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad level":        "log:\n  level: loud\n",
		"zero visits":      "source:\n  max_visits: 0\n",
		"path in name":     "source:\n  definition_file: a/b.yml\n",
		"unknown exporter": "telemetry:\n  trace_exporter: otlp\n",
		"file needs prom":  "telemetry:\n  metrics_file: out.prom\n",
		"bad glob":         "source:\n  exclude_globs: [\"[\"]\n",
		"bad yaml":         "source: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := Load("", filepath.Dir(writeConfig(t, t.TempDir(), content)))
			require.Error(t, err)
			if name != "bad yaml" {
				assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
			}
		})
	}
}

func TestWatchOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Source.BlockCatalogFile = ""
	cfg.Source.ExcludeGlobs = []string{"tmp/**"}

	opts := cfg.WatchOptions()
	assert.Equal(t, []string{source.DefaultDefinitionFile, source.DefaultScopesCatalogFile}, opts.Names)
	assert.Contains(t, opts.IgnoreGlobs, "tmp/**")
	assert.Contains(t, opts.IgnoreGlobs, "*.swp")
}

func TestTelemetryConfig(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "")
	t.Setenv("OTEL_METRICS_EXPORTER", "")

	cfg := DefaultConfig()
	cfg.Telemetry.MetricExporter = "prometheus"
	cfg.Telemetry.MetricsFile = "/tmp/blockmap.prom"

	tc := cfg.TelemetryConfig("1.2.3")
	assert.Equal(t, "1.2.3", tc.ServiceVersion)
	assert.Equal(t, "prometheus", tc.MetricExporter)
	assert.Equal(t, "none", tc.TraceExporter)
	assert.Equal(t, "/tmp/blockmap.prom", tc.MetricsFile)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	cfg := DefaultConfig()
	cfg.Graph.HideParts = true
	cfg.Source.Root = "/abs/project"

	require.NoError(t, Save(path, cfg))
	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, loaded.Graph.HideParts)
	assert.Equal(t, "/abs/project", loaded.Source.Root)
}
