// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/blockmap/services/blockmap/definition"
)

var tracer = otel.Tracer("blockmap.source")

// ProjectData is everything loaded from a project.
type ProjectData struct {
	// Scopes is the scopes catalog; nil when the project has none.
	Scopes []definition.ScopeDefinition `json:"scopes" yaml:"scopes"`

	// Blocks are the normalized records in discovery order.
	Blocks []definition.BlockDefinition `json:"blocks" yaml:"blocks"`

	// Catalog is the block glossary; nil when the project has none.
	Catalog definition.Catalog `json:"catalog,omitempty" yaml:"catalog,omitempty"`

	// FileErrors and DirErrors are the non-fatal load failures.
	FileErrors []FileError `json:"-" yaml:"-"`
	DirErrors  []DirError  `json:"-" yaml:"-"`

	// Walk describes the directory walk. Zero for project files.
	Walk WalkStats `json:"-" yaml:"-"`
}

// WalkStats summarizes a directory walk.
type WalkStats struct {
	Visited   int
	Files     int
	Truncated bool
	Duration  time.Duration
}

// ScopeIndex returns the scopes catalog index, or nil when the project has
// no scopes. A nil index makes the graph builder derive scopes from records.
func (p *ProjectData) ScopeIndex() definition.ScopeIndex {
	if len(p.Scopes) == 0 {
		return nil
	}
	return definition.IndexScopes(p.Scopes)
}

// Warnings returns every non-fatal error as a flat list.
func (p *ProjectData) Warnings() []error {
	out := make([]error, 0, len(p.FileErrors)+len(p.DirErrors))
	for _, e := range p.DirErrors {
		out = append(out, e)
	}
	for _, e := range p.FileErrors {
		out = append(out, e)
	}
	return out
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loader reads block definitions from a project tree.
type Loader struct {
	fsys   fs.FS
	cfg    Config
	logger *slog.Logger
}

// NewLoader creates a Loader for the directory root.
//
// # Outputs
//
//   - *Loader: Ready to Load.
//   - error: Invalid cfg, or root missing or not a directory.
func NewLoader(root string, cfg Config, opts ...Option) (*Loader, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("open project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}
	return NewFSLoader(os.DirFS(root), cfg, opts...)
}

// NewFSLoader creates a Loader over an arbitrary file system.
func NewFSLoader(fsys fs.FS, cfg Config, opts ...Option) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := &Loader{fsys: fsys, cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// decoded is the per-file output slot of the worker pool.
type decoded struct {
	def definition.BlockDefinition
	err error

	// scopeLevel marks a file without a blockName; its statistics belong to
	// the scope.
	scopeLevel bool
}

// Load walks the project and decodes every definition file and catalog.
//
// # Description
//
// Definition files are decoded concurrently, bounded by Config.Workers, into
// pre-sized slots, so Blocks keep the walk's discovery order regardless of
// scheduling. Files that fail to decode are reported in FileErrors and
// logged; they never fail the load.
//
// # Outputs
//
//   - *ProjectData: Loaded data with non-fatal errors attached.
//   - error: Only for context cancellation.
func (l *Loader) Load(ctx context.Context) (*ProjectData, error) {
	ctx, span := tracer.Start(ctx, "Loader.Load")
	defer span.End()

	start := time.Now()
	filter := newPathFilter(l.fsys, l.cfg)
	walk, err := walkDefinitions(ctx, l.fsys, l.cfg, filter)
	if err != nil {
		return nil, err
	}
	for _, de := range walk.DirErrors {
		l.logger.Warn("cannot read directory", slog.String("dir", de.Dir), slog.String("error", de.Err.Error()))
	}

	matcher := newExtensionMatcher(l.cfg.StatsExtensions, l.cfg.StatsExcludedExtensions)

	slots := make([]decoded, len(walk.Files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.Workers)
	for i, rel := range walk.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = l.decodeDefinition(rel, filter, matcher)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data := &ProjectData{
		Blocks:     make([]definition.BlockDefinition, 0, len(slots)),
		FileErrors: make([]FileError, 0),
		DirErrors:  walk.DirErrors,
	}
	scopeStats := make(map[string]DirStats)
	for i, s := range slots {
		if s.err != nil {
			l.addFileError(data, walk.Files[i], s.err)
			continue
		}
		data.Blocks = append(data.Blocks, s.def)
		if s.scopeLevel && s.def.Scope != "" {
			key := definition.CanonicalScope(s.def.Scope)
			if _, seen := scopeStats[key]; !seen {
				scopeStats[key] = DirStats{Files: s.def.FilesCount, Lines: s.def.CodeLines}
			}
		}
	}

	l.loadCatalogs(data)
	if l.cfg.CountStats {
		attachScopeStats(data.Scopes, scopeStats)
	}

	data.Walk = WalkStats{
		Visited:   walk.Visited,
		Files:     len(walk.Files),
		Truncated: walk.Truncated,
		Duration:  time.Since(start),
	}

	span.SetAttributes(
		attribute.Int("source.dirs_visited", walk.Visited),
		attribute.Int("source.files", len(walk.Files)),
		attribute.Int("source.blocks", len(data.Blocks)),
		attribute.Int("source.file_errors", len(data.FileErrors)),
		attribute.Bool("source.truncated", walk.Truncated),
	)
	l.logger.Debug("project loaded",
		slog.Int("dirs", walk.Visited),
		slog.Int("files", len(walk.Files)),
		slog.Int("blocks", len(data.Blocks)),
		slog.Int("scopes", len(data.Scopes)),
		slog.Int("catalog", len(data.Catalog)),
		slog.Duration("duration", data.Walk.Duration),
	)
	return data, nil
}

// decodeDefinition reads, decodes and normalizes one definition file.
func (l *Loader) decodeDefinition(rel string, filter *pathFilter, matcher extensionMatcher) decoded {
	raw, err := fs.ReadFile(l.fsys, rel)
	if err != nil {
		return decoded{err: err}
	}

	var value any
	if err := yaml.Unmarshal(raw, &value); err != nil {
		return decoded{err: fmt.Errorf("%w: %w", definition.ErrMalformedRecord, err)}
	}
	def, err := definition.NormalizeValue(value)
	if err != nil {
		return decoded{err: err}
	}

	dir := path.Dir(rel)
	def.FilePath = rel
	def.Directory = dir
	if dir == "." {
		def.Directory = ""
	}

	if l.cfg.CountStats {
		stats := countDir(l.fsys, dir, filter, matcher)
		def.FilesCount = stats.Files
		def.CodeLines = stats.Lines
	}
	return decoded{def: def, scopeLevel: !namesBlock(value)}
}

// namesBlock reports whether a decoded definition carries a non-blank
// blockName.
func namesBlock(value any) bool {
	m, ok := value.(map[string]any)
	if !ok {
		return false
	}
	name, ok := m["blockName"]
	if !ok || name == nil {
		return false
	}
	return strings.TrimSpace(fmt.Sprint(name)) != ""
}

// attachScopeStats copies the statistics of scope-level definition files
// onto the matching catalog scopes, at any depth.
func attachScopeStats(scopes []definition.ScopeDefinition, stats map[string]DirStats) {
	for i := range scopes {
		if st, ok := stats[definition.CanonicalScope(scopes[i].Path)]; ok {
			scopes[i].FilesCount = st.Files
			scopes[i].CodeLines = st.Lines
		}
		attachScopeStats(scopes[i].Children, stats)
	}
}

// loadCatalogs reads the optional root catalogs into data.
func (l *Loader) loadCatalogs(data *ProjectData) {
	if raw, ok := l.readOptional(data, l.cfg.ScopesCatalogFile); ok {
		scopes, err := ParseScopesCatalog(raw)
		if err != nil {
			l.addFileError(data, l.cfg.ScopesCatalogFile, err)
		} else {
			data.Scopes = scopes
		}
	}

	if raw, ok := l.readOptional(data, l.cfg.BlockCatalogFile); ok {
		catalog, err := ParseBlockCatalog(raw)
		if err != nil {
			l.addFileError(data, l.cfg.BlockCatalogFile, err)
		} else {
			data.Catalog = catalog
		}
	}
}

// readOptional reads a root file that may legitimately be absent.
func (l *Loader) readOptional(data *ProjectData, name string) ([]byte, bool) {
	if name == "" {
		return nil, false
	}
	raw, err := fs.ReadFile(l.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false
	}
	if err != nil {
		l.addFileError(data, name, err)
		return nil, false
	}
	return raw, true
}

func (l *Loader) addFileError(data *ProjectData, rel string, err error) {
	data.FileErrors = append(data.FileErrors, FileError{FilePath: rel, Err: err})
	l.logger.Warn("skipping file", slog.String("file", rel), slog.String("error", err.Error()))
}
