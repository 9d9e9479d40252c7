// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package blockmap wires the block map pipeline together.
//
// A Service loads a project (a directory tree or a project file), builds the
// graph and the tree, and publishes the result as an immutable Snapshot.
// Every refresh builds a new Snapshot from scratch; readers holding an old
// one are unaffected.
//
// # Lifecycle
//
//  1. New(path, opts...)
//  2. Refresh(ctx) loads and builds; Current() returns the latest Snapshot
//  3. Snapshot.Select / Relations / Highlight / Search / Payload query it
package blockmap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/blockmap/pkg/telemetry"
	"github.com/AleutianAI/blockmap/services/blockmap/graph"
	"github.com/AleutianAI/blockmap/services/blockmap/source"
)

var tracer = otel.Tracer("blockmap.service")

// ErrNoSnapshot is returned by Current before the first Refresh.
var ErrNoSnapshot = errors.New("no snapshot built yet")

// Options configures a Service.
type Options struct {
	// Source configures directory loading. Ignored for project files.
	Source source.Config

	// HideParts builds graphs without Part nodes.
	HideParts bool

	// Logger is used by every stage. Default: slog.Default().
	Logger *slog.Logger
}

// Option is a functional option for configuring Service.
type Option func(*Options)

// WithSourceConfig sets the directory loading configuration.
func WithSourceConfig(cfg source.Config) Option {
	return func(o *Options) {
		o.Source = cfg
	}
}

// WithHideParts sets the hideParts flag for every build.
func WithHideParts(hide bool) Option {
	return func(o *Options) {
		o.HideParts = hide
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// Service loads and builds a block map.
//
// # Thread Safety
//
// Safe for concurrent use. Refresh calls are serialized; Current may be
// called at any time.
type Service struct {
	path    string
	opts    Options
	builder *graph.Builder
	logger  *slog.Logger

	refreshMu sync.Mutex

	mu      sync.RWMutex
	current *Snapshot
}

// New creates a Service for path, a project directory or a project file
// (.json, .yml, .yaml).
func New(path string, opts ...Option) *Service {
	options := Options{
		Source: source.DefaultConfig(),
		Logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Service{
		path:    path,
		opts:    options,
		builder: graph.NewBuilder(graph.WithLogger(options.Logger)),
		logger:  options.Logger,
	}
}

// Path returns the project path.
func (s *Service) Path() string {
	return s.path
}

// Refresh loads the project and builds a new Snapshot.
//
// # Description
//
// Load failures for individual files are attached to the snapshot's data
// and logged; only an unreadable project or a cancelled context fails.
// On success the new snapshot replaces the current one.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	ctx, span := tracer.Start(ctx, "Service.Refresh")
	defer span.End()
	span.SetAttributes(attribute.String("blockmap.path", s.path))

	data, err := s.load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, err
	}

	snap := s.Build(ctx, data)
	if snap.Result.Incomplete {
		err := fmt.Errorf("build cancelled: %w", ctx.Err())
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	telemetry.LoggerWithTrace(ctx, s.logger).Info("block map built",
		slog.String("build_id", snap.Result.BuildID),
		slog.Int("blocks", len(data.Blocks)),
		slog.Int("nodes", snap.Result.Stats.NodesCreated),
		slog.Int("links", snap.Result.Stats.LinksCreated),
		slog.Int("warnings", len(snap.Warnings())),
	)
	return snap, nil
}

// Build builds a Snapshot from already loaded data without publishing it.
func (s *Service) Build(ctx context.Context, data *source.ProjectData) *Snapshot {
	result := s.builder.Build(ctx, data.Blocks, graph.BuildContext{
		HideParts: s.opts.HideParts,
		Scopes:    data.ScopeIndex(),
		Catalog:   data.Catalog,
	})
	return &Snapshot{
		Data:      data,
		Result:    result,
		Tree:      graph.AssembleHierarchy(result.Graph),
		HideParts: s.opts.HideParts,
	}
}

// Current returns the latest published Snapshot.
func (s *Service) Current() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNoSnapshot
	}
	return s.current, nil
}

// load reads the project from a directory or a project file.
func (s *Service) load(ctx context.Context) (*source.ProjectData, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("open project: %w", err)
	}
	if !info.IsDir() {
		return source.LoadProjectFile(s.path)
	}

	loader, err := source.NewLoader(s.path, s.opts.Source, source.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx)
}
