// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/blockmap/services/blockmap/definition"
)

// BuildContext carries the per-build inputs owned by the caller.
//
// There is no package-level "current catalog": every build receives its
// context explicitly and nothing survives between builds.
type BuildContext struct {
	// HideParts drops blockPart segments from every placement path, so no
	// Part nodes are created.
	HideParts bool

	// Scopes is the scopes catalog. When non-nil, records whose scope is not
	// in the index are skipped with ErrUnresolvedScope. When nil, scope
	// chains come from the records themselves.
	Scopes definition.ScopeIndex

	// Catalog backfills nodes that no record declares directly. May be nil.
	Catalog definition.Catalog
}

// BuilderOptions configures Builder behavior.
type BuilderOptions struct {
	// Logger receives warnings for skipped records. Default: slog.Default().
	Logger *slog.Logger

	// NewBuildID generates BuildResult.BuildID. Default: uuid.NewString.
	NewBuildID func() string
}

// DefaultBuilderOptions returns sensible defaults.
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{
		Logger:     slog.Default(),
		NewBuildID: uuid.NewString,
	}
}

// BuilderOption is a functional option for configuring Builder.
type BuilderOption func(*BuilderOptions)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(o *BuilderOptions) {
		o.Logger = logger
	}
}

// WithBuildIDFunc sets the build ID generator.
func WithBuildIDFunc(fn func() string) BuilderOption {
	return func(o *BuilderOptions) {
		o.NewBuildID = fn
	}
}

// Builder constructs block graphs from normalized records.
//
// Thread Safety:
//
//	Builder is stateless and safe for concurrent use. Each Build call
//	creates a new Graph.
type Builder struct {
	options BuilderOptions
}

// NewBuilder creates a new Builder with the given options.
func NewBuilder(opts ...BuilderOption) *Builder {
	options := DefaultBuilderOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.NewBuildID == nil {
		options.NewBuildID = uuid.NewString
	}
	return &Builder{options: options}
}

// buildState holds mutable state during a single build operation.
type buildState struct {
	graph  *Graph
	result *BuildResult
	bctx   BuildContext
	logger *slog.Logger
}

// Build constructs a graph from the given records.
//
// Description:
//
//	For each record the full placement path is
//	scope segments ⧺ [blockName] ⧺ blockPart (blockPart omitted when
//	HideParts is set). Every prefix of the path becomes a node, created on
//	first sight with the next sequential ID; adjacent prefixes are linked
//	once. The record is appended to the node for its full path, so records
//	sharing a path all accumulate on one node.
//
// Inputs:
//
//	ctx - Context for tracing and cancellation.
//	records - Normalized records in input order. Order determines IDs.
//	bctx - Per-build options. See BuildContext.
//
// Outputs:
//
//	*BuildResult - Never nil. Skipped records are listed in RecordErrors.
//
// Build Phases:
//
//  1. PLACE: Filter ignored records, validate, resolve scope, create nodes/links
//  2. BACKFILL: Attach catalog entries to nodes with no contributor
//  3. FINALIZE: Compute statistics, record metrics
func (b *Builder) Build(ctx context.Context, records []definition.BlockDefinition, bctx BuildContext) *BuildResult {
	ctx, span := startBuildSpan(ctx, len(records), bctx.HideParts)
	defer span.End()

	start := time.Now()
	state := &buildState{
		graph: NewGraph(),
		result: &BuildResult{
			BuildID:      b.options.NewBuildID(),
			RecordErrors: make([]RecordError, 0),
		},
		bctx:   bctx,
		logger: b.options.Logger,
	}
	state.result.Graph = state.graph
	state.result.Stats.RecordsTotal = len(records)
	state.logger = state.logger.With(slog.String("build_id", state.result.BuildID))

	// Phase 1: Place records
	if err := b.placePhase(ctx, state, records); err != nil {
		state.result.Incomplete = true
		state.logger.Warn("graph build cancelled", slog.String("error", err.Error()))
	}

	// Phase 2: Catalog backfill
	if !state.result.Incomplete {
		b.backfillPhase(state)
	}

	// Phase 3: Finalize
	duration := time.Since(start)
	state.result.Stats.NodesCreated = state.graph.NodeCount()
	state.result.Stats.LinksCreated = state.graph.LinkCount()
	state.result.Stats.DurationMicro = duration.Microseconds()

	setBuildSpanResult(span, state.result)
	recordBuildMetrics(ctx, duration, state.result.Stats, !state.result.Incomplete)

	state.logger.Debug("graph built",
		slog.Int("records", state.result.Stats.RecordsTotal),
		slog.Int("nodes", state.result.Stats.NodesCreated),
		slog.Int("links", state.result.Stats.LinksCreated),
		slog.Int("skipped", state.result.Stats.RecordsSkipped),
		slog.Bool("hide_parts", bctx.HideParts),
	)

	return state.result
}

// placePhase attaches every usable record to the graph.
func (b *Builder) placePhase(ctx context.Context, state *buildState, records []definition.BlockDefinition) error {
	for i := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec := records[i]
		if rec.Ignore {
			state.result.Stats.RecordsIgnored++
			continue
		}

		if err := definition.Validate(rec); err != nil {
			b.skip(state, i, rec, err)
			continue
		}

		if err := b.resolveScope(state, rec); err != nil {
			b.skip(state, i, rec, err)
			continue
		}

		b.place(state, rec)
	}
	return nil
}

// resolveScope checks the record's scope against the scopes catalog.
func (b *Builder) resolveScope(state *buildState, rec definition.BlockDefinition) error {
	if state.bctx.Scopes == nil {
		return nil
	}
	scope := definition.CanonicalScope(rec.Scope)
	if scope == "" || state.bctx.Scopes.Has(scope) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnresolvedScope, scope)
}

// place creates the record's path prefixes and attaches it to the terminal node.
func (b *Builder) place(state *buildState, rec definition.BlockDefinition) {
	path := rec.FullPath(state.bctx.HideParts)
	scopeLen := len(rec.ScopeSegments())

	var parent *Node
	for i := range path {
		key := definition.JoinPath(path[:i+1])
		node, created := state.graph.nodeFor(key, path[i], i, typeAt(i, scopeLen))
		if created && node.Type == NodeTypeScope {
			if sd, ok := state.bctx.Scopes.Lookup(definition.JoinScope(path[:i+1])); ok {
				node.Description = sd.Description
				node.FilesCount = sd.FilesCount
				node.CodeLines = sd.CodeLines
			}
		}
		if parent != nil {
			state.graph.addLink(parent.ID, node.ID)
		}
		parent = node
	}

	if len(parent.Blocks) > 0 {
		state.result.Stats.MergedRecords++
	}
	parent.Blocks = append(parent.Blocks, rec)
	state.result.Stats.RecordsPlaced++
}

// skip records a RecordError and logs it.
func (b *Builder) skip(state *buildState, index int, rec definition.BlockDefinition, err error) {
	state.result.RecordErrors = append(state.result.RecordErrors, RecordError{
		Index:    index,
		FilePath: rec.FilePath,
		Err:      err,
	})
	state.result.Stats.RecordsSkipped++
	state.logger.Warn("skipping block definition",
		slog.Int("index", index),
		slog.String("file", rec.FilePath),
		slog.String("block", rec.BlockName),
		slog.String("error", err.Error()),
	)
}

// backfillPhase adds one synthetic catalog entry to each node that no
// record declares.
func (b *Builder) backfillPhase(state *buildState) {
	if len(state.bctx.Catalog) == 0 {
		return
	}
	for _, node := range state.graph.Nodes {
		if len(node.Blocks) > 0 {
			continue
		}
		entry, ok := state.bctx.Catalog.Lookup(node.Name)
		if !ok {
			continue
		}
		node.Blocks = append(node.Blocks, catalogRecord(node, entry))
		state.result.Stats.CatalogBackfills++
	}
}

// catalogRecord builds the synthetic record for a catalog-backed node.
func catalogRecord(node *Node, entry definition.CatalogEntry) definition.BlockDefinition {
	segments := strings.Split(node.Path, definition.PathSeparator)
	return definition.BlockDefinition{
		Scope:       definition.JoinScope(segments[:len(segments)-1]),
		Parents:     []string{},
		BlockName:   node.Name,
		BlockPart:   []string{},
		Description: entry.Description,
		Based:       []string{},
		Extend:      []string{},
		FromCatalog: true,
		CatalogData: &entry,
	}
}
