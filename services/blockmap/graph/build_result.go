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

import "fmt"

// RecordError represents a record that was skipped during graph building.
type RecordError struct {
	// Index is the position of the record in the build input.
	Index int

	// FilePath is the record's source file, if known.
	FilePath string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e RecordError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("record %d (%s): %v", e.Index, e.FilePath, e.Err)
	}
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e RecordError) Unwrap() error {
	return e.Err
}

// BuildStats contains statistics about a build operation.
type BuildStats struct {
	// RecordsTotal is the number of records passed to Build.
	RecordsTotal int

	// RecordsPlaced is the number of records attached to a node.
	RecordsPlaced int

	// RecordsIgnored is the number of records dropped for ignore = true.
	RecordsIgnored int

	// RecordsSkipped is the number of records dropped with a RecordError.
	RecordsSkipped int

	// NodesCreated is the number of nodes in the graph.
	NodesCreated int

	// LinksCreated is the number of links in the graph.
	LinksCreated int

	// MergedRecords counts records that landed on a node that already had a
	// contributor.
	MergedRecords int

	// CatalogBackfills is the number of synthetic catalog entries added.
	CatalogBackfills int

	// DurationMicro is the total build time in microseconds.
	DurationMicro int64
}

// BuildResult contains the result of a graph build operation.
//
// Builds never fail as a whole: skipped records are listed in RecordErrors
// and the graph holds everything else.
type BuildResult struct {
	// BuildID identifies this build in logs and exported payloads.
	BuildID string

	// Graph is the constructed graph. Never nil.
	Graph *Graph

	// RecordErrors lists the records that were skipped.
	RecordErrors []RecordError

	// Stats contains build statistics.
	Stats BuildStats

	// Incomplete is true if the build was cancelled via context. The graph
	// then holds the records placed before cancellation.
	Incomplete bool
}

// HasErrors returns true if any record was skipped with an error.
func (r *BuildResult) HasErrors() bool {
	return len(r.RecordErrors) > 0
}

// Empty returns true if the graph has no nodes.
func (r *BuildResult) Empty() bool {
	return r.Graph == nil || len(r.Graph.Nodes) == 0
}

// Success returns true if the build completed without skipped records.
func (r *BuildResult) Success() bool {
	return !r.Incomplete && !r.HasErrors()
}
