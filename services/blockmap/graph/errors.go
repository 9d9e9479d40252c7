// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph builds the block hierarchy graph and its rooted tree.
//
// The graph is a set of typed nodes keyed by placement path (one node per
// path) and parent->child links between adjacent path prefixes. Every record
// whose full placement path equals a node's path is kept on that node.
//
// # Ownership Model
//
// A Graph is produced by Builder.Build and is read-only afterwards. The Tree
// returned by AssembleHierarchy points at the same Node values; neither the
// tree nor downstream consumers may mutate node identity (ID, Path, Type).
//
// # Thread Safety
//
// Building is single-threaded and synchronous. A finished Graph or Tree may
// be read from multiple goroutines.
//
// # Lifecycle
//
//  1. Build with Builder.Build(ctx, records, BuildContext{...})
//  2. Assemble with AssembleHierarchy(result.Graph)
//  3. Query with Graph.NodeByPath, Tree.Find, TreeNode.Ancestors, ...
//  4. Discard on the next refresh; nothing is updated in place.
package graph

import "errors"

// Sentinel errors for graph building.
var (
	// ErrUnresolvedScope is recorded for a record whose declared scope is not
	// present in the scopes catalog. The record is skipped.
	ErrUnresolvedScope = errors.New("scope not found in scopes catalog")

	// ErrNodeNotFound is returned by lookups for an unknown node.
	ErrNodeNotFound = errors.New("node not found")
)
