// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package blockmap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AleutianAI/blockmap/services/blockmap/definition"
	"github.com/AleutianAI/blockmap/services/blockmap/export"
	"github.com/AleutianAI/blockmap/services/blockmap/graph"
	"github.com/AleutianAI/blockmap/services/blockmap/highlight"
	"github.com/AleutianAI/blockmap/services/blockmap/relation"
	"github.com/AleutianAI/blockmap/services/blockmap/source"
)

// Snapshot is one immutable build of a project.
type Snapshot struct {
	Data      *source.ProjectData
	Result    *graph.BuildResult
	Tree      *graph.Tree
	HideParts bool
}

// Graph returns the built graph.
func (s *Snapshot) Graph() *graph.Graph {
	return s.Result.Graph
}

// Empty reports whether there is nothing to render.
func (s *Snapshot) Empty() bool {
	return s.Tree == nil
}

// Warnings returns load and build problems, directories first.
func (s *Snapshot) Warnings() []error {
	out := s.Data.Warnings()
	for _, e := range s.Result.RecordErrors {
		out = append(out, e)
	}
	return out
}

// Select finds a node by reference.
//
// A reference is a node ID ("3"), a slash path ("RGB/API/Gateway") or a
// joined path ("RGB → API → Gateway").
func (s *Snapshot) Select(ref string) (*graph.Node, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.Atoi(ref); err == nil {
		if n, ok := s.Graph().NodeByID(id); ok {
			return n, nil
		}
		return nil, fmt.Errorf("%w: id %d", graph.ErrNodeNotFound, id)
	}

	segments := definition.SplitScope(ref)
	if arrow := strings.TrimSpace(definition.PathSeparator); strings.Contains(ref, arrow) {
		segments = segments[:0]
		for _, seg := range strings.Split(ref, arrow) {
			if seg = strings.TrimSpace(seg); seg != "" {
				segments = append(segments, seg)
			}
		}
	}
	if len(segments) > 0 {
		if n, ok := s.Graph().NodeBySegments(segments...); ok {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", graph.ErrNodeNotFound, ref)
}

// Relations resolves the cross-references of n.
func (s *Snapshot) Relations(n *graph.Node) relation.Relations {
	return relation.Resolve(n, s.Graph().Nodes)
}

// Highlight resolves relations of n and computes the emphasis partition.
// A nil n emphasizes everything.
func (s *Snapshot) Highlight(n *graph.Node) *export.Selection {
	rel := s.Relations(n)
	return &export.Selection{
		Node:      n,
		Relations: rel,
		Emphasis:  highlight.Compute(s.Tree, n, rel),
	}
}

// Payload encodes the snapshot for a renderer. sel may be nil.
func (s *Snapshot) Payload(sel *export.Selection) export.Payload {
	return export.NewPayload(s.Result, s.Tree, s.HideParts, sel)
}

// Search returns nodes whose records mention term in blockName,
// description or aspects, case-insensitively, in ID order. An empty term
// matches nothing.
func (s *Snapshot) Search(term string) []*graph.Node {
	needle := strings.ToLower(strings.TrimSpace(term))
	out := make([]*graph.Node, 0)
	if needle == "" {
		return out
	}
	for _, n := range s.Graph().Nodes {
		for i := range n.Blocks {
			if recordMatches(&n.Blocks[i], needle) {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

func recordMatches(rec *definition.BlockDefinition, needle string) bool {
	return strings.Contains(strings.ToLower(rec.BlockName), needle) ||
		strings.Contains(strings.ToLower(rec.Description), needle) ||
		strings.Contains(strings.ToLower(rec.Aspects), needle)
}
