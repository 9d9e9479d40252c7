// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package export encodes a built graph for a renderer.
//
// The payload is plain JSON: node and link lists with emphasis flags, the
// rooted tree (null when there is nothing to render) and, when a node is
// selected, its relations by node ID. Renderers must treat node IDs and
// paths as read-only identities.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/AleutianAI/blockmap/services/blockmap/graph"
	"github.com/AleutianAI/blockmap/services/blockmap/highlight"
	"github.com/AleutianAI/blockmap/services/blockmap/relation"
)

// PayloadVersion is bumped on incompatible payload changes.
const PayloadVersion = 1

// NodeView is a graph node with its emphasis.
type NodeView struct {
	*graph.Node
	Emphasized bool   `json:"emphasized"`
	Role       string `json:"role,omitempty"`
}

// LinkView is a graph link with its emphasis.
type LinkView struct {
	graph.Link
	Emphasized bool `json:"emphasized"`
}

// RelationsView lists related node IDs.
type RelationsView struct {
	Based  []int `json:"based"`
	Extend []int `json:"extend"`
	Other  []int `json:"other"`
}

// Payload is the renderer document.
type Payload struct {
	Version   int             `json:"version"`
	BuildID   string          `json:"buildId"`
	HideParts bool            `json:"hideParts"`
	Nodes     []NodeView      `json:"nodes"`
	Links     []LinkView      `json:"links"`
	Tree      *graph.TreeNode `json:"tree"`

	// Selected is the selected node ID; absent when nothing is selected.
	Selected  *int           `json:"selected,omitempty"`
	Relations *RelationsView `json:"relations,omitempty"`
}

// Selection is an optional selected node with its derived sets.
type Selection struct {
	Node      *graph.Node
	Relations relation.Relations
	Emphasis  highlight.Emphasis
}

// NewPayload assembles a payload.
//
// # Inputs
//
//   - result: Build output. Must not be nil.
//   - tree: AssembleHierarchy output; nil for an empty graph.
//   - hideParts: The flag the graph was built with.
//   - sel: Optional selection; nil or inactive emphasizes everything.
func NewPayload(result *graph.BuildResult, tree *graph.Tree, hideParts bool, sel *Selection) Payload {
	p := Payload{
		Version:   PayloadVersion,
		BuildID:   result.BuildID,
		HideParts: hideParts,
		Nodes:     make([]NodeView, 0, result.Graph.NodeCount()),
		Links:     make([]LinkView, 0, result.Graph.LinkCount()),
	}
	if tree != nil {
		p.Tree = tree.Root
	}

	active := sel != nil && sel.Emphasis.Active
	for _, n := range result.Graph.Nodes {
		view := NodeView{Node: n, Emphasized: true}
		if active {
			view.Emphasized = sel.Emphasis.NodeEmphasized(n.ID)
			if role := sel.Emphasis.Role(n.ID); role != highlight.RoleNone {
				view.Role = role.String()
			}
		}
		p.Nodes = append(p.Nodes, view)
	}
	for _, l := range result.Graph.Links {
		view := LinkView{Link: l, Emphasized: true}
		if active {
			view.Emphasized = sel.Emphasis.LinkEmphasized(l)
		}
		p.Links = append(p.Links, view)
	}

	if active {
		id := sel.Emphasis.SelectedID
		p.Selected = &id
		p.Relations = &RelationsView{
			Based:  ids(sel.Relations.Based),
			Extend: ids(sel.Relations.Extend),
			Other:  ids(sel.Relations.Other),
		}
	}
	return p
}

func ids(nodes []*graph.Node) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

// Write encodes p as JSON.
func Write(w io.Writer, p Payload, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	return nil
}
