// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package relation resolves the named cross-references of a selected node.
//
// Blocks refer to each other by name through `based` and `extend`. A name is
// not a path: the same block name may be declared under several scopes, so a
// single token can resolve to several nodes. Resolution never fails; a name
// with no matching node simply contributes nothing.
package relation

import (
	"github.com/AleutianAI/blockmap/services/blockmap/definition"
	"github.com/AleutianAI/blockmap/services/blockmap/graph"
)

// Kind names a relation set.
type Kind string

const (
	KindBased  Kind = "based"
	KindExtend Kind = "extend"
	KindOther  Kind = "other"
)

// Relations are the nodes related to a selected node.
//
// Each list is deduplicated by node ID and ordered by discovery: token order
// first, then node ID order within a token.
type Relations struct {
	// Based are the nodes named by the selection's `based` tokens.
	Based []*graph.Node `json:"based"`

	// Extend are the nodes named by the selection's `extend` tokens.
	Extend []*graph.Node `json:"extend"`

	// Other are Block nodes sharing the selection's name, excluding the
	// selection itself.
	Other []*graph.Node `json:"other"`
}

// All returns Based, Extend and Other concatenated, deduplicated by ID.
func (r Relations) All() []*graph.Node {
	out := make([]*graph.Node, 0, len(r.Based)+len(r.Extend)+len(r.Other))
	seen := make(map[int]bool, cap(out))
	for _, set := range [][]*graph.Node{r.Based, r.Extend, r.Other} {
		for _, n := range set {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			out = append(out, n)
		}
	}
	return out
}

// Empty reports whether no relation was found.
func (r Relations) Empty() bool {
	return len(r.Based) == 0 && len(r.Extend) == 0 && len(r.Other) == 0
}

// Get returns the set for kind.
func (r Relations) Get(kind Kind) []*graph.Node {
	switch kind {
	case KindBased:
		return r.Based
	case KindExtend:
		return r.Extend
	case KindOther:
		return r.Other
	default:
		return nil
	}
}

// Resolve finds the nodes related to selected.
//
// Description:
//
//	For every record on the selected node, each `based` and `extend` token
//	(re-split on "," in case it arrived unsplit) is matched against every
//	node. A node matches when its name equals the token, or when any of its
//	records declares that blockName. Matching is exact and case-sensitive.
//	Other collects the Block nodes named like the selection.
//
//	The blockName alias does not apply to Part nodes. A Part's records carry
//	the owning block's name, so a token naming a block matches the block
//	but not its Parts, and Based/Extend never list those Parts. Highlighting
//	still shows them because a Block's subtree is revealed.
//
// Inputs:
//
//	selected - The selected node. Nil yields empty Relations.
//	nodes - All graph nodes, in ID order.
//
// Outputs:
//
//	Relations - Never nil slices.
func Resolve(selected *graph.Node, nodes []*graph.Node) Relations {
	rel := Relations{
		Based:  make([]*graph.Node, 0),
		Extend: make([]*graph.Node, 0),
		Other:  make([]*graph.Node, 0),
	}
	if selected == nil {
		return rel
	}

	basedSeen := make(map[int]bool)
	extendSeen := make(map[int]bool)
	for i := range selected.Blocks {
		rec := &selected.Blocks[i]
		for _, token := range tokens(rec.Based) {
			rel.Based = appendMatches(rel.Based, basedSeen, token, nodes)
		}
		for _, token := range tokens(rec.Extend) {
			rel.Extend = appendMatches(rel.Extend, extendSeen, token, nodes)
		}
	}

	for _, n := range nodes {
		if n.Type != graph.NodeTypeBlock || n.ID == selected.ID {
			continue
		}
		if n.Name == selected.Name {
			rel.Other = append(rel.Other, n)
		}
	}
	return rel
}

// tokens re-splits reference lists whose items may still hold commas.
func tokens(list []string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, definition.SplitTokens(item)...)
	}
	return out
}

func appendMatches(dst []*graph.Node, seen map[int]bool, token string, nodes []*graph.Node) []*graph.Node {
	for _, n := range nodes {
		if seen[n.ID] || !matches(n, token) {
			continue
		}
		seen[n.ID] = true
		dst = append(dst, n)
	}
	return dst
}

// matches treats Name as authoritative and a record blockName as an alias.
// Records on a Part node carry their owning block's name, so the alias does
// not apply to Parts.
func matches(n *graph.Node, token string) bool {
	if n.Name == token {
		return true
	}
	return n.Type != graph.NodeTypePart && n.HasBlockName(token)
}
