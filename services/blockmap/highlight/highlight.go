// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package highlight classifies tree nodes and links as emphasized or dimmed
// for a selection.
//
// The engine never removes anything: every node and link of the tree gets a
// flag, and the renderer decides how a dimmed element looks.
package highlight

import (
	"github.com/AleutianAI/blockmap/services/blockmap/graph"
	"github.com/AleutianAI/blockmap/services/blockmap/relation"
)

// Role says why a node is emphasized.
type Role int

const (
	// RoleNone is a node that is not a selection or relation target. It may
	// still be emphasized as an ancestor or descendant.
	RoleNone Role = iota

	// RoleSelected is the selected node.
	RoleSelected

	// RoleBased is a node named by the selection's `based`.
	RoleBased

	// RoleExtend is a node named by the selection's `extend`.
	RoleExtend

	// RoleOther is a Block node sharing the selection's name.
	RoleOther
)

// String returns the string representation of the Role.
func (r Role) String() string {
	switch r {
	case RoleSelected:
		return "selected"
	case RoleBased:
		return "based"
	case RoleExtend:
		return "extend"
	case RoleOther:
		return "other"
	default:
		return "none"
	}
}

// MarshalText encodes the role as its name.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Emphasis is the visibility partition of a tree.
type Emphasis struct {
	// Active is false when nothing is selected; every flag is then true.
	Active bool

	// SelectedID is the selected node's ID. Meaningful only when Active.
	SelectedID int

	// Nodes maps every tree node ID to its emphasized flag.
	Nodes map[int]bool

	// Links maps every tree link to its emphasized flag.
	Links map[graph.Link]bool

	// Roles holds the selection and relation targets. Nodes absent from the
	// map have RoleNone.
	Roles map[int]Role
}

// NodeEmphasized reports whether node id is emphasized. Unknown IDs are not.
func (e Emphasis) NodeEmphasized(id int) bool {
	return e.Nodes[id]
}

// LinkEmphasized reports whether the link is emphasized.
func (e Emphasis) LinkEmphasized(l graph.Link) bool {
	return e.Links[l]
}

// Role returns the node's role.
func (e Emphasis) Role(id int) Role {
	return e.Roles[id]
}

// EmphasizedCount returns the number of emphasized nodes.
func (e Emphasis) EmphasizedCount() int {
	n := 0
	for _, on := range e.Nodes {
		if on {
			n++
		}
	}
	return n
}

// Compute classifies every node and link of tree.
//
// Description:
//
//	The emphasized set is the union, over the selection and every node in
//	rel (based, extend, other), of the node itself, its tree ancestors
//	(virtual root included) and, for Block nodes only, its whole subtree.
//	Everything else is dimmed. A link is dimmed when either end is dimmed.
//
//	With no selection, or a selection that is not in the tree, every node
//	and link is emphasized and Active is false.
//
// Inputs:
//
//	tree - Assembled hierarchy. Nil yields an empty Emphasis.
//	selected - The selected node, or nil.
//	rel - Relations of the selection, usually relation.Resolve output.
//
// Outputs:
//
//	Emphasis - Maps cover exactly the tree's nodes and links.
func Compute(tree *graph.Tree, selected *graph.Node, rel relation.Relations) Emphasis {
	em := Emphasis{
		Nodes: make(map[int]bool, tree.Len()),
		Links: make(map[graph.Link]bool, tree.Len()),
		Roles: make(map[int]Role),
	}
	if tree == nil {
		return em
	}

	var start *graph.TreeNode
	if selected != nil {
		start, _ = tree.Find(selected.ID)
	}

	if start == nil {
		tree.Walk(func(n *graph.TreeNode) bool {
			em.Nodes[n.ID()] = true
			return true
		})
		for _, l := range tree.Links() {
			em.Links[l] = true
		}
		return em
	}

	em.Active = true
	em.SelectedID = start.ID()

	visible := make(map[int]bool)
	reveal(visible, start)
	em.Roles[start.ID()] = RoleSelected

	targets := []struct {
		nodes []*graph.Node
		role  Role
	}{
		{rel.Based, RoleBased},
		{rel.Extend, RoleExtend},
		{rel.Other, RoleOther},
	}
	for _, target := range targets {
		for _, n := range target.nodes {
			tn, ok := tree.Find(n.ID)
			if !ok {
				continue
			}
			reveal(visible, tn)
			if _, taken := em.Roles[tn.ID()]; !taken {
				em.Roles[tn.ID()] = target.role
			}
		}
	}

	tree.Walk(func(n *graph.TreeNode) bool {
		em.Nodes[n.ID()] = visible[n.ID()]
		return true
	})
	for _, l := range tree.Links() {
		em.Links[l] = visible[l.Source] && visible[l.Target]
	}
	return em
}

// reveal marks n, its ancestors and, for a Block, its subtree.
func reveal(visible map[int]bool, n *graph.TreeNode) {
	visible[n.ID()] = true
	for _, a := range n.Ancestors() {
		visible[a.ID()] = true
	}
	if n.Node.Type != graph.NodeTypeBlock {
		return
	}
	for _, d := range n.Descendants() {
		visible[d.ID()] = true
	}
}
