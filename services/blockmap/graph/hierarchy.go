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
	"github.com/AleutianAI/blockmap/services/blockmap/definition"
)

// VirtualRootName is the name and path of the synthesized root.
const VirtualRootName = "Root"

// =============================================================================
// Tree Nodes
// =============================================================================

// TreeNode wraps a graph node with its materialized children.
type TreeNode struct {
	// Node is the backing graph node. For the virtual root it is a synthetic
	// node with ID VirtualRootID and no blocks.
	Node *Node `json:"data"`

	// Parent is nil for the root.
	Parent *TreeNode `json:"-"`

	// Children are in link insertion order.
	Children []*TreeNode `json:"children"`
}

// ID returns the backing node's ID.
func (t *TreeNode) ID() int {
	return t.Node.ID
}

// IsVirtual reports whether this is the synthesized root.
func (t *TreeNode) IsVirtual() bool {
	return t.Node.ID == VirtualRootID
}

// Ancestors returns the tree ancestors of t, nearest first. The virtual
// root is included when present.
func (t *TreeNode) Ancestors() []*TreeNode {
	out := make([]*TreeNode, 0, 4)
	for p := t.Parent; p != nil; p = p.Parent {
		out = append(out, p)
	}
	return out
}

// Descendants returns every node below t in pre-order, excluding t.
func (t *TreeNode) Descendants() []*TreeNode {
	out := make([]*TreeNode, 0)
	stack := make([]*TreeNode, 0, len(t.Children))
	for i := len(t.Children) - 1; i >= 0; i-- {
		stack = append(stack, t.Children[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return out
}

// =============================================================================
// Tree
// =============================================================================

// Tree is a single-rooted view over a Graph.
type Tree struct {
	// Root is the unique root; a virtual root when the graph had several
	// top-level nodes.
	Root *TreeNode `json:"root"`

	index map[int]*TreeNode
}

// Find returns the tree node for a graph node ID. VirtualRootID finds the
// virtual root when one exists.
func (t *Tree) Find(id int) (*TreeNode, bool) {
	if t == nil {
		return nil, false
	}
	n, ok := t.index[id]
	return n, ok
}

// Len returns the number of tree nodes, virtual root included.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.index)
}

// HasVirtualRoot reports whether the root was synthesized.
func (t *Tree) HasVirtualRoot() bool {
	return t != nil && t.Root.IsVirtual()
}

// Walk visits every tree node in pre-order. Returning false from fn stops
// the walk.
func (t *Tree) Walk(fn func(n *TreeNode) bool) {
	if t == nil {
		return
	}
	stack := []*TreeNode{t.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			return
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// Links returns every parent->child edge of the tree in pre-order, including
// edges from the virtual root.
func (t *Tree) Links() []Link {
	links := make([]Link, 0, t.Len())
	t.Walk(func(n *TreeNode) bool {
		for _, c := range n.Children {
			links = append(links, Link{Source: n.ID(), Target: c.ID()})
		}
		return true
	})
	return links
}

// =============================================================================
// Assembly
// =============================================================================

// AssembleHierarchy converts a graph into a rooted tree.
//
// Description:
//
//	Children of each node are the targets of its outgoing links, in link
//	insertion order. Root candidates are the nodes with the minimum depth:
//	one candidate becomes the root, several get a synthesized virtual root
//	(ID VirtualRootID, depth -1, no blocks) as their common parent.
//
//	Every node is attached exactly once. A node reachable from several
//	parents keeps the first one found; a node not reachable from any root
//	candidate (missing parent link) is attached to the virtual root as an
//	extra top-level node.
//
// Outputs:
//
//	*Tree - nil when g is nil or has no nodes.
func AssembleHierarchy(g *Graph) *Tree {
	if g == nil || len(g.Nodes) == 0 {
		return nil
	}

	wrapped := make(map[int]*TreeNode, len(g.Nodes)+1)
	for _, n := range g.Nodes {
		wrapped[n.ID] = &TreeNode{Node: n, Children: make([]*TreeNode, 0)}
	}

	outgoing := make(map[int][]int, len(g.Nodes))
	for _, l := range g.Links {
		if _, ok := wrapped[l.Source]; !ok {
			continue
		}
		if _, ok := wrapped[l.Target]; !ok {
			continue
		}
		outgoing[l.Source] = append(outgoing[l.Source], l.Target)
	}

	minDepth := g.Nodes[0].Depth
	for _, n := range g.Nodes[1:] {
		if n.Depth < minDepth {
			minDepth = n.Depth
		}
	}
	roots := make([]*TreeNode, 0, 1)
	for _, n := range g.Nodes {
		if n.Depth == minDepth {
			roots = append(roots, wrapped[n.ID])
		}
	}

	visited := make(map[int]bool, len(g.Nodes))
	for _, r := range roots {
		visited[r.ID()] = true
	}
	for _, r := range roots {
		attachReachable(r, wrapped, outgoing, visited)
	}

	for _, n := range g.Nodes {
		if visited[n.ID] {
			continue
		}
		orphan := wrapped[n.ID]
		visited[n.ID] = true
		roots = append(roots, orphan)
		attachReachable(orphan, wrapped, outgoing, visited)
	}

	tree := &Tree{index: make(map[int]*TreeNode, len(g.Nodes)+1)}
	if len(roots) == 1 {
		tree.Root = roots[0]
	} else {
		tree.Root = newVirtualRoot()
		for _, r := range roots {
			r.Parent = tree.Root
			tree.Root.Children = append(tree.Root.Children, r)
		}
	}

	tree.Walk(func(n *TreeNode) bool {
		tree.index[n.ID()] = n
		return true
	})
	return tree
}

// attachReachable attaches every unvisited node reachable from start.
func attachReachable(start *TreeNode, wrapped map[int]*TreeNode, outgoing map[int][]int, visited map[int]bool) {
	stack := []*TreeNode{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, target := range outgoing[n.ID()] {
			if visited[target] {
				continue
			}
			visited[target] = true
			child := wrapped[target]
			child.Parent = n
			n.Children = append(n.Children, child)
			stack = append(stack, child)
		}
	}
}

func newVirtualRoot() *TreeNode {
	return &TreeNode{
		Node: &Node{
			ID:     VirtualRootID,
			Name:   VirtualRootName,
			Path:   VirtualRootName,
			Depth:  -1,
			Type:   NodeTypeScope,
			Blocks: []definition.BlockDefinition{},
		},
		Children: make([]*TreeNode, 0),
	}
}
