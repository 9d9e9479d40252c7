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
	"fmt"

	"github.com/AleutianAI/blockmap/services/blockmap/definition"
)

// NodeType is the category of a node, derived from its position in the
// placement path of the record that created it.
type NodeType int

const (
	// NodeTypeScope is a segment inside the scope chain.
	NodeTypeScope NodeType = iota

	// NodeTypeBlock is the block-name segment.
	NodeTypeBlock

	// NodeTypePart is a segment below the block name.
	NodeTypePart
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case NodeTypeScope:
		return "scope"
	case NodeTypeBlock:
		return "block"
	case NodeTypePart:
		return "part"
	default:
		return "unknown"
	}
}

// MarshalText encodes the type as its name.
func (t NodeType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a type name produced by MarshalText.
func (t *NodeType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "scope":
		*t = NodeTypeScope
	case "block":
		*t = NodeTypeBlock
	case "part":
		*t = NodeTypePart
	default:
		return fmt.Errorf("unknown node type %q", text)
	}
	return nil
}

// typeAt derives the node type for segment index i of a path whose scope
// chain has scopeLen segments.
func typeAt(i, scopeLen int) NodeType {
	switch {
	case i < scopeLen:
		return NodeTypeScope
	case i == scopeLen:
		return NodeTypeBlock
	default:
		return NodeTypePart
	}
}

// VirtualRootID is the ID of the synthetic root added by AssembleHierarchy
// when the graph has several top-level nodes.
const VirtualRootID = -1

// Node is a deduplicated graph vertex keyed by placement path.
type Node struct {
	// ID is assigned in first-seen order starting at 0.
	ID int `json:"id"`

	// Name is the last segment of Path.
	Name string `json:"name"`

	// Path is the joined placement prefix; the node's identity key.
	Path string `json:"path"`

	// Depth is the 0-based segment index; top-level nodes have depth 0.
	Depth int `json:"depth"`

	// Type is fixed when the node is created.
	Type NodeType `json:"type"`

	// Blocks holds every record whose full placement path equals Path, in
	// input order, plus at most one catalog-derived entry when no record
	// declares the node directly.
	Blocks []definition.BlockDefinition `json:"blocks"`

	// Description is the scopes-catalog description of a Scope node.
	Description string `json:"description,omitempty"`

	// FilesCount and CodeLines are the scope directory statistics of a Scope
	// node, when the scopes catalog carries them.
	FilesCount int `json:"filesCount,omitempty"`
	CodeLines  int `json:"codeLines,omitempty"`
}

// HasBlockName reports whether any contributing record declares name.
func (n *Node) HasBlockName(name string) bool {
	for i := range n.Blocks {
		if n.Blocks[i].BlockName == name {
			return true
		}
	}
	return false
}

// Declared reports whether at least one non-catalog record contributes.
func (n *Node) Declared() bool {
	for i := range n.Blocks {
		if !n.Blocks[i].FromCatalog {
			return true
		}
	}
	return false
}

// Link is a directed parent->child edge between node IDs. Link values are
// comparable and used directly as map keys.
type Link struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

// Graph is the output of a build: nodes in ID order and links in insertion
// order.
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Links []Link  `json:"links"`

	byPath map[string]*Node
	links  map[Link]struct{}
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:  make([]*Node, 0),
		Links:  make([]Link, 0),
		byPath: make(map[string]*Node),
		links:  make(map[Link]struct{}),
	}
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// LinkCount returns the number of links.
func (g *Graph) LinkCount() int {
	return len(g.Links)
}

// NodeByID returns the node with the given ID.
func (g *Graph) NodeByID(id int) (*Node, bool) {
	if id < 0 || id >= len(g.Nodes) {
		return nil, false
	}
	return g.Nodes[id], true
}

// NodeByPath returns the node with the given joined path.
func (g *Graph) NodeByPath(path string) (*Node, bool) {
	n, ok := g.byPath[path]
	return n, ok
}

// NodeBySegments returns the node addressed by placement segments.
func (g *Graph) NodeBySegments(segments ...string) (*Node, bool) {
	return g.NodeByPath(definition.JoinPath(segments))
}

// HasLink reports whether the ordered pair is linked.
func (g *Graph) HasLink(source, target int) bool {
	_, ok := g.links[Link{Source: source, Target: target}]
	return ok
}

// nodeFor returns the node for path, creating it with the next ID if absent.
// The boolean result is true when the node was created.
func (g *Graph) nodeFor(path, name string, depth int, typ NodeType) (*Node, bool) {
	if n, ok := g.byPath[path]; ok {
		return n, false
	}
	n := &Node{
		ID:     len(g.Nodes),
		Name:   name,
		Path:   path,
		Depth:  depth,
		Type:   typ,
		Blocks: make([]definition.BlockDefinition, 0, 1),
	}
	g.Nodes = append(g.Nodes, n)
	g.byPath[path] = n
	return n, true
}

// addLink appends the link unless the ordered pair already exists.
func (g *Graph) addLink(source, target int) bool {
	l := Link{Source: source, Target: target}
	if _, ok := g.links[l]; ok {
		return false
	}
	g.links[l] = struct{}{}
	g.Links = append(g.Links, l)
	return true
}
