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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/blockmap/services/blockmap/definition"
)

func buildGraph(t *testing.T, records ...definition.BlockDefinition) *Graph {
	t.Helper()
	result := testBuilder().Build(context.Background(), records, BuildContext{})
	require.False(t, result.HasErrors(), "unexpected record errors: %v", result.RecordErrors)
	return result.Graph
}

func TestAssembleHierarchy_Nil(t *testing.T) {
	assert.Nil(t, AssembleHierarchy(nil))
	assert.Nil(t, AssembleHierarchy(NewGraph()))

	var tree *Tree
	assert.Equal(t, 0, tree.Len())
	_, ok := tree.Find(0)
	assert.False(t, ok)
}

func TestAssembleHierarchy_SingleRoot(t *testing.T) {
	g := buildGraph(t,
		testRecord("/A", "X"),
		testRecord("/A", "X", "P1"),
		testRecord("/A", "Y"),
	)

	tree := AssembleHierarchy(g)
	require.NotNil(t, tree)

	assert.False(t, tree.HasVirtualRoot())
	assert.Equal(t, "A", tree.Root.Node.Name)
	assert.Equal(t, g.NodeCount(), tree.Len())

	require.Len(t, tree.Root.Children, 2)
	assert.Equal(t, "X", tree.Root.Children[0].Node.Name, "children follow link order")
	assert.Equal(t, "Y", tree.Root.Children[1].Node.Name)
}

func TestAssembleHierarchy_VirtualRoot(t *testing.T) {
	g := buildGraph(t,
		testRecord("/A", "X"),
		testRecord("/B", "Y"),
	)

	tree := AssembleHierarchy(g)
	require.NotNil(t, tree)

	require.True(t, tree.HasVirtualRoot())
	root := tree.Root
	assert.Equal(t, VirtualRootID, root.ID())
	assert.Equal(t, -1, root.Node.Depth)
	assert.Empty(t, root.Node.Blocks)
	assert.Equal(t, VirtualRootName, root.Node.Name)

	require.Len(t, root.Children, 2)
	a, b := root.Children[0], root.Children[1]
	assert.Equal(t, "A", a.Node.Name)
	assert.Equal(t, "B", b.Node.Name)
	assert.Equal(t, 0, a.Node.Depth, "depth stays 0 under the virtual root")
	assert.Same(t, root, a.Parent)
	assert.Same(t, root, b.Parent)

	assert.Equal(t, g.NodeCount()+1, tree.Len())
	found, ok := tree.Find(VirtualRootID)
	require.True(t, ok)
	assert.Same(t, root, found)
}

func TestAssembleHierarchy_Totality(t *testing.T) {
	g := buildGraph(t,
		testRecord("/A/B", "X", "P1", "P2"),
		testRecord("/A/B", "X", "P3"),
		testRecord("/C", "Y"),
		testRecord("", "Z"),
		testRecord("/A", "W"),
	)

	tree := AssembleHierarchy(g)
	require.NotNil(t, tree)

	seen := make(map[int]int)
	tree.Walk(func(n *TreeNode) bool {
		seen[n.ID()]++
		return true
	})

	for _, n := range g.Nodes {
		assert.Equal(t, 1, seen[n.ID], "node %q visited %d times", n.Path, seen[n.ID])
	}
	extra := len(seen) - g.NodeCount()
	assert.LessOrEqual(t, extra, 1)
	assert.Equal(t, len(seen), tree.Len())
	assert.Len(t, tree.Links(), tree.Len()-1)
}

func TestAssembleHierarchy_OrphanAttachedToVirtualRoot(t *testing.T) {
	g := NewGraph()
	a, _ := g.nodeFor("A", "A", 0, NodeTypeScope)
	x, _ := g.nodeFor("A → X", "X", 1, NodeTypeBlock)
	orphan, _ := g.nodeFor("B → Y", "Y", 1, NodeTypeBlock)
	g.addLink(a.ID, x.ID)

	tree := AssembleHierarchy(g)
	require.NotNil(t, tree)

	require.True(t, tree.HasVirtualRoot())
	require.Len(t, tree.Root.Children, 2)
	assert.Equal(t, a.ID, tree.Root.Children[0].ID())
	assert.Equal(t, orphan.ID, tree.Root.Children[1].ID())
}

func TestAssembleHierarchy_CycleSafe(t *testing.T) {
	g := NewGraph()
	a, _ := g.nodeFor("A", "A", 0, NodeTypeScope)
	b, _ := g.nodeFor("A → B", "B", 1, NodeTypeBlock)
	c, _ := g.nodeFor("A → B → C", "C", 2, NodeTypePart)
	g.addLink(a.ID, b.ID)
	g.addLink(b.ID, c.ID)
	g.addLink(c.ID, b.ID)
	g.addLink(c.ID, a.ID)

	tree := AssembleHierarchy(g)
	require.NotNil(t, tree)
	assert.Equal(t, 3, tree.Len())
	assert.Len(t, tree.Links(), 2)
}

func TestTreeNode_AncestorsAndDescendants(t *testing.T) {
	g := buildGraph(t,
		testRecord("/A", "X", "P1", "P2"),
		testRecord("/B", "Y"),
	)
	tree := AssembleHierarchy(g)
	require.NotNil(t, tree)

	p1 := mustNode(t, g, "A", "X", "P1")
	tp1, ok := tree.Find(p1.ID)
	require.True(t, ok)

	names := func(nodes []*TreeNode) []string {
		out := make([]string, len(nodes))
		for i, n := range nodes {
			out[i] = n.Node.Name
		}
		return out
	}

	assert.Equal(t, []string{"X", "A", VirtualRootName}, names(tp1.Ancestors()))
	assert.Equal(t, []string{"P2"}, names(tp1.Descendants()))

	x := mustNode(t, g, "A", "X")
	tx, ok := tree.Find(x.ID)
	require.True(t, ok)
	assert.Equal(t, []string{"P1", "P2"}, names(tx.Descendants()))
	assert.Empty(t, tree.Root.Ancestors())
}

func TestTree_WalkStops(t *testing.T) {
	g := buildGraph(t, testRecord("/A", "X", "P1"))
	tree := AssembleHierarchy(g)
	require.NotNil(t, tree)

	visited := 0
	tree.Walk(func(n *TreeNode) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, 2, visited)
}

func TestTree_JSONShape(t *testing.T) {
	g := buildGraph(t, testRecord("/A", "X"))
	tree := AssembleHierarchy(g)
	require.NotNil(t, tree)

	data, err := json.Marshal(tree.Root)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "data")
	assert.Contains(t, decoded, "children")
	assert.NotContains(t, decoded, "Parent")

	nodeData := decoded["data"].(map[string]any)
	assert.Equal(t, "scope", nodeData["type"])
}
