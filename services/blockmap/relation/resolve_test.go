// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package relation

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/blockmap/services/blockmap/definition"
	"github.com/AleutianAI/blockmap/services/blockmap/graph"
)

func build(t *testing.T, raws ...map[string]any) *graph.Graph {
	t.Helper()
	records := make([]definition.BlockDefinition, len(raws))
	for i, raw := range raws {
		records[i] = definition.Normalize(raw)
	}
	builder := graph.NewBuilder(graph.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	result := builder.Build(context.Background(), records, graph.BuildContext{})
	require.False(t, result.HasErrors())
	return result.Graph
}

func node(t *testing.T, g *graph.Graph, segments ...string) *graph.Node {
	t.Helper()
	n, ok := g.NodeBySegments(segments...)
	require.True(t, ok, "node %v not found", segments)
	return n
}

func paths(nodes []*graph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Path
	}
	return out
}

func TestResolve_Based(t *testing.T) {
	g := build(t,
		map[string]any{"scope": "/A", "blockName": "X", "based": "Y"},
		map[string]any{"scope": "/A", "blockName": "X", "blockPart": "P1"},
		map[string]any{"scope": "/B", "blockName": "Y"},
	)

	rel := Resolve(node(t, g, "A", "X"), g.Nodes)

	assert.Equal(t, []string{"B → Y"}, paths(rel.Based))
	assert.Empty(t, rel.Extend)
	assert.Empty(t, rel.Other)
}

func TestResolve_SameNameDifferentScopes(t *testing.T) {
	g := build(t,
		map[string]any{"scope": "/A", "blockName": "Y"},
		map[string]any{"scope": "/B", "blockName": "Y"},
		map[string]any{"scope": "/C", "blockName": "Z", "based": "Y"},
	)

	rel := Resolve(node(t, g, "C", "Z"), g.Nodes)

	assert.Equal(t, []string{"A → Y", "B → Y"}, paths(rel.Based))
}

func TestResolve_MultiTokenAndDedup(t *testing.T) {
	g := build(t,
		map[string]any{"scope": "/S", "blockName": "Sel", "based": "Y, W", "extend": []any{"W", "W,Y"}},
		map[string]any{"scope": "/S", "blockName": "Sel", "based": "Y"},
		map[string]any{"scope": "/B", "blockName": "Y"},
		map[string]any{"scope": "/B", "blockName": "W"},
	)

	rel := Resolve(node(t, g, "S", "Sel"), g.Nodes)

	assert.Equal(t, []string{"B → Y", "B → W"}, paths(rel.Based))
	assert.Equal(t, []string{"B → W", "B → Y"}, paths(rel.Extend))
	assert.Len(t, rel.All(), 2)
}

func TestResolve_UnsplitLegacyTokens(t *testing.T) {
	g := build(t,
		map[string]any{"scope": "/B", "blockName": "Y"},
		map[string]any{"scope": "/B", "blockName": "W"},
	)
	sel := &graph.Node{
		ID:   99,
		Name: "Legacy",
		Type: graph.NodeTypeBlock,
		Blocks: []definition.BlockDefinition{
			{BlockName: "Legacy", Extend: []string{"Y,W"}},
		},
	}

	rel := Resolve(sel, g.Nodes)

	assert.Equal(t, []string{"B → Y", "B → W"}, paths(rel.Extend))
}

func TestResolve_CaseSensitiveAndMissing(t *testing.T) {
	g := build(t,
		map[string]any{"scope": "/A", "blockName": "X", "based": "y, Ghost"},
		map[string]any{"scope": "/B", "blockName": "Y"},
	)

	rel := Resolve(node(t, g, "A", "X"), g.Nodes)

	assert.Empty(t, rel.Based)
	assert.True(t, rel.Empty())
}

func TestResolve_Other(t *testing.T) {
	g := build(t,
		map[string]any{"scope": "/A", "blockName": "X"},
		map[string]any{"scope": "/B", "blockName": "X"},
		map[string]any{"scope": "/C", "blockName": "Q", "blockPart": "X"},
		map[string]any{"scope": "/X", "blockName": "R"},
	)

	rel := Resolve(node(t, g, "A", "X"), g.Nodes)

	// Only Block nodes count; the Part "X" and the Scope "X" do not.
	assert.Equal(t, []string{"B → X"}, paths(rel.Other))
}

func TestResolve_PartsNotMatchedByOwnerName(t *testing.T) {
	g := build(t,
		map[string]any{"scope": "/A", "blockName": "X", "blockPart": "P1"},
		map[string]any{"scope": "/A", "blockName": "X"},
		map[string]any{"scope": "/B", "blockName": "Sel", "based": "X"},
	)

	rel := Resolve(node(t, g, "B", "Sel"), g.Nodes)

	assert.Equal(t, []string{"A → X"}, paths(rel.Based))
}

func TestResolve_Nil(t *testing.T) {
	rel := Resolve(nil, nil)
	assert.NotNil(t, rel.Based)
	assert.NotNil(t, rel.Extend)
	assert.NotNil(t, rel.Other)
	assert.True(t, rel.Empty())
}

func TestRelations_Get(t *testing.T) {
	n := &graph.Node{ID: 1}
	rel := Relations{Based: []*graph.Node{n}}
	assert.Len(t, rel.Get(KindBased), 1)
	assert.Empty(t, rel.Get(KindExtend))
	assert.Nil(t, rel.Get(Kind("bogus")))
}
