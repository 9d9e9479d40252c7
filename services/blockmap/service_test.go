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
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/blockmap/services/blockmap/graph"
	"github.com/AleutianAI/blockmap/services/blockmap/highlight"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testProjectDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".scopes-catalog.yml"), "A:\n  description: scope A\nB: {}\n")
	writeFile(t, filepath.Join(root, ".block-catalog.yml"), "B: glossary B\n")
	writeFile(t, filepath.Join(root, "a/x/.block-definition.yml"), "scope: /A\nblockName: X\nbased: Y\ndescription: the X block\n")
	writeFile(t, filepath.Join(root, "a/x/p1/.block-definition.yml"), "scope: /A\nblockName: X\nblockPart: P1\n")
	writeFile(t, filepath.Join(root, "b/y/.block-definition.yml"), "scope: /B\nblockName: Y\naspects: [storage, core]\n")
	writeFile(t, filepath.Join(root, "z/.block-definition.yml"), "scope: /Nowhere\nblockName: Z\n")
	return root
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestService_Refresh(t *testing.T) {
	svc := New(testProjectDir(t), quiet())

	_, err := svc.Current()
	assert.ErrorIs(t, err, ErrNoSnapshot)

	snap, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	current, err := svc.Current()
	require.NoError(t, err)
	assert.Same(t, snap, current)

	g := snap.Graph()
	assert.Equal(t, 5, g.NodeCount(), "A, A→X, A→X→P1, B, B→Y")
	require.Len(t, snap.Result.RecordErrors, 1)
	assert.ErrorIs(t, snap.Result.RecordErrors[0], graph.ErrUnresolvedScope)
	assert.Len(t, snap.Warnings(), 1)

	a, err := snap.Select("A")
	require.NoError(t, err)
	assert.Equal(t, "scope A", a.Description)

	b, err := snap.Select("B")
	require.NoError(t, err)
	require.Len(t, b.Blocks, 1)
	assert.True(t, b.Blocks[0].FromCatalog)

	require.NotNil(t, snap.Tree)
	assert.True(t, snap.Tree.HasVirtualRoot())
}

func TestService_HideParts(t *testing.T) {
	svc := New(testProjectDir(t), quiet(), WithHideParts(true))

	snap, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, snap.Graph().NodeCount())
	_, err = snap.Select("A/X/P1")
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)
}

func TestSnapshot_SelectAndHighlight(t *testing.T) {
	snap, err := New(testProjectDir(t), quiet()).Refresh(context.Background())
	require.NoError(t, err)

	byArrow, err := snap.Select("A → X")
	require.NoError(t, err)
	bySlash, err := snap.Select("/A/X/")
	require.NoError(t, err)
	byID, err := snap.Select("1")
	require.NoError(t, err)
	assert.Same(t, byArrow, bySlash)
	assert.Same(t, byArrow, byID)

	_, err = snap.Select("99")
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)
	_, err = snap.Select("")
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)

	sel := snap.Highlight(byArrow)
	require.Len(t, sel.Relations.Based, 1)
	assert.Equal(t, "B → Y", sel.Relations.Based[0].Path)
	assert.True(t, sel.Emphasis.Active)
	p1, err := snap.Select("A/X/P1")
	require.NoError(t, err)
	assert.True(t, sel.Emphasis.NodeEmphasized(p1.ID))
	assert.Equal(t, highlight.RoleBased, sel.Emphasis.Role(sel.Relations.Based[0].ID))

	payload := snap.Payload(sel)
	require.NotNil(t, payload.Selected)
	assert.Equal(t, byArrow.ID, *payload.Selected)
}

func TestSnapshot_Search(t *testing.T) {
	snap, err := New(testProjectDir(t), quiet()).Refresh(context.Background())
	require.NoError(t, err)

	paths := func(nodes []*graph.Node) []string {
		out := make([]string, len(nodes))
		for i, n := range nodes {
			out[i] = n.Path
		}
		return out
	}

	assert.Equal(t, []string{"A → X"}, paths(snap.Search("THE x")))
	assert.Equal(t, []string{"B → Y"}, paths(snap.Search("storage")))
	assert.Equal(t, []string{"B"}, paths(snap.Search("glossary")))
	assert.Empty(t, snap.Search("  "))
}

func TestService_ProjectFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.json")
	writeFile(t, path, `{"blocks": [{"scope": "/A", "blockName": "X"}, {"scope": "/B", "blockName": "Y", "ignore": true}]}`)

	snap, err := New(path, quiet()).Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Graph().NodeCount())
	assert.Equal(t, 1, snap.Result.Stats.RecordsIgnored)
}

func TestService_EmptyProject(t *testing.T) {
	snap, err := New(t.TempDir(), quiet()).Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Empty())
	assert.Nil(t, snap.Payload(nil).Tree)
}

func TestService_MissingProject(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), quiet()).Refresh(context.Background())
	assert.Error(t, err)
}
