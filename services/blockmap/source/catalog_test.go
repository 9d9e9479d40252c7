// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/blockmap/services/blockmap/definition"
)

func TestParseScopesCatalog(t *testing.T) {
	scopes, err := ParseScopesCatalog([]byte(`
/Core:
  description: Core platform
  ignore: false
  blockName: NotAChild
  /Storage:
    description: Persistence
    Blobs:
  Queue: plain
Edge: {}
`))
	require.NoError(t, err)

	require.Len(t, scopes, 2)
	core := scopes[0]
	assert.Equal(t, "/Core", core.Path)
	assert.Equal(t, "Core", core.Name)
	assert.Equal(t, "Core platform", core.Description)

	require.Len(t, core.Children, 2, "reserved keys are not children")
	storage := core.Children[0]
	assert.Equal(t, "/Core/Storage", storage.Path)
	assert.Equal(t, "Persistence", storage.Description)
	require.Len(t, storage.Children, 1)
	assert.Equal(t, "/Core/Storage/Blobs", storage.Children[0].Path)
	assert.Equal(t, "/Core/Queue", core.Children[1].Path)
	assert.Empty(t, core.Children[1].Description)

	assert.Equal(t, "/Edge", scopes[1].Path)

	idx := definition.IndexScopes(scopes)
	assert.Len(t, idx, 5)
}

func TestParseScopesCatalog_Empty(t *testing.T) {
	scopes, err := ParseScopesCatalog(nil)
	require.NoError(t, err)
	assert.Empty(t, scopes)

	_, err = ParseScopesCatalog([]byte("a: [\n"))
	assert.Error(t, err)
}

func TestParseBlockCatalog(t *testing.T) {
	catalog, err := ParseBlockCatalog([]byte(`
Gateway:
  description: Entry point
Empty:
Listy: [1, 2]
`))
	require.NoError(t, err)

	gw, ok := catalog.Lookup("Gateway")
	require.True(t, ok)
	assert.Equal(t, "Entry point", gw.Description)

	empty, ok := catalog.Lookup("Empty")
	require.True(t, ok)
	assert.Empty(t, empty.Description)

	_, ok = catalog.Lookup("Listy")
	assert.False(t, ok)
}

func TestLoadProjectFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		p := filepath.Join(dir, "project.json")
		require.NoError(t, os.WriteFile(p, []byte(`{
  "scopes": [{"path": "/A", "name": "A", "description": "scope A", "filesCount": 7, "codeLines": 120, "children": []}],
  "blocks": [
    {"scope": "/A", "blockName": "X", "based": "Y, Z", "filesCount": 2},
    "not a block"
  ],
  "catalog": {"Y": {"description": "glossary Y"}}
}`), 0o644))

		data, err := LoadProjectFile(p)
		require.NoError(t, err)

		require.Len(t, data.Blocks, 1)
		assert.Equal(t, []string{"Y", "Z"}, data.Blocks[0].Based)
		assert.Equal(t, 2, data.Blocks[0].FilesCount)
		assert.True(t, data.ScopeIndex().Has("/A"))
		scopeA, ok := data.ScopeIndex().Lookup("/A")
		require.True(t, ok)
		assert.Equal(t, 7, scopeA.FilesCount)
		assert.Equal(t, 120, scopeA.CodeLines)
		assert.Equal(t, "glossary Y", data.Catalog["Y"].Description)

		require.Len(t, data.FileErrors, 1)
		assert.Contains(t, data.FileErrors[0].FilePath, "#blocks[1]")
		assert.ErrorIs(t, data.FileErrors[0], definition.ErrNotMapping)
	})

	t.Run("yaml", func(t *testing.T) {
		p := filepath.Join(dir, "project.yaml")
		require.NoError(t, os.WriteFile(p, []byte(`
blocks:
  - parents: [A, B]
    blockName: X
    blockPart: P1/P2
`), 0o644))

		data, err := LoadProjectFile(p)
		require.NoError(t, err)
		require.Len(t, data.Blocks, 1)
		assert.Equal(t, "/A/B", data.Blocks[0].Scope)
		assert.Equal(t, []string{"P1", "P2"}, data.Blocks[0].BlockPart)
		assert.Nil(t, data.ScopeIndex())
	})

	t.Run("unsupported", func(t *testing.T) {
		p := filepath.Join(dir, "project.toml")
		require.NoError(t, os.WriteFile(p, []byte(""), 0o644))
		_, err := LoadProjectFile(p)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := LoadProjectFile(filepath.Join(dir, "nope.json"))
		assert.Error(t, err)
	})
}
