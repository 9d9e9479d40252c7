// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package definition

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Defaults(t *testing.T) {
	def := Normalize(map[string]any{})

	assert.Equal(t, UnknownBlockName, def.BlockName)
	assert.Equal(t, "", def.Description)
	assert.Equal(t, "", def.Aspects)
	assert.False(t, def.Ignore)
	assert.NotNil(t, def.BlockPart)
	assert.NotNil(t, def.Based)
	assert.NotNil(t, def.Extend)
	assert.NotNil(t, def.Parents)
	assert.Empty(t, def.Scope)
}

func TestNormalize_NilRecord(t *testing.T) {
	def := Normalize(nil)
	assert.Equal(t, UnknownBlockName, def.BlockName)
}

func TestNormalize_SplitsDelimitedFields(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want BlockDefinition
	}{
		{
			name: "string based and extend",
			raw: map[string]any{
				"blockName": "X",
				"based":     " Y, ,Z ",
				"extend":    "W",
			},
			want: BlockDefinition{BlockName: "X", Based: []string{"Y", "Z"}, Extend: []string{"W"}},
		},
		{
			name: "string blockPart split on slash",
			raw: map[string]any{
				"blockName": "X",
				"blockPart": "/P1//P2 /",
			},
			want: BlockDefinition{BlockName: "X", BlockPart: []string{"P1", "P2"}},
		},
		{
			name: "list blockPart cleaned",
			raw: map[string]any{
				"blockName": "X",
				"blockPart": []any{"P1", " ", nil, "P2"},
			},
			want: BlockDefinition{BlockName: "X", BlockPart: []string{"P1", "P2"}},
		},
		{
			name: "blank block name",
			raw:  map[string]any{"blockName": "   "},
			want: BlockDefinition{BlockName: UnknownBlockName},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			assert.Equal(t, tt.want.BlockName, got.BlockName)
			if tt.want.BlockPart != nil {
				assert.Equal(t, tt.want.BlockPart, got.BlockPart)
			}
			if tt.want.Based != nil {
				assert.Equal(t, tt.want.Based, got.Based)
			}
			if tt.want.Extend != nil {
				assert.Equal(t, tt.want.Extend, got.Extend)
			}
		})
	}
}

func TestNormalize_ScalarCoercion(t *testing.T) {
	def := Normalize(map[string]any{
		"blockName":  42,
		"ignore":     "yes",
		"aspects":    []any{"core", "system"},
		"filesCount": 3.0,
		"codeLines":  "120",
	})

	assert.Equal(t, "42", def.BlockName)
	assert.True(t, def.Ignore)
	assert.Equal(t, "core, system", def.Aspects)
	assert.Equal(t, 3, def.FilesCount)
	assert.Equal(t, 120, def.CodeLines)
}

func TestNormalize_LegacyParents(t *testing.T) {
	t.Run("parents become scope", func(t *testing.T) {
		def := Normalize(map[string]any{
			"parents":   "RGB, API",
			"blockName": "Database",
		})
		assert.Equal(t, []string{"RGB", "API"}, def.Parents)
		assert.Equal(t, "/RGB/API", def.Scope)
		assert.Equal(t, []string{"RGB", "API", "Database"}, def.FullPath(false))
	})

	t.Run("explicit scope wins", func(t *testing.T) {
		def := Normalize(map[string]any{
			"scope":     "/Core",
			"parents":   []any{"RGB"},
			"blockName": "Database",
		})
		assert.Equal(t, "/Core", def.Scope)
	})
}

func TestNormalizeValue(t *testing.T) {
	t.Run("mapping", func(t *testing.T) {
		def, err := NormalizeValue(map[string]any{"blockName": "X"})
		require.NoError(t, err)
		assert.Equal(t, "X", def.BlockName)
	})

	t.Run("any-keyed mapping", func(t *testing.T) {
		def, err := NormalizeValue(map[any]any{"blockName": "X"})
		require.NoError(t, err)
		assert.Equal(t, "X", def.BlockName)
	})

	t.Run("list is malformed", func(t *testing.T) {
		_, err := NormalizeValue([]any{"a"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedRecord))
		assert.True(t, errors.Is(err, ErrNotMapping))
	})

	t.Run("empty document is malformed", func(t *testing.T) {
		_, err := NormalizeValue(nil)
		assert.ErrorIs(t, err, ErrMalformedRecord)
	})
}

func TestFullPath(t *testing.T) {
	def := BlockDefinition{Scope: "/A/B", BlockName: "X", BlockPart: []string{"P1", "P2"}}

	assert.Equal(t, []string{"A", "B", "X", "P1", "P2"}, def.FullPath(false))
	assert.Equal(t, []string{"A", "B", "X"}, def.FullPath(true))
	assert.Equal(t, "A → B → X", JoinPath(def.FullPath(true)))
}

func TestScopeRoundTrip(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, SplitScope(" /A// B/"))
	assert.Equal(t, "/A/B", JoinScope([]string{"A", "B"}))
	assert.Equal(t, "", JoinScope(nil))
	assert.Empty(t, SplitScope(""))
}

func TestValidate(t *testing.T) {
	t.Run("valid record", func(t *testing.T) {
		def := Normalize(map[string]any{"scope": "/A", "blockName": "X", "blockPart": "P1"})
		assert.NoError(t, Validate(def))
	})

	t.Run("separator in block name", func(t *testing.T) {
		def := Normalize(map[string]any{"scope": "/A", "blockName": "X → Y"})
		err := Validate(def)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedRecord)
		assert.Contains(t, err.Error(), "BlockName")
	})

	t.Run("separator in part", func(t *testing.T) {
		def := BlockDefinition{BlockName: "X", BlockPart: []string{"a→b"}}
		assert.ErrorIs(t, Validate(def), ErrMalformedRecord)
	})

	t.Run("empty part constructed directly", func(t *testing.T) {
		def := BlockDefinition{BlockName: "X", BlockPart: []string{""}}
		assert.ErrorIs(t, Validate(def), ErrMalformedRecord)
	})
}

func TestCatalogLookup(t *testing.T) {
	var nilCatalog Catalog
	_, ok := nilCatalog.Lookup("X")
	assert.False(t, ok)

	c := Catalog{"X": {Description: "glossary X"}}
	entry, ok := c.Lookup("X")
	require.True(t, ok)
	assert.Equal(t, "glossary X", entry.Description)
}

func TestSplitTokens(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, SplitTokens("A, B,,"))
	assert.Empty(t, SplitTokens(""))
}
