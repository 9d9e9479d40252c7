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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexScopes(t *testing.T) {
	scopes := []ScopeDefinition{
		{
			Path: "/RGB", Name: "RGB", Description: "root",
			Children: []ScopeDefinition{
				{Path: "/RGB/API", Name: "API", Description: "backend", FilesCount: 4, CodeLines: 90},
				{Path: "/RGB/UI/", Name: "UI"},
			},
		},
	}

	idx := IndexScopes(scopes)

	assert.Len(t, idx, 3)
	assert.True(t, idx.Has("/RGB"))
	assert.True(t, idx.Has("RGB/API"))
	assert.True(t, idx.Has("/RGB/UI"))
	assert.False(t, idx.Has("/RGB/Missing"))
	assert.Equal(t, "backend", idx.Description("/RGB/API"))
	assert.Equal(t, "", idx.Description("/Nope"))

	api, ok := idx.Lookup("RGB/API/")
	assert.True(t, ok)
	assert.Equal(t, 4, api.FilesCount)
	assert.Equal(t, 90, api.CodeLines)
}

func TestScopeIndex_Nil(t *testing.T) {
	var idx ScopeIndex
	assert.False(t, idx.Has("/A"))
	assert.Equal(t, "", idx.Description("/A"))
	_, ok := idx.Lookup("/A")
	assert.False(t, ok)

	assert.NotNil(t, IndexScopes(nil))
}

func TestCanonicalScope(t *testing.T) {
	assert.Equal(t, "/A/B", CanonicalScope("A/B/"))
	assert.Equal(t, "", CanonicalScope("/"))
}
