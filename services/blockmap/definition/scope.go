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

// ScopeDefinition is one entry of the scopes catalog.
type ScopeDefinition struct {
	// Path is the canonical scope path, e.g. "/RGB/API".
	Path string `json:"path" yaml:"path"`

	// Name is the last segment of Path.
	Name string `json:"name" yaml:"name"`

	Description string `json:"description" yaml:"description"`

	// FilesCount and CodeLines describe the scope's own directory. They are
	// set only when that directory holds a definition file without a
	// blockName.
	FilesCount int `json:"filesCount,omitempty" yaml:"filesCount,omitempty"`
	CodeLines  int `json:"codeLines,omitempty" yaml:"codeLines,omitempty"`

	Children []ScopeDefinition `json:"children" yaml:"children"`
}

// ScopeIndex is a flat lookup of known scope paths.
//
// A nil ScopeIndex means "no scopes catalog": callers derive scopes from the
// records themselves instead of resolving against the index.
type ScopeIndex map[string]ScopeDefinition

// IndexScopes flattens a scope tree into a ScopeIndex.
//
// Paths are canonicalized, so "/A/B/" and "A/B" index the same entry. The
// result is non-nil even for an empty input.
func IndexScopes(scopes []ScopeDefinition) ScopeIndex {
	idx := make(ScopeIndex)
	stack := make([]ScopeDefinition, 0, len(scopes))
	for i := len(scopes) - 1; i >= 0; i-- {
		stack = append(stack, scopes[i])
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		key := CanonicalScope(s.Path)
		if _, seen := idx[key]; !seen {
			idx[key] = s
		}
		for i := len(s.Children) - 1; i >= 0; i-- {
			stack = append(stack, s.Children[i])
		}
	}
	return idx
}

// Has reports whether scope is a known scope path.
func (idx ScopeIndex) Has(scope string) bool {
	if idx == nil {
		return false
	}
	_, ok := idx[CanonicalScope(scope)]
	return ok
}

// Lookup returns the catalog entry of scope.
func (idx ScopeIndex) Lookup(scope string) (ScopeDefinition, bool) {
	if idx == nil {
		return ScopeDefinition{}, false
	}
	s, ok := idx[CanonicalScope(scope)]
	return s, ok
}

// Description returns the catalog description of scope, or "".
func (idx ScopeIndex) Description(scope string) string {
	s, _ := idx.Lookup(scope)
	return s.Description
}

// CanonicalScope rewrites a scope string to "/A/B" form.
func CanonicalScope(scope string) string {
	return JoinScope(SplitScope(scope))
}
