// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package definition provides the block definition record and its normalizer.
//
// A block definition is the metadata stored in a `.block-definition.yml` file
// next to a component of a codebase. It places the component in a hierarchy
// (scope segments, block name, optional part chain) and may reference other
// blocks by name through `based` and `extend`.
//
// # Schemas
//
// Two placement schemas exist in the wild:
//
//   - scope schema (canonical): `scope: /RGB/API` + `blockName` + `blockPart`
//   - parents schema (legacy):   `parents: RGB, API` + `blockName` + `blockPart`
//
// Normalize converts both into the scope schema. The rest of the system only
// ever sees scope-based records.
//
// # Thread Safety
//
// All functions in this package are pure and safe for concurrent use.
package definition

import "strings"

// Placement and delimiter constants.
const (
	// PathSeparator joins placement segments into a node path.
	PathSeparator = " → "

	// UnknownBlockName is used when a record carries no block name.
	UnknownBlockName = "Unknown"

	// ScopeDelimiter separates segments of a scope string ("/A/B").
	ScopeDelimiter = "/"

	// PartDelimiter separates segments of a string-typed blockPart ("P1/P2").
	PartDelimiter = "/"

	// ListDelimiter separates tokens of parents, based and extend.
	ListDelimiter = ","
)

// BlockDefinition is one normalized block definition record.
//
// Slices are never nil after Normalize. String fields default to "".
type BlockDefinition struct {
	// FilePath is the path of the source file, if the record came from disk.
	FilePath string `json:"filePath,omitempty" yaml:"filePath,omitempty"`

	// Directory is the directory that holds the source file.
	Directory string `json:"directory,omitempty" yaml:"directory,omitempty"`

	// Scope is the canonical placement, e.g. "/RGB/API". Empty places the
	// block at the top level.
	Scope string `json:"scope" yaml:"scope" validate:"excludes=→"`

	// Parents is the legacy placement list. Kept for reference only; Scope
	// already reflects it after normalization.
	Parents []string `json:"parents,omitempty" yaml:"parents,omitempty" validate:"dive,required,excludes=/,excludes=→"`

	// BlockName is the block segment of the placement path.
	BlockName string `json:"blockName" yaml:"blockName" validate:"required,excludes=→"`

	// BlockPart is the ordered chain of part segments below the block.
	BlockPart []string `json:"blockPart" yaml:"blockPart" validate:"dive,required,excludes=→"`

	Description string `json:"description" yaml:"description"`
	Aspects     string `json:"aspects" yaml:"aspects"`

	// Based lists names of blocks this block is based on.
	Based []string `json:"based" yaml:"based"`

	// Extend lists names of blocks this block extends.
	Extend []string `json:"extend" yaml:"extend"`

	// Ignore excludes the record from graph construction entirely.
	Ignore bool `json:"ignore" yaml:"ignore"`

	// FilesCount and CodeLines describe the record's directory.
	FilesCount int `json:"filesCount" yaml:"filesCount"`
	CodeLines  int `json:"codeLines" yaml:"codeLines"`

	// FromCatalog marks a synthetic entry created from the block catalog for
	// a node that no record declares directly.
	FromCatalog bool `json:"fromCatalog,omitempty" yaml:"-"`

	// CatalogData is the catalog entry behind a synthetic record.
	CatalogData *CatalogEntry `json:"catalogData,omitempty" yaml:"-"`
}

// ScopeSegments returns the non-empty, trimmed segments of Scope.
func (b BlockDefinition) ScopeSegments() []string {
	return SplitScope(b.Scope)
}

// FullPath returns the placement path of the record.
//
// The path is scope segments, then the block name, then the part chain unless
// hideParts is set.
func (b BlockDefinition) FullPath(hideParts bool) []string {
	scope := b.ScopeSegments()
	path := make([]string, 0, len(scope)+1+len(b.BlockPart))
	path = append(path, scope...)
	path = append(path, b.BlockName)
	if !hideParts {
		path = append(path, b.BlockPart...)
	}
	return path
}

// SplitScope splits a scope string such as "/A/B" into ["A", "B"].
func SplitScope(scope string) []string {
	return splitTokens(scope, ScopeDelimiter)
}

// JoinScope is the inverse of SplitScope. JoinScope(nil) returns "".
func JoinScope(segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	return ScopeDelimiter + strings.Join(segments, ScopeDelimiter)
}

// JoinPath joins placement segments into a node path.
func JoinPath(segments []string) string {
	return strings.Join(segments, PathSeparator)
}

// CatalogEntry is one glossary entry from the block catalog.
type CatalogEntry struct {
	Description string `json:"description" yaml:"description"`
	FullName    string `json:"fullName,omitempty" yaml:"fullName"`

	// Extra holds any other keys present in the catalog file.
	Extra map[string]any `json:"extra,omitempty" yaml:",inline"`
}

// Catalog is the name-keyed block glossary. A nil Catalog is empty.
type Catalog map[string]CatalogEntry

// Lookup returns the entry for name.
func (c Catalog) Lookup(name string) (CatalogEntry, bool) {
	if c == nil {
		return CatalogEntry{}, false
	}
	entry, ok := c[name]
	return entry, ok
}
