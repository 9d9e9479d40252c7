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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/blockmap/services/blockmap/definition"
)

// projectFile is the on-disk shape of an exported project.
type projectFile struct {
	Scopes  []definition.ScopeDefinition `json:"scopes" yaml:"scopes"`
	Blocks  []any                        `json:"blocks" yaml:"blocks"`
	Catalog definition.Catalog           `json:"catalog" yaml:"catalog"`
}

// LoadProjectFile reads a pre-materialized project: a JSON or YAML document
// with `scopes`, `blocks` and an optional `catalog`.
//
// # Description
//
// Blocks are raw records and go through definition.NormalizeValue, so a
// file may use either placement schema and string-typed lists. A block that
// is not a mapping becomes a FileError named "<path>#blocks[i]".
//
// # Outputs
//
//   - *ProjectData: Loaded data.
//   - error: Unreadable file, unknown extension or undecodable document.
func LoadProjectFile(path string) (*ProjectData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}

	var pf projectFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &pf)
	case ".yml", ".yaml":
		err = yaml.Unmarshal(raw, &pf)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("decode project file %s: %w", path, err)
	}

	data := &ProjectData{
		Scopes:     pf.Scopes,
		Blocks:     make([]definition.BlockDefinition, 0, len(pf.Blocks)),
		Catalog:    pf.Catalog,
		FileErrors: make([]FileError, 0),
		DirErrors:  make([]DirError, 0),
	}
	for i, item := range pf.Blocks {
		def, err := definition.NormalizeValue(item)
		if err != nil {
			data.FileErrors = append(data.FileErrors, FileError{
				FilePath: fmt.Sprintf("%s#blocks[%d]", path, i),
				Err:      err,
			})
			continue
		}
		data.Blocks = append(data.Blocks, def)
	}
	return data, nil
}
