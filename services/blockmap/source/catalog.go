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
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/blockmap/services/blockmap/definition"
)

// ParseScopesCatalog decodes a scopes catalog.
//
// # Description
//
// The catalog is a nested mapping. Every key that is not a record attribute
// (see definition.ReservedKeys) is a child scope; a leading "/" on a key is
// dropped. Key order is preserved.
//
//	/RGB:
//	  description: Product
//	  API:
//	    description: Backend
//
// yields /RGB (Product) with child /RGB/API (Backend).
//
// # Outputs
//
//   - []definition.ScopeDefinition: Top-level scopes. Empty for an empty file.
//   - error: Non-nil when the data is not YAML or the root is not a mapping.
func ParseScopesCatalog(data []byte) ([]definition.ScopeDefinition, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse scopes catalog: %w", err)
	}
	if len(doc.Content) == 0 {
		return []definition.ScopeDefinition{}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse scopes catalog: %w", definition.ErrNotMapping)
	}
	return parseScopeLevel(root, ""), nil
}

// parseScopeLevel reads the child scopes of one mapping node.
func parseScopeLevel(node *yaml.Node, parent string) []definition.ScopeDefinition {
	scopes := make([]definition.ScopeDefinition, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := strings.TrimPrefix(strings.TrimSpace(node.Content[i].Value), "/")
		if key == "" || slices.Contains(definition.ReservedKeys, key) {
			continue
		}
		value := node.Content[i+1]

		scope := definition.ScopeDefinition{
			Path:     parent + definition.ScopeDelimiter + key,
			Name:     key,
			Children: []definition.ScopeDefinition{},
		}
		if value.Kind == yaml.MappingNode {
			scope.Description = mappingString(value, "description")
			scope.Children = parseScopeLevel(value, scope.Path)
		}
		scopes = append(scopes, scope)
	}
	return scopes
}

// mappingString returns the scalar value of key in a mapping node.
func mappingString(node *yaml.Node, key string) string {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key && node.Content[i+1].Kind == yaml.ScalarNode {
			return node.Content[i+1].Value
		}
	}
	return ""
}

// ParseBlockCatalog decodes a name-keyed block glossary.
//
// An entry may be a mapping (description, fullName, anything else kept in
// Extra) or a bare string, which is taken as the description.
func ParseBlockCatalog(data []byte) (definition.Catalog, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse block catalog: %w", err)
	}

	catalog := make(definition.Catalog, len(raw))
	for name, node := range raw {
		var entry definition.CatalogEntry
		switch node.Kind {
		case yaml.ScalarNode:
			if node.ShortTag() != "!!null" {
				entry.Description = node.Value
			}
		case yaml.MappingNode:
			if err := node.Decode(&entry); err != nil {
				return nil, fmt.Errorf("parse block catalog entry %q: %w", name, err)
			}
		default:
			continue
		}
		catalog[name] = entry
	}
	return catalog, nil
}
