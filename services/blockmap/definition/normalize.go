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
	"fmt"
	"strconv"
	"strings"
)

// Raw record keys.
const (
	keyFilePath    = "filePath"
	keyDirectory   = "directory"
	keyScope       = "scope"
	keyParents     = "parents"
	keyBlockName   = "blockName"
	keyBlockPart   = "blockPart"
	keyDescription = "description"
	keyAspects     = "aspects"
	keyBased       = "based"
	keyExtend      = "extend"
	keyIgnore      = "ignore"
	keyFilesCount  = "filesCount"
	keyCodeLines   = "codeLines"
)

// ReservedKeys are the record keys understood by Normalize. The scopes
// catalog uses the same list to tell scope children from scope attributes.
var ReservedKeys = []string{
	keyDescription, keyIgnore, keyBlockName, keyBlockPart, keyAspects,
	keyParents, keyScope, keyExtend, keyBased,
}

// Normalize converts a decoded record into a BlockDefinition.
//
// # Description
//
// Applies the defaulting and splitting rules for raw records:
//   - missing or blank blockName becomes "Unknown"
//   - string parents/based/extend are split on ",", trimmed, empties dropped
//   - string blockPart is split on "/", trimmed, empties dropped
//   - list-typed fields are stringified, trimmed, empties dropped
//   - missing description/aspects become ""; a list of aspects is joined
//   - ignore defaults to false
//   - a legacy parents list is converted into scope (see FromParents)
//
// Scalars of an unexpected type are stringified rather than rejected.
// Missing optional fields never produce an error.
//
// # Inputs
//
//   - raw: Decoded record. May be nil (yields an all-default record).
//
// # Outputs
//
//   - BlockDefinition: Normalized record with non-nil slices.
func Normalize(raw map[string]any) BlockDefinition {
	def := BlockDefinition{
		FilePath:    stringField(raw, keyFilePath),
		Directory:   stringField(raw, keyDirectory),
		Scope:       strings.TrimSpace(stringField(raw, keyScope)),
		Parents:     listField(raw, keyParents, ListDelimiter),
		BlockName:   strings.TrimSpace(stringField(raw, keyBlockName)),
		BlockPart:   listField(raw, keyBlockPart, PartDelimiter),
		Description: stringField(raw, keyDescription),
		Aspects:     aspectsField(raw),
		Based:       listField(raw, keyBased, ListDelimiter),
		Extend:      listField(raw, keyExtend, ListDelimiter),
		Ignore:      boolField(raw, keyIgnore),
		FilesCount:  intField(raw, keyFilesCount),
		CodeLines:   intField(raw, keyCodeLines),
	}
	if def.BlockName == "" {
		def.BlockName = UnknownBlockName
	}
	return FromParents(def)
}

// NormalizeValue normalizes an arbitrary decoded value.
//
// Returns ErrNotMapping (wrapped in ErrMalformedRecord) when v is not a
// key/value mapping, e.g. a YAML document that is a bare list or scalar.
func NormalizeValue(v any) (BlockDefinition, error) {
	switch m := v.(type) {
	case map[string]any:
		return Normalize(m), nil
	case map[any]any:
		converted := make(map[string]any, len(m))
		for k, val := range m {
			converted[fmt.Sprint(k)] = val
		}
		return Normalize(converted), nil
	case nil:
		return BlockDefinition{}, fmt.Errorf("%w: %w: empty document", ErrMalformedRecord, ErrNotMapping)
	default:
		return BlockDefinition{}, fmt.Errorf("%w: %w: got %T", ErrMalformedRecord, ErrNotMapping, v)
	}
}

// FromParents adapts a legacy parents-schema record to the scope schema.
//
// A record that has parents but no scope gets scope "/p1/p2/...". Records
// that already carry a scope are returned unchanged.
func FromParents(def BlockDefinition) BlockDefinition {
	if def.Scope == "" && len(def.Parents) > 0 {
		def.Scope = JoinScope(def.Parents)
	}
	return def
}

// SplitTokens splits a delimiter-separated list, trimming tokens and dropping
// empty ones. Used to re-split references that arrive unsplit.
func SplitTokens(s string) []string {
	return splitTokens(s, ListDelimiter)
}

func splitTokens(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func stringField(raw map[string]any, key string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// listField reads a field that may be a delimited string or a list.
func listField(raw map[string]any, key, sep string) []string {
	switch v := raw[key].(type) {
	case nil:
		return []string{}
	case string:
		return splitTokens(v, sep)
	case []string:
		return cleanList(v)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			items = append(items, fmt.Sprint(item))
		}
		return cleanList(items)
	default:
		return splitTokens(fmt.Sprint(v), sep)
	}
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func aspectsField(raw map[string]any) string {
	switch raw[keyAspects].(type) {
	case []any, []string:
		return strings.Join(listField(raw, keyAspects, ListDelimiter), ", ")
	case nil:
		return ""
	default:
		return stringField(raw, keyAspects)
	}
}

func boolField(raw map[string]any, key string) bool {
	switch v := raw[key].(type) {
	case bool:
		return v
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if s == "yes" {
			return true
		}
		b, err := strconv.ParseBool(s)
		return err == nil && b
	default:
		return false
	}
}

func intField(raw map[string]any, key string) int {
	switch v := raw[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
