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
	"bytes"
	"io/fs"
	"strings"
)

// DirStats are file statistics for one directory tree.
type DirStats struct {
	Files int
	Lines int
}

// extensionMatcher selects files counted by directory statistics.
type extensionMatcher struct {
	include []string
	exclude []string
}

func newExtensionMatcher(include, exclude []string) extensionMatcher {
	return extensionMatcher{include: lowerAll(include), exclude: lowerAll(exclude)}
}

func (m extensionMatcher) counts(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range m.exclude {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}
	for _, ext := range m.include {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// countDir counts matching files and their lines below dir.
//
// A file of n newline characters counts n+1 lines. Excluded directories are
// not descended into. Unreadable entries are skipped.
func countDir(fsys fs.FS, dir string, filter *pathFilter, match extensionMatcher) DirStats {
	var stats DirStats
	_ = fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && p != dir {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != dir && filter.skipDir(p) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !match.counts(d.Name()) {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil
		}
		stats.Files++
		stats.Lines += bytes.Count(data, []byte{'\n'}) + 1
		return nil
	})
	return stats
}
