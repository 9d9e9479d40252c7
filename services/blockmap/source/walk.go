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
	"context"
	"io/fs"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// WalkResult is the outcome of a definition file walk.
type WalkResult struct {
	// Files are slash-separated definition file paths relative to the root,
	// in breadth-first discovery order.
	Files []string

	// DirErrors are directories that could not be read.
	DirErrors []DirError

	// Visited is the number of directories read.
	Visited int

	// Truncated is true when the walk stopped at MaxVisits.
	Truncated bool
}

// pathFilter decides which paths the walk skips.
type pathFilter struct {
	excludeDirs map[string]bool
	globs       []string
	gitignore   *ignore.GitIgnore
}

func newPathFilter(fsys fs.FS, cfg Config) *pathFilter {
	f := &pathFilter{
		excludeDirs: make(map[string]bool, len(cfg.ExcludeDirs)),
		globs:       cfg.ExcludeGlobs,
	}
	for _, d := range cfg.ExcludeDirs {
		f.excludeDirs[d] = true
	}
	if cfg.RespectGitignore {
		if data, err := fs.ReadFile(fsys, ".gitignore"); err == nil {
			f.gitignore = ignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
		}
	}
	return f
}

// skipDir reports whether the directory at rel is excluded.
func (f *pathFilter) skipDir(rel string) bool {
	if f.excludeDirs[path.Base(rel)] {
		return true
	}
	return f.skipPath(rel) || f.skipPath(rel+"/")
}

// skipPath reports whether rel matches an exclude glob or the gitignore.
func (f *pathFilter) skipPath(rel string) bool {
	for _, pattern := range f.globs {
		if ok, _ := doublestar.Match(pattern, strings.TrimSuffix(rel, "/")); ok {
			return true
		}
	}
	return f.gitignore != nil && f.gitignore.MatchesPath(rel)
}

// walkDefinitions collects definition files with a bounded breadth-first
// worklist.
//
// Description:
//
//	Each popped directory is read once. Unreadable directories are recorded
//	and skipped; the walk continues with the rest of the queue. Symlinked
//	directories are not followed. The walk stops after cfg.MaxVisits
//	directories and reports Truncated.
func walkDefinitions(ctx context.Context, fsys fs.FS, cfg Config, filter *pathFilter) (WalkResult, error) {
	result := WalkResult{
		Files:     make([]string, 0),
		DirErrors: make([]DirError, 0),
	}

	queue := []string{"."}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if result.Visited >= cfg.MaxVisits {
			result.Truncated = true
			result.DirErrors = append(result.DirErrors, DirError{Dir: queue[0], Err: ErrVisitLimit})
			break
		}

		dir := queue[0]
		queue = queue[1:]
		result.Visited++

		entries, err := fs.ReadDir(fsys, dir)
		if err != nil {
			result.DirErrors = append(result.DirErrors, DirError{Dir: dir, Err: err})
			continue
		}

		for _, entry := range entries {
			rel := path.Join(dir, entry.Name())
			switch {
			case entry.IsDir():
				if !filter.skipDir(rel) {
					queue = append(queue, rel)
				}
			case entry.Type().IsRegular() && entry.Name() == cfg.DefinitionFile:
				if !filter.skipPath(rel) {
					result.Files = append(result.Files, rel)
				}
			}
		}
	}
	return result, nil
}
