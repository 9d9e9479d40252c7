// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package source finds and decodes block definitions on disk.
//
// A project is a directory tree with a `.block-definition.yml` file next to
// each described component, plus optional `.scopes-catalog.yml` and
// `.block-catalog.yml` files at the root. The Loader walks the tree with a
// bounded breadth-first worklist, decodes definition files on a bounded
// worker pool and returns everything as ProjectData.
//
// # Error Model
//
// Loading degrades instead of failing. Unreadable directories become
// DirErrors, undecodable files become FileErrors, and both are returned next
// to whatever did load. Only a missing root or a cancelled context fails the
// whole load.
//
// # Thread Safety
//
// Loader is safe for concurrent use; each Load call has its own state.
package source

import (
	"errors"
	"fmt"
)

// Sentinel errors for loading.
var (
	// ErrVisitLimit is recorded when the walk stops at Config.MaxVisits.
	ErrVisitLimit = errors.New("directory visit limit reached")

	// ErrNotDirectory is returned when the project root is not a directory.
	ErrNotDirectory = errors.New("project root is not a directory")

	// ErrUnsupportedFormat is returned for a project file with an unknown
	// extension.
	ErrUnsupportedFormat = errors.New("unsupported project file format")
)

// DirError is a directory the walk could not read.
type DirError struct {
	// Dir is the slash-separated path relative to the project root.
	Dir string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e DirError) Error() string {
	return fmt.Sprintf("dir %s: %v", e.Dir, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e DirError) Unwrap() error {
	return e.Err
}

// FileError is a definition or catalog file that could not be decoded.
type FileError struct {
	// FilePath is the slash-separated path relative to the project root.
	FilePath string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e FileError) Error() string {
	return fmt.Sprintf("file %s: %v", e.FilePath, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e FileError) Unwrap() error {
	return e.Err
}
