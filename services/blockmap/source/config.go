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
	"errors"
	"fmt"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"
)

// Default file names and limits.
const (
	// DefaultDefinitionFile is the per-component definition file name.
	DefaultDefinitionFile = ".block-definition.yml"

	// DefaultScopesCatalogFile is the root scopes catalog file name.
	DefaultScopesCatalogFile = ".scopes-catalog.yml"

	// DefaultBlockCatalogFile is the root block glossary file name.
	DefaultBlockCatalogFile = ".block-catalog.yml"

	// DefaultMaxVisits bounds the number of directories the walk reads.
	DefaultMaxVisits = 100000
)

// DefaultExcludeDirs are directory names never descended into.
var DefaultExcludeDirs = []string{
	"node_modules", ".git", ".vscode", ".vs", "dist", "build", "Build",
	"bin", "Bin", "obj", "Obj", "__pycache__", ".idea", ".cache",
	"tmp", "temp", "logs",
}

// DefaultStatsExtensions are the file extensions counted by directory
// statistics. Matching is case-insensitive.
var DefaultStatsExtensions = []string{
	".cs", ".xml", ".sql", ".config", ".json", ".txt", ".query",
	".domainsettings", ".csproj", ".ps1", ".lst", ".xaml", ".presentations",
	".yml", ".resx", ".condition", ".bat", ".cmd", ".ts", ".sandboxsettings",
	".tt", ".js", ".autotests", ".mpx", ".css", ".mrt", ".tsx", ".java",
	".h", ".html", ".sh", ".sln", ".jobxml", ".psm1", ".go",
}

// DefaultStatsExcludedExtensions override DefaultStatsExtensions.
var DefaultStatsExcludedExtensions = []string{
	".dll", ".pdb", ".cache", ".ico", ".png", ".baml", ".resources",
	".exe", ".up2date", ".so", ".svg",
}

// Config errors.
var (
	ErrEmptyDefinitionFile = errors.New("definition file name must not be empty")
	ErrInvalidMaxVisits    = errors.New("max visits must be positive")
	ErrInvalidWorkers      = errors.New("workers must be positive")
)

// Config configures a Loader.
type Config struct {
	// DefinitionFile is the file name that marks a block definition.
	DefinitionFile string

	// ScopesCatalogFile and BlockCatalogFile are looked up at the root only.
	// Empty disables the catalog.
	ScopesCatalogFile string
	BlockCatalogFile  string

	// ExcludeDirs are directory base names skipped by the walk.
	ExcludeDirs []string

	// ExcludeGlobs are doublestar patterns matched against slash-separated
	// paths relative to the root, e.g. "legacy/**".
	ExcludeGlobs []string

	// RespectGitignore skips paths matched by the root .gitignore.
	RespectGitignore bool

	// MaxVisits bounds the number of directories read.
	MaxVisits int

	// Workers bounds concurrent file decoding. Default: runtime.NumCPU().
	Workers int

	// CountStats fills FilesCount and CodeLines of each record.
	CountStats bool

	// StatsExtensions and StatsExcludedExtensions select counted files.
	StatsExtensions         []string
	StatsExcludedExtensions []string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefinitionFile:          DefaultDefinitionFile,
		ScopesCatalogFile:       DefaultScopesCatalogFile,
		BlockCatalogFile:        DefaultBlockCatalogFile,
		ExcludeDirs:             append([]string(nil), DefaultExcludeDirs...),
		RespectGitignore:        true,
		MaxVisits:               DefaultMaxVisits,
		Workers:                 runtime.NumCPU(),
		CountStats:              true,
		StatsExtensions:         append([]string(nil), DefaultStatsExtensions...),
		StatsExcludedExtensions: append([]string(nil), DefaultStatsExcludedExtensions...),
	}
}

// Validate checks that the Config has valid field values.
func (c Config) Validate() error {
	if c.DefinitionFile == "" {
		return ErrEmptyDefinitionFile
	}
	if c.MaxVisits <= 0 {
		return ErrInvalidMaxVisits
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	for _, pattern := range c.ExcludeGlobs {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude glob %q", pattern)
		}
	}
	return nil
}
