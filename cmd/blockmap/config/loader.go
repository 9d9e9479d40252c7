// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up by Find.
const FileName = "blockmap.yaml"

// Find returns the nearest blockmap.yaml in dir or one of its parents, or ""
// when there is none.
func Find(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(abs, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", nil
		}
		abs = parent
	}
}

// LoadFile reads path over DefaultConfig and validates the result. A
// relative source.root is resolved against the file's directory.
func LoadFile(path string) (BlockmapConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Source.Root != "" && !filepath.IsAbs(cfg.Source.Root) {
		cfg.Source.Root = filepath.Join(filepath.Dir(path), cfg.Source.Root)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Load resolves the configuration for a command.
//
// Description:
//
//	An explicit path must exist. Without one, the nearest blockmap.yaml
//	above dir is used, and DefaultConfig when there is none.
//
// Outputs:
//
//	BlockmapConfig - The loaded configuration.
//	string - The file it came from, or "" for defaults.
//	error - Read, parse, or validation failure.
func Load(explicit, dir string) (BlockmapConfig, string, error) {
	path := explicit
	if path == "" {
		found, err := Find(dir)
		if err != nil {
			return DefaultConfig(), "", err
		}
		path = found
	}
	if path == "" {
		return DefaultConfig(), "", nil
	}

	cfg, err := LoadFile(path)
	if err != nil {
		if explicit == "" && errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), "", nil
		}
		return cfg, path, err
	}
	return cfg, path, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg BlockmapConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
