// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// PersonalityLevel controls how much styling the CLI output carries.
type PersonalityLevel string

const (
	// PersonalityStandard enables colors, icons, and tree guides.
	PersonalityStandard PersonalityLevel = "standard"

	// PersonalityMinimal keeps icons and tree guides but drops colors.
	PersonalityMinimal PersonalityLevel = "minimal"

	// PersonalityMachine outputs plain tab-separated text for scripts.
	PersonalityMachine PersonalityLevel = "machine"
)

// Personality holds output preferences.
type Personality struct {
	// Level controls overall styling.
	Level PersonalityLevel

	// ShowDescriptions appends node descriptions to tree labels.
	ShowDescriptions bool
}

var (
	currentPersonality = Personality{
		Level:            PersonalityStandard,
		ShowDescriptions: true,
	}
	personalityMu sync.RWMutex
)

// GetPersonality returns the current personality settings.
//
// Thread Safety: Safe for concurrent use.
func GetPersonality() Personality {
	personalityMu.RLock()
	defer personalityMu.RUnlock()
	return currentPersonality
}

// SetPersonality replaces the personality settings.
func SetPersonality(p Personality) {
	personalityMu.Lock()
	defer personalityMu.Unlock()
	currentPersonality = p
}

// SetPersonalityLevel changes only the level.
func SetPersonalityLevel(level PersonalityLevel) {
	personalityMu.Lock()
	defer personalityMu.Unlock()
	currentPersonality.Level = level
}

// ParsePersonalityLevel maps a name or abbreviation to a level.
// Unknown names map to PersonalityStandard.
func ParsePersonalityLevel(s string) PersonalityLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimal", "min", "m":
		return PersonalityMinimal
	case "machine", "plain", "q":
		return PersonalityMachine
	default:
		return PersonalityStandard
	}
}

// InitPersonality picks the level from BLOCKMAP_PERSONALITY, falling back to
// machine output when stdout is not a terminal. NO_COLOR downgrades the
// standard level to minimal.
func InitPersonality() {
	if envLevel := os.Getenv("BLOCKMAP_PERSONALITY"); envLevel != "" {
		SetPersonalityLevel(ParsePersonalityLevel(envLevel))
		return
	}
	if !IsTerminal(os.Stdout) {
		SetPersonalityLevel(PersonalityMachine)
		return
	}
	if os.Getenv("NO_COLOR") != "" {
		SetPersonalityLevel(PersonalityMinimal)
		return
	}
	SetPersonalityLevel(PersonalityStandard)
}

// IsTerminal reports whether f is a terminal, Cygwin and MSYS ptys included.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ShouldShowColors reports whether output should carry ANSI styling.
func ShouldShowColors() bool {
	return GetPersonality().Level == PersonalityStandard
}
