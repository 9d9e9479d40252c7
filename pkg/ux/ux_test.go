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
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func withLevel(t *testing.T, level PersonalityLevel) {
	t.Helper()
	orig := GetPersonality()
	t.Cleanup(func() { SetPersonality(orig) })
	SetPersonalityLevel(level)
}

// =============================================================================
// Personality Tests
// =============================================================================

func TestParsePersonalityLevel(t *testing.T) {
	tests := []struct {
		in   string
		want PersonalityLevel
	}{
		{"standard", PersonalityStandard},
		{"MIN", PersonalityMinimal},
		{"machine", PersonalityMachine},
		{"plain", PersonalityMachine},
		{"bogus", PersonalityStandard},
		{"", PersonalityStandard},
	}
	for _, tt := range tests {
		if got := ParsePersonalityLevel(tt.in); got != tt.want {
			t.Errorf("ParsePersonalityLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitPersonality_Env(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	t.Setenv("BLOCKMAP_PERSONALITY", "minimal")
	InitPersonality()
	if GetPersonality().Level != PersonalityMinimal {
		t.Errorf("expected minimal, got %v", GetPersonality().Level)
	}
}

func TestInitPersonality_NotATerminal(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	// go test never runs with a terminal on stdout.
	t.Setenv("BLOCKMAP_PERSONALITY", "")
	InitPersonality()
	if GetPersonality().Level != PersonalityMachine {
		t.Errorf("expected machine, got %v", GetPersonality().Level)
	}
}

func TestIsTerminal_Nil(t *testing.T) {
	if IsTerminal(nil) {
		t.Error("nil file reported as terminal")
	}
}

// =============================================================================
// Printer Tests
// =============================================================================

func TestPrinter_Machine(t *testing.T) {
	withLevel(t, PersonalityMachine)
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, &errOut)

	p.Title("ignored")
	p.Success("built")
	p.Info("detail")
	p.Warning("careful")
	p.Error("broken")
	p.Counts("nodes", 5, "links", 4)

	wantOut := "OK: built\ndetail\nSUMMARY: nodes=5 links=4\n"
	if out.String() != wantOut {
		t.Errorf("stdout = %q, want %q", out.String(), wantOut)
	}
	wantErr := "WARN: careful\nERROR: broken\n"
	if errOut.String() != wantErr {
		t.Errorf("stderr = %q, want %q", errOut.String(), wantErr)
	}
}

func TestPrinter_Minimal(t *testing.T) {
	withLevel(t, PersonalityMinimal)
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, &errOut)

	p.Success("built")
	p.Warning("careful")
	p.Counts("nodes", 5)
	p.Box("Selected", "A → X")

	if !strings.Contains(out.String(), "✓ built") {
		t.Errorf("missing success line: %q", out.String())
	}
	if !strings.Contains(out.String(), "5 nodes") {
		t.Errorf("missing counts: %q", out.String())
	}
	if !strings.Contains(out.String(), "Selected\nA → X") {
		t.Errorf("missing box content: %q", out.String())
	}
	if !strings.Contains(errOut.String(), "⚠ careful") {
		t.Errorf("missing warning: %q", errOut.String())
	}
}

func TestRender_NoColorsOutsideStandard(t *testing.T) {
	withLevel(t, PersonalityMinimal)
	if got := Render(Styles.Selected, "X"); got != "X" {
		t.Errorf("Render() = %q, want plain text", got)
	}
}

func TestTypeAndRoleStyles(t *testing.T) {
	for _, typ := range []string{"scope", "block", "part"} {
		if _, none := TypeStyle(typ).GetForeground().(lipgloss.NoColor); none {
			t.Errorf("TypeStyle(%q) has no foreground", typ)
		}
	}
	for _, role := range []string{"selected", "based", "extend", "other"} {
		if _, ok := RoleStyle(role); !ok {
			t.Errorf("RoleStyle(%q) not found", role)
		}
	}
	if _, ok := RoleStyle("none"); ok {
		t.Error("RoleStyle(none) should not be styled")
	}
}

// =============================================================================
// Tree Tests
// =============================================================================

func sampleTree() *TreeItem {
	return &TreeItem{
		Label: "Root",
		Children: []*TreeItem{
			{Label: "A", Children: []*TreeItem{{Label: "X"}}},
			{Label: "B"},
		},
	}
}

func TestRenderTree_Machine(t *testing.T) {
	withLevel(t, PersonalityMachine)

	want := "Root\n  A\n    X\n  B\n"
	if got := RenderTree(sampleTree()); got != want {
		t.Errorf("RenderTree() = %q, want %q", got, want)
	}
}

func TestRenderTree_Guides(t *testing.T) {
	withLevel(t, PersonalityMinimal)

	got := RenderTree(sampleTree())
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), got)
	}
	if lines[0] != "Root" {
		t.Errorf("first line = %q, want Root", lines[0])
	}
	if !strings.HasSuffix(lines[1], "A") || !strings.HasSuffix(lines[2], "X") || !strings.HasSuffix(lines[3], "B") {
		t.Errorf("unexpected order: %q", got)
	}
	if !strings.Contains(lines[3], "╰") {
		t.Errorf("last child should use the rounded guide: %q", lines[3])
	}
}

func TestRenderTree_Nil(t *testing.T) {
	if RenderTree(nil) != "" {
		t.Error("nil tree should render empty")
	}
}
