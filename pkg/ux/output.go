// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides terminal output styling for the blockmap CLI.
package ux

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7")
	ColorTealPrimary = lipgloss.Color("#20B9B4")
	ColorTealDeep    = lipgloss.Color("#16858E")
	ColorSlate       = lipgloss.Color("#2C4A54")
	ColorSand        = lipgloss.Color("#D9B779")
	ColorCoral       = lipgloss.Color("#F08A5D")
	ColorLavender    = lipgloss.Color("#B8A1E3")

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorMuted   = lipgloss.Color("#5E7A84")
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	// Node types
	Scope lipgloss.Style
	Block lipgloss.Style
	Part  lipgloss.Style

	// Highlight roles
	Selected lipgloss.Style
	Based    lipgloss.Style
	Extend   lipgloss.Style
	Other    lipgloss.Style
	Dimmed   lipgloss.Style

	Guide lipgloss.Style
	Box   lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(ColorMuted),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),

	Scope: lipgloss.NewStyle().Foreground(ColorTealDeep).Bold(true),
	Block: lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Part:  lipgloss.NewStyle().Foreground(ColorSand),

	Selected: lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true).Underline(true),
	Based:    lipgloss.NewStyle().Foreground(ColorCoral).Bold(true),
	Extend:   lipgloss.NewStyle().Foreground(ColorLavender).Bold(true),
	Other:    lipgloss.NewStyle().Foreground(ColorWarning),
	Dimmed:   lipgloss.NewStyle().Foreground(ColorSlate).Faint(true),

	Guide: lipgloss.NewStyle().Foreground(ColorSlate),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
}

// Icon provides status icons.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)

// Render returns the icon with its status color.
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return string(i)
	}
}

// TypeStyle returns the style for a node type name ("scope", "block",
// "part"). Unknown names get an unstyled style.
func TypeStyle(typ string) lipgloss.Style {
	switch typ {
	case "scope":
		return Styles.Scope
	case "block":
		return Styles.Block
	case "part":
		return Styles.Part
	default:
		return lipgloss.NewStyle()
	}
}

// RoleStyle returns the style for a highlight role name. ok is false for
// "none" and unknown names.
func RoleStyle(role string) (style lipgloss.Style, ok bool) {
	switch role {
	case "selected":
		return Styles.Selected, true
	case "based":
		return Styles.Based, true
	case "extend":
		return Styles.Extend, true
	case "other":
		return Styles.Other, true
	default:
		return lipgloss.NewStyle(), false
	}
}

// Printer writes status messages honoring the personality level. Results go
// to Out; warnings and errors go to Err.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// NewPrinter creates a Printer.
func NewPrinter(out, errOut io.Writer) *Printer {
	return &Printer{Out: out, Err: errOut}
}

// Render applies style unless colors are disabled.
func Render(style lipgloss.Style, text string) string {
	if !ShouldShowColors() {
		return text
	}
	return style.Render(text)
}

// Title prints a styled title. Machine output omits it.
func (p *Printer) Title(text string) {
	if GetPersonality().Level == PersonalityMachine {
		return
	}
	fmt.Fprintln(p.Out, Render(Styles.Title, text))
}

// Success prints a success line.
func (p *Printer) Success(text string) {
	switch GetPersonality().Level {
	case PersonalityMachine:
		fmt.Fprintf(p.Out, "OK: %s\n", text)
	case PersonalityMinimal:
		fmt.Fprintf(p.Out, "%s %s\n", IconSuccess, text)
	default:
		fmt.Fprintf(p.Out, "%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
	}
}

// Warning prints a warning line to Err.
func (p *Printer) Warning(text string) {
	switch GetPersonality().Level {
	case PersonalityMachine:
		fmt.Fprintf(p.Err, "WARN: %s\n", text)
	case PersonalityMinimal:
		fmt.Fprintf(p.Err, "%s %s\n", IconWarning, text)
	default:
		fmt.Fprintf(p.Err, "%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
	}
}

// Error prints an error line to Err.
func (p *Printer) Error(text string) {
	switch GetPersonality().Level {
	case PersonalityMachine:
		fmt.Fprintf(p.Err, "ERROR: %s\n", text)
	case PersonalityMinimal:
		fmt.Fprintf(p.Err, "%s %s\n", IconError, text)
	default:
		fmt.Fprintf(p.Err, "%s %s\n", IconError.Render(), Styles.Error.Render(text))
	}
}

// Info prints an informational line.
func (p *Printer) Info(text string) {
	if GetPersonality().Level == PersonalityMachine {
		fmt.Fprintln(p.Out, text)
		return
	}
	fmt.Fprintf(p.Out, "%s %s\n", Render(Styles.Muted, "│"), text)
}

// Counts prints labelled counts on one line, in argument order.
//
//	p.Counts("nodes", 12, "links", 11)
func (p *Printer) Counts(pairs ...any) {
	var b strings.Builder
	machine := GetPersonality().Level == PersonalityMachine
	if machine {
		b.WriteString("SUMMARY:")
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		label := fmt.Sprint(pairs[i])
		value := fmt.Sprint(pairs[i+1])
		if machine {
			fmt.Fprintf(&b, " %s=%s", label, value)
			continue
		}
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(Render(Styles.Bold, value))
		b.WriteString(" ")
		b.WriteString(Render(Styles.Muted, label))
	}
	fmt.Fprintln(p.Out, b.String())
}

// Box prints content in a rounded box. Machine output prints "title: content".
func (p *Printer) Box(title, content string) {
	if GetPersonality().Level == PersonalityMachine {
		fmt.Fprintf(p.Out, "%s: %s\n", title, content)
		return
	}
	if !ShouldShowColors() {
		fmt.Fprintf(p.Out, "%s\n%s\n", title, content)
		return
	}
	fmt.Fprintln(p.Out, Styles.Box.Render(Styles.Title.Render(title)+"\n"+content))
}
