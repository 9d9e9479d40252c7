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
	"strings"

	"github.com/charmbracelet/lipgloss/tree"
)

// TreeItem is one renderable tree entry. Labels are rendered as given;
// callers style them with Render.
type TreeItem struct {
	Label    string
	Children []*TreeItem
}

// RenderTree renders root with rounded guides, or as two-space indentation
// under the machine personality. A nil root renders as "".
func RenderTree(root *TreeItem) string {
	if root == nil {
		return ""
	}
	if GetPersonality().Level == PersonalityMachine {
		var b strings.Builder
		writeIndented(&b, root, 0)
		return b.String()
	}
	return toLipgloss(root).String() + "\n"
}

func toLipgloss(item *TreeItem) *tree.Tree {
	t := tree.Root(item.Label).Enumerator(tree.RoundedEnumerator)
	if ShouldShowColors() {
		t = t.EnumeratorStyle(Styles.Guide)
	}
	for _, child := range item.Children {
		if len(child.Children) == 0 {
			t = t.Child(child.Label)
			continue
		}
		t = t.Child(toLipgloss(child))
	}
	return t
}

func writeIndented(b *strings.Builder, item *TreeItem, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(item.Label)
	b.WriteByte('\n')
	for _, child := range item.Children {
		writeIndented(b, child, depth+1)
	}
}
