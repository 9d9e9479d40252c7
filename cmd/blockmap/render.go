// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/AleutianAI/blockmap/pkg/ux"
	"github.com/AleutianAI/blockmap/services/blockmap/graph"
	"github.com/AleutianAI/blockmap/services/blockmap/highlight"
	"github.com/AleutianAI/blockmap/services/blockmap/relation"
)

// treeItems converts tree into renderable items. em may be nil.
func treeItems(n *graph.TreeNode, em *highlight.Emphasis) *ux.TreeItem {
	if n == nil {
		return nil
	}
	item := &ux.TreeItem{
		Label:    nodeLabel(n, em),
		Children: make([]*ux.TreeItem, 0, len(n.Children)),
	}
	for _, child := range n.Children {
		item.Children = append(item.Children, treeItems(child, em))
	}
	return item
}

// nodeLabel renders "name [type]" plus role and description. Without colors
// the role and dimming are spelled out.
func nodeLabel(n *graph.TreeNode, em *highlight.Emphasis) string {
	typ := ""
	if !n.IsVirtual() {
		typ = n.Node.Type.String()
	}

	role := highlight.RoleNone
	dimmed := false
	if em != nil && em.Active {
		role = em.Role(n.ID())
		dimmed = !em.NodeEmphasized(n.ID())
	}

	style := ux.TypeStyle(typ)
	if rs, ok := ux.RoleStyle(role.String()); ok {
		style = rs
	}
	if dimmed {
		style = ux.Styles.Dimmed
	}

	var b strings.Builder
	b.WriteString(ux.Render(style, n.Node.Name))
	if typ != "" {
		b.WriteString(" ")
		b.WriteString(ux.Render(ux.Styles.Muted, "["+typ+"]"))
	}
	if role != highlight.RoleNone {
		b.WriteString(" ")
		b.WriteString(ux.Render(style, "<"+role.String()+">"))
	}
	if dimmed && !ux.ShouldShowColors() {
		b.WriteString(" (dimmed)")
	}
	if desc := nodeDescription(n.Node); desc != "" && ux.GetPersonality().ShowDescriptions &&
		ux.GetPersonality().Level != ux.PersonalityMachine {
		b.WriteString(" ")
		b.WriteString(ux.Render(ux.Styles.Muted, "· "+desc))
	}
	return b.String()
}

// nodeDescription is the scope description or the first record description.
func nodeDescription(n *graph.Node) string {
	if n.Description != "" {
		return n.Description
	}
	for i := range n.Blocks {
		if d := strings.TrimSpace(n.Blocks[i].Description); d != "" {
			return firstLine(d)
		}
	}
	return ""
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// printRelations lists each relation set, one node per line.
func printRelations(w io.Writer, rel relation.Relations) {
	machine := ux.GetPersonality().Level == ux.PersonalityMachine
	for _, kind := range []relation.Kind{relation.KindBased, relation.KindExtend, relation.KindOther} {
		nodes := rel.Get(kind)
		if machine {
			for _, n := range nodes {
				fmt.Fprintf(w, "%s\t%d\t%s\n", kind, n.ID, n.Path)
			}
			continue
		}

		style, _ := ux.RoleStyle(string(kind))
		fmt.Fprintf(w, "%s (%d)\n", ux.Render(style, string(kind)), len(nodes))
		for _, n := range nodes {
			fmt.Fprintf(w, "  %s %s %s\n", ux.IconArrow, n.Path, ux.Render(ux.Styles.Muted, fmt.Sprintf("#%d", n.ID)))
		}
	}
}

// printNodes lists nodes as "#id path [type]".
func printNodes(w io.Writer, nodes []*graph.Node) {
	machine := ux.GetPersonality().Level == ux.PersonalityMachine
	for _, n := range nodes {
		if machine {
			fmt.Fprintf(w, "%d\t%s\t%s\n", n.ID, n.Type, n.Path)
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n",
			ux.Render(ux.Styles.Muted, fmt.Sprintf("#%d", n.ID)),
			ux.Render(ux.TypeStyle(n.Type.String()), n.Path),
			ux.Render(ux.Styles.Muted, "["+n.Type.String()+"]"),
		)
	}
}
