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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/blockmap/pkg/ux"
	"github.com/AleutianAI/blockmap/services/blockmap"
	"github.com/AleutianAI/blockmap/services/blockmap/graph"
)

// relatedView is the JSON shape of the related command.
type relatedView struct {
	Selected *graph.Node   `json:"selected"`
	Based    []*graph.Node `json:"based"`
	Extend   []*graph.Node `json:"extend"`
	Other    []*graph.Node `json:"other"`
}

func newBuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the block map and report statistics",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.refresh(cmd.Context())
			if err != nil {
				return err
			}
			if a.flags.jsonOut {
				return a.writeJSON(snap.Payload(nil))
			}
			a.reportBuild(snap)
			return nil
		},
	}
}

// reportBuild prints the build summary and every warning.
func (a *app) reportBuild(snap *blockmap.Snapshot) {
	stats := snap.Result.Stats
	if snap.Empty() {
		a.printer.Info(fmt.Sprintf("No block definitions found in %s", a.cfg.Source.Root))
	} else {
		a.printer.Success(fmt.Sprintf("Built block map %s", snap.Result.BuildID))
	}
	a.printer.Counts(
		"records", stats.RecordsTotal,
		"nodes", stats.NodesCreated,
		"links", stats.LinksCreated,
		"skipped", stats.RecordsSkipped,
		"ignored", stats.RecordsIgnored,
	)
	for _, w := range snap.Warnings() {
		a.printer.Warning(w.Error())
	}
}

func newTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the scope/block/part hierarchy",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.refresh(cmd.Context())
			if err != nil {
				return err
			}
			if a.flags.jsonOut {
				return a.writeJSON(snap.Payload(nil))
			}
			if snap.Empty() {
				a.printer.Info("No block definitions found")
				return nil
			}
			fmt.Fprint(a.stdout, ux.RenderTree(treeItems(snap.Tree.Root, nil)))
			return nil
		},
	}
}

func newRelatedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "related <node>",
		Short: "List the nodes a node is based on, extends, or shares its name with",
		Long: `The node is given by ID, by a slash path such as "Payments/Ledger",
or by its display path such as "Payments → Ledger".`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.refresh(cmd.Context())
			if err != nil {
				return err
			}
			n, err := snap.Select(args[0])
			if err != nil {
				return err
			}
			rel := snap.Relations(n)
			if a.flags.jsonOut {
				return a.writeJSON(relatedView{
					Selected: n,
					Based:    rel.Based,
					Extend:   rel.Extend,
					Other:    rel.Other,
				})
			}
			a.printer.Title(n.Path)
			printRelations(a.stdout, rel)
			return nil
		},
	}
}

func newHighlightCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "highlight <node>",
		Short: "Print the hierarchy with everything related to a node emphasized",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.refresh(cmd.Context())
			if err != nil {
				return err
			}
			n, err := snap.Select(args[0])
			if err != nil {
				return err
			}
			sel := snap.Highlight(n)
			if a.flags.jsonOut {
				return a.writeJSON(snap.Payload(sel))
			}
			fmt.Fprint(a.stdout, ux.RenderTree(treeItems(snap.Tree.Root, &sel.Emphasis)))
			a.printer.Counts("emphasized", sel.Emphasis.EmphasizedCount(), "nodes", snap.Tree.Len())
			return nil
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Find nodes whose records mention a term in name, description or aspects",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.refresh(cmd.Context())
			if err != nil {
				return err
			}
			nodes := snap.Search(args[0])
			if a.flags.jsonOut {
				return a.writeJSON(nodes)
			}
			if len(nodes) == 0 {
				a.printer.Info(fmt.Sprintf("No nodes match %q", args[0]))
				return nil
			}
			printNodes(a.stdout, nodes)
			return nil
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the blockmap version",
		Args:  noArgs,
		// No config, logging or telemetry needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(a.stdout, "blockmap %s\n", version)
		},
	}
}
