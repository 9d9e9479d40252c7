// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command blockmap builds and queries the block map of a project.
//
// Usage:
//
//	blockmap build  --root ./project
//	blockmap tree   --root ./project --hide-parts
//	blockmap related "Payments/Ledger"
//	blockmap highlight 12 --json > selection.json
//	blockmap watch  --root ./project
//
// The project is either a directory scanned for .block-definition.yml files
// or a JSON/YAML project file holding {scopes, blocks, catalog}. Settings come
// from the nearest blockmap.yaml; flags override them.
//
// Exit codes: 0 success, 1 failure, 2 bad arguments.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/AleutianAI/blockmap/services/blockmap/graph"
)

// Exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitBadRequest = 2
)

// version is set at link time with -ldflags "-X main.version=...".
var version = "dev"

// usageError marks errors caused by the command line itself.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and maps the outcome to an exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err == nil {
		return exitOK
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitCode(err)
}

func exitCode(err error) int {
	var uerr usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &uerr), errors.Is(err, graph.ErrNodeNotFound):
		return exitBadRequest
	case strings.HasPrefix(err.Error(), "unknown command"):
		return exitBadRequest
	default:
		return exitFailure
	}
}
