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
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/blockmap/pkg/telemetry"
	"github.com/AleutianAI/blockmap/services/blockmap"
	"github.com/AleutianAI/blockmap/services/blockmap/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the block map whenever a definition or catalog file changes",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runWatch(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&a.flags.metricsAddr, "metrics-addr", "", "serve prometheus /metrics on this address while watching")
	return cmd
}

// runWatch builds once, then rebuilds on every debounced batch of changes
// until ctx is cancelled.
func (a *app) runWatch(ctx context.Context) error {
	info, err := os.Stat(a.cfg.Source.Root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return usageError{fmt.Errorf("watch needs a project directory, got file %s", a.cfg.Source.Root)}
	}

	svc := a.service()
	snap, err := svc.Refresh(ctx)
	if err != nil {
		return err
	}
	a.reportBuild(snap)

	opts := a.cfg.WatchOptions()
	opts.Logger = a.logger.Slog()
	w, err := watch.New(svc.Path(), a.rebuildHandler(svc), opts)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Stop()

	if addr := a.cfg.Watch.MetricsAddr; addr != "" {
		stop, err := serveMetrics(addr)
		if err != nil {
			return err
		}
		defer stop()
		a.printer.Info(fmt.Sprintf("Serving metrics on http://%s/metrics", addr))
	}

	a.printer.Info(fmt.Sprintf("Watching %d directories under %s", w.WatchedDirs(), svc.Path()))
	<-ctx.Done()
	a.printer.Info("Stopped watching")
	return nil
}

func (a *app) rebuildHandler(svc *blockmap.Service) watch.Handler {
	return func(ctx context.Context, paths []string) {
		a.logger.Debug("rebuilding", "changes", len(paths))
		snap, err := svc.Refresh(ctx)
		if err != nil {
			if ctx.Err() == nil {
				a.printer.Error(fmt.Sprintf("rebuild failed: %v", err))
			}
			return
		}
		a.printer.Success(fmt.Sprintf("Rebuilt after %d change(s): %d nodes, %d warnings",
			len(paths), snap.Graph().NodeCount(), len(snap.Warnings())))
	}
}

// serveMetrics starts an HTTP server for telemetry.MetricsHandler and
// returns a function that shuts it down.
func serveMetrics(addr string) (func(), error) {
	handler := telemetry.MetricsHandler()
	if handler == nil {
		return nil, errors.New("metrics endpoint requires the prometheus exporter")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Surface an immediate bind failure.
	select {
	case err := <-errCh:
		if err != nil {
			return nil, fmt.Errorf("serve metrics: %w", err)
		}
	case <-time.After(50 * time.Millisecond):
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
