// Copyright 2025 Philipp Hossner
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package renderer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/sync/errgroup"

	pkgmetrics "viewrender/pkg/metrics"
)

// Serve runs the view server and the render event subscribers, plus the
// metrics server and the template watcher when enabled. It blocks until ctx is cancelled or one of
// them fails, then shuts the others down.
func (r *Renderer) Serve(ctx context.Context) error {
	addr := r.config.Server.Address
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return r.serve(ctx, ln)
}

func (r *Renderer) serve(ctx context.Context, ln net.Listener) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r.Instrument(gCtx)
		return nil
	})

	g.Go(func() error {
		return r.serveHTTP(gCtx, ln)
	})

	if r.config.Metrics.Enabled {
		server := pkgmetrics.NewServer(r.config.Metrics.Address, r.registry,
			pkgmetrics.WithServerLogger(r.logger),
			pkgmetrics.WithShutdownTimeout(r.config.Server.GetShutdownTimeout()),
		)
		g.Go(func() error {
			return server.Start(gCtx)
		})
	}

	if r.config.Views.WatchFiles {
		g.Go(func() error {
			return r.store.Watch(gCtx)
		})
	}

	return g.Wait()
}

func (r *Renderer) serveHTTP(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           r.Handler(),
		ReadTimeout:       r.config.Server.GetReadTimeout(),
		ReadHeaderTimeout: r.config.Server.GetReadTimeout(),
	}

	serverErr := make(chan error, 1)
	go func() {
		r.logger.Info("Starting view server", "addr", ln.Addr().String())

		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("View server error", "error", err)
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("View server shutting down", "reason", ctx.Err())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), r.config.Server.GetShutdownTimeout())
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		r.logger.Info("View server stopped")
		return nil

	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}
}
