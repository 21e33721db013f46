package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/pipebuilder/internal/presentation/tui"
	httpAdapter "github.com/aretw0/pipebuilder/pkg/adapters/http"
	"github.com/aretw0/pipebuilder/pkg/observability"
	"github.com/aretw0/pipebuilder/pkg/ports"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Starts the pipebuilder engine in server mode, exposing a JSON API over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		sessions, err := a.sessions()
		if err != nil {
			return err
		}

		opts := []httpAdapter.Option{
			httpAdapter.WithLogger(a.logger),
			httpAdapter.WithMetrics(observability.NewMetrics()),
		}
		if a.cfg.HTTP.Watch {
			if w, ok := a.source.(ports.Watchable); ok {
				opts = append(opts, httpAdapter.WithWatcher(w))
			} else {
				a.logger.Warn("Definition source cannot be watched, /events disabled")
			}
		}

		handler, err := httpAdapter.NewHandler(sessions, a.catalog, opts...)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", a.cfg.HTTP.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		tui.PrintBanner(os.Stderr)

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			a.logger.Info("Starting pipebuilder server", "address", srv.Addr, "definitions", a.cfg.DefinitionsDir)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			a.logger.Info("Start shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				a.logger.Error("Graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("could not stop server: %w", err)
				}
			}
			a.logger.Info("Pipebuilder server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().Bool("watch", false, "Stream definition changes at /events")
	_ = v.BindPFlag("http.port", serveCmd.Flags().Lookup("port"))
	_ = v.BindPFlag("http.watch", serveCmd.Flags().Lookup("watch"))
}
