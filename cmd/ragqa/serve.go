package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"ragqa/internal/httpapi"
	"ragqa/internal/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve questions over HTTP",
	Long:  `Starts an HTTP server. The index is built in the background; /healthz reports readiness.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, closeCache, err := buildPipeline(ctx, cfg)
	defer closeCache()
	if err != nil {
		return err
	}

	go func() {
		// retry until the corpus can be indexed or the server stops
		for delay := time.Second; ; delay = min(2*delay, time.Minute) {
			if err := p.Initialize(ctx); err == nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
	}()

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpapi.NewRouter(httpapi.NewHandler(p, secs(cfg.Server.AskTimeoutSecs))),
		ReadHeaderTimeout: secs(cfg.Server.ReadTimeoutSecs),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
