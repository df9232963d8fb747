package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/map-insights/internal/api"
	"github.com/sells-group/map-insights/internal/explorer"
)

var servePort int

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the session API server",
	Long:  "Serves map exploration sessions over HTTP with a WebSocket view stream per session. Idle sessions are expired in the background.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		handler, reg, err := buildServer()
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			reg.RunSweeper(gctx, time.Duration(cfg.Server.SweepIntervalSecs)*time.Second)
			return nil
		})

		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})

		// Graceful shutdown
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return eris.Wrap(err, "server shutdown")
			}
			return nil
		})

		return g.Wait()
	},
}

// buildServer wires the ArcGIS client, session registry and HTTP routes
// from the loaded config.
func buildServer() (http.Handler, *api.Registry, error) {
	opts, err := sessionOptions(cfg)
	if err != nil {
		return nil, nil, err
	}
	breakers := newBreakers(cfg)
	client := newArcGISClient(cfg, breakers)

	reg := api.NewRegistry(func() *explorer.Session {
		return explorer.NewSession(client, opts)
	}, time.Duration(cfg.Server.SessionIdleSecs)*time.Second)

	srv := api.NewServer(reg, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Breakers:       breakers,
	})
	return srv.Handler(), reg, nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
