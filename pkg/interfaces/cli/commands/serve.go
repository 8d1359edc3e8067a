package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/vsinha/stockmrp/pkg/interfaces/api"
)

// NewServeCommand runs the HTTP API until SIGINT or SIGTERM
func NewServeCommand(opts *RootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve restores state from --db (or seeds --scenario when the store is empty),
serves the API and, on shutdown, saves the state back to --db.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := openSession(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer s.Close()

			if cfg.IsProduction() {
				gin.SetMode(gin.ReleaseMode)
			}

			srv := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.Port),
				Handler:      api.New(s.engine),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				stats := s.engine.Stats()
				s.logger.Info().
					Int("port", cfg.Port).
					Int("components", stats.Components).
					Int("products", stats.Products).
					Int("orders", stats.Orders).
					Msg("stockmrp listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case err := <-serveErr:
				if err != nil {
					return &ExitError{Code: ExitCommandError, Message: "server error", Err: err}
				}
			case <-ctx.Done():
			}

			s.logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error().Err(err).Msg("forced shutdown")
			}

			if err := s.persist(shutdownCtx); err != nil {
				return err
			}
			s.logger.Info().Msg("server exited")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8000, "listen port (overrides PORT)")
	return cmd
}
