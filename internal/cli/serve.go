package cli

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bizplanner/internal/app"
	"bizplanner/internal/logging"
	"bizplanner/internal/transport/rest"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the wizard API and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd)
			log := logging.Component("server")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.Build(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := &http.Server{
				Addr:    cfg.HTTPAddr,
				Handler: rest.NewRouter(a.Container()),
			}

			errc := make(chan error, 1)
			go func() {
				log.Info("server starting", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errc <- err
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				if err != nil {
					a.Shutdown()
					return eris.Wrap(err, "listen")
				}
			case <-ctx.Done():
			}
			log.Info("shutting down server")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("server forced to shutdown", zap.Error(err))
			}
			a.Shutdown()

			log.Info("server exited")
			return nil
		},
	}
}
