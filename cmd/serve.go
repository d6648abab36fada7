package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chrisdamba/darkstoremetrics/internal/dataset"
	"github.com/chrisdamba/darkstoremetrics/internal/models"
	"github.com/chrisdamba/darkstoremetrics/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve metrics over HTTP, refreshing the dataset periodically",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store := dataset.NewStore(nil)
		refresher, err := a.refresher(ctx, store)
		if err != nil {
			return err
		}
		go func() {
			if err := refresher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("refresher stopped", zap.Error(err))
			}
		}()

		handlers := server.New(store,
			server.WithRefresher(refresher),
			server.WithLocation(a.location),
			server.WithLogger(a.logger),
			server.WithDefaults(server.Defaults{
				Store:     a.cfg.Store,
				Brand:     a.cfg.Brand,
				StartDate: a.cfg.StartDate,
				EndDate:   a.cfg.EndDate,
			}),
		)
		srv := &http.Server{
			Addr:              a.cfg.ListenAddr,
			Handler:           handlers.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.logger.Info("listening", zap.String("addr", srv.Addr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.String("listen-addr", ":8080", "HTTP listen address")
	flags.Duration("refresh-interval", models.DefaultRefreshInterval, "interval between dataset refreshes")
	flags.Bool("kafka-enabled", false, "publish dataset snapshots to Kafka")
	flags.String("kafka-broker-list", "localhost:9092", "Kafka broker list")
	flags.String("kafka-topic", "darkstore_metrics_snapshots", "Kafka topic for snapshots")

	bindFlags(flags, map[string]string{
		"listen-addr":       "listen_addr",
		"refresh-interval":  "refresh_interval",
		"kafka-enabled":     "kafka_enabled",
		"kafka-broker-list": "kafka_broker_list",
		"kafka-topic":       "kafka_topic",
	})
	rootCmd.AddCommand(serveCmd)
}
