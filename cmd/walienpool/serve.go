package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"walienPool/internal/api"
	"walienPool/internal/events"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sale over HTTP",
		RunE:  runServe,
	}
	cmd.Flags().String("listen", ":8080", "HTTP listen address")
	cmd.Flags().Duration("read-timeout", 0, "HTTP read timeout (default from config)")
	cmd.Flags().Duration("write-timeout", 0, "HTTP write timeout (default from config)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := events.NewMetrics(reg)

	a, err := openApp(ctx, cmd, metrics)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := api.New(api.Config{Service: a.svc, Logger: a.logger.Named("http"), Gatherer: reg})

	a.logger.Info("serve start",
		zap.String("program_id", a.cfg.ProgramID),
		zap.String("store", a.cfg.Store),
		zap.String("listen", a.cfg.Listen),
	)
	return api.ListenAndServe(ctx, a.cfg.Listen, srv.Handler(), a.cfg.ReadTimeout, a.cfg.WriteTimeout, a.logger)
}
