package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/concentra-cli/internal/concentration"
	"github.com/KaramelBytes/concentra-cli/internal/period"
	"github.com/KaramelBytes/concentra-cli/internal/server"
	"github.com/KaramelBytes/concentra-cli/internal/session"
)

var (
	serveAddr string
	serveLoad loadFlags
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (upload, reclassify, concentration analysis)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" {
			addr = cfg.ServerAddr
		}
		order, err := period.ParseOrder(cfg.PeriodOrder)
		if err != nil {
			return fmt.Errorf("period_order: %w", err)
		}
		if err := server.ValidateCORSOrigins(cfg.CORSOrigins); err != nil {
			return fmt.Errorf("cors_origins: %w", err)
		}
		opt, err := serveLoad.options()
		if err != nil {
			return err
		}
		log, err := newLogger(true)
		if err != nil {
			return err
		}
		defer log.Sync()

		store := session.NewStore(cfg.SessionTTL(), log)
		calc := concentration.NewCalculator(log, cfg.Workers, cfg.ConcentrationBuckets)
		h := server.NewHandler(log, store, calc, server.Options{
			Load:           opt,
			MaxUploadBytes: cfg.MaxUploadBytes(),
			DefaultOrder:   order,
			CORSOrigins:    cfg.CORSOrigins,
		})
		srv := server.NewServer(h, log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			store.Run(ctx, cfg.SweepInterval())
			return nil
		})
		g.Go(func() error {
			return srv.Run(ctx, addr)
		})
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving on %s (session ttl %s)\n", addr, cfg.SessionTTL())
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveLoad.bind(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
}
