package main

import (
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/tdmkt/tdseq/internal/api"
	"github.com/tdmkt/tdseq/internal/data"
	"github.com/tdmkt/tdseq/internal/exits"
	"github.com/tdmkt/tdseq/internal/metrics"
)

func newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the snapshot and exit-evaluation API",
		Long:  "Exposes the latest published per-instrument indicator snapshots and on-demand tranche evaluations, plus Prometheus metrics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd)

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}

			rdb := redis.NewClient(&redis.Options{Addr: cfg.Data.RedisAddr})
			defer rdb.Close()

			store := data.NewSnapshotStore(rdb, time.Duration(cfg.Data.SnapshotTTLSeconds)*time.Second)
			reg := metrics.NewRegistry()
			server := api.NewServer(
				store,
				exits.NewEvaluator(&cfg.Exits),
				reg,
				rate.Limit(cfg.Server.RateLimit),
				cfg.Server.RateBurst,
				log.Logger,
			)

			log.Info().Str("listen", cfg.Server.Listen).Str("redis", cfg.Data.RedisAddr).Msg("snapshot API listening")
			return http.ListenAndServe(cfg.Server.Listen, server.Router())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides server.listen)")
	return cmd
}
