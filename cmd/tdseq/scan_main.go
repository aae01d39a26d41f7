package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tdmkt/tdseq/internal/config"
	"github.com/tdmkt/tdseq/internal/data"
	"github.com/tdmkt/tdseq/internal/domain/demark"
)

func newScanCmd() *cobra.Command {
	var (
		csvPath string
		csvDir  string
		usePG   bool
		symbol  string
		latest  bool
		asJSON  bool
		outPath string
		publish bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Fold a bar series through the indicator engine",
		Long:  "Loads one instrument's OHLC series, computes the full per-bar indicator state history, and prints it (or just the latest snapshot).",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd)

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			source, cleanup, err := buildSource(csvPath, csvDir, usePG, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			bars, err := source.Bars(ctx, symbol)
			if err != nil {
				return err
			}
			log.Info().Str("symbol", symbol).Int("bars", len(bars)).Msg("running scan")

			engine := demark.New(cfg.Engine, demark.WithLogger(log.Logger))
			states := engine.Run(bars)
			if len(states) == 0 {
				return fmt.Errorf("no bars for %s", symbol)
			}

			artifact := scanArtifact{
				RunID:       uuid.New().String(),
				Symbol:      symbol,
				GeneratedAt: time.Now().UTC(),
				Bars:        len(bars),
			}
			if latest {
				artifact.Latest = &states[len(states)-1]
			} else {
				artifact.States = states
			}

			if publish {
				if err := publishSnapshot(ctx, cfg, symbol, states[len(states)-1]); err != nil {
					return err
				}
				log.Info().Str("symbol", symbol).Msg("snapshot published")
			}

			if outPath != "" {
				if err := writeArtifact(outPath, artifact); err != nil {
					return err
				}
				log.Info().Str("run_id", artifact.RunID).Str("path", outPath).Msg("scan artifact written")
			}

			if asJSON || outPath == "" {
				return printScan(artifact, asJSON)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "path to a single OHLC csv file")
	cmd.Flags().StringVar(&csvDir, "csv-dir", "", "directory of <symbol>.csv files")
	cmd.Flags().BoolVar(&usePG, "pg", false, "load bars from postgres (data.postgres_dsn)")
	cmd.Flags().StringVar(&symbol, "symbol", "", "instrument symbol")
	cmd.Flags().BoolVar(&latest, "latest", false, "print only the latest snapshot")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of the table view")
	cmd.Flags().StringVar(&outPath, "out", "", "write the scan artifact to this path")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish the latest snapshot to redis (data.redis_addr)")
	_ = cmd.MarkFlagRequired("symbol")

	return cmd
}

type scanArtifact struct {
	RunID       string         `json:"run_id"`
	Symbol      string         `json:"symbol"`
	GeneratedAt time.Time      `json:"generated_at"`
	Bars        int            `json:"bars"`
	Latest      *demark.State  `json:"latest,omitempty"`
	States      []demark.State `json:"states,omitempty"`
}

func printScan(a scanArtifact, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}

	states := a.States
	if a.Latest != nil {
		states = []demark.State{*a.Latest}
	}

	fmt.Printf("%-6s %-5s %-5s %-5s %-4s %-9s %-9s %-9s %-9s\n",
		"idx", "setup", "cd", "tdst", "ma", "ma1", "ma2", "support", "hlow")
	for _, st := range states {
		tdst := "-"
		if st.TDSTActive {
			tdst = "on"
		}
		ma := "-"
		if st.EntryValid {
			ma = "both"
		} else if st.MA1Active || st.MA2Active {
			ma = "one"
		}
		fmt.Printf("%-6d %-5d %-5d %-5s %-4s %-9.4f %-9.4f %-9.4f %-9.4f\n",
			st.Index, st.SetupCount, st.Countdown, tdst, ma,
			st.MA1Value, st.MA2Value, st.TDSTSupport, st.RecentHigherLow)
	}
	return nil
}

func writeArtifact(path string, a scanArtifact) error {
	payload, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scan artifact: %w", err)
	}
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return fmt.Errorf("failed to write scan artifact: %w", err)
	}
	return nil
}

func publishSnapshot(ctx context.Context, cfg *config.Config, symbol string, st demark.State) error {
	if cfg.Data.RedisAddr == "" {
		return fmt.Errorf("--publish requested but data.redis_addr is empty")
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Data.RedisAddr})
	defer rdb.Close()

	store := data.NewSnapshotStore(rdb, time.Duration(cfg.Data.SnapshotTTLSeconds)*time.Second)
	return store.Put(ctx, symbol, st)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func buildSource(csvPath, csvDir string, usePG bool, cfg *config.Config) (data.Source, func(), error) {
	switch {
	case usePG:
		if cfg.Data.PostgresDSN == "" {
			return nil, nil, fmt.Errorf("postgres source requested but data.postgres_dsn is empty")
		}
		pg, err := data.NewPostgresSource(cfg.Data.PostgresDSN, cfg.Data.CandleTable, log.Logger)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { _ = pg.Close() }, nil
	case csvPath != "":
		return &data.CSVSource{Path: csvPath}, func() {}, nil
	case csvDir != "":
		return &data.CSVSource{Dir: csvDir}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("one of --csv, --csv-dir or --pg is required")
	}
}
