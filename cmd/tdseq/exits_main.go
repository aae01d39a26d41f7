package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tdmkt/tdseq/internal/domain/demark"
	"github.com/tdmkt/tdseq/internal/exits"
)

func newExitsCmd() *cobra.Command {
	var (
		csvPath  string
		csvDir   string
		usePG    bool
		symbol   string
		entry    float64
		daysHeld int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "exits",
		Short: "Evaluate the three tranche exit gates for a position",
		Long:  "Folds the bar series, then evaluates the de-risk, structural and runner tranches against the latest snapshot and the given position context.",
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

			engine := demark.New(cfg.Engine, demark.WithLogger(log.Logger))
			engine.Run(bars)
			latest, err := engine.Latest()
			if err != nil {
				return fmt.Errorf("cannot evaluate exits: %w", err)
			}

			evaluator := exits.NewEvaluator(&cfg.Exits)
			decisions := evaluator.Evaluate(exits.Inputs{
				Symbol:     symbol,
				Close:      bars[len(bars)-1].Close,
				State:      latest,
				EntryPrice: entry,
				DaysHeld:   daysHeld,
			})

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(decisions)
			}

			for _, d := range decisions {
				verdict := "hold"
				if d.Triggered {
					verdict = fmt.Sprintf("EXIT %.0f%% (%s: %s)", d.Fraction*100, d.ReasonLabel, d.TriggeredBy)
				}
				fmt.Printf("%-20s %s\n", d.Tranche, verdict)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "path to a single OHLC csv file")
	cmd.Flags().StringVar(&csvDir, "csv-dir", "", "directory of <symbol>.csv files")
	cmd.Flags().BoolVar(&usePG, "pg", false, "load bars from postgres (data.postgres_dsn)")
	cmd.Flags().StringVar(&symbol, "symbol", "", "instrument symbol")
	cmd.Flags().Float64Var(&entry, "entry", 0, "position entry price")
	cmd.Flags().IntVar(&daysHeld, "days-held", 0, "days the position has been held")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of the table view")
	_ = cmd.MarkFlagRequired("symbol")
	_ = cmd.MarkFlagRequired("entry")

	return cmd
}
