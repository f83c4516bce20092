package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"stocksense/internal/analysis"
	"stocksense/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stocksense",
		Short: "Stock recommendation and backtesting toolkit",
		Long: `stocksense analyzes a stock's price history, technical signals and
news sentiment, trains a forecaster and a classifier on the fly and
produces a BUY/HOLD/SELL recommendation or a historical backtest.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the YAML configuration")

	cmd.AddCommand(analyzeCmd(&configPath))
	cmd.AddCommand(backtestCmd(&configPath))
	return cmd
}

func analyzeCmd(configPath *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze <symbol>",
		Short: "Generate a recommendation for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(strings.TrimSpace(args[0]))
			if symbol == "" {
				return analysis.ErrNoSymbol
			}

			svc, shutdown, err := bootstrap(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer shutdown()

			rec := svc.Recommend(cmd.Context(), symbol)
			if asJSON {
				b, err := json.MarshalIndent(rec, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(b))
				return nil
			}

			fmt.Printf("%s: %s (%.1f%% confidence)\n", rec.Symbol, rec.Action, rec.Confidence)
			if rec.Detail != "" {
				fmt.Printf("  %s\n", rec.Detail)
			}
			for name, value := range rec.Signals {
				fmt.Printf("  %-10s %s\n", name, value)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full recommendation as JSON")
	return cmd
}

func backtestCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backtest <symbol>",
		Short: "Replay the strategy over a symbol's history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(strings.TrimSpace(args[0]))
			if symbol == "" {
				return analysis.ErrNoSymbol
			}

			svc, shutdown, err := bootstrap(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer shutdown()

			rec := svc.Recommend(cmd.Context(), symbol)
			result, err := svc.BacktestRecommendation(cmd.Context(), rec)
			if err != nil {
				logger.ErrorWithErr(cmd.Context(), "Backtest failed", err, "symbol", symbol)
				return err
			}

			fmt.Printf("Backtest %s over %s\n\n", result.Symbol, result.Period)
			if rec.ForecastClose != 0 {
				fmt.Printf("Forecast close %.2f vs last close %.2f\n", rec.ForecastClose, rec.LastClose)
			}
			fmt.Print(result.Run.Summary())
			fmt.Printf("\nHeld-out classification:\n%s", result.Report.String())
			return nil
		},
	}
	return cmd
}
