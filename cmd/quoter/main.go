package main

import (
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "quoter",
		Short:        "Off-chain V3 pool swap quoter",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote swap amounts against the current pool state",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("rpc", "", "RPC URL")
	quoteCmd.Flags().String("pool", "", "V3 pool address")
	quoteCmd.Flags().String("token-in", "", "input token address (defaults to token0)")
	quoteCmd.Flags().StringSlice("amount", nil, "input amounts in base units (comma-separated)")
	quoteCmd.Flags().Uint32("window", 150, "ticks fetched per batch")
	quoteCmd.Flags().String("out", "", "optional output JSONL path")
	quoteCmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow pool swaps and re-quote after each trade",
		RunE:  runWatch,
	}

	watchCmd.Flags().String("rpc", "", "RPC URL")
	watchCmd.Flags().String("pool", "", "V3 pool address")
	watchCmd.Flags().String("token-in", "", "input token address (defaults to token0)")
	watchCmd.Flags().StringSlice("amount", nil, "input amounts in base units (comma-separated)")
	watchCmd.Flags().Uint32("window", 150, "ticks fetched per batch")
	watchCmd.Flags().Uint64("from", 0, "start block (inclusive), 0 means latest")
	watchCmd.Flags().Duration("poll-interval", 12*time.Second, "poll interval for new blocks")
	watchCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	watchCmd.Flags().String("out", "./data/quotes.jsonl", "output JSONL path")
	watchCmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	watchCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	watchCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	watchCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	watchCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	watchCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(watchCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func parseAddress(input, name string) (common.Address, error) {
	if input == "" {
		return common.Address{}, fmt.Errorf("%s is required", name)
	}
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid %s: %s", name, input)
	}
	return common.HexToAddress(input), nil
}

func parseOptionalAddress(input, name string) (common.Address, error) {
	if input == "" {
		return common.Address{}, nil
	}
	return parseAddress(input, name)
}

func parseAmounts(items []string) ([]*big.Int, error) {
	amounts := make([]*big.Int, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		amount, ok := new(big.Int).SetString(item, 10)
		if !ok {
			return nil, fmt.Errorf("invalid amount: %s", item)
		}
		if amount.Sign() < 0 {
			return nil, fmt.Errorf("amount must not be negative: %s", item)
		}
		amounts = append(amounts, amount)
	}
	if len(amounts) == 0 {
		return nil, fmt.Errorf("at least one amount is required")
	}
	return amounts, nil
}
