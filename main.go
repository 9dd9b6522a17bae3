// Package main provides the osumap CLI: decode, inspect, index and download
// osu! beatmap files.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"osumap/dotosu"
)

var (
	configPath string
	logLevel   string
	logFormat  string

	fileCfg FileConfig
	logger  = zap.NewNop()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "osumap",
		Short:             "Decode, index and download osu! beatmaps",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", DefaultConfigPath(), "path to config.toml")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "console", "log format (console or json)")

	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newIndexCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newFetchSetCmd())

	return rootCmd
}

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	fileCfg = cfg
	applyStringConfig(cmd, "log-level", &logLevel, cfg.Log.Level)
	applyStringConfig(cmd, "log-format", &logFormat, cfg.Log.Format)

	l, err := newLogger(logLevel, logFormat)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	logger = l
	return nil
}

func decodeOptions(strict bool) []dotosu.Option {
	opts := []dotosu.Option{dotosu.WithLogger(logger)}
	if strict {
		opts = append(opts, dotosu.WithStrict())
	}
	return opts
}

func newParseCmd() *cobra.Command {
	var strict, compact bool
	cmd := &cobra.Command{
		Use:   "parse <file.osu>...",
		Short: "Decode .osu files and print them as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			if !compact {
				enc.SetIndent("", "\t")
			}
			for _, path := range args {
				b, err := dotosu.DecodeFile(path, decodeOptions(strict)...)
				if err != nil {
					return err
				}
				if err := enc.Encode(NewBeatmapJSON(path, b)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on the first malformed line")
	cmd.Flags().BoolVar(&compact, "compact", false, "print one JSON object per line")
	return cmd
}

func newInfoCmd() *cobra.Command {
	var (
		strict bool
		mods   Modifiers
	)
	cmd := &cobra.Command{
		Use:   "info <file.osu>",
		Short: "Summarise a beatmap and its derived difficulty values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if mods.Rate <= 0 {
				return fmt.Errorf("--rate must be positive, got %v", mods.Rate)
			}
			if mods.Hardrock && mods.Easy {
				return fmt.Errorf("--hr and --ez cannot be combined")
			}
			b, err := dotosu.DecodeFile(args[0], decodeOptions(strict)...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), RenderInfo(args[0], b, GetBeatmapConstants(b, mods)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on the first malformed line")
	cmd.Flags().BoolVar(&mods.Hardrock, "hr", false, "apply Hard Rock")
	cmd.Flags().BoolVar(&mods.Easy, "ez", false, "apply Easy")
	cmd.Flags().Float64Var(&mods.Rate, "rate", 1.0, "playback rate (1.5 for DT, 0.75 for HT)")
	return cmd
}
