package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"osumap/library"
)

func newIndexCmd() *cobra.Command {
	var (
		workers     int
		strict      bool
		libPath     string
		metricsFile string
	)
	cmd := &cobra.Command{
		Use:   "index <dir>",
		Short: "Decode every .osu file under a directory into the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyIntConfig(cmd, "workers", &workers, fileCfg.Index.Workers)
			applyBoolConfig(cmd, "strict", &strict, fileCfg.Index.Strict)
			applyStringConfig(cmd, "library", &libPath, fileCfg.Library.Path)
			applyStringConfig(cmd, "metrics-file", &metricsFile, fileCfg.Metrics.File)

			ctx := cmd.Context()
			paths, err := FindBeatmapFiles(args[0], logger)
			if err != nil {
				return err
			}
			logger.Info("decoding beatmaps", zap.Int("files", len(paths)), zap.Int("workers", workers))

			lib, err := library.Open(libPath)
			if err != nil {
				return fmt.Errorf("failed to open library: %w", err)
			}
			defer func() {
				if cerr := lib.Close(); cerr != nil {
					logger.Error("failed to close library", zap.Error(cerr))
				}
			}()

			results, err := DecodeFiles(ctx, paths, workers, decodeOptions(strict)...)
			if err != nil {
				return err
			}

			metrics := NewParseMetrics()
			indexed, warnings := 0, 0
			for _, r := range results {
				metrics.Observe(r)
				if r.Err != nil {
					Fail(ctx, lib, logger, r.Path, r.Err)
					continue
				}
				if err := lib.Upsert(ctx, library.NewEntry(r.Path, r.MD5, r.Beatmap)); err != nil {
					return fmt.Errorf("failed to index %s: %w", r.Path, err)
				}
				indexed++
				warnings += len(r.Beatmap.Warnings)
			}

			if metricsFile != "" {
				if err := metrics.WriteTextfile(metricsFile); err != nil {
					return fmt.Errorf("failed to write metrics: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d/%d .osu files into %s (%d warnings, %d failed)\n",
				indexed, len(results), libPath, warnings, len(results)-indexed)

			total, failed, err := lib.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "library holds %d beatmaps, %d failures\n", total, failed)
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "files decoded in parallel")
	cmd.Flags().BoolVar(&strict, "strict", false, "treat any malformed line as a failure")
	cmd.Flags().StringVar(&libPath, "library", DefaultLibraryPath(), "path to the library database")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus textfile metrics here")
	return cmd
}
