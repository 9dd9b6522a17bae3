package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"osumap/dotosu"
	"osumap/library"
)

const titleWidth = 40

func newSearchCmd() *cobra.Command {
	var (
		libPath  string
		mode     string
		limit    int
		asJSON   bool
		failures bool
	)
	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Search the library by title, artist, creator or difficulty name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyStringConfig(cmd, "library", &libPath, fileCfg.Library.Path)

			m, err := parseMode(mode)
			if err != nil {
				return err
			}
			lib, err := library.Open(libPath)
			if err != nil {
				return fmt.Errorf("failed to open library: %w", err)
			}
			defer func() {
				if cerr := lib.Close(); cerr != nil {
					logger.Error("failed to close library", zap.Error(cerr))
				}
			}()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if failures {
				list, err := lib.Failures(ctx)
				if err != nil {
					return err
				}
				return printFailures(out, list, asJSON)
			}

			q := library.Query{Mode: m, Limit: limit}
			if len(args) > 0 {
				q.Term = args[0]
			}
			entries, err := lib.Search(ctx, q)
			if err != nil {
				return err
			}
			return printEntries(out, entries, asJSON)
		},
	}
	cmd.Flags().StringVar(&libPath, "library", DefaultLibraryPath(), "path to the library database")
	cmd.Flags().StringVar(&mode, "mode", "", "only show one mode (osu, taiko, fruits, mania)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of results, 0 for all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().BoolVar(&failures, "failures", false, "list files that failed to decode instead")
	return cmd
}

// parseMode accepts a mode name or its numeric id. Empty means every mode.
func parseMode(s string) (dotosu.Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return -1, nil
	case "osu", "std", "standard":
		return dotosu.ModeOsu, nil
	case "taiko":
		return dotosu.ModeTaiko, nil
	case "fruits", "catch", "ctb":
		return dotosu.ModeCatch, nil
	case "mania":
		return dotosu.ModeMania, nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= int(dotosu.ModeMania) {
		return dotosu.Mode(n), nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

func printEntries(w io.Writer, entries []library.Entry, asJSON bool) error {
	if asJSON {
		if entries == nil {
			entries = []library.Entry{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "\t")
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "no beatmaps found")
		return err
	}

	headers := []string{"ID", "MODE", "ARTIST - TITLE [VERSION]", "OBJECTS", "BPM", "PATH"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		name := fmt.Sprintf("%s - %s [%s]", e.Artist, e.Title, e.Version)
		rows = append(rows, []string{
			strconv.Itoa(e.BeatmapID),
			e.Mode.String(),
			truncateCell(name, titleWidth),
			strconv.Itoa(e.Objects),
			formatBPM(e.BPMMin, e.BPMMax),
			e.Path,
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{0: true, 3: true, 4: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func printFailures(w io.Writer, list []library.Failure, asJSON bool) error {
	if asJSON {
		if list == nil {
			list = []library.Failure{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "\t")
		return enc.Encode(list)
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no failures recorded")
		return err
	}
	rows := make([][]string, 0, len(list))
	for _, f := range list {
		rows = append(rows, []string{f.Path, f.FailedAt.Local().Format("2006-01-02 15:04"), f.Reason})
	}
	for _, line := range formatTable([]string{"PATH", "FAILED", "REASON"}, rows, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatBPM(lo, hi float64) string {
	switch {
	case hi == 0:
		return "-"
	case lo == hi:
		return strconv.FormatFloat(hi, 'f', 0, 64)
	}
	return strconv.FormatFloat(lo, 'f', 0, 64) + "-" + strconv.FormatFloat(hi, 'f', 0, 64)
}
