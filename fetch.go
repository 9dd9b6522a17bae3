package main

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"osumap/dotosu"
	"osumap/library"
)

// downloadFlags are shared by fetch and fetch-set.
type downloadFlags struct {
	dir         string
	baseURL     string
	session     string
	rateLimit   int
	concurrency int
	index       bool
	libPath     string
}

func (f *downloadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dir, "dir", DefaultDownloadDir(), "directory downloaded files are written to")
	cmd.Flags().StringVar(&f.baseURL, "base-url", defaultBaseURL, "site to download from")
	cmd.Flags().StringVar(&f.session, "session", "", "osu_session cookie value")
	cmd.Flags().IntVar(&f.rateLimit, "rate-limit", defaultRateLimit, "requests allowed per minute")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", defaultConcurrentReqs, "requests in flight")
	cmd.Flags().BoolVar(&f.index, "index", false, "also add downloaded files to the library")
	cmd.Flags().StringVar(&f.libPath, "library", DefaultLibraryPath(), "path to the library database")
}

func (f *downloadFlags) apply(cmd *cobra.Command) {
	c := fileCfg.Download
	applyStringConfig(cmd, "dir", &f.dir, c.Dir)
	applyStringConfig(cmd, "base-url", &f.baseURL, c.BaseURL)
	applyStringConfig(cmd, "session", &f.session, c.Session)
	applyIntConfig(cmd, "rate-limit", &f.rateLimit, c.RateLimit)
	applyIntConfig(cmd, "concurrency", &f.concurrency, c.Concurrency)
	applyStringConfig(cmd, "library", &f.libPath, fileCfg.Library.Path)
}

// fetcher holds what one fetch run needs: the downloader, the optional
// library and a lock for output written from worker goroutines.
type fetcher struct {
	dl     *Downloader
	lib    *library.Library
	out    io.Writer
	outMu  sync.Mutex
	failed atomic.Int32
}

func newFetcher(cmd *cobra.Command, f *downloadFlags) (*fetcher, error) {
	f.apply(cmd)
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return nil, err
	}
	fe := &fetcher{
		dl: &Downloader{
			BaseURL:      f.baseURL,
			Session:      f.session,
			Throttle:     NewThrottle(f.rateLimit, f.concurrency),
			Log:          logger,
			Retries:      3,
			RetryBackoff: 30 * time.Second,
		},
		out: cmd.OutOrStdout(),
	}
	if f.index {
		lib, err := library.Open(f.libPath)
		if err != nil {
			fe.dl.Throttle.Stop()
			return nil, fmt.Errorf("failed to open library: %w", err)
		}
		fe.lib = lib
	}
	return fe, nil
}

func (fe *fetcher) Close() {
	fe.dl.Throttle.Stop()
	if fe.lib != nil {
		if err := fe.lib.Close(); err != nil {
			logger.Error("failed to close library", zap.Error(err))
		}
	}
}

func (fe *fetcher) printf(format string, args ...any) {
	fe.outMu.Lock()
	defer fe.outMu.Unlock()
	fmt.Fprintf(fe.out, format, args...)
}

// save writes one .osu file, decodes it and indexes it when a library is
// open. Files that fail to decode are kept on disk and recorded as failures.
func (fe *fetcher) save(ctx context.Context, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	b, err := dotosu.Decode(bytes.NewReader(data), decodeOptions(false)...)
	if err != nil {
		Fail(ctx, fe.lib, logger, path, err)
		fe.printf("%s saved, but it does not decode: %v\n", path, err)
		return nil
	}
	if fe.lib != nil {
		sum := md5.Sum(data)
		if err := fe.lib.Upsert(ctx, library.NewEntry(path, hex.EncodeToString(sum[:]), b)); err != nil {
			return fmt.Errorf("failed to index %s: %w", path, err)
		}
	}
	m := b.Metadata
	fe.printf("%s saved (%s - %s [%s])\n", path, m.Artist, m.Title, m.Version)
	return nil
}

// run downloads every id with at most concurrency jobs in flight. A failed
// id is logged and counted; the others keep going.
func (fe *fetcher) run(ctx context.Context, ids []int, concurrency int, job func(ctx context.Context, id int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for _, id := range ids {
		id := id
		g.Go(func() error {
			err := Safe(func() error { return job(gctx, id) })
			if err == nil {
				return nil
			}
			if gctx.Err() != nil {
				return err
			}
			fe.failed.Add(1)
			logger.Error("download failed", zap.Int("id", id), zap.Error(err))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if n := fe.failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d downloads failed", n, len(ids))
	}
	return nil
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func newFetchCmd() *cobra.Command {
	var flags downloadFlags
	cmd := &cobra.Command{
		Use:   "fetch <beatmap-id>...",
		Short: "Download .osu files by beatmap id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			fe, err := newFetcher(cmd, &flags)
			if err != nil {
				return err
			}
			defer fe.Close()

			return fe.run(cmd.Context(), ids, flags.concurrency, func(ctx context.Context, id int) error {
				data, err := fe.dl.DownloadBeatmap(ctx, id)
				if err != nil {
					return err
				}
				return fe.save(ctx, filepath.Join(flags.dir, strconv.Itoa(id)+".osu"), data)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newFetchSetCmd() *cobra.Command {
	var (
		flags   downloadFlags
		noVideo bool
	)
	cmd := &cobra.Command{
		Use:   "fetch-set <beatmapset-id>...",
		Short: "Download beatmap sets and extract their .osu files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			fe, err := newFetcher(cmd, &flags)
			if err != nil {
				return err
			}
			defer fe.Close()

			return fe.run(cmd.Context(), ids, flags.concurrency, func(ctx context.Context, id int) error {
				files, err := fe.dl.DownloadBeatmapset(ctx, id, noVideo)
				if err != nil {
					return err
				}
				if len(files) == 0 {
					return fmt.Errorf("set %d has no .osu files", id)
				}
				dir := filepath.Join(flags.dir, strconv.Itoa(id))
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
				names := make([]string, 0, len(files))
				for name := range files {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					if err := fe.save(ctx, filepath.Join(dir, name), files[name]); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&noVideo, "no-video", true, "ask for the archive without the background video")
	return cmd
}
