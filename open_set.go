package main

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"osumap/dotosu"
)

// Decoded is the outcome of decoding one file. Exactly one of Beatmap and Err
// is set.
type Decoded struct {
	Path     string
	MD5      string
	Beatmap  *dotosu.Beatmap
	Err      error
	Duration time.Duration
}

// FindBeatmapFiles returns every .osu file under dir, sorted. Unreadable
// entries are logged and skipped.
func FindBeatmapFiles(dir string, log *zap.Logger) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	var paths []string
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn("skipping unreadable entry", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".osu") {
			paths = append(paths, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

// DecodeFiles decodes paths on up to workers goroutines. Per-file failures
// are reported in the results, which keep the order of paths; the returned
// error is only set when ctx is cancelled.
func DecodeFiles(ctx context.Context, paths []string, workers int, opts ...dotosu.Option) ([]Decoded, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make([]Decoded, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range paths {
		if gctx.Err() != nil {
			break
		}
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = decodeOne(p, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func decodeOne(path string, opts []dotosu.Option) Decoded {
	res := Decoded{Path: path}
	start := time.Now()
	res.Err = Safe(func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			return &dotosu.ReadError{Path: path, Err: err}
		}
		sum := md5.Sum(data)
		res.MD5 = hex.EncodeToString(sum[:])

		b, err := dotosu.Decode(bytes.NewReader(data), opts...)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		res.Beatmap = b
		return nil
	})
	if res.Err != nil {
		res.Beatmap = nil
	}
	res.Duration = time.Since(start)
	return res
}
