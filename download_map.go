package main

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/levigross/grequests"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://osu.ppy.sh"
	userAgent      = "osumap/1.0 (+https://github.com/osumap/osumap)"
)

// ErrRateLimited is returned when the server keeps asking us to slow down.
var ErrRateLimited = errors.New("rate limited")

// Downloader fetches .osu and .osz files from an osu! compatible site.
type Downloader struct {
	BaseURL  string
	Session  string // osu_session cookie, needed for set downloads from osu.ppy.sh
	Throttle *Throttle
	Log      *zap.Logger

	// Retries after a rate limit response; zero means no retry.
	Retries      int
	RetryBackoff time.Duration
}

type setDownloadQuery struct {
	NoVideo int `url:"noVideo,omitempty"`
}

// DownloadBeatmap fetches the .osu file of one difficulty.
func (d *Downloader) DownloadBeatmap(ctx context.Context, beatmapID int) ([]byte, error) {
	url := fmt.Sprintf("%s/osu/%d", strings.TrimRight(d.BaseURL, "/"), beatmapID)
	data, err := d.get(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("download beatmap %d: %w", beatmapID, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("download beatmap %d: empty response", beatmapID)
	}
	return data, nil
}

// DownloadBeatmapset fetches a .osz archive and returns its .osu members keyed
// by file name.
func (d *Downloader) DownloadBeatmapset(ctx context.Context, setID int, noVideo bool) (map[string][]byte, error) {
	q := setDownloadQuery{}
	if noVideo {
		q.NoVideo = 1
	}
	values, err := query.Values(q)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/beatmapsets/%d/download", strings.TrimRight(d.BaseURL, "/"), setID)
	if enc := values.Encode(); enc != "" {
		url += "?" + enc
	}

	var cookies []*http.Cookie
	if d.Session != "" {
		cookies = append(cookies, &http.Cookie{Name: "osu_session", Value: d.Session})
	}
	data, err := d.get(ctx, url, cookies)
	if err != nil {
		return nil, fmt.Errorf("download set %d: %w", setID, err)
	}
	files, err := ExtractOsuFiles(data)
	if err != nil {
		return nil, fmt.Errorf("set %d: %w", setID, err)
	}
	return files, nil
}

func (d *Downloader) get(ctx context.Context, url string, cookies []*http.Cookie) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		data, err := d.getOnce(ctx, url, cookies)
		if !errors.Is(err, ErrRateLimited) || attempt >= d.Retries {
			return data, err
		}
		wait := d.RetryBackoff << attempt
		d.logger().Warn("rate limited, backing off", zap.String("url", url), zap.Duration("wait", wait))
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (d *Downloader) getOnce(ctx context.Context, url string, cookies []*http.Cookie) ([]byte, error) {
	if d.Throttle != nil {
		done, err := d.Throttle.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer done()
	}

	d.logger().Debug("downloading", zap.String("url", url))
	resp, err := grequests.Get(url, grequests.FromRequestOptions(&grequests.RequestOptions{
		Context:        ctx,
		UserAgent:      userAgent,
		Cookies:        cookies,
		RequestTimeout: 10 * time.Minute,
		Headers: map[string]string{
			"Accept": "*/*",
		},
	}))
	if err != nil {
		if strings.Contains(err.Error(), "connection refused") {
			return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return nil, err
	}
	defer resp.Close()

	body := resp.Bytes()
	if resp.StatusCode == http.StatusTooManyRequests || bytes.Contains(body, []byte("Slow down, play more.")) {
		return nil, ErrRateLimited
	}
	if !resp.Ok {
		return nil, fmt.Errorf("received status %d from %s", resp.StatusCode, url)
	}
	return body, nil
}

func (d *Downloader) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

// ExtractOsuFiles reads an .osz (zip) archive and returns its top level .osu
// files. Nested or directory entries are skipped.
func ExtractOsuFiles(osz []byte) (map[string][]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(osz), int64(len(osz)))
	if err != nil {
		return nil, fmt.Errorf("open osz: %w", err)
	}

	osuFiles := make(map[string][]byte)
	for _, file := range zr.File {
		if !strings.EqualFold(path.Ext(file.Name), ".osu") || file.FileInfo().IsDir() {
			continue
		}
		if strings.ContainsAny(file.Name, `/\`) {
			continue
		}
		data, err := readZipFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file.Name, err)
		}
		osuFiles[file.Name] = data
	}
	if len(osuFiles) == 0 {
		return nil, errors.New("no .osu files in archive")
	}
	return osuFiles, nil
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
