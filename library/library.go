// Package library keeps a SQLite index of decoded beatmaps.
package library

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver.

	"osumap/dotosu"
)

// Entry is one indexed .osu file.
type Entry struct {
	Path         string
	MD5          string
	BeatmapID    int
	BeatmapSetID int
	Title        string
	Artist       string
	Creator      string
	Version      string
	Mode         dotosu.Mode
	HP, CS       float64
	OD, AR       float64
	Objects      int
	TimingPoints int
	BPMMin       float64
	BPMMax       float64
	Warnings     int
	IndexedAt    time.Time
}

// Failure is a file that could not be decoded.
type Failure struct {
	Path     string
	Reason   string
	FailedAt time.Time
}

// NewEntry summarises a decoded beatmap for the index.
func NewEntry(path, md5 string, b *dotosu.Beatmap) Entry {
	title := b.Metadata.Title
	if title == "" {
		title = b.Metadata.TitleUnicode
	}
	artist := b.Metadata.Artist
	if artist == "" {
		artist = b.Metadata.ArtistUnicode
	}
	lo, hi := b.BPMRange()
	return Entry{
		Path:         path,
		MD5:          md5,
		BeatmapID:    b.Metadata.BeatmapID,
		BeatmapSetID: b.Metadata.BeatmapSetID,
		Title:        title,
		Artist:       artist,
		Creator:      b.Metadata.Creator,
		Version:      b.Metadata.Version,
		Mode:         b.General.Mode,
		HP:           b.Difficulty.HPDrainRate,
		CS:           b.Difficulty.CircleSize,
		OD:           b.Difficulty.OverallDifficulty,
		AR:           b.Difficulty.ApproachRate,
		Objects:      len(b.HitObjects),
		TimingPoints: len(b.TimingPoints),
		BPMMin:       lo,
		BPMMax:       hi,
		Warnings:     len(b.Warnings),
	}
}

// Library wraps SQLite access for indexed beatmaps.
type Library struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies migrations.
func Open(path string) (*Library, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; index workers share a single connection.
	db.SetMaxOpenConns(1)
	lib := &Library{db: db}
	if err := lib.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return lib, nil
}

func (l *Library) Close() error {
	return l.db.Close()
}

func (l *Library) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS beatmaps (
			path TEXT PRIMARY KEY,
			md5 TEXT NOT NULL,
			beatmap_id INTEGER NOT NULL,
			beatmapset_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			creator TEXT NOT NULL,
			version TEXT NOT NULL,
			mode INTEGER NOT NULL,
			hp REAL NOT NULL,
			cs REAL NOT NULL,
			od REAL NOT NULL,
			ar REAL NOT NULL,
			objects INTEGER NOT NULL,
			timing_points INTEGER NOT NULL,
			bpm_min REAL NOT NULL,
			bpm_max REAL NOT NULL,
			warnings INTEGER NOT NULL,
			indexed_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS failures (
			path TEXT PRIMARY KEY,
			reason TEXT NOT NULL,
			failed_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_beatmaps_md5 ON beatmaps(md5);`,
		`CREATE INDEX IF NOT EXISTS idx_beatmaps_set ON beatmaps(beatmapset_id);`,
	}
	for _, stmt := range stmts {
		if _, err := l.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Upsert stores e, replacing any earlier entry or failure for the same path.
func (l *Library) Upsert(ctx context.Context, e Entry) (err error) {
	if e.IndexedAt.IsZero() {
		e.IndexedAt = time.Now()
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO beatmaps (path, md5, beatmap_id, beatmapset_id, title, artist, creator, version, mode,
			hp, cs, od, ar, objects, timing_points, bpm_min, bpm_max, warnings, indexed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
			md5 = excluded.md5, beatmap_id = excluded.beatmap_id, beatmapset_id = excluded.beatmapset_id,
			title = excluded.title, artist = excluded.artist, creator = excluded.creator,
			version = excluded.version, mode = excluded.mode, hp = excluded.hp, cs = excluded.cs,
			od = excluded.od, ar = excluded.ar, objects = excluded.objects,
			timing_points = excluded.timing_points, bpm_min = excluded.bpm_min,
			bpm_max = excluded.bpm_max, warnings = excluded.warnings, indexed_at = excluded.indexed_at`,
		e.Path, e.MD5, e.BeatmapID, e.BeatmapSetID, e.Title, e.Artist, e.Creator, e.Version, int(e.Mode),
		e.HP, e.CS, e.OD, e.AR, e.Objects, e.TimingPoints, e.BPMMin, e.BPMMax, e.Warnings,
		e.IndexedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM failures WHERE path = ?`, e.Path); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordFailure remembers that path could not be decoded and drops any entry
// indexed from an earlier version of the file.
func (l *Library) RecordFailure(ctx context.Context, path, reason string) (err error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO failures (path, reason, failed_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET reason = excluded.reason, failed_at = excluded.failed_at`,
		path, reason, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM beatmaps WHERE path = ?`, path); err != nil {
		return err
	}
	return tx.Commit()
}

// Query filters Search. A negative Mode matches every mode.
type Query struct {
	Term  string
	Mode  dotosu.Mode
	Limit int
}

// Search matches Term against title, artist, creator and difficulty name.
func (l *Library) Search(ctx context.Context, q Query) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if term := strings.TrimSpace(q.Term); term != "" {
		like := "%" + term + "%"
		where = append(where, `(title LIKE ? OR artist LIKE ? OR creator LIKE ? OR version LIKE ?)`)
		args = append(args, like, like, like, like)
	}
	if q.Mode >= 0 {
		where = append(where, `mode = ?`)
		args = append(args, int(q.Mode))
	}
	stmt := `SELECT path, md5, beatmap_id, beatmapset_id, title, artist, creator, version, mode,
		hp, cs, od, ar, objects, timing_points, bpm_min, bpm_max, warnings, indexed_at FROM beatmaps`
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY artist, title, version"
	if q.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := l.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			mode      int
			indexedAt string
		)
		if err := rows.Scan(&e.Path, &e.MD5, &e.BeatmapID, &e.BeatmapSetID, &e.Title, &e.Artist, &e.Creator,
			&e.Version, &mode, &e.HP, &e.CS, &e.OD, &e.AR, &e.Objects, &e.TimingPoints,
			&e.BPMMin, &e.BPMMax, &e.Warnings, &indexedAt); err != nil {
			return nil, err
		}
		e.Mode = dotosu.Mode(mode)
		if e.IndexedAt, err = time.Parse(time.RFC3339Nano, indexedAt); err != nil {
			return nil, fmt.Errorf("parse indexed_at for %s: %w", e.Path, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (l *Library) Failures(ctx context.Context) ([]Failure, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT path, reason, failed_at FROM failures ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var (
			f        Failure
			failedAt string
		)
		if err := rows.Scan(&f.Path, &f.Reason, &failedAt); err != nil {
			return nil, err
		}
		if f.FailedAt, err = time.Parse(time.RFC3339Nano, failedAt); err != nil {
			return nil, fmt.Errorf("parse failed_at for %s: %w", f.Path, err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Count returns the number of indexed beatmaps and recorded failures.
func (l *Library) Count(ctx context.Context) (beatmaps, failures int, err error) {
	if err = l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM beatmaps`).Scan(&beatmaps); err != nil {
		return 0, 0, err
	}
	if err = l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM failures`).Scan(&failures); err != nil {
		return 0, 0, err
	}
	return beatmaps, failures, nil
}
