package library

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osumap/dotosu"
)

func openTestLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := Open(filepath.Join(t.TempDir(), "sub", "library.db"))
	require.NoError(t, err, "Failed to open library")
	t.Cleanup(func() {
		assert.NoError(t, lib.Close())
	})
	return lib
}

func decode(t *testing.T, src string) *dotosu.Beatmap {
	t.Helper()
	b, err := dotosu.Decode(strings.NewReader(src))
	require.NoError(t, err, "Failed to decode beatmap")
	return b
}

const mapA = `osu file format v14
[General]
Mode: 0
[Metadata]
Title:Blue Zenith
Artist:xi
Creator:Asphyxia
Version:FOUR DIMENSIONS
BeatmapID:658127
BeatmapSetID:292301
[Difficulty]
CircleSize:4
ApproachRate:9.3
[TimingPoints]
0,300,4,2,1,60,1,0
10,-100,4,2,1,60,0,0
[HitObjects]
256,192,500,1,0
`

const mapB = `osu file format v14
[General]
Mode: 3
[Metadata]
TitleUnicode:千本桜
Artist:WhiteFlame
Creator:someone
Version:7K
`

func TestNewEntry(t *testing.T) {
	e := NewEntry("a.osu", "abc", decode(t, mapA))
	assert.Equal(t, "Blue Zenith", e.Title)
	assert.Equal(t, "xi", e.Artist)
	assert.Equal(t, 658127, e.BeatmapID)
	assert.Equal(t, 292301, e.BeatmapSetID)
	assert.Equal(t, 1, e.Objects)
	assert.Equal(t, 2, e.TimingPoints)
	assert.Equal(t, 200.0, e.BPMMin)
	assert.Equal(t, 200.0, e.BPMMax)

	b := NewEntry("b.osu", "def", decode(t, mapB))
	assert.Equal(t, "千本桜", b.Title, "TitleUnicode is used when Title is missing")
	assert.Equal(t, dotosu.ModeMania, b.Mode)
}

func TestUpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	lib := openTestLibrary(t)

	require.NoError(t, lib.Upsert(ctx, NewEntry("a.osu", "abc", decode(t, mapA))))
	require.NoError(t, lib.Upsert(ctx, NewEntry("b.osu", "def", decode(t, mapB))))

	all, err := lib.Search(ctx, Query{Mode: -1})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "WhiteFlame", all[0].Artist)
	assert.Equal(t, "xi", all[1].Artist)

	got, err := lib.Search(ctx, Query{Term: "zenith", Mode: -1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a.osu", got[0].Path)
	assert.Equal(t, 9.3, got[0].AR)
	assert.False(t, got[0].IndexedAt.IsZero(), "indexed_at not round-tripped")

	mania, err := lib.Search(ctx, Query{Mode: dotosu.ModeMania})
	require.NoError(t, err)
	require.Len(t, mania, 1)
	assert.Equal(t, "b.osu", mania[0].Path)

	limited, err := lib.Search(ctx, Query{Mode: -1, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := lib.Search(ctx, Query{Term: "nothing matches", Mode: -1})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpsertReplacesAndClearsFailure(t *testing.T) {
	ctx := context.Background()
	lib := openTestLibrary(t)

	require.NoError(t, lib.RecordFailure(ctx, "a.osu", "unsupported version"))
	n, f, err := lib.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, f)

	failures, err := lib.Failures(ctx)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "unsupported version", failures[0].Reason)

	e := NewEntry("a.osu", "abc", decode(t, mapA))
	require.NoError(t, lib.Upsert(ctx, e))
	e.MD5 = "changed"
	require.NoError(t, lib.Upsert(ctx, e))

	n, f, err = lib.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, f, "a successful upsert clears the failure row")

	got, err := lib.Search(ctx, Query{Mode: -1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "changed", got[0].MD5)
}

func TestRecordFailureRemovesIndexedEntry(t *testing.T) {
	ctx := context.Background()
	lib := openTestLibrary(t)

	require.NoError(t, lib.Upsert(ctx, NewEntry("a.osu", "abc", decode(t, mapA))))
	require.NoError(t, lib.Upsert(ctx, NewEntry("b.osu", "def", decode(t, mapB))))
	require.NoError(t, lib.RecordFailure(ctx, "a.osu", "unsupported version"))

	n, f, err := lib.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the stale entry is removed")
	assert.Equal(t, 1, f)

	got, err := lib.Search(ctx, Query{Mode: -1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b.osu", got[0].Path)
}

func TestRecordFailureOverwrites(t *testing.T) {
	ctx := context.Background()
	lib := openTestLibrary(t)

	require.NoError(t, lib.RecordFailure(ctx, "x.osu", "first"))
	require.NoError(t, lib.RecordFailure(ctx, "x.osu", "second"))

	failures, err := lib.Failures(ctx)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "second", failures[0].Reason)
}
