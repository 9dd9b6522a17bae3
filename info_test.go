package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"osumap/dotosu"
)

func decodeSample(t *testing.T) *dotosu.Beatmap {
	t.Helper()
	b, err := dotosu.DecodeFile(filepath.Join("dotosu", "testdata", "sample.osu"))
	if err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	return b
}

func TestRenderInfo(t *testing.T) {
	b := decodeSample(t)
	out := RenderInfo("sample.osu", b, GetBeatmapConstants(b, Modifiers{Rate: 1.5, Hardrock: true}))

	for _, want := range []string{
		"Someone - Sample Song [Insane]",
		"beatmap 123456, set 654321",
		"bg.jpg",
		"120-150",
		"4 (1 circles, 1 sliders, 1 spinners, 1 holds)",
		"HR 1.50x",
		"2 warnings",
		"line 15 [Editor] invalid-number",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDescribeMods(t *testing.T) {
	cases := []struct {
		mods Modifiers
		want string
	}{
		{Modifiers{Rate: 1}, "none"},
		{Modifiers{Rate: 1, Easy: true}, "EZ"},
		{Modifiers{Rate: 0.75, Hardrock: true}, "HR 0.75x"},
	}
	for _, c := range cases {
		if got := describeMods(c.mods); got != c.want {
			t.Errorf("describeMods(%+v) = %q, want %q", c.mods, got, c.want)
		}
	}
}

func TestNewBeatmapJSON(t *testing.T) {
	data, err := json.Marshal(NewBeatmapJSON("sample.osu", decodeSample(t)))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got struct {
		Version    string `json:"version"`
		HitObjects []struct {
			Kind        string        `json:"kind"`
			EndPosition *dotosu.Point `json:"end_position"`
		} `json:"hit_objects"`
		Warnings []struct {
			Kind    string `json:"Kind"`
			Section string `json:"Section"`
		} `json:"warnings"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Version != "14" {
		t.Errorf("version = %q", got.Version)
	}
	kinds := make([]string, 0, len(got.HitObjects))
	for _, o := range got.HitObjects {
		kinds = append(kinds, o.Kind)
	}
	if strings.Join(kinds, ",") != "circle,slider,spinner,hold" {
		t.Errorf("kinds = %v", kinds)
	}
	if end := got.HitObjects[1].EndPosition; end == nil || *end != (dotosu.Point{X: 100, Y: 100}) {
		t.Errorf("slider end position = %v", end)
	}
	if got.HitObjects[0].EndPosition != nil {
		t.Errorf("circle should not have an end position")
	}
	if len(got.Warnings) != 2 || got.Warnings[0].Kind != "invalid-number" || got.Warnings[0].Section != "Editor" {
		t.Errorf("warnings = %+v", got.Warnings)
	}
}

func TestNewBeatmapJSONEmptySlices(t *testing.T) {
	data, err := json.Marshal(NewBeatmapJSON("", decodeString(t, "osu file format v14\n")))
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{`"timing_points":[]`, `"hit_objects":[]`, `"warnings":[]`} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %s in %s", want, s)
		}
	}
}
