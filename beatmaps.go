package main

import (
	"osumap/dotosu"
)

// BeatmapJSON is the shape `osumap parse` prints. Hit objects are wrapped so
// the output says which variant each one is.
type BeatmapJSON struct {
	Path         string               `json:"path,omitempty"`
	Version      string               `json:"version"`
	General      dotosu.General       `json:"general"`
	Editor       dotosu.Editor        `json:"editor"`
	Metadata     dotosu.Metadata      `json:"metadata"`
	Difficulty   dotosu.Difficulty    `json:"difficulty"`
	Events       dotosu.Events        `json:"events"`
	TimingPoints []dotosu.TimingPoint `json:"timing_points"`
	HitObjects   []HitObjectJSON      `json:"hit_objects"`
	Warnings     []dotosu.Warning     `json:"warnings"`
}

type HitObjectJSON struct {
	Kind   dotosu.ObjectKind `json:"kind"`
	Object dotosu.HitObject  `json:"object"`
	// EndPosition is only set for sliders.
	EndPosition *dotosu.Point `json:"end_position,omitempty"`
}

func NewBeatmapJSON(path string, b *dotosu.Beatmap) BeatmapJSON {
	out := BeatmapJSON{
		Path:         path,
		Version:      b.Version,
		General:      b.General,
		Editor:       b.Editor,
		Metadata:     b.Metadata,
		Difficulty:   b.Difficulty,
		Events:       b.Events,
		TimingPoints: b.TimingPoints,
		HitObjects:   make([]HitObjectJSON, 0, len(b.HitObjects)),
		Warnings:     b.Warnings,
	}
	if out.TimingPoints == nil {
		out.TimingPoints = []dotosu.TimingPoint{}
	}
	if out.Warnings == nil {
		out.Warnings = []dotosu.Warning{}
	}
	for _, o := range b.HitObjects {
		obj := HitObjectJSON{Kind: o.Kind(), Object: o}
		if s, ok := o.(dotosu.Slider); ok {
			end := s.EndPosition()
			obj.EndPosition = &end
		}
		out.HitObjects = append(out.HitObjects, obj)
	}
	return out
}
