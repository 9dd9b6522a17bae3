package main

import (
	"math"
	"strings"
	"testing"

	"osumap/dotosu"
)

func decodeString(t *testing.T, s string) *dotosu.Beatmap {
	t.Helper()
	b, err := dotosu.Decode(strings.NewReader(s))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return b
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

const difficultyMap = `osu file format v14

[Difficulty]
HPDrainRate:5
CircleSize:4
OverallDifficulty:8
ApproachRate:9.2
`

func TestGetBeatmapConstantsNoMods(t *testing.T) {
	c := GetBeatmapConstants(decodeString(t, difficultyMap), Modifiers{Rate: 1})

	if !approx(c.CircleRadius, 36.48) {
		t.Errorf("radius = %v", c.CircleRadius)
	}
	if !approx(c.Preempt, 570) {
		t.Errorf("preempt = %v", c.Preempt)
	}
	if !approx(c.ApproachRate, 9.2) {
		t.Errorf("ar = %v", c.ApproachRate)
	}
	if !approx(c.Window300, 32) || !approx(c.Window100, 76) || !approx(c.Window50, 120) {
		t.Errorf("windows = %v %v %v", c.Window300, c.Window100, c.Window50)
	}
}

func TestGetBeatmapConstantsHardrockCapsAR(t *testing.T) {
	c := GetBeatmapConstants(decodeString(t, difficultyMap), Modifiers{Rate: 1, Hardrock: true})
	if !approx(c.ApproachRate, 10) || !approx(c.Preempt, 450) {
		t.Errorf("ar = %v, preempt = %v", c.ApproachRate, c.Preempt)
	}
	if !approx(c.CircleRadius, 54.4-4.48*5.2) {
		t.Errorf("radius = %v", c.CircleRadius)
	}
}

func TestGetBeatmapConstantsRate(t *testing.T) {
	c := GetBeatmapConstants(decodeString(t, difficultyMap), Modifiers{Rate: 1.5})
	if !approx(c.Preempt, 380) {
		t.Errorf("preempt = %v", c.Preempt)
	}
	if !approx(c.ApproachRate, 5+820.0/150) {
		t.Errorf("ar = %v", c.ApproachRate)
	}

	zero := GetBeatmapConstants(decodeString(t, difficultyMap), Modifiers{})
	if zero.Mods.Rate != 1 || !approx(zero.Preempt, 570) {
		t.Errorf("zero rate should mean 1, got %+v", zero)
	}
}

func TestGetBeatmapConstantsApproachRateFallsBackToOD(t *testing.T) {
	b := decodeString(t, "osu file format v14\n[Difficulty]\nOverallDifficulty:7\n")
	c := GetBeatmapConstants(b, Modifiers{Rate: 1})
	if !approx(c.ApproachRate, 7) {
		t.Errorf("ar = %v, want 7", c.ApproachRate)
	}

	b = decodeString(t, "osu file format v14\n[Difficulty]\nOverallDifficulty:7\nApproachRate:0\n")
	c = GetBeatmapConstants(b, Modifiers{Rate: 1})
	if !approx(c.ApproachRate, 0) {
		t.Errorf("explicit AR 0 should be kept, got %v", c.ApproachRate)
	}
}

func TestPreemptRoundTrip(t *testing.T) {
	for _, ar := range []float64{0, 3.5, 5, 8, 10, 11} {
		if got := PreemptToAR(ApproachRateToPreempt(ar)); !approx(got, ar) {
			t.Errorf("ar %v round-trips to %v", ar, got)
		}
	}
}
