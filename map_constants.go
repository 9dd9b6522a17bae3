package main

import "osumap/dotosu"

type Modifiers struct {
	Rate float64

	Hardrock bool
	Easy     bool
}

// MapConstants are the play-time values derived from a beatmap's
// [Difficulty] section under a set of modifiers.
type MapConstants struct {
	Mods         Modifiers
	CircleRadius float64
	ApproachRate float64
	Preempt      float64
	Window300    float64
	Window100    float64
	Window50     float64
}

func GetBeatmapConstants(
	beatmap *dotosu.Beatmap,
	mods Modifiers,
) MapConstants {
	if mods.Rate <= 0 {
		mods.Rate = 1
	}

	cs := beatmap.Difficulty.CircleSize
	if mods.Hardrock {
		cs = min(cs*1.3, 10)
	}
	if mods.Easy {
		cs = cs / 2
	}

	circleRadius := 54.4 - 4.48*cs

	ar := beatmap.Difficulty.ApproachRate
	// maps that never set ApproachRate use OverallDifficulty
	if !beatmap.Declared(dotosu.SectionDifficulty, "ApproachRate") {
		ar = beatmap.Difficulty.OverallDifficulty
	}

	od := beatmap.Difficulty.OverallDifficulty
	if mods.Hardrock {
		od = min(10, od*1.4)
	}
	if mods.Easy {
		od = od / 2
	}

	if mods.Hardrock {
		ar = min(10, ar*1.4)
	}
	if mods.Easy {
		ar = ar / 2
	}

	preempt := ApproachRateToPreempt(ar) / mods.Rate
	ar = PreemptToAR(preempt)

	window300 := (80 - 6*od) / mods.Rate //+- this
	window100 := (140 - 8*od) / mods.Rate
	window50 := (200 - 10*od) / mods.Rate

	return MapConstants{
		Mods:         mods,
		CircleRadius: circleRadius,
		ApproachRate: ar,
		Preempt:      preempt,
		Window300:    window300,
		Window100:    window100,
		Window50:     window50,
	}
}

func ApproachRateToPreempt(ar float64) float64 {
	if ar < 5 {
		return 1200 + 120*(5-ar)
	} else if ar == 5 {
		return 1200
	} else {
		return 1200 - 150*(ar-5)
	}
}

func PreemptToAR(preempt float64) float64 {
	if preempt > 1200 {
		return 5 - (preempt-1200)/120
	} else if preempt == 1200 {
		return 5
	} else {
		return 5 + (1200-preempt)/150
	}
}
