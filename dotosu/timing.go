package dotosu

import (
	"math"
	"strconv"
	"strings"
)

const (
	EffectKiai             = 1
	EffectOmitFirstBarLine = 8
)

// BPM is the tempo set by an uninherited point, or 0 for inherited points.
func (tp TimingPoint) BPM() float64 {
	if !tp.Uninherited || tp.BeatLength <= 0 {
		return 0
	}
	return 60000 / tp.BeatLength
}

// SliderVelocity is the multiplier an inherited point applies to the slider
// speed of the preceding uninherited point. Uninherited points return 1.
func (tp TimingPoint) SliderVelocity() float64 {
	if tp.Uninherited || tp.BeatLength >= 0 {
		return 1
	}
	return 100 / -tp.BeatLength
}

func (tp TimingPoint) effectFlags() int {
	e, err := strconv.Atoi(strings.TrimSpace(tp.Effects))
	if err != nil {
		return 0
	}
	return e
}

func (tp TimingPoint) Kiai() bool { return tp.effectFlags()&EffectKiai != 0 }

func (tp TimingPoint) OmitFirstBarLine() bool {
	return tp.effectFlags()&EffectOmitFirstBarLine != 0
}

// TimingAt returns the uninherited point governing time and the inherited
// point active after it, if any. Before the first uninherited point the first
// one applies. Both are nil when the map has no uninherited points.
func (b *Beatmap) TimingAt(time int) (red, green *TimingPoint) {
	for i := range b.TimingPoints {
		tp := &b.TimingPoints[i]
		if red != nil && tp.Time > time {
			break
		}
		if tp.Uninherited {
			red = tp
			green = nil
		} else if red != nil {
			green = tp
		}
	}
	return red, green
}

// BPMRange returns the slowest and fastest tempo across uninherited points.
func (b *Beatmap) BPMRange() (lo, hi float64) {
	lo, hi = math.Inf(1), 0
	for _, tp := range b.TimingPoints {
		bpm := tp.BPM()
		if bpm <= 0 {
			continue
		}
		lo = min(lo, bpm)
		hi = max(hi, bpm)
	}
	if hi == 0 {
		return 0, 0
	}
	return lo, hi
}
