package dotosu

import "testing"

func TestTimingPointHelpers(t *testing.T) {
	red := TimingPoint{BeatLength: 500, Uninherited: true, Effects: "0"}
	green := TimingPoint{BeatLength: -50, Effects: "9"}

	if red.BPM() != 120 || green.BPM() != 0 {
		t.Fatalf("bpm = %v, %v", red.BPM(), green.BPM())
	}
	if red.SliderVelocity() != 1 || green.SliderVelocity() != 2 {
		t.Fatalf("sv = %v, %v", red.SliderVelocity(), green.SliderVelocity())
	}
	if red.Kiai() || !green.Kiai() || !green.OmitFirstBarLine() {
		t.Fatalf("effects decoded wrong")
	}
	if (TimingPoint{Effects: "garbage"}).Kiai() {
		t.Fatalf("unparsable effects must read as no flags")
	}
}

func TestTimingAt(t *testing.T) {
	b := &Beatmap{TimingPoints: []TimingPoint{
		{Time: 100, BeatLength: 500, Uninherited: true},
		{Time: 200, BeatLength: -50},
		{Time: 1000, BeatLength: 250, Uninherited: true},
		{Time: 1500, BeatLength: -200},
	}}

	tests := []struct {
		time  int
		red   int
		green int // -1 for none
	}{
		{time: 0, red: 100, green: -1},
		{time: 150, red: 100, green: -1},
		{time: 200, red: 100, green: 200},
		{time: 999, red: 100, green: 200},
		{time: 1000, red: 1000, green: -1},
		{time: 2000, red: 1000, green: 1500},
	}
	for _, tt := range tests {
		red, green := b.TimingAt(tt.time)
		if red == nil || red.Time != tt.red {
			t.Fatalf("t=%d: red = %+v", tt.time, red)
		}
		if tt.green == -1 {
			if green != nil {
				t.Fatalf("t=%d: green = %+v, want none", tt.time, green)
			}
			continue
		}
		if green == nil || green.Time != tt.green {
			t.Fatalf("t=%d: green = %+v", tt.time, green)
		}
	}

	if red, green := (&Beatmap{}).TimingAt(10); red != nil || green != nil {
		t.Fatalf("empty map returned timing points")
	}
}

func TestBPMRange(t *testing.T) {
	b := &Beatmap{TimingPoints: []TimingPoint{
		{BeatLength: 500, Uninherited: true},
		{BeatLength: -100},
		{BeatLength: 250, Uninherited: true},
	}}
	lo, hi := b.BPMRange()
	if lo != 120 || hi != 240 {
		t.Fatalf("range = %v-%v", lo, hi)
	}
	if lo, hi := (&Beatmap{}).BPMRange(); lo != 0 || hi != 0 {
		t.Fatalf("empty range = %v-%v", lo, hi)
	}
}
