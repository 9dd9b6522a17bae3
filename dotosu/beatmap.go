package dotosu

// Beatmap is the decoded form of a single .osu file. Fields that the file does
// not declare keep their zero value; use Declared to tell the two apart.
type Beatmap struct {
	Version    string
	General    General
	Editor     Editor
	Metadata   Metadata
	Difficulty Difficulty
	Events     Events

	TimingPoints []TimingPoint
	HitObjects   []HitObject

	// Warnings lists every line that was skipped or only partially understood,
	// in file order.
	Warnings []Warning

	declared map[string]struct{}
}

type Mode int

const (
	ModeOsu Mode = iota
	ModeTaiko
	ModeCatch
	ModeMania
)

func (m Mode) String() string {
	switch m {
	case ModeOsu:
		return "osu"
	case ModeTaiko:
		return "taiko"
	case ModeCatch:
		return "fruits"
	case ModeMania:
		return "mania"
	}
	return "unknown"
}

type General struct {
	AudioFilename        string
	AudioLeadIn          int
	PreviewTime          int
	Countdown            int
	SampleSet            string
	StackLeniency        float64
	Mode                 Mode
	LetterboxInBreaks    bool
	WidescreenStoryboard bool

	SampleVolume             int
	CountdownOffset          int
	SpecialStyle             bool
	EpilepsyWarning          bool
	SamplesMatchPlaybackRate bool
}

type Editor struct {
	Bookmarks       []int
	DistanceSpacing float64
	BeatDivisor     int
	GridSize        int
	TimelineZoom    float64
}

// Metadata.Version is the difficulty name, not the file format version.
type Metadata struct {
	Title, TitleUnicode     string
	Artist, ArtistUnicode   string
	Creator, Version        string
	Source                  string
	Tags                    []string
	BeatmapID, BeatmapSetID int
}

type Difficulty struct {
	HPDrainRate, CircleSize, OverallDifficulty, ApproachRate float64
	SliderMultiplier, SliderTickRate                         float64
}

type Events struct {
	Background string
}

// TimingPoint is one row of [TimingPoints]. BeatLength is negative for
// inherited points; it is stored as written and never resolved here.
type TimingPoint struct {
	Time        int
	BeatLength  float64
	Meter       int
	SampleSet   int
	SampleIndex int
	Volume      int
	Uninherited bool
	Effects     string
}

// Declared reports whether a key/value line in the given section assigned the
// named key, e.g. Declared(SectionDifficulty, "ApproachRate").
func (b *Beatmap) Declared(section Section, key string) bool {
	_, ok := b.declared[declaredKey(section, key)]
	return ok
}

func (b *Beatmap) markDeclared(section Section, key string) {
	if b.declared == nil {
		b.declared = make(map[string]struct{})
	}
	b.declared[declaredKey(section, key)] = struct{}{}
}

func declaredKey(section Section, key string) string {
	return section.String() + "." + key
}

// ObjectCounts tallies hit objects per kind.
type ObjectCounts struct {
	Circles, Sliders, Spinners, Holds, Unknown int
}

func (c ObjectCounts) Total() int {
	return c.Circles + c.Sliders + c.Spinners + c.Holds + c.Unknown
}

func (b *Beatmap) Counts() ObjectCounts {
	var c ObjectCounts
	for _, o := range b.HitObjects {
		switch o.Kind() {
		case KindCircle:
			c.Circles++
		case KindSlider:
			c.Sliders++
		case KindSpinner:
			c.Spinners++
		case KindHold:
			c.Holds++
		default:
			c.Unknown++
		}
	}
	return c
}
