package dotosu

import (
	"strings"
)

// ---------- HitObject enums & typed variants ----------

type ObjectKind uint8

const (
	KindCircle ObjectKind = iota
	KindSlider
	KindSpinner
	KindHold
	KindUnknown
)

func (k ObjectKind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindSlider:
		return "slider"
	case KindSpinner:
		return "spinner"
	case KindHold:
		return "hold"
	}
	return "unknown"
}

func (k ObjectKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

type HitSoundFlags uint8

const (
	HitSoundNormal  HitSoundFlags = 1 << iota // 1
	HitSoundWhistle                           // 2
	HitSoundFinish                            // 4
	HitSoundClap                              // 8
)

type SampleSet uint8

const (
	SampleNone SampleSet = iota
	SampleNormal
	SampleSoft
	SampleDrum
)

type HitObjectTypeFlags int

const (
	TypeCircle     HitObjectTypeFlags = 1 << iota // 1
	TypeSlider                                    // 2
	TypeNewCombo                                  // 4
	TypeSpinner                                   // 8
	TypeComboSkip1                                // 16
	TypeComboSkip2                                // 32
	TypeComboSkip3                                // 64
	TypeHold       HitObjectTypeFlags = 1 << 7    // 128
)

// ComboSkip is the number of combo colours skipped by a new combo (0-7).
func (f HitObjectTypeFlags) ComboSkip() int {
	return int(f>>4) & 7
}

type Vec2 struct{ X, Y int }

type HitSample struct {
	NormalSet   SampleSet
	AdditionSet SampleSet
	Index       int
	Volume      int
	Filename    string
}

type EdgeSet struct {
	NormalSet   SampleSet
	AdditionSet SampleSet
}

type CurveType uint8

const (
	CurveBezier CurveType = iota
	CurveLinear
	CurveCatmull
	CurvePerfect
)

func (c CurveType) String() string {
	switch c {
	case CurveLinear:
		return "L"
	case CurveCatmull:
		return "C"
	case CurvePerfect:
		return "P"
	}
	return "B"
}

// SliderPath holds the curve as written plus its segments. Segments include
// the slider head; bezier curves split into a new segment at every repeated
// control point (red anchor).
type SliderPath struct {
	Type          CurveType
	ControlPoints []Vec2
	Segments      [][]Vec2
}

// HitObject is one line of [HitObjects]. Fields returns the raw comma
// separated tokens the object was decoded from.
type HitObject interface {
	Kind() ObjectKind
	StartTime() int
	Pos() Vec2
	Type() HitObjectTypeFlags
	NewCombo() bool
	HitSound() HitSoundFlags
	Sample() HitSample
	Fields() []string
}

type BaseObject struct {
	Position  Vec2
	Time      int
	Flags     HitObjectTypeFlags
	Sound     HitSoundFlags
	HitSample HitSample
	Tokens    []string
}

func (b BaseObject) StartTime() int           { return b.Time }
func (b BaseObject) Pos() Vec2                { return b.Position }
func (b BaseObject) Type() HitObjectTypeFlags { return b.Flags }
func (b BaseObject) NewCombo() bool           { return b.Flags&TypeNewCombo != 0 }
func (b BaseObject) HitSound() HitSoundFlags  { return b.Sound }
func (b BaseObject) Sample() HitSample        { return b.HitSample }
func (b BaseObject) Fields() []string         { return b.Tokens }

type Circle struct{ BaseObject }

func (Circle) Kind() ObjectKind { return KindCircle }

type Slider struct {
	BaseObject
	Path       SliderPath
	Slides     int
	Length     float64
	EdgeSounds []HitSoundFlags
	EdgeSets   []EdgeSet
}

func (Slider) Kind() ObjectKind { return KindSlider }

type Spinner struct {
	BaseObject
	EndTime int
}

func (Spinner) Kind() ObjectKind { return KindSpinner }

type Hold struct {
	BaseObject
	EndTime int
}

func (Hold) Kind() ObjectKind { return KindHold }

// UnknownObject carries lines whose type bits name no known kind, or that are
// too short to decode. Only Tokens is guaranteed to be meaningful.
type UnknownObject struct{ BaseObject }

func (UnknownObject) Kind() ObjectKind { return KindUnknown }

// ---------- decoding ----------

func field(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

func (d *decoder) decodeHitObject(line string) HitObject {
	parts := strings.Split(line, ",")
	if len(parts) < 5 {
		d.warn(WarnMalformedLine, "hit object needs at least 5 fields, got %d", len(parts))
		return UnknownObject{BaseObject{Tokens: parts}}
	}

	base := BaseObject{
		Position: Vec2{X: d.parseInt("x", parts[0]), Y: d.parseInt("y", parts[1])},
		Time:     d.parseInt("time", parts[2]),
		Flags:    HitObjectTypeFlags(d.parseInt("type", parts[3])),
		Sound:    HitSoundFlags(d.parseInt("hitSound", parts[4])),
		Tokens:   parts,
	}

	switch {
	case base.Flags&TypeHold != 0:
		// mania hold: "endTime:hitSample"
		end, sample, _ := strings.Cut(field(parts, 5), ":")
		base.HitSample = d.parseHitSample(sample)
		return Hold{BaseObject: base, EndTime: d.optInt("endTime", end)}

	case base.Flags&TypeSpinner != 0:
		base.HitSample = d.parseHitSample(field(parts, 6))
		return Spinner{BaseObject: base, EndTime: d.optInt("endTime", field(parts, 5))}

	case base.Flags&TypeSlider != 0:
		return d.decodeSlider(base, parts)

	case base.Flags&TypeCircle != 0:
		base.HitSample = d.parseHitSample(field(parts, 5))
		return Circle{BaseObject: base}
	}

	d.warn(WarnUnknownHitObject, "type %d names no hit object kind", int(base.Flags))
	return UnknownObject{base}
}

// decodeSlider reads curveType|curvePoints,slides,length,edgeSounds,edgeSets,hitSample.
func (d *decoder) decodeSlider(base BaseObject, parts []string) Slider {
	if len(parts) < 8 {
		d.warn(WarnMalformedLine, "slider needs at least 8 fields, got %d", len(parts))
	}
	s := Slider{
		BaseObject: base,
		Path:       d.parseSliderPath(base.Position, field(parts, 5)),
		Slides:     1,
	}
	if v := field(parts, 6); strings.TrimSpace(v) != "" {
		s.Slides = d.parseInt("slides", v)
	}
	if v := field(parts, 7); strings.TrimSpace(v) != "" {
		s.Length = d.parseFloat("length", v)
	}
	if v := field(parts, 8); strings.TrimSpace(v) != "" {
		for _, n := range strings.Split(v, "|") {
			s.EdgeSounds = append(s.EdgeSounds, HitSoundFlags(d.parseInt("edgeSounds", n)))
		}
	}
	if v := field(parts, 9); strings.TrimSpace(v) != "" {
		for _, p := range strings.Split(v, "|") {
			normal, addition, _ := strings.Cut(p, ":")
			s.EdgeSets = append(s.EdgeSets, EdgeSet{
				NormalSet:   toSampleSet(d.optInt("edgeSets", normal)),
				AdditionSet: toSampleSet(d.optInt("edgeSets", addition)),
			})
		}
	}
	s.HitSample = d.parseHitSample(field(parts, 10))
	return s
}

// parseHitSample reads normalSet:additionSet:index:volume:filename. Missing
// trailing parts are zero.
func (d *decoder) parseHitSample(s string) HitSample {
	if strings.TrimSpace(s) == "" {
		return HitSample{}
	}
	parts := strings.SplitN(s, ":", 5)
	return HitSample{
		NormalSet:   toSampleSet(d.optInt("normalSet", field(parts, 0))),
		AdditionSet: toSampleSet(d.optInt("additionSet", field(parts, 1))),
		Index:       d.optInt("index", field(parts, 2)),
		Volume:      d.optInt("volume", field(parts, 3)),
		Filename:    strings.Trim(strings.TrimSpace(field(parts, 4)), `"`),
	}
}

func toSampleSet(id int) SampleSet {
	switch id {
	case 1:
		return SampleNormal
	case 2:
		return SampleSoft
	case 3:
		return SampleDrum
	default:
		return SampleNone
	}
}

// parseSliderPath converts "B|x:y|x:y|..." into a SliderPath whose first
// point is the slider head.
func (d *decoder) parseSliderPath(head Vec2, curve string) SliderPath {
	typeStr, rest, _ := strings.Cut(strings.TrimSpace(curve), "|")

	var cps []Vec2
	if strings.TrimSpace(rest) != "" {
		for _, t := range strings.Split(rest, "|") {
			x, y, ok := strings.Cut(strings.TrimSpace(t), ":")
			if !ok {
				d.warn(WarnMalformedLine, "slider control point %q is not x:y", t)
				continue
			}
			cps = append(cps, Vec2{X: d.parseInt("curveX", x), Y: d.parseInt("curveY", y)})
		}
	}

	var pType CurveType
	switch strings.ToUpper(strings.TrimSpace(typeStr)) {
	case "L":
		pType = CurveLinear
	case "C":
		pType = CurveCatmull
	case "P":
		pType = CurvePerfect
	default:
		pType = CurveBezier
	}

	path := SliderPath{Type: pType, ControlPoints: cps}
	switch pType {
	case CurvePerfect:
		// A perfect circle needs exactly three points; anything else is drawn as bezier.
		if len(cps) != 2 {
			path.Segments = bezierSegments(head, cps)
			return path
		}
		path.Segments = [][]Vec2{append([]Vec2{head}, cps...)}
	case CurveLinear, CurveCatmull:
		path.Segments = [][]Vec2{append([]Vec2{head}, cps...)}
	default:
		path.Segments = bezierSegments(head, cps)
	}
	return path
}

func bezierSegments(head Vec2, cps []Vec2) [][]Vec2 {
	var segs [][]Vec2
	cur := []Vec2{head}
	for _, p := range cps {
		if p == cur[len(cur)-1] {
			if len(cur) >= 2 {
				segs = append(segs, cur)
			}
			cur = []Vec2{p}
			continue
		}
		cur = append(cur, p)
	}
	if len(cur) >= 2 {
		segs = append(segs, cur)
	}
	if len(segs) == 0 {
		segs = [][]Vec2{{head, head}}
	}
	return segs
}
