package dotosu

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	SUPPORTED_VERSION = "14"
	MAX_LINE_LENGTH   = 1024 * 1024
)

type Section int

const (
	SectionDefault Section = iota
	SectionGeneral
	SectionEditor
	SectionMetadata
	SectionDifficulty
	SectionEvents
	SectionTimingPoints
	SectionColours
	SectionHitObjects
)

var sectionHeaders = map[string]Section{
	"[General]":      SectionGeneral,
	"[Editor]":       SectionEditor,
	"[Metadata]":     SectionMetadata,
	"[Difficulty]":   SectionDifficulty,
	"[Events]":       SectionEvents,
	"[TimingPoints]": SectionTimingPoints,
	"[Colours]":      SectionColours,
	"[HitObjects]":   SectionHitObjects,
}

func (s Section) String() string {
	switch s {
	case SectionDefault:
		return "Default"
	case SectionGeneral:
		return "General"
	case SectionEditor:
		return "Editor"
	case SectionMetadata:
		return "Metadata"
	case SectionDifficulty:
		return "Difficulty"
	case SectionEvents:
		return "Events"
	case SectionTimingPoints:
		return "TimingPoints"
	case SectionColours:
		return "Colours"
	case SectionHitObjects:
		return "HitObjects"
	}
	return fmt.Sprintf("Section(%d)", int(s))
}

func (s Section) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ---------- Public API ----------

func DecodeFile(path string, opts ...Option) (*Beatmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	defer f.Close()
	return newDecoder(path, opts).decode(f)
}

// Decode reads a v14 .osu file from r. It fails only when r cannot be read or
// the format version is not supported; every other problem is recorded in
// Beatmap.Warnings and the offending line is skipped.
func Decode(r io.Reader, opts ...Option) (*Beatmap, error) {
	return newDecoder("", opts).decode(r)
}

// ---------- decoder ----------

type decoder struct {
	opts options
	path string
	log  *zap.Logger

	b             *Beatmap
	section       Section
	line          int
	backgroundSet bool
	err           error
}

func newDecoder(path string, opts []Option) *decoder {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if path != "" {
		log = log.With(zap.String("path", path))
	}
	return &decoder{opts: o, path: path, log: log, b: &Beatmap{}}
}

func (d *decoder) decode(r io.Reader) (*Beatmap, error) {
	// A byte-order mark selects the decoder; without one the input is UTF-8.
	src := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	br := bufio.NewReaderSize(src, 64*1024)

	versionSeen := false
	for {
		line, tooLong, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ReadError{Path: d.path, Err: err}
		}
		d.line++
		if tooLong {
			if !versionSeen {
				return nil, &VersionError{Path: d.path, Line: d.line, Reason: "missing version field"}
			}
			d.warn(WarnMalformedLine, "line is longer than %d bytes", MAX_LINE_LENGTH)
			if d.err != nil {
				return nil, d.err
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		if !versionSeen {
			if err := d.decodeVersion(line); err != nil {
				return nil, err
			}
			versionSeen = true
			continue
		}

		if sec, ok := sectionHeaders[line]; ok {
			d.section = sec
			continue
		}

		switch d.section {
		case SectionDefault:
			d.warn(WarnMalformedLine, "content before the first section header")
		case SectionGeneral, SectionEditor, SectionMetadata, SectionDifficulty:
			d.decodeKeyValue(line)
		case SectionEvents:
			d.decodeEvent(line)
		case SectionTimingPoints:
			d.decodeTimingPoint(line)
		case SectionColours:
			// colours are not part of the model
		case SectionHitObjects:
			d.b.HitObjects = append(d.b.HitObjects, d.decodeHitObject(line))
		}
		if d.err != nil {
			return nil, d.err
		}
	}
	if !versionSeen {
		return nil, &VersionError{Path: d.path, Reason: "file is empty", missing: true}
	}
	return d.b, nil
}

// readLine returns the next line without its "\n" or "\r\n" terminator.
// A line longer than MAX_LINE_LENGTH is consumed and reported as tooLong
// with its content dropped. io.EOF is returned only once nothing is left.
func readLine(br *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	read := 0
	for {
		chunk, rerr := br.ReadSlice('\n')
		read += len(chunk)
		if !tooLong {
			buf = append(buf, chunk...)
			if len(buf) > MAX_LINE_LENGTH+2 {
				tooLong, buf = true, nil
			}
		}
		if rerr == bufio.ErrBufferFull {
			continue
		}
		if rerr != nil && (rerr != io.EOF || read == 0) {
			return "", false, rerr
		}
		break
	}
	if tooLong {
		return "", true, nil
	}
	line = strings.TrimSuffix(string(buf), "\n")
	line = strings.TrimSuffix(line, "\r")
	if len(line) > MAX_LINE_LENGTH {
		return "", true, nil
	}
	return line, false, nil
}

func (d *decoder) decodeVersion(line string) error {
	if _, isHeader := sectionHeaders[line]; isHeader {
		return &VersionError{Path: d.path, Line: d.line, Text: line, Reason: "section header before format version", missing: true}
	}
	tokens := strings.Split(line, " ")
	if len(tokens) < 4 {
		return &VersionError{Path: d.path, Line: d.line, Text: line, Reason: "missing version field"}
	}
	version, ok := strings.CutPrefix(tokens[3], "v")
	if !ok {
		return &VersionError{Path: d.path, Line: d.line, Text: line, Reason: "version field does not start with 'v'"}
	}
	if version != SUPPORTED_VERSION {
		return &VersionError{
			Path: d.path, Line: d.line, Text: line, Found: version,
			Reason: fmt.Sprintf("only v%s beatmaps are supported", SUPPORTED_VERSION),
		}
	}
	d.b.Version = version
	return nil
}

func (d *decoder) warn(kind WarningKind, format string, args ...any) {
	w := Warning{Line: d.line, Section: d.section, Kind: kind, Message: fmt.Sprintf(format, args...)}
	d.b.Warnings = append(d.b.Warnings, w)
	d.log.Debug("beatmap line not fully decoded",
		zap.Int("line", w.Line),
		zap.Stringer("section", w.Section),
		zap.Stringer("kind", w.Kind),
		zap.String("message", w.Message),
	)
	if d.opts.strict && d.err == nil {
		d.err = &LineError{Path: d.path, Warning: w}
	}
}

// ---------- key/value sections ----------

func splitKeyVal(line string) (key, val string, ok bool) {
	key, val, ok = strings.Cut(line, ":")
	return strings.TrimSpace(key), strings.TrimSpace(val), ok
}

func (d *decoder) decodeKeyValue(line string) {
	k, v, ok := splitKeyVal(line)
	if !ok {
		d.warn(WarnMalformedLine, "expected key: value, got %q", line)
		return
	}

	var known bool
	switch d.section {
	case SectionGeneral:
		known = d.decodeGeneral(k, v)
	case SectionEditor:
		known = d.decodeEditor(k, v)
	case SectionMetadata:
		known = d.decodeMetadata(k, v)
	case SectionDifficulty:
		known = d.decodeDifficulty(k, v)
	}
	if !known {
		d.warn(WarnUnknownKey, "key %q is not recognised", k)
		return
	}
	d.b.markDeclared(d.section, k)
}

func (d *decoder) decodeGeneral(k, v string) bool {
	g := &d.b.General
	switch k {
	case "AudioFilename":
		g.AudioFilename = v
	case "AudioLeadIn":
		g.AudioLeadIn = d.parseInt(k, v)
	case "PreviewTime":
		g.PreviewTime = d.parseInt(k, v)
	case "Countdown":
		g.Countdown = d.parseInt(k, v)
	case "SampleSet":
		g.SampleSet = v
	case "StackLeniency":
		g.StackLeniency = d.parseFloat(k, v)
	case "Mode":
		g.Mode = Mode(d.parseInt(k, v))
	case "LetterboxInBreaks":
		g.LetterboxInBreaks = d.parseBoolInt(k, v)
	case "WidescreenStoryboard":
		g.WidescreenStoryboard = d.parseBoolInt(k, v)
	case "SampleVolume":
		g.SampleVolume = d.parseInt(k, v)
	case "CountdownOffset":
		g.CountdownOffset = d.parseInt(k, v)
	case "SpecialStyle":
		g.SpecialStyle = d.parseBoolInt(k, v)
	case "EpilepsyWarning":
		g.EpilepsyWarning = d.parseBoolInt(k, v)
	case "SamplesMatchPlaybackRate":
		g.SamplesMatchPlaybackRate = d.parseBoolInt(k, v)
	default:
		return false
	}
	return true
}

func (d *decoder) decodeEditor(k, v string) bool {
	e := &d.b.Editor
	switch k {
	case "Bookmarks":
		e.Bookmarks = nil
		if v == "" {
			break
		}
		for _, p := range strings.Split(v, ",") {
			e.Bookmarks = append(e.Bookmarks, d.parseInt(k, p))
		}
	case "DistanceSpacing":
		e.DistanceSpacing = d.parseFloat(k, v)
	case "BeatDivisor":
		e.BeatDivisor = d.parseInt(k, v)
	case "GridSize":
		e.GridSize = d.parseInt(k, v)
	case "TimelineZoom":
		e.TimelineZoom = d.parseFloat(k, v)
	default:
		return false
	}
	return true
}

func (d *decoder) decodeMetadata(k, v string) bool {
	m := &d.b.Metadata
	switch k {
	case "Title":
		m.Title = v
	case "TitleUnicode":
		m.TitleUnicode = v
	case "Artist":
		m.Artist = v
	case "ArtistUnicode":
		m.ArtistUnicode = v
	case "Creator":
		m.Creator = v
	case "Version":
		m.Version = v
	case "Source":
		m.Source = v
	case "Tags":
		m.Tags = nil
		for _, tag := range strings.Split(v, " ") {
			if tag != "" {
				m.Tags = append(m.Tags, tag)
			}
		}
	case "BeatmapID":
		m.BeatmapID = d.parseInt(k, v)
	case "BeatmapSetID":
		m.BeatmapSetID = d.parseInt(k, v)
	default:
		return false
	}
	return true
}

func (d *decoder) decodeDifficulty(k, v string) bool {
	df := &d.b.Difficulty
	switch k {
	case "HPDrainRate":
		df.HPDrainRate = d.parseFloat(k, v)
	case "CircleSize":
		df.CircleSize = d.parseFloat(k, v)
	case "OverallDifficulty":
		df.OverallDifficulty = d.parseFloat(k, v)
	case "ApproachRate":
		df.ApproachRate = d.parseFloat(k, v)
	case "SliderMultiplier":
		df.SliderMultiplier = d.parseFloat(k, v)
	case "SliderTickRate":
		df.SliderTickRate = d.parseFloat(k, v)
	default:
		return false
	}
	return true
}

// ---------- [Events] / [TimingPoints] ----------

// decodeEvent keeps the first background event ("0,0,\"bg.jpg\",...") and
// ignores videos, breaks and storyboard commands. A background with an empty
// file name does not count as the first one.
func (d *decoder) decodeEvent(line string) {
	if !strings.HasPrefix(line, "0") || d.backgroundSet {
		return
	}
	parts := strings.Split(line, ",")
	if len(parts) < 3 {
		d.warn(WarnMalformedLine, "background event needs 3 fields, got %d", len(parts))
		return
	}
	bg := strings.ReplaceAll(parts[2], `"`, "")
	if bg == "" {
		return
	}
	d.b.Events.Background = bg
	d.backgroundSet = true
}

func (d *decoder) decodeTimingPoint(line string) {
	parts := strings.Split(line, ",")
	if len(parts) != 8 {
		d.warn(WarnTimingPointFields, "timing point needs 8 fields, got %d", len(parts))
		return
	}
	d.b.TimingPoints = append(d.b.TimingPoints, TimingPoint{
		Time:        d.parseInt("time", parts[0]),
		BeatLength:  d.parseFloat("beatLength", parts[1]),
		Meter:       d.parseInt("meter", parts[2]),
		SampleSet:   d.parseInt("sampleSet", parts[3]),
		SampleIndex: d.parseInt("sampleIndex", parts[4]),
		Volume:      d.parseInt("volume", parts[5]),
		Uninherited: d.parseBoolInt("uninherited", parts[6]),
		Effects:     parts[7],
	})
}

// ---------- parsing helpers ----------

// parseInt returns 0 for anything strconv rejects and reports it.
func (d *decoder) parseInt(field, s string) int {
	s = strings.TrimSpace(s)
	v, err := strconv.Atoi(s)
	if err != nil {
		d.warn(WarnInvalidNumber, "%s: %q is not an integer", field, s)
		return 0
	}
	return v
}

func (d *decoder) parseFloat(field, s string) float64 {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		d.warn(WarnInvalidNumber, "%s: %q is not a number", field, s)
		return 0
	}
	return v
}

// optInt is parseInt for trailing optional fields, where empty means zero.
func (d *decoder) optInt(field, s string) int {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	return d.parseInt(field, s)
}

// parseBoolInt maps 1 to true and every other value to false.
func (d *decoder) parseBoolInt(field, s string) bool {
	return d.parseInt(field, s) == 1
}
