package dotosu

import (
	"errors"
	"fmt"
)

var (
	// ErrVersion matches every *VersionError.
	ErrVersion = errors.New("unsupported .osu format version")
	// ErrMissingVersion matches a *VersionError raised because the file never
	// declared a format version.
	ErrMissingVersion = errors.New("missing .osu format version line")
)

// ReadError is returned when the input cannot be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("read beatmap: %v", e.Err)
	}
	return fmt.Sprintf("read beatmap %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// VersionError is returned when the format version line is absent, malformed
// or names a revision other than SUPPORTED_VERSION. No beatmap is produced.
type VersionError struct {
	Path   string
	Line   int
	Text   string
	Found  string
	Reason string

	missing bool
}

func (e *VersionError) Error() string {
	msg := "format version: " + e.Reason
	if e.Text != "" {
		msg = fmt.Sprintf("format version (line %d %q): %s", e.Line, e.Text, e.Reason)
	}
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	return msg
}

func (e *VersionError) Is(target error) bool {
	return target == ErrVersion || (e.missing && target == ErrMissingVersion)
}

type WarningKind int

const (
	WarnUnknownKey WarningKind = iota + 1
	WarnTimingPointFields
	WarnMalformedLine
	WarnInvalidNumber
	WarnUnknownHitObject
)

func (k WarningKind) String() string {
	switch k {
	case WarnUnknownKey:
		return "unknown-key"
	case WarnTimingPointFields:
		return "timing-point-fields"
	case WarnMalformedLine:
		return "malformed-line"
	case WarnInvalidNumber:
		return "invalid-number"
	case WarnUnknownHitObject:
		return "unknown-hit-object"
	}
	return fmt.Sprintf("warning(%d)", int(k))
}

func (k WarningKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Warning is a recoverable problem with a single line. The line was skipped,
// or a field on it fell back to its zero value.
type Warning struct {
	Line    int
	Section Section
	Kind    WarningKind
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d [%s] %s: %s", w.Line, w.Section, w.Kind, w.Message)
}

// LineError is returned instead of a Warning when decoding WithStrict.
type LineError struct {
	Path    string
	Warning Warning
}

func (e *LineError) Error() string {
	if e.Path == "" {
		return e.Warning.String()
	}
	return e.Path + ": " + e.Warning.String()
}
