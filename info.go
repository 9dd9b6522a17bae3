package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"osumap/dotosu"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// RenderInfo formats a beatmap summary for the terminal.
func RenderInfo(path string, b *dotosu.Beatmap, c MapConstants) string {
	m := b.Metadata
	title := fmt.Sprintf("%s - %s [%s]", orUnicode(m.Artist, m.ArtistUnicode), orUnicode(m.Title, m.TitleUnicode), m.Version)

	var rows []string
	row := func(label, value string) {
		rows = append(rows, labelStyle.Render(label)+value)
	}
	row("File", path)
	row("Creator", m.Creator)
	if m.BeatmapID != 0 || m.BeatmapSetID != 0 {
		row("IDs", fmt.Sprintf("beatmap %d, set %d", m.BeatmapID, m.BeatmapSetID))
	}
	row("Mode", b.General.Mode.String())
	row("Audio", b.General.AudioFilename)
	if b.Events.Background != "" {
		row("Background", b.Events.Background)
	}

	d := b.Difficulty
	row("Difficulty", fmt.Sprintf("HP %.1f  CS %.1f  OD %.1f  AR %.1f", d.HPDrainRate, d.CircleSize, d.OverallDifficulty, d.ApproachRate))
	row("Sliders", fmt.Sprintf("multiplier %.2f, tick rate %.2f", d.SliderMultiplier, d.SliderTickRate))

	lo, hi := b.BPMRange()
	switch {
	case hi == 0:
		row("BPM", "-")
	case lo == hi:
		row("BPM", fmt.Sprintf("%.0f", hi))
	default:
		row("BPM", fmt.Sprintf("%.0f-%.0f", lo, hi))
	}

	counts := b.Counts()
	objects := fmt.Sprintf("%d (%d circles, %d sliders, %d spinners", counts.Total(), counts.Circles, counts.Sliders, counts.Spinners)
	if counts.Holds > 0 {
		objects += fmt.Sprintf(", %d holds", counts.Holds)
	}
	if counts.Unknown > 0 {
		objects += fmt.Sprintf(", %d unknown", counts.Unknown)
	}
	row("Objects", objects+")")
	row("Timing points", fmt.Sprintf("%d", len(b.TimingPoints)))

	row("Mods", describeMods(c.Mods))
	row("Circle radius", fmt.Sprintf("%.2f px", c.CircleRadius))
	row("Approach", fmt.Sprintf("AR %.2f (%.0f ms preempt)", c.ApproachRate, c.Preempt))
	row("Hit windows", fmt.Sprintf("300 ±%.1f ms  100 ±%.1f ms  50 ±%.1f ms", c.Window300, c.Window100, c.Window50))

	out := titleStyle.Render(title) + "\n" + boxStyle.Render(strings.Join(rows, "\n"))
	if len(b.Warnings) > 0 {
		lines := []string{warningStyle.Render(fmt.Sprintf("%d warnings", len(b.Warnings)))}
		for _, w := range b.Warnings {
			lines = append(lines, "  "+w.String())
		}
		out += "\n" + strings.Join(lines, "\n")
	}
	return out
}

func orUnicode(ascii, unicode string) string {
	if ascii != "" {
		return ascii
	}
	return unicode
}

func describeMods(m Modifiers) string {
	var parts []string
	if m.Hardrock {
		parts = append(parts, "HR")
	}
	if m.Easy {
		parts = append(parts, "EZ")
	}
	if m.Rate != 1 {
		parts = append(parts, fmt.Sprintf("%.2fx", m.Rate))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}
