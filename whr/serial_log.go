package main

import (
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// serialLogLines is how many received lines the log keeps.
const serialLogLines = 100

// serialLog shows the most recent lines received from the device.
// Append must be called on the Fyne main thread.
type serialLog struct {
	lines    []string
	maxLines int
	entry    *widget.Entry
}

func newSerialLog(maxLines int) *serialLog {
	if maxLines <= 0 {
		maxLines = serialLogLines
	}
	entry := widget.NewMultiLineEntry()
	entry.Wrapping = fyne.TextWrapOff
	entry.Disable()

	return &serialLog{
		lines:    make([]string, 0, maxLines),
		maxLines: maxLines,
		entry:    entry,
	}
}

func (l *serialLog) widget() fyne.CanvasObject {
	return l.entry
}

// Append adds a line, dropping the oldest once the log is full.
func (l *serialLog) Append(line string) {
	l.lines = appendCapped(l.lines, line, l.maxLines)
	l.entry.SetText(l.Text())
	l.entry.CursorRow = len(l.lines)
}

// Text returns the kept lines joined by newlines.
func (l *serialLog) Text() string {
	return strings.Join(l.lines, "\n")
}

// appendCapped appends line to lines, keeping only the last limit entries.
// The backing array is reused.
func appendCapped(lines []string, line string, limit int) []string {
	if len(lines) >= limit {
		drop := len(lines) - limit + 1
		n := copy(lines, lines[drop:])
		lines = lines[:n]
	}
	return append(lines, line)
}
