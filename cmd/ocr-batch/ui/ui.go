// Package ui provides terminal output helpers for the ocr-batch CLI.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
)

// UI writes user-facing output. Logs go through the observability logger;
// UI is for tables, progress and one-line status messages.
type UI struct {
	out     io.Writer
	err     io.Writer
	noColor bool
}

// New creates a UI writing to out and errOut.
func New(out, errOut io.Writer, noColor bool) *UI {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &UI{out: out, err: errOut, noColor: noColor}
}

// Success prints a success message.
func (u *UI) Success(format string, args ...any) {
	u.print(u.out, color.FgGreen, "✓", format, args...)
}

// Error prints an error message to the error stream.
func (u *UI) Error(format string, args ...any) {
	u.print(u.err, color.FgRed, "✗", format, args...)
}

// Warning prints a warning message.
func (u *UI) Warning(format string, args ...any) {
	u.print(u.out, color.FgYellow, "⚠", format, args...)
}

// Info prints an informational message.
func (u *UI) Info(format string, args ...any) {
	u.print(u.out, color.FgCyan, "ℹ", format, args...)
}

func (u *UI) print(w io.Writer, attr color.Attribute, symbol, format string, args ...any) {
	u.paint(attr).Fprintf(w, "%s %s\n", symbol, fmt.Sprintf(format, args...))
}

// paint returns a color honoring this UI's setting without touching the
// package-wide color.NoColor.
func (u *UI) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if u.noColor {
		c.DisableColor()
	}
	return c
}

// KeyValue prints an indented key-value pair.
func (u *UI) KeyValue(key string, value any) {
	u.paint(color.FgYellow).Fprintf(u.out, "  %s: ", key)
	fmt.Fprintf(u.out, "%v\n", value)
}

// Table prints rows aligned under headers.
func (u *UI) Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(u.out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(headers, "\t"))

	separator := make([]string, len(headers))
	for i := range separator {
		separator[i] = strings.Repeat("-", len(headers[i]))
	}
	fmt.Fprintln(w, strings.Join(separator, "\t"))

	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	_ = w.Flush()
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

// IsTerminal checks if f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
