package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	colorPass = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	colorWarn = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	colorFail = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	colorMute = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}

	passStyle  = lipgloss.NewStyle().Foreground(colorPass).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(colorWarn)
	failStyle  = lipgloss.NewStyle().Foreground(colorFail).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMute)
)

const (
	iconPass = "✅"
	iconWarn = "⚠️ "
	iconFail = "❌"
)

// Console prints user-facing status lines. Styling is applied only when the
// destination is a terminal and NO_COLOR is unset.
type Console struct {
	out    io.Writer
	styled bool
}

// NewConsole returns a Console for w, detecting whether w is a colour terminal
func NewConsole(w io.Writer) *Console {
	return &Console{out: w, styled: ShouldUseColor(w)}
}

// ShouldUseColor reports whether styled output suits w.
// NO_COLOR (any value) disables colour; CLICOLOR_FORCE enables it for non-terminals.
func ShouldUseColor(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if v := os.Getenv("CLICOLOR_FORCE"); v != "" && v != "0" {
		return true
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Created reports a written manifest, e.g. "✅ story_context.json created."
func (c *Console) Created(path string) {
	c.line(passStyle, iconPass+" "+path+" created.")
}

// Warn prints a warning line
func (c *Console) Warn(format string, args ...interface{}) {
	c.line(warnStyle, iconWarn+" "+fmt.Sprintf(format, args...))
}

// Fail prints an error line
func (c *Console) Fail(format string, args ...interface{}) {
	c.line(failStyle, iconFail+" "+fmt.Sprintf(format, args...))
}

// Info prints a muted informational line
func (c *Console) Info(format string, args ...interface{}) {
	c.line(mutedStyle, fmt.Sprintf(format, args...))
}

func (c *Console) line(style lipgloss.Style, text string) {
	if c.styled {
		text = style.Render(text)
	}
	fmt.Fprintln(c.out, text)
}
