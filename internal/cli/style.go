package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	clrBrand = lipgloss.Color("214") // orange
	clrGreen = lipgloss.Color("114")
	clrRed   = lipgloss.Color("203")
	clrCyan  = lipgloss.Color("81")
	clrDim   = lipgloss.Color("245")
	clrWhite = lipgloss.Color("255")
)

// styles renders CLI output. Colors are only applied when writing to a
// terminal; piped output and --json stay plain.
type styles struct {
	enabled bool

	Brand   lipgloss.Style
	Dim     lipgloss.Style
	Key     lipgloss.Style
	Value   lipgloss.Style
	URL     lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
}

func newStyles(w io.Writer, jsonMode bool) styles {
	enabled := false
	if f, ok := w.(*os.File); ok && !jsonMode {
		enabled = term.IsTerminal(int(f.Fd()))
	}

	style := func(fg lipgloss.Color) lipgloss.Style {
		if !enabled {
			return lipgloss.NewStyle()
		}
		return lipgloss.NewStyle().Foreground(fg)
	}
	s := styles{
		enabled: enabled,
		Brand:   style(clrBrand).Bold(enabled),
		Dim:     style(clrDim),
		Key:     style(clrDim),
		Value:   style(clrWhite),
		URL:     style(clrCyan).Underline(enabled),
		Error:   style(clrRed).Bold(enabled),
		Success: style(clrGreen),
	}
	return s
}

func (s styles) banner() string {
	return s.Brand.Render("solendir") + " " + s.Dim.Render(version)
}

// kv formats a key-value pair like "  Backend:      http://...".
func (s styles) kv(key, value string) string {
	return fmt.Sprintf("  %s %s", s.Key.Render(fmt.Sprintf("%-14s", key+":")), s.Value.Render(value))
}

func (s styles) header(title string) string {
	return s.Brand.Render(title)
}

func (s styles) dim(text string) string {
	return s.Dim.Render(text)
}

func (s styles) errPrefix() string {
	return s.Error.Render("ERROR:")
}

// item numbers one workspace summary line in `pages` output.
func (s styles) item(n int, summary string) string {
	return fmt.Sprintf("  %s %s", s.Brand.Render(fmt.Sprintf("%2d.", n)), summary)
}

// notionState renders the connection line shown after token changes.
func (s styles) notionState(connected bool) string {
	if connected {
		return s.Success.Render("Notion connected.")
	}
	return s.Dim.Render("Notion disconnected.")
}
