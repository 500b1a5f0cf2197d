package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Color palette (256-color).
var (
	ClrBrand  = lipgloss.Color("214") // orange
	ClrMuted  = lipgloss.Color("245")
	ClrSubtle = lipgloss.Color("242")
	ClrGreen  = lipgloss.Color("114")
	ClrRed    = lipgloss.Color("203")
	ClrCyan   = lipgloss.Color("81")
)

var (
	Brand   = lipgloss.NewStyle().Foreground(ClrBrand).Bold(true)
	Muted   = lipgloss.NewStyle().Foreground(ClrMuted)
	Subtle  = lipgloss.NewStyle().Foreground(ClrSubtle)
	Green   = lipgloss.NewStyle().Foreground(ClrGreen)
	Red     = lipgloss.NewStyle().Foreground(ClrRed)
	Cyan    = lipgloss.NewStyle().Foreground(ClrCyan)
	Keyword = lipgloss.NewStyle().Foreground(ClrBrand)
)

// Prompt renders a prompt like "you> " with color.
func Prompt(who string) string {
	return Brand.Render(who+">") + " "
}

func Errorf(format string, a ...any) string {
	return Red.Render("error: " + fmt.Sprintf(format, a...))
}

func Dim(text string) string {
	return Subtle.Render(text)
}
