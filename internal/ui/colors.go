package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Vault-toned stylesheet: violet chrome, green for in-library and clean
// passes, amber for partial ones.
var styles = palette{
	title: boldStyle("#8B5CF6").MarginBottom(1),
	ok:    boldStyle("#22C55E"),
	err:   boldStyle("#EF4444"),
	warn:  fgStyle("#F59E0B"),
}

type palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
}

func fgStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func boldStyle(fg string) lipgloss.Style {
	return fgStyle(fg).Bold(true)
}
