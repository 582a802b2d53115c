package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sonic-ru/zbxdash/internal/aggregate"
)

// Semantic colors for status indication, ANSI codes for terminal
// compatibility.
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary lipgloss.Color = "7" // White/default
	ColorMuted   lipgloss.Color = "8" // Gray (bright black)
)

// Severity accent colors. Ordinals 0, 5 and anything unknown fall
// back to gray.
const (
	ColorSeverityInfo    lipgloss.Color = "#66CCFF" // Light blue
	ColorSeverityWarning lipgloss.Color = "#FFCC66" // Light yellow
	ColorSeverityAverage lipgloss.Color = "#FF9966" // Light orange
	ColorSeverityHigh    lipgloss.Color = "#CC6633" // Dark orange
	ColorSeverityNone    lipgloss.Color = "#808080" // Gray
)

// SeverityColor returns the accent color for a severity class.
func SeverityColor(class aggregate.Class) lipgloss.Color {
	switch class {
	case aggregate.ClassInformation:
		return ColorSeverityInfo
	case aggregate.ClassWarning:
		return ColorSeverityWarning
	case aggregate.ClassAverage:
		return ColorSeverityAverage
	case aggregate.ClassHigh:
		return ColorSeverityHigh
	default:
		return ColorSeverityNone
	}
}

// SeverityStyle returns a lipgloss style colored for a severity class.
func SeverityStyle(class aggregate.Class) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(SeverityColor(class))
}
