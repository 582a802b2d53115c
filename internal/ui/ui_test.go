package ui

import (
	"testing"

	"github.com/charmbracelet/bubbles/table"
	"github.com/stretchr/testify/assert"

	"github.com/sonic-ru/zbxdash/internal/aggregate"
)

func TestSeverityColor(t *testing.T) {
	tests := []struct {
		class aggregate.Class
		want  string
	}{
		{aggregate.ClassInformation, "#66CCFF"},
		{aggregate.ClassWarning, "#FFCC66"},
		{aggregate.ClassAverage, "#FF9966"},
		{aggregate.ClassHigh, "#CC6633"},
		{aggregate.ClassNotClassified, "#808080"},
		{aggregate.ClassDisaster, "#808080"},
		{aggregate.ClassUnknown, "#808080"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, string(SeverityColor(tt.class)), "class %s", tt.class)
	}
}

func TestSeverityStyleRenders(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = SeverityStyle(aggregate.ClassHigh).Render("High")
	})
}

func TestNewTable(t *testing.T) {
	columns := []TableColumn{
		{Title: "Host", Width: 20},
		{Title: "Problem", Width: 30},
	}
	rows := []table.Row{
		{"web-01", "High CPU"},
		{"db-02", "Disk full"},
	}

	tbl := NewTable(columns, rows)

	view := tbl.View()
	assert.NotEmpty(t, view)
	assert.Contains(t, view, "Host")
	assert.Contains(t, view, "Problem")
	assert.Contains(t, view, "web-01")
	assert.Contains(t, view, "Disk full")
}

func TestRenderSimpleTable_EmptyRows(t *testing.T) {
	columns := []TableColumn{{Title: "Host", Width: 15}}

	assert.Empty(t, RenderSimpleTable(columns, nil))
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab   ", PadRight("ab", 5))
	assert.Equal(t, "abcdef", PadRight("abcdef", 3))
}
