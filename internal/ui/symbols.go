package ui

// Unicode symbols for status display.
const (
	SymbolSuccess  = "✓" // Operation completed successfully
	SymbolSelected = "●" // Currently selected entry
)
