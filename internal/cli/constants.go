package cli

// Default values for CLI output.
const (
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
	// MaxNameLength is the longest install name shown in listings.
	MaxNameLength = 40
)
