package cli

// Output layout.
const (
	// TabWidth is the padding between columns in tabular output.
	TabWidth = 2
	// neverUpdatedLabel is shown for indices that were never built.
	neverUpdatedLabel = "never"
	// timeLayout formats index timestamps.
	timeLayout = "2006-01-02 15:04:05"
)
