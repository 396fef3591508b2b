package ui

const (
	// chromeHeight is the number of rows taken by the header and command bar.
	chromeHeight = 2

	// LayoutCompactWidth is the threshold below which the header drops labels.
	LayoutCompactWidth = 100

	// modalWidth is the outer width of error and help overlays.
	modalWidth = 48
)
