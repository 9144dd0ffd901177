package tui

import uv "github.com/charmbracelet/ultraviolet"

const (
	// StatusHeight is the height of the status bar in rows
	StatusHeight = 1
	// FooterHeight is the height of the footer in rows
	FooterHeight = 1
	// ParamBarHeight is the height of the parameter bar when the dashboard
	// has parameters
	ParamBarHeight = 1
)

// Layout defines the rectangular regions for all UI components
type Layout struct {
	Area   uv.Rectangle
	Grid   uv.Rectangle
	Params uv.Rectangle
	Status uv.Rectangle
	Footer uv.Rectangle
}

// CalculateLayout computes the layout rectangles based on terminal
// dimensions. The parameter bar is only given space when hasParams is set.
func CalculateLayout(width, height int, hasParams bool) Layout {
	area := uv.Rectangle{
		Max: uv.Position{X: width, Y: height},
	}

	paramHeight := 0
	if hasParams {
		paramHeight = ParamBarHeight
	}

	gridHeight := area.Dy() - paramHeight - StatusHeight - FooterHeight
	if gridHeight < 0 {
		gridHeight = 0
	}

	// Split vertically: grid | params+status+footer
	gridRect, rest := uv.SplitVertical(area, uv.Fixed(gridHeight))
	paramsRect, rest := uv.SplitVertical(rest, uv.Fixed(paramHeight))
	statusRect, footerRect := uv.SplitVertical(rest, uv.Fixed(StatusHeight))

	return Layout{
		Area:   area,
		Grid:   gridRect,
		Params: paramsRect,
		Status: statusRect,
		Footer: footerRect,
	}
}
