package testfixtures

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/colorprofile"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/ansi"
	"github.com/mark3labs/tilegrid/internal/grid"
)

// Initialize test environment
func init() {
	// Ascii profile keeps rendered output free of color codes
	lipgloss.Writer.Profile = colorprofile.Ascii
}

// Canonical terminal size for all tests
const (
	TestTermWidth  = 120
	TestTermHeight = 40
)

// TerminalGeometry is the line scale used by the TUI in tests: 3 lines of
// chrome and 2 lines per grid row.
func TerminalGeometry() grid.Geometry {
	return grid.Geometry{ChromeUnits: 3, RowUnits: 2, MinRows: 1}
}

// Render draws into a TestTermWidth x TestTermHeight buffer and returns
// the screen as plain text lines.
func Render(draw func(scr uv.Screen, area uv.Rectangle)) []string {
	canvas := uv.NewScreenBuffer(TestTermWidth, TestTermHeight)
	draw(canvas, canvas.Bounds())
	return strings.Split(ansi.Strip(canvas.Render()), "\n")
}

// Contains checks if any line contains substr.
func Contains(lines []string, substr string) bool {
	for _, line := range lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
