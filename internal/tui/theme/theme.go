package theme

import (
	"image/color"
	"sync"

	"charm.land/lipgloss/v2"
)

// Theme defines the color palette for the TUI.
type Theme struct {
	Name   string
	IsDark bool

	// Semantic colors
	Primary   string
	Secondary string
	Tertiary  string

	// Background hierarchy (dark→light)
	BgCrust    string
	BgBase     string
	BgMantle   string
	BgSurface0 string
	BgSurface1 string
	BgSurface2 string
	BgOverlay  string

	// Foreground hierarchy (dim→bright)
	FgMuted  string
	FgSubtle string
	FgBase   string
	FgBright string

	// Status colors
	Success string
	Warning string
	Error   string
	Info    string

	// Lazy-built styles
	styles     *Styles
	stylesOnce sync.Once
}

var (
	current     *Theme
	currentOnce sync.Once
)

// Current returns the active theme.
func Current() *Theme {
	currentOnce.Do(func() {
		current = NewCatppuccinMocha()
	})
	return current
}

// HexToColor converts a "#rrggbb" string to a color.
func HexToColor(hex string) color.Color {
	r, g, b := ParseHexColor(hex)
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// S returns the pre-built styles for this theme.
// Styles are lazily initialized on first call.
func (t *Theme) S() *Styles {
	t.stylesOnce.Do(func() {
		t.styles = t.buildStyles()
	})
	return t.styles
}

func (t *Theme) buildStyles() *Styles {
	c := lipgloss.Color
	return &Styles{
		HeaderTitle: lipgloss.NewStyle().
			Foreground(c(t.Primary)).
			Bold(true),
		Text:  lipgloss.NewStyle().Foreground(c(t.FgBase)),
		Muted: lipgloss.NewStyle().Foreground(c(t.FgMuted)),
		Error: lipgloss.NewStyle().Foreground(c(t.Error)),

		WidgetBorder:        lipgloss.NewStyle().Foreground(c(t.BgSurface2)),
		WidgetBorderFocused: lipgloss.NewStyle().Foreground(c(t.Primary)),
		WidgetTitle:         lipgloss.NewStyle().Foreground(c(t.FgBright)).Bold(true),
		ResizeHandle:        lipgloss.NewStyle().Foreground(c(t.Warning)).Bold(true),
		ResizePreview:       lipgloss.NewStyle().Foreground(c(InterpolateColor(t.Warning, t.Primary, 0.5))).Bold(true),

		ModeAuto:   lipgloss.NewStyle().Foreground(c(t.Success)),
		ModeManual: lipgloss.NewStyle().Foreground(c(t.Secondary)),

		StatusBar:   lipgloss.NewStyle().Foreground(c(t.FgSubtle)).Background(c(t.BgMantle)),
		StatusTitle: lipgloss.NewStyle().Foreground(c(t.Primary)).Background(c(t.BgMantle)).Bold(true),
		StatusEdit:  lipgloss.NewStyle().Foreground(c(t.BgBase)).Background(c(t.Warning)).Bold(true).Padding(0, 1),
		Footer:      lipgloss.NewStyle().Foreground(c(t.FgMuted)),
		FooterKey:   lipgloss.NewStyle().Foreground(c(t.Tertiary)).Bold(true),

		ParamLabel:        lipgloss.NewStyle().Foreground(c(t.FgSubtle)),
		ParamLabelFocused: lipgloss.NewStyle().Foreground(c(t.Primary)).Bold(true),
		ParamApply:        lipgloss.NewStyle().Foreground(c(t.BgBase)).Background(c(t.Secondary)).Padding(0, 1),

		Toast: lipgloss.NewStyle().Foreground(c(t.BgBase)).Background(c(t.Warning)).Padding(0, 1).Bold(true),
	}
}
