package theme

import "charm.land/lipgloss/v2"

// Styles contains all pre-built lipgloss styles for the TUI.
type Styles struct {
	HeaderTitle lipgloss.Style
	Text        lipgloss.Style
	Muted       lipgloss.Style
	Error       lipgloss.Style

	WidgetBorder        lipgloss.Style
	WidgetBorderFocused lipgloss.Style
	WidgetTitle         lipgloss.Style
	ResizeHandle        lipgloss.Style
	ResizePreview       lipgloss.Style

	ModeAuto   lipgloss.Style
	ModeManual lipgloss.Style

	StatusBar   lipgloss.Style
	StatusTitle lipgloss.Style
	StatusEdit  lipgloss.Style
	Footer      lipgloss.Style
	FooterKey   lipgloss.Style

	ParamLabel        lipgloss.Style
	ParamLabelFocused lipgloss.Style
	ParamApply        lipgloss.Style

	Toast lipgloss.Style
}
