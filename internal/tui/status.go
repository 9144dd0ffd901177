package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/mark3labs/tilegrid/internal/tui/theme"
)

// StatusBar displays dashboard info (left) and connection status (right).
type StatusBar struct {
	dashboard  string
	widgets    int
	refreshing int
	editing    bool
	connected  bool
	err        string
	spinner    Spinner
	spinning   bool
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(dashboard string) *StatusBar {
	return &StatusBar{dashboard: dashboard, spinner: NewDefaultSpinner()}
}

// Draw renders the status bar.
// Format: tilegrid | dashboard | N widgets | EDIT     refreshing 2  ● connected
func (s *StatusBar) Draw(scr uv.Screen, area uv.Rectangle) {
	if area.Dx() <= 0 || area.Dy() <= 0 {
		return
	}
	st := theme.Current().S()

	left := s.buildLeft()
	right := s.buildRight()

	totalWidth := area.Dx() - 2
	padding := totalWidth - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	DrawStyled(scr, area, st.StatusBar.Padding(0, 1), left+strings.Repeat(" ", padding)+right)
}

func (s *StatusBar) buildLeft() string {
	st := theme.Current().S()
	sep := st.Muted.Render(" | ")

	left := st.StatusTitle.Render("tilegrid") + sep + st.Text.Render(s.dashboard)
	left += sep + st.Muted.Render(fmt.Sprintf("%d widgets", s.widgets))
	if s.editing {
		left += sep + st.StatusEdit.Render("EDIT")
	}
	if s.err != "" {
		left += sep + st.Error.Render(s.err)
	}
	return left
}

func (s *StatusBar) buildRight() string {
	st := theme.Current().S()
	var right string
	if s.refreshing > 0 {
		right += s.spinner.View() + " " + st.Muted.Render(fmt.Sprintf("refreshing %d", s.refreshing)) + "  "
	}
	if s.connected {
		right += st.ModeAuto.Render("●") + " connected"
	} else {
		right += st.Error.Render("○") + " disconnected"
	}
	return right
}

// SetDashboard updates the dashboard name and widget count.
func (s *StatusBar) SetDashboard(name string, widgets int) {
	s.dashboard = name
	s.widgets = widgets
}

// SetRefreshing sets the number of refreshes in flight. It returns the
// command that starts the spinner when the first refresh begins.
func (s *StatusBar) SetRefreshing(n int) tea.Cmd {
	s.refreshing = n
	if n == 0 {
		s.spinning = false
		return nil
	}
	if s.spinning {
		return nil
	}
	s.spinning = true
	return s.spinner.Tick()
}

// Update advances the spinner. Ticks stop once no refresh is in flight.
func (s *StatusBar) Update(msg tea.Msg) tea.Cmd {
	if !s.spinning {
		return nil
	}
	return s.spinner.Update(msg)
}

// SetEditing shows or hides the edit mode marker.
func (s *StatusBar) SetEditing(editing bool) {
	s.editing = editing
}

// SetConnectionStatus updates the connection status.
func (s *StatusBar) SetConnectionStatus(connected bool) {
	s.connected = connected
}

// SetError shows a persistent error, or clears it when err is "".
func (s *StatusBar) SetError(err string) {
	s.err = err
}
