package tui

import (
	"strings"

	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/mark3labs/tilegrid/internal/tui/theme"
)

// FooterAction represents a clickable action in the footer.
type FooterAction string

const (
	FooterActionEdit    FooterAction = "edit"
	FooterActionRefresh FooterAction = "refresh"
	FooterActionParams  FooterAction = "params"
	FooterActionQuit    FooterAction = "quit"
)

// footerButton tracks the hit region for a clickable footer button.
type footerButton struct {
	action FooterAction
	startX int // inclusive
	endX   int // exclusive
}

// Footer renders the bottom bar with key hints.
type Footer struct {
	editing   bool
	hasParams bool
	area      uv.Rectangle
	buttons   []footerButton
}

// NewFooter creates a new Footer component.
func NewFooter() *Footer {
	return &Footer{}
}

// SetEditing switches between view and edit hints.
func (f *Footer) SetEditing(editing bool) {
	f.editing = editing
}

// SetHasParams shows the parameter hint.
func (f *Footer) SetHasParams(hasParams bool) {
	f.hasParams = hasParams
}

// Draw renders the footer.
func (f *Footer) Draw(scr uv.Screen, area uv.Rectangle) {
	if area.Dy() < 1 {
		return
	}
	f.area = area
	DrawStyled(scr, area, theme.Current().S().Footer.PaddingLeft(1), f.buildContent(area.Dx()-1))
}

func (f *Footer) buildContent(availableWidth int) string {
	s := theme.Current().S()
	type part struct {
		rendered string
		action   FooterAction
	}
	button := func(key, label string, action FooterAction) part {
		return part{rendered: s.FooterKey.Render("["+key+"]") + s.Footer.Render(label), action: action}
	}

	var parts []part
	if f.editing {
		parts = append(parts,
			button("e", "Done", FooterActionEdit),
			part{rendered: s.FooterKey.Render("[+/-]") + s.Footer.Render("Resize")},
			part{rendered: s.FooterKey.Render("[drag ═══]") + s.Footer.Render("Resize")},
		)
	} else {
		parts = append(parts,
			button("e", "Edit", FooterActionEdit),
			button("r", "Refresh", FooterActionRefresh),
		)
		if f.hasParams {
			parts = append(parts, button("p", "Params", FooterActionParams))
		}
		parts = append(parts, part{rendered: s.FooterKey.Render("[tab]") + s.Footer.Render("Focus")})
	}
	parts = append(parts, button("q", "Quit", FooterActionQuit))

	rendered := make([]string, len(parts))
	for i, p := range parts {
		rendered[i] = p.rendered
	}
	content := strings.Join(rendered, "  ")
	if lipgloss.Width(content) > availableWidth {
		f.buttons = nil
		return s.FooterKey.Render("[e]") + " " + s.FooterKey.Render("[r]") + " " + s.FooterKey.Render("[q]")
	}

	// Hit regions start after the 1 cell of footer padding.
	f.buttons = nil
	x := f.area.Min.X + 1
	for _, p := range parts {
		w := lipgloss.Width(p.rendered)
		if p.action != "" {
			f.buttons = append(f.buttons, footerButton{action: p.action, startX: x, endX: x + w})
		}
		x += w + 2
	}
	return content
}

// ActionAtPosition returns the footer action at the given screen
// coordinates, or "" if none.
func (f *Footer) ActionAtPosition(x, y int) FooterAction {
	if y < f.area.Min.Y || y >= f.area.Max.Y {
		return ""
	}
	for _, b := range f.buttons {
		if x >= b.startX && x < b.endX {
			return b.action
		}
	}
	return ""
}
