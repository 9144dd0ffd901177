package tui

import (
	"maps"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/mark3labs/tilegrid/internal/query"
	"github.com/mark3labs/tilegrid/internal/tui/theme"
)

const paramInputWidth = 12

// ParamBar edits the dashboard's query parameters. Values are applied
// together on enter.
type ParamBar struct {
	params  []query.Parameter
	inputs  []textinput.Model
	focused int // -1 when the bar does not have focus
}

// NewParamBar creates an empty parameter bar.
func NewParamBar() *ParamBar {
	return &ParamBar{focused: -1}
}

// SetParameters replaces the parameter definitions. Inputs keep what the
// user typed for names that are still present; new inputs start from
// values, then the parameter default.
func (p *ParamBar) SetParameters(defs []query.Parameter, values map[string]string) {
	current := p.Values()

	p.params = defs
	p.inputs = make([]textinput.Model, len(defs))
	for i, def := range defs {
		input := newParamInput(def)
		switch v, ok := current[def.Name]; {
		case ok:
			input.SetValue(v)
		case values[def.Name] != "":
			input.SetValue(values[def.Name])
		default:
			input.SetValue(def.Default)
		}
		p.inputs[i] = input
	}
	if p.focused >= len(p.inputs) {
		p.focused = -1
	}
	if p.focused >= 0 {
		p.inputs[p.focused].Focus()
	}
}

// SetValues overwrites the inputs named in values. The focused input is
// left alone so typing is not interrupted.
func (p *ParamBar) SetValues(values map[string]string) {
	for i, def := range p.params {
		v, ok := values[def.Name]
		if !ok || i == p.focused {
			continue
		}
		p.inputs[i].SetValue(v)
	}
}

func newParamInput(def query.Parameter) textinput.Model {
	t := theme.Current()
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = def.Default
	input.SetStyles(textinput.Styles{
		Focused: textinput.StyleState{
			Text:        lipgloss.NewStyle().Foreground(theme.HexToColor(t.FgBright)),
			Placeholder: lipgloss.NewStyle().Foreground(theme.HexToColor(t.FgMuted)),
			Prompt:      lipgloss.NewStyle().Foreground(theme.HexToColor(t.Tertiary)),
		},
		Blurred: textinput.StyleState{
			Text:        lipgloss.NewStyle().Foreground(theme.HexToColor(t.FgBase)),
			Placeholder: lipgloss.NewStyle().Foreground(theme.HexToColor(t.FgMuted)),
			Prompt:      lipgloss.NewStyle().Foreground(theme.HexToColor(t.FgSubtle)),
		},
		Cursor: textinput.CursorStyle{
			Color: theme.HexToColor(t.Primary),
			Shape: tea.CursorBar,
			Blink: true,
		},
	})
	input.SetWidth(paramInputWidth)
	return input
}

// Len returns the number of parameters.
func (p *ParamBar) Len() int {
	return len(p.params)
}

// Values returns the current input values keyed by parameter name.
func (p *ParamBar) Values() map[string]string {
	out := make(map[string]string, len(p.inputs))
	for i, def := range p.params {
		out[def.Name] = strings.TrimSpace(p.inputs[i].Value())
	}
	return out
}

// Focused reports whether the bar has keyboard focus.
func (p *ParamBar) Focused() bool {
	return p.focused >= 0
}

// Focus gives keyboard focus to the first input.
func (p *ParamBar) Focus() tea.Cmd {
	if len(p.inputs) == 0 {
		return nil
	}
	p.focused = 0
	return p.inputs[0].Focus()
}

// Blur removes keyboard focus.
func (p *ParamBar) Blur() {
	if p.focused >= 0 {
		p.inputs[p.focused].Blur()
	}
	p.focused = -1
}

func (p *ParamBar) move(delta int) tea.Cmd {
	n := len(p.inputs)
	p.inputs[p.focused].Blur()
	p.focused = ((p.focused+delta)%n + n) % n
	return p.inputs[p.focused].Focus()
}

// Update handles keys while the bar is focused. Enter emits ApplyParamsMsg,
// esc gives focus back to the grid.
func (p *ParamBar) Update(msg tea.Msg) tea.Cmd {
	if !p.Focused() {
		return nil
	}
	switch msg := msg.(type) {
	case tea.PasteMsg:
		msg.Content = collapseNewlines(SanitizePaste(msg.Content))
		var cmd tea.Cmd
		p.inputs[p.focused], cmd = p.inputs[p.focused].Update(msg)
		return cmd
	case tea.KeyPressMsg:
		switch msg.String() {
		case "tab":
			return p.move(1)
		case "shift+tab":
			return p.move(-1)
		case "esc":
			p.Blur()
			return nil
		case "enter":
			values := p.Values()
			p.Blur()
			return func() tea.Msg {
				return ApplyParamsMsg{Values: maps.Clone(values)}
			}
		}
	}
	var cmd tea.Cmd
	p.inputs[p.focused], cmd = p.inputs[p.focused].Update(msg)
	return cmd
}

// Draw renders "label [value]" pairs on one line.
func (p *ParamBar) Draw(scr uv.Screen, area uv.Rectangle) {
	if area.Dy() < 1 || len(p.params) == 0 {
		return
	}
	s := theme.Current().S()

	parts := make([]string, 0, len(p.params)+1)
	for i, def := range p.params {
		label := s.ParamLabel
		if i == p.focused {
			label = s.ParamLabelFocused
		}
		parts = append(parts, label.Render(def.Label()+":")+" "+p.inputs[i].View())
	}
	if p.Focused() {
		parts = append(parts, s.ParamApply.Render("[enter] apply"))
	}
	DrawText(scr, uv.Rect(area.Min.X+1, area.Min.Y, area.Dx()-1, 1), strings.Join(parts, "  "))
}
