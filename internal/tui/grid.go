package tui

import (
	"fmt"
	"sort"
	"strings"

	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/ansi"
	"github.com/mark3labs/tilegrid/internal/grid"
	"github.com/mark3labs/tilegrid/internal/store"
	"github.com/mark3labs/tilegrid/internal/tui/theme"
	"github.com/mark3labs/tilegrid/internal/viz"
	"github.com/mark3labs/tilegrid/internal/widget"
)

// frame is where one widget is drawn, relative to the top-left corner of
// the unscrolled grid.
type frame struct {
	id   string
	x, y int
	w, h int
	rows int
}

// GridView draws the dashboard board as framed widgets. Each widget is
// terminal.ToPixels(rows) lines tall: a title border, an info line, the
// body and a bottom border that doubles as the resize handle.
type GridView struct {
	terminal grid.Geometry
	pixels   grid.Geometry

	state    *store.State
	contents map[string]viz.Content
	loading  map[string]bool

	focused string
	editing bool

	previewID   string
	previewRows int

	area   uv.Rectangle
	frames []frame
	offset int
}

// NewGridView creates a grid drawn with the terminal geometry. Pixel
// heights in the info line use the pixels geometry.
func NewGridView(terminal, pixels grid.Geometry) *GridView {
	return &GridView{
		terminal: terminal,
		pixels:   pixels,
		contents: make(map[string]viz.Content),
		loading:  make(map[string]bool),
	}
}

// SetState replaces the dashboard being drawn.
func (g *GridView) SetState(st *store.State) {
	g.state = st
	g.Sync()
}

// SetArea sets the screen area the grid is drawn in.
func (g *GridView) SetArea(area uv.Rectangle) {
	g.area = area
	g.Sync()
}

// Sync recomputes widget frames from the board. Call it after any layout
// change.
func (g *GridView) Sync() {
	g.frames = g.computeFrames(g.area.Dx())
	if g.state != nil {
		for id := range g.contents {
			if _, ok := g.state.Board.Get(id); !ok {
				delete(g.contents, id)
			}
		}
		for id := range g.loading {
			if _, ok := g.state.Board.Get(id); !ok {
				delete(g.loading, id)
			}
		}
		if _, ok := g.state.Board.Get(g.focused); !ok {
			g.focused = ""
		}
	}
	if g.focused == "" && len(g.frames) > 0 {
		g.focused = g.frames[0].id
	}
	g.clampOffset()
}

func (g *GridView) computeFrames(width int) []frame {
	if g.state == nil || width <= 0 {
		return nil
	}
	layouts := g.state.Board.Layouts()
	sort.SliceStable(layouts, func(i, j int) bool {
		if layouts[i].Row != layouts[j].Row {
			return layouts[i].Row < layouts[j].Row
		}
		return layouts[i].Col < layouts[j].Col
	})

	columns := g.state.Board.Columns()
	colX := func(c int) int { return c * width / columns }
	bottoms := make([]int, columns)

	frames := make([]frame, 0, len(layouts))
	for _, l := range layouts {
		rows := l.GridHeight
		if l.ID == g.previewID {
			rows = g.previewRows
		}
		y := 0
		for c := l.Col; c < l.Col+l.Width && c < columns; c++ {
			y = max(y, bottoms[c])
		}
		f := frame{
			id:   l.ID,
			x:    colX(l.Col),
			y:    y,
			w:    colX(l.Col+l.Width) - colX(l.Col),
			h:    g.terminal.ToPixels(rows),
			rows: rows,
		}
		for c := l.Col; c < l.Col+l.Width && c < columns; c++ {
			bottoms[c] = y + f.h
		}
		frames = append(frames, f)
	}
	return frames
}

// ContentHeight returns the number of lines the whole board needs.
func (g *GridView) ContentHeight() int {
	h := 0
	for _, f := range g.frames {
		h = max(h, f.y+f.h)
	}
	return h
}

// Scroll moves the viewport by delta lines.
func (g *GridView) Scroll(delta int) {
	g.offset += delta
	g.clampOffset()
}

func (g *GridView) clampOffset() {
	maxOffset := g.ContentHeight() - g.area.Dy()
	if g.offset > maxOffset {
		g.offset = maxOffset
	}
	if g.offset < 0 {
		g.offset = 0
	}
}

// ensureVisible scrolls until the top of widget id is on screen.
func (g *GridView) ensureVisible(id string) {
	f, ok := g.frame(id)
	if !ok {
		return
	}
	if f.y < g.offset {
		g.offset = f.y
	} else if bottom := f.y + f.h; bottom > g.offset+g.area.Dy() {
		g.offset = min(f.y, bottom-g.area.Dy())
	}
	g.clampOffset()
}

func (g *GridView) frame(id string) (frame, bool) {
	for _, f := range g.frames {
		if f.id == id {
			return f, true
		}
	}
	return frame{}, false
}

// SetContent stores the rendered body of a widget and clears its loading
// marker.
func (g *GridView) SetContent(id string, c viz.Content) {
	g.contents[id] = c
	delete(g.loading, id)
}

// SetLoading marks a widget as refreshing.
func (g *GridView) SetLoading(id string) {
	g.loading[id] = true
}

// Loading returns the number of widgets being refreshed.
func (g *GridView) Loading() int {
	return len(g.loading)
}

// SetEditing toggles the drawing of resize handles.
func (g *GridView) SetEditing(editing bool) {
	g.editing = editing
}

// SetPreview shows widget id at rows while a drag is in progress. An empty
// id clears the preview.
func (g *GridView) SetPreview(id string, rows int) {
	if g.previewID == id && g.previewRows == rows {
		return
	}
	g.previewID = id
	g.previewRows = rows
	g.Sync()
}

// Focused returns the focused widget.
func (g *GridView) Focused() string {
	return g.focused
}

// Focus focuses widget id if it is on the board.
func (g *GridView) Focus(id string) {
	if _, ok := g.frame(id); ok {
		g.focused = id
		g.ensureVisible(id)
	}
}

// FocusNext moves focus by delta widgets in reading order, wrapping around.
func (g *GridView) FocusNext(delta int) {
	if len(g.frames) == 0 {
		return
	}
	i := 0
	for j, f := range g.frames {
		if f.id == g.focused {
			i = j
			break
		}
	}
	n := len(g.frames)
	i = ((i+delta)%n + n) % n
	g.Focus(g.frames[i].id)
}

// InnerWidth returns the body width of widget id in cells.
func (g *GridView) InnerWidth(id string) int {
	f, ok := g.frame(id)
	if !ok {
		return 0
	}
	return max(f.w-4, 1)
}

// WidgetAt returns the widget drawn at screen position (x, y).
func (g *GridView) WidgetAt(x, y int) (string, bool) {
	gx, gy, ok := g.toGrid(x, y)
	if !ok {
		return "", false
	}
	for _, f := range g.frames {
		if gx >= f.x && gx < f.x+f.w && gy >= f.y && gy < f.y+f.h {
			return f.id, true
		}
	}
	return "", false
}

// HandleAt returns the widget whose resize handle (bottom border) is at
// screen position (x, y).
func (g *GridView) HandleAt(x, y int) (string, bool) {
	gx, gy, ok := g.toGrid(x, y)
	if !ok {
		return "", false
	}
	for _, f := range g.frames {
		if gx >= f.x && gx < f.x+f.w && gy == f.y+f.h-1 {
			return f.id, true
		}
	}
	return "", false
}

func (g *GridView) toGrid(x, y int) (int, int, bool) {
	if !(uv.Position{X: x, Y: y}).In(g.area) {
		return 0, 0, false
	}
	return x - g.area.Min.X, y - g.area.Min.Y + g.offset, true
}

// Draw renders every visible widget frame.
func (g *GridView) Draw(scr uv.Screen, area uv.Rectangle) {
	if area != g.area {
		g.SetArea(area)
	}
	s := theme.Current().S()

	if len(g.frames) == 0 {
		msg := "No widgets yet. Add one with: tilegrid widget add"
		if g.state == nil {
			msg = "Loading dashboard..."
		}
		DrawText(scr, uv.Rect(area.Min.X+2, area.Min.Y+1, area.Dx()-2, 1), s.Muted.Render(msg))
		return
	}

	for _, f := range g.frames {
		lines := g.renderFrame(f)
		for i, line := range lines {
			y := area.Min.Y + f.y + i - g.offset
			if y < area.Min.Y || y >= area.Max.Y {
				continue
			}
			DrawText(scr, uv.Rect(area.Min.X+f.x, y, f.w, 1), line)
		}
	}
}

// renderFrame returns the f.h lines of one widget frame.
func (g *GridView) renderFrame(f frame) []string {
	s := theme.Current().S()
	border := s.WidgetBorder
	if f.id == g.focused {
		border = s.WidgetBorderFocused
	}
	if f.id == g.previewID {
		border = s.ResizePreview
	}
	inner := max(f.w-4, 0)

	lines := make([]string, 0, f.h)
	lines = append(lines, g.topBorder(f, border))
	lines = append(lines, border.Render("│ ")+fit(g.infoLine(f), inner)+border.Render(" │"))

	body := g.body(f.id)
	for i := 0; i < f.h-3; i++ {
		text := ""
		if i < len(body) {
			text = body[i]
		}
		lines = append(lines, border.Render("│ ")+fit(text, inner)+border.Render(" │"))
	}

	lines = append(lines, g.bottomBorder(f, border))
	return lines
}

func (g *GridView) topBorder(f frame, border lipgloss.Style) string {
	if f.w < 2 {
		return ""
	}
	s := theme.Current().S()
	title := g.title(f.id)
	title = ansi.Truncate(title, max(f.w-6, 0), "…")
	fill := f.w - 2 - 3 - ansi.StringWidth(title)
	if title == "" || fill < 0 {
		return border.Render("┌" + strings.Repeat("─", f.w-2) + "┐")
	}
	return border.Render("┌─ ") + s.WidgetTitle.Render(title) + border.Render(" "+strings.Repeat("─", fill)+"┐")
}

func (g *GridView) bottomBorder(f frame, border lipgloss.Style) string {
	if f.w < 2 {
		return ""
	}
	width := f.w - 2
	handle := "═══"
	if !g.editing || width < len(handle)+2 {
		return border.Render("└" + strings.Repeat("─", width) + "┘")
	}
	left := (width - len(handle)) / 2
	right := width - left - len(handle)
	s := theme.Current().S()
	return border.Render("└"+strings.Repeat("─", left)) +
		s.ResizeHandle.Render(handle) +
		border.Render(strings.Repeat("─", right)+"┘")
}

func (g *GridView) infoLine(f frame) string {
	s := theme.Current().S()
	l, ok := g.state.Board.Get(f.id)
	if !ok {
		return ""
	}

	mode := s.ModeAuto.Render("auto")
	if l.Mode == widget.ModeManual {
		mode = s.ModeManual.Render("manual")
	}
	info := fmt.Sprintf("%s · %d rows · %dpx", mode, f.rows, g.pixels.ToPixels(f.rows))
	if f.id == g.previewID && f.rows != l.GridHeight {
		info = fmt.Sprintf("%s · %d → %d rows · %dpx", mode, l.GridHeight, f.rows, g.pixels.ToPixels(f.rows))
	}
	if g.loading[f.id] {
		info += s.Muted.Render(" · refreshing")
	}
	return info
}

func (g *GridView) title(id string) string {
	if g.state == nil {
		return id
	}
	w, ok := g.state.Widgets[id]
	if !ok {
		return id
	}
	if w.Title != "" {
		return w.Title
	}
	if w.Visualization != "" {
		return w.Visualization
	}
	return id
}

func (g *GridView) body(id string) []string {
	c, ok := g.contents[id]
	if !ok {
		return []string{theme.Current().S().Muted.Render("…")}
	}
	lines := c.Lines()
	if c.Err != nil {
		s := theme.Current().S()
		for i, line := range lines {
			lines[i] = s.Error.Render(line)
		}
	}
	return lines
}

// fit truncates or pads s to exactly width cells.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = ansi.Truncate(s, width, "…")
	if pad := width - ansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}
