package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	lipglossv2 "charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/mark3labs/tilegrid/internal/estimate"
	"github.com/mark3labs/tilegrid/internal/grid"
	"github.com/mark3labs/tilegrid/internal/logger"
	tgnats "github.com/mark3labs/tilegrid/internal/nats"
	"github.com/mark3labs/tilegrid/internal/refresh"
	"github.com/mark3labs/tilegrid/internal/state"
	"github.com/mark3labs/tilegrid/internal/store"
	"github.com/mark3labs/tilegrid/internal/tui/theme"
	"github.com/mark3labs/tilegrid/internal/widget"
	"github.com/nats-io/nats.go"
)

// defaultRenderWidth is used for widgets refreshed before the first
// window size is known.
const defaultRenderWidth = 40

// Options configures an App.
type Options struct {
	Store     Store
	Refresher Refresher
	Conn      *nats.Conn // nil disables live updates
	Dashboard string     // ID or slug
	DataDir   string     // where UI state is kept, "" to not persist it
	Terminal  grid.Geometry
	Pixels    grid.Geometry
}

// App is the main Bubbletea model. Every layout mutation happens in
// Update, so refreshes, drags and events from other processes are applied
// one at a time.
type App struct {
	opts Options
	ctx  context.Context

	// View components
	grid   *GridView
	params *ParamBar
	status *StatusBar
	footer *Footer
	toast  *Toast

	// Layout management
	layout      Layout
	layoutDirty bool

	// State
	state      *store.State
	resize     *widget.ResizeController
	uiState    *state.UIState
	published  map[string]estimate.Metrics // last content metrics saved per widget
	editing    bool
	dragStartY int
	width      int
	height     int
	quitting   bool
	eventChan  chan store.Event
}

// NewApp creates the dashboard viewer.
func NewApp(ctx context.Context, opts Options) *App {
	uiState := state.DefaultUIState()
	if opts.DataDir != "" {
		uiState = state.Load(opts.DataDir)
	}

	return &App{
		opts:        opts,
		ctx:         ctx,
		grid:        NewGridView(opts.Terminal, opts.Pixels),
		params:      NewParamBar(),
		status:      NewStatusBar(opts.Dashboard),
		footer:      NewFooter(),
		toast:       NewToast(),
		uiState:     uiState,
		published:   make(map[string]estimate.Metrics),
		eventChan:   make(chan store.Event, 1000),
		layoutDirty: true,
	}
}

// Init subscribes to live events and loads the dashboard. Events that
// arrive during the load are buffered and applied after it.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.loadDashboard()}
	if a.opts.Conn != nil {
		cmds = append(cmds, a.subscribeToEvents(), a.checkConnectionHealth())
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return a.handleKeyPress(msg)

	case tea.MouseClickMsg:
		return a.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		a.handleMouseMotion(msg)
		return a, nil

	case tea.MouseReleaseMsg:
		return a, a.commitResize()

	case tea.MouseWheelMsg:
		switch msg.Mouse().Button {
		case tea.MouseWheelUp:
			a.grid.Scroll(-3)
		case tea.MouseWheelDown:
			a.grid.Scroll(3)
		}
		return a, nil

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layoutDirty = true
		a.relayout()
		return a, nil

	case DashboardLoadedMsg:
		return a, a.handleDashboardLoaded(msg)

	case ContentRefreshedMsg:
		return a, a.handleContentRefreshed(msg.Outcome)

	case EventMsg:
		return a, tea.Batch(a.handleEvent(msg.Event), a.waitForEvents())

	case ApplyParamsMsg:
		return a, a.applyParams(msg.Values)

	case ConnectionStatusMsg:
		a.status.SetConnectionStatus(msg.Connected)
		return a, a.checkConnectionHealth()

	case spinner.TickMsg:
		return a, a.status.Update(msg)

	case ShowToastMsg:
		return a, a.toast.Show(msg.Text)

	case ToastDismissMsg:
		return a, a.toast.Update(msg)
	}

	// Cursor blink and other input messages
	return a, a.params.Update(msg)
}

func (a *App) handleDashboardLoaded(msg DashboardLoadedMsg) tea.Cmd {
	if msg.Err != nil {
		logger.Error("Failed to load dashboard %s: %v", a.opts.Dashboard, msg.Err)
		a.status.SetError(msg.Err.Error())
		return a.toast.Show(fmt.Sprintf("Failed to load dashboard: %v", msg.Err))
	}

	first := a.state == nil
	a.state = msg.State
	a.resize = widget.NewResizeController(a.state.Board, a.opts.Terminal)
	a.grid.SetState(a.state)
	a.status.SetDashboard(a.state.Dashboard.Name, a.state.Board.Len())
	a.status.SetError("")

	ds := a.uiState.Dashboard(a.state.Dashboard.ID)
	a.syncParams()
	a.grid.Focus(ds.FocusedWidget)

	cmds := []tea.Cmd{a.refreshAll()}
	if first && a.opts.Conn != nil {
		cmds = append(cmds, a.waitForEvents())
	}
	return tea.Batch(cmds...)
}

// handleContentRefreshed applies a finished refresh. A manual resize made
// while the refresh was running is kept: the reconciler reads the height
// mode now, not when the refresh started.
func (a *App) handleContentRefreshed(o refresh.Outcome) tea.Cmd {
	if a.state == nil {
		return nil
	}
	if _, ok := a.state.Widgets[o.WidgetID]; !ok {
		logger.Debug("Dropping refresh of removed widget %s", o.WidgetID)
		a.status.SetRefreshing(a.grid.Loading())
		return nil
	}

	a.grid.SetContent(o.WidgetID, o.Content)
	a.status.SetRefreshing(a.grid.Loading())
	if o.Err != nil {
		return nil
	}

	if a.state.Reconciler().Reconcile(o.WidgetID, o.Content.Metrics) {
		a.grid.Sync()
	}

	m := o.Content.Metrics.Normalize()
	if last, ok := a.published[o.WidgetID]; ok && last == m {
		return nil
	}
	a.published[o.WidgetID] = m
	return a.publishContent(o.WidgetID, m)
}

// handleEvent applies an event published by this or another process.
// Events carry absolute values, so echoes of our own writes are no-ops.
func (a *App) handleEvent(event store.Event) tea.Cmd {
	if a.state == nil {
		return nil
	}
	params := maps.Clone(a.state.Params)
	a.state.Apply(event)
	a.grid.Sync()
	a.status.SetDashboard(a.state.Dashboard.Name, a.state.Board.Len())
	a.status.SetRefreshing(a.grid.Loading())

	changed := make(map[string]string)
	for name, v := range a.state.Params {
		if old, ok := params[name]; !ok || old != v {
			changed[name] = v
		}
	}
	paramsChanged := len(changed) > 0
	if paramsChanged || event.Type == tgnats.EventTypeQuery || event.Type == tgnats.EventTypeWidget {
		a.syncParams()
		a.params.SetValues(changed)
	}

	var cmds []tea.Cmd
	for _, id := range a.state.AffectedWidgets(event) {
		cmds = append(cmds, a.refreshWidget(id))
	}
	if paramsChanged {
		for _, id := range a.parameterizedWidgets() {
			cmds = append(cmds, a.refreshWidget(id))
		}
	}
	return tea.Batch(cmds...)
}

// parameterizedWidgets returns the widgets whose queries take parameters.
func (a *App) parameterizedWidgets() []string {
	var ids []string
	for _, id := range a.state.WidgetIDs() {
		if q := a.state.QueryFor(id); q != nil && len(q.Parameters) > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// syncParams rebuilds the parameter bar from the dashboard's queries.
// Values come from the dashboard state, which is what queries run with.
// Remembered UI values only fill names the dashboard has never set.
func (a *App) syncParams() {
	had := a.params.Len() > 0
	values := maps.Clone(a.uiState.Dashboard(a.state.Dashboard.ID).Params)
	if values == nil {
		values = make(map[string]string, len(a.state.Params))
	}
	maps.Copy(values, a.state.Params)
	a.params.SetParameters(a.state.Parameters(), values)
	a.footer.SetHasParams(a.params.Len() > 0)
	if had != (a.params.Len() > 0) {
		a.layoutDirty = true
		a.relayout()
	}
}

// applyParams stores changed parameter values and refreshes the widgets
// whose queries use parameters.
func (a *App) applyParams(values map[string]string) tea.Cmd {
	if a.state == nil {
		return nil
	}
	ds := a.uiState.Dashboard(a.state.Dashboard.ID)
	dashboardID := a.state.Dashboard.ID

	var changed []string
	for name, v := range values {
		ds.Params[name] = v
		if a.state.Params[name] == v {
			continue
		}
		a.state.Params[name] = v
		changed = append(changed, name)
	}
	a.saveUIState()
	if len(changed) == 0 {
		return nil
	}

	cmds := []tea.Cmd{a.publishParams(dashboardID, changed, maps.Clone(values))}
	for _, id := range a.parameterizedWidgets() {
		cmds = append(cmds, a.refreshWidget(id))
	}
	return tea.Batch(cmds...)
}

func (a *App) handleKeyPress(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, a.quit()
	}

	if a.params.Focused() {
		return a, a.params.Update(msg)
	}

	focused := a.grid.Focused()
	switch msg.String() {
	case "q":
		return a, a.quit()
	case "e":
		a.setEditing(!a.editing)
	case "esc":
		if a.resize != nil && a.resize.Active() {
			a.resize.Cancel()
			a.grid.SetPreview("", 0)
		} else {
			a.setEditing(false)
		}
	case "tab", "j", "down", "right", "l":
		a.grid.FocusNext(1)
		a.rememberFocus()
	case "shift+tab", "k", "up", "left", "h":
		a.grid.FocusNext(-1)
		a.rememberFocus()
	case "+", "=":
		if a.editing {
			return a, a.resizeBy(focused, a.opts.Terminal.RowUnits)
		}
	case "-", "_":
		if a.editing {
			return a, a.resizeBy(focused, -a.opts.Terminal.RowUnits)
		}
	case "r":
		return a, a.refreshWidget(focused)
	case "R":
		return a, a.refreshAll()
	case "p":
		return a, a.params.Focus()
	case "pgdown":
		a.grid.Scroll(a.layout.Grid.Dy())
	case "pgup":
		a.grid.Scroll(-a.layout.Grid.Dy())
	}
	return a, nil
}

func (a *App) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	mouse := msg.Mouse()
	if mouse.Button != tea.MouseLeft {
		return a, nil
	}

	switch a.footer.ActionAtPosition(mouse.X, mouse.Y) {
	case FooterActionEdit:
		a.setEditing(!a.editing)
		return a, nil
	case FooterActionRefresh:
		return a, a.refreshAll()
	case FooterActionParams:
		return a, a.params.Focus()
	case FooterActionQuit:
		return a, a.quit()
	}

	if a.params.Len() > 0 && (uv.Position{X: mouse.X, Y: mouse.Y}).In(a.layout.Params) {
		if !a.params.Focused() {
			return a, a.params.Focus()
		}
		return a, nil
	}
	a.params.Blur()

	if a.editing && a.resize != nil {
		if id, ok := a.grid.HandleAt(mouse.X, mouse.Y); ok && a.resize.Begin(id) {
			a.dragStartY = mouse.Y
			a.grid.Focus(id)
			a.rememberFocus()
			_, rows, _ := a.resize.Preview()
			a.grid.SetPreview(id, rows)
			return a, nil
		}
	}
	if id, ok := a.grid.WidgetAt(mouse.X, mouse.Y); ok {
		a.grid.Focus(id)
		a.rememberFocus()
	}
	return a, nil
}

func (a *App) handleMouseMotion(msg tea.MouseMotionMsg) {
	if a.resize == nil || !a.resize.Active() {
		return
	}
	a.resize.Move(msg.Mouse().Y - a.dragStartY)
	id, rows, _ := a.resize.Preview()
	a.grid.SetPreview(id, rows)
}

// commitResize ends a drag and saves the widget's new height.
func (a *App) commitResize() tea.Cmd {
	if a.resize == nil || !a.resize.Active() {
		return nil
	}
	id, rows, ok := a.resize.Commit()
	a.grid.SetPreview("", 0)
	if !ok {
		return nil
	}
	a.grid.Sync()
	return a.publishResize(id, rows)
}

func (a *App) resizeBy(id string, deltaLines int) tea.Cmd {
	if a.resize == nil || id == "" {
		return nil
	}
	rows, ok := a.resize.ResizeBy(id, deltaLines)
	if !ok {
		return nil
	}
	a.grid.Sync()
	return a.publishResize(id, rows)
}

func (a *App) setEditing(editing bool) {
	if !editing && a.resize != nil && a.resize.Active() {
		a.resize.Cancel()
		a.grid.SetPreview("", 0)
	}
	a.editing = editing
	a.grid.SetEditing(editing)
	a.status.SetEditing(editing)
	a.footer.SetEditing(editing)
}

func (a *App) rememberFocus() {
	if a.state == nil {
		return
	}
	a.uiState.Dashboard(a.state.Dashboard.ID).FocusedWidget = a.grid.Focused()
}

func (a *App) quit() tea.Cmd {
	a.quitting = true
	a.rememberFocus()
	a.saveUIState()
	return tea.Quit
}

// saveUIState persists the current UI state to disk.
func (a *App) saveUIState() {
	if a.opts.DataDir == "" {
		return
	}
	if err := state.Save(a.opts.DataDir, a.uiState); err != nil {
		logger.Warn("failed to save UI state: %v", err)
	}
}

// relayout recomputes component areas after a size change.
func (a *App) relayout() {
	if !a.layoutDirty {
		return
	}
	a.layout = CalculateLayout(a.width, a.height, a.params.Len() > 0)
	a.grid.SetArea(a.layout.Grid)
	a.layoutDirty = false
}

// View renders the current view. In Bubbletea v2, this returns tea.View
// with display options like AltScreen and MouseMode.
func (a *App) View() tea.View {
	var view tea.View
	view.AltScreen = true
	view.MouseMode = tea.MouseModeCellMotion

	if a.quitting {
		view.AltScreen = false
		view.MouseMode = 0
		view.Content = lipglossv2.NewLayer("")
		return view
	}

	a.relayout()

	canvas := uv.NewScreenBuffer(a.width, a.height)
	a.Draw(canvas, canvas.Bounds())
	view.Content = lipglossv2.NewLayer(canvas.Render())
	view.BackgroundColor = theme.HexToColor(theme.Current().BgCrust)

	return view
}

// Draw renders all components to the screen buffer.
func (a *App) Draw(scr uv.Screen, area uv.Rectangle) {
	a.grid.Draw(scr, a.layout.Grid)
	a.params.Draw(scr, a.layout.Params)
	a.status.Draw(scr, a.layout.Status)
	a.footer.Draw(scr, a.layout.Footer)

	// Toast sits above the status bar, right-aligned
	if content := a.toast.Render(area.Dx() - 2); content != "" {
		w := lipglossv2.Width(content)
		h := lipglossv2.Height(content)
		x := max(area.Max.X-w-1, area.Min.X)
		y := max(a.layout.Status.Min.Y-h, area.Min.Y)
		uv.NewStyledString(content).Draw(scr, uv.Rect(x, y, w, h))
	}
}

// target builds the refresh target for widget id.
func (a *App) target(id string) (refresh.Target, bool) {
	w, ok := a.state.Widgets[id]
	if !ok {
		return refresh.Target{}, false
	}
	width := a.grid.InnerWidth(id)
	if width <= 0 {
		width = defaultRenderWidth
	}
	t := refresh.Target{
		WidgetID:      id,
		Visualization: w.Visualization,
		Text:          w.Text,
		Width:         width,
	}
	if q := a.state.QueryFor(id); q != nil {
		t.SQL = q.SQL
		t.Parameters = q.Parameters
	}
	return t, true
}

// refreshWidget runs one widget's query off the Update loop.
func (a *App) refreshWidget(id string) tea.Cmd {
	if a.state == nil || a.opts.Refresher == nil {
		return nil
	}
	t, ok := a.target(id)
	if !ok {
		return nil
	}
	a.grid.SetLoading(id)
	spin := a.status.SetRefreshing(a.grid.Loading())

	ctx := a.ctx
	refresher := a.opts.Refresher
	params := maps.Clone(a.state.Params)
	return tea.Batch(spin, func() tea.Msg {
		return ContentRefreshedMsg{Outcome: refresher.Refresh(ctx, t, params)}
	})
}

func (a *App) refreshAll() tea.Cmd {
	if a.state == nil {
		return nil
	}
	var cmds []tea.Cmd
	for _, id := range a.state.WidgetIDs() {
		cmds = append(cmds, a.refreshWidget(id))
	}
	return tea.Batch(cmds...)
}

func (a *App) publishContent(id string, m estimate.Metrics) tea.Cmd {
	ctx, s, dashboardID := a.ctx, a.opts.Store, a.state.Dashboard.ID
	return func() tea.Msg {
		if err := s.WidgetContent(ctx, dashboardID, id, m); err != nil {
			logger.Warn("Failed to save content of widget %s: %v", id, err)
			return ShowToastMsg{Text: "Save failed: " + err.Error()}
		}
		return nil
	}
}

func (a *App) publishResize(id string, rows int) tea.Cmd {
	ctx, s, dashboardID := a.ctx, a.opts.Store, a.state.Dashboard.ID
	return func() tea.Msg {
		if err := s.WidgetResizeTo(ctx, dashboardID, id, rows); err != nil {
			logger.Warn("Failed to save resize of widget %s: %v", id, err)
			return ShowToastMsg{Text: "Resize not saved: " + err.Error()}
		}
		return nil
	}
}

func (a *App) publishParams(dashboardID string, names []string, values map[string]string) tea.Cmd {
	ctx, s := a.ctx, a.opts.Store
	return func() tea.Msg {
		for _, name := range names {
			if err := s.ParamSet(ctx, dashboardID, name, values[name]); err != nil {
				logger.Warn("Failed to save parameter %s: %v", name, err)
				return ShowToastMsg{Text: "Parameter not saved: " + err.Error()}
			}
		}
		return nil
	}
}

// loadDashboard replays the dashboard from the event log.
func (a *App) loadDashboard() tea.Cmd {
	ctx, s, ref := a.ctx, a.opts.Store, a.opts.Dashboard
	return func() tea.Msg {
		st, err := s.LoadState(ctx, ref)
		return DashboardLoadedMsg{State: st, Err: err}
	}
}

// waitForEvents listens on the event channel and converts events to messages.
// It is re-issued after every EventMsg.
func (a *App) waitForEvents() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-a.eventChan
		if !ok {
			return nil
		}
		return EventMsg{Event: event}
	}
}

// subscribeToEvents forwards every tilegrid event to the event channel.
// State.Apply drops events of other dashboards. It blocks until the app
// context is cancelled.
func (a *App) subscribeToEvents() tea.Cmd {
	return func() tea.Msg {
		sub, err := a.opts.Conn.Subscribe(tgnats.AllSubjects, func(msg *nats.Msg) {
			var event store.Event
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				return
			}
			select {
			case a.eventChan <- event:
			default:
				logger.Warn("Event channel full, dropping event %s", event.ID)
			}
		})
		if err != nil {
			return ShowToastMsg{Text: fmt.Sprintf("Live updates unavailable: %v", err)}
		}

		<-a.ctx.Done()
		_ = sub.Unsubscribe()
		close(a.eventChan)
		return nil
	}
}

// checkConnectionHealth reports the NATS connection status every 2 seconds.
func (a *App) checkConnectionHealth() tea.Cmd {
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return ConnectionStatusMsg{Connected: a.opts.Conn != nil && a.opts.Conn.IsConnected()}
	})
}
