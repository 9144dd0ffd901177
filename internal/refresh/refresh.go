// Package refresh runs widget queries and renders their results.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/tilegrid/internal/estimate"
	"github.com/mark3labs/tilegrid/internal/logger"
	"github.com/mark3labs/tilegrid/internal/query"
	"github.com/mark3labs/tilegrid/internal/store"
	"github.com/mark3labs/tilegrid/internal/viz"
	"golang.org/x/sync/errgroup"
)

// Querier executes a parameterized query.
type Querier interface {
	Run(ctx context.Context, sql string, defs []query.Parameter, params map[string]string) (*query.Result, error)
}

// ContentRecorder stores the metrics of refreshed content.
type ContentRecorder interface {
	WidgetContent(ctx context.Context, dashboardID, widgetID string, m estimate.Metrics) error
}

// Target is one widget to refresh.
type Target struct {
	WidgetID      string
	Visualization string
	SQL           string
	Parameters    []query.Parameter
	Text          string
	Width         int
}

// Outcome is the result of refreshing one target.
type Outcome struct {
	WidgetID string
	Content  viz.Content
	Result   *query.Result
	Runtime  time.Duration
	Err      error
}

// Pipeline refreshes widgets.
type Pipeline struct {
	querier  Querier
	renderer *viz.Renderer
	limit    int
}

// New returns a pipeline running at most limit queries at once.
func New(querier Querier, renderer *viz.Renderer, limit int) *Pipeline {
	if limit <= 0 {
		limit = 1
	}
	return &Pipeline{querier: querier, renderer: renderer, limit: limit}
}

// Refresh runs one target with the given parameter values. Query errors are
// returned in the outcome; the widget body then shows the error.
func (p *Pipeline) Refresh(ctx context.Context, t Target, params map[string]string) Outcome {
	out := Outcome{WidgetID: t.WidgetID}

	if t.Visualization == estimate.TypeText {
		out.Content = p.renderer.Text(t.Text, t.Width)
		return out
	}

	start := time.Now()
	res, err := p.querier.Run(ctx, t.SQL, t.Parameters, params)
	out.Runtime = time.Since(start)
	if err != nil {
		logger.Warn("Refresh of widget %s failed: %v", t.WidgetID, err)
		out.Err = err
		out.Content = viz.Content{Body: err.Error(), Err: err}
		return out
	}

	out.Result = res
	out.Content = p.renderer.Render(t.Visualization, res, t.Text, t.Width, len(t.Parameters))
	logger.Debug("Refreshed widget %s: %d rows in %s", t.WidgetID, res.RowCount(), out.Runtime)
	return out
}

// RefreshAll refreshes every target concurrently and returns outcomes in
// target order.
func (p *Pipeline) RefreshAll(ctx context.Context, targets []Target, params map[string]string) []Outcome {
	outcomes := make([]Outcome, len(targets))

	var g errgroup.Group
	g.SetLimit(p.limit)
	for i, t := range targets {
		g.Go(func() error {
			outcomes[i] = p.Refresh(ctx, t, params)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// Targets builds one target per widget of st, in board order.
func Targets(st *store.State, width int) []Target {
	var targets []Target
	for _, id := range st.WidgetIDs() {
		w, ok := st.Widgets[id]
		if !ok {
			continue
		}
		t := Target{
			WidgetID:      id,
			Visualization: w.Visualization,
			Text:          w.Text,
			Width:         width,
		}
		if q := st.QueryFor(id); q != nil {
			t.SQL = q.SQL
			t.Parameters = q.Parameters
		}
		targets = append(targets, t)
	}
	return targets
}

// Record stores the metrics of every successful outcome. Failed refreshes
// leave the layout untouched.
func Record(ctx context.Context, rec ContentRecorder, dashboardID string, outcomes []Outcome) error {
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		if err := rec.WidgetContent(ctx, dashboardID, o.WidgetID, o.Content.Metrics); err != nil {
			errs = append(errs, fmt.Errorf("widget %s: %w", o.WidgetID, err))
		}
	}
	return errors.Join(errs...)
}
