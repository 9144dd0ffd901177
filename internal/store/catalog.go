package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/mark3labs/tilegrid/internal/nats"
	"github.com/mark3labs/tilegrid/internal/query"
	"github.com/rs/xid"
)

// Dashboard is a named grid of widgets.
type Dashboard struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Query is a saved SQL query. Revisions replace the text in place.
type Query struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	SQL        string            `json:"sql"`
	Parameters []query.Parameter `json:"parameters,omitempty"`
	Revision   int               `json:"revision"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Catalog holds everything that is shared between dashboards.
type Catalog struct {
	Dashboards map[string]*Dashboard
	Queries    map[string]*Query
}

func newCatalog() *Catalog {
	return &Catalog{
		Dashboards: make(map[string]*Dashboard),
		Queries:    make(map[string]*Query),
	}
}

// Apply reduces a catalog event.
func (c *Catalog) Apply(event Event) {
	switch event.Type {
	case nats.EventTypeDashboard:
		if event.Action != "create" {
			return
		}
		var meta struct {
			Slug string `json:"slug"`
		}
		_ = json.Unmarshal(event.Meta, &meta)
		if _, exists := c.Dashboards[event.ID]; exists {
			return
		}
		c.Dashboards[event.ID] = &Dashboard{
			ID:        event.ID,
			Slug:      meta.Slug,
			Name:      event.Data,
			CreatedAt: event.Timestamp,
		}

	case nats.EventTypeQuery:
		var meta struct {
			QueryID    string            `json:"query_id"`
			Name       string            `json:"name"`
			Revision   int               `json:"revision"`
			Parameters []query.Parameter `json:"parameters"`
		}
		_ = json.Unmarshal(event.Meta, &meta)

		switch event.Action {
		case "create":
			if _, exists := c.Queries[event.ID]; exists {
				return
			}
			c.Queries[event.ID] = &Query{
				ID:         event.ID,
				Name:       meta.Name,
				SQL:        event.Data,
				Parameters: meta.Parameters,
				Revision:   1,
				CreatedAt:  event.Timestamp,
				UpdatedAt:  event.Timestamp,
			}
		case "revise":
			q, ok := c.Queries[meta.QueryID]
			if !ok {
				return
			}
			if meta.Revision > 0 && meta.Revision <= q.Revision {
				return
			}
			q.SQL = event.Data
			q.Parameters = meta.Parameters
			q.Revision++
			if meta.Revision > 0 {
				q.Revision = meta.Revision
			}
			q.UpdatedAt = event.Timestamp
		}
	}
}

// LoadCatalog replays all dashboard and query records.
func (s *Store) LoadCatalog(ctx context.Context) (*Catalog, error) {
	c := newCatalog()
	if err := s.replay(ctx, nats.SubjectForDashboard(nats.QueriesScope), c.Apply); err != nil {
		return nil, err
	}
	return c, nil
}

// DashboardCreate records a new dashboard. The slug is derived from name and
// made unique among existing dashboards.
func (s *Store) DashboardCreate(ctx context.Context, name string) (*Dashboard, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("dashboard name is required")
	}

	catalog, err := s.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	base := slug.Make(name)
	if base == "" {
		base = "dashboard"
	}
	taken := make(map[string]bool, len(catalog.Dashboards))
	for _, d := range catalog.Dashboards {
		taken[d.Slug] = true
	}
	sl := base
	for i := 2; taken[sl]; i++ {
		sl = fmt.Sprintf("%s-%d", base, i)
	}

	d := &Dashboard{
		ID:        xid.New().String(),
		Slug:      sl,
		Name:      name,
		CreatedAt: time.Now(),
	}
	meta, _ := json.Marshal(map[string]any{"slug": d.Slug})
	_, err = s.PublishEvent(ctx, Event{
		ID:        d.ID,
		Timestamp: d.CreatedAt,
		Dashboard: nats.QueriesScope,
		Type:      nats.EventTypeDashboard,
		Action:    "create",
		Meta:      meta,
		Data:      d.Name,
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Dashboards lists dashboards oldest first.
func (s *Store) Dashboards(ctx context.Context) ([]*Dashboard, error) {
	catalog, err := s.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Dashboard, 0, len(catalog.Dashboards))
	for _, d := range catalog.Dashboards {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ResolveDashboard finds a dashboard by ID or slug.
func (s *Store) ResolveDashboard(ctx context.Context, ref string) (*Dashboard, error) {
	catalog, err := s.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.resolveDashboard(ref)
}

func (c *Catalog) resolveDashboard(ref string) (*Dashboard, error) {
	if d, ok := c.Dashboards[ref]; ok {
		return d, nil
	}
	for _, d := range c.Dashboards {
		if d.Slug == ref {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrDashboardNotFound, ref)
}

// QueryCreateParams are the inputs of QueryCreate.
type QueryCreateParams struct {
	Name       string            `json:"name"`
	SQL        string            `json:"sql"`
	Parameters []query.Parameter `json:"parameters,omitempty"`
}

// QueryCreate saves a new query. Placeholders in the SQL without an explicit
// definition become text parameters.
func (s *Store) QueryCreate(ctx context.Context, params QueryCreateParams) (*Query, error) {
	if strings.TrimSpace(params.SQL) == "" {
		return nil, fmt.Errorf("sql is required")
	}
	if params.Name == "" {
		params.Name = "New Query"
	}
	defs := completeParameters(params.SQL, params.Parameters)

	q := &Query{
		ID:         xid.New().String(),
		Name:       params.Name,
		SQL:        params.SQL,
		Parameters: defs,
		Revision:   1,
		CreatedAt:  time.Now(),
	}
	q.UpdatedAt = q.CreatedAt

	meta, _ := json.Marshal(map[string]any{
		"name":       q.Name,
		"parameters": q.Parameters,
	})
	_, err := s.PublishEvent(ctx, Event{
		ID:        q.ID,
		Timestamp: q.CreatedAt,
		Dashboard: nats.QueriesScope,
		Type:      nats.EventTypeQuery,
		Action:    "create",
		Meta:      meta,
		Data:      q.SQL,
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// QueryRevise replaces the SQL of a query. Parameter definitions are kept and
// extended with any new placeholders.
func (s *Store) QueryRevise(ctx context.Context, id, sql string) (*Query, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, fmt.Errorf("sql is required")
	}
	q, err := s.Query(ctx, id)
	if err != nil {
		return nil, err
	}

	q.Parameters = completeParameters(sql, q.Parameters)
	q.SQL = sql
	q.Revision++
	q.UpdatedAt = time.Now()

	meta, _ := json.Marshal(map[string]any{
		"query_id":   q.ID,
		"revision":   q.Revision,
		"parameters": q.Parameters,
	})
	_, err = s.PublishEvent(ctx, Event{
		Timestamp: q.UpdatedAt,
		Dashboard: nats.QueriesScope,
		Type:      nats.EventTypeQuery,
		Action:    "revise",
		Meta:      meta,
		Data:      sql,
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Query returns a query by ID.
func (s *Store) Query(ctx context.Context, id string) (*Query, error) {
	catalog, err := s.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	q, ok := catalog.Queries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrQueryNotFound, id)
	}
	return q, nil
}

// completeParameters keeps the definitions in defs that sql still uses, in
// placeholder order, and adds text definitions for undeclared placeholders.
func completeParameters(sql string, defs []query.Parameter) []query.Parameter {
	byName := make(map[string]query.Parameter, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}
	var out []query.Parameter
	for _, name := range query.Placeholders(sql) {
		d, ok := byName[name]
		if !ok {
			d = query.Parameter{Name: name, Title: name, Type: query.ParamText}
		}
		if d.Type == "" {
			d.Type = query.ParamText
		}
		out = append(out, d)
	}
	return out
}
