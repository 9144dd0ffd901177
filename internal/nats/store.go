package nats

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// Subject pattern constants and helpers
const (
	streamName = "tilegrid_events"

	// AllSubjects matches every tilegrid event.
	AllSubjects = "tilegrid.>"

	// QueriesScope is the pseudo dashboard holding events that belong to no
	// single dashboard (queries, dashboard creation).
	QueriesScope = "_catalog"

	// Event types
	EventTypeDashboard = "dashboard"
	EventTypeQuery     = "query"
	EventTypeWidget    = "widget"
	EventTypeParam     = "param"
)

// SubjectForDashboard returns the wildcard subject for all events of a
// dashboard. Example: "tilegrid.d1.>"
func SubjectForDashboard(dashboard string) string {
	return fmt.Sprintf("tilegrid.%s.>", dashboard)
}

// SubjectForEvent returns the subject for one event type on a dashboard.
// Example: "tilegrid.d1.widget"
func SubjectForEvent(dashboard, eventType string) string {
	return fmt.Sprintf("tilegrid.%s.%s", dashboard, eventType)
}

// SetupStream creates or updates the JetStream stream for tilegrid events.
// Dashboards are long lived, so the stream keeps events without an age limit.
func SetupStream(ctx context.Context, js jetstream.JetStream) (jetstream.Stream, error) {
	return js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{AllSubjects},
		Storage:  jetstream.FileStorage,
	})
}
