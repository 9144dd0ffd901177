package viz

import (
	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/mark3labs/tilegrid/internal/estimate"
	"github.com/mark3labs/tilegrid/internal/query"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	counterStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
)

// Table renders a result as a bordered table. The metrics count the result
// rows shown.
func Table(res *query.Result, width int) Content {
	if res == nil || len(res.Columns) == 0 {
		return Content{Body: mutedStyle.Render("no results")}
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderColumn(false).
		Headers(res.Columns...).
		Rows(res.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	if width > 0 {
		t = t.Width(width)
	}
	return Content{
		Body:    t.String(),
		Metrics: estimate.Metrics{RowCount: len(res.Rows)},
	}
}

// Counter renders the first cell of the first row.
func Counter(res *query.Result, width int) Content {
	value := "-"
	if res != nil && len(res.Rows) > 0 && len(res.Rows[0]) > 0 {
		value = res.Rows[0][0]
	}
	label := ""
	if res != nil && len(res.Columns) > 0 {
		label = res.Columns[0]
	}
	style := counterStyle
	if width > 0 {
		style = style.Width(width).Align(lipgloss.Center)
	}
	body := style.Render(value)
	if label != "" {
		body += "\n" + mutedStyle.Width(style.GetWidth()).Align(lipgloss.Center).Render(label)
	}
	return Content{
		Body:    body,
		Metrics: estimate.Metrics{RowCount: res.RowCount()},
	}
}
