// Package viz renders query results and markdown into terminal text and
// reports the content metrics the height estimator needs.
package viz

import (
	"fmt"
	"strings"

	"github.com/mark3labs/tilegrid/internal/estimate"
	"github.com/mark3labs/tilegrid/internal/query"
)

// Content is a rendered widget body.
type Content struct {
	Body    string
	Metrics estimate.Metrics
	Err     error
}

// Lines returns the body split into lines.
func (c Content) Lines() []string {
	if c.Body == "" {
		return nil
	}
	return strings.Split(c.Body, "\n")
}

// Renderer renders the supported visualization types.
type Renderer struct {
	markdown *markdownCache
}

// NewRenderer returns a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{markdown: newMarkdownCache()}
}

// Render renders res (or text, for text widgets) as visualization vt at the
// given width. parameters is the number of query parameters shown in the
// widget.
func (r *Renderer) Render(vt string, res *query.Result, text string, width, parameters int) Content {
	var c Content
	switch vt {
	case estimate.TypeText:
		c = r.Text(text, width)
	case estimate.TypeCounter:
		c = Counter(res, width)
	case estimate.TypeTable:
		c = Table(res, width)
	default:
		c = Content{
			Body:    fmt.Sprintf("%s: %d rows", vt, res.RowCount()),
			Metrics: estimate.Metrics{RowCount: res.RowCount()},
		}
	}
	if vt != estimate.TypeText {
		c.Metrics.ParameterCount = parameters
	}
	return c
}

// Text renders markdown.
func (r *Renderer) Text(md string, width int) Content {
	body, err := r.markdown.render(md, width)
	if err != nil {
		body = md
	}
	return Content{
		Body:    body,
		Metrics: estimate.Metrics{Lines: strings.Count(body, "\n") + 1},
	}
}
