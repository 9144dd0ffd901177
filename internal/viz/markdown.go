package viz

import (
	"strings"
	"sync"

	"charm.land/glamour/v2"
)

// markdownCache keeps one glamour renderer per wrap width. Building a
// renderer parses its style sheet, which is slow enough to show on refresh.
type markdownCache struct {
	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
}

func newMarkdownCache() *markdownCache {
	return &markdownCache{renderers: make(map[int]*glamour.TermRenderer)}
}

func (c *markdownCache) render(md string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	c.mu.Lock()
	r, ok := c.renderers[width]
	if !ok {
		var err error
		r, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			c.mu.Unlock()
			return "", err
		}
		c.renderers[width] = r
	}
	out, err := r.Render(md)
	c.mu.Unlock()
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n"), nil
}
