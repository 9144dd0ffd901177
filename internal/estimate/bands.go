package estimate

import (
	"fmt"
	"sort"
)

// Band maps every row count up to and including MaxRows to Height grid rows.
type Band struct {
	MaxRows int
	Height  int
}

// Bands is an ordered step function from content row count to grid height.
type Bands []Band

// NewBands validates and returns a band table. Thresholds must be strictly
// increasing and heights must never decrease.
func NewBands(pairs ...Band) (Bands, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("band table is empty")
	}
	for i, b := range pairs {
		if b.MaxRows < 0 || b.Height < 0 {
			return nil, fmt.Errorf("band %d: negative value (%d, %d)", i, b.MaxRows, b.Height)
		}
		if i == 0 {
			continue
		}
		prev := pairs[i-1]
		if b.MaxRows <= prev.MaxRows {
			return nil, fmt.Errorf("band %d: threshold %d not above %d", i, b.MaxRows, prev.MaxRows)
		}
		if b.Height < prev.Height {
			return nil, fmt.Errorf("band %d: height %d below %d", i, b.Height, prev.Height)
		}
	}
	out := make(Bands, len(pairs))
	copy(out, pairs)
	return out, nil
}

// Height returns the grid height for n content rows. Counts above the last
// threshold get the last band's height.
func (b Bands) Height(n int) int {
	if len(b) == 0 {
		return 0
	}
	if n < 0 {
		n = 0
	}
	i := sort.Search(len(b), func(i int) bool { return b[i].MaxRows >= n })
	if i == len(b) {
		return b[len(b)-1].Height
	}
	return b[i].Height
}

// TableBands builds the band table for a table visualization whose header
// takes headerUnits and each row rowUnits, on a grid of quantum units per
// row. Rows needed for n rows is ceil((header + n*row) / quantum), at least
// one. Consecutive counts with equal heights share a band. The table covers
// row counts up to limit.
func TableBands(headerUnits, rowUnits, quantum, limit int) Bands {
	if quantum <= 0 {
		quantum = 1
	}
	if limit < 0 {
		limit = 0
	}
	rowsFor := func(n int) int {
		h := (headerUnits + n*rowUnits + quantum - 1) / quantum
		if h < 1 {
			h = 1
		}
		return h
	}

	var out Bands
	for n := 0; n <= limit; n++ {
		h := rowsFor(n)
		if len(out) > 0 && out[len(out)-1].Height == h {
			out[len(out)-1].MaxRows = n
			continue
		}
		out = append(out, Band{MaxRows: n, Height: h})
	}
	return out
}
