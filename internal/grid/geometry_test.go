package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToPixels(t *testing.T) {
	g := Pixels()

	tests := []struct {
		rows int
		want int
	}{
		{0, 135},
		{1, 185},
		{2, 235},
		{3, 285},
		{4, 335},
		{6, 435},
		{-3, 135},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, g.ToPixels(tt.rows), "rows=%d", tt.rows)
	}
}

func TestToGridUnits_InverseOfToPixels(t *testing.T) {
	g := Pixels()
	for rows := 0; rows < 50; rows++ {
		assert.Equal(t, rows, g.ToGridUnits(g.ToPixels(rows)), "rows=%d", rows)
	}
}

func TestToGridUnits_RoundsWithinQuantum(t *testing.T) {
	g := Pixels()

	assert.Equal(t, 0, g.ToGridUnits(0))
	assert.Equal(t, 0, g.ToGridUnits(100))
	assert.Equal(t, 0, g.ToGridUnits(159))
	assert.Equal(t, 1, g.ToGridUnits(160))
	assert.Equal(t, 1, g.ToGridUnits(209))
	assert.Equal(t, 2, g.ToGridUnits(210))
}

func TestDeltaRows(t *testing.T) {
	g := Pixels()

	tests := []struct {
		delta int
		want  int
	}{
		{0, 0},
		{24, 0},
		{25, 1},
		{26, 1},
		{50, 1},
		{74, 1},
		{75, 2},
		{100, 2},
		{-24, 0},
		{-25, -1},
		{-50, -1},
		{-120, -2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, g.DeltaRows(tt.delta), "delta=%d", tt.delta)
	}
}

func TestResize_ClampsToMinRows(t *testing.T) {
	g := Pixels()

	assert.Equal(t, 4, g.Resize(3, 50))
	assert.Equal(t, 1, g.Resize(3, -500))
	assert.Equal(t, 1, g.Resize(0, 0))
}

func TestResize_NeverBelowOneRow(t *testing.T) {
	g := Pixels()
	g.MinRows = 0

	assert.Equal(t, 1, g.Resize(3, -500))
	assert.Equal(t, 185, g.ToPixels(g.Resize(3, -500)))

	g.MinRows = -4
	assert.Equal(t, 1, g.Clamp(-10))
}

func TestResize_ClampsToMaxRows(t *testing.T) {
	g := Pixels()
	g.MaxRows = 10

	assert.Equal(t, 10, g.Resize(9, 500))
	assert.Equal(t, 9, g.Resize(8, 50))
}

func TestRowsFor(t *testing.T) {
	g := Pixels()

	assert.Equal(t, 0, g.RowsFor(0))
	assert.Equal(t, 1, g.RowsFor(1))
	assert.Equal(t, 1, g.RowsFor(50))
	assert.Equal(t, 2, g.RowsFor(51))
	assert.Equal(t, 4, g.RowsFor(180))
}

func TestZeroGeometryIsSafe(t *testing.T) {
	var g Geometry
	assert.Equal(t, 0, g.ToGridUnits(100))
	assert.Equal(t, 0, g.DeltaRows(100))
	assert.Equal(t, 0, g.RowsFor(100))
}
