package timegrid

import (
	"math"
	"time"
)

// Geometry describes the pixel layout of a day table. Rows are ticks, columns
// are participants; the active participant's column is always the last one.
type Geometry struct {
	HeaderHeight float64
	TickHeight   float64
	ColumnWidth  float64
}

// DefaultGeometry matches a 56px hour row (14px per tick), a 25px header and
// 120px participant columns.
func DefaultGeometry() Geometry {
	return Geometry{
		HeaderHeight: 25,
		TickHeight:   14,
		ColumnWidth:  120,
	}
}

// Cell addresses one grid cell of a day table.
type Cell struct {
	TimeslotID int64
	Column     int
	Tick       int
}

// TickIndex converts a vertical pixel offset within the table to the nearest
// tick index in [0, ticks-1]. It returns -1 when ticks <= 0 or the geometry has
// no tick height.
func (g Geometry) TickIndex(y float64, ticks int) int {
	if ticks <= 0 || g.TickHeight <= 0 {
		return -1
	}
	idx := int(math.Round((y - g.HeaderHeight) / g.TickHeight))
	return clampInt(idx, 0, ticks-1)
}

// Column converts a horizontal pixel offset to a column index in
// [0, columns-1], or -1 if x falls outside the table.
func (g Geometry) Column(x float64, columns int) int {
	if columns <= 0 || g.ColumnWidth <= 0 || x < 0 {
		return -1
	}
	idx := int(math.Floor(x / g.ColumnWidth))
	if idx >= columns {
		return -1
	}
	return idx
}

// CellAt maps a pointer position inside one timeslot's table to a cell. ok is
// false if the position is outside every column.
func (g Geometry) CellAt(timeslotID int64, x, y float64, columns, ticks int) (Cell, bool) {
	col := g.Column(x, columns)
	row := g.TickIndex(y, ticks)
	if col < 0 || row < 0 {
		return Cell{}, false
	}
	return Cell{TimeslotID: timeslotID, Column: col, Tick: row}, true
}

// Top is the pixel offset of an overlay starting at start within a table whose
// first row is slotStart.
func (g Geometry) Top(start, slotStart time.Time) float64 {
	ticks := math.Round(float64(start.Sub(slotStart)) / float64(Tick))
	return g.HeaderHeight + ticks*g.TickHeight
}

// Height is the pixel height of an overlay covering d.
func (g Geometry) Height(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(Tick) * g.TickHeight
}

// Left is the pixel offset of a participant column.
func (g Geometry) Left(column int) float64 {
	return float64(column) * g.ColumnWidth
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
