package gridctl

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/groupslot/groupslot/libs/availability"
	"github.com/groupslot/groupslot/libs/timegrid"
)

var ErrAlreadyAttached = errors.New("controller is already attached to a release source")

// ReleaseSource delivers pointer-release events from anywhere in the document.
// Subscribe returns a function that removes the subscription.
type ReleaseSource interface {
	Subscribe(fn func()) (unsubscribe func())
}

// State is either Idle or Dragging.
type State interface {
	isState()
}

type Idle struct{}

type Dragging struct {
	Selection availability.Overlay
}

func (Idle) isState()     {}
func (Dragging) isState() {}

// Controller turns pointer events on the grid into store selections.
type Controller struct {
	store    *availability.Store
	geometry timegrid.Geometry
	logger   *slog.Logger

	mu          sync.Mutex
	unsubscribe func()
}

func New(store *availability.Store, geometry timegrid.Geometry, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:    store,
		geometry: geometry,
		logger:   logger,
	}
}

// State derives the drag state from the store selection.
func (c *Controller) State() State {
	if sel, ok := c.store.Selection(); ok {
		return Dragging{Selection: sel}
	}
	return Idle{}
}

// Attach subscribes PointerUp to src. Only one subscription may be active.
func (c *Controller) Attach(src ReleaseSource) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe != nil {
		return ErrAlreadyAttached
	}
	c.unsubscribe = src.Subscribe(func() { c.PointerUp() })
	return nil
}

// Detach removes the release subscription. Calling it twice is harmless.
func (c *Controller) Detach() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// PointerDown starts a drag on a cell of the active participant's column.
// Cells in other columns are ignored.
func (c *Controller) PointerDown(cell timegrid.Cell) error {
	if c.store.Self() == "" {
		return availability.ErrNoActiveParticipant
	}
	if cell.Column != c.store.SelfColumn() {
		return nil
	}
	instant, ok := c.instant(cell)
	if !ok {
		return availability.ErrUnknownTimeslot
	}
	if err := c.store.BeginSelection(cell.TimeslotID, instant); err != nil {
		return err
	}
	c.logger.Debug("selection started", "timeslot_id", cell.TimeslotID, "at", instant)
	return nil
}

// PointerEnter extends the selection while dragging. Cells in another
// timeslot or another column are ignored.
func (c *Controller) PointerEnter(cell timegrid.Cell) {
	sel, ok := c.store.Selection()
	if !ok || sel.TimeslotID != cell.TimeslotID || cell.Column != c.store.SelfColumn() {
		return
	}
	instant, ok := c.instant(cell)
	if !ok {
		return
	}
	c.store.ExtendSelection(cell.TimeslotID, instant)
}

// PointerUp commits the selection, if any, and returns to Idle.
func (c *Controller) PointerUp() (availability.Overlay, bool) {
	o, ok := c.store.CommitSelection()
	if ok {
		c.logger.Debug("selection committed",
			"timeslot_id", o.TimeslotID,
			"start", o.Interval.Start,
			"end", o.Interval.End,
		)
	}
	return o, ok
}

// PointerDownAt and PointerEnterAt take pixel offsets relative to the day
// table of timeslotID.
func (c *Controller) PointerDownAt(timeslotID int64, x, y float64) error {
	cell, ok := c.cellAt(timeslotID, x, y)
	if !ok {
		return nil
	}
	return c.PointerDown(cell)
}

func (c *Controller) PointerEnterAt(timeslotID int64, x, y float64) {
	if cell, ok := c.cellAt(timeslotID, x, y); ok {
		c.PointerEnter(cell)
	}
}

func (c *Controller) cellAt(timeslotID int64, x, y float64) (timegrid.Cell, bool) {
	ticks, ok := c.axis(timeslotID)
	if !ok {
		return timegrid.Cell{}, false
	}
	columns := c.store.SelfColumn()
	if c.store.Self() != "" {
		columns++
	}
	return c.geometry.CellAt(timeslotID, x, y, columns, len(ticks))
}

func (c *Controller) instant(cell timegrid.Cell) (time.Time, bool) {
	ticks, ok := c.axis(cell.TimeslotID)
	if !ok || len(ticks) == 0 {
		return time.Time{}, false
	}
	idx := cell.Tick
	if idx < 0 {
		idx = 0
	}
	if idx >= len(ticks) {
		idx = len(ticks) - 1
	}
	return ticks[idx], true
}

// axis quantizes the timeslot as the store currently holds it, so a reload
// that changes a timeslot's bounds is picked up on the next pointer event.
func (c *Controller) axis(timeslotID int64) ([]time.Time, bool) {
	slot, ok := c.store.Timeslot(timeslotID)
	if !ok {
		return nil, false
	}
	return timegrid.Quantize(slot.Start, slot.End), true
}
