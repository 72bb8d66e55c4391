package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/groupslot/groupslot/libs/availability"
	"github.com/groupslot/groupslot/libs/config"
	"github.com/groupslot/groupslot/libs/gridctl"
	"github.com/groupslot/groupslot/libs/session"
	"github.com/groupslot/groupslot/libs/syncgw"
	"github.com/groupslot/groupslot/libs/timegrid"
)

// grid-sim plays one participant against a running schedule-service: it opens
// (or creates) a schedule, drags across the participant's own column between
// two pixel offsets, optionally saves, and prints the resulting view.
func main() {
	geo := timegrid.DefaultGeometry()
	var (
		baseURL  = flag.String("base-url", config.String("SCHEDULE_SERVICE_URL", "http://localhost:8080"), "schedule-service base url")
		schedule = flag.String("schedule", "", "schedule uuid; empty creates a new one")
		title    = flag.String("title", "grid-sim", "title for a created schedule")
		days     = flag.Int("days", 3, "daily timeslots for a created schedule")
		name     = flag.String("name", "", "participant name to register")
		slot     = flag.Int("slot", 0, "index of the timeslot to drag in")
		fromY    = flag.Float64("from-y", geo.HeaderHeight+2*geo.TickHeight, "pointer-down y offset in pixels")
		toY      = flag.Float64("to-y", geo.HeaderHeight+11*geo.TickHeight, "pointer-up y offset in pixels")
		save     = flag.Bool("save", false, "submit the dragged interval")
		verbose  = flag.Bool("v", false, "log session activity to stderr")
	)
	flag.Parse()

	if *name == "" {
		fatal("-name is required")
	}

	logOut := io.Discard
	if *verbose {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOut, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := syncgw.NewClient(*baseURL)
	if *schedule == "" {
		created, err := client.CreateSchedule(ctx, dailyRequest(*title, *days, time.Now()))
		if err != nil {
			fatal(err.Error())
		}
		*schedule = created.UUID
		fmt.Fprintf(os.Stderr, "created schedule %s\n", created.UUID)
	}

	view, err := simulate(ctx, client, logger, plan{
		ScheduleUUID: *schedule,
		Name:         *name,
		Slot:         *slot,
		FromY:        *fromY,
		ToY:          *toY,
		Save:         *save,
		Geometry:     geo,
	})
	if err != nil {
		fatal(err.Error())
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(struct {
		ScheduleUUID       string                 `json:"schedule_uuid"`
		Pending            []availability.Overlay `json:"pending"`
		CommonAvailability any                    `json:"common_availability"`
	}{view.ScheduleUUID, view.Pending, view.CommonAvailability})
}

type plan struct {
	ScheduleUUID string
	Name         string
	Slot         int
	FromY, ToY   float64
	Save         bool
	Geometry     timegrid.Geometry
}

var errNoSuchSlot = errors.New("timeslot index out of range")

func simulate(ctx context.Context, gw session.Gateway, logger *slog.Logger, p plan) (session.View, error) {
	store := availability.NewStore()
	sess := session.New(gw, store, logger)
	if err := sess.Open(ctx, p.ScheduleUUID); err != nil {
		return session.View{}, err
	}
	if err := store.RegisterSelf(p.Name); err != nil {
		return session.View{}, err
	}

	days := store.DayBlocks()
	if p.Slot < 0 || p.Slot >= len(days) {
		return session.View{}, fmt.Errorf("%w: %d of %d", errNoSuchSlot, p.Slot, len(days))
	}
	timeslotID := days[p.Slot].Timeslot.ID

	bus := gridctl.NewReleaseBus()
	ctrl := gridctl.New(store, p.Geometry, logger)
	if err := ctrl.Attach(bus); err != nil {
		return session.View{}, err
	}
	defer ctrl.Detach()

	x := p.Geometry.Left(store.SelfColumn()) + p.Geometry.ColumnWidth/2
	if err := ctrl.PointerDownAt(timeslotID, x, p.FromY); err != nil {
		return session.View{}, err
	}
	ctrl.PointerEnterAt(timeslotID, x, p.ToY)
	bus.Release()

	if p.Save {
		pending := store.Pending()
		if err := sess.Save(ctx); err != nil {
			return session.View{}, err
		}
		v := sess.View()
		v.Pending = pending
		return v, nil
	}
	return sess.View(), nil
}

// dailyRequest builds n consecutive 09:00-18:00 windows starting tomorrow.
func dailyRequest(title string, n int, now time.Time) syncgw.CreateScheduleRequest {
	y, m, d := now.Date()
	first := time.Date(y, m, d+1, 9, 0, 0, 0, now.Location())
	return syncgw.CreateScheduleRequest{
		Title:     title,
		Timeslots: []syncgw.TimeslotInput{{StartTime: first, EndTime: first.Add(9 * time.Hour)}},
		Repeat:    fmt.Sprintf("FREQ=DAILY;COUNT=%d", n),
	}
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
