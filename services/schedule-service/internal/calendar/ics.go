package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/groupslot/groupslot/libs/interval"
)

const productID = "-//groupslot//common availability//EN"

// Export renders the common availability of a schedule as a PUBLISH calendar,
// one VEVENT per shared interval.
type Export struct {
	ScheduleUUID string
	Title        string
	Participants []string
	Common       map[string][]interval.Interval
	GeneratedAt  time.Time
}

func (e Export) Render() string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(e.Title)

	dates := make([]string, 0, len(e.Common))
	for d := range e.Common {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	description := "Available: " + strings.Join(e.Participants, ", ")
	for _, d := range dates {
		for i, iv := range e.Common[d] {
			ev := cal.AddEvent(fmt.Sprintf("%s-%s-%d@groupslot", e.ScheduleUUID, d, i))
			ev.SetDtStampTime(e.GeneratedAt.UTC())
			ev.SetStartAt(iv.Start.UTC())
			ev.SetEndAt(iv.End.UTC())
			ev.SetSummary(e.Title)
			ev.SetDescription(description)
		}
	}
	return cal.Serialize()
}
