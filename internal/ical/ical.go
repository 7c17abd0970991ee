package ical

import (
	"log"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/samber/mo"

	"github.com/hray3182/pagecal/internal/models"
	"github.com/hray3182/pagecal/internal/recurrence"
	"github.com/hray3182/pagecal/internal/rrule"
)

const productID = "-//pagecal//calendar feed//EN"

// Export renders every dated page as a VEVENT. Repeating pages carry an
// RRULE so subscribers expand them on their side. Timed events are written
// in loc.
func Export(pages []*models.Page, loc *time.Location, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("pagecal")
	cal.SetXWRTimezone(loc.String())

	for _, page := range pages {
		schedule, ok, err := page.Schedule()
		if err != nil {
			log.Printf("Failed to export page %s: %v", page.ID, err)
			continue
		}
		if !ok {
			continue
		}

		switch s := schedule.(type) {
		case recurrence.Rule:
			// DTSTART is always an instance, so it must be a real occurrence.
			first, ok := recurrence.First(s)
			if !ok {
				continue
			}
			event := newEvent(cal, page, now)
			setWindow(event, first, first, s.StartTime, s.EndTime, loc)
			event.AddRrule(rrule.FromRule(s, loc).String())
			event.SetDescription(rrule.Describe(s))
		case recurrence.Span:
			event := newEvent(cal, page, now)
			setWindow(event, s.Start, s.End, s.StartTime, s.EndTime, loc)
		}
	}

	return cal.Serialize()
}

func newEvent(cal *ics.Calendar, page *models.Page, now time.Time) *ics.VEvent {
	event := cal.AddEvent(page.ID + "@pagecal")
	event.SetSummary(page.Title)
	event.SetDtStampTime(now)
	event.SetModifiedAt(page.UpdatedAt)
	return event
}

// setWindow writes DTSTART and DTEND. All-day events use DATE values with
// an exclusive end; timed events without an end time last one hour.
func setWindow(event *ics.VEvent, first, last recurrence.Date, start, end mo.Option[recurrence.Clock], loc *time.Location) {
	startClock, timed := start.Get()
	if !timed {
		event.SetAllDayStartAt(first.Time())
		event.SetAllDayEndAt(last.AddDays(1).Time())
		return
	}

	from := startClock.On(first, loc)
	to := from.Add(time.Hour)
	if endClock, ok := end.Get(); ok {
		to = endClock.On(last, loc)
		if !to.After(from) {
			to = from.Add(time.Hour)
		}
	}

	if loc == time.UTC {
		event.SetStartAt(from)
		event.SetEndAt(to)
		return
	}
	tzid := &ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{loc.String()}}
	event.SetProperty(ics.ComponentPropertyDtStart, from.Format(localLayout), tzid)
	event.SetProperty(ics.ComponentPropertyDtEnd, to.Format(localLayout), tzid)
}

const localLayout = "20060102T150405"
