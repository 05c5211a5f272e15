package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"orbit/internal/caldate"
	"orbit/internal/engine"
	"orbit/internal/model"
)

const (
	icalDate        = "20060102"
	icalDateTime    = "20060102T150405"
	icalDateTimeUTC = "20060102T150405Z"
)

// Export renders events as an iCalendar document. Timed events carry their
// wall-clock times in loc; recurring events carry an RRULE and one EXDATE
// per excluded date. Events with a malformed anchor date are left out.
func Export(events []model.Event, loc *time.Location, now time.Time) string {
	if loc == nil {
		loc = time.Local
	}
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//orbit//dashboard//EN")

	for _, ev := range events {
		anchor, err := caldate.Parse(ev.Date)
		if err != nil {
			continue
		}
		ev = engine.NormalizeEvent(ev, engine.DefaultEventDuration)

		ve := cal.AddEvent(ev.ID + "@orbit")
		ve.SetDtStampTime(now)
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		if ev.Link != "" {
			ve.SetProperty(propURL, ev.Link)
		}
		if p := priorityValue(ev.Priority); p != "" {
			ve.SetProperty(propPriority, p)
		}

		start, end := engine.Bounds(ev, engine.DefaultEventDuration)
		if ev.AllDay {
			ve.SetProperty(ical.ComponentPropertyDtStart, anchor.UTC().Format(icalDate), valueDate())
			ve.SetProperty(ical.ComponentPropertyDtEnd, anchor.AddDays(1).UTC().Format(icalDate), valueDate())
		} else {
			setDateTime(ve, ical.ComponentPropertyDtStart, anchor.In(loc, start), loc)
			setDateTime(ve, ical.ComponentPropertyDtEnd, anchor.In(loc, end), loc)
		}

		opt, ok := engine.RuleOption(ev, anchor)
		if !ok {
			continue
		}
		ve.AddProperty(ical.ComponentPropertyRrule, ruleString(opt))
		for _, ex := range ev.ExcludedDates {
			d, err := caldate.Parse(ex)
			if err != nil {
				continue
			}
			if ev.AllDay {
				ve.AddProperty(ical.ComponentPropertyExdate, d.UTC().Format(icalDate), valueDate())
			} else {
				setExdate(ve, d.In(loc, start), loc)
			}
		}
	}
	return cal.Serialize()
}

func valueDate() ical.PropertyParameter {
	return &ical.KeyValues{Key: "VALUE", Value: []string{"DATE"}}
}

func tzid(loc *time.Location) ical.PropertyParameter {
	return &ical.KeyValues{Key: "TZID", Value: []string{loc.String()}}
}

// setDateTime writes a DATE-TIME in UTC form when loc is UTC and as a
// TZID-qualified local time otherwise.
func setDateTime(ve *ical.VEvent, prop ical.ComponentProperty, t time.Time, loc *time.Location) {
	if loc == time.UTC {
		ve.SetProperty(prop, t.UTC().Format(icalDateTimeUTC))
		return
	}
	ve.SetProperty(prop, t.Format(icalDateTime), tzid(loc))
}

func setExdate(ve *ical.VEvent, t time.Time, loc *time.Location) {
	if loc == time.UTC {
		ve.AddProperty(ical.ComponentPropertyExdate, t.UTC().Format(icalDateTimeUTC))
		return
	}
	ve.AddProperty(ical.ComponentPropertyExdate, t.Format(icalDateTime), tzid(loc))
}

// ruleString renders the FREQ and BYDAY parts of opt. The series start
// comes from DTSTART.
func ruleString(opt rrule.ROption) string {
	parts := []string{"FREQ=" + opt.Freq.String()}
	if len(opt.Byweekday) > 0 {
		days := make([]string, 0, len(opt.Byweekday))
		for _, wd := range opt.Byweekday {
			days = append(days, wd.String())
		}
		parts = append(parts, "BYDAY="+strings.Join(days, ","))
	}
	return strings.Join(parts, ";")
}

func priorityValue(p model.Priority) string {
	switch p {
	case model.PriorityUrgent:
		return "1"
	case model.PriorityImportant:
		return "5"
	default:
		return ""
	}
}
