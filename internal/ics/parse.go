package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"orbit/internal/caldate"
	"orbit/internal/engine"
	appLog "orbit/internal/log"
	"orbit/internal/model"
)

const (
	propPriority     = ical.ComponentProperty("PRIORITY")
	propRecurrenceID = ical.ComponentProperty("RECURRENCE-ID")
	propStatus       = ical.ComponentProperty("STATUS")
	propClass        = ical.ComponentProperty("CLASS")
	propURL          = ical.ComponentProperty("URL")
	propColor        = ical.ComponentProperty("COLOR")
)

// ParseICS parses a single ICS payload into dashboard events owned by src.
//
//   - Event ids are "<source>:<uid>".
//   - Times are converted into loc; DATE values become all-day events.
//   - RRULEs the engine can express (daily, weekly, weekdays-of-week,
//     monthly on the anchor day) are mapped; anything else imports as a
//     single event on its first date.
//   - EXDATEs become excluded dates.
//   - A RECURRENCE-ID override excludes its date from the series and is
//     imported as a standalone event.
//   - Cancelled events are dropped.
//
// Malformed VEVENTs are logged and skipped.
func ParseICS(src Source, body []byte, loc *time.Location) ([]model.Event, error) {
	if len(body) == 0 {
		return nil, errors.New("ics: empty body")
	}
	if !bytes.Contains(body, []byte("BEGIN:VCALENDAR")) {
		return nil, fmt.Errorf("ics: %s: not an iCalendar document", src.ID)
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, fmt.Errorf("ics: parse %s: %w", src.ID, err)
	}

	var (
		events    []model.Event
		byID      = map[string]int{}
		overrides = map[string][]string{} // series id -> recurrence dates
	)
	for _, comp := range cal.Events() {
		ev, rid, cancelled, perr := parseVEvent(src, comp, loc)
		if perr != nil {
			appLog.Error("ics vevent skipped", perr, "id", src.ID)
			continue
		}
		if rid != "" {
			overrides[ev.ID] = append(overrides[ev.ID], rid)
			ev.ID = ev.ID + ":" + rid
		}
		if cancelled {
			continue
		}
		if i, dup := byID[ev.ID]; dup {
			events[i] = ev
			continue
		}
		byID[ev.ID] = len(events)
		events = append(events, ev)
	}

	for id, dates := range overrides {
		i, ok := byID[id]
		if !ok || !events[i].Repeat.IsRecurring() {
			continue
		}
		for _, d := range dates {
			if !events[i].IsExcluded(d) {
				events[i].ExcludedDates = append(events[i].ExcludedDates, d)
			}
		}
	}

	appLog.Info("ics parse completed", "id", src.ID, "event_count", len(events))
	return events, nil
}

// parseVEvent converts one VEVENT. rid is the RECURRENCE-ID date for
// overrides; cancelled reports STATUS:CANCELLED.
func parseVEvent(src Source, ve *ical.VEvent, loc *time.Location) (ev model.Event, rid string, cancelled bool, err error) {
	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || strings.TrimSpace(uidProp.Value) == "" {
		return ev, "", false, errors.New("missing UID")
	}
	cancelled = strings.EqualFold(propText(ve, propStatus), "CANCELLED")

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return ev, "", false, errors.New("missing DTSTART")
	}
	start, allDay, err := propTime(dtStart.Value, dtStart.ICalParameters, loc)
	if err != nil {
		return ev, "", false, fmt.Errorf("DTSTART: %w", err)
	}

	ev = model.Event{
		ID:       src.ID + ":" + strings.TrimSpace(uidProp.Value),
		Title:    propText(ve, ical.ComponentPropertySummary),
		Date:     caldate.Of(start).String(),
		AllDay:   allDay,
		Priority: priorityOf(propText(ve, propPriority)),
		Repeat:   model.RepeatNone,
		Source:   src.ID,
		Calendar: src.Name,

		Location:    propText(ve, ical.ComponentPropertyLocation),
		Description: propText(ve, ical.ComponentPropertyDescription),
		Link:        propText(ve, propURL),
		Color:       propText(ve, propColor),
		Visibility:  strings.ToLower(propText(ve, propClass)),
	}
	if ev.Title == "" {
		ev.Title = "Untitled"
	}
	if ev.Calendar == "" {
		ev.Calendar = src.ID
	}

	if !allDay {
		ev.StartTime = caldate.TimeOfDay(start.Hour()*60 + start.Minute()).String()
		if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
			if end, _, err := propTime(dtEnd.Value, dtEnd.ICalParameters, loc); err == nil {
				ev.EndTime = endTimeOnDay(start, end)
			}
		}
	}

	if p := ve.GetProperty(propRecurrenceID); p != nil {
		t, _, err := propTime(p.Value, p.ICalParameters, loc)
		if err != nil {
			return ev, "", false, fmt.Errorf("RECURRENCE-ID: %w", err)
		}
		return ev, caldate.Of(t).String(), cancelled, nil
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.Repeat, ev.RepeatDays = recurrenceOf(p.Value, start)
	}
	if ev.Repeat.IsRecurring() {
		for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
			for _, part := range strings.Split(p.Value, ",") {
				t, _, err := propTime(part, p.ICalParameters, loc)
				if err != nil {
					continue
				}
				if d := caldate.Of(t).String(); !ev.IsExcluded(d) {
					ev.ExcludedDates = append(ev.ExcludedDates, d)
				}
			}
		}
	}
	return ev, "", cancelled, nil
}

func propText(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return strings.TrimSpace(p.Value)
	}
	return ""
}

// endTimeOnDay returns end as a time of day on start's date. Events running
// past midnight are cut at 23:59.
func endTimeOnDay(start, end time.Time) string {
	if !end.After(start) {
		return ""
	}
	if caldate.Of(end) != caldate.Of(start) {
		return caldate.EndOfDay.String()
	}
	return caldate.TimeOfDay(end.Hour()*60 + end.Minute()).String()
}

// propTime parses a DATE or DATE-TIME value into loc. UTC values (trailing
// Z) and TZID-qualified values are converted; floating values are read in
// loc. allDay reports a DATE value.
func propTime(v string, params map[string][]string, loc *time.Location) (t time.Time, allDay bool, err error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false, errors.New("empty time value")
	}

	if vs := params["VALUE"]; len(vs) > 0 && strings.EqualFold(vs[0], "DATE") || !strings.Contains(v, "T") {
		t, err := time.ParseInLocation("20060102", v, loc)
		return t, true, err
	}

	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse("20060102T150405Z", v)
		return t.In(loc), false, err
	}

	in := loc
	if tz := params["TZID"]; len(tz) > 0 {
		if l, lerr := time.LoadLocation(strings.Trim(tz[0], `"`)); lerr == nil {
			in = l
		}
	}
	t, err = time.ParseInLocation("20060102T150405", v, in)
	return t.In(loc), false, err
}

// priorityOf maps an iCalendar PRIORITY (1 highest, 9 lowest, 0 undefined).
func priorityOf(v string) model.Priority {
	n, err := strconv.Atoi(v)
	switch {
	case err != nil || n <= 0:
		return model.PriorityNormal
	case n <= 4:
		return model.PriorityUrgent
	case n == 5:
		return model.PriorityImportant
	default:
		return model.PriorityNormal
	}
}

// recurrenceOf maps an RRULE onto the engine's recurrence rules. Rules with
// an interval, count, until or other by-parts degrade to None.
func recurrenceOf(raw string, start time.Time) (model.Recurrence, []string) {
	opt, err := rrule.StrToROption(strings.TrimPrefix(strings.TrimSpace(raw), "RRULE:"))
	if err != nil {
		appLog.Debug("ics rrule not understood", "rrule", raw, "err", err.Error())
		return model.RepeatNone, nil
	}
	if opt.Interval > 1 || opt.Count > 0 || !opt.Until.IsZero() ||
		len(opt.Bymonth) > 0 || len(opt.Bysetpos) > 0 || len(opt.Byyearday) > 0 ||
		len(opt.Byweekno) > 0 || len(opt.Byhour) > 0 || len(opt.Byminute) > 0 {
		return model.RepeatNone, nil
	}

	switch opt.Freq {
	case rrule.DAILY:
		if len(opt.Byweekday) == 0 && len(opt.Bymonthday) == 0 {
			return model.RepeatDaily, nil
		}
	case rrule.WEEKLY:
		if len(opt.Bymonthday) > 0 {
			break
		}
		if len(opt.Byweekday) == 0 {
			return model.RepeatWeekly, nil
		}
		days := make([]string, 0, len(opt.Byweekday))
		for _, wd := range opt.Byweekday {
			tag, ok := engine.WeekdayTag(wd)
			if !ok {
				return model.RepeatNone, nil
			}
			days = append(days, tag)
		}
		return model.RepeatCustom, days
	case rrule.MONTHLY:
		if len(opt.Byweekday) > 0 {
			break
		}
		if len(opt.Bymonthday) == 0 || (len(opt.Bymonthday) == 1 && opt.Bymonthday[0] == start.Day()) {
			return model.RepeatMonthly, nil
		}
	}
	return model.RepeatNone, nil
}
