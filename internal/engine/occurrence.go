// Package engine decides which events occur on which dates and classifies
// events and tasks into lifecycle states relative to an evaluation instant.
//
// Every function is pure over its inputs except EscalateDueSoon, which
// raises task priorities in place.
package engine

import (
	"github.com/teambition/rrule-go"

	"orbit/internal/caldate"
	"orbit/internal/model"
)

var tagWeekdays = map[string]rrule.Weekday{
	"Sun": rrule.SU,
	"Mon": rrule.MO,
	"Tue": rrule.TU,
	"Wed": rrule.WE,
	"Thu": rrule.TH,
	"Fri": rrule.FR,
	"Sat": rrule.SA,
}

// WeekdayTag returns the Custom recurrence tag of an rrule weekday. Ordinal
// weekdays such as +1MO have no tag.
func WeekdayTag(wd rrule.Weekday) (string, bool) {
	for _, tag := range model.WeekdayTags {
		if tagWeekdays[tag] == wd {
			return tag, true
		}
	}
	return "", false
}

// RuleOption builds the rrule option for a recurring event anchored at
// anchor. ok is false for non-recurring events and for Custom rules without
// any recognised weekday tag.
func RuleOption(ev model.Event, anchor caldate.Date) (rrule.ROption, bool) {
	opt := rrule.ROption{Dtstart: anchor.UTC()}
	switch ev.Repeat {
	case model.RepeatDaily:
		opt.Freq = rrule.DAILY
	case model.RepeatWeekly:
		opt.Freq = rrule.WEEKLY
	case model.RepeatMonthly:
		// Defaults to the anchor's day of month; months without that day
		// are skipped.
		opt.Freq = rrule.MONTHLY
	case model.RepeatCustom:
		opt.Freq = rrule.WEEKLY
		for _, tag := range ev.RepeatDays {
			if wd, ok := tagWeekdays[tag]; ok {
				opt.Byweekday = append(opt.Byweekday, wd)
			}
		}
		if len(opt.Byweekday) == 0 {
			return rrule.ROption{}, false
		}
	default:
		return rrule.ROption{}, false
	}
	return opt, true
}

// ruleSet returns the recurrence set of ev with its exclusions applied.
func ruleSet(ev model.Event, anchor caldate.Date) (*rrule.Set, bool) {
	opt, ok := RuleOption(ev, anchor)
	if !ok {
		return nil, false
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, false
	}
	set := &rrule.Set{}
	set.RRule(r)
	for _, ex := range ev.ExcludedDates {
		if d, err := caldate.Parse(ex); err == nil {
			set.ExDate(d.UTC())
		}
	}
	return set, true
}

// OccursOn reports whether ev manifests on date.
//
// Exclusions win over every rule. Non-recurring (and unrecognised) rules
// match the anchor date only; recurring rules never match before the anchor.
// Malformed dates never occur.
func OccursOn(ev model.Event, date caldate.Date) bool {
	if date.IsZero() {
		return false
	}
	ds := date.String()
	if ev.IsExcluded(ds) {
		return false
	}
	anchor, err := caldate.Parse(ev.Date)
	if err != nil {
		return false
	}
	if !ev.Repeat.IsRecurring() {
		return anchor == date
	}
	if date.Before(anchor) {
		return false
	}
	set, ok := ruleSet(ev, anchor)
	if !ok {
		return false
	}
	at := date.UTC()
	return len(set.Between(at, at, true)) > 0
}

// OccursOnString is OccursOn for an ISO date string.
func OccursOnString(ev model.Event, date string) bool {
	d, err := caldate.Parse(date)
	if err != nil {
		return false
	}
	return OccursOn(ev, d)
}

// Occurrences lists the dates in the inclusive range [from, to] on which ev
// manifests, in ascending order.
func Occurrences(ev model.Event, from, to caldate.Date) []caldate.Date {
	var out []caldate.Date
	for d := from; !d.After(to); d = d.AddDays(1) {
		if OccursOn(ev, d) {
			out = append(out, d)
		}
	}
	return out
}

// NextOccurrence returns the first date in [from, from+windowDays] on which
// ev manifests.
func NextOccurrence(ev model.Event, from caldate.Date, windowDays int) (caldate.Date, bool) {
	for i := 0; i <= windowDays; i++ {
		d := from.AddDays(i)
		if OccursOn(ev, d) {
			return d, true
		}
	}
	return caldate.Date{}, false
}
