package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbit/internal/caldate"
	"orbit/internal/model"
)

func event(anchor string, repeat model.Recurrence, days ...string) model.Event {
	return model.Event{
		ID:         "ev-" + anchor,
		Title:      "event",
		Date:       anchor,
		StartTime:  "09:00",
		EndTime:    "10:00",
		Priority:   model.PriorityNormal,
		Repeat:     repeat,
		RepeatDays: days,
	}
}

func TestOccursOn(t *testing.T) {
	tests := []struct {
		name  string
		event model.Event
		date  string
		want  bool
	}{
		{"none on anchor", event("2024-01-01", model.RepeatNone), "2024-01-01", true},
		{"none other day", event("2024-01-01", model.RepeatNone), "2024-01-02", false},
		{"empty repeat is none", event("2024-01-01", ""), "2024-01-08", false},
		{"unknown repeat is none", event("2024-01-01", "Yearly"), "2024-01-01", true},
		{"unknown repeat never repeats", event("2024-01-01", "Yearly"), "2025-01-01", false},

		{"daily before anchor", event("2024-01-10", model.RepeatDaily), "2024-01-09", false},
		{"daily on anchor", event("2024-01-10", model.RepeatDaily), "2024-01-10", true},
		{"daily far future", event("2024-01-10", model.RepeatDaily), "2024-12-31", true},

		{"weekly one week later", event("2024-01-01", model.RepeatWeekly), "2024-01-08", true},
		{"weekly other weekday", event("2024-01-01", model.RepeatWeekly), "2024-01-05", false},
		{"weekly a week before", event("2024-01-08", model.RepeatWeekly), "2024-01-01", false},

		{"monthly same day", event("2024-01-15", model.RepeatMonthly), "2024-03-15", true},
		{"monthly other day", event("2024-01-15", model.RepeatMonthly), "2024-03-16", false},
		{"monthly 31st skips february", event("2024-01-31", model.RepeatMonthly), "2024-02-29", false},
		{"monthly 31st skips april", event("2024-01-31", model.RepeatMonthly), "2024-04-30", false},
		{"monthly 31st in march", event("2024-01-31", model.RepeatMonthly), "2024-03-31", true},

		{"custom listed weekday", event("2024-01-03", model.RepeatCustom, "Mon", "Wed"), "2024-01-08", true},
		{"custom anchor weekday listed", event("2024-01-03", model.RepeatCustom, "Mon", "Wed"), "2024-01-10", true},
		{"custom unlisted weekday", event("2024-01-03", model.RepeatCustom, "Mon", "Wed"), "2024-01-09", false},
		{"custom before anchor", event("2024-01-03", model.RepeatCustom, "Mon", "Wed"), "2024-01-01", false},
		{"custom empty set on anchor", event("2024-01-03", model.RepeatCustom), "2024-01-03", false},
		{"custom unknown tags only", event("2024-01-03", model.RepeatCustom, "Funday"), "2024-01-03", false},

		{"malformed anchor", event("2024-1-3", model.RepeatDaily), "2024-01-05", false},
		{"malformed candidate", event("2024-01-03", model.RepeatDaily), "01/05/2024", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OccursOnString(tt.event, tt.date))
		})
	}
}

func TestOccursOn_Exclusions(t *testing.T) {
	ev := event("2024-01-01", model.RepeatWeekly)
	require.True(t, OccursOnString(ev, "2024-01-08"))

	ev.ExcludedDates = []string{"2024-01-08"}
	assert.False(t, OccursOnString(ev, "2024-01-08"))
	assert.True(t, OccursOnString(ev, "2024-01-15"))
	assert.True(t, OccursOnString(ev, "2024-01-01"))

	t.Run("excluded anchor of single event", func(t *testing.T) {
		single := event("2024-01-01", model.RepeatNone)
		single.ExcludedDates = []string{"2024-01-01"}
		assert.False(t, OccursOnString(single, "2024-01-01"))
	})
}

func TestOccursOn_ExclusionOnlyAffectsThatDate(t *testing.T) {
	base := event("2024-02-01", model.RepeatDaily)
	from := caldate.MustParse("2024-01-25")
	to := caldate.MustParse("2024-03-10")
	excluded := caldate.MustParse("2024-02-14")

	withEx := base
	withEx.ExcludedDates = []string{excluded.String()}

	for d := from; !d.After(to); d = d.AddDays(1) {
		if d == excluded {
			assert.False(t, OccursOn(withEx, d), d.String())
			continue
		}
		assert.Equal(t, OccursOn(base, d), OccursOn(withEx, d), d.String())
	}
}

func TestOccursOn_WeeklyMatchesWeekday(t *testing.T) {
	anchor := caldate.MustParse("2024-05-09")
	ev := event(anchor.String(), model.RepeatWeekly)

	for d := anchor; d.Before(anchor.AddDays(70)); d = d.AddDays(1) {
		assert.Equal(t, d.Weekday() == anchor.Weekday(), OccursOn(ev, d), d.String())
	}
}

func TestOccursOn_NoneMatchesOnlyAnchor(t *testing.T) {
	anchor := caldate.MustParse("2024-05-09")
	ev := event(anchor.String(), model.RepeatNone)

	for d := anchor.AddDays(-10); d.Before(anchor.AddDays(10)); d = d.AddDays(1) {
		assert.Equal(t, d == anchor, OccursOn(ev, d), d.String())
	}
}

func TestOccurrences(t *testing.T) {
	ev := event("2024-01-03", model.RepeatCustom, "Mon", "Fri")
	got := Occurrences(ev, caldate.MustParse("2024-01-01"), caldate.MustParse("2024-01-14"))

	var dates []string
	for _, d := range got {
		dates = append(dates, d.String())
	}
	assert.Equal(t, []string{"2024-01-05", "2024-01-08", "2024-01-12"}, dates)
}

func TestNextOccurrence(t *testing.T) {
	ev := event("2024-01-01", model.RepeatWeekly)

	next, ok := NextOccurrence(ev, caldate.MustParse("2024-01-02"), 7)
	require.True(t, ok)
	assert.Equal(t, "2024-01-08", next.String())

	_, ok = NextOccurrence(ev, caldate.MustParse("2024-01-02"), 5)
	assert.False(t, ok)
}

func TestRuleOption(t *testing.T) {
	anchor := caldate.MustParse("2024-01-03")

	_, ok := RuleOption(event(anchor.String(), model.RepeatNone), anchor)
	assert.False(t, ok)

	opt, ok := RuleOption(event(anchor.String(), model.RepeatCustom, "Tue", "Thu"), anchor)
	require.True(t, ok)
	assert.Len(t, opt.Byweekday, 2)
	assert.Equal(t, anchor.UTC(), opt.Dtstart)
}
