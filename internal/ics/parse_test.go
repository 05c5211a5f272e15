package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbit/internal/engine"
	"orbit/internal/model"
)

func icsBody(lines ...string) []byte {
	all := append([]string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//test//EN"}, lines...)
	all = append(all, "END:VCALENDAR", "")
	return []byte(strings.Join(all, "\r\n"))
}

var sampleFeed = icsBody(
	"BEGIN:VEVENT",
	"UID:standup",
	"SUMMARY:Standup",
	"DTSTART:20240304T090000Z",
	"DTEND:20240304T091500Z",
	"RRULE:FREQ=WEEKLY;BYDAY=MO,WE,FR",
	"EXDATE:20240306T090000Z",
	"PRIORITY:1",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:standup",
	"RECURRENCE-ID:20240308T090000Z",
	"SUMMARY:Standup moved",
	"DTSTART:20240308T130000Z",
	"DTEND:20240308T131500Z",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:offsite",
	"SUMMARY:Offsite",
	"DTSTART;VALUE=DATE:20240310",
	"DTEND;VALUE=DATE:20240311",
	"PRIORITY:5",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:fortnightly",
	"SUMMARY:Fortnightly",
	"DTSTART;TZID=Asia/Seoul:20240305T100000",
	"DTEND;TZID=Asia/Seoul:20240305T110000",
	"RRULE:FREQ=WEEKLY;INTERVAL=2",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:gone",
	"SUMMARY:Cancelled",
	"STATUS:CANCELLED",
	"DTSTART:20240305T100000Z",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"SUMMARY:No uid",
	"DTSTART:20240305T100000Z",
	"END:VEVENT",
)

func byID(events []model.Event) map[string]model.Event {
	out := make(map[string]model.Event, len(events))
	for _, ev := range events {
		out[ev.ID] = ev
	}
	return out
}

func TestParseICS(t *testing.T) {
	src := Source{ID: "work", Name: "Work"}
	events, err := ParseICS(src, sampleFeed, time.UTC)
	require.NoError(t, err)
	require.Len(t, events, 4)

	got := byID(events)

	standup := got["work:standup"]
	assert.Equal(t, "Standup", standup.Title)
	assert.Equal(t, "2024-03-04", standup.Date)
	assert.Equal(t, "09:00", standup.StartTime)
	assert.Equal(t, "09:15", standup.EndTime)
	assert.Equal(t, model.RepeatCustom, standup.Repeat)
	assert.Equal(t, []string{"Mon", "Wed", "Fri"}, standup.RepeatDays)
	assert.Equal(t, []string{"2024-03-06", "2024-03-08"}, standup.ExcludedDates)
	assert.Equal(t, model.PriorityUrgent, standup.Priority)
	assert.Equal(t, "work", standup.Source)
	assert.Equal(t, "Work", standup.Calendar)

	assert.True(t, engine.OccursOnString(standup, "2024-03-04"))
	assert.False(t, engine.OccursOnString(standup, "2024-03-06"))
	assert.False(t, engine.OccursOnString(standup, "2024-03-08"))
	assert.True(t, engine.OccursOnString(standup, "2024-03-11"))

	moved := got["work:standup:2024-03-08"]
	assert.Equal(t, "Standup moved", moved.Title)
	assert.Equal(t, "13:00", moved.StartTime)
	assert.Equal(t, model.RepeatNone, moved.Repeat)

	offsite := got["work:offsite"]
	assert.True(t, offsite.AllDay)
	assert.Equal(t, "2024-03-10", offsite.Date)
	assert.Equal(t, model.PriorityImportant, offsite.Priority)

	fortnightly := got["work:fortnightly"]
	assert.Equal(t, model.RepeatNone, fortnightly.Repeat, "intervals degrade to a single event")
	assert.Equal(t, "2024-03-05", fortnightly.Date)
	assert.Equal(t, "01:00", fortnightly.StartTime)
	assert.Equal(t, "02:00", fortnightly.EndTime)

	_, cancelled := got["work:gone"]
	assert.False(t, cancelled)
}

func TestParseICS_ConvertsIntoLocation(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	events, err := ParseICS(Source{ID: "work"}, sampleFeed, seoul)
	require.NoError(t, err)
	got := byID(events)

	assert.Equal(t, "10:00", got["work:fortnightly"].StartTime)
	assert.Equal(t, "18:00", got["work:standup"].StartTime)
	assert.Equal(t, "work", got["work:standup"].Calendar, "calendar falls back to the source id")
}

func TestParseICS_Errors(t *testing.T) {
	_, err := ParseICS(Source{ID: "x"}, nil, time.UTC)
	assert.Error(t, err)
	_, err = ParseICS(Source{ID: "x"}, []byte("<html>login</html>"), time.UTC)
	assert.Error(t, err)
}

func TestRecurrenceOf(t *testing.T) {
	start := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		rule string
		want model.Recurrence
		days []string
	}{
		{"FREQ=DAILY", model.RepeatDaily, nil},
		{"RRULE:FREQ=WEEKLY", model.RepeatWeekly, nil},
		{"FREQ=WEEKLY;BYDAY=SU,SA", model.RepeatCustom, []string{"Sun", "Sat"}},
		{"FREQ=MONTHLY", model.RepeatMonthly, nil},
		{"FREQ=MONTHLY;BYMONTHDAY=31", model.RepeatMonthly, nil},
		{"FREQ=MONTHLY;BYMONTHDAY=1", model.RepeatNone, nil},
		{"FREQ=MONTHLY;BYDAY=+1MO", model.RepeatNone, nil},
		{"FREQ=DAILY;COUNT=3", model.RepeatNone, nil},
		{"FREQ=DAILY;UNTIL=20240301T000000Z", model.RepeatNone, nil},
		{"FREQ=YEARLY", model.RepeatNone, nil},
		{"nonsense", model.RepeatNone, nil},
	}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			got, days := recurrenceOf(tt.rule, start)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.days, days)
		})
	}
}

func TestPriorityOf(t *testing.T) {
	assert.Equal(t, model.PriorityNormal, priorityOf(""))
	assert.Equal(t, model.PriorityNormal, priorityOf("0"))
	assert.Equal(t, model.PriorityUrgent, priorityOf("1"))
	assert.Equal(t, model.PriorityUrgent, priorityOf("4"))
	assert.Equal(t, model.PriorityImportant, priorityOf("5"))
	assert.Equal(t, model.PriorityNormal, priorityOf("9"))
}

func TestEndTimeOnDay(t *testing.T) {
	start := time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, "23:30", endTimeOnDay(start, start.Add(90*time.Minute)))
	assert.Equal(t, "23:59", endTimeOnDay(start, start.Add(3*time.Hour)))
	assert.Equal(t, "", endTimeOnDay(start, start))
}
