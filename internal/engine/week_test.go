package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbit/internal/caldate"
	"orbit/internal/model"
)

func eventIDs(day Day) []string {
	out := []string{}
	for _, inst := range day.Events {
		out = append(out, inst.Event.ID)
	}
	return out
}

func taskMarkers(day Day) map[string]TaskMarker {
	out := map[string]TaskMarker{}
	for _, inst := range day.Tasks {
		out[inst.Task.ID] = inst.Marker
	}
	return out
}

func TestMaterializeWeek(t *testing.T) {
	// Tuesday of the week starting Sunday 2024-03-03.
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	events := []model.Event{
		{ID: "standup", Date: "2024-03-03", StartTime: "09:00", EndTime: "10:00", Repeat: model.RepeatDaily, ExcludedDates: []string{"2024-03-06"}},
		{ID: "sync", Date: "2024-03-04", StartTime: "14:00", EndTime: "15:00", Repeat: model.RepeatWeekly},
		{ID: "holiday", Date: "2024-03-01", AllDay: true, Repeat: model.RepeatDaily},
		{ID: "short", Date: "2024-03-05", StartTime: "09:00", EndTime: "09:30", Repeat: model.RepeatNone},
		{ID: "broken", Date: "03/05/2024", StartTime: "09:00", EndTime: "09:30", Repeat: model.RepeatNone},
	}
	tasks := []model.Task{
		{ID: "span", StartDate: "2024-03-04", DueDate: "2024-03-06"},
		{ID: "due-only", DueDate: "2024-03-07"},
		{ID: "start-only", StartDate: "2024-03-08"},
		{ID: "same-day", StartDate: "2024-03-09", DueDate: "2024-03-09"},
		{ID: "done", StartDate: "2024-03-03", DueDate: "2024-03-09", Completed: true},
		{ID: "undated"},
	}

	w := MaterializeWeek(events, tasks, caldate.MustParse("2024-03-03"), now)

	assert.Equal(t, "2024-03-03", w.Start)
	assert.Equal(t, "2024-03-09", w.End)

	for i, day := range w.Days {
		assert.Equal(t, i == 2, day.IsToday, day.Date)
		assert.Equal(t, model.WeekdayTags[i], day.Weekday)
	}

	assert.Equal(t, []string{"holiday", "standup"}, eventIDs(w.Days[0]))
	assert.Equal(t, []string{"holiday", "standup", "sync"}, eventIDs(w.Days[1]))
	assert.Equal(t, []string{"holiday", "short", "standup"}, eventIDs(w.Days[2]))
	assert.Equal(t, []string{"holiday"}, eventIDs(w.Days[3]))

	assert.Equal(t, map[string]TaskMarker{"due-only": MarkerOngoing}, taskMarkers(w.Days[0]))
	assert.Equal(t, map[string]TaskMarker{"span": MarkerStarts, "due-only": MarkerOngoing}, taskMarkers(w.Days[1]))
	assert.Equal(t, map[string]TaskMarker{"span": MarkerOngoing, "due-only": MarkerOngoing}, taskMarkers(w.Days[2]))
	assert.Equal(t, map[string]TaskMarker{"span": MarkerDue, "due-only": MarkerOngoing}, taskMarkers(w.Days[3]))
	assert.Equal(t, map[string]TaskMarker{"due-only": MarkerDue}, taskMarkers(w.Days[4]))
	assert.Equal(t, map[string]TaskMarker{"start-only": MarkerStarts}, taskMarkers(w.Days[5]))
	assert.Equal(t, map[string]TaskMarker{"start-only": MarkerOngoing, "same-day": MarkerStartsAndDue}, taskMarkers(w.Days[6]))

	t.Run("statuses follow the occurrence date", func(t *testing.T) {
		monday := w.Days[1].Events
		require.Len(t, monday, 3)
		assert.Equal(t, StatusCompleted, monday[1].Status.Kind)

		tuesday := w.Days[2].Events
		require.Len(t, tuesday, 3)
		assert.Equal(t, StatusRunning, tuesday[0].Status.Kind)
		assert.Equal(t, StatusCompleted, tuesday[1].Status.Kind)
		assert.Equal(t, StatusRunning, tuesday[2].Status.Kind)
		assert.Equal(t, "09:00", tuesday[2].Start)
		assert.Equal(t, "10:00", tuesday[2].End)
	})
}

func TestMaterializeWeek_SnapsToSunday(t *testing.T) {
	w := MaterializeWeek(nil, nil, caldate.MustParse("2024-03-06"), testNow)
	assert.Equal(t, "2024-03-03", w.Start)
	assert.Equal(t, "Sun", w.Days[0].Weekday)
	for _, day := range w.Days {
		assert.NotNil(t, day.Events)
		assert.NotNil(t, day.Tasks)
	}
}

func TestSortCalendarEvents(t *testing.T) {
	events := []model.Event{
		{ID: "late", StartTime: "15:00", EndTime: "16:00"},
		{ID: "all-1", AllDay: true},
		{ID: "long", StartTime: "09:00", EndTime: "11:00"},
		{ID: "short", StartTime: "09:00", EndTime: "09:30"},
		{ID: "all-2", AllDay: true},
		{ID: "urgent-late", StartTime: "16:00", EndTime: "17:00", Priority: model.PriorityUrgent},
	}

	SortCalendarEvents(events)

	var ids []string
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	assert.Equal(t, []string{"all-1", "all-2", "short", "long", "late", "urgent-late"}, ids)
}

func TestTaskMarkerOn(t *testing.T) {
	_, ok := TaskMarkerOn(model.Task{}, caldate.MustParse("2024-03-01"))
	assert.False(t, ok)

	_, ok = TaskMarkerOn(model.Task{StartDate: "2024-03-02"}, caldate.MustParse("2024-03-01"))
	assert.False(t, ok)

	_, ok = TaskMarkerOn(model.Task{DueDate: "2024-02-29"}, caldate.MustParse("2024-03-01"))
	assert.False(t, ok)

	m, ok := TaskMarkerOn(model.Task{StartDate: "2024-02-01"}, caldate.MustParse("2024-03-01"))
	assert.True(t, ok)
	assert.Equal(t, MarkerOngoing, m)
}
