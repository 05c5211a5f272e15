package engine

import (
	"sort"
	"time"

	"orbit/internal/caldate"
	"orbit/internal/model"
)

// TaskMarker tags a task instance on a calendar day relative to its bounds.
type TaskMarker string

const (
	MarkerStarts       TaskMarker = "starts"
	MarkerDue          TaskMarker = "due"
	MarkerStartsAndDue TaskMarker = "starts-and-due"
	MarkerOngoing      TaskMarker = "ongoing"
)

// EventInstance is one event occurrence placed on a day.
type EventInstance struct {
	Event  model.Event `json:"event"`
	Date   string      `json:"date"`
	Start  string      `json:"start,omitempty"`
	End    string      `json:"end,omitempty"`
	Status Status      `json:"status"`
}

// TaskInstance is one task placed on a day.
type TaskInstance struct {
	Task   model.Task `json:"task"`
	Marker TaskMarker `json:"marker"`
	Status Status     `json:"status"`
}

// Day is one column of the week grid.
type Day struct {
	Date    string          `json:"date"`
	Weekday string          `json:"weekday"`
	IsToday bool            `json:"is_today"`
	Events  []EventInstance `json:"events"`
	Tasks   []TaskInstance  `json:"tasks"`
}

// Week is seven consecutive days starting on a Sunday.
type Week struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  [7]Day `json:"days"`
}

// MaterializeWeek expands the week beginning weekStart into per-day event
// and task instances. A weekStart that is not a Sunday is moved back to the
// Sunday of its week. Completed tasks and tasks without any date are left
// out.
func MaterializeWeek(events []model.Event, tasks []model.Task, weekStart caldate.Date, now time.Time) Week {
	weekStart = caldate.WeekStart(weekStart)
	today := caldate.Today(now)

	w := Week{
		Start: weekStart.String(),
		End:   weekStart.AddDays(6).String(),
	}
	for i := range w.Days {
		date := weekStart.AddDays(i)
		day := Day{
			Date:    date.String(),
			Weekday: model.WeekdayTags[date.Weekday()],
			IsToday: date == today,
			Events:  []EventInstance{},
			Tasks:   []TaskInstance{},
		}

		var dayEvents []model.Event
		for _, ev := range events {
			if OccursOn(ev, date) {
				dayEvents = append(dayEvents, ev)
			}
		}
		SortCalendarEvents(dayEvents)
		for _, ev := range dayEvents {
			day.Events = append(day.Events, newEventInstance(ev, date, now))
		}

		for _, t := range tasks {
			if t.Completed {
				continue
			}
			marker, ok := TaskMarkerOn(t, date)
			if !ok {
				continue
			}
			day.Tasks = append(day.Tasks, TaskInstance{
				Task:   t,
				Marker: marker,
				Status: TaskStatus(t, now),
			})
		}
		w.Days[i] = day
	}
	return w
}

func newEventInstance(ev model.Event, date caldate.Date, now time.Time) EventInstance {
	inst := EventInstance{
		Event:  ev,
		Date:   date.String(),
		Status: EventStatus(ev, date, now),
	}
	if !ev.AllDay {
		start, end := Bounds(ev, DefaultEventDuration)
		inst.Start = start.String()
		inst.End = end.String()
	}
	return inst
}

// TaskMarkerOn reports whether t spans date and how the day relates to its
// bounds. A missing bound is open on that side; a task with no valid bound
// never spans any date.
func TaskMarkerOn(t model.Task, date caldate.Date) (TaskMarker, bool) {
	start, startErr := caldate.Parse(t.StartDate)
	due, dueErr := caldate.Parse(t.DueDate)
	hasStart := startErr == nil
	hasDue := dueErr == nil
	if !hasStart && !hasDue {
		return "", false
	}
	if hasStart && date.Before(start) {
		return "", false
	}
	if hasDue && date.After(due) {
		return "", false
	}

	isStart := hasStart && date == start
	isDue := hasDue && date == due
	switch {
	case isStart && isDue:
		return MarkerStartsAndDue, true
	case isStart:
		return MarkerStarts, true
	case isDue:
		return MarkerDue, true
	default:
		return MarkerOngoing, true
	}
}

// SortCalendarEvents orders events in place: all-day first, then timed
// events by start time and end time. All-day events keep their input order.
func SortCalendarEvents(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.AllDay != b.AllDay {
			return a.AllDay
		}
		if a.AllDay {
			return false
		}
		as, ae := Bounds(a, DefaultEventDuration)
		bs, be := Bounds(b, DefaultEventDuration)
		if as != bs {
			return as < bs
		}
		return ae < be
	})
}
