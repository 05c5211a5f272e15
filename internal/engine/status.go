package engine

import (
	"time"

	"orbit/internal/caldate"
	"orbit/internal/model"
)

// StatusKind is the machine-readable lifecycle state.
type StatusKind string

const (
	StatusUpcoming  StatusKind = "upcoming"
	StatusRunning   StatusKind = "running"
	StatusCompleted StatusKind = "completed"
	StatusOverdue   StatusKind = "overdue"
	StatusActive    StatusKind = "active"
)

// Status is a lifecycle state with its display label.
type Status struct {
	Kind  StatusKind `json:"status"`
	Label string     `json:"label"`
}

var (
	eventUpcoming  = Status{Kind: StatusUpcoming, Label: "Upcoming"}
	eventRunning   = Status{Kind: StatusRunning, Label: "Live now"}
	eventCompleted = Status{Kind: StatusCompleted, Label: "Completed"}

	taskCompleted = Status{Kind: StatusCompleted, Label: "Completed"}
	taskOverdue   = Status{Kind: StatusOverdue, Label: "Overdue"}
	taskUpcoming  = Status{Kind: StatusUpcoming, Label: "Starts soon"}
	taskActive    = Status{Kind: StatusActive, Label: "In progress"}
)

// DefaultEventDuration is used when an event's end time is missing or not
// after its start.
const DefaultEventDuration = 60

// Bounds returns the effective start and end time of day of ev. All-day
// events span the whole day; a missing or unparsable start is midnight; a
// missing, unparsable or non-positive end is start plus defaultMinutes.
func Bounds(ev model.Event, defaultMinutes int) (start, end caldate.TimeOfDay) {
	if ev.AllDay {
		return caldate.Midnight, caldate.EndOfDay
	}
	if defaultMinutes <= 0 {
		defaultMinutes = DefaultEventDuration
	}
	start, err := caldate.ParseTimeOfDay(ev.StartTime)
	if err != nil {
		start = caldate.Midnight
	}
	end, err = caldate.ParseTimeOfDay(ev.EndTime)
	if err != nil || end <= start {
		end = start.Add(defaultMinutes)
	}
	return start, end
}

// NormalizeEvent returns ev with its times made consistent: all-day events
// get 00:00-23:59, timed events whose end is not after the start get
// start plus defaultMinutes, and an empty Repeat becomes None.
func NormalizeEvent(ev model.Event, defaultMinutes int) model.Event {
	start, end := Bounds(ev, defaultMinutes)
	ev.StartTime = start.String()
	ev.EndTime = end.String()
	if ev.Repeat == "" {
		ev.Repeat = model.RepeatNone
	}
	if ev.Priority == "" {
		ev.Priority = model.PriorityNormal
	}
	if ev.Repeat != model.RepeatCustom {
		ev.RepeatDays = nil
	}
	return ev
}

// EventStatus classifies the occurrence of ev on occurrence relative to now.
// Days before today are completed, days after are upcoming; on today the
// instant is compared against the inclusive [start, end] interval. All-day
// events run until 23:59:59.
func EventStatus(ev model.Event, occurrence caldate.Date, now time.Time) Status {
	if occurrence.IsZero() {
		if d, err := caldate.Parse(ev.Date); err == nil {
			occurrence = d
		} else {
			occurrence = caldate.Today(now)
		}
	}
	today := caldate.Today(now)
	switch occurrence.Compare(today) {
	case -1:
		return eventCompleted
	case 1:
		return eventUpcoming
	}

	startTOD, endTOD := Bounds(ev, DefaultEventDuration)
	loc := now.Location()
	start := occurrence.In(loc, startTOD)
	end := occurrence.In(loc, endTOD)
	if ev.AllDay {
		end = end.Add(59 * time.Second)
	}
	switch {
	case now.Before(start):
		return eventUpcoming
	case now.After(end):
		return eventCompleted
	default:
		return eventRunning
	}
}

// TaskStatus classifies t relative to now. Malformed dates are treated as
// absent.
func TaskStatus(t model.Task, now time.Time) Status {
	if t.Completed {
		return taskCompleted
	}
	today := caldate.Today(now)
	if due, err := caldate.Parse(t.DueDate); err == nil && due.Before(today) {
		return taskOverdue
	}
	if start, err := caldate.Parse(t.StartDate); err == nil && start.After(today) {
		return taskUpcoming
	}
	return taskActive
}

// IsDueSoon reports whether t is incomplete and due tomorrow or earlier.
func IsDueSoon(t model.Task, now time.Time) bool {
	if t.Completed {
		return false
	}
	due, err := caldate.Parse(t.DueDate)
	if err != nil {
		return false
	}
	return !due.After(caldate.Tomorrow(now))
}

// EscalateDueSoon raises every due-soon task in tasks to urgent, in place,
// and returns how many changed. Priorities are never lowered.
func EscalateDueSoon(tasks []model.Task, now time.Time) int {
	changed := 0
	for i := range tasks {
		if IsDueSoon(tasks[i], now) && tasks[i].Priority != model.PriorityUrgent {
			tasks[i].Priority = model.PriorityUrgent
			changed++
		}
	}
	return changed
}
