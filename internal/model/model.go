package model

import "time"

// Priority ranks events and tasks.
type Priority string

const (
	PriorityNormal    Priority = "normal"
	PriorityImportant Priority = "important"
	PriorityUrgent    Priority = "urgent"
)

// Rank orders priorities urgent first. Unknown values rank as normal.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityImportant:
		return 1
	default:
		return 2
	}
}

// Recurrence is the repeat rule of an event.
type Recurrence string

const (
	RepeatNone    Recurrence = "None"
	RepeatDaily   Recurrence = "Daily"
	RepeatWeekly  Recurrence = "Weekly"
	RepeatMonthly Recurrence = "Monthly"
	RepeatCustom  Recurrence = "Custom"
)

// IsRecurring reports whether r repeats. Empty and unknown rules do not.
func (r Recurrence) IsRecurring() bool {
	switch r {
	case RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatCustom:
		return true
	default:
		return false
	}
}

// WeekdayTags are the tags used by Custom recurrence, Sunday first.
var WeekdayTags = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Event is a calendar entry as stored. Date is the anchor date: the earliest
// day the event can occur. Excluded dates suppress single occurrences of a
// recurring series.
type Event struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`

	Date      string `json:"date" yaml:"date"`
	StartTime string `json:"startTime,omitempty" yaml:"start_time,omitempty"`
	EndTime   string `json:"endTime,omitempty" yaml:"end_time,omitempty"`
	AllDay    bool   `json:"allDay" yaml:"all_day"`

	Priority      Priority   `json:"priority" yaml:"priority"`
	Repeat        Recurrence `json:"repeat" yaml:"repeat"`
	RepeatDays    []string   `json:"repeatDays,omitempty" yaml:"repeat_days,omitempty"`
	ExcludedDates []string   `json:"excludedDates,omitempty" yaml:"excluded_dates,omitempty"`

	// Source is the ICS subscription id for imported events; empty for
	// events created locally.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	Calendar    string `json:"calendar,omitempty" yaml:"calendar,omitempty"`
	Visibility  string `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Reminder    string `json:"reminder,omitempty" yaml:"reminder,omitempty"`
	Location    string `json:"location,omitempty" yaml:"location,omitempty"`
	Link        string `json:"link,omitempty" yaml:"link,omitempty"`
	Guests      string `json:"guests,omitempty" yaml:"guests,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty"`
}

// IsExcluded reports whether date is in the exclusion list.
func (e Event) IsExcluded(date string) bool {
	for _, d := range e.ExcludedDates {
		if d == date {
			return true
		}
	}
	return false
}

// Task is a to-do item. A task with neither StartDate nor DueDate never
// appears on the calendar grid.
type Task struct {
	ID        string   `json:"id" yaml:"id"`
	Title     string   `json:"title" yaml:"title"`
	StartDate string   `json:"startDate,omitempty" yaml:"start_date,omitempty"`
	DueDate   string   `json:"dueDate,omitempty" yaml:"due_date,omitempty"`
	Priority  Priority `json:"priority" yaml:"priority"`
	Completed bool     `json:"completed" yaml:"completed"`
	Notes     string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	Link      string   `json:"link,omitempty" yaml:"link,omitempty"`
}

// Occurrence pairs an event with one concrete date it manifests on.
type Occurrence struct {
	Event Event  `json:"event"`
	Date  string `json:"date"`
}

// StatusIndicator is a user-defined presence status ("Focused", "In a
// meeting") shown on the dashboard. Image is an opaque data URL.
type StatusIndicator struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Color     string    `json:"color"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// StatusInvisible is the current-status id meaning "show nothing".
const StatusInvisible = "invisible"

// State is the full persisted dashboard document.
type State struct {
	Theme              string            `json:"theme"`
	Events             []Event           `json:"events"`
	Todos              []Task            `json:"todos"`
	Statuses           []StatusIndicator `json:"statuses"`
	Notes              string            `json:"notes"`
	CurrentStatus      string            `json:"currentStatus"`
	ShowFullTodoList   bool              `json:"showFullTodoList"`
	ShowCompletedTodos bool              `json:"showCompletedTodos"`
}

// DefaultState is the first-run document.
func DefaultState() State {
	return State{
		Theme:              "aurora",
		Events:             []Event{},
		Todos:              []Task{},
		Statuses:           []StatusIndicator{},
		CurrentStatus:      StatusInvisible,
		ShowCompletedTodos: true,
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Events = make([]Event, len(s.Events))
	for i, ev := range s.Events {
		ev.RepeatDays = append([]string(nil), ev.RepeatDays...)
		ev.ExcludedDates = append([]string(nil), ev.ExcludedDates...)
		out.Events[i] = ev
	}
	out.Todos = append(make([]Task, 0, len(s.Todos)), s.Todos...)
	out.Statuses = append(make([]StatusIndicator, 0, len(s.Statuses)), s.Statuses...)
	return out
}
