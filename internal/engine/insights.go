package engine

import (
	"fmt"
	"sort"
	"time"

	"orbit/internal/caldate"
	"orbit/internal/model"
)

// DefaultInsightDays is the forward window of the insights panel.
const DefaultInsightDays = 7

// InsightItem is one presentation-ready insight row.
type InsightItem struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Date     string         `json:"date"`
	Time     string         `json:"time,omitempty"`
	Priority model.Priority `json:"priority"`
}

// Insights lists the important events and the due tasks of the window.
type Insights struct {
	WindowDays int           `json:"window_days"`
	Events     []InsightItem `json:"events"`
	Tasks      []InsightItem `json:"tasks"`
	Total      int           `json:"total"`
	Summary    string        `json:"summary"`
}

// UpcomingInsights scans [today, today+windowDays] for important or urgent
// events and for incomplete tasks due in the window (or already overdue).
// Each event is represented by its first occurrence in the window; events
// whose representative occurrence has already completed are dropped.
func UpcomingInsights(events []model.Event, tasks []model.Task, now time.Time, windowDays int) Insights {
	if windowDays < 0 {
		windowDays = DefaultInsightDays
	}
	today := caldate.Today(now)
	end := today.AddDays(windowDays)

	out := Insights{
		WindowDays: windowDays,
		Events:     []InsightItem{},
		Tasks:      []InsightItem{},
	}

	for _, ev := range events {
		if ev.Priority != model.PriorityImportant && ev.Priority != model.PriorityUrgent {
			continue
		}
		next, ok := NextOccurrence(ev, today, windowDays)
		if !ok {
			continue
		}
		if EventStatus(ev, next, now).Kind == StatusCompleted {
			continue
		}
		item := InsightItem{
			ID:       ev.ID,
			Title:    ev.Title,
			Date:     next.String(),
			Priority: ev.Priority,
		}
		if !ev.AllDay {
			start, _ := Bounds(ev, DefaultEventDuration)
			item.Time = start.String()
		}
		out.Events = append(out.Events, item)
	}
	sort.SliceStable(out.Events, func(i, j int) bool {
		return out.Events[i].Date < out.Events[j].Date
	})

	var due []model.Task
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		d, err := caldate.Parse(t.DueDate)
		if err != nil {
			continue
		}
		// Overdue tasks stay in the list until completed.
		if d.After(end) {
			continue
		}
		due = append(due, t)
	}
	sort.SliceStable(due, func(i, j int) bool {
		return taskSortKey(due[i], "") < taskSortKey(due[j], "")
	})
	for _, t := range due {
		out.Tasks = append(out.Tasks, InsightItem{
			ID:       t.ID,
			Title:    t.Title,
			Date:     t.DueDate,
			Priority: t.Priority,
		})
	}

	out.Total = len(out.Events) + len(out.Tasks)
	if out.Total > 0 {
		out.Summary = fmt.Sprintf("%d items soon", out.Total)
	} else {
		out.Summary = "No upcoming items"
	}
	return out
}

// taskSortKey is the due date, falling back to the start date, then to
// fallback.
func taskSortKey(t model.Task, fallback string) string {
	if t.DueDate != "" {
		return t.DueDate
	}
	if t.StartDate != "" {
		return t.StartDate
	}
	return fallback
}

// Metrics are the dashboard's headline counters.
type Metrics struct {
	EventsToday     int `json:"events_today"`
	TasksInProgress int `json:"tasks_in_progress"`
	TasksOverdue    int `json:"tasks_overdue"`
}

// ComputeMetrics counts today's events, incomplete tasks that have started
// (or have no start date) and incomplete overdue tasks.
func ComputeMetrics(events []model.Event, tasks []model.Task, now time.Time) Metrics {
	today := caldate.Today(now)
	var m Metrics
	for _, ev := range events {
		if OccursOn(ev, today) {
			m.EventsToday++
		}
	}
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		start, err := caldate.Parse(t.StartDate)
		if t.StartDate == "" || (err == nil && !start.After(today)) {
			m.TasksInProgress++
		}
		if due, err := caldate.Parse(t.DueDate); err == nil && due.Before(today) {
			m.TasksOverdue++
		}
	}
	return m
}
