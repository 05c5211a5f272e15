package engine

import (
	"fmt"
	"sort"
	"time"

	"orbit/internal/caldate"
	"orbit/internal/model"
)

// ListOptions mirrors the task panel toggles.
type ListOptions struct {
	ShowFull      bool `json:"show_full"`
	ShowCompleted bool `json:"show_completed"`
}

// TaskView is a task with its current status.
type TaskView struct {
	Task   model.Task `json:"task"`
	Status Status     `json:"status"`
}

// TaskListView is the filtered, ordered task panel.
type TaskListView struct {
	Tasks   []TaskView `json:"tasks"`
	Active  int        `json:"active"`
	Overdue int        `json:"overdue"`
	Summary string     `json:"summary"`
}

// TaskList filters and orders tasks for the task panel. Completed tasks past
// their due date are dropped; completed tasks are hidden unless
// ShowCompleted; incomplete tasks that have not started are hidden unless
// ShowFull. Incomplete tasks come first, by priority then earliest date;
// completed tasks follow, latest date first.
func TaskList(tasks []model.Task, now time.Time, opts ListOptions) TaskListView {
	today := caldate.Today(now)

	var kept []model.Task
	for _, t := range tasks {
		if t.Completed {
			if due, err := caldate.Parse(t.DueDate); err == nil && due.Before(today) {
				continue
			}
			if !opts.ShowCompleted {
				continue
			}
			kept = append(kept, t)
			continue
		}
		if !opts.ShowFull {
			if start, err := caldate.Parse(t.StartDate); err == nil && start.After(today) {
				continue
			}
		}
		kept = append(kept, t)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		if a.Completed {
			return taskSortKey(a, "") > taskSortKey(b, "")
		}
		if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
			return ra < rb
		}
		return taskSortKey(a, "9999-12-31") < taskSortKey(b, "9999-12-31")
	})

	view := TaskListView{Tasks: make([]TaskView, 0, len(kept))}
	for _, t := range kept {
		st := TaskStatus(t, now)
		if !t.Completed {
			view.Active++
		}
		if st.Kind == StatusOverdue {
			view.Overdue++
		}
		view.Tasks = append(view.Tasks, TaskView{Task: t, Status: st})
	}

	switch {
	case view.Active == 0:
		view.Summary = "No tasks"
	case view.Overdue > 0:
		view.Summary = fmt.Sprintf("%d tasks · %d overdue", view.Active, view.Overdue)
	default:
		view.Summary = fmt.Sprintf("%d tasks", view.Active)
	}
	return view
}
