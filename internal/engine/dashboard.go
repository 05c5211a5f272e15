package engine

import (
	"time"

	"orbit/internal/model"
)

// Dashboard is every derived view of one state snapshot at one instant.
type Dashboard struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Today       Agenda                 `json:"today"`
	Tomorrow    Agenda                 `json:"tomorrow"`
	Insights    Insights               `json:"insights"`
	Metrics     Metrics                `json:"metrics"`
	Tasks       TaskListView           `json:"tasks"`
	Status      *model.StatusIndicator `json:"status,omitempty"`
	Notes       string                 `json:"notes"`
}

// BuildDashboard derives the dashboard views from st. It does not escalate
// task priorities; callers run EscalateDueSoon on the stored tasks first.
func BuildDashboard(st model.State, now time.Time, windowDays int) Dashboard {
	d := Dashboard{
		GeneratedAt: now,
		Today:       TodayAgenda(st.Events, now),
		Tomorrow:    TomorrowAgenda(st.Events, now),
		Insights:    UpcomingInsights(st.Events, st.Todos, now, windowDays),
		Metrics:     ComputeMetrics(st.Events, st.Todos, now),
		Tasks: TaskList(st.Todos, now, ListOptions{
			ShowFull:      st.ShowFullTodoList,
			ShowCompleted: st.ShowCompletedTodos,
		}),
		Notes: st.Notes,
	}
	if st.CurrentStatus != "" && st.CurrentStatus != model.StatusInvisible {
		for i := range st.Statuses {
			if st.Statuses[i].ID == st.CurrentStatus {
				s := st.Statuses[i]
				d.Status = &s
				break
			}
		}
	}
	return d
}
