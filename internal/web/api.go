package web

import (
	"net/http"
	"strings"

	"orbit/internal/caldate"
	"orbit/internal/engine"
	"orbit/internal/ics"
	appLog "orbit/internal/log"
	"orbit/internal/model"
)

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// handleDashboard escalates due-soon tasks and returns every derived view
// for the current instant.
func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	now := s.now()
	if _, err := s.store.EscalateDueSoon(now); err != nil {
		appLog.Error("dashboard: escalate due-soon tasks failed", err)
	}
	writeJSON(w, http.StatusOK, engine.BuildDashboard(s.store.Snapshot(), now, s.opts.InsightDays))
}

// weekStart resolves ?start=YYYY-MM-DD (default today) and ?offset=N weeks.
func (s *Server) weekStart(r *http.Request) (caldate.Date, error) {
	q := r.URL.Query()
	start := caldate.Today(s.now())
	if v := q.Get("start"); v != "" {
		d, err := caldate.Parse(v)
		if err != nil {
			return caldate.Date{}, err
		}
		start = d
	}
	return caldate.WeekStart(start).AddDays(7 * parseIntDefault(q.Get("offset"), 0)), nil
}

// handleWeek returns the materialized week grid.
//
// GET /api/week?start=2024-03-01&offset=1
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	start, err := s.weekStart(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	st := s.store.Snapshot()
	writeJSON(w, http.StatusOK, engine.MaterializeWeek(st.Events, st.Todos, start, s.now()))
}

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot().Events)
}

func (s *Server) handleUpsertEvent(w http.ResponseWriter, r *http.Request) {
	var ev model.Event
	if err := decodeJSON(w, r, &ev); err != nil {
		writeStoreError(w, r, err)
		return
	}
	saved, err := s.store.UpsertEvent(ev)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteEvent(r.PathValue("id")); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExcludeOccurrence deletes a single occurrence.
//
// POST /api/events/{id}/exclude?date=2024-03-04
func (s *Server) handleExcludeOccurrence(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ExcludeOccurrence(r.PathValue("id"), r.URL.Query().Get("date")); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	st := s.store.Snapshot()
	opts := engine.ListOptions{ShowFull: st.ShowFullTodoList, ShowCompleted: st.ShowCompletedTodos}
	q := r.URL.Query()
	if v := q.Get("full"); v != "" {
		opts.ShowFull = v == "1" || v == "true"
	}
	if v := q.Get("completed"); v != "" {
		opts.ShowCompleted = v == "1" || v == "true"
	}
	writeJSON(w, http.StatusOK, engine.TaskList(st.Todos, s.now(), opts))
}

func (s *Server) handleUpsertTask(w http.ResponseWriter, r *http.Request) {
	var t model.Task
	if err := decodeJSON(w, r, &t); err != nil {
		writeStoreError(w, r, err)
		return
	}
	saved, err := s.store.UpsertTask(t)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTask(r.PathValue("id")); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.ToggleTask(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleListStatuses(w http.ResponseWriter, _ *http.Request) {
	st := s.store.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"statuses": st.Statuses,
		"current":  st.CurrentStatus,
	})
}

func (s *Server) handleUpsertStatus(w http.ResponseWriter, r *http.Request) {
	var si model.StatusIndicator
	if err := decodeJSON(w, r, &si); err != nil {
		writeStoreError(w, r, err)
		return
	}
	saved, err := s.store.UpsertStatus(si)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteStatus(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteStatus(r.PathValue("id")); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMoveStatus reorders a status indicator.
//
// POST /api/statuses/{id}/move?delta=-1
func (s *Server) handleMoveStatus(w http.ResponseWriter, r *http.Request) {
	delta := parseIntDefault(r.URL.Query().Get("delta"), 0)
	if err := s.store.MoveStatus(r.PathValue("id"), delta); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetCurrentStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeStoreError(w, r, err)
		return
	}
	selected, err := s.store.SetCurrentStatus(body.ID)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"current": selected})
}

func (s *Server) handleSetNotes(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Notes string `json:"notes"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeStoreError(w, r, err)
		return
	}
	if err := s.store.SetNotes(body.Notes); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetView updates the task panel toggles and, if given, the theme.
func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ShowFull      bool   `json:"showFullTodoList"`
		ShowCompleted bool   `json:"showCompletedTodos"`
		Theme         string `json:"theme"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeStoreError(w, r, err)
		return
	}
	if err := s.store.SetViewOptions(engine.ListOptions{ShowFull: body.ShowFull, ShowCompleted: body.ShowCompleted}); err != nil {
		writeStoreError(w, r, err)
		return
	}
	if theme := strings.TrimSpace(body.Theme); theme != "" {
		if err := s.store.SetTheme(theme); err != nil {
			writeStoreError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListPresets()
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeStoreError(w, r, err)
		return
	}
	info, err := s.store.SavePreset(body.Name, s.now())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleLoadPreset(w http.ResponseWriter, r *http.Request) {
	if err := s.store.LoadPreset(r.PathValue("name")); err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeletePreset(r.PathValue("name")); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCalendarICS exports every event as an iCalendar subscription.
func (s *Server) handleCalendarICS(w http.ResponseWriter, _ *http.Request) {
	body := ics.Export(s.store.Snapshot().Events, s.opts.Location, s.now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="orbit.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
