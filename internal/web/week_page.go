package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"orbit/internal/engine"
	appLog "orbit/internal/log"
	"orbit/internal/model"
)

//go:embed templates/week.html
var templateFS embed.FS

var weekTemplate = template.Must(template.ParseFS(templateFS, "templates/week.html"))

type weekPage struct {
	Week     engine.Week
	Today    engine.Agenda
	Tomorrow engine.Agenda
	Insights engine.Insights
	Status   *model.StatusIndicator
	Notes    string
}

// handleWeekPage renders the week grid as a standalone HTML page. The root
// element carries data-ready="true" so headless captures know when to
// shoot.
//
// GET /week?start=2024-03-01&offset=0
func (s *Server) handleWeekPage(w http.ResponseWriter, r *http.Request) {
	start, err := s.weekStart(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	now := s.now()
	st := s.store.Snapshot()
	dash := engine.BuildDashboard(st, now, s.opts.InsightDays)

	page := weekPage{
		Week:     engine.MaterializeWeek(st.Events, st.Todos, start, now),
		Today:    dash.Today,
		Tomorrow: dash.Tomorrow,
		Insights: dash.Insights,
		Status:   dash.Status,
		Notes:    dash.Notes,
	}

	var buf bytes.Buffer
	if err := weekTemplate.Execute(&buf, page); err != nil {
		appLog.Error("week page render failed", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
