package engine

import (
	"fmt"
	"sort"
	"time"

	"orbit/internal/caldate"
	"orbit/internal/model"
)

// Agenda is the list of events occurring on one date.
type Agenda struct {
	Date      string          `json:"date"`
	Events    []EventInstance `json:"events"`
	Running   int             `json:"running"`
	Urgent    int             `json:"urgent"`
	Important int             `json:"important"`
	Summary   string          `json:"summary"`
	Subtitle  string          `json:"subtitle"`
}

// DayAgenda collects the events occurring on date, ordered by start time.
func DayAgenda(events []model.Event, date caldate.Date, now time.Time) Agenda {
	var day []model.Event
	for _, ev := range events {
		if OccursOn(ev, date) {
			day = append(day, ev)
		}
	}
	sort.SliceStable(day, func(i, j int) bool {
		as, _ := Bounds(day[i], DefaultEventDuration)
		bs, _ := Bounds(day[j], DefaultEventDuration)
		return as < bs
	})

	a := Agenda{
		Date:   date.String(),
		Events: make([]EventInstance, 0, len(day)),
	}
	for _, ev := range day {
		inst := newEventInstance(ev, date, now)
		if inst.Status.Kind == StatusRunning {
			a.Running++
		}
		switch ev.Priority {
		case model.PriorityUrgent:
			a.Urgent++
		case model.PriorityImportant:
			a.Important++
		}
		a.Events = append(a.Events, inst)
	}

	if n := len(a.Events); n > 0 {
		a.Summary = fmt.Sprintf("%d today · %d live", n, a.Running)
	} else {
		a.Summary = "No events"
	}
	switch {
	case a.Urgent > 0:
		a.Subtitle = fmt.Sprintf("%d urgent event%s", a.Urgent, plural(a.Urgent))
	case a.Important > 0:
		a.Subtitle = fmt.Sprintf("%d important event%s", a.Important, plural(a.Important))
	}
	return a
}

// TodayAgenda is DayAgenda for the local date of now.
func TodayAgenda(events []model.Event, now time.Time) Agenda {
	return DayAgenda(events, caldate.Today(now), now)
}

// TomorrowAgenda is DayAgenda for the day after the local date of now.
func TomorrowAgenda(events []model.Event, now time.Time) Agenda {
	return DayAgenda(events, caldate.Tomorrow(now), now)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
