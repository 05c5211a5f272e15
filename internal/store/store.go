// Package store persists the dashboard state document and named presets.
//
// All methods are safe for concurrent use. Reads return deep copies; the
// engine works on those snapshots and never sees the live document.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"orbit/internal/caldate"
	"orbit/internal/engine"
	appLog "orbit/internal/log"
	"orbit/internal/model"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrInvalid  = errors.New("store: invalid input")
)

// Options configure a Store.
type Options struct {
	// Path is the JSON state file. Created with defaults on first run.
	Path string
	// PresetDir holds one JSON file per named preset. Defaults to a
	// "presets" directory next to Path.
	PresetDir string
	// DefaultEventMinutes is the duration given to events whose end time
	// is missing or not after the start.
	DefaultEventMinutes int
}

// Store owns the state document.
type Store struct {
	mu    sync.RWMutex
	opts  Options
	state model.State
}

// Open loads the state file at opts.Path, creating it with the default
// state if it does not exist.
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, errors.New("store: state path is empty")
	}
	if opts.PresetDir == "" {
		opts.PresetDir = filepath.Join(filepath.Dir(opts.Path), "presets")
	}
	if opts.DefaultEventMinutes <= 0 {
		opts.DefaultEventMinutes = engine.DefaultEventDuration
	}

	s := &Store{opts: opts}

	data, err := os.ReadFile(opts.Path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("store: read state: %w", err)
		}
		s.state = model.DefaultState()
		if err := s.saveLocked(); err != nil {
			return s, err
		}
		appLog.Info("store: created default state", "path", opts.Path)
		return s, nil
	}

	st, err := decodeState(data)
	if err != nil {
		return nil, fmt.Errorf("store: decode state: %w", err)
	}
	s.state = st
	appLog.Info("store: loaded state", "path", opts.Path, "events", len(st.Events), "todos", len(st.Todos))
	return s, nil
}

// decodeState unmarshals a state document over the defaults so older files
// missing newer fields still load.
func decodeState(data []byte) (model.State, error) {
	st := model.DefaultState()
	if err := json.Unmarshal(data, &st); err != nil {
		return model.State{}, err
	}
	if st.Events == nil {
		st.Events = []model.Event{}
	}
	if st.Todos == nil {
		st.Todos = []model.Task{}
	}
	if st.Statuses == nil {
		st.Statuses = []model.StatusIndicator{}
	}
	if st.CurrentStatus == "" {
		st.CurrentStatus = model.StatusInvisible
	}
	return st, nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() model.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Save writes the current state to disk.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	return writeJSONAtomic(s.opts.Path, s.state)
}

// update applies fn to the live state and persists it if fn succeeds.
func (s *Store) update(fn func(st *model.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(&s.state); err != nil {
		return err
	}
	return s.saveLocked()
}

// UpsertEvent inserts ev (new events go first) or replaces the event with
// the same id. Missing ids are generated; times are normalized.
func (s *Store) UpsertEvent(ev model.Event) (model.Event, error) {
	ev.Title = strings.TrimSpace(ev.Title)
	if ev.Title == "" {
		return model.Event{}, fmt.Errorf("%w: event title is required", ErrInvalid)
	}
	if _, err := caldate.Parse(ev.Date); err != nil {
		return model.Event{}, fmt.Errorf("%w: event date: %v", ErrInvalid, err)
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ev = engine.NormalizeEvent(ev, s.opts.DefaultEventMinutes)

	err := s.update(func(st *model.State) error {
		for i := range st.Events {
			if st.Events[i].ID == ev.ID {
				st.Events[i] = ev
				return nil
			}
		}
		st.Events = append([]model.Event{ev}, st.Events...)
		return nil
	})
	return ev, err
}

// DeleteEvent removes an event and all its occurrences.
func (s *Store) DeleteEvent(id string) error {
	return s.update(func(st *model.State) error {
		for i := range st.Events {
			if st.Events[i].ID == id {
				st.Events = append(st.Events[:i], st.Events[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: event %q", ErrNotFound, id)
	})
}

// ExcludeOccurrence deletes the single occurrence of event id on date. A
// recurring series gets date added to its exclusion list; a non-recurring
// event is deleted outright.
func (s *Store) ExcludeOccurrence(id, date string) error {
	if _, err := caldate.Parse(date); err != nil {
		return fmt.Errorf("%w: occurrence date: %v", ErrInvalid, err)
	}
	return s.update(func(st *model.State) error {
		for i := range st.Events {
			ev := &st.Events[i]
			if ev.ID != id {
				continue
			}
			if !ev.Repeat.IsRecurring() {
				st.Events = append(st.Events[:i], st.Events[i+1:]...)
				return nil
			}
			if !ev.IsExcluded(date) {
				ev.ExcludedDates = append(ev.ExcludedDates, date)
			}
			return nil
		}
		return fmt.Errorf("%w: event %q", ErrNotFound, id)
	})
}

// ReplaceSourceEvents swaps every event imported from source for events.
// Locally created events are untouched.
func (s *Store) ReplaceSourceEvents(source string, events []model.Event) error {
	if source == "" {
		return fmt.Errorf("%w: source id is required", ErrInvalid)
	}
	return s.update(func(st *model.State) error {
		kept := st.Events[:0:0]
		for _, ev := range st.Events {
			if ev.Source != source {
				kept = append(kept, ev)
			}
		}
		for _, ev := range events {
			ev.Source = source
			kept = append(kept, engine.NormalizeEvent(ev, s.opts.DefaultEventMinutes))
		}
		st.Events = kept
		return nil
	})
}

// UpsertTask inserts or replaces a task. Replacing keeps the stored
// completion flag, which only ToggleTask changes.
func (s *Store) UpsertTask(t model.Task) (model.Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return model.Task{}, fmt.Errorf("%w: task title is required", ErrInvalid)
	}
	for _, d := range []string{t.StartDate, t.DueDate} {
		if d == "" {
			continue
		}
		if _, err := caldate.Parse(d); err != nil {
			return model.Task{}, fmt.Errorf("%w: task date: %v", ErrInvalid, err)
		}
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Priority == "" {
		t.Priority = model.PriorityNormal
	}

	err := s.update(func(st *model.State) error {
		for i := range st.Todos {
			if st.Todos[i].ID == t.ID {
				t.Completed = st.Todos[i].Completed
				st.Todos[i] = t
				return nil
			}
		}
		t.Completed = false
		st.Todos = append([]model.Task{t}, st.Todos...)
		return nil
	})
	return t, err
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(id string) error {
	return s.update(func(st *model.State) error {
		for i := range st.Todos {
			if st.Todos[i].ID == id {
				st.Todos = append(st.Todos[:i], st.Todos[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: task %q", ErrNotFound, id)
	})
}

// ToggleTask flips a task's completion flag and returns the updated task.
func (s *Store) ToggleTask(id string) (model.Task, error) {
	var out model.Task
	err := s.update(func(st *model.State) error {
		for i := range st.Todos {
			if st.Todos[i].ID == id {
				st.Todos[i].Completed = !st.Todos[i].Completed
				out = st.Todos[i]
				return nil
			}
		}
		return fmt.Errorf("%w: task %q", ErrNotFound, id)
	})
	return out, err
}

// EscalateDueSoon raises due-soon tasks to urgent and persists the state
// only when a priority actually changed.
func (s *Store) EscalateDueSoon(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := engine.EscalateDueSoon(s.state.Todos, now)
	if n == 0 {
		return 0, nil
	}
	appLog.Info("store: escalated due-soon tasks", "count", n)
	return n, s.saveLocked()
}

// SetNotes replaces the free-text notes.
func (s *Store) SetNotes(notes string) error {
	return s.update(func(st *model.State) error {
		st.Notes = notes
		return nil
	})
}

// SetViewOptions updates the task panel toggles.
func (s *Store) SetViewOptions(opts engine.ListOptions) error {
	return s.update(func(st *model.State) error {
		st.ShowFullTodoList = opts.ShowFull
		st.ShowCompletedTodos = opts.ShowCompleted
		return nil
	})
}

// SetTheme records the selected theme name.
func (s *Store) SetTheme(theme string) error {
	if theme == "" {
		return fmt.Errorf("%w: theme is required", ErrInvalid)
	}
	return s.update(func(st *model.State) error {
		st.Theme = theme
		return nil
	})
}

// writeJSONAtomic marshals v and writes it to path via a temp file and
// rename, with 0600 permissions.
func writeJSONAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".orbit-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
