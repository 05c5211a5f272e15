package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	appLog "orbit/internal/log"
	"orbit/internal/model"
)

// Preset is a named snapshot of the whole dashboard state.
type Preset struct {
	Name    string      `json:"name"`
	SavedAt time.Time   `json:"savedAt"`
	State   model.State `json:"state"`
}

// PresetInfo describes a stored preset without its state.
type PresetInfo struct {
	Name    string    `json:"name"`
	SavedAt time.Time `json:"savedAt"`
	Events  int       `json:"events"`
	Todos   int       `json:"todos"`
}

func (s *Store) presetPath(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: preset name is required", ErrInvalid)
	}
	// Escape so any display name maps to a single file inside PresetDir.
	return filepath.Join(s.opts.PresetDir, url.PathEscape(name)+".json"), nil
}

// SavePreset stores the current state under name, replacing any preset with
// the same name.
func (s *Store) SavePreset(name string, now time.Time) (PresetInfo, error) {
	path, err := s.presetPath(name)
	if err != nil {
		return PresetInfo{}, err
	}
	p := Preset{
		Name:    strings.TrimSpace(name),
		SavedAt: now.UTC(),
		State:   s.Snapshot(),
	}
	if err := writeJSONAtomic(path, p); err != nil {
		return PresetInfo{}, fmt.Errorf("store: save preset: %w", err)
	}
	appLog.Info("store: preset saved", "name", p.Name)
	return infoOf(p), nil
}

// LoadPreset replaces the current state with the preset's state. The
// current theme is kept.
func (s *Store) LoadPreset(name string) error {
	p, err := s.readPreset(name)
	if err != nil {
		return err
	}
	st := p.State
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
	return s.update(func(cur *model.State) error {
		st.Theme = cur.Theme
		*cur = st
		return nil
	})
}

// DeletePreset removes a stored preset.
func (s *Store) DeletePreset(name string) error {
	path, err := s.presetPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: preset %q", ErrNotFound, name)
		}
		return fmt.Errorf("store: delete preset: %w", err)
	}
	return nil
}

// ListPresets returns all stored presets, most recently saved first.
// Unreadable preset files are logged and skipped.
func (s *Store) ListPresets() ([]PresetInfo, error) {
	entries, err := os.ReadDir(s.opts.PresetDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []PresetInfo{}, nil
		}
		return nil, fmt.Errorf("store: list presets: %w", err)
	}

	out := make([]PresetInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		p, err := readPresetFile(filepath.Join(s.opts.PresetDir, e.Name()))
		if err != nil {
			appLog.Error("store: skipping unreadable preset", err, "file", e.Name())
			continue
		}
		out = append(out, infoOf(p))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out, nil
}

func (s *Store) readPreset(name string) (Preset, error) {
	path, err := s.presetPath(name)
	if err != nil {
		return Preset{}, err
	}
	p, err := readPresetFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Preset{}, fmt.Errorf("%w: preset %q", ErrNotFound, name)
		}
		return Preset{}, fmt.Errorf("store: read preset: %w", err)
	}
	return p, nil
}

func readPresetFile(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, err
	}
	var p Preset
	if err := json.Unmarshal(data, &p); err != nil {
		return Preset{}, err
	}
	return p, nil
}

func infoOf(p Preset) PresetInfo {
	return PresetInfo{
		Name:    p.Name,
		SavedAt: p.SavedAt,
		Events:  len(p.State.Events),
		Todos:   len(p.State.Todos),
	}
}
