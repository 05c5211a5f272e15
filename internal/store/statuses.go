package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"orbit/internal/model"
)

// UpsertStatus adds a status indicator or updates the one with the same id.
// An update keeps the stored image when the new one is empty.
func (s *Store) UpsertStatus(si model.StatusIndicator) (model.StatusIndicator, error) {
	si.Label = strings.TrimSpace(si.Label)
	if si.Label == "" {
		return model.StatusIndicator{}, fmt.Errorf("%w: status label is required", ErrInvalid)
	}
	if si.ID == model.StatusInvisible {
		return model.StatusIndicator{}, fmt.Errorf("%w: %q is reserved", ErrInvalid, si.ID)
	}
	if si.ID == "" {
		si.ID = uuid.NewString()
	}

	err := s.update(func(st *model.State) error {
		for i := range st.Statuses {
			if st.Statuses[i].ID != si.ID {
				continue
			}
			if si.Image == "" {
				si.Image = st.Statuses[i].Image
			}
			si.CreatedAt = st.Statuses[i].CreatedAt
			st.Statuses[i] = si
			return nil
		}
		if si.CreatedAt.IsZero() {
			si.CreatedAt = time.Now().UTC()
		}
		st.Statuses = append(st.Statuses, si)
		return nil
	})
	return si, err
}

// DeleteStatus removes a status indicator. If it was the current status the
// dashboard falls back to invisible.
func (s *Store) DeleteStatus(id string) error {
	return s.update(func(st *model.State) error {
		for i := range st.Statuses {
			if st.Statuses[i].ID == id {
				st.Statuses = append(st.Statuses[:i], st.Statuses[i+1:]...)
				if st.CurrentStatus == id {
					st.CurrentStatus = model.StatusInvisible
				}
				return nil
			}
		}
		return fmt.Errorf("%w: status %q", ErrNotFound, id)
	})
}

// MoveStatus moves a status indicator by delta positions (-1 up, +1 down),
// clamped to the list bounds.
func (s *Store) MoveStatus(id string, delta int) error {
	return s.update(func(st *model.State) error {
		from := -1
		for i := range st.Statuses {
			if st.Statuses[i].ID == id {
				from = i
				break
			}
		}
		if from < 0 {
			return fmt.Errorf("%w: status %q", ErrNotFound, id)
		}
		to := min(max(from+delta, 0), len(st.Statuses)-1)
		for from != to {
			step := 1
			if to < from {
				step = -1
			}
			st.Statuses[from], st.Statuses[from+step] = st.Statuses[from+step], st.Statuses[from]
			from += step
		}
		return nil
	})
}

// SetCurrentStatus selects the displayed status. Unknown ids select
// invisible.
func (s *Store) SetCurrentStatus(id string) (string, error) {
	var selected string
	err := s.update(func(st *model.State) error {
		selected = model.StatusInvisible
		for _, si := range st.Statuses {
			if si.ID == id {
				selected = id
				break
			}
		}
		st.CurrentStatus = selected
		return nil
	})
	return selected, err
}
