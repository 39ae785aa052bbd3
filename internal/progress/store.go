package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/terra-clan/rating-ladder/internal/storage"
)

// Storage keys, shared with the browser client
const (
	KeySolved                = "solvedProblems"
	KeyShowTags              = "showTags"
	KeyDarkMode              = "darkMode"
	KeyDistributionCollapsed = "distributionCollapsed"
)

// Store tracks solved problems for one client. It holds no state of its
// own: every call reads the blob from storage, and writes read it again
// right before replacing it, so changes made by other sessions of the same
// client are never clobbered by a stale copy.
type Store struct {
	storage storage.Storage
}

// NewStore creates a progress store over s
func NewStore(s storage.Storage) *Store {
	return &Store{storage: s}
}

// IsSolved reports whether id is marked solved. A missing key is unsolved.
func (s *Store) IsSolved(ctx context.Context, id string) (bool, error) {
	solved, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	return solved[id], nil
}

// SetSolved marks or unmarks id. Unmarking deletes the key.
func (s *Store) SetSolved(ctx context.Context, id string, value bool) error {
	solved, err := s.load(ctx)
	if err != nil {
		return err
	}

	if value {
		solved[id] = true
	} else {
		delete(solved, id)
	}
	return s.save(ctx, solved)
}

// Toggle flips id and returns its new state
func (s *Store) Toggle(ctx context.Context, id string) (bool, error) {
	solved, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	next := !solved[id]
	if next {
		solved[id] = true
	} else {
		delete(solved, id)
	}

	if err := s.save(ctx, solved); err != nil {
		return false, err
	}
	return next, nil
}

// ResetAll replaces the solved map with an empty one
func (s *Store) ResetAll(ctx context.Context) error {
	return s.save(ctx, map[string]bool{})
}

// CountSolved counts the ids in ids that are solved. Ids outside the set
// are never counted, and duplicates in ids count once.
func (s *Store) CountSolved(ctx context.Context, ids []string) (int, error) {
	solved, err := s.load(ctx)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(ids))
	count := 0
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if solved[id] {
			count++
		}
	}
	return count, nil
}

// Snapshot returns the set of solved ids, for rendering a whole table
// from a single read.
func (s *Store) Snapshot(ctx context.Context) (map[string]bool, error) {
	return s.load(ctx)
}

// Solved returns all solved ids, numerically sorted where possible
func (s *Store) Solved(ctx context.Context) ([]string, error) {
	solved, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(solved))
	for id, ok := range solved {
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})
	return ids, nil
}

func (s *Store) load(ctx context.Context) (map[string]bool, error) {
	raw, ok, err := s.storage.GetItem(ctx, KeySolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read progress: %w", err)
	}

	solved := map[string]bool{}
	if !ok || raw == "" {
		return solved, nil
	}

	if err := json.Unmarshal([]byte(raw), &solved); err != nil {
		slog.Warn("discarding malformed progress blob", "error", err)
		return map[string]bool{}, nil
	}
	return solved, nil
}

func (s *Store) save(ctx context.Context, solved map[string]bool) error {
	data, err := json.Marshal(solved)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	if err := s.storage.SetItem(ctx, KeySolved, string(data)); err != nil {
		return fmt.Errorf("failed to write progress: %w", err)
	}
	return nil
}
