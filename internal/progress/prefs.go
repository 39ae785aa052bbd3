package progress

import (
	"context"
	"fmt"
	"strconv"
)

// Preferences are the persisted UI toggles of a client
type Preferences struct {
	ShowTags              bool `json:"showTags"`
	DarkMode              bool `json:"darkMode"`
	DistributionCollapsed bool `json:"distributionCollapsed"`
}

// DefaultPreferences shows tags and nothing else
func DefaultPreferences() Preferences {
	return Preferences{ShowTags: true}
}

// Preferences reads all preferences, falling back to defaults per key
func (s *Store) Preferences(ctx context.Context) (Preferences, error) {
	p := DefaultPreferences()

	var err error
	if p.ShowTags, err = s.readBool(ctx, KeyShowTags, p.ShowTags); err != nil {
		return p, err
	}
	if p.DarkMode, err = s.readBool(ctx, KeyDarkMode, p.DarkMode); err != nil {
		return p, err
	}
	if p.DistributionCollapsed, err = s.readBool(ctx, KeyDistributionCollapsed, p.DistributionCollapsed); err != nil {
		return p, err
	}
	return p, nil
}

// SavePreferences writes every preference
func (s *Store) SavePreferences(ctx context.Context, p Preferences) error {
	if err := s.SetShowTags(ctx, p.ShowTags); err != nil {
		return err
	}
	if err := s.SetDarkMode(ctx, p.DarkMode); err != nil {
		return err
	}
	return s.SetDistributionCollapsed(ctx, p.DistributionCollapsed)
}

func (s *Store) SetShowTags(ctx context.Context, v bool) error {
	return s.writeBool(ctx, KeyShowTags, v)
}

func (s *Store) SetDarkMode(ctx context.Context, v bool) error {
	return s.writeBool(ctx, KeyDarkMode, v)
}

func (s *Store) SetDistributionCollapsed(ctx context.Context, v bool) error {
	return s.writeBool(ctx, KeyDistributionCollapsed, v)
}

// readBool parses a stored "true"/"false"; anything else yields def
func (s *Store) readBool(ctx context.Context, key string, def bool) (bool, error) {
	raw, ok, err := s.storage.GetItem(ctx, key)
	if err != nil {
		return def, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, nil
	}
	return v, nil
}

func (s *Store) writeBool(ctx context.Context, key string, v bool) error {
	if err := s.storage.SetItem(ctx, key, strconv.FormatBool(v)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
