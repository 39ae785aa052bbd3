package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Problem is a single catalog entry as served by the catalog backend.
// The backend emits spreadsheet-style column names, so the wire format is
// handled by MarshalJSON/UnmarshalJSON rather than struct tags.
type Problem struct {
	ID          int
	Name        string
	Rating      int
	Rated       bool // false when the rating cell was empty
	Link        string
	TitleSlug   string
	ContestName string
	Tags        []string
	Date        string
	RatingRange string // only set by global search
}

type problemWire struct {
	ID          flexNumber `json:"Problem Number"`
	Name        string     `json:"Problem Name"`
	Rating      flexNumber `json:"Problem Rating"`
	Link        string     `json:"Problem Link"`
	TitleSlug   string     `json:"titleSlug,omitempty"`
	ContestName string     `json:"Contest Name"`
	Tags        string     `json:"Tags"`
	Date        string     `json:"Date"`
	RatingRange string     `json:"Rating Range,omitempty"`
}

// UnmarshalJSON decodes the backend column layout
func (p *Problem) UnmarshalJSON(data []byte) error {
	var w problemWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	if !w.ID.valid {
		return fmt.Errorf("problem %q: missing problem number", w.Name)
	}

	*p = Problem{
		ID:          int(w.ID.value),
		Name:        w.Name,
		Rating:      int(math.Round(w.Rating.value)),
		Rated:       w.Rating.valid,
		Link:        w.Link,
		TitleSlug:   w.TitleSlug,
		ContestName: w.ContestName,
		Tags:        SplitTags(w.Tags),
		Date:        w.Date,
		RatingRange: w.RatingRange,
	}
	return nil
}

// MarshalJSON encodes the backend column layout
func (p Problem) MarshalJSON() ([]byte, error) {
	w := problemWire{
		ID:          flexNumber{value: float64(p.ID), valid: true},
		Name:        p.Name,
		Rating:      flexNumber{value: float64(p.Rating), valid: p.Rated},
		Link:        p.Link,
		TitleSlug:   p.TitleSlug,
		ContestName: p.ContestName,
		Tags:        strings.Join(p.Tags, ", "),
		Date:        p.Date,
		RatingRange: p.RatingRange,
	}
	return json.Marshal(w)
}

// Key returns the identifier used by the progress store
func (p Problem) Key() string {
	return strconv.Itoa(p.ID)
}

// SplitTags splits the comma separated tag column
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// flexNumber accepts a JSON number, a numeric string, an empty string or null.
// Empty and null decode as invalid.
type flexNumber struct {
	value float64
	valid bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = flexNumber{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = flexNumber{}
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			// non-numeric cells such as "N/A" are treated as missing
			*n = flexNumber{}
			return nil
		}
		*n = flexNumber{value: f, valid: true}
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = flexNumber{value: f, valid: !math.IsNaN(f)}
	return nil
}

func (n flexNumber) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return []byte(`""`), nil
	}
	if n.value == math.Trunc(n.value) {
		return []byte(strconv.FormatInt(int64(n.value), 10)), nil
	}
	return json.Marshal(n.value)
}
