package models

import (
	"encoding/json"
	"testing"
)

func TestProblemUnmarshalBackendRow(t *testing.T) {
	raw := `{
		"Problem Number": 3044,
		"Problem Name": "Most Frequent Prime",
		"Problem Rating": 1737.1,
		"Problem Link": "https://leetcode.com/problems/most-frequent-prime",
		"Contest Name": "Weekly Contest 385",
		"Tags": "Array, Hash Table,  Math ,",
		"Date": "2024-02-18"
	}`

	var p Problem
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if p.ID != 3044 || p.Key() != "3044" {
		t.Errorf("unexpected id %d", p.ID)
	}
	if !p.Rated || p.Rating != 1737 {
		t.Errorf("unexpected rating %d (rated=%v)", p.Rating, p.Rated)
	}
	if len(p.Tags) != 3 || p.Tags[0] != "Array" || p.Tags[2] != "Math" {
		t.Errorf("unexpected tags %q", p.Tags)
	}
	if p.ContestName != "Weekly Contest 385" {
		t.Errorf("unexpected contest %q", p.ContestName)
	}
}

func TestProblemUnmarshalEmptyCells(t *testing.T) {
	raw := `{"Problem Number": "12", "Problem Name": "X", "Problem Rating": "", "Tags": "", "Date": ""}`

	var p Problem
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if p.ID != 12 {
		t.Errorf("expected id 12, got %d", p.ID)
	}
	if p.Rated {
		t.Error("empty rating cell should be unrated")
	}
	if p.Tags != nil {
		t.Errorf("expected no tags, got %q", p.Tags)
	}
}

func TestProblemUnmarshalMissingNumber(t *testing.T) {
	var p Problem
	if err := json.Unmarshal([]byte(`{"Problem Name": "X"}`), &p); err == nil {
		t.Fatal("expected error for row without a problem number")
	}
}

func TestSortToggle(t *testing.T) {
	s := DefaultSort()
	if s.Field != SortNumber || s.Order != OrderDesc {
		t.Fatalf("unexpected default %+v", s)
	}

	// new non-number field starts ascending, then alternates
	s = s.Toggle(SortRating)
	if s != (SortSpec{SortRating, OrderAsc}) {
		t.Fatalf("got %+v", s)
	}
	s = s.Toggle(SortRating)
	if s.Order != OrderDesc {
		t.Fatalf("second toggle: got %+v", s)
	}
	s = s.Toggle(SortRating)
	if s.Order != OrderAsc {
		t.Fatalf("third toggle: got %+v", s)
	}

	// number starts descending
	s = s.Toggle(SortNumber)
	if s != (SortSpec{SortNumber, OrderDesc}) {
		t.Fatalf("got %+v", s)
	}
}

func TestParseSortField(t *testing.T) {
	for _, f := range SortFields() {
		got, err := ParseSortField(string(f))
		if err != nil || got != f {
			t.Errorf("ParseSortField(%s) = %s, %v", f, got, err)
		}
		if f.Column() == "" {
			t.Errorf("field %s has no backend column", f)
		}
	}
	if _, err := ParseSortField("difficulty"); err == nil {
		t.Error("expected error for unknown field")
	}
}
