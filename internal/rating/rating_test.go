package rating

import (
	"errors"
	"testing"
)

func TestClassifierBoundaries(t *testing.T) {
	tests := []struct {
		rating int
		color  Color
		label  Label
	}{
		{-50, "#808080", "Newbie"},
		{0, "#808080", "Newbie"},
		{1199, "#808080", "Newbie"},
		{1200, "#008000", "Pupil"},
		{1399, "#008000", "Pupil"},
		{1400, "#03a89e", "Specialist"},
		{1600, "#0000ff", "Expert"},
		{1899, "#0000ff", "Expert"},
		{1900, "#aa00aa", "Candidate Master"},
		{2100, "#ff8c00", "Master"},
		{2400, "#ff8c00", "International Master"},
		{2599, "#ff8c00", "International Master"},
		{2600, "#ff0000", "Grandmaster"},
		{2999, "#ff0000", "Grandmaster"},
		{3000, "#ff0000", "Legendary Grandmaster"},
		{4500, "#ff0000", "Legendary Grandmaster"},
	}

	for _, tt := range tests {
		if got := ColorFor(tt.rating); got != tt.color {
			t.Errorf("ColorFor(%d) = %s, want %s", tt.rating, got, tt.color)
		}
		if got := LabelFor(tt.rating); got != tt.label {
			t.Errorf("LabelFor(%d) = %s, want %s", tt.rating, got, tt.label)
		}
	}
}

func TestColorAndLabelPartitionAgree(t *testing.T) {
	wantBoundaries := []int{1200, 1400, 1600, 1900, 2100, 2400, 2600, 3000}

	var boundaries []int
	prevIdx, _ := Classify(-1000)
	for r := -999; r <= 5000; r++ {
		idx, tier := Classify(r)
		if ColorFor(r) != tier.Color || LabelFor(r) != tier.Label {
			t.Fatalf("rating %d: color/label disagree with tier %d", r, idx)
		}
		if idx < prevIdx {
			t.Fatalf("rating %d: tier index went backwards (%d -> %d)", r, prevIdx, idx)
		}
		if idx != prevIdx {
			boundaries = append(boundaries, r)
			// each label boundary must also be a boundary of exactly one tier step
			if idx != prevIdx+1 {
				t.Fatalf("rating %d: skipped tiers %d -> %d", r, prevIdx, idx)
			}
		}
		prevIdx = idx
	}

	if len(boundaries) != len(wantBoundaries) {
		t.Fatalf("got boundaries %v, want %v", boundaries, wantBoundaries)
	}
	for i := range boundaries {
		if boundaries[i] != wantBoundaries[i] {
			t.Errorf("boundary %d = %d, want %d", i, boundaries[i], wantBoundaries[i])
		}
	}

	if n := len(Tiers()); n != 9 {
		t.Errorf("expected 9 tiers, got %d", n)
	}
}

func TestParseBucket(t *testing.T) {
	b, err := ParseBucket("1200_to_1399")
	if err != nil {
		t.Fatalf("ParseBucket: %v", err)
	}
	if b.Lower != 1200 || b.Upper != 1399 {
		t.Errorf("unexpected bucket %+v", b)
	}
	if b.String() != "1200_to_1399" {
		t.Errorf("String() = %s", b.String())
	}
	if b.Display() != "1200-1399" {
		t.Errorf("Display() = %s", b.Display())
	}
	if !b.Contains(1200) || !b.Contains(1399) || b.Contains(1400) {
		t.Error("Contains does not match inclusive bounds")
	}

	for _, bad := range []string{"", "1200", "1200-1399", "a_to_b", "1400_to_1200"} {
		if _, err := ParseBucket(bad); !errors.Is(err, ErrInvalidBucket) {
			t.Errorf("ParseBucket(%q) err = %v, want ErrInvalidBucket", bad, err)
		}
	}
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		rating float64
		want   string
	}{
		{1450, "1600_to_1699"},
		{1400, "1600_to_1699"},
		{1499.9, "1600_to_1699"},
		{1500, "1700_to_1799"},
		{1873.25, "2000_to_2099"},
	}

	for _, tt := range tests {
		if got := Recommend(tt.rating).String(); got != tt.want {
			t.Errorf("Recommend(%v) = %s, want %s", tt.rating, got, tt.want)
		}
	}
}
