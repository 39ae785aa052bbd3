package rating

// Color is a CSS hex color used for rating badges
type Color string

// Label is the human-readable name of a difficulty tier
type Label string

// Tier is one step of the rating ladder. A rating belongs to the first tier
// whose Below bound exceeds it; the last tier has no upper bound.
type Tier struct {
	Below int   `json:"below,omitempty"` // exclusive upper bound, 0 for the top tier
	Color Color `json:"color"`
	Label Label `json:"label"`
}

// tiers is ordered by ascending bound. ColorFor and LabelFor both read it,
// which keeps their boundaries identical.
var tiers = []Tier{
	{Below: 1200, Color: "#808080", Label: "Newbie"},
	{Below: 1400, Color: "#008000", Label: "Pupil"},
	{Below: 1600, Color: "#03a89e", Label: "Specialist"},
	{Below: 1900, Color: "#0000ff", Label: "Expert"},
	{Below: 2100, Color: "#aa00aa", Label: "Candidate Master"},
	{Below: 2400, Color: "#ff8c00", Label: "Master"},
	{Below: 2600, Color: "#ff8c00", Label: "International Master"},
	{Below: 3000, Color: "#ff0000", Label: "Grandmaster"},
	{Color: "#ff0000", Label: "Legendary Grandmaster"},
}

// Tiers returns a copy of the tier table in ascending order
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// Classify returns the index into Tiers and the tier for a rating
func Classify(rating int) (int, Tier) {
	last := len(tiers) - 1
	for i := 0; i < last; i++ {
		if rating < tiers[i].Below {
			return i, tiers[i]
		}
	}
	return last, tiers[last]
}

// ColorFor returns the badge color for a rating
func ColorFor(rating int) Color {
	_, t := Classify(rating)
	return t.Color
}

// LabelFor returns the tier name for a rating
func LabelFor(rating int) Label {
	_, t := Classify(rating)
	return t.Label
}
