// Package render turns problem records into a table view model. It never
// touches storage or the network; callers pass in the solved set.
package render

import (
	"fmt"
	"strconv"

	"github.com/terra-clan/rating-ladder/internal/models"
	"github.com/terra-clan/rating-ladder/internal/rating"
)

// EmptyPlaceholder is shown instead of a table when there are no records
const EmptyPlaceholder = "No problems found matching your criteria."

const (
	StatusSolved   = "Solved"
	StatusUnsolved = "Unsolved"

	unratedText  = "N/A"
	fallbackLink = "https://leetcode.com/problems/"
)

// SolvedLookup answers whether a problem is solved
type SolvedLookup interface {
	IsSolved(id string) bool
}

// SolvedSet is a SolvedLookup over a snapshot of the progress map
type SolvedSet map[string]bool

func (s SolvedSet) IsSolved(id string) bool { return s[id] }

// Options control a render pass
type Options struct {
	TagsVisible  bool
	Sort         models.SortSpec
	GlobalSearch bool // adds the rating range column, headers are not sortable
}

// Column is a table header
type Column struct {
	Key       string           `json:"key"`
	Title     string           `json:"title"`
	SortField models.SortField `json:"sortField,omitempty"` // empty when not sortable
	Indicator string           `json:"indicator,omitempty"` // ↑ or ↓ on the active sort column
	Hidden    bool             `json:"hidden,omitempty"`
}

// Row is one rendered problem
type Row struct {
	ID          int      `json:"id"`
	Key         string   `json:"key"`
	Date        string   `json:"date"`
	Name        string   `json:"name"`
	Link        string   `json:"link"`
	Rating      string   `json:"rating"`
	Color       string   `json:"color,omitempty"`
	Label       string   `json:"label,omitempty"`
	Contest     string   `json:"contest"`
	Tags        []string `json:"tags,omitempty"`
	RatingRange string   `json:"ratingRange,omitempty"`
	Solved      bool     `json:"solved"`
	Status      string   `json:"status"`
}

// Counter is the "X / Y solved" badge, scoped to the rendered rows
type Counter struct {
	Solved int `json:"solved"`
	Total  int `json:"total"`
}

func (c Counter) String() string {
	return fmt.Sprintf("%d / %d solved", c.Solved, c.Total)
}

// Table is the view model of a problem listing. Exactly one of Placeholder
// or Rows is populated.
type Table struct {
	Columns     []Column `json:"columns,omitempty"`
	Rows        []Row    `json:"rows,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Counter     Counter  `json:"counter"`
	TagsVisible bool     `json:"tagsVisible"`
}

// IsEmpty reports whether the table rendered the placeholder
func (t Table) IsEmpty() bool {
	return t.Placeholder != ""
}

// Render builds a table from records in their given order
func Render(records []models.Problem, solved SolvedLookup, opts Options) Table {
	if len(records) == 0 {
		return Table{Placeholder: EmptyPlaceholder, TagsVisible: opts.TagsVisible}
	}

	t := Table{
		Columns:     columns(opts),
		Rows:        make([]Row, 0, len(records)),
		TagsVisible: opts.TagsVisible,
	}

	for _, p := range records {
		row := renderRow(p, solved.IsSolved(p.Key()))
		if !opts.GlobalSearch {
			row.RatingRange = ""
		}
		if row.Solved {
			t.Counter.Solved++
		}
		t.Rows = append(t.Rows, row)
	}
	t.Counter.Total = len(t.Rows)

	return t
}

func renderRow(p models.Problem, solved bool) Row {
	row := Row{
		ID:          p.ID,
		Key:         p.Key(),
		Date:        p.Date,
		Name:        p.Name,
		Link:        p.Link,
		Rating:      unratedText,
		Contest:     p.ContestName,
		Tags:        p.Tags,
		RatingRange: p.RatingRange,
	}

	if row.Link == "" {
		row.Link = fallbackLink + p.TitleSlug
	}

	if p.Rated {
		row.Rating = strconv.Itoa(p.Rating)
		row.Color = string(rating.ColorFor(p.Rating))
		row.Label = string(rating.LabelFor(p.Rating))
	}

	applyStatus(&row, solved)
	return row
}

func applyStatus(row *Row, solved bool) {
	row.Solved = solved
	if solved {
		row.Status = StatusSolved
	} else {
		row.Status = StatusUnsolved
	}
}

func columns(opts Options) []Column {
	cols := []Column{
		{Key: "date", Title: "Date", SortField: models.SortDate},
		{Key: "number", Title: "Number", SortField: models.SortNumber},
		{Key: "name", Title: "Problem Name", SortField: models.SortName},
		{Key: "rating", Title: "Rating", SortField: models.SortRating},
	}
	if opts.GlobalSearch {
		cols = append(cols, Column{Key: "range", Title: "Range"})
	}
	cols = append(cols,
		Column{Key: "contest", Title: "Contest", SortField: models.SortContest},
		Column{Key: "tags", Title: "Tags", Hidden: !opts.TagsVisible},
		Column{Key: "status", Title: "Status"},
	)

	for i := range cols {
		if opts.GlobalSearch {
			cols[i].SortField = ""
			continue
		}
		if cols[i].SortField != "" && cols[i].SortField == opts.Sort.Field {
			cols[i].Indicator = opts.Sort.Order.Arrow()
		}
	}
	return cols
}
