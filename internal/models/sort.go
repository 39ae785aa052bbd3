package models

import "fmt"

// SortField is a sortable column of the problem table
type SortField string

const (
	SortDate    SortField = "date"
	SortNumber  SortField = "number"
	SortName    SortField = "name"
	SortRating  SortField = "rating"
	SortContest SortField = "contest"
)

// SortOrder is the direction of a sort
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// backend column names per sort field
var sortColumns = map[SortField]string{
	SortDate:    "Date",
	SortNumber:  "Problem Number",
	SortName:    "Problem Name",
	SortRating:  "Problem Rating",
	SortContest: "Contest Name",
}

// SortFields lists the sortable columns in table order
func SortFields() []SortField {
	return []SortField{SortDate, SortNumber, SortName, SortRating, SortContest}
}

// ParseSortField validates a field name
func ParseSortField(s string) (SortField, error) {
	f := SortField(s)
	if _, ok := sortColumns[f]; !ok {
		return "", fmt.Errorf("unknown sort field: %q", s)
	}
	return f, nil
}

// Column returns the backend column name for the field
func (f SortField) Column() string {
	return sortColumns[f]
}

// DefaultOrder returns the order applied when a field is first selected.
// Problem numbers start newest first; everything else ascends.
func (f SortField) DefaultOrder() SortOrder {
	if f == SortNumber {
		return OrderDesc
	}
	return OrderAsc
}

// Flip returns the opposite order
func (o SortOrder) Flip() SortOrder {
	if o == OrderAsc {
		return OrderDesc
	}
	return OrderAsc
}

// Arrow returns the indicator shown next to a sorted header
func (o SortOrder) Arrow() string {
	if o == OrderAsc {
		return "↑"
	}
	return "↓"
}

// SortSpec is the active sort of a problem listing
type SortSpec struct {
	Field SortField `json:"field"`
	Order SortOrder `json:"order"`
}

// DefaultSort returns {number, desc}
func DefaultSort() SortSpec {
	return SortSpec{Field: SortNumber, Order: OrderDesc}
}

// Toggle applies a header activation: the same field flips the order,
// a new field starts at its default order.
func (s SortSpec) Toggle(field SortField) SortSpec {
	if s.Field == field {
		return SortSpec{Field: field, Order: s.Order.Flip()}
	}
	return SortSpec{Field: field, Order: field.DefaultOrder()}
}
