package render

// RowPatch is the single-row update sent after a solve toggle
type RowPatch struct {
	Key     string  `json:"key"`
	Solved  bool    `json:"solved"`
	Status  string  `json:"status"`
	Counter Counter `json:"counter"`
}

// Toggle updates the row identified by key in place and returns the patch
// to apply on the client. The counter is recomputed from the table's own
// rows so it stays scoped to what is displayed. ok is false when the row is
// not part of the table.
func (t *Table) Toggle(key string, solved bool) (patch RowPatch, ok bool) {
	for i := range t.Rows {
		if t.Rows[i].Key != key {
			continue
		}
		applyStatus(&t.Rows[i], solved)
		ok = true
	}
	if !ok {
		return RowPatch{}, false
	}

	t.Counter = t.count()
	return RowPatch{
		Key:     key,
		Solved:  solved,
		Status:  t.statusOf(key),
		Counter: t.Counter,
	}, true
}

// Recount refreshes solved flags and the counter from a new snapshot,
// without rebuilding the rows.
func (t *Table) Recount(solved SolvedLookup) {
	for i := range t.Rows {
		applyStatus(&t.Rows[i], solved.IsSolved(t.Rows[i].Key))
	}
	t.Counter = t.count()
}

func (t *Table) count() Counter {
	c := Counter{Total: len(t.Rows)}
	for _, r := range t.Rows {
		if r.Solved {
			c.Solved++
		}
	}
	return c
}

func (t *Table) statusOf(key string) string {
	for _, r := range t.Rows {
		if r.Key == key {
			return r.Status
		}
	}
	return ""
}
