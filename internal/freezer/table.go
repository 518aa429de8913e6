package freezer

import "fmt"

// idxColumn is the reserved column name used to materialize a table's
// explicit index for storage round trips.
const idxColumn = "idx"

// Table is a column-ordered, string-valued table payload. Data maps each
// column name in Names to its values; all columns carry the same number
// of rows. A non-empty Index labels rows explicitly; an empty Index
// means the default positional one.
type Table struct {
	Names []string            `json:"names,omitempty"`
	Data  map[string][]string `json:"data,omitempty"`
	Index []string            `json:"index,omitempty"`
}

// NewTable builds an empty table with the given column order.
func NewTable(names ...string) Table {
	t := Table{Names: names, Data: make(map[string][]string, len(names))}
	for _, n := range names {
		t.Data[n] = nil
	}
	return t
}

// Len returns the number of rows.
func (t Table) Len() int {
	if len(t.Names) == 0 {
		return 0
	}
	return len(t.Data[t.Names[0]])
}

// Empty reports whether the table holds no rows.
func (t Table) Empty() bool { return t.Len() == 0 }

// AppendRow appends one row given in column order.
func (t *Table) AppendRow(values ...string) error {
	if len(values) != len(t.Names) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.Names))
	}
	if t.Data == nil {
		t.Data = make(map[string][]string, len(t.Names))
	}
	for i, name := range t.Names {
		t.Data[name] = append(t.Data[name], values[i])
	}
	return nil
}

// Column returns the values of one column and whether it exists.
func (t Table) Column(name string) ([]string, bool) {
	vals, ok := t.Data[name]
	return vals, ok
}

// withIndexColumn returns a copy with the explicit index folded into an
// idx column, ready for storage.
func (t Table) withIndexColumn() Table {
	out := Table{Names: make([]string, 0, len(t.Names)+1), Data: make(map[string][]string, len(t.Names)+1)}
	out.Names = append(out.Names, t.Names...)
	for name, vals := range t.Data {
		out.Data[name] = append([]string(nil), vals...)
	}
	out.Names = append(out.Names, idxColumn)
	out.Data[idxColumn] = append([]string(nil), t.Index...)
	return out
}

// restoreIndexColumn pulls a stored idx column back out into the index.
func (t Table) restoreIndexColumn() Table {
	idx, ok := t.Data[idxColumn]
	if !ok {
		return t
	}
	out := Table{Names: make([]string, 0, len(t.Names)), Data: make(map[string][]string, len(t.Names)), Index: idx}
	for _, name := range t.Names {
		if name == idxColumn {
			continue
		}
		out.Names = append(out.Names, name)
		out.Data[name] = t.Data[name]
	}
	return out
}
