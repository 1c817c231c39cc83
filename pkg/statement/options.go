// Package statement is the statement-generation facade: option structs
// describing an abstract operation, a fluent raw-SQL builder, and a
// generator that renders the operation onto a GORM session with
// dialect-specific SQL where drivers disagree.
package statement

import "fmt"

// InsertMode selects the conflict behavior of a generated insert.
type InsertMode string

const (
	// InsertOrIgnore skips rows that would violate a unique constraint.
	InsertOrIgnore InsertMode = "insert_or_ignore"
	// InsertOrUpdate updates the existing row on a unique-constraint hit.
	InsertOrUpdate InsertMode = "insert_or_update"
)

// Direction orders query results.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Order is one ORDER BY term.
type Order struct {
	Column    string
	Direction Direction
}

// SQL renders the term for an ORDER BY clause.
func (o Order) SQL() string {
	if o.Direction == Desc {
		return o.Column + " DESC"
	}
	return o.Column + " ASC"
}

// SelectOptions describes a read.
type SelectOptions struct {
	Columns  []string
	Filters  []Condition
	OrderBy  []Order
	Limit    int
	Offset   int
	Distinct bool
}

// UpdateOptions describes an update of all rows matching Filters.
type UpdateOptions struct {
	Filters []Condition
	Values  map[string]any
}

// Validate rejects updates without values.
func (o UpdateOptions) Validate() error {
	if len(o.Values) == 0 {
		return fmt.Errorf("update requires at least one value")
	}
	return nil
}

// DeleteOptions describes a delete of all rows matching Filters.
type DeleteOptions struct {
	Filters []Condition
}

// InsertOptions describes an insert with conflict handling.
//
// ConflictColumns name the unique columns the conflict target is built
// from; when empty the generator falls back to the model's primary key
// and unique columns.
type InsertOptions struct {
	Values          map[string]any
	Mode            InsertMode
	ConflictColumns []string
}

// ExceptOptions describes a set difference: rows of the left table whose
// LeftColumn value does not appear in RightTable.RightColumn.
type ExceptOptions struct {
	LeftColumn  string
	RightTable  string
	RightColumn string
}

// Validate rejects incomplete except options.
func (o ExceptOptions) Validate() error {
	if o.LeftColumn == "" || o.RightTable == "" || o.RightColumn == "" {
		return fmt.Errorf("except requires left column, right table and right column")
	}
	return nil
}
