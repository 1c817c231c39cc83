package statement

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Generator renders operation options onto a GORM session. Statements are
// built, not executed; the caller finishes with Find/Updates/Delete/Create.
type Generator struct{}

// Select applies select options to the session.
func (Generator) Select(tx *gorm.DB, opts SelectOptions) *gorm.DB {
	if len(opts.Columns) > 0 {
		if opts.Distinct {
			tx = tx.Distinct(toAny(opts.Columns)...)
		} else {
			tx = tx.Select(opts.Columns)
		}
	} else if opts.Distinct {
		tx = tx.Distinct()
	}
	tx = applyFilters(tx, opts.Filters)
	if len(opts.OrderBy) > 0 {
		terms := make([]string, len(opts.OrderBy))
		for i, order := range opts.OrderBy {
			terms[i] = order.SQL()
		}
		tx = tx.Order(strings.Join(terms, ", "))
	}
	if opts.Limit > 0 {
		tx = tx.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		tx = tx.Offset(opts.Offset)
	}
	return tx
}

// Update applies update filters to the session. The caller executes with
// Updates(opts.Values).
func (Generator) Update(tx *gorm.DB, opts UpdateOptions) (*gorm.DB, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return applyFilters(tx, opts.Filters), nil
}

// Delete applies delete filters to the session.
func (Generator) Delete(tx *gorm.DB, opts DeleteOptions) *gorm.DB {
	return applyFilters(tx, opts.Filters)
}

// Insert applies the dialect-specific conflict clause for the insert mode.
// The caller executes with Create.
func (Generator) Insert(tx *gorm.DB, driver string, opts InsertOptions) (*gorm.DB, error) {
	expr, err := ConflictClause(driver, opts.Mode, opts.ConflictColumns)
	if err != nil {
		return nil, err
	}
	return tx.Clauses(expr), nil
}

func applyFilters(tx *gorm.DB, filters []Condition) *gorm.DB {
	for _, cond := range filters {
		sql, args := cond.render()
		tx = tx.Where(sql, args...)
	}
	return tx
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// ConflictClause maps an insert mode and driver name to the dialect's
// conflict construct:
//
//	insert_or_ignore: MySQL uses the INSERT IGNORE modifier; SQLite and
//	PostgreSQL use ON CONFLICT DO NOTHING; SQL Server renders a MERGE
//	without a matched branch.
//	insert_or_update: MySQL renders ON DUPLICATE KEY UPDATE; SQLite and
//	PostgreSQL render ON CONFLICT (cols) DO UPDATE SET col = EXCLUDED.col;
//	SQL Server renders a full MERGE.
func ConflictClause(driver string, mode InsertMode, conflictColumns []string) (clause.Expression, error) {
	switch mode {
	case InsertOrIgnore:
		switch driver {
		case "mysql":
			return clause.Insert{Modifier: "IGNORE"}, nil
		case "sqlite", "postgres", "sqlserver":
			return clause.OnConflict{DoNothing: true}, nil
		default:
			return nil, fmt.Errorf("unsupported driver %q for insert_or_ignore", driver)
		}
	case InsertOrUpdate:
		switch driver {
		case "mysql":
			// MySQL resolves the conflict target itself.
			return clause.OnConflict{UpdateAll: true}, nil
		case "sqlite", "postgres", "sqlserver":
			return clause.OnConflict{
				Columns:   conflictTarget(conflictColumns),
				UpdateAll: true,
			}, nil
		default:
			return nil, fmt.Errorf("unsupported driver %q for insert_or_update", driver)
		}
	default:
		return nil, fmt.Errorf("unknown insert mode %q", mode)
	}
}

func conflictTarget(columns []string) []clause.Column {
	cols := make([]clause.Column, len(columns))
	for i, name := range columns {
		cols[i] = clause.Column{Name: name}
	}
	return cols
}

// ExceptQuery renders the key-set difference between two tables: values of
// leftTable.leftColumn absent from rightTable.rightColumn. Dialects with
// EXCEPT use it directly; MySQL falls back to a NOT IN subquery.
func ExceptQuery(driver, leftTable, leftColumn, rightTable, rightColumn string) (string, error) {
	leftSQL, _ := NewBuilder(leftTable).Select(leftColumn).BuildSelect()
	rightSQL, _ := NewBuilder(rightTable).Select(rightColumn).BuildSelect()
	switch driver {
	case "sqlite", "postgres", "sqlserver":
		return leftSQL + " EXCEPT " + rightSQL, nil
	case "mysql":
		return fmt.Sprintf("%s WHERE %s NOT IN (%s)", leftSQL, leftColumn, rightSQL), nil
	default:
		return "", fmt.Errorf("unsupported driver %q for except", driver)
	}
}
