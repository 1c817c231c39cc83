package statement

import (
	"fmt"
	"reflect"
	"strings"
)

// The builder does NOT escape or validate SQL identifiers. Table and column
// names must come from trusted sources; user input belongs exclusively in
// Condition.Value, which is parameterized in the rendered query.

// Operator represents SQL comparison operators.
type Operator string

const (
	Equal              Operator = "="
	NotEqual           Operator = "!="
	GreaterThan        Operator = ">"
	GreaterThanOrEqual Operator = ">="
	LessThan           Operator = "<"
	LessThanOrEqual    Operator = "<="
	Like               Operator = "LIKE"
	NotLike            Operator = "NOT LIKE"
	In                 Operator = "IN"
	NotIn              Operator = "NOT IN"
	IsNull             Operator = "IS NULL"
	IsNotNull          Operator = "IS NOT NULL"
	Between            Operator = "BETWEEN"
	NotBetween         Operator = "NOT BETWEEN"
)

// JoinType represents SQL JOIN types.
type JoinType string

const (
	InnerJoin JoinType = "INNER JOIN"
	LeftJoin  JoinType = "LEFT JOIN"
	RightJoin JoinType = "RIGHT JOIN"
	FullJoin  JoinType = "FULL OUTER JOIN"
	CrossJoin JoinType = "CROSS JOIN"
)

// LogicalOperator combines conditions.
type LogicalOperator string

const (
	And LogicalOperator = "AND"
	Or  LogicalOperator = "OR"
)

// Condition is one WHERE/HAVING term.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// Where builds an equality-style condition.
func Where(field string, operator Operator, value any) Condition {
	return Condition{Field: field, Operator: operator, Value: value}
}

// Eq is shorthand for Where(field, Equal, value).
func Eq(field string, value any) Condition {
	return Condition{Field: field, Operator: Equal, Value: value}
}

// render returns the SQL fragment and args for one condition. Placeholders
// are '?'; GORM rebinds them per dialect.
func (c Condition) render() (string, []any) {
	switch c.Operator {
	case IsNull, IsNotNull:
		return fmt.Sprintf("%s %s", c.Field, c.Operator), nil
	case In, NotIn:
		return c.renderIn()
	case Between, NotBetween:
		return c.renderBetween()
	default:
		return fmt.Sprintf("%s %s ?", c.Field, c.Operator), []any{c.Value}
	}
}

func (c Condition) renderIn() (string, []any) {
	values := sliceValues(c.Value)
	if len(values) == 0 {
		// Empty set: IN matches nothing, NOT IN matches everything.
		if c.Operator == In {
			return "1 = 0", nil
		}
		return "1 = 1", nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	return fmt.Sprintf("%s %s (%s)", c.Field, c.Operator, placeholders), values
}

func (c Condition) renderBetween() (string, []any) {
	values := sliceValues(c.Value)
	if len(values) != 2 {
		// BETWEEN needs exactly two bounds; render a never-matching term.
		return "1 = 0", nil
	}
	return fmt.Sprintf("%s %s ? AND ?", c.Field, c.Operator), values
}

func sliceValues(value any) []any {
	if value == nil {
		return nil
	}
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return []any{value}
	}
	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}
	return out
}

// ConditionGroup nests conditions under one logical operator.
type ConditionGroup struct {
	Conditions []any // Condition or *ConditionGroup
	Operator   LogicalOperator
}

// Where appends a condition to the group.
func (g *ConditionGroup) Where(field string, operator Operator, value any) *ConditionGroup {
	g.Conditions = append(g.Conditions, Condition{Field: field, Operator: operator, Value: value})
	return g
}

// Group appends a nested group built by fn.
func (g *ConditionGroup) Group(operator LogicalOperator, fn func(*ConditionGroup)) *ConditionGroup {
	nested := &ConditionGroup{Operator: operator}
	fn(nested)
	g.Conditions = append(g.Conditions, nested)
	return g
}

func (g *ConditionGroup) render() (string, []any) {
	var parts []string
	var args []any
	for _, item := range g.Conditions {
		switch cond := item.(type) {
		case Condition:
			sql, condArgs := cond.render()
			parts = append(parts, sql)
			args = append(args, condArgs...)
		case *ConditionGroup:
			if len(cond.Conditions) == 0 {
				continue
			}
			sql, groupArgs := cond.render()
			parts = append(parts, "("+sql+")")
			args = append(args, groupArgs...)
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	return strings.Join(parts, " "+string(g.Operator)+" "), args
}

type joinClause struct {
	kind      JoinType
	table     string
	condition string
}

// Builder assembles raw SELECT statements with parameterized values.
type Builder struct {
	table      string
	selectCols []string
	distinct   bool
	joins      []joinClause
	where      *ConditionGroup
	groupBy    []string
	having     *ConditionGroup
	orderBy    []string
	limit      int
	offset     int
}

// NewBuilder creates a builder for the given table.
func NewBuilder(table string) *Builder {
	return &Builder{
		table:      table,
		selectCols: []string{"*"},
		where:      &ConditionGroup{Operator: And},
		having:     &ConditionGroup{Operator: And},
	}
}

// Select sets the columns to select.
func (b *Builder) Select(cols ...string) *Builder {
	b.selectCols = cols
	return b
}

// Distinct enables DISTINCT selection.
func (b *Builder) Distinct() *Builder {
	b.distinct = true
	return b
}

// Where adds an AND condition.
func (b *Builder) Where(field string, operator Operator, value any) *Builder {
	b.where.Where(field, operator, value)
	return b
}

// WhereCondition adds a prebuilt condition.
func (b *Builder) WhereCondition(cond Condition) *Builder {
	b.where.Conditions = append(b.where.Conditions, cond)
	return b
}

// WhereGroup adds a grouped condition.
func (b *Builder) WhereGroup(operator LogicalOperator, fn func(*ConditionGroup)) *Builder {
	b.where.Group(operator, fn)
	return b
}

// OrWhere adds an OR condition. Existing AND conditions are wrapped in a
// group so their semantics are preserved.
func (b *Builder) OrWhere(field string, operator Operator, value any) *Builder {
	cond := Condition{Field: field, Operator: operator, Value: value}
	if len(b.where.Conditions) == 0 {
		b.where.Conditions = append(b.where.Conditions, cond)
		return b
	}
	if b.where.Operator == Or {
		b.where.Conditions = append(b.where.Conditions, cond)
		return b
	}
	existing := &ConditionGroup{Conditions: b.where.Conditions, Operator: And}
	b.where = &ConditionGroup{Conditions: []any{existing, cond}, Operator: Or}
	return b
}

// Join adds a JOIN clause.
func (b *Builder) Join(kind JoinType, table, condition string) *Builder {
	b.joins = append(b.joins, joinClause{kind: kind, table: table, condition: condition})
	return b
}

// InnerJoin adds an INNER JOIN.
func (b *Builder) InnerJoin(table, condition string) *Builder {
	return b.Join(InnerJoin, table, condition)
}

// LeftJoin adds a LEFT JOIN.
func (b *Builder) LeftJoin(table, condition string) *Builder {
	return b.Join(LeftJoin, table, condition)
}

// GroupBy adds GROUP BY columns.
func (b *Builder) GroupBy(columns ...string) *Builder {
	b.groupBy = append(b.groupBy, columns...)
	return b
}

// Having adds a HAVING condition.
func (b *Builder) Having(field string, operator Operator, value any) *Builder {
	b.having.Where(field, operator, value)
	return b
}

// OrderBy adds an ORDER BY term.
func (b *Builder) OrderBy(field string, desc bool) *Builder {
	order := Order{Column: field, Direction: Asc}
	if desc {
		order.Direction = Desc
	}
	b.orderBy = append(b.orderBy, order.SQL())
	return b
}

// Limit sets the LIMIT clause. Negative values are normalized to 0.
func (b *Builder) Limit(limit int) *Builder {
	b.limit = max(limit, 0)
	return b
}

// Offset sets the OFFSET clause. Negative values are normalized to 0.
func (b *Builder) Offset(offset int) *Builder {
	b.offset = max(offset, 0)
	return b
}

// BuildSelect renders the SELECT statement and its arguments.
func (b *Builder) BuildSelect() (string, []any) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT ")
	if b.distinct {
		query.WriteString("DISTINCT ")
	}
	query.WriteString(strings.Join(b.selectCols, ", "))
	query.WriteString(" FROM ")
	query.WriteString(b.table)

	for _, join := range b.joins {
		query.WriteString(" ")
		query.WriteString(string(join.kind))
		query.WriteString(" ")
		query.WriteString(join.table)
		query.WriteString(" ON ")
		query.WriteString(join.condition)
	}

	if sql, whereArgs := b.where.render(); sql != "" {
		query.WriteString(" WHERE ")
		query.WriteString(sql)
		args = append(args, whereArgs...)
	}

	if len(b.groupBy) > 0 {
		query.WriteString(" GROUP BY ")
		query.WriteString(strings.Join(b.groupBy, ", "))
	}

	if sql, havingArgs := b.having.render(); sql != "" {
		query.WriteString(" HAVING ")
		query.WriteString(sql)
		args = append(args, havingArgs...)
	}

	if len(b.orderBy) > 0 {
		query.WriteString(" ORDER BY ")
		query.WriteString(strings.Join(b.orderBy, ", "))
	}

	if b.limit > 0 {
		fmt.Fprintf(&query, " LIMIT %d", b.limit)
	}
	if b.offset > 0 {
		fmt.Fprintf(&query, " OFFSET %d", b.offset)
	}

	return query.String(), args
}
