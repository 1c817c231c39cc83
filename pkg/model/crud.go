package model

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/ammar0144/ormkit/pkg/logger"
	"github.com/ammar0144/ormkit/pkg/statement"
)

var gen statement.Generator

// Save inserts the entity, or updates it when its primary key is already
// set.
func Save[T Entity](ctx context.Context, session *gorm.DB, entity *T) error {
	table := tableName[T]()
	logger.FromContext(ctx).Debug("saving row", "table", table)
	if err := session.WithContext(ctx).Save(entity).Error; err != nil {
		return fmt.Errorf("failed to save into %s: %w", table, err)
	}
	return nil
}

// FindOne returns the first row matching the filters, or nil when no row
// matches.
func FindOne[T Entity](ctx context.Context, session *gorm.DB, filters ...statement.Condition) (*T, error) {
	results, err := FindWith[T](ctx, session, statement.SelectOptions{Filters: filters, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// FindAll returns every row matching the filters.
func FindAll[T Entity](ctx context.Context, session *gorm.DB, filters ...statement.Condition) ([]T, error) {
	return FindWith[T](ctx, session, statement.SelectOptions{Filters: filters})
}

// FindAllSorted returns every row matching the filters in the given order.
func FindAllSorted[T Entity](ctx context.Context, session *gorm.DB, orderBy []statement.Order, filters ...statement.Condition) ([]T, error) {
	return FindWith[T](ctx, session, statement.SelectOptions{Filters: filters, OrderBy: orderBy})
}

// FindWith returns the rows selected by the full option set.
func FindWith[T Entity](ctx context.Context, session *gorm.DB, opts statement.SelectOptions) ([]T, error) {
	table := tableName[T]()
	logger.FromContext(ctx).Debug("finding rows", "table", table)
	var results []T
	tx := gen.Select(session.WithContext(ctx).Table(table), opts)
	if err := tx.Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to find in %s: %w", table, err)
	}
	return results, nil
}

// Update sets the given values on every row matching the filters.
func Update[T Entity](ctx context.Context, session *gorm.DB, opts statement.UpdateOptions) error {
	table := tableName[T]()
	logger.FromContext(ctx).Debug("updating rows", "table", table)
	tx, err := gen.Update(session.WithContext(ctx).Model(new(T)), opts)
	if err != nil {
		return err
	}
	if err := tx.Updates(opts.Values).Error; err != nil {
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	return nil
}

// DeleteOne deletes the first row matching the filters. Deleting a row that
// does not exist is not an error.
func DeleteOne[T Entity](ctx context.Context, session *gorm.DB, filters ...statement.Condition) error {
	table := tableName[T]()
	logger.FromContext(ctx).Debug("deleting row", "table", table)
	entity, err := FindOne[T](ctx, session, filters...)
	if err != nil {
		return err
	}
	if entity == nil {
		return nil
	}
	if err := session.WithContext(ctx).Delete(entity).Error; err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

// Delete deletes every row matching the options.
func Delete[T Entity](ctx context.Context, session *gorm.DB, opts statement.DeleteOptions) error {
	table := tableName[T]()
	logger.FromContext(ctx).Debug("deleting rows", "table", table)
	tx := gen.Delete(session.WithContext(ctx), opts)
	if err := tx.Delete(new(T)).Error; err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

// InsertMany inserts the entities in one statement.
func InsertMany[T Entity](ctx context.Context, session *gorm.DB, entities []T) error {
	if len(entities) == 0 {
		return nil
	}
	table := tableName[T]()
	logger.FromContext(ctx).Debug("inserting rows", "table", table, "count", len(entities))
	if err := session.WithContext(ctx).Create(&entities).Error; err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

// FastInsertMany inserts raw column/value rows without instantiating
// entities, for bulk loads. The statement is executed directly, so
// generated keys are not reported back; the column set is taken from the
// first row and missing values insert as NULL.
func FastInsertMany[T Entity](ctx context.Context, session *gorm.DB, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}
	table := tableName[T]()
	logger.FromContext(ctx).Debug("fast inserting rows", "table", table, "count", len(rows))

	columns := make([]string, 0, len(rows[0]))
	for column := range rows[0] {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString(") VALUES ")
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(placeholder)
		for _, column := range columns {
			args = append(args, row[column])
		}
	}

	if err := session.WithContext(ctx).Exec(sb.String(), args...).Error; err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

// InsertOrIgnore inserts the entity, skipping it when a unique constraint
// is violated. The conflict construct is chosen per dialect.
func InsertOrIgnore[T Entity](ctx context.Context, session *gorm.DB, entity *T) error {
	return insertWithMode(ctx, session, entity, statement.InsertOrIgnore)
}

// InsertOrUpdate inserts the entity, updating the existing row when a
// unique constraint is violated. The conflict construct is chosen per
// dialect.
func InsertOrUpdate[T Entity](ctx context.Context, session *gorm.DB, entity *T) error {
	return insertWithMode(ctx, session, entity, statement.InsertOrUpdate)
}

func insertWithMode[T Entity](ctx context.Context, session *gorm.DB, entity *T, mode statement.InsertMode) error {
	table := tableName[T]()
	logger.FromContext(ctx).Debug("inserting row", "table", table, "mode", string(mode))
	opts := statement.InsertOptions{Mode: mode}
	if mode == statement.InsertOrUpdate {
		columns, err := ConflictColumns(session, entity)
		if err != nil {
			return err
		}
		opts.ConflictColumns = columns
	}
	tx, err := gen.Insert(session.WithContext(ctx), session.Dialector.Name(), opts)
	if err != nil {
		return err
	}
	if err := tx.Create(entity).Error; err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

// Except returns the rows of T whose LeftColumn value does not appear in
// RightTable.RightColumn.
func Except[T Entity](ctx context.Context, session *gorm.DB, opts statement.ExceptOptions) ([]T, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	table := tableName[T]()
	logger.FromContext(ctx).Debug("selecting difference", "table", table, "right_table", opts.RightTable)
	subquery, err := statement.ExceptQuery(session.Dialector.Name(), table, opts.LeftColumn, opts.RightTable, opts.RightColumn)
	if err != nil {
		return nil, err
	}
	var results []T
	tx := session.WithContext(ctx).Where(fmt.Sprintf("%s IN (%s)", opts.LeftColumn, subquery))
	if err := tx.Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to select difference from %s: %w", table, err)
	}
	return results, nil
}
