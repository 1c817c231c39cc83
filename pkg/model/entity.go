// Package model provides declarative model helpers: an Entity contract, a
// base Model to embed, table-name derivation, and generic CRUD operations
// over a GORM session.
package model

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Entity is the minimal contract for models used with the generic helpers
// and the repository layer.
type Entity interface {
	TableName() string
}

// Model is the base declarative model. Embed it to get an auto-increment
// integer primary key.
type Model struct {
	ID uint `gorm:"primaryKey" json:"id"`
}

// SnakeCase converts a CamelCase identifier to snake_case.
func SnakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (!unicode.IsUpper(runes[i-1]) || (i+1 < len(runes) && !unicode.IsUpper(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// TableNameFor returns the model's declared table name, deriving it from
// the struct name when the model does not implement Entity.
func TableNameFor(model any) string {
	if e, ok := model.(Entity); ok {
		return e.TableName()
	}
	t := reflect.TypeOf(model)
	for t != nil && (t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice) {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return SnakeCase(t.Name())
}

// tableName returns the declared table name of T.
func tableName[T Entity]() string {
	var zero T
	return zero.TableName()
}

var schemaCache = &sync.Map{}

// ConflictColumns returns the columns to use as a conflict target. The
// target must match exactly one unique constraint, so the first non-primary
// unique column wins, then the first unique index, then the primary key.
func ConflictColumns(session *gorm.DB, model any) ([]string, error) {
	sch, err := schema.Parse(model, schemaCache, session.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model schema: %w", err)
	}
	for _, field := range sch.Fields {
		if field.Unique && !field.PrimaryKey {
			return []string{field.DBName}, nil
		}
	}
	indexes := sch.ParseIndexes()
	sort.Slice(indexes, func(i, j int) bool { return indexes[i].Name < indexes[j].Name })
	for _, index := range indexes {
		if !strings.EqualFold(index.Class, "UNIQUE") {
			continue
		}
		columns := make([]string, len(index.Fields))
		for i, opt := range index.Fields {
			columns[i] = opt.DBName
		}
		return columns, nil
	}
	return sch.PrimaryFieldDBNames, nil
}
