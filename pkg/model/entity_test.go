package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"User":        "user",
		"OrderItem":   "order_item",
		"UserID":      "user_id",
		"HTTPServer":  "http_server",
		"ID":          "id",
		"APIKey":      "api_key",
		"simpleValue": "simple_value",
	}
	for in, want := range cases {
		assert.Equal(t, want, SnakeCase(in), in)
	}
}

type plainRecord struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestTableNameFor(t *testing.T) {
	t.Run("Should prefer the declared table name", func(t *testing.T) {
		assert.Equal(t, "users", TableNameFor(&user{}))
	})

	t.Run("Should derive snake case from the struct name", func(t *testing.T) {
		assert.Equal(t, "plain_record", TableNameFor(plainRecord{}))
		assert.Equal(t, "plain_record", TableNameFor(&plainRecord{}))
		assert.Equal(t, "plain_record", TableNameFor([]plainRecord{}))
	})
}

type uniqueFieldRecord struct {
	Model
	Code string `gorm:"unique"`
	Name string
}

func (uniqueFieldRecord) TableName() string { return "unique_field_records" }

type compositeKeyRecord struct {
	Model
	UserID  uint `gorm:"uniqueIndex:idx_membership"`
	GroupID uint `gorm:"uniqueIndex:idx_membership"`
}

func (compositeKeyRecord) TableName() string { return "composite_key_records" }

type keylessRecord struct {
	Model
	Note string
}

func (keylessRecord) TableName() string { return "keyless_records" }

func TestConflictColumns(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		require.NoError(t, err)
		sqlDB.Close()
	})

	t.Run("Should prefer a unique column", func(t *testing.T) {
		columns, err := ConflictColumns(db, &uniqueFieldRecord{})
		require.NoError(t, err)
		assert.Equal(t, []string{"code"}, columns)
	})

	t.Run("Should use a unique index when no column is unique", func(t *testing.T) {
		columns, err := ConflictColumns(db, &user{})
		require.NoError(t, err)
		assert.Equal(t, []string{"email"}, columns)
	})

	t.Run("Should keep every column of a composite unique index", func(t *testing.T) {
		columns, err := ConflictColumns(db, &compositeKeyRecord{})
		require.NoError(t, err)
		assert.Equal(t, []string{"user_id", "group_id"}, columns)
	})

	t.Run("Should fall back to the primary key", func(t *testing.T) {
		columns, err := ConflictColumns(db, &keylessRecord{})
		require.NoError(t, err)
		assert.Equal(t, []string{"id"}, columns)
	})
}
