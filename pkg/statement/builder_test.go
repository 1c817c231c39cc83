package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderBuildSelect(t *testing.T) {
	t.Run("Should build a plain select", func(t *testing.T) {
		sql, args := NewBuilder("users").BuildSelect()
		assert.Equal(t, "SELECT * FROM users", sql)
		assert.Empty(t, args)
	})

	t.Run("Should build select with columns and filters", func(t *testing.T) {
		sql, args := NewBuilder("users").
			Select("id", "name").
			Where("age", GreaterThan, 18).
			Where("name", Like, "Jo%").
			BuildSelect()
		assert.Equal(t, "SELECT id, name FROM users WHERE age > ? AND name LIKE ?", sql)
		assert.Equal(t, []any{18, "Jo%"}, args)
	})

	t.Run("Should wrap existing conditions when adding or", func(t *testing.T) {
		sql, args := NewBuilder("users").
			Where("age", GreaterThan, 18).
			Where("age", LessThan, 65).
			OrWhere("admin", Equal, true).
			BuildSelect()
		assert.Equal(t, "SELECT * FROM users WHERE (age > ? AND age < ?) OR admin = ?", sql)
		assert.Equal(t, []any{18, 65, true}, args)
	})

	t.Run("Should expand in conditions", func(t *testing.T) {
		sql, args := NewBuilder("users").
			Where("id", In, []int{1, 2, 3}).
			BuildSelect()
		assert.Equal(t, "SELECT * FROM users WHERE id IN (?, ?, ?)", sql)
		assert.Equal(t, []any{1, 2, 3}, args)
	})

	t.Run("Should render empty in as never matching", func(t *testing.T) {
		sql, args := NewBuilder("users").
			Where("id", In, []int{}).
			BuildSelect()
		assert.Equal(t, "SELECT * FROM users WHERE 1 = 0", sql)
		assert.Empty(t, args)
	})

	t.Run("Should render empty not in as always matching", func(t *testing.T) {
		sql, _ := NewBuilder("users").
			Where("id", NotIn, nil).
			BuildSelect()
		assert.Equal(t, "SELECT * FROM users WHERE 1 = 1", sql)
	})

	t.Run("Should render between with two bounds", func(t *testing.T) {
		sql, args := NewBuilder("users").
			Where("age", Between, []int{18, 65}).
			BuildSelect()
		assert.Equal(t, "SELECT * FROM users WHERE age BETWEEN ? AND ?", sql)
		assert.Equal(t, []any{18, 65}, args)
	})

	t.Run("Should reject between without two bounds", func(t *testing.T) {
		sql, args := NewBuilder("users").
			Where("age", Between, []int{18}).
			BuildSelect()
		assert.Equal(t, "SELECT * FROM users WHERE 1 = 0", sql)
		assert.Empty(t, args)
	})

	t.Run("Should render null checks without placeholders", func(t *testing.T) {
		sql, args := NewBuilder("users").
			Where("deleted_at", IsNull, nil).
			BuildSelect()
		assert.Equal(t, "SELECT * FROM users WHERE deleted_at IS NULL", sql)
		assert.Empty(t, args)
	})

	t.Run("Should build joins group having order limit offset", func(t *testing.T) {
		sql, args := NewBuilder("users").
			Select("users.name", "COUNT(orders.id) AS order_count").
			InnerJoin("orders", "orders.user_id = users.id").
			GroupBy("users.name").
			Having("COUNT(orders.id)", GreaterThan, 5).
			OrderBy("users.name", true).
			Limit(10).
			Offset(20).
			BuildSelect()
		assert.Equal(t,
			"SELECT users.name, COUNT(orders.id) AS order_count FROM users "+
				"INNER JOIN orders ON orders.user_id = users.id "+
				"GROUP BY users.name HAVING COUNT(orders.id) > ? "+
				"ORDER BY users.name DESC LIMIT 10 OFFSET 20",
			sql)
		assert.Equal(t, []any{5}, args)
	})

	t.Run("Should build distinct select", func(t *testing.T) {
		sql, _ := NewBuilder("users").Select("name").Distinct().BuildSelect()
		assert.Equal(t, "SELECT DISTINCT name FROM users", sql)
	})

	t.Run("Should build nested condition groups", func(t *testing.T) {
		sql, args := NewBuilder("users").
			Where("active", Equal, true).
			WhereGroup(Or, func(g *ConditionGroup) {
				g.Where("age", LessThan, 18).Where("age", GreaterThan, 65)
			}).
			BuildSelect()
		assert.Equal(t, "SELECT * FROM users WHERE active = ? AND (age < ? OR age > ?)", sql)
		assert.Equal(t, []any{true, 18, 65}, args)
	})

	t.Run("Should normalize negative limit and offset", func(t *testing.T) {
		sql, _ := NewBuilder("users").Limit(-5).Offset(-3).BuildSelect()
		assert.Equal(t, "SELECT * FROM users", sql)
	})
}
