package ormkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammar0144/ormkit/pkg/auth"
)

type product struct {
	Model
	SKU  string `gorm:"uniqueIndex"`
	Name string
}

func (product) TableName() string { return "products" }

func TestFacade(t *testing.T) {
	ctx := context.Background()

	t.Run("Should open a database and serve a repository", func(t *testing.T) {
		engine := DefaultEngineConfig()
		engine.MaxOpenConns = 1
		engine.MaxIdleConns = 1
		manager, err := Open(SQLiteConfig{Database: ":memory:"}, engine)
		require.NoError(t, err)
		defer manager.Close()
		require.NoError(t, manager.DB().AutoMigrate(&product{}))

		repo := NewRepository[product](manager, nil)
		created := product{SKU: "sku-1", Name: "widget"}
		require.NoError(t, repo.Create(ctx, &created))

		found, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "widget", found.Name)
	})

	t.Run("Should build a disabled cache manager", func(t *testing.T) {
		cacheManager, err := NewCacheManager(&CacheConfig{Enabled: false})
		require.NoError(t, err)
		assert.False(t, cacheManager.Enabled())
	})

	t.Run("Should build an auth helper", func(t *testing.T) {
		a, err := NewAuth(AuthConfig{
			SecretKey:         "secret",
			Algorithm:         auth.AlgHS256,
			PasswordAlgorithm: auth.PasswordBcrypt,
		})
		require.NoError(t, err)

		token, err := a.CreateAccessToken("user-1", []string{"read"}, 0)
		require.NoError(t, err)
		claims, err := a.DecodeToken(token.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
	})
}
