package model

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ammar0144/ormkit/pkg/logger"
)

// CreateTables creates or migrates the tables for the given models.
func CreateTables(ctx context.Context, session *gorm.DB, models ...any) error {
	for _, m := range models {
		logger.FromContext(ctx).Debug("creating table", "table", TableNameFor(m))
	}
	if err := session.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// DropTables drops the tables for the given models. Missing tables are
// ignored.
func DropTables(ctx context.Context, session *gorm.DB, models ...any) error {
	for _, m := range models {
		logger.FromContext(ctx).Debug("dropping table", "table", TableNameFor(m))
	}
	if err := session.WithContext(ctx).Migrator().DropTable(models...); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	return nil
}
