package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/wfunc/ap-itemlog/internal/errors"
	"github.com/wfunc/ap-itemlog/internal/logger"
	"github.com/wfunc/ap-itemlog/internal/models"
)

// AutoMigrate 自动迁移所有数据表
func AutoMigrate(db *gorm.DB) error {
	log := logger.WithModule("database")
	log.Info("开始数据库迁移")

	err := db.AutoMigrate(
		&models.ItemClassification{},
		&models.GameLocation{},
		&models.RoomCursor{},
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseMigrate)
	}

	log.Info("数据库迁移完成",
		zap.Strings("tables", []string{
			models.ItemClassification{}.TableName(),
			models.GameLocation{}.TableName(),
			models.RoomCursor{}.TableName(),
		}),
	)

	return nil
}
