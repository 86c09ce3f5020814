package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/ap-itemlog/internal/models"
)

// TestDB 创建测试数据库
func TestDB(t *testing.T) *gorm.DB {
	// 使用内存数据库进行测试（更快，不需要文件系统，在所有环境中都能工作）
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// 自动迁移所有模型
	err = db.AutoMigrate(
		&models.ItemClassification{},
		&models.GameLocation{},
		&models.RoomCursor{},
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})

	return db
}

// SeedClassifications 创建测试分级数据
func SeedClassifications(t *testing.T, db *gorm.DB, rows map[[2]string]*string) {
	for key, classification := range rows {
		row := &models.ItemClassification{
			Game:           key[0],
			Item:           key[1],
			Classification: classification,
		}
		require.NoError(t, db.Create(row).Error)
	}
}

// StrPtr 字符串指针辅助函数
func StrPtr(s string) *string {
	return &s
}
