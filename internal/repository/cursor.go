package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wfunc/ap-itemlog/internal/models"
)

// CursorRepository 房间日志游标仓储接口
type CursorRepository interface {
	BaseRepository
	// Get 读取房间已处理的日志行数，found为false表示首次追踪该房间
	Get(ctx context.Context, roomID string) (lineCount int, found bool, err error)
	// Put 写入房间游标（一轮处理完整结束后才调用）
	Put(ctx context.Context, roomID string, lineCount int) error
}

// cursorRepo 游标仓储实现
type cursorRepo struct {
	*BaseRepo
}

// NewCursorRepository 创建游标仓储
func NewCursorRepository(db *gorm.DB) CursorRepository {
	return &cursorRepo{BaseRepo: NewBaseRepo(db)}
}

// Get 读取游标
func (r *cursorRepo) Get(ctx context.Context, roomID string) (int, bool, error) {
	var row models.RoomCursor
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		First(&row).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	return row.LineCount, true, nil
}

// Put 写入游标
func (r *cursorRepo) Put(ctx context.Context, roomID string, lineCount int) error {
	row := &models.RoomCursor{
		RoomID:    roomID,
		LineCount: lineCount,
		SyncedAt:  time.Now(),
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"line_count", "synced_at", "updated_at"}),
		}).
		Create(row).Error
}

// WithTx 使用事务
func (r *cursorRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &cursorRepo{BaseRepo: &BaseRepo{db: tx}}
}
