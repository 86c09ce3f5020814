package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wfunc/ap-itemlog/internal/models"
)

// LocationRepository 地点可检查性仓储接口
type LocationRepository interface {
	BaseRepository
	// Lookup 查询地点可检查性，found表示行是否存在
	Lookup(ctx context.Context, game, location string) (checkable bool, found bool, err error)
	// Ensure 行不存在时插入（默认不可检查），已存在则不动
	Ensure(ctx context.Context, game, location string) error
	// MarkCheckable 将地点标记为可检查（只升不降）
	MarkCheckable(ctx context.Context, game, location string) error
	// Override 按LIKE模式批量设置可检查性
	Override(ctx context.Context, gamePattern, locationPattern string, checkable bool) (int64, error)
	// MapByGame 读取某游戏的地点->可检查性映射
	MapByGame(ctx context.Context, game string) (map[string]bool, error)
}

// locationRepo 地点仓储实现
type locationRepo struct {
	*BaseRepo
}

// NewLocationRepository 创建地点仓储
func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepo{BaseRepo: NewBaseRepo(db)}
}

// Lookup 查询可检查性
func (r *locationRepo) Lookup(ctx context.Context, game, location string) (bool, bool, error) {
	var row models.GameLocation
	err := r.db.WithContext(ctx).
		Where("game = ? AND location = ?", game, location).
		First(&row).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}

	return row.IsCheckable, true, nil
}

// Ensure 插入默认行（冲突时不动已有数据）
func (r *locationRepo) Ensure(ctx context.Context, game, location string) error {
	row := &models.GameLocation{
		Game:     game,
		Location: location,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "game"}, {Name: "location"}},
			DoNothing: true,
		}).
		Create(row).Error
}

// MarkCheckable 标记为可检查
// 只提升不降级：已标记的行不会被改回不可检查
func (r *locationRepo) MarkCheckable(ctx context.Context, game, location string) error {
	row := &models.GameLocation{
		Game:        game,
		Location:    location,
		IsCheckable: true,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "game"}, {Name: "location"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"is_checkable": true}),
		}).
		Create(row).Error
}

// Override 按LIKE模式批量设置（管理接口用，可以降级）
func (r *locationRepo) Override(ctx context.Context, gamePattern, locationPattern string, checkable bool) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.GameLocation{}).
		Where("game LIKE ? AND location LIKE ?", gamePattern, locationPattern).
		Update("is_checkable", checkable)

	return result.RowsAffected, result.Error
}

// MapByGame 读取地点映射
func (r *locationRepo) MapByGame(ctx context.Context, game string) (map[string]bool, error) {
	var rows []*models.GameLocation
	err := r.db.WithContext(ctx).
		Where("game = ?", game).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	m := make(map[string]bool, len(rows))
	for _, row := range rows {
		m[row.Location] = row.IsCheckable
	}
	return m, nil
}

// WithTx 使用事务
func (r *locationRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &locationRepo{BaseRepo: &BaseRepo{db: tx}}
}
