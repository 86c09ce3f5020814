package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wfunc/ap-itemlog/internal/models"
)

// ClassificationRepository 物品分级仓储接口
type ClassificationRepository interface {
	BaseRepository
	// Lookup 查询分级，found表示行是否存在（分级本身可能为NULL待定）
	Lookup(ctx context.Context, game, item string) (classification *string, found bool, err error)
	// Ensure 行不存在时插入一条分级为NULL的待定行，已存在则不动
	Ensure(ctx context.Context, game, item string) error
	// Set 写入或覆盖单个物品的分级
	Set(ctx context.Context, game, item, classification string) error
	// Override 按LIKE模式批量覆盖分级，classification为nil时清空为待定
	Override(ctx context.Context, gamePattern, itemPattern string, classification *string) (int64, error)
	// ListByGame 列出某游戏的全部分级行
	ListByGame(ctx context.Context, game string) ([]*models.ItemClassification, error)
	// ListPending 列出所有分级为NULL的待定行
	ListPending(ctx context.Context) ([]*models.ItemClassification, error)
}

// classificationRepo 物品分级仓储实现
type classificationRepo struct {
	*BaseRepo
}

// NewClassificationRepository 创建物品分级仓储
func NewClassificationRepository(db *gorm.DB) ClassificationRepository {
	return &classificationRepo{BaseRepo: NewBaseRepo(db)}
}

// Lookup 查询分级
func (r *classificationRepo) Lookup(ctx context.Context, game, item string) (*string, bool, error) {
	var row models.ItemClassification
	err := r.db.WithContext(ctx).
		Where("game = ? AND item = ?", game, item).
		First(&row).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return row.Classification, true, nil
}

// Ensure 插入待定行（冲突时不动已有数据）
func (r *classificationRepo) Ensure(ctx context.Context, game, item string) error {
	row := &models.ItemClassification{
		Game: game,
		Item: item,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "game"}, {Name: "item"}},
			DoNothing: true,
		}).
		Create(row).Error
}

// Set 写入或覆盖分级
func (r *classificationRepo) Set(ctx context.Context, game, item, classification string) error {
	row := &models.ItemClassification{
		Game:           game,
		Item:           item,
		Classification: &classification,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "game"}, {Name: "item"}},
			DoUpdates: clause.AssignmentColumns([]string{"classification", "updated_at"}),
		}).
		Create(row).Error
}

// Override 按LIKE模式批量覆盖（%和_为通配符）
func (r *classificationRepo) Override(ctx context.Context, gamePattern, itemPattern string, classification *string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ItemClassification{}).
		Where("game LIKE ? AND item LIKE ?", gamePattern, itemPattern).
		Update("classification", classification)

	return result.RowsAffected, result.Error
}

// ListByGame 列出某游戏的全部分级行
func (r *classificationRepo) ListByGame(ctx context.Context, game string) ([]*models.ItemClassification, error) {
	var rows []*models.ItemClassification
	err := r.db.WithContext(ctx).
		Where("game = ?", game).
		Order("item").
		Find(&rows).Error
	return rows, err
}

// ListPending 列出待定行
func (r *classificationRepo) ListPending(ctx context.Context) ([]*models.ItemClassification, error) {
	var rows []*models.ItemClassification
	err := r.db.WithContext(ctx).
		Where("classification IS NULL").
		Order("game, item").
		Find(&rows).Error
	return rows, err
}

// WithTx 使用事务
func (r *classificationRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &classificationRepo{BaseRepo: &BaseRepo{db: tx}}
}
