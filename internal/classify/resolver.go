package classify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/wfunc/ap-itemlog/internal/errors"
	"github.com/wfunc/ap-itemlog/internal/logger"
	"github.com/wfunc/ap-itemlog/internal/models"
	"github.com/wfunc/ap-itemlog/internal/rules"
	"github.com/wfunc/ap-itemlog/internal/world"
)

// Store 物品分级的持久化读写口
type Store interface {
	Lookup(ctx context.Context, game, item string) (classification *string, found bool, err error)
	Ensure(ctx context.Context, game, item string) error
	Set(ctx context.Context, game, item, classification string) error
}

type cacheKey struct {
	Game string
	Item string
}

type cacheEntry struct {
	value world.Classification // 存储层原值，Unclassified表示待定
	at    time.Time
}

// Resolver 物品重要度解析器
// 缓存的是存储层原值：conditional progression永远不以最终值形态出缓存，
// 每次解析都重新过该游戏的实时规则
type Resolver struct {
	mu    sync.Mutex
	cache map[cacheKey]cacheEntry

	store    Store
	registry *rules.Registry
	ttl      time.Duration
	now      func() time.Time
	log      *zap.Logger
}

// New 创建解析器
func New(store Store, registry *rules.Registry, ttl time.Duration) *Resolver {
	return &Resolver{
		cache:    make(map[cacheKey]cacheEntry),
		store:    store,
		registry: registry,
		ttl:      ttl,
		now:      time.Now,
		log:      logger.GetModuleLogger("classify"),
	}
}

// Classify 解析一个物品的重要度
// 存储未命中时回填待定行并返回Unclassified
func (r *Resolver) Classify(ctx context.Context, item *world.Item, receiver *world.Player) (world.Classification, error) {
	if item.Game == "" {
		return world.Unclassified, nil
	}

	stored, err := r.storedValue(ctx, item.Game, item.Name)
	if err != nil {
		return world.Unclassified, err
	}

	if stored == world.ConditionalProgression {
		resolved := r.registry.For(item.Game).LiveReclassify(item, receiver)
		if resolved == world.Unclassified || resolved == world.ConditionalProgression {
			resolved = world.Progression
		}
		return resolved, nil
	}

	return stored, nil
}

// storedValue 读缓存或存储层取原始分级
func (r *Resolver) storedValue(ctx context.Context, game, name string) (world.Classification, error) {
	key := cacheKey{Game: game, Item: name}

	r.mu.Lock()
	if entry, ok := r.cache[key]; ok && r.now().Sub(entry.at) <= r.ttl {
		r.mu.Unlock()
		return entry.value, nil
	}
	r.mu.Unlock()

	value, err := r.fetch(ctx, game, name)
	if err != nil {
		return world.Unclassified, err
	}

	r.mu.Lock()
	r.cache[key] = cacheEntry{value: value, at: r.now()}
	r.mu.Unlock()

	return value, nil
}

// fetch 静态规则优先，否则查存储层，未命中回填待定行
func (r *Resolver) fetch(ctx context.Context, game, name string) (world.Classification, error) {
	if static, hit := r.registry.For(game).Static(name); hit {
		return static, nil
	}

	ptr, found, err := r.store.Lookup(ctx, game, name)
	if err != nil {
		return world.Unclassified, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	if !found {
		r.log.Info("分级表新增待定物品",
			zap.String("game", game),
			zap.String("item", name),
		)
		if err := r.store.Ensure(ctx, game, name); err != nil {
			return world.Unclassified, apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
		}
		return world.Unclassified, nil
	}
	if ptr == nil {
		return world.Unclassified, nil
	}

	return world.Classification(*ptr), nil
}

// Override 管理端直写分级并失效对应缓存
func (r *Resolver) Override(ctx context.Context, game, item string, classification world.Classification) error {
	if !models.IsValidClassification(string(classification)) {
		return apperrors.Newf(apperrors.ErrInvalidParam, "分级取值不合法: %s", classification)
	}

	if err := r.store.Set(ctx, game, item, string(classification)); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseUpdate)
	}

	r.Invalidate(game, item)
	r.log.Info("分级已覆盖",
		zap.String("game", game),
		zap.String("item", item),
		zap.String("classification", string(classification)),
	)
	return nil
}

// Invalidate 失效单个缓存项
func (r *Resolver) Invalidate(game, item string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, cacheKey{Game: game, Item: item})
}

// InvalidateAll 清空缓存（通配符批量覆盖后使用）
func (r *Resolver) InvalidateAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[cacheKey]cacheEntry)
}
