package world

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/wfunc/ap-itemlog/internal/errors"
	"github.com/wfunc/ap-itemlog/internal/logger"
)

// 会话级与玩家级里程碑阈值
var (
	gameMilestones   = []int{25, 50, 75, 100}
	playerMilestones = []int{50, 75, 100}
)

// 可检查地点数占比达到该阈值时才用它作为进度分母
// 分类表不完整时按原始地点总数兜底，避免分母偏小
const checkableDenominatorRatio = 0.95

// CheckabilityStore 地点可检查性的持久化读写口
type CheckabilityStore interface {
	Lookup(ctx context.Context, game, location string) (checkable bool, found bool, err error)
	Ensure(ctx context.Context, game, location string) error
	MarkCheckable(ctx context.Context, game, location string) error
}

// ApplyResult 一次事件落账后给下游的通知决策信息
type ApplyResult struct {
	Item    *Item // 涉及的物品（目标事件才有）
	Created bool  // 物品是否新建

	FirstFound bool // 本次是否为首次送达
	WasHinted  bool // 送达前是否被提示过

	PriorityHint bool // 提示带优先标记，需要强制升级为progression
	FoundHint    bool // 提示的物品已被找到，不产生通知

	NewlyGoaled   bool // 玩家首次通关
	NewlyReleased bool // 玩家首次释放

	GameMilestones   []int // 本次触达的会话级里程碑
	PlayerMilestones []int // 本次触达的玩家级里程碑（属于发送方）
}

// World 世界状态归账器
// 所有Apply方法由单一轮询循环串行调用；Snapshot可并发读取
type World struct {
	mu   sync.RWMutex
	game *Game

	locations       CheckabilityStore
	alwaysCheckable func(game string) bool
	log             *zap.Logger
}

// New 创建世界归账器
// alwaysCheckable为nil时视为没有免查游戏
func New(locations CheckabilityStore, alwaysCheckable func(game string) bool) *World {
	if alwaysCheckable == nil {
		alwaysCheckable = func(string) bool { return false }
	}
	return &World{
		game:            NewGame(),
		locations:       locations,
		alwaysCheckable: alwaysCheckable,
		log:             logger.GetModuleLogger("world"),
	}
}

// Game 取底层会话（仅限持有轮询循环的调用方使用）
func (w *World) Game() *Game {
	return w.game
}

// RegisterPlayer 登记玩家（来自房间状态或剧透预载）
func (w *World) RegisterPlayer(name, game string) *Player {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.game.ensurePlayer(name, game)
}

// SetSeedInfo 写入种子元数据
func (w *World) SetSeedInfo(seedID, version string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.game.SeedID = seedID
	w.game.Version = version
}

// SetGameSettings 写入会话级生成设置
func (w *World) SetGameSettings(settings Settings) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.game.Settings = settings
}

// SetPlayerSettings 写入某个世界的生成设置，玩家未知则忽略
func (w *World) SetPlayerSettings(name string, settings Settings) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p := w.game.Player(name); p != nil {
		p.Settings = settings
	}
}

// PreloadItem 从剧透日志预载一条台账记录
// 只登记身份与可检查性行，不标记送达，不产生通知
func (w *World) PreloadItem(ctx context.Context, sender, location, itemName, receiver string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	receiverPlayer := w.game.Player(receiver)
	if receiverPlayer == nil && receiver != WorldSender {
		return apperrors.Newf(apperrors.ErrUnknownPlayer, "剧透预载的接收方未知: %s", receiver)
	}

	receiverGame := ""
	if receiverPlayer != nil {
		receiverGame = receiverPlayer.Game
	}

	item, _ := w.game.getOrCreateItem(sender, location, itemName, receiver, receiverGame)

	// 地点归属发送方的游戏
	senderGame := w.playerGame(sender)
	if senderGame != "" && sender != WorldSender {
		if err := w.resolveCheckable(ctx, item, senderGame, location, false); err != nil {
			return err
		}
	}

	return nil
}

// ApplyItemSent 落账一次物品送达
func (w *World) ApplyItemSent(ctx context.Context, ts time.Time, sender, itemName, receiver, location string) (*ApplyResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	receiverPlayer := w.game.Player(receiver)
	if receiverPlayer == nil {
		return nil, apperrors.Newf(apperrors.ErrUnknownPlayer, "接收方未知: %s", receiver)
	}
	senderPlayer := w.game.Player(sender)
	if senderPlayer == nil && sender != WorldSender {
		return nil, apperrors.Newf(apperrors.ErrUnknownPlayer, "发送方未知: %s", sender)
	}

	item, created := w.game.getOrCreateItem(sender, location, itemName, receiver, receiverPlayer.Game)

	result := &ApplyResult{
		Item:       item,
		Created:    created,
		FirstFound: !item.Found,
		WasHinted:  item.Hinted,
	}

	item.Found = true
	item.Count++

	receiverPlayer.Inventory = append(receiverPlayer.Inventory, item)
	receiverPlayer.Receiving[location] = item

	// 兑现双方挂起的提示
	if senderPlayer != nil {
		senderPlayer.HintsSent = removeHint(senderPlayer.HintsSent, sender, location)
	}
	receiverPlayer.HintsRecv = removeHint(receiverPlayer.HintsRecv, sender, location)

	// 实际游玩观察到的地点一定可检查
	if senderPlayer != nil {
		if err := w.resolveCheckable(ctx, item, senderPlayer.Game, location, true); err != nil {
			w.log.Warn("可检查性写入失败",
				zap.String("game", senderPlayer.Game),
				zap.String("location", location),
				zap.Error(err),
			)
		}

		w.recomputeCompletion(senderPlayer)
		w.recomputeGameCompletion()
		result.PlayerMilestones = w.firePlayerMilestones(senderPlayer)
		result.GameMilestones = w.fireGameMilestones()
	}

	return result, nil
}

// ApplyHint 落账一条提示
func (w *World) ApplyHint(ctx context.Context, ts time.Time, receiver, itemName, location, sender, entrance string, priority, alreadyFound bool) (*ApplyResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	receiverPlayer := w.game.Player(receiver)
	if receiverPlayer == nil {
		return nil, apperrors.Newf(apperrors.ErrUnknownPlayer, "提示的接收方未知: %s", receiver)
	}
	senderPlayer := w.game.Player(sender)
	if senderPlayer == nil {
		return nil, apperrors.Newf(apperrors.ErrUnknownPlayer, "提示的发送方未知: %s", sender)
	}

	item, created := w.game.getOrCreateItem(sender, location, itemName, receiver, receiverPlayer.Game)

	result := &ApplyResult{
		Item:         item,
		Created:      created,
		PriorityHint: priority,
		WasHinted:    item.Hinted,
	}

	if entrance != "" {
		item.Entrance = entrance
	}

	// 已找到的提示只是回显，不改状态也不通知
	if alreadyFound || item.Found {
		result.FoundHint = true
		return result, nil
	}

	if !item.Hinted {
		item.Hinted = true
		senderPlayer.HintsSent = append(senderPlayer.HintsSent, item)
		receiverPlayer.HintsRecv = append(receiverPlayer.HintsRecv, item)
	}

	if priority {
		item.Classification = Progression
	}

	if err := w.resolveCheckable(ctx, item, senderPlayer.Game, location, false); err != nil {
		w.log.Warn("可检查性查询失败",
			zap.String("game", senderPlayer.Game),
			zap.String("location", location),
			zap.Error(err),
		)
	}

	return result, nil
}

// ApplyGoal 落账一次通关
func (w *World) ApplyGoal(ts time.Time, sender string) (*ApplyResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	player := w.game.Player(sender)
	if player == nil {
		return nil, apperrors.Newf(apperrors.ErrUnknownPlayer, "通关的玩家未知: %s", sender)
	}

	result := &ApplyResult{NewlyGoaled: !player.Goaled}
	player.Goaled = true
	return result, nil
}

// ApplyRelease 落账一次释放
func (w *World) ApplyRelease(ts time.Time, sender string) (*ApplyResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	player := w.game.Player(sender)
	if player == nil {
		return nil, apperrors.Newf(apperrors.ErrUnknownPlayer, "释放的玩家未知: %s", sender)
	}

	result := &ApplyResult{NewlyReleased: !player.Released}
	player.Released = true
	return result, nil
}

// ApplyJoin 落账一次玩家上线
func (w *World) ApplyJoin(ts time.Time, playerName, game string) *Player {
	w.mu.Lock()
	defer w.mu.Unlock()

	player := w.game.ensurePlayer(playerName, game)
	player.Online = true
	player.LastSeen = ts
	return player
}

// ApplyPart 落账一次玩家下线
func (w *World) ApplyPart(ts time.Time, playerName string) *Player {
	w.mu.Lock()
	defer w.mu.Unlock()

	player := w.game.Player(playerName)
	if player == nil {
		return nil
	}
	player.Online = false
	player.LastSeen = ts
	return player
}

// ApplyRoomSpinup 落账房间启动
func (w *World) ApplyRoomSpinup(ts time.Time, address string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.game.Running = true
	w.game.Address = address
}

// ApplyRoomShutdown 落账房间停机
func (w *World) ApplyRoomShutdown(ts time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.game.Running = false
}

// PlayerNames 当前已知玩家名
func (w *World) PlayerNames() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.game.PlayerNames()
}

// playerGame 玩家对应的游戏标题，未知为空串
func (w *World) playerGame(name string) string {
	if p := w.game.Player(name); p != nil {
		return p.Game
	}
	return ""
}

// resolveCheckable 解析并回填物品所在地点的可检查性
// playthrough为true表示来自实际游玩观察，此时把存储里的标志升格
func (w *World) resolveCheckable(ctx context.Context, item *Item, game, location string, playthrough bool) error {
	if w.alwaysCheckable(game) {
		item.Checkable = true
		return nil
	}
	if w.locations == nil {
		item.Checkable = playthrough
		return nil
	}

	if playthrough {
		item.Checkable = true
		return w.locations.MarkCheckable(ctx, game, location)
	}

	checkable, found, err := w.locations.Lookup(ctx, game, location)
	if err != nil {
		return err
	}
	if !found {
		// 新地点默认不可检查，等游玩观察来升格
		item.Checkable = false
		return w.locations.Ensure(ctx, game, location)
	}

	item.Checkable = checkable
	return nil
}

// recomputeCompletion 依据台账重算一名玩家的进度
// 已通关或已释放的玩家保持现值
func (w *World) recomputeCompletion(p *Player) {
	if p.Finished() {
		return
	}

	ledger := w.game.Ledger[p.Name]
	total := len(ledger)
	if total == 0 {
		p.Collected = 0
		p.Total = 0
		return
	}

	checkableTotal := 0
	checkableFound := 0
	allFound := 0
	for _, item := range ledger {
		if item.Found {
			allFound++
		}
		if item.Checkable {
			checkableTotal++
			if item.Found {
				checkableFound++
			}
		}
	}

	if float64(checkableTotal) >= checkableDenominatorRatio*float64(total) {
		p.Collected = checkableFound
		p.Total = checkableTotal
	} else {
		p.Collected = allFound
		p.Total = total
	}
}

// recomputeGameCompletion 会话进度恒为各玩家计数之和
func (w *World) recomputeGameCompletion() {
	collected, total := 0, 0
	for _, p := range w.game.Players {
		collected += p.Collected
		total += p.Total
	}
	w.game.Collected = collected
	w.game.Total = total
}

// firePlayerMilestones 触达且未触达过的玩家级里程碑
func (w *World) firePlayerMilestones(p *Player) []int {
	if p.Finished() {
		return nil
	}

	percent := p.Percent()
	var fired []int
	for _, threshold := range playerMilestones {
		if percent >= float64(threshold) && !p.Milestones[threshold] {
			p.Milestones[threshold] = true
			fired = append(fired, threshold)
		}
	}
	return fired
}

// fireGameMilestones 触达且未触达过的会话级里程碑
func (w *World) fireGameMilestones() []int {
	percent := w.game.Percent()
	var fired []int
	for _, threshold := range gameMilestones {
		if percent >= float64(threshold) && !w.game.Milestones[threshold] {
			w.game.Milestones[threshold] = true
			fired = append(fired, threshold)
		}
	}
	return fired
}

// removeHint 从提示列表中移除已兑现的项
func removeHint(hints []*Item, sender, location string) []*Item {
	out := hints[:0]
	for _, h := range hints {
		if h.Sender == sender && h.Location == location {
			continue
		}
		out = append(out, h)
	}
	return out
}
