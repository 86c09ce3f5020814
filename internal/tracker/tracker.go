package tracker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wfunc/ap-itemlog/internal/classify"
	"github.com/wfunc/ap-itemlog/internal/config"
	"github.com/wfunc/ap-itemlog/internal/logger"
	"github.com/wfunc/ap-itemlog/internal/parser"
	"github.com/wfunc/ap-itemlog/internal/rules"
	"github.com/wfunc/ap-itemlog/internal/world"
)

// CursorStore 房间日志游标的读写口
type CursorStore interface {
	Get(ctx context.Context, roomID string) (lineCount int, found bool, err error)
	Put(ctx context.Context, roomID string, lineCount int) error
}

// Tracker 单个房间的追踪会话
// 所有日志摄入都在Run的单个goroutine里顺序进行
type Tracker struct {
	sessionID string
	roomID    string

	cfg      *config.Config
	fetcher  *Fetcher
	parser   *parser.Parser
	world    *world.World
	resolver *classify.Resolver
	renderer *Renderer
	notifier *Notifier
	releases *ReleaseBuffer
	cursors  CursorStore

	cursor int
	now    func() time.Time
	log    *zap.Logger
}

// New 创建追踪会话
func New(
	cfg *config.Config,
	w *world.World,
	resolver *classify.Resolver,
	registry *rules.Registry,
	notifier *Notifier,
	cursors CursorStore,
) *Tracker {
	return &Tracker{
		sessionID: uuid.NewString(),
		roomID:    cfg.Room.RoomID(),
		cfg:       cfg,
		fetcher:   NewFetcher(&cfg.Room),
		parser:    parser.New(),
		world:     w,
		resolver:  resolver,
		renderer:  NewRenderer(registry),
		notifier:  notifier,
		releases:  NewReleaseBuffer(cfg.Room.ReleaseEpsilon, cfg.Room.ReleaseWindow),
		cursors:   cursors,
		now:       time.Now,
		log:       logger.GetModuleLogger("tracker"),
	}
}

// SessionID 本次会话的唯一标识
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// World 当前会话的世界状态
func (t *Tracker) World() *world.World {
	return t.world
}

// Bootstrap 会话启动：登记玩家、预载剧透、静默重放历史日志
func (t *Tracker) Bootstrap(ctx context.Context) error {
	status, err := t.fetcher.FetchRoomStatus(ctx)
	if err != nil {
		return err
	}
	for _, pair := range status.Players {
		if len(pair) < 2 {
			continue
		}
		t.world.RegisterPlayer(pair[0], pair[1])
	}
	t.log.Info("房间玩家已登记",
		zap.String("session_id", t.sessionID),
		zap.String("room_id", t.roomID),
		zap.Int("players", len(status.Players)),
	)

	if t.cfg.Room.SpoilerURL != "" {
		if text, err := t.fetcher.FetchSpoiler(ctx); err != nil {
			t.log.Warn("spoiler拉取失败，跳过预载", zap.Error(err))
		} else {
			t.preloadSpoiler(ctx, text)
		}
	}

	return t.replay(ctx)
}

// preloadSpoiler 用剧透文档预载台账
func (t *Tracker) preloadSpoiler(ctx context.Context, text string) {
	doc := t.parser.ParseSpoiler(text)
	t.world.SetSeedInfo(doc.Seed, doc.Version)
	t.world.SetGameSettings(doc.Settings)
	for name, settings := range doc.PlayerSettings {
		t.world.SetPlayerSettings(name, settings)
	}

	preloaded := 0
	for _, loc := range doc.Locations {
		if err := t.world.PreloadItem(ctx, loc.Sender, loc.Location, loc.Item, loc.Receiver); err != nil {
			t.log.Warn("剧透地点预载失败",
				zap.String("sender", loc.Sender),
				zap.String("location", loc.Location),
				zap.Error(err),
			)
			continue
		}
		preloaded++
	}

	// 起始物品直接入账，不走日志
	for _, start := range doc.StartingItems {
		if _, err := t.world.ApplyItemSent(ctx, t.now(), world.WorldSender, start.Item, start.Receiver, "Starting Inventory"); err != nil {
			t.log.Warn("起始物品入账失败",
				zap.String("receiver", start.Receiver),
				zap.String("item", start.Item),
				zap.Error(err),
			)
		}
	}

	t.log.Info("剧透预载完成",
		zap.String("seed", doc.Seed),
		zap.Int("locations", preloaded),
		zap.Int("starting_items", len(doc.StartingItems)),
	)
}

// replay 静默重放历史日志重建状态
// 有持久化游标时重放到游标为止，之后的行留给首个tick正常播报；
// 没有游标时整个现存日志都算历史，全部静默吸收
func (t *Tracker) replay(ctx context.Context) error {
	lines, err := t.fetcher.FetchLog(ctx)
	if err != nil {
		return err
	}

	persisted, found, err := t.cursors.Get(ctx, t.roomID)
	if err != nil {
		t.log.Warn("游标读取失败，按全量历史处理", zap.Error(err))
		found = false
	}

	replayTo := len(lines)
	if found && persisted <= len(lines) {
		replayTo = persisted
	}

	for _, line := range lines[:replayTo] {
		t.processLine(ctx, line, false)
	}
	t.cursor = replayTo

	if !found {
		if err := t.cursors.Put(ctx, t.roomID, t.cursor); err != nil {
			t.log.Warn("游标初始化失败", zap.Error(err))
		}
	}

	t.log.Info("历史日志已重放",
		zap.Int("replayed", replayTo),
		zap.Int("total", len(lines)),
	)
	return nil
}

// Run 轮询主循环，直到ctx取消
func (t *Tracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.cfg.Room.PollInterval)
	defer ticker.Stop()

	t.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			t.shutdown()
			return ctx.Err()
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

// shutdown 停机前把已打开的释放缓冲冲刷出去
func (t *Tracker) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), t.cfg.Webhook.SendTimeout)
	defer cancel()

	var messages []string
	for _, entry := range t.releases.DrainAll() {
		messages = append(messages, t.renderer.Release(entry, t.world.Game()))
	}
	t.notifier.Flush(ctx, messages)
	t.log.Info("追踪会话已停止", zap.String("session_id", t.sessionID))
}

// tick 单轮：先冲刷到期的释放缓冲，再消化日志新增行
// 游标只在整轮状态变更完成后才推进
func (t *Tracker) tick(ctx context.Context) {
	var messages []string

	for _, entry := range t.releases.Due(t.now()) {
		messages = append(messages, t.renderer.Release(entry, t.world.Game()))
		t.log.Info("释放汇总已生成", zap.String("sender", entry.Sender))
	}

	lines, err := t.fetcher.FetchLog(ctx)
	if err != nil {
		// 瞬时失败：本轮无新行，下轮重试
		t.log.Warn("日志拉取失败", zap.Error(err))
		t.notifier.Flush(ctx, messages)
		return
	}

	if len(lines) > t.cursor {
		for _, line := range lines[t.cursor:] {
			messages = append(messages, t.processLine(ctx, line, true)...)
		}
		t.cursor = len(lines)
		if err := t.cursors.Put(ctx, t.roomID, t.cursor); err != nil {
			t.log.Warn("游标持久化失败", zap.Error(err))
		}
	}

	t.notifier.Flush(ctx, messages)
}

// processLine 消化一行日志，返回应播报的消息
func (t *Tracker) processLine(ctx context.Context, line string, notify bool) []string {
	event, err := t.parser.Parse(line, t.world.PlayerNames())
	if err != nil || event == nil {
		return nil
	}

	switch ev := event.(type) {
	case parser.ItemSent:
		return t.handleItemSent(ctx, ev, notify, line)
	case parser.Hinted:
		return t.handleHint(ctx, ev, notify, line)
	case parser.Goaled:
		res, err := t.world.ApplyGoal(ev.At, ev.Sender)
		if err != nil {
			t.log.Error("通关落账失败", zap.String("line", line), zap.Error(err))
			return nil
		}
		if notify && res.NewlyGoaled {
			return []string{t.renderer.Goal(ev.Sender)}
		}
	case parser.Released:
		res, err := t.world.ApplyRelease(ev.At, ev.Sender)
		if err != nil {
			t.log.Error("释放落账失败", zap.String("line", line), zap.Error(err))
			return nil
		}
		if notify && res.NewlyReleased {
			t.releases.Open(ev.Sender, ev.At)
			t.log.Info("释放缓冲已打开", zap.String("sender", ev.Sender))
		}
	case parser.Chat:
		if notify {
			t.notifier.SendChat(ctx, t.renderer.Chat(ev.Sender, ev.Text))
		}
	case parser.Joined:
		t.world.ApplyJoin(ev.At, ev.Player, ev.Game)
	case parser.Parted:
		t.world.ApplyPart(ev.At, ev.Player)
	case parser.RoomSpinup:
		t.world.ApplyRoomSpinup(ev.At, ev.Address)
	case parser.RoomShutdown:
		t.world.ApplyRoomShutdown(ev.At)
	}
	return nil
}

// handleItemSent 物品送达：落账、定级、按需分流进释放缓冲
func (t *Tracker) handleItemSent(ctx context.Context, ev parser.ItemSent, notify bool, line string) []string {
	res, err := t.world.ApplyItemSent(ctx, ev.At, ev.Sender, ev.Item, ev.Receiver, ev.Location)
	if err != nil {
		t.log.Error("送达落账失败", zap.String("line", line), zap.Error(err))
		return nil
	}

	game := t.world.Game()
	receiver := game.Player(ev.Receiver)
	sender := game.Player(ev.Sender)

	if cls, err := t.resolver.Classify(ctx, res.Item, receiver); err != nil {
		t.log.Warn("重要度解析失败",
			zap.String("item", ev.Item),
			zap.Error(err),
		)
	} else {
		res.Item.Classification = cls
	}

	if !notify {
		return nil
	}

	// 释放窗口内的发送并入汇总，不单独播报
	if t.releases.Capture(ev.Sender, ev.At, ev.Receiver, res.Item) {
		return nil
	}

	var messages []string
	if res.FirstFound {
		messages = append(messages, t.renderer.ItemSent(res.Item, sender, receiver, res.WasHinted))
	}
	if sender != nil {
		for _, pct := range res.PlayerMilestones {
			messages = append(messages, t.renderer.PlayerMilestone(sender, pct))
		}
	}
	for _, pct := range res.GameMilestones {
		messages = append(messages, t.renderer.GameMilestone(game, pct))
	}
	return messages
}

// handleHint 提示：落账、优先提示强制定级、按需播报
func (t *Tracker) handleHint(ctx context.Context, ev parser.Hinted, notify bool, line string) []string {
	res, err := t.world.ApplyHint(ctx, ev.At, ev.Receiver, ev.Item, ev.Location, ev.Sender, ev.Entrance, ev.Priority(), ev.Found())
	if err != nil {
		t.log.Error("提示落账失败", zap.String("line", line), zap.Error(err))
		return nil
	}

	if res.PriorityHint && res.Item.Game != "" {
		if err := t.resolver.Override(ctx, res.Item.Game, ev.Item, world.Progression); err != nil {
			t.log.Warn("优先提示定级失败", zap.String("item", ev.Item), zap.Error(err))
		}
	}

	if !notify || res.FoundHint || res.WasHinted {
		return nil
	}
	receiver := t.world.Game().Player(ev.Receiver)
	if receiver != nil && receiver.Finished() {
		return nil
	}
	return []string{t.renderer.Hint(res.Item)}
}
