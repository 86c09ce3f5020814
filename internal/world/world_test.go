package world

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore 内存版可检查性存储
type fakeStore struct {
	rows map[[2]string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[[2]string]bool)}
}

func (s *fakeStore) Lookup(ctx context.Context, game, location string) (bool, bool, error) {
	checkable, found := s.rows[[2]string{game, location}]
	return checkable, found, nil
}

func (s *fakeStore) Ensure(ctx context.Context, game, location string) error {
	key := [2]string{game, location}
	if _, ok := s.rows[key]; !ok {
		s.rows[key] = false
	}
	return nil
}

func (s *fakeStore) MarkCheckable(ctx context.Context, game, location string) error {
	s.rows[[2]string{game, location}] = true
	return nil
}

func testWorld(t *testing.T) *World {
	w := New(newFakeStore(), nil)
	w.RegisterPlayer("Alice", "TUNIC")
	w.RegisterPlayer("Bob", "OoT")
	return w
}

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestApplyItemSent_IdentityIdempotent(t *testing.T) {
	w := testWorld(t)
	ctx := context.Background()

	first, err := w.ApplyItemSent(ctx, baseTime, "Alice", "Small Key", "Bob", "Chest 1")
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.True(t, first.FirstFound)
	assert.Equal(t, 1, first.Item.Count)

	// 同一(发送方, 地点, 物品名)三元组必须解析到同一实例
	second, err := w.ApplyItemSent(ctx, baseTime.Add(time.Second), "Alice", "Small Key", "Bob", "Chest 1")
	require.NoError(t, err)
	assert.Same(t, first.Item, second.Item)
	assert.False(t, second.Created)
	assert.False(t, second.FirstFound) // 重复送达不再触发通知
	assert.Equal(t, 2, second.Item.Count)
}

func TestApplyItemSent_UnknownPlayer(t *testing.T) {
	w := testWorld(t)
	ctx := context.Background()

	_, err := w.ApplyItemSent(ctx, baseTime, "Alice", "Small Key", "Mallory", "Chest 1")
	assert.Error(t, err)

	_, err = w.ApplyItemSent(ctx, baseTime, "Mallory", "Small Key", "Bob", "Chest 1")
	assert.Error(t, err)
}

func TestApplyItemSent_WorldSender(t *testing.T) {
	w := testWorld(t)
	ctx := context.Background()

	// 起始物品来自哨兵发送方，没有对应玩家
	result, err := w.ApplyItemSent(ctx, baseTime, WorldSender, "Sword", "Bob", "Starting Items")
	require.NoError(t, err)
	assert.True(t, result.FirstFound)
	assert.Len(t, w.Game().Player("Bob").Inventory, 1)
}

func TestHintThenSend_OrderSensitivity(t *testing.T) {
	w := testWorld(t)
	ctx := context.Background()

	// 先提示后送达：送达时hinted已为true，双方提示列表被清空
	hintResult, err := w.ApplyHint(ctx, baseTime, "Bob", "Small Key", "Chest 1", "Alice", "", false, false)
	require.NoError(t, err)
	assert.False(t, hintResult.FoundHint)
	assert.True(t, hintResult.Item.Hinted)
	assert.Len(t, w.Game().Player("Alice").HintsSent, 1)
	assert.Len(t, w.Game().Player("Bob").HintsRecv, 1)

	sendResult, err := w.ApplyItemSent(ctx, baseTime.Add(time.Minute), "Alice", "Small Key", "Bob", "Chest 1")
	require.NoError(t, err)
	assert.Same(t, hintResult.Item, sendResult.Item)
	assert.True(t, sendResult.WasHinted)
	assert.Empty(t, w.Game().Player("Alice").HintsSent)
	assert.Empty(t, w.Game().Player("Bob").HintsRecv)
}

func TestSendThenHint_OrderSensitivity(t *testing.T) {
	w := testWorld(t)
	ctx := context.Background()

	sendResult, err := w.ApplyItemSent(ctx, baseTime, "Alice", "Small Key", "Bob", "Chest 1")
	require.NoError(t, err)

	// 后到的提示不能把已找到的物品改回未找到，也不产生通知
	hintResult, err := w.ApplyHint(ctx, baseTime.Add(time.Minute), "Bob", "Small Key", "Chest 1", "Alice", "", false, false)
	require.NoError(t, err)
	assert.True(t, hintResult.FoundHint)
	assert.True(t, sendResult.Item.Found)
	assert.Empty(t, w.Game().Player("Bob").HintsRecv)
}

func TestHint_PriorityForcesProgression(t *testing.T) {
	w := testWorld(t)
	ctx := context.Background()

	result, err := w.ApplyHint(ctx, baseTime, "Bob", "Small Key", "Chest 1", "Alice", "", true, false)
	require.NoError(t, err)
	assert.True(t, result.PriorityHint)
	assert.Equal(t, Progression, result.Item.Classification)
}

func TestCompletion_PercentageAndMilestones(t *testing.T) {
	w := testWorld(t)
	ctx := context.Background()

	// Alice的世界有4个地点，全部预载为台账
	locations := []string{"Chest 1", "Chest 2", "Chest 3", "Chest 4"}
	for _, loc := range locations {
		require.NoError(t, w.PreloadItem(ctx, "Alice", loc, "Trinket "+loc, "Bob"))
	}

	alice := w.Game().Player("Alice")

	// 检查2个地点：50%里程碑触达
	var fired []int
	for _, loc := range locations[:2] {
		result, err := w.ApplyItemSent(ctx, baseTime, "Alice", "Trinket "+loc, "Bob", loc)
		require.NoError(t, err)
		fired = append(fired, result.PlayerMilestones...)
	}
	assert.Equal(t, 2, alice.Collected)
	assert.Equal(t, 4, alice.Total)
	assert.InDelta(t, 50.0, alice.Percent(), 0.01)
	assert.Equal(t, []int{50}, fired)

	// 重复送达不再触发同一里程碑
	result, err := w.ApplyItemSent(ctx, baseTime, "Alice", "Trinket Chest 1", "Bob", "Chest 1")
	require.NoError(t, err)
	assert.Empty(t, result.PlayerMilestones)

	// 全部检查完：75与100先后触达
	fired = nil
	for _, loc := range locations[2:] {
		result, err := w.ApplyItemSent(ctx, baseTime, "Alice", "Trinket "+loc, "Bob", loc)
		require.NoError(t, err)
		fired = append(fired, result.PlayerMilestones...)
	}
	assert.Equal(t, []int{75, 100}, fired)
}

func TestCompletion_FinishedExemption(t *testing.T) {
	w := testWorld(t)
	ctx := context.Background()

	for _, loc := range []string{"Chest 1", "Chest 2"} {
		require.NoError(t, w.PreloadItem(ctx, "Alice", loc, "Trinket", "Bob"))
	}

	result, err := w.ApplyItemSent(ctx, baseTime, "Alice", "Trinket", "Bob", "Chest 1")
	require.NoError(t, err)
	alice := w.Game().Player("Alice")
	collectedBefore := alice.Collected

	// 通关后进度与里程碑全部冻结
	goalResult, err := w.ApplyGoal(baseTime, "Alice")
	require.NoError(t, err)
	assert.True(t, goalResult.NewlyGoaled)

	result, err = w.ApplyItemSent(ctx, baseTime, "Alice", "Trinket", "Bob", "Chest 2")
	require.NoError(t, err)
	assert.Equal(t, collectedBefore, alice.Collected)
	assert.Empty(t, result.PlayerMilestones)

	// 通关标志单调：重复通关不再视为新事件
	goalResult, err = w.ApplyGoal(baseTime, "Alice")
	require.NoError(t, err)
	assert.False(t, goalResult.NewlyGoaled)
}

func TestRelease_Monotonic(t *testing.T) {
	w := testWorld(t)

	result, err := w.ApplyRelease(baseTime, "Bob")
	require.NoError(t, err)
	assert.True(t, result.NewlyReleased)
	assert.True(t, w.Game().Player("Bob").Finished())

	result, err = w.ApplyRelease(baseTime, "Bob")
	require.NoError(t, err)
	assert.False(t, result.NewlyReleased)
}

func TestCheckableDenominator_Fallback(t *testing.T) {
	store := newFakeStore()
	w := New(store, nil)
	w.RegisterPlayer("Alice", "TUNIC")
	w.RegisterPlayer("Bob", "OoT")
	ctx := context.Background()

	// 10个地点，游玩观察只证明了5个可检查：可检查占比50%低于95%阈值
	// 分母回退到原始地点总数
	locations := make([]string, 10)
	for i := range locations {
		locations[i] = string(rune('A' + i))
		require.NoError(t, w.PreloadItem(ctx, "Alice", locations[i], "Trinket "+locations[i], "Bob"))
	}
	for _, loc := range locations[:5] {
		_, err := w.ApplyItemSent(ctx, baseTime, "Alice", "Trinket "+loc, "Bob", loc)
		require.NoError(t, err)
	}

	alice := w.Game().Player("Alice")
	assert.Equal(t, 5, alice.Collected)
	assert.Equal(t, 10, alice.Total)
}

func TestCheckable_AlwaysCheckableGames(t *testing.T) {
	store := newFakeStore()
	w := New(store, func(game string) bool { return game == "APBingo" })
	w.RegisterPlayer("Carol", "APBingo")
	w.RegisterPlayer("Bob", "OoT")
	ctx := context.Background()

	// 免查游戏不读写存储
	require.NoError(t, w.PreloadItem(ctx, "Carol", "B5", "Bingo Call", "Bob"))
	item := w.Game().Ledger["Carol"]["B5"]
	require.NotNil(t, item)
	assert.True(t, item.Checkable)
	assert.Empty(t, store.rows)
}

func TestCheckable_UpgradeOnly(t *testing.T) {
	store := newFakeStore()
	w := New(store, nil)
	w.RegisterPlayer("Alice", "TUNIC")
	w.RegisterPlayer("Bob", "OoT")
	ctx := context.Background()

	// 剧透预载插入默认不可检查的行
	require.NoError(t, w.PreloadItem(ctx, "Alice", "Chest 1", "Trinket", "Bob"))
	checkable, found, err := store.Lookup(ctx, "TUNIC", "Chest 1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, checkable)

	// 实际游玩观察升格存储标志
	_, err = w.ApplyItemSent(ctx, baseTime, "Alice", "Trinket", "Bob", "Chest 1")
	require.NoError(t, err)
	checkable, _, err = store.Lookup(ctx, "TUNIC", "Chest 1")
	require.NoError(t, err)
	assert.True(t, checkable)
}

func TestJoinPart(t *testing.T) {
	w := testWorld(t)

	player := w.ApplyJoin(baseTime, "Carol", "SMW")
	require.NotNil(t, player)
	assert.True(t, player.Online)
	assert.Equal(t, "SMW", player.Game)

	player = w.ApplyPart(baseTime.Add(time.Hour), "Carol")
	require.NotNil(t, player)
	assert.False(t, player.Online)
	assert.Equal(t, baseTime.Add(time.Hour), player.LastSeen)

	// 未知玩家的离开事件只是丢弃
	assert.Nil(t, w.ApplyPart(baseTime, "Mallory"))
}

func TestRoomEvents(t *testing.T) {
	w := testWorld(t)

	w.ApplyRoomSpinup(baseTime, "archipelago.gg:38281")
	snap := w.Snapshot()
	assert.True(t, snap.Running)
	assert.Equal(t, "archipelago.gg:38281", snap.Address)

	w.ApplyRoomShutdown(baseTime.Add(time.Hour))
	assert.False(t, w.Snapshot().Running)
}

func TestSnapshot_PlayerDetail(t *testing.T) {
	w := testWorld(t)
	ctx := context.Background()

	_, err := w.ApplyItemSent(ctx, baseTime, "Alice", "Small Key", "Bob", "Chest 1")
	require.NoError(t, err)

	snap, ok := w.PlayerSnapshot("Bob")
	require.True(t, ok)
	require.Len(t, snap.Inventory, 1)
	assert.Equal(t, "Small Key", snap.Inventory[0].Name)
	assert.Equal(t, "Alice", snap.Inventory[0].Sender)

	_, ok = w.PlayerSnapshot("Mallory")
	assert.False(t, ok)
}
