package world

import (
	"sort"
	"time"
)

// ItemSnapshot 物品只读视图
type ItemSnapshot struct {
	Sender         string `json:"sender"`
	Receiver       string `json:"receiver"`
	Name           string `json:"name"`
	Game           string `json:"game"`
	Location       string `json:"location"`
	Entrance       string `json:"entrance,omitempty"`
	Checkable      bool   `json:"checkable"`
	Classification string `json:"classification"`
	Found          bool   `json:"found"`
	Hinted         bool   `json:"hinted"`
	Count          int    `json:"count"`
}

// PlayerSnapshot 玩家只读视图
type PlayerSnapshot struct {
	Name       string         `json:"name"`
	Game       string         `json:"game"`
	Online     bool           `json:"online"`
	LastSeen   time.Time      `json:"last_seen"`
	Goaled     bool           `json:"goaled"`
	Released   bool           `json:"released"`
	Collected  int            `json:"collected"`
	Total      int            `json:"total"`
	Percent    float64        `json:"percent"`
	Milestones []int          `json:"milestones"`
	Inventory  []ItemSnapshot `json:"inventory,omitempty"`
	HintsSent  []ItemSnapshot `json:"hints_sent,omitempty"`
	HintsRecv  []ItemSnapshot `json:"hints_recv,omitempty"`
}

// GameSnapshot 会话只读视图
type GameSnapshot struct {
	SeedID     string           `json:"seed_id"`
	Version    string           `json:"version"`
	Running    bool             `json:"running"`
	Address    string           `json:"address,omitempty"`
	Collected  int              `json:"collected"`
	Total      int              `json:"total"`
	Percent    float64          `json:"percent"`
	Milestones []int            `json:"milestones"`
	Players    []PlayerSnapshot `json:"players"`
}

// Snapshot 取一致性只读快照
// 轮询循环持写锁期间阻塞，读者没有时延保证
func (w *World) Snapshot() GameSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	g := w.game
	snap := GameSnapshot{
		SeedID:     g.SeedID,
		Version:    g.Version,
		Running:    g.Running,
		Address:    g.Address,
		Collected:  g.Collected,
		Total:      g.Total,
		Percent:    g.Percent(),
		Milestones: sortedMilestones(g.Milestones),
		Players:    make([]PlayerSnapshot, 0, len(g.Players)),
	}

	for _, p := range g.Players {
		snap.Players = append(snap.Players, snapshotPlayer(p, false))
	}
	sort.Slice(snap.Players, func(i, j int) bool {
		return snap.Players[i].Name < snap.Players[j].Name
	})

	return snap
}

// PlayerSnapshot 取单个玩家的详细快照（含物品与提示）
// 玩家不存在时第二个返回值为false
func (w *World) PlayerSnapshot(name string) (PlayerSnapshot, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	p := w.game.Player(name)
	if p == nil {
		return PlayerSnapshot{}, false
	}
	return snapshotPlayer(p, true), true
}

func snapshotPlayer(p *Player, detailed bool) PlayerSnapshot {
	snap := PlayerSnapshot{
		Name:       p.Name,
		Game:       p.Game,
		Online:     p.Online,
		LastSeen:   p.LastSeen,
		Goaled:     p.Goaled,
		Released:   p.Released,
		Collected:  p.Collected,
		Total:      p.Total,
		Percent:    p.Percent(),
		Milestones: sortedMilestones(p.Milestones),
	}

	if detailed {
		snap.Inventory = snapshotItems(p.Inventory)
		snap.HintsSent = snapshotItems(p.HintsSent)
		snap.HintsRecv = snapshotItems(p.HintsRecv)
	}

	return snap
}

func snapshotItems(items []*Item) []ItemSnapshot {
	if len(items) == 0 {
		return nil
	}
	out := make([]ItemSnapshot, 0, len(items))
	for _, item := range items {
		out = append(out, ItemSnapshot{
			Sender:         item.Sender,
			Receiver:       item.Receiver,
			Name:           item.Name,
			Game:           item.Game,
			Location:       item.Location,
			Entrance:       item.Entrance,
			Checkable:      item.Checkable,
			Classification: string(item.Classification),
			Found:          item.Found,
			Hinted:         item.Hinted,
			Count:          item.Count,
		})
	}
	return out
}

func sortedMilestones(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for threshold := range m {
		out = append(out, threshold)
	}
	sort.Ints(out)
	return out
}
