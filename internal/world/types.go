package world

import (
	"strings"
	"time"
)

// Classification 物品重要度
type Classification string

// 物品重要度取值
// ConditionalProgression 只在解析过程中出现，对外输出前必须落到Progression或Filler
const (
	Unclassified           Classification = ""
	Progression            Classification = "progression"
	ConditionalProgression Classification = "conditional progression"
	Useful                 Classification = "useful"
	Currency               Classification = "currency"
	Filler                 Classification = "filler"
	Trap                   Classification = "trap"
)

// WorldSender 起始物品的发送方哨兵值（不对应任何玩家）
const WorldSender = "world"

// Item 一次从发送方世界到接收方世界的物品转移
type Item struct {
	Sender         string         // 发送方玩家名，起始物品为WorldSender
	Receiver       string         // 接收方玩家名
	Name           string         // 物品名
	Game           string         // 所属游戏（由接收方的游戏决定）
	Location       string         // 发送方世界中的地点
	Entrance       string         // 可选的入口/区域限定
	Checkable      bool           // 地点是否可被正常游玩检查
	Classification Classification // 重要度
	Found          bool           // 是否已实际送达
	Hinted         bool           // 是否被提示过
	Count          int            // 该接收方收到同名物品的次数
}

// itemKey 物品身份缓存键
// 同一(sender, location, name)三元组在一个会话内必须解析到同一个Item实例
type itemKey struct {
	Sender   string
	Location string
	Name     string
}

// Player 一名参与者（一个世界）
type Player struct {
	Name      string           // 玩家名（唯一键）
	Game      string           // 游戏标题，用于选择分级与格式化规则
	Inventory []*Item          // 按收到顺序排列的物品
	Receiving map[string]*Item // 地点 -> 以该玩家为接收方的物品
	HintsSent []*Item          // 该玩家作为发送方的未兑现提示
	HintsRecv []*Item          // 该玩家作为接收方的未兑现提示
	Settings  Settings         // 该世界的生成设置
	Online    bool             // 是否在线
	LastSeen  time.Time        // 最近一次加入/离开时间
	Goaled    bool             // 是否已通关（单调，不会复位）
	Released  bool             // 是否已释放（单调，不会复位）
	Collected int              // 本世界已检查的地点数
	Total     int              // 本世界计入进度的地点总数
	Milestones map[int]bool    // 已触达的完成度里程碑
}

// Finished 玩家已通关或已释放，不再参与进度与里程碑
func (p *Player) Finished() bool {
	return p.Goaled || p.Released
}

// ItemCount 收到的同名物品次数
func (p *Player) ItemCount(name string) int {
	count := 0
	for _, item := range p.Inventory {
		if item.Name == name {
			count++
		}
	}
	return count
}

// HasItem 是否收到过指定物品
func (p *Player) HasItem(name string) bool {
	return p.ItemCount(name) > 0
}

// CountPrefix 物品名带指定前缀的收取次数
func (p *Player) CountPrefix(prefix string) int {
	count := 0
	for _, item := range p.Inventory {
		if strings.HasPrefix(item.Name, prefix) {
			count++
		}
	}
	return count
}

// CountSuffix 物品名带指定后缀的收取次数
func (p *Player) CountSuffix(suffix string) int {
	count := 0
	for _, item := range p.Inventory {
		if strings.HasSuffix(item.Name, suffix) {
			count++
		}
	}
	return count
}

// CollectedOf 给定候选物品名中已收到的个数（去重）
func (p *Player) CollectedOf(names []string) int {
	count := 0
	for _, name := range names {
		if p.HasItem(name) {
			count++
		}
	}
	return count
}

// Percent 完成百分比，总数为0时为0
func (p *Player) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Collected) / float64(p.Total) * 100
}

// Game 一次多世界会话
type Game struct {
	SeedID     string             // 种子标识
	Version    string             // 生成器版本
	Settings   Settings           // 会话级设置
	Players    map[string]*Player // 玩家名 -> 玩家
	Ledger     map[string]map[string]*Item // 发送方 -> 地点 -> 物品（剧透/台账视角）
	Running    bool               // 上游服务器是否正在托管
	Address    string             // 托管地址
	Collected  int                // 所有玩家已检查地点数之和
	Total      int                // 所有玩家地点总数之和
	Milestones map[int]bool       // 已触达的会话级里程碑

	items map[itemKey]*Item // 物品身份缓存
}

// NewGame 创建空会话
func NewGame() *Game {
	return &Game{
		Settings:   make(Settings),
		Players:    make(map[string]*Player),
		Ledger:     make(map[string]map[string]*Item),
		Milestones: make(map[int]bool),
		items:      make(map[itemKey]*Item),
	}
}

// Percent 会话完成百分比
func (g *Game) Percent() float64 {
	if g.Total == 0 {
		return 0
	}
	return float64(g.Collected) / float64(g.Total) * 100
}

// Player 取玩家，不存在返回nil
func (g *Game) Player(name string) *Player {
	return g.Players[name]
}

// ensurePlayer 取或建玩家
func (g *Game) ensurePlayer(name, game string) *Player {
	if p, ok := g.Players[name]; ok {
		if game != "" && p.Game == "" {
			p.Game = game
		}
		return p
	}
	p := &Player{
		Name:       name,
		Game:       game,
		Receiving:  make(map[string]*Item),
		Settings:   make(Settings),
		Milestones: make(map[int]bool),
	}
	g.Players[name] = p
	return p
}

// getOrCreateItem 通过身份缓存取或建物品
// 返回的第二个值表示是否为新建
func (g *Game) getOrCreateItem(sender, location, name, receiver, receiverGame string) (*Item, bool) {
	key := itemKey{Sender: sender, Location: location, Name: name}
	if item, ok := g.items[key]; ok {
		return item, false
	}

	item := &Item{
		Sender:   sender,
		Receiver: receiver,
		Name:     name,
		Game:     receiverGame,
		Location: location,
	}
	g.items[key] = item

	if _, ok := g.Ledger[sender]; !ok {
		g.Ledger[sender] = make(map[string]*Item)
	}
	g.Ledger[sender][location] = item

	return item, true
}

// PlayerNames 返回当前已知玩家名
func (g *Game) PlayerNames() []string {
	names := make([]string, 0, len(g.Players))
	for name := range g.Players {
		names = append(names, name)
	}
	return names
}
