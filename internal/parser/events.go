package parser

import "time"

// Event 从一行日志识别出的类型化事件
type Event interface {
	// When 事件发生时间
	When() time.Time
}

// ItemSent 一次物品送达
type ItemSent struct {
	At       time.Time
	Sender   string
	Item     string
	Receiver string
	Location string
}

// Hinted 一条提示
type Hinted struct {
	At       time.Time
	Receiver string
	Item     string
	Location string
	Sender   string
	Entrance string // 可选的入口限定
	Status   string // 提示携带的状态标记，如found/priority
}

// Found 提示的物品已被找到
func (h Hinted) Found() bool {
	return h.Status == "found"
}

// Priority 提示携带优先标记
func (h Hinted) Priority() bool {
	return h.Status == "priority"
}

// Goaled 一名玩家通关
type Goaled struct {
	At     time.Time
	Sender string
}

// Released 一名玩家释放剩余物品
type Released struct {
	At     time.Time
	Sender string
}

// Chat 一条玩家聊天
type Chat struct {
	At     time.Time
	Sender string
	Text   string
}

// RoomSpinup 房间开始托管
type RoomSpinup struct {
	At      time.Time
	Address string
}

// RoomShutdown 房间停机
type RoomShutdown struct {
	At time.Time
}

// Joined 玩家加入
type Joined struct {
	At            time.Time
	Player        string
	Verb          string // playing/tracking等
	Game          string
	ClientVersion string
	Tags          []string
}

// Parted 玩家离开
type Parted struct {
	At     time.Time
	Player string
}

func (e ItemSent) When() time.Time     { return e.At }
func (e Hinted) When() time.Time       { return e.At }
func (e Goaled) When() time.Time       { return e.At }
func (e Released) When() time.Time     { return e.At }
func (e Chat) When() time.Time         { return e.At }
func (e RoomSpinup) When() time.Time   { return e.At }
func (e RoomShutdown) When() time.Time { return e.At }
func (e Joined) When() time.Time       { return e.At }
func (e Parted) When() time.Time       { return e.At }
