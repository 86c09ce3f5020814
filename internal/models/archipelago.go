package models

import "time"

// 物品重要度的合法取值（与 world.Classification 对应）
const (
	ClassificationProgression            = "progression"
	ClassificationConditionalProgression = "conditional progression"
	ClassificationUseful                 = "useful"
	ClassificationCurrency               = "currency"
	ClassificationFiller                 = "filler"
	ClassificationTrap                   = "trap"
)

// ValidClassifications 管理端写入时允许的取值
var ValidClassifications = []string{
	ClassificationProgression,
	ClassificationConditionalProgression,
	ClassificationUseful,
	ClassificationCurrency,
	ClassificationFiller,
	ClassificationTrap,
}

// IsValidClassification 校验重要度取值是否合法
func IsValidClassification(value string) bool {
	for _, v := range ValidClassifications {
		if v == value {
			return true
		}
	}
	return false
}

// ItemClassification 物品重要度表
// (game, item) 唯一；Classification 为空表示尚未人工分类
type ItemClassification struct {
	BaseModel
	Game           string  `gorm:"size:200;not null;uniqueIndex:idx_game_item" json:"game"`
	Item           string  `gorm:"size:200;not null;uniqueIndex:idx_game_item" json:"item"`
	Classification *string `gorm:"size:32" json:"classification"`
}

// TableName 指定表名
func (ItemClassification) TableName() string {
	return "item_classifications"
}

// GameLocation 游戏位置可检查性表
// 位置第一次出现时以 is_checkable=false 入库，
// 实际游玩中出现过的位置升级为 true（只升不降）
type GameLocation struct {
	BaseModel
	Game        string `gorm:"size:200;not null;uniqueIndex:idx_game_location" json:"game"`
	Location    string `gorm:"size:200;not null;uniqueIndex:idx_game_location" json:"location"`
	IsCheckable bool   `gorm:"default:false" json:"is_checkable"`
}

// TableName 指定表名
func (GameLocation) TableName() string {
	return "game_locations"
}

// RoomCursor 房间日志断点表（每个房间一行）
type RoomCursor struct {
	BaseModel
	RoomID    string    `gorm:"size:64;not null;uniqueIndex" json:"room_id"`
	LineCount int       `gorm:"default:0" json:"line_count"`
	SyncedAt  time.Time `json:"synced_at"`
}

// TableName 指定表名
func (RoomCursor) TableName() string {
	return "room_cursors"
}
