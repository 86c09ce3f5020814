package rules

import (
	"github.com/wfunc/ap-itemlog/internal/world"
)

// Rule 单个游戏的扩展点
// 核心流水线不认识具体游戏，所有游戏差异都收敛到这个接口后面
type Rule interface {
	// FormatItem 给物品名附加展示信息（如收集进度"(3/25)"）
	FormatItem(item *world.Item, receiver *world.Player) string
	// FormatLocation 给地点名附加展示信息
	FormatLocation(location string, sender *world.Player) string
	// LiveReclassify 把conditional progression按世界状态落到progression或filler
	LiveReclassify(item *world.Item, receiver *world.Player) world.Classification
	// Static 不走存储的固定分级（简单游戏用），第二个返回值表示是否命中
	Static(itemName string) (world.Classification, bool)
	// AlwaysCheckable 该游戏所有地点是否天然可检查
	AlwaysCheckable() bool
	// Currency 识别货币类物品名并抽出数额，如"Money x32" -> ("Money", 32)
	Currency(itemName string) (unit string, amount int, ok bool)
}

// BaseRule 默认规则：什么都不加工
// 各游戏的规则嵌入它并只覆盖需要的方法
type BaseRule struct{}

func (BaseRule) FormatItem(item *world.Item, receiver *world.Player) string {
	return item.Name
}

func (BaseRule) FormatLocation(location string, sender *world.Player) string {
	return location
}

// LiveReclassify 没有专门规则时conditional progression一律按progression处理
func (BaseRule) LiveReclassify(item *world.Item, receiver *world.Player) world.Classification {
	return world.Progression
}

func (BaseRule) Static(itemName string) (world.Classification, bool) {
	return world.Unclassified, false
}

func (BaseRule) AlwaysCheckable() bool {
	return false
}

func (BaseRule) Currency(itemName string) (string, int, bool) {
	return "", 0, false
}

// Registry 游戏标题到规则的注册表
// 新游戏通过Register挂入，核心分发逻辑不随游戏增多而改动
type Registry struct {
	rules map[string]Rule
	base  Rule
}

// NewRegistry 创建注册表并挂入全部内建规则
func NewRegistry() *Registry {
	r := &Registry{
		rules: make(map[string]Rule),
		base:  BaseRule{},
	}
	registerBuiltins(r)
	return r
}

// Register 注册一个游戏的规则
func (r *Registry) Register(game string, rule Rule) {
	r.rules[game] = rule
}

// For 按游戏标题取规则，没有专属规则时返回默认规则
func (r *Registry) For(game string) Rule {
	if rule, ok := r.rules[game]; ok {
		return rule
	}
	return r.base
}

// AlwaysCheckable 游戏是否免查可检查性存储
func (r *Registry) AlwaysCheckable(game string) bool {
	return r.For(game).AlwaysCheckable()
}
