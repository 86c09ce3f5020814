package tracker

import (
	"fmt"
	"strings"

	"github.com/wfunc/ap-itemlog/internal/rules"
	"github.com/wfunc/ap-itemlog/internal/world"
)

// dimPrefix 已完赛玩家相关消息的弱化前缀
const dimPrefix = "-# "

// Renderer 把世界状态变化渲染成对外文本
type Renderer struct {
	registry *rules.Registry
}

// NewRenderer 创建渲染器
func NewRenderer(registry *rules.Registry) *Renderer {
	return &Renderer{registry: registry}
}

func dimIfFinished(p *world.Player) string {
	if p != nil && p.Finished() {
		return dimPrefix
	}
	return ""
}

// ItemSent 一次物品送达的通知文本
// wasHinted取应用该发送前物品的提示状态
func (r *Renderer) ItemSent(item *world.Item, sender, receiver *world.Player, wasHinted bool) string {
	itemName := r.registry.For(receiver.Game).FormatItem(item, receiver)
	location := item.Location
	if sender != nil {
		location = r.registry.For(sender.Game).FormatLocation(item.Location, sender)
	}

	if sender != nil && sender.Name == receiver.Name {
		hinted := ""
		if wasHinted {
			hinted = "hinted "
		}
		return fmt.Sprintf("**%s** found **their own %s%s** (%s)", sender.Name, hinted, itemName, location)
	}

	senderName := item.Sender
	if sender != nil {
		senderName = sender.Name
	}
	if wasHinted {
		return fmt.Sprintf("%s%s found **%s's hinted %s** (%s)",
			dimIfFinished(receiver), senderName, receiver.Name, itemName, location)
	}
	return fmt.Sprintf("%s%s sent **%s** to **%s** (%s)",
		dimIfFinished(receiver), senderName, itemName, receiver.Name, location)
}

// Hint 一条新提示的通知文本
func (r *Renderer) Hint(item *world.Item) string {
	return fmt.Sprintf("**[Hint]** **%s's %s** is at %s in %s's World.",
		item.Receiver, item.Name, item.Location, item.Sender)
}

// Goal 通关通知
func (r *Renderer) Goal(sender string) string {
	return fmt.Sprintf("**%s has finished!**", sender)
}

// Release 释放汇总：一行头加每个接收方一行清单
// 已完赛接收方整行丢弃；filler丢弃；货币按单位折算合并；同名物品计数合并
func (r *Renderer) Release(entry *ReleaseEntry, game *world.Game) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** has released their remaining items.", entry.Sender)

	for _, receiver := range entry.Receivers {
		player := game.Player(receiver)
		if player != nil && player.Finished() {
			continue
		}
		line := r.receiverLine(receiver, entry.Items[receiver], player)
		if line == "" {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(line)
	}
	return sb.String()
}

// receiverLine 单个接收方的清单行，清单为空返回空串
func (r *Renderer) receiverLine(receiver string, items []*world.Item, player *world.Player) string {
	gameName := ""
	if player != nil {
		gameName = player.Game
	}
	rule := r.registry.For(gameName)

	counts := make(map[string]int)
	currency := make(map[string]int)
	var order []string
	var currencyOrder []string

	for _, item := range items {
		if item.Classification == world.Filler || item.Classification == world.Trap {
			continue
		}
		if unit, amount, ok := rule.Currency(item.Name); ok {
			if _, seen := currency[unit]; !seen {
				currencyOrder = append(currencyOrder, unit)
			}
			currency[unit] += amount
			continue
		}
		if _, seen := counts[item.Name]; !seen {
			order = append(order, item.Name)
		}
		counts[item.Name]++
	}

	var parts []string
	for _, name := range order {
		if counts[name] > 1 {
			parts = append(parts, fmt.Sprintf("%s (x%d)", name, counts[name]))
		} else {
			parts = append(parts, name)
		}
	}
	for _, unit := range currencyOrder {
		parts = append(parts, fmt.Sprintf("%d %s", currency[unit], unit))
	}

	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("**%s** receives: %s", receiver, strings.Join(parts, ", "))
}

// PlayerMilestone 单个玩家的进度里程碑
func (r *Renderer) PlayerMilestone(player *world.Player, percent int) string {
	return fmt.Sprintf("**%s** has checked %d%% of their locations! (%d/%d)",
		player.Name, percent, player.Collected, player.Total)
}

// GameMilestone 全局进度里程碑
func (r *Renderer) GameMilestone(game *world.Game, percent int) string {
	return fmt.Sprintf("**The multiworld is %d%% complete!** (%d/%d)",
		percent, game.Collected, game.Total)
}

// Chat 聊天转发文本
func (r *Renderer) Chat(sender, text string) string {
	return fmt.Sprintf("%s: %s", sender, text)
}
