package rules

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/wfunc/ap-itemlog/internal/world"
)

func registerBuiltins(r *Registry) {
	r.Register("A Link to the Past", alttpRule{})
	r.Register("A Hat in Time", hatInTimeRule{})
	r.Register("A Short Hike", shortHikeRule{})
	r.Register("Celeste (Open World)", celesteRule{})
	r.Register("DOOM 1993", doomRule{episodes: 4, levelsPerEpisode: 9})
	r.Register("DOOM II", doom2Rule{})
	r.Register("Final Fantasy Mystic Quest", mysticQuestRule{})
	r.Register("gzDoom", gzDoomRule{})
	r.Register("Here Comes Niko!", nikoRule{})
	r.Register("Ocarina of Time", ootRule{})
	r.Register("Simon Tatham's Portable Puzzle Collection", stppcRule{})
	r.Register("Sonic Adventure 2 Battle", sa2bRule{})
	r.Register("Super Mario World", smwRule{})
	r.Register("TUNIC", tunicRule{})
	r.Register("Twilight Princess", twilightRule{})
	r.Register("Void Stranger", voidStrangerRule{})

	// 元游戏与纯解谜游戏：全地点可检查，物品一律progression
	r.Register("SlotLock", metaGameRule{})
	r.Register("APBingo", metaGameRule{})
	r.Register("Jigsaw", jigsawRule{})
}

// countOf 带进度的"Item (count/required)"展示
func countOf(item string, count, required int) string {
	return fmt.Sprintf("%s (%d/%d)", item, count, required)
}

// metaGameRule 元游戏：每个地点都有意义，每个物品都是progression
type metaGameRule struct{ BaseRule }

func (metaGameRule) AlwaysCheckable() bool { return true }

func (metaGameRule) Static(itemName string) (world.Classification, bool) {
	return world.Progression, true
}

// alttpRule A Link to the Past
type alttpRule struct{ BaseRule }

func (alttpRule) FormatItem(item *world.Item, receiver *world.Player) string {
	if item.Name == "Triforce Piece" {
		if goal, ok := receiver.Settings.String("Goal"); ok && strings.Contains(goal, "Triforce Hunt") {
			if required, ok := receiver.Settings.Int("Triforce Pieces Required"); ok {
				return countOf(item.Name, receiver.ItemCount(item.Name), required)
			}
		}
	}
	return item.Name
}

// hatInTimeRule A Hat in Time
type hatInTimeRule struct{ BaseRule }

func (hatInTimeRule) FormatItem(item *world.Item, receiver *world.Player) string {
	settings := receiver.Settings
	switch {
	case item.Name == "Time Piece":
		if deathWishOnly, _ := settings.Bool("Death Wish Only"); deathWishOnly {
			return item.Name
		}
		required := 0
		if goal, ok := settings.String("End Goal"); ok {
			switch goal {
			case "Finale":
				required, _ = settings.Int("Chapter 5 Cost")
			case "Rush Hour":
				required, _ = settings.Int("Chapter 7 Cost")
			}
		}
		if required > 0 {
			return countOf(item.Name, receiver.ItemCount(item.Name), required)
		}
	case item.Name == "Progressive Painting Unlock":
		return countOf(item.Name, receiver.ItemCount(item.Name), 3)
	case strings.HasPrefix(item.Name, "Metro Ticket"):
		tickets := []string{"Yellow", "Green", "Blue", "Pink"}
		names := make([]string, len(tickets))
		for i, color := range tickets {
			names[i] = "Metro Ticket - " + color
		}
		return countOf(item.Name, receiver.CollectedOf(names), len(tickets))
	}
	return item.Name
}

func (hatInTimeRule) FormatLocation(location string, sender *world.Player) string {
	if strings.HasPrefix(location, "Tasksanity") {
		if enabled, _ := sender.Settings.Bool("Tasksanity"); enabled {
			if total, ok := sender.Settings.Int("Tasksanity Check Count"); ok {
				return fmt.Sprintf("%s/%d", location, total)
			}
		}
	}
	return location
}

// shortHikeRule A Short Hike
type shortHikeRule struct{ BaseRule }

func (shortHikeRule) FormatItem(item *world.Item, receiver *world.Player) string {
	if item.Name == "Seashell" {
		return fmt.Sprintf("%s (%d)", item.Name, receiver.ItemCount(item.Name))
	}
	return item.Name
}

// celesteRule Celeste (Open World)
type celesteRule struct{ BaseRule }

func (celesteRule) FormatItem(item *world.Item, receiver *world.Player) string {
	if item.Name == "Strawberry" {
		total, okTotal := receiver.Settings.Int("Total Strawberries")
		percent, okPercent := receiver.Settings.Int("Strawberries Required Percentage")
		if okTotal && okPercent {
			required := int(math.Round(float64(total) * float64(percent) / 100))
			return countOf(item.Name, receiver.ItemCount(item.Name), required)
		}
	}
	return item.Name
}

// doomRule DOOM 1993：按启用的章节推算需要通关的关卡数
type doomRule struct {
	BaseRule
	episodes         int
	levelsPerEpisode int
}

func (d doomRule) FormatItem(item *world.Item, receiver *world.Player) string {
	if !strings.HasSuffix(item.Name, " - Complete") {
		return item.Name
	}

	perEpisode := d.levelsPerEpisode
	if goal, ok := receiver.Settings.String("Goal"); ok && goal == "Complete Boss Levels" {
		perEpisode = 1
	}
	required := 0
	for episode := 1; episode <= d.episodes; episode++ {
		if enabled, _ := receiver.Settings.Bool(fmt.Sprintf("Episode %d", episode)); enabled {
			required += perEpisode
		}
	}
	return countOf(item.Name, receiver.CountSuffix(" - Complete"), required)
}

// doom2Rule DOOM II：章节关卡数不均匀
type doom2Rule struct{ BaseRule }

func (doom2Rule) FormatItem(item *world.Item, receiver *world.Player) string {
	if !strings.HasSuffix(item.Name, " - Complete") {
		return item.Name
	}

	required := 0
	episodeLevels := map[string]int{
		"Episode 1":     11, // MAP01-MAP11
		"Episode 2":     9,  // MAP12-MAP20
		"Episode 3":     10, // MAP21-MAP30
		"Secret Levels": 2,  // Wolfenstein/Grosse
	}
	for key, levels := range episodeLevels {
		if enabled, _ := receiver.Settings.Bool(key); enabled {
			required += levels
		}
	}
	return countOf(item.Name, receiver.CountSuffix(" - Complete"), required)
}

// mysticQuestRule Final Fantasy Mystic Quest
type mysticQuestRule struct{ BaseRule }

func (mysticQuestRule) FormatItem(item *world.Item, receiver *world.Player) string {
	if item.Name == "Sky Fragment" {
		return fmt.Sprintf("%s (%d)", item.Name, receiver.ItemCount(item.Name))
	}
	return item.Name
}

// gzDoomRule gzDoom：地点由所选wad动态生成，全部按可检查处理
type gzDoomRule struct{ BaseRule }

func (gzDoomRule) AlwaysCheckable() bool { return true }

// LiveReclassify 武器类的重复拷贝是filler，首把是progression
func (gzDoomRule) LiveReclassify(item *world.Item, receiver *world.Player) world.Classification {
	if item.Count > 1 {
		return world.Filler
	}
	return world.Progression
}

func (gzDoomRule) FormatItem(item *world.Item, receiver *world.Player) string {
	switch {
	case strings.HasPrefix(item.Name, "Level Access"):
		if levels, ok := receiver.Settings.List("Included levels"); ok {
			return countOf(item.Name, receiver.CountPrefix("Level Access"), len(levels))
		}
	case strings.HasPrefix(item.Name, "Level Clear"):
		if levels, ok := receiver.Settings.List("Included levels"); ok {
			return countOf(item.Name, receiver.CountPrefix("Level Clear"), len(levels))
		}
	}
	return item.Name
}

// nikoRule Here Comes Niko!
type nikoRule struct{ BaseRule }

var nikoFish = map[string]bool{
	"Hairball City Fish":       true,
	"Turbine Town Fish":        true,
	"Salmon Creek Forest Fish": true,
	"Public Pool Fish":         true,
	"Bathhouse Fish":           true,
	"Tadpole HQ Fish":          true,
}

func (nikoRule) FormatItem(item *world.Item, receiver *world.Player) string {
	settings := receiver.Settings
	switch {
	case item.Name == "Cassette":
		// 各关卡的Cassette Cost取最大值
		required := 0
		for key := range settings {
			if strings.Contains(key, "Cassette Cost") {
				if cost, ok := settings.Int(key); ok && cost > required {
					required = cost
				}
			}
		}
		if required > 0 {
			return countOf(item.Name, receiver.ItemCount(item.Name), required)
		}
	case item.Name == "Coin":
		required := 0
		if goal, ok := settings.String("Completion Goal"); ok && goal == "Employee" {
			required = 76
		} else if cost, ok := settings.Int("Elevator Cost"); ok {
			required = cost
		}
		if required > 0 {
			return countOf(item.Name, receiver.ItemCount(item.Name), required)
		}
	case nikoFish[item.Name]:
		if mode, ok := settings.String("Fishsanity"); ok && mode == "Insanity" {
			return countOf(item.Name, receiver.ItemCount(item.Name), 5)
		}
	}
	return item.Name
}

// ootRule Ocarina of Time
type ootRule struct{ BaseRule }

func (ootRule) FormatItem(item *world.Item, receiver *world.Player) string {
	switch item.Name {
	case "Triforce Piece":
		if hunt, _ := receiver.Settings.Bool("Triforce Hunt"); hunt {
			if required, ok := receiver.Settings.Int("Required Triforce Pieces"); ok {
				return countOf(item.Name, receiver.ItemCount(item.Name), required)
			}
		}
	case "Gold Skulltula Token":
		return countOf(item.Name, receiver.ItemCount(item.Name), 50)
	}
	return item.Name
}

// stppcRule Simon Tatham's Portable Puzzle Collection
// 纯解谜合集：地点全可检查，除Filler外全是progression
type stppcRule struct{ BaseRule }

func (stppcRule) AlwaysCheckable() bool { return true }

func (stppcRule) Static(itemName string) (world.Classification, bool) {
	if itemName == "Filler" {
		return world.Filler, true
	}
	return world.Progression, true
}

func (stppcRule) FormatItem(item *world.Item, receiver *world.Player) string {
	if total, ok := receiver.Settings.Int("puzzle_count"); ok {
		return countOf(item.Name, len(receiver.Inventory), total)
	}
	return item.Name
}

func (stppcRule) FormatLocation(location string, sender *world.Player) string {
	total, okTotal := sender.Settings.Int("puzzle_count")
	percent, okPercent := sender.Settings.Int("Target Completion Percentage")
	if okTotal && okPercent {
		required := int(math.Round(float64(total) * float64(percent) / 100))
		return fmt.Sprintf("%s (%d/%d)", location, sender.Collected, required)
	}
	return location
}

// sa2bRule Sonic Adventure 2 Battle
type sa2bRule struct{ BaseRule }

func (sa2bRule) FormatItem(item *world.Item, receiver *world.Player) string {
	if item.Name == "Emblem" {
		emblemCap, okCap := receiver.Settings.Int("Max Emblem Cap")
		percent, okPercent := receiver.Settings.Int("Emblem Percentage for Cannon's Core")
		if okCap && okPercent {
			required := int(math.Round(float64(emblemCap) * float64(percent) / 100))
			return countOf(item.Name, receiver.ItemCount(item.Name), required)
		}
	}
	return item.Name
}

// smwRule Super Mario World
type smwRule struct{ BaseRule }

func (smwRule) FormatItem(item *world.Item, receiver *world.Player) string {
	settings := receiver.Settings
	switch item.Name {
	case "Progressive Powerup":
		powerups := []string{"Super Mushroom", "Fire Flower", "Cape Feather"}
		count := receiver.ItemCount(item.Name)
		if count >= 1 && count <= len(powerups) {
			return fmt.Sprintf("%s (%s)", item.Name, powerups[count-1])
		}
	case "Yoshi Egg":
		if goal, ok := settings.String("Goal"); ok && goal == "Yoshi Egg Hunt" {
			maxEggs, okMax := settings.Int("Max Number of Yoshi Eggs")
			percent, okPercent := settings.Int("Required Percentage of Yoshi Eggs")
			if okMax && okPercent {
				required := int(math.Round(float64(maxEggs) * float64(percent) / 100))
				return countOf(item.Name, receiver.ItemCount(item.Name), required)
			}
		}
	case "Boss Token":
		if goal, ok := settings.String("Goal"); ok && goal == "Bowser" {
			if required, ok := settings.Int("Bosses Required"); ok {
				return countOf(item.Name, receiver.ItemCount(item.Name), required)
			}
		}
	}
	return item.Name
}

// tunicRule TUNIC
type tunicRule struct{ BaseRule }

var (
	tunicMoney     = regexp.MustCompile(`^Money x(\d+)$`)
	tunicTreasures = map[string]string{
		"Secret Legend": "DEF", "Phonomath": "DEF",
		"Spring Falls": "POTION", "Just Some Pals": "POTION", "Back To Work": "POTION",
		"Forever Friend": "SP", "Mr Mayor": "SP", "Power Up": "SP", "Regal Weasel": "SP",
		"Sacred Geometry": "MP", "Vintage": "MP", "Dusty": "MP",
	}
)

func (tunicRule) Currency(itemName string) (string, int, bool) {
	if m := tunicMoney.FindStringSubmatch(itemName); m != nil {
		amount := 0
		fmt.Sscanf(m[1], "%d", &amount)
		return "Money", amount, true
	}
	return "", 0, false
}

func (tunicRule) FormatItem(item *world.Item, receiver *world.Player) string {
	count := receiver.ItemCount(item.Name)
	switch {
	case item.Name == "Flask Shard":
		progress := count % 3
		if progress == 0 {
			return item.Name + " (Gained Flask!)"
		}
		return fmt.Sprintf("%s (%d/3)", item.Name, progress)
	case item.Name == "Fairy":
		required := 20
		if count < 10 {
			required = 10
		}
		return countOf(item.Name, count, required)
	case item.Name == "Gold Questagon":
		if required, ok := receiver.Settings.Int("Gold Hexagons Required"); ok {
			return countOf(item.Name, count, required)
		}
	case item.Name == "Golden Coin":
		// 花费档位：下一个未达到的档位作为目标
		next := 20
		for _, tier := range []int{3, 6, 10, 15, 20} {
			if count < tier {
				next = tier
				break
			}
		}
		return countOf(item.Name, count, next)
	case item.Name == "Blue Questagon" || item.Name == "Red Questagon" || item.Name == "Green Questagon":
		collected := receiver.CollectedOf([]string{"Blue Questagon", "Red Questagon", "Green Questagon"})
		return countOf(item.Name, collected, 3)
	case item.Name == "Sword Upgrade":
		upgrades := []string{"Stick", "Ruin Seeker's Sword", "Librarian's Sword", "Heir's Sword"}
		if count >= 1 && count <= len(upgrades) {
			return fmt.Sprintf("%s (LV%d: %s)", item.Name, count, upgrades[count-1])
		}
	default:
		if stat, ok := tunicTreasures[item.Name]; ok {
			return fmt.Sprintf("%s (+1 %s)", item.Name, stat)
		}
	}
	return item.Name
}

// twilightRule Twilight Princess
type twilightRule struct{ BaseRule }

func (twilightRule) FormatItem(item *world.Item, receiver *world.Player) string {
	if item.Name == "Poe Soul" {
		count := receiver.ItemCount(item.Name)
		required := 60
		if count < 20 {
			required = 20
		}
		return countOf(item.Name, count, required)
	}
	return item.Name
}

// voidStrangerRule Void Stranger
type voidStrangerRule struct{ BaseRule }

func (voidStrangerRule) FormatItem(item *world.Item, receiver *world.Player) string {
	switch item.Name {
	case "Greed Coin":
		return countOf(item.Name, receiver.ItemCount(item.Name), 15)
	case "Locust Idol", "Lucky Locust Idol":
		// Lucky版一只顶三只
		total := receiver.ItemCount("Locust Idol") + receiver.ItemCount("Lucky Locust Idol")*3
		return fmt.Sprintf("%s (%d)", item.Name, total)
	}
	return item.Name
}

// jigsawRule Jigsaw：拼图游戏，合并进度跟在地点名后
type jigsawRule struct{ BaseRule }

func (jigsawRule) AlwaysCheckable() bool { return true }

func (jigsawRule) Static(itemName string) (world.Classification, bool) {
	return world.Progression, true
}

func (jigsawRule) FormatLocation(location string, sender *world.Player) string {
	if strings.HasPrefix(location, "Merge") {
		if dims, ok := sender.Settings.String("Puzzle dimension"); ok {
			parts := strings.Split(dims, "×")
			if len(parts) == 2 {
				var w, h int
				fmt.Sscanf(parts[0], "%d", &w)
				fmt.Sscanf(parts[1], "%d", &h)
				if w > 0 && h > 0 {
					return fmt.Sprintf("%s (of %d)", location, w*h)
				}
			}
		}
	}
	return location
}
