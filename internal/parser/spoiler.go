package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/wfunc/ap-itemlog/internal/world"
)

// 剧透日志的分节解析模式
const (
	sectionSeedInfo      = "Seed Info"
	sectionPlayers       = "Players"
	sectionLocations     = "Locations"
	sectionStartingItems = "Starting Items"
	sectionSkipped       = ""
)

var (
	reSpoilerLocation = regexp.MustCompile(`^(.+) \((.+?)\): (.+) \((.+?)\)$`)
	reStartingItem    = regexp.MustCompile(`^(.+) \((.+?)\)$`)
)

// 这些小节只描述区域结构，不参与台账
var skippedSections = map[string]bool{
	"Entrances:":                  true,
	"Medallions:":                 true,
	"Fairy Fountain Bottle Fill:": true,
	"Shops:":                      true,
}

// SpoilerLocation 剧透日志中的一条地点记录
type SpoilerLocation struct {
	Location string
	Sender   string
	Item     string
	Receiver string
}

// SpoilerStartingItem 一条起始物品记录
type SpoilerStartingItem struct {
	Item     string
	Receiver string
}

// SpoilerDoc 剧透日志解析结果
type SpoilerDoc struct {
	Seed           string
	Version        string
	Settings       world.Settings            // 会话级设置
	PlayerSettings map[string]world.Settings // 玩家名 -> 世界设置
	Locations      []SpoilerLocation
	StartingItems  []SpoilerStartingItem
}

// ParseSpoiler 解析剧透日志全文
// 缺失或畸形的小节直接跳过，永不报错
func (p *Parser) ParseSpoiler(text string) *SpoilerDoc {
	doc := &SpoilerDoc{
		Settings:       make(world.Settings),
		PlayerSettings: make(map[string]world.Settings),
	}

	mode := sectionSeedInfo
	workingPlayer := ""

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "Archipelago Version"):
			mode = sectionSeedInfo
		case strings.HasPrefix(line, "Player "):
			mode = sectionPlayers
			if _, value, ok := splitSetting(line); ok {
				workingPlayer = value
				if _, exists := doc.PlayerSettings[workingPlayer]; !exists {
					doc.PlayerSettings[workingPlayer] = make(world.Settings)
				}
			}
			continue
		case line == "Locations:":
			mode = sectionLocations
			continue
		case line == "Starting Items:":
			mode = sectionStartingItems
			continue
		case skippedSections[line]:
			mode = sectionSkipped
			continue
		}

		switch mode {
		case sectionSeedInfo:
			p.parseSeedInfoLine(doc, line)
		case sectionPlayers:
			p.parsePlayerLine(doc, workingPlayer, line)
		case sectionLocations:
			if m := reSpoilerLocation.FindStringSubmatch(line); m != nil {
				doc.Locations = append(doc.Locations, SpoilerLocation{
					Location: m[1],
					Sender:   m[2],
					Item:     m[3],
					Receiver: m[4],
				})
			}
		case sectionStartingItems:
			if m := reStartingItem.FindStringSubmatch(line); m != nil {
				doc.StartingItems = append(doc.StartingItems, SpoilerStartingItem{
					Item:     m[1],
					Receiver: m[2],
				})
			}
		}
	}

	return doc
}

// parseSeedInfoLine 解析种子元数据行
// 首行形如"Archipelago Version 0.4.4  -  Seed: 12345"
func (p *Parser) parseSeedInfoLine(doc *SpoilerDoc, line string) {
	if strings.HasPrefix(line, "Archipelago") {
		fields := strings.Fields(line)
		if len(fields) >= 3 {
			doc.Version = fields[2]
			doc.Seed = fields[len(fields)-1]
		}
		return
	}

	if key, value, ok := splitSetting(line); ok {
		doc.Settings.Set(key, world.ParseScalar(value))
	}
}

// parsePlayerLine 解析玩家设置行，JSON形态的值按结构解析
func (p *Parser) parsePlayerLine(doc *SpoilerDoc, workingPlayer, line string) {
	if workingPlayer == "" {
		return
	}
	key, value, ok := splitSetting(line)
	if !ok {
		return
	}

	settings := doc.PlayerSettings[workingPlayer]
	if strings.HasPrefix(value, "[") || strings.HasPrefix(value, "{") {
		var parsed interface{}
		if err := json.Unmarshal([]byte(value), &parsed); err == nil {
			settings.Set(key, parsed)
			return
		}
		// JSON解析失败时按原文保留
	}
	settings.Set(key, world.ParseScalar(value))
}

// splitSetting 把"Key: Value"切成两段
func splitSetting(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}
