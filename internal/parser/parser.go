package parser

import (
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wfunc/ap-itemlog/internal/logger"
)

// TimestampLayout 日志行时间戳格式
const TimestampLayout = "2006-01-02 15:04:05,000"

// 行形状识别用的正则
// 字段内可能含分隔子串（如物品名带" to "），正则只切大块，
// 发送方/接收方再按已知玩家名精确落位
var (
	reTimestamp = regexp.MustCompile(`^\[(.+?)\]: (.*)$`)
	reSent      = regexp.MustCompile(`^\(Team #\d+\) (.+)\)$`)
	reHint      = regexp.MustCompile(`^Notice \(Team #\d+\): \[Hint\]: (.+)\.(?: \(([^)]+)\))?$`)
	reGoal      = regexp.MustCompile(`^Notice \(all\): (.+) \(Team #\d+\) has completed their goal\.$`)
	reRelease   = regexp.MustCompile(`^Notice \(all\): (.+) \(Team #\d+\) has released all remaining items from their world\.$`)
	reJoined    = regexp.MustCompile(`^Notice \(all\): (.+) \(Team #\d+\) (playing|tracking|viewing) (.+) has joined\. Client\(([^)]*)\)(?:, \[(.*)\])?\.$`)
	reParted    = regexp.MustCompile(`^Notice \(all\): (.+) \(Team #\d+\) has left the game\.(?: Client\([^)]*\)\.)?$`)
	reSpinup    = regexp.MustCompile(`^Hosting game at (.+)$`)
	reShutdown  = regexp.MustCompile(`^(?:Shutting down|Server shutting down)`)
)

// Parser 行分类器
// 每行至多映射为一个事件，识别不了的行丢弃而不报错
type Parser struct {
	log *zap.Logger
}

// New 创建行分类器
func New() *Parser {
	return &Parser{log: logger.GetModuleLogger("parser")}
}

// Parse 识别一行日志
// players为当前已知玩家名，用于消除字段间的歧义
// 返回(nil, nil)表示该行被丢弃
func (p *Parser) Parse(line string, players []string) (Event, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, nil
	}

	m := reTimestamp.FindStringSubmatch(line)
	if m == nil {
		p.log.Debug("unrecognized_line", zap.String("line", line))
		return nil, nil
	}

	at, err := time.Parse(TimestampLayout, m[1])
	if err != nil {
		// 时间戳损坏的行同样丢弃
		p.log.Debug("bad_timestamp", zap.String("line", line), zap.Error(err))
		return nil, nil
	}
	body := m[2]

	if event := p.parseBody(at, body, players); event != nil {
		return event, nil
	}

	p.log.Debug("unrecognized_line", zap.String("line", line))
	return nil, nil
}

func (p *Parser) parseBody(at time.Time, body string, players []string) Event {
	if m := reSent.FindStringSubmatch(body); m != nil {
		if event := p.parseSent(at, m[1], players); event != nil {
			return event
		}
	}

	if m := reHint.FindStringSubmatch(body); m != nil {
		if event := p.parseHint(at, m[1], m[2], players); event != nil {
			return event
		}
	}

	if m := reGoal.FindStringSubmatch(body); m != nil {
		return Goaled{At: at, Sender: m[1]}
	}

	if m := reRelease.FindStringSubmatch(body); m != nil {
		return Released{At: at, Sender: m[1]}
	}

	if m := reJoined.FindStringSubmatch(body); m != nil {
		return Joined{
			At:            at,
			Player:        m[1],
			Verb:          m[2],
			Game:          m[3],
			ClientVersion: m[4],
			Tags:          parseTags(m[5]),
		}
	}

	if m := reParted.FindStringSubmatch(body); m != nil {
		return Parted{At: at, Player: m[1]}
	}

	if m := reSpinup.FindStringSubmatch(body); m != nil {
		return RoomSpinup{At: at, Address: m[1]}
	}

	if reShutdown.MatchString(body) {
		return RoomShutdown{At: at}
	}

	if event := p.parseChat(at, body, players); event != nil {
		return event
	}

	return nil
}

// parseSent 解析"S sent ITEM to R (LOC)"主体
// inner为去掉Team前缀与末尾右括号后的文本
// 地点取第一个左侧恰好以已知接收方结尾的" ("边界，
// 这样地点名自带括号时不会吃掉接收方
func (p *Parser) parseSent(at time.Time, inner string, players []string) Event {
	sender, rest := matchPrefixPlayer(inner, " sent ", players)
	if sender == "" {
		return nil
	}

	for idx := 0; ; {
		rel := strings.Index(rest[idx:], " (")
		if rel < 0 {
			return nil
		}
		idx += rel

		if item, receiver := matchSuffixPlayer(rest[:idx], " to ", players); receiver != "" {
			return ItemSent{
				At:       at,
				Sender:   sender,
				Item:     item,
				Receiver: receiver,
				Location: rest[idx+2:],
			}
		}
		idx += 2
	}
}

// parseHint 解析"R's ITEM is at LOC in S's World[ at ENTRANCE]"主体
func (p *Parser) parseHint(at time.Time, body, status string, players []string) Event {
	receiver, rest := matchPrefixPlayer(body, "'s ", players)
	if receiver == "" {
		return nil
	}

	// 从右往左找" in P's World"定位发送方
	sender := ""
	entrance := ""
	var middle string
	for _, candidate := range players {
		marker := " in " + candidate + "'s World"
		idx := strings.LastIndex(rest, marker)
		if idx < 0 {
			continue
		}
		if len(candidate) > len(sender) {
			sender = candidate
			middle = rest[:idx]
			entrance = strings.TrimPrefix(rest[idx+len(marker):], " at ")
			if entrance == rest[idx+len(marker):] {
				entrance = ""
			}
		}
	}
	if sender == "" {
		return nil
	}

	idx := strings.Index(middle, " is at ")
	if idx < 0 {
		return nil
	}

	return Hinted{
		At:       at,
		Receiver: receiver,
		Item:     middle[:idx],
		Location: middle[idx+len(" is at "):],
		Sender:   sender,
		Entrance: entrance,
		Status:   status,
	}
}

// parseChat 把"NAME: text"识别为聊天，NAME必须是已知玩家
func (p *Parser) parseChat(at time.Time, body string, players []string) Event {
	for _, candidate := range players {
		prefix := candidate + ": "
		if strings.HasPrefix(body, prefix) {
			return Chat{
				At:     at,
				Sender: candidate,
				Text:   body[len(prefix):],
			}
		}
	}
	return nil
}

// matchPrefixPlayer 在text开头找"玩家名+分隔符"，取最长匹配
// 返回玩家名与分隔符之后的剩余文本
func matchPrefixPlayer(text, sep string, players []string) (string, string) {
	best := ""
	for _, candidate := range players {
		if len(candidate) <= len(best) {
			continue
		}
		if strings.HasPrefix(text, candidate+sep) {
			best = candidate
		}
	}
	if best == "" {
		return "", ""
	}
	return best, text[len(best)+len(sep):]
}

// matchSuffixPlayer 在text结尾找"分隔符+玩家名"，取最长匹配
// 返回分隔符之前的文本与玩家名
func matchSuffixPlayer(text, sep string, players []string) (string, string) {
	best := ""
	for _, candidate := range players {
		if len(candidate) <= len(best) {
			continue
		}
		if strings.HasSuffix(text, sep+candidate) {
			best = candidate
		}
	}
	if best == "" {
		return "", ""
	}
	return text[:len(text)-len(sep)-len(best)], best
}

func parseTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ", ")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.Trim(part, "'\"")
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
