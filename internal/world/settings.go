package world

import (
	"strconv"
	"strings"
)

// Settings 世界设置袋
// 从剧透日志的自由文本解析而来，取值时显式处理缺失
type Settings map[string]interface{}

// Set 写入一项设置
func (s Settings) Set(key string, value interface{}) {
	s[key] = value
}

// String 取字符串设置，第二个返回值表示是否存在
func (s Settings) String(key string) (string, bool) {
	v, ok := s[key]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// Int 取整数设置
func (s Settings) Int(key string) (int, bool) {
	v, ok := s[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// Bool 取布尔设置
func (s Settings) Bool(key string) (bool, bool) {
	v, ok := s[key]
	if !ok {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(b) {
		case "yes", "true", "on", "1":
			return true, true
		case "no", "false", "off", "0":
			return false, true
		}
		return false, false
	default:
		return false, false
	}
}

// Float 取浮点设置
func (s Settings) Float(key string) (float64, bool) {
	v, ok := s[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// List 取列表设置
func (s Settings) List(key string) ([]string, bool) {
	v, ok := s[key]
	if !ok {
		return nil, false
	}
	switch l := v.(type) {
	case []string:
		return l, true
	case []interface{}:
		out := make([]string, 0, len(l))
		for _, e := range l {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// ParseScalar 将剧透日志里的文本值解析为类型化标量
// 识别布尔与数字，其余原样保留为字符串
func ParseScalar(raw string) interface{} {
	trimmed := strings.TrimSpace(raw)

	switch strings.ToLower(trimmed) {
	case "yes", "true", "on":
		return true
	case "no", "false", "off":
		return false
	}

	if n, err := strconv.Atoi(trimmed); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}

	// 逗号分隔的多值
	if strings.Contains(trimmed, ", ") {
		parts := strings.Split(trimmed, ", ")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}

	return trimmed
}
