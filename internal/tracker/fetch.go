package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/wfunc/ap-itemlog/internal/config"
	apperrors "github.com/wfunc/ap-itemlog/internal/errors"
	"github.com/wfunc/ap-itemlog/internal/logger"
)

// RoomStatus 房间状态接口返回的会话元数据
// players是[name, game]对的列表
type RoomStatus struct {
	Players      [][]string `json:"players"`
	LastPort     int        `json:"last_port"`
	LastActivity string     `json:"last_activity"`
	Tracker      string     `json:"tracker"`
}

// Fetcher 拉取房间日志、房间状态与spoiler文档
type Fetcher struct {
	client *http.Client
	cfg    *config.RoomConfig
	log    *zap.Logger
}

// NewFetcher 创建拉取器
func NewFetcher(cfg *config.RoomConfig) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: cfg.FetchTimeout},
		cfg:    cfg,
		log:    logger.GetModuleLogger("fetch"),
	}
}

// get 带会话Cookie的GET请求
func (f *Fetcher) get(ctx context.Context, url string, code apperrors.ErrorCode) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, code)
	}
	if f.cfg.SessionCookie != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: f.cfg.SessionCookie})
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, code)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Newf(code, "%s 返回 %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, code)
	}
	return body, nil
}

// FetchLog 拉取完整房間日志并按行切分
func (f *Fetcher) FetchLog(ctx context.Context) ([]string, error) {
	body, err := f.get(ctx, f.cfg.LogURL, apperrors.ErrLogFetch)
	if err != nil {
		return nil, err
	}
	lines := splitLines(string(body))
	f.log.Debug("日志已拉取", zap.Int("lines", len(lines)))
	return lines, nil
}

// FetchRoomStatus 拉取房间状态（玩家名与游戏的权威来源）
func (f *Fetcher) FetchRoomStatus(ctx context.Context) (*RoomStatus, error) {
	body, err := f.get(ctx, f.cfg.RoomStatusURL(), apperrors.ErrRoomStatusFetch)
	if err != nil {
		return nil, err
	}

	var status RoomStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrRoomStatusFetch, "房间状态不是合法JSON")
	}
	return &status, nil
}

// FetchSpoiler 拉取spoiler文档原文
func (f *Fetcher) FetchSpoiler(ctx context.Context) (string, error) {
	url := f.cfg.SpoilerURL
	if url == "" {
		return "", fmt.Errorf("未配置spoiler地址")
	}
	if strings.Contains(url, "/seed/") {
		url = f.cfg.SpoilerDownloadURL()
	}
	body, err := f.get(ctx, url, apperrors.ErrSpoilerFetch)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// splitLines 按行切分并丢弃结尾空行
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
