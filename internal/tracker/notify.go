package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wfunc/ap-itemlog/internal/config"
	apperrors "github.com/wfunc/ap-itemlog/internal/errors"
	"github.com/wfunc/ap-itemlog/internal/logger"
)

// defaultMaxLength 投递端单条消息的长度上限
const defaultMaxLength = 2000

// Broadcaster 把出站消息同步推给实时订阅端
type Broadcaster interface {
	Broadcast(message string)
}

// Notifier 出站消息投递器
// 投递失败只记日志不重试，状态推进不依赖投递结果
type Notifier struct {
	client    *http.Client
	cfg       *config.WebhookConfig
	hub       Broadcaster
	log       *zap.Logger
	sleep     func(time.Duration)
	maxLength int
}

// NewNotifier 创建投递器
func NewNotifier(cfg *config.WebhookConfig) *Notifier {
	maxLength := cfg.MaxLength
	if maxLength <= 0 {
		maxLength = defaultMaxLength
	}
	return &Notifier{
		client:    &http.Client{Timeout: cfg.SendTimeout},
		cfg:       cfg,
		log:       logger.GetModuleLogger("notify"),
		sleep:     time.Sleep,
		maxLength: maxLength,
	}
}

// SetBroadcaster 挂接实时订阅出口
func (n *Notifier) SetBroadcaster(hub Broadcaster) {
	n.hub = hub
}

// Chunk 把消息序列按长度上限分片
// 片内消息以换行连接，单条消息永不跨片
func (n *Notifier) Chunk(messages []string) []string {
	var chunks []string
	var current []string
	currentLen := 0

	for _, msg := range messages {
		if msg == "" {
			continue
		}
		if len(msg) > n.maxLength {
			n.log.Warn("消息超过长度上限，将被截断",
				zap.Int("length", len(msg)),
				zap.Int("max", n.maxLength),
			)
			msg = msg[:n.maxLength]
		}
		need := len(msg)
		if len(current) > 0 {
			need++ // 换行符
		}
		if currentLen+need > n.maxLength {
			chunks = append(chunks, joinLines(current))
			current = nil
			currentLen = 0
			need = len(msg)
		}
		current = append(current, msg)
		currentLen += need
	}
	if len(current) > 0 {
		chunks = append(chunks, joinLines(current))
	}
	return chunks
}

func joinLines(lines []string) string {
	var buf bytes.Buffer
	for i, line := range lines {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)
	}
	return buf.String()
}

// Flush 投递一轮tick积累的消息
func (n *Notifier) Flush(ctx context.Context, messages []string) {
	if len(messages) == 0 {
		return
	}

	if n.hub != nil {
		for _, msg := range messages {
			n.hub.Broadcast(msg)
		}
	}

	chunks := n.Chunk(messages)
	for i, chunk := range chunks {
		if i > 0 && n.cfg.SendDelay > 0 {
			n.sleep(n.cfg.SendDelay)
		}
		if err := n.post(ctx, n.cfg.URL, chunk); err != nil {
			n.log.Error("消息投递失败",
				zap.Error(err),
				zap.Int("chunk", i),
				zap.Int("length", len(chunk)),
			)
		}
	}
	n.log.Info("本轮消息已投递",
		zap.Int("messages", len(messages)),
		zap.Int("chunks", len(chunks)),
	)
}

// SendChat 投递聊天转发，优先走独立聊天出口
func (n *Notifier) SendChat(ctx context.Context, message string) {
	url := n.cfg.ChatURL
	if url == "" {
		url = n.cfg.URL
	}
	if err := n.post(ctx, url, message); err != nil {
		n.log.Error("聊天转发失败", zap.Error(err))
	}
}

// post 以JSON负载投递文本
func (n *Notifier) post(ctx context.Context, url, content string) error {
	if url == "" {
		return apperrors.New(apperrors.ErrConfigMissing, "webhook地址为空")
	}

	payload, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrWebhookSend)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrWebhookSend)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrWebhookSend)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.Newf(apperrors.ErrWebhookSend, "投递端返回 %d", resp.StatusCode)
	}
	return nil
}
