package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"go.uber.org/zap"

	ws "github.com/wfunc/ap-itemlog/internal/websocket"
)

// WebSocketHandler 实时事件流接入
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader gorilla.Upgrader
	log      *zap.Logger
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(hub *ws.Hub, log *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: log,
	}
}

// Stream 升级连接并订阅出站通知流
func (h *WebSocketHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("WebSocket升级失败",
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	h.log.Info("事件流订阅建立",
		zap.String("client_id", client.ID),
		zap.String("ip", c.ClientIP()),
	)
}
