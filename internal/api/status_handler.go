package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wfunc/ap-itemlog/internal/repository"
	"github.com/wfunc/ap-itemlog/internal/world"
)

// StatusHandler 只读状态查询
type StatusHandler struct {
	world           *world.World
	classifications repository.ClassificationRepository
	locations       repository.LocationRepository
}

// NewStatusHandler 创建状态处理器
func NewStatusHandler(w *world.World, classifications repository.ClassificationRepository, locations repository.LocationRepository) *StatusHandler {
	return &StatusHandler{
		world:           w,
		classifications: classifications,
		locations:       locations,
	}
}

// GameStatus 会话全景快照
func (h *StatusHandler) GameStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.world.Snapshot(),
	})
}

// PlayerDetail 单个玩家的详细快照（含物品与提示清单）
func (h *StatusHandler) PlayerDetail(c *gin.Context) {
	name := c.Param("name")
	snapshot, ok := h.world.PlayerSnapshot(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "玩家不存在",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    snapshot,
	})
}

// CheckabilityTable 某游戏的地点可检查性表，用于运营核对
func (h *StatusHandler) CheckabilityTable(c *gin.Context) {
	game := c.Param("game")
	table, err := h.locations.MapByGame(c.Request.Context(), game)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"message": "可检查性表读取失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"game":      game,
			"locations": table,
		},
	})
}

// GameClassifications 某游戏的全部分级行
func (h *StatusHandler) GameClassifications(c *gin.Context) {
	game := c.Param("game")
	rows, err := h.classifications.ListByGame(c.Request.Context(), game)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"message": "分级表读取失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rows,
	})
}

// PendingClassifications 所有待人工定级的物品
func (h *StatusHandler) PendingClassifications(c *gin.Context) {
	rows, err := h.classifications.ListPending(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"message": "分级表读取失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rows,
	})
}
