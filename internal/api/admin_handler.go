package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wfunc/ap-itemlog/internal/classify"
	"github.com/wfunc/ap-itemlog/internal/models"
	"github.com/wfunc/ap-itemlog/internal/repository"
)

// AdminHandler 管理端覆盖操作
type AdminHandler struct {
	resolver        *classify.Resolver
	classifications repository.ClassificationRepository
	locations       repository.LocationRepository
}

// NewAdminHandler 创建管理处理器
func NewAdminHandler(resolver *classify.Resolver, classifications repository.ClassificationRepository, locations repository.LocationRepository) *AdminHandler {
	return &AdminHandler{
		resolver:        resolver,
		classifications: classifications,
		locations:       locations,
	}
}

// overrideClassificationRequest 分级覆盖请求
// Game/Item 支持SQL LIKE通配符（% 与 _），Classification为null时清回待定
type overrideClassificationRequest struct {
	Game           string  `json:"game" binding:"required"`
	Item           string  `json:"item" binding:"required"`
	Classification *string `json:"classification"`
}

// OverrideClassification 批量覆盖物品分级
func (h *AdminHandler) OverrideClassification(c *gin.Context) {
	var req overrideClassificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "请求格式错误",
			"details": err.Error(),
		})
		return
	}

	if req.Classification != nil && !models.IsValidClassification(*req.Classification) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "分级取值不合法",
			"valid":   models.ValidClassifications,
		})
		return
	}

	affected, err := h.classifications.Override(c.Request.Context(), req.Game, req.Item, req.Classification)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"message": "分级覆盖失败",
		})
		return
	}

	// 通配符可能波及任意数量的缓存项，整体失效
	h.resolver.InvalidateAll()

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"affected": affected,
	})
}

// overrideCheckabilityRequest 可检查性覆盖请求
// 管理端可以降级，与游玩观察的只升不降不同
type overrideCheckabilityRequest struct {
	Game      string `json:"game" binding:"required"`
	Location  string `json:"location" binding:"required"`
	Checkable *bool  `json:"checkable" binding:"required"`
}

// OverrideCheckability 批量覆盖地点可检查性
func (h *AdminHandler) OverrideCheckability(c *gin.Context) {
	var req overrideCheckabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "请求格式错误",
			"details": err.Error(),
		})
		return
	}

	affected, err := h.locations.Override(c.Request.Context(), req.Game, req.Location, *req.Checkable)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"message": "可检查性覆盖失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"affected": affected,
	})
}
