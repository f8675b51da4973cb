package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/ashwinyue/next-chat/internal/service"
	"github.com/gin-gonic/gin"
)

// SystemHandler 系统处理器
type SystemHandler struct {
	name    string
	version string
	db      service.Pinger
}

// NewSystemHandler 创建系统处理器
func NewSystemHandler(svc *service.Services) *SystemHandler {
	return &SystemHandler{
		name:    svc.Config.App.Name,
		version: svc.Config.App.Version,
		db:      svc.DB,
	}
}

// Root 服务信息
// GET /
func (h *SystemHandler) Root(c *gin.Context) {
	Success(c, gin.H{
		"message":  "AI Chatbot API with Database",
		"name":     h.name,
		"version":  h.version,
		"database": "PostgreSQL",
		"features": []string{
			"Conversation tracking",
			"Message history",
			"File storage",
			"Multi-model AI",
		},
	})
}

// Health 健康检查（含数据库连接）
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "disconnected", "detail": err.Error()})
		return
	}

	Success(c, gin.H{"status": "ok", "database": "connected"})
}
