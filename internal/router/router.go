package router

import (
	"github.com/ashwinyue/next-chat/internal/handler"
	"github.com/ashwinyue/next-chat/internal/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())

	// 系统
	r.GET("/", h.System.Root)
	r.GET("/health", h.System.Health)

	// Chat 统一入口
	chats := r.Group("/chat")
	{
		chats.POST("", h.Chat.Handle)
		chats.POST("/", h.Chat.Handle)
		chats.DELETE("/conversations/:session_id", h.Chat.DeleteConversation)
	}

	return r
}
