package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggingMiddleware 日志中间件
// 记录会话与动作参数，以及处理器通过 c.Error 附加的错误
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		session := c.Query("session_id")
		action := c.Query("action")

		c.Next()

		line := "[%s] %s | Status: %d | Latency: %v"
		args := []any{c.Request.Method, path, c.Writer.Status(), time.Since(start)}
		if session != "" {
			line += " | Session: %s"
			args = append(args, session)
		}
		if action != "" {
			line += " | Action: %s"
			args = append(args, action)
		}
		if len(c.Errors) > 0 {
			line += " | Errors: %s"
			args = append(args, c.Errors.String())
		}
		log.Printf(line, args...)
	}
}
