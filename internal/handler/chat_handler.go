package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ashwinyue/next-chat/internal/service"
	"github.com/ashwinyue/next-chat/internal/service/chat"
	"github.com/gin-gonic/gin"
)

const (
	// multipartOverhead 文件之外留给表单字段与分隔符的字节数
	multipartOverhead      = 1 << 20
	defaultMultipartMemory = 32 << 20
)

// chatService 聊天服务接口
type chatService interface {
	Handle(ctx context.Context, req chat.Request) (any, error)
	DeleteConversation(ctx context.Context, sessionID string) (bool, error)
}

// ChatHandler 聊天处理器
type ChatHandler struct {
	chat      chatService
	maxUpload int64
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(svc *service.Services) *ChatHandler {
	return &ChatHandler{
		chat:      svc.Chat,
		maxUpload: int64(svc.Config.Server.MaxUploadMB) << 20,
	}
}

// Handle 统一聊天入口
// POST /chat
// file、message 来自 multipart 表单；action、session_id 来自 query，也接受表单字段
func (h *ChatHandler) Handle(c *gin.Context) {
	in, err := h.bindInput(c)
	if err != nil {
		Error(c, err)
		return
	}

	req, err := chat.Resolve(in)
	if err != nil {
		Error(c, err)
		return
	}

	resp, err := h.chat.Handle(c.Request.Context(), req)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, resp)
}

// DeleteConversation 删除会话
// DELETE /chat/conversations/:session_id
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	sessionID := c.Param("session_id")

	deleted, err := h.chat.DeleteConversation(c.Request.Context(), sessionID)
	if err != nil {
		Error(c, err)
		return
	}
	if !deleted {
		NotFound(c, "Conversation not found")
		return
	}

	Success(c, gin.H{
		"status":     chat.StatusSuccess,
		"session_id": sessionID,
		"message":    "Conversation deleted",
	})
}

func (h *ChatHandler) bindInput(c *gin.Context) (chat.Input, error) {
	var in chat.Input

	// 请求体超过上限时在解析过程中即中止读取
	memory := int64(defaultMultipartMemory)
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)
		memory = h.maxUpload
	}
	if err := c.Request.ParseMultipartForm(memory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return in, h.tooLarge()
		}
		return in, &chat.InputError{Detail: fmt.Sprintf("Invalid upload: %v", err)}
	}

	in.SessionID = param(c, "session_id")
	in.Action = param(c, "action")
	in.Message = param(c, "message")

	fh, err := c.FormFile("file")
	switch {
	case err == nil:
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return in, nil
	default:
		return in, &chat.InputError{Detail: fmt.Sprintf("Invalid upload: %v", err)}
	}

	if h.maxUpload > 0 && fh.Size > h.maxUpload {
		return in, h.tooLarge()
	}

	f, err := fh.Open()
	if err != nil {
		return in, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return in, fmt.Errorf("failed to read upload: %w", err)
	}

	in.File = &chat.Upload{Filename: fh.Filename, Data: data}
	return in, nil
}

func (h *ChatHandler) tooLarge() error {
	return &chat.InputError{Detail: fmt.Sprintf("File too large: limit is %d MB", h.maxUpload>>20)}
}

// param 优先读取 query，其次读取表单
func param(c *gin.Context, key string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return c.PostForm(key)
}
