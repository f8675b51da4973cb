package handler

import (
	"errors"
	"net/http"

	"github.com/ashwinyue/next-chat/internal/service/chat"
	"github.com/ashwinyue/next-chat/internal/service/document"
	"github.com/ashwinyue/next-chat/internal/service/llm"
	"github.com/gin-gonic/gin"
)

// ErrorResponse 错误响应
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Success 成功响应 (200)，直接返回数据
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// BadRequest 400 错误响应
func BadRequest(c *gin.Context, detail string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Detail: detail})
}

// NotFound 404 错误响应
func NotFound(c *gin.Context, detail string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Detail: detail})
}

// InternalServerError 500 错误响应
func InternalServerError(c *gin.Context, detail string) {
	c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: detail})
}

// Error 根据错误类型返回相应的错误响应
func Error(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	var (
		inputErr    *chat.InputError
		extErr      *document.ExtractionError
		providerErr *llm.ProviderError
	)
	switch {
	case errors.As(err, &inputErr):
		BadRequest(c, inputErr.Detail)
	case errors.As(err, &extErr):
		BadRequest(c, extErr.Error())
	case errors.As(err, &providerErr):
		InternalServerError(c, providerErr.Error())
	case errors.Is(err, llm.ErrNotConfigured):
		InternalServerError(c, err.Error())
	default:
		InternalServerError(c, "Error: "+err.Error())
	}
}
