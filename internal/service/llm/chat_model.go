// Package llm 提供模型客户端与主备模型调用
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ashwinyue/next-chat/internal/config"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// NewChatModel 创建 OpenAI 兼容的 ChatModel（默认指向 Groq）
// defaultModel 仅在调用未指定模型时生效
func NewChatModel(ctx context.Context, cfg *config.AIConfig, defaultModel string) (model.BaseChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api_key is required: %w", ErrNotConfigured)
	}

	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   defaultModel,
		Timeout: time.Duration(cfg.Timeout) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return cm, nil
}
