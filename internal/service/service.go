package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ashwinyue/next-chat/internal/config"
	"github.com/ashwinyue/next-chat/internal/repository"
	"github.com/ashwinyue/next-chat/internal/service/callback"
	"github.com/ashwinyue/next-chat/internal/service/chat"
	"github.com/ashwinyue/next-chat/internal/service/document"
	"github.com/ashwinyue/next-chat/internal/service/llm"
	"github.com/ashwinyue/next-chat/internal/service/routing"
	"github.com/cloudwego/eino/components/model"
)

// Pinger 数据库健康检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services 服务集合
type Services struct {
	Chat *chat.Service

	Config *config.Config
	DB     Pinger

	// Eino 组件
	ChatModel model.BaseChatModel
	Invoker   *llm.Invoker
	Routes    *routing.Table
}

// NewServices 创建所有服务，依赖全部显式注入
// ChatModel 创建失败时仅记录警告，此时回答请求返回 llm.ErrNotConfigured
func NewServices(ctx context.Context, repos *repository.Repositories, db Pinger, cfg *config.Config) (*Services, error) {
	routes := routing.NewTable(&cfg.Routing)

	chatModel, err := llm.NewChatModel(ctx, &cfg.AI, cfg.Routing.Chat.Model)
	if err != nil {
		log.Printf("Warning: %v", err)
	}

	invoker := llm.NewInvoker(chatModel, routes,
		time.Duration(cfg.AI.Timeout)*time.Second,
		callback.NewLogger(cfg.App.Debug),
	)

	extractor, err := document.NewExtractor(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	chatSvc := chat.NewService(repos, invoker, extractor, chat.Options{
		Splitter:      document.NewSplitter(cfg.Chunk.Size),
		ContextWindow: cfg.Chunk.ContextWindow,
		HistoryLimit:  cfg.Chat.HistoryLimit,
	})

	return &Services{
		Chat:      chatSvc,
		Config:    cfg,
		DB:        db,
		ChatModel: chatModel,
		Invoker:   invoker,
		Routes:    routes,
	}, nil
}
