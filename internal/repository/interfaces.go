// Package repository 定义数据访问接口
// 接口抽象使依赖注入和单元测试成为可能
package repository

import (
	"context"
	"errors"

	"github.com/ashwinyue/next-chat/internal/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// ConversationRepository 会话数据访问接口
type ConversationRepository interface {
	Create(ctx context.Context, title string) (*model.Conversation, error)
	GetBySessionID(ctx context.Context, sessionID string) (*model.Conversation, error)
	// GetOrCreate 会话存在则返回，否则用新生成的 SessionID 创建
	GetOrCreate(ctx context.Context, sessionID string) (*model.Conversation, error)
	ListSummaries(ctx context.Context, limit int) ([]*model.ConversationSummary, error)
	// Touch 刷新 updated_at，title 非空时同时更新标题
	Touch(ctx context.Context, id uint, title string) error
	Delete(ctx context.Context, sessionID string) (bool, error)
}

// MessageRepository 消息数据访问接口（只追加）
type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	// ListByConversation 按创建时间升序，limit <= 0 表示全部
	ListByConversation(ctx context.Context, conversationID uint, limit int) ([]*model.Message, error)
	// ListRecent 最近 limit 条消息，按时间升序返回
	ListRecent(ctx context.Context, conversationID uint, limit int) ([]*model.Message, error)
}

// FileRepository 文件数据访问接口
type FileRepository interface {
	Create(ctx context.Context, file *model.File) error
	// CreateWithChunks 在同一事务内保存文件记录并替换会话的上下文分块
	CreateWithChunks(ctx context.Context, file *model.File, chunks []string) error
	// GetLatest 最近上传的文件，没有文件时返回 nil, nil
	GetLatest(ctx context.Context, conversationID uint) (*model.File, error)
	// ListByConversation 按上传顺序返回文件元数据（不含 TextContent、ImageBase64）
	ListByConversation(ctx context.Context, conversationID uint) ([]*model.File, error)
}

// ContextRepository 上下文分块数据访问接口
type ContextRepository interface {
	// Replace 删除会话的全部分块并写入新的一代
	Replace(ctx context.Context, conversationID uint, chunks []string) error
	// List 按 ChunkIndex 升序，limit <= 0 表示全部
	List(ctx context.Context, conversationID uint, limit int) ([]*model.ContextChunk, error)
	Count(ctx context.Context, conversationID uint) (int64, error)
	Clear(ctx context.Context, conversationID uint) error
}

// 确保实现了接口
var (
	_ ConversationRepository = (*conversationRepositoryImpl)(nil)
	_ MessageRepository      = (*messageRepositoryImpl)(nil)
	_ FileRepository         = (*fileRepositoryImpl)(nil)
	_ ContextRepository      = (*contextRepositoryImpl)(nil)
)
