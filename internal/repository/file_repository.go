package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashwinyue/next-chat/internal/model"
	"gorm.io/gorm"
)

type fileRepositoryImpl struct {
	db *gorm.DB
}

// NewFileRepository 创建文件仓库
func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepositoryImpl{db: db}
}

// Create 创建文件记录
func (r *fileRepositoryImpl) Create(ctx context.Context, file *model.File) error {
	return r.db.WithContext(ctx).Create(file).Error
}

// CreateWithChunks 创建文件记录并替换上下文分块
func (r *fileRepositoryImpl) CreateWithChunks(ctx context.Context, file *model.File, chunks []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockConversation(tx, file.ConversationID); err != nil {
			return err
		}
		if err := tx.Create(file).Error; err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		if err := NewContextRepository(tx).Replace(ctx, file.ConversationID, chunks); err != nil {
			return fmt.Errorf("failed to save chunks: %w", err)
		}
		return nil
	})
}

// GetLatest 获取会话最近上传的文件
func (r *fileRepositoryImpl) GetLatest(ctx context.Context, conversationID uint) (*model.File, error) {
	var file model.File
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Order("id DESC").
		First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// ListByConversation 按上传顺序列出会话的文件元数据，不加载文本与图片内容
func (r *fileRepositoryImpl) ListByConversation(ctx context.Context, conversationID uint) ([]*model.File, error) {
	var files []*model.File
	err := r.db.WithContext(ctx).
		Omit("text_content", "image_base64").
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&files).Error
	return files, err
}
