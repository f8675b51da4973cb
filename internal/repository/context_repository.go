package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashwinyue/next-chat/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const chunkBatchSize = 100

type contextRepositoryImpl struct {
	db *gorm.DB
}

// NewContextRepository 创建上下文分块仓库
func NewContextRepository(db *gorm.DB) ContextRepository {
	return &contextRepositoryImpl{db: db}
}

// Replace 替换会话的上下文分块
// 先锁定会话行，同一会话的并发替换依次执行，最后提交者生效
func (r *contextRepositoryImpl) Replace(ctx context.Context, conversationID uint, chunks []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockConversation(tx, conversationID); err != nil {
			return err
		}

		if err := tx.Delete(&model.ContextChunk{}, "conversation_id = ?", conversationID).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}

		rows := make([]*model.ContextChunk, len(chunks))
		for i, text := range chunks {
			rows[i] = &model.ContextChunk{
				ConversationID: conversationID,
				ChunkIndex:     i,
				ChunkText:      text,
			}
		}
		return tx.CreateInBatches(rows, chunkBatchSize).Error
	})
}

// List 获取会话的上下文分块
func (r *contextRepositoryImpl) List(ctx context.Context, conversationID uint, limit int) ([]*model.ContextChunk, error) {
	var chunks []*model.ContextChunk
	query := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("chunk_index ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&chunks).Error
	return chunks, err
}

// Count 统计会话的分块数
func (r *contextRepositoryImpl) Count(ctx context.Context, conversationID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ContextChunk{}).
		Where("conversation_id = ?", conversationID).
		Count(&count).Error
	return count, err
}

// Clear 清空会话的分块
func (r *contextRepositoryImpl) Clear(ctx context.Context, conversationID uint) error {
	return r.db.WithContext(ctx).Delete(&model.ContextChunk{}, "conversation_id = ?", conversationID).Error
}

// lockConversation 在当前事务内对会话行加锁
// NO KEY UPDATE 与插入子表时外键检查持有的 KEY SHARE 锁兼容
func lockConversation(tx *gorm.DB, conversationID uint) error {
	var conv model.Conversation
	err := tx.Clauses(clause.Locking{Strength: "NO KEY UPDATE"}).
		Select("id").
		First(&conv, conversationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock conversation: %w", err)
	}
	return nil
}
