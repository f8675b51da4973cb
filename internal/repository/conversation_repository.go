package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashwinyue/next-chat/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type conversationRepositoryImpl struct {
	db *gorm.DB
}

// NewConversationRepository 创建会话仓库
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepositoryImpl{db: db}
}

// Create 创建会话，SessionID 总是新生成
func (r *conversationRepositoryImpl) Create(ctx context.Context, title string) (*model.Conversation, error) {
	if title == "" {
		title = model.DefaultConversationTitle
	}
	conv := &model.Conversation{
		SessionID: uuid.New().String(),
		Title:     title,
	}
	if err := r.db.WithContext(ctx).Create(conv).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// GetBySessionID 根据 SessionID 获取会话
func (r *conversationRepositoryImpl) GetBySessionID(ctx context.Context, sessionID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetOrCreate 获取或创建会话
func (r *conversationRepositoryImpl) GetOrCreate(ctx context.Context, sessionID string) (*model.Conversation, error) {
	if sessionID != "" {
		conv, err := r.GetBySessionID(ctx, sessionID)
		if err == nil {
			return conv, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("failed to get conversation: %w", err)
		}
	}
	return r.Create(ctx, "")
}

// ListSummaries 按最近活动倒序列出会话及消息数
func (r *conversationRepositoryImpl) ListSummaries(ctx context.Context, limit int) ([]*model.ConversationSummary, error) {
	var convs []*model.Conversation
	query := r.db.WithContext(ctx).Order("updated_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&convs).Error; err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	if len(convs) == 0 {
		return []*model.ConversationSummary{}, nil
	}

	ids := make([]uint, len(convs))
	for i, c := range convs {
		ids[i] = c.ID
	}

	var rows []struct {
		ConversationID uint
		Count          int64
	}
	err := r.db.WithContext(ctx).Model(&model.Message{}).
		Select("conversation_id, COUNT(*) AS count").
		Where("conversation_id IN ?", ids).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.ConversationID] = row.Count
	}

	summaries := make([]*model.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		summaries = append(summaries, &model.ConversationSummary{
			Conversation: c,
			MessageCount: counts[c.ID],
		})
	}
	return summaries, nil
}

// Touch 更新会话活动时间
func (r *conversationRepositoryImpl) Touch(ctx context.Context, id uint, title string) error {
	updates := map[string]interface{}{
		"updated_at": r.db.NowFunc(),
	}
	if title != "" {
		updates["title"] = title
	}
	return r.db.WithContext(ctx).Model(&model.Conversation{}).Where("id = ?", id).Updates(updates).Error
}

// Delete 删除会话及其消息、文件、分块
func (r *conversationRepositoryImpl) Delete(ctx context.Context, sessionID string) (bool, error) {
	conv, err := r.GetBySessionID(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.ContextChunk{}, "conversation_id = ?", conv.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.File{}, "conversation_id = ?", conv.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Message{}, "conversation_id = ?", conv.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Conversation{}, "id = ?", conv.ID).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete conversation: %w", err)
	}
	return true, nil
}
