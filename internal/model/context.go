package model

import "time"

// ContextChunkIndexName (conversation_id, chunk_index) 唯一索引名
const ContextChunkIndexName = "idx_context_conv_chunk"

// ContextChunk 会话当前的上下文分块
// 每个会话同一时刻只有一代分块，ChunkIndex 从 0 连续编号
type ContextChunk struct {
	ID             uint      `gorm:"primaryKey"`
	ConversationID uint      `gorm:"uniqueIndex:idx_context_conv_chunk;not null"`
	ChunkIndex     int       `gorm:"uniqueIndex:idx_context_conv_chunk;not null"`
	ChunkText      string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

// TableName 指定表名
func (ContextChunk) TableName() string {
	return "contexts"
}
