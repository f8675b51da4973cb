package model

import "time"

// DefaultConversationTitle 新会话的默认标题
const DefaultConversationTitle = "New Conversation"

// MessageRole 消息角色
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Mode 回答模式
type Mode string

const (
	ModeGeneralChat      Mode = "general_chat"
	ModeDocumentAnalysis Mode = "document_analysis"
	ModeImageAnalysis    Mode = "image_analysis"
)

// Conversation 会话，由 SessionID 标识
type Conversation struct {
	ID        uint           `gorm:"primaryKey"`
	SessionID string         `gorm:"size:255;uniqueIndex;not null"`
	Title     string         `gorm:"size:500"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime;index"`
	Messages  []Message      `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
	Files     []File         `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
	Chunks    []ContextChunk `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

// Message 聊天消息，创建后不再修改
type Message struct {
	ID             uint        `gorm:"primaryKey"`
	ConversationID uint        `gorm:"index;not null"`
	Role           MessageRole `gorm:"size:20;not null"`
	Content        string      `gorm:"type:text;not null"`
	ModelUsed      *string     `gorm:"size:255"`
	Mode           *Mode       `gorm:"size:100"`
	CreatedAt      time.Time   `gorm:"autoCreateTime;index"`
}

// ConversationSummary 会话列表项
type ConversationSummary struct {
	Conversation *Conversation
	MessageCount int64
}

// TableName 指定表名
func (Conversation) TableName() string {
	return "conversations"
}

func (Message) TableName() string {
	return "messages"
}
