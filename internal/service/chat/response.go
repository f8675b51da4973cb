package chat

import "github.com/ashwinyue/next-chat/internal/model"

const (
	StatusSuccess = "success"
	StatusEmpty   = "empty"
	StatusActive  = "active"
)

// UploadResponse 上传确认
type UploadResponse struct {
	Status      string `json:"status"`
	SessionID   string `json:"session_id"`
	Message     string `json:"message"`
	ChunksCount int    `json:"chunks_count,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
}

// AnswerResponse 模型回答
type AnswerResponse struct {
	Answer    string     `json:"answer"`
	SessionID string     `json:"session_id"`
	Mode      model.Mode `json:"mode"`
	ModelUsed string     `json:"model_used"`
	Source    string     `json:"source,omitempty"`
}

// ContextClearedResponse clear_context 结果
type ContextClearedResponse struct {
	Status    string `json:"status"`
	Action    string `json:"action"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ContextFile 最近文件摘要
type ContextFile struct {
	Filename string         `json:"filename"`
	Type     model.FileKind `json:"type"`
	Size     int64          `json:"size"`
}

// ContextStatusResponse get_context 结果
type ContextStatusResponse struct {
	Status      string       `json:"status"`
	SessionID   string       `json:"session_id"`
	HasContext  bool         `json:"has_context"`
	ChunksCount *int64       `json:"chunks_count,omitempty"`
	File        *ContextFile `json:"file,omitempty"`
	// Files 按上传顺序列出全部文件，最后一个即 File
	Files []*ContextFile `json:"files,omitempty"`
}

// HistoryMessage 历史消息
type HistoryMessage struct {
	Role      model.MessageRole `json:"role"`
	Content   string            `json:"content"`
	Model     *string           `json:"model"`
	CreatedAt string            `json:"created_at"`
}

// HistoryResponse get_history 结果
type HistoryResponse struct {
	Status    string            `json:"status"`
	SessionID string            `json:"session_id"`
	Messages  []*HistoryMessage `json:"messages"`
}

// ConversationItem 会话摘要
type ConversationItem struct {
	SessionID    string `json:"session_id"`
	Title        string `json:"title"`
	CreatedAt    string `json:"created_at"`
	MessageCount int64  `json:"message_count"`
}

// ConversationsResponse get_conversations 结果
type ConversationsResponse struct {
	Status        string              `json:"status"`
	Conversations []*ConversationItem `json:"conversations"`
}
