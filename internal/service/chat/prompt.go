package chat

import (
	"strings"

	"github.com/cloudwego/eino/schema"
)

const (
	documentSystemPrompt = "Answer based on document context. Be accurate."
	chatSystemPrompt     = "You are a helpful AI assistant."
	chunkSeparator       = "\n\n"
)

// visionMessages 文本问题与图片组成的单条用户消息
func visionMessages(question, imageURL string) []*schema.Message {
	return []*schema.Message{{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeText, Text: question},
			{Type: schema.ChatMessagePartTypeImageURL, ImageURL: &schema.ChatMessageImageURL{URL: imageURL}},
		},
	}}
}

// documentMessages 以分块内容作为上下文回答问题
func documentMessages(question string, chunks []string) []*schema.Message {
	var sb strings.Builder
	sb.WriteString("Document Context:\n")
	sb.WriteString(strings.Join(chunks, chunkSeparator))
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(question)

	return []*schema.Message{
		schema.SystemMessage(documentSystemPrompt),
		schema.UserMessage(sb.String()),
	}
}

func chatMessages(question string) []*schema.Message {
	return []*schema.Message{
		schema.SystemMessage(chatSystemPrompt),
		schema.UserMessage(question),
	}
}
