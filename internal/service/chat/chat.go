// Package chat 实现统一聊天入口：解析请求、处理动作与上传、选择回答模式
package chat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ashwinyue/next-chat/internal/model"
	"github.com/ashwinyue/next-chat/internal/repository"
	"github.com/ashwinyue/next-chat/internal/service/document"
	"github.com/ashwinyue/next-chat/internal/service/llm"
	"github.com/ashwinyue/next-chat/internal/service/routing"
	einodoc "github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
)

const (
	// ConversationListLimit get_conversations 返回的最大数量
	ConversationListLimit = 50
	// TitleMaxRunes 由首条消息生成标题时的最大字符数
	TitleMaxRunes = 50
	// DefaultContextWindow 回答时读取的分块数
	DefaultContextWindow = 3
)

// Generator 按任务类别调用模型
type Generator interface {
	Generate(ctx context.Context, category routing.Category, messages []*schema.Message) (*llm.Reply, error)
}

// TextExtractor 从文件内容提取文本
type TextExtractor interface {
	Extract(ctx context.Context, kind model.FileKind, data []byte) (string, error)
}

// Options 聊天服务参数
type Options struct {
	// Splitter 文本分块器，为空时使用固定 500 字符窗口
	Splitter einodoc.Transformer
	// ContextWindow 回答时读取的分块数
	ContextWindow int
	// HistoryLimit get_history 返回最近的消息数，<= 0 表示全部
	HistoryLimit int
}

// Service 聊天服务
type Service struct {
	repo         *repository.Repositories
	ai           Generator
	extractor    TextExtractor
	splitter     einodoc.Transformer
	window       int
	historyLimit int
}

// NewService 创建聊天服务
func NewService(repo *repository.Repositories, ai Generator, extractor TextExtractor, opts Options) *Service {
	if opts.Splitter == nil {
		opts.Splitter = document.NewSplitter(document.DefaultChunkSize)
	}
	if opts.ContextWindow <= 0 {
		opts.ContextWindow = DefaultContextWindow
	}
	return &Service{
		repo:         repo,
		ai:           ai,
		extractor:    extractor,
		splitter:     opts.Splitter,
		window:       opts.ContextWindow,
		historyLimit: opts.HistoryLimit,
	}
}

// Handle 处理一次请求
// 输入错误不记录日志，提取错误与其余错误记录日志后原样返回
func (s *Service) Handle(ctx context.Context, req Request) (any, error) {
	resp, err := s.handle(ctx, req)
	if err == nil {
		return resp, nil
	}

	var (
		inputErr *InputError
		extErr   *document.ExtractionError
	)
	switch {
	case errors.As(err, &inputErr):
	case errors.As(err, &extErr):
		if extErr.Cause != nil {
			log.Printf("[Chat] Extraction failed (%s): %v: %v", extErr.Kind, err, extErr.Cause)
		} else {
			log.Printf("[Chat] Extraction failed (%s): %v", extErr.Kind, err)
		}
	default:
		log.Printf("[Chat] Error: %v", err)
	}
	return resp, err
}

func (s *Service) handle(ctx context.Context, req Request) (any, error) {
	conv, err := s.repo.Conversation.GetOrCreate(ctx, req.session())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve conversation: %w", err)
	}

	switch r := req.(type) {
	case *ActionRequest:
		return s.handleAction(ctx, conv, r.Action)
	case *UploadRequest:
		return s.upload(ctx, conv, r.File)
	case *MessageRequest:
		return s.answer(ctx, conv, r.Message)
	case *UploadAndMessageRequest:
		if _, err := s.upload(ctx, conv, r.File); err != nil {
			return nil, err
		}
		return s.answer(ctx, conv, r.Message)
	default:
		return nil, fmt.Errorf("unsupported request type %T", req)
	}
}

// DeleteConversation 删除会话及其全部数据
func (s *Service) DeleteConversation(ctx context.Context, sessionID string) (bool, error) {
	deleted, err := s.repo.Conversation.Delete(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to delete conversation: %w", err)
	}
	return deleted, nil
}

// ========== 动作 ==========

func (s *Service) handleAction(ctx context.Context, conv *model.Conversation, action Action) (any, error) {
	switch action {
	case ActionClearContext:
		return s.clearContext(ctx, conv)
	case ActionGetContext:
		return s.contextStatus(ctx, conv)
	case ActionGetHistory:
		return s.history(ctx, conv)
	case ActionGetConversations:
		return s.conversations(ctx)
	default:
		return nil, newInputError("Unknown action: %s", action)
	}
}

func (s *Service) clearContext(ctx context.Context, conv *model.Conversation) (*ContextClearedResponse, error) {
	if err := s.repo.Context.Clear(ctx, conv.ID); err != nil {
		return nil, fmt.Errorf("failed to clear context: %w", err)
	}
	return &ContextClearedResponse{
		Status:    StatusSuccess,
		Action:    "context_cleared",
		SessionID: conv.SessionID,
		Message:   "Context cleared successfully",
	}, nil
}

func (s *Service) contextStatus(ctx context.Context, conv *model.Conversation) (*ContextStatusResponse, error) {
	count, err := s.repo.Context.Count(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	files, err := s.repo.File.ListByConversation(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	if count == 0 && len(files) == 0 {
		return &ContextStatusResponse{Status: StatusEmpty, SessionID: conv.SessionID, HasContext: false}, nil
	}

	resp := &ContextStatusResponse{
		Status:      StatusActive,
		SessionID:   conv.SessionID,
		HasContext:  true,
		ChunksCount: &count,
	}
	if len(files) > 0 {
		resp.Files = make([]*ContextFile, len(files))
		for i, f := range files {
			resp.Files[i] = &ContextFile{Filename: f.FileName, Type: f.Kind, Size: f.FileSize}
		}
		resp.File = resp.Files[len(files)-1]
	}
	return resp, nil
}

func (s *Service) history(ctx context.Context, conv *model.Conversation) (*HistoryResponse, error) {
	var (
		msgs []*model.Message
		err  error
	)
	if s.historyLimit > 0 {
		msgs, err = s.repo.Message.ListRecent(ctx, conv.ID, s.historyLimit)
	} else {
		msgs, err = s.repo.Message.ListByConversation(ctx, conv.ID, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	items := make([]*HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, &HistoryMessage{
			Role:      m.Role,
			Content:   m.Content,
			Model:     m.ModelUsed,
			CreatedAt: formatTime(m.CreatedAt),
		})
	}
	return &HistoryResponse{Status: StatusSuccess, SessionID: conv.SessionID, Messages: items}, nil
}

func (s *Service) conversations(ctx context.Context) (*ConversationsResponse, error) {
	summaries, err := s.repo.Conversation.ListSummaries(ctx, ConversationListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	items := make([]*ConversationItem, 0, len(summaries))
	for _, sum := range summaries {
		items = append(items, &ConversationItem{
			SessionID:    sum.Conversation.SessionID,
			Title:        sum.Conversation.Title,
			CreatedAt:    formatTime(sum.Conversation.CreatedAt),
			MessageCount: sum.MessageCount,
		})
	}
	return &ConversationsResponse{Status: StatusSuccess, Conversations: items}, nil
}

// ========== 上传 ==========

func (s *Service) upload(ctx context.Context, conv *model.Conversation, up Upload) (*UploadResponse, error) {
	kind := document.Classify(up.Filename)
	size := int64(len(up.Data))
	log.Printf("[Chat] File: %s (type: %s, %d bytes)", up.Filename, kind, size)

	if kind == model.FileKindImage {
		encoded := base64.StdEncoding.EncodeToString(up.Data)
		mediaType := document.MediaType(up.Filename)
		file := &model.File{
			ConversationID: conv.ID,
			FileName:       up.Filename,
			Kind:           kind,
			FileSize:       size,
			IsImage:        true,
			ImageBase64:    &encoded,
			MediaType:      &mediaType,
		}
		if err := s.repo.File.Create(ctx, file); err != nil {
			return nil, fmt.Errorf("failed to save image: %w", err)
		}
		return &UploadResponse{
			Status:    StatusSuccess,
			SessionID: conv.SessionID,
			Message:   fmt.Sprintf("Image '%s' uploaded!", up.Filename),
			SizeBytes: size,
		}, nil
	}

	if !kind.HasText() {
		return nil, ErrUnsupportedFile
	}

	text, err := s.extractor.Extract(ctx, kind, up.Data)
	if err != nil {
		return nil, err
	}

	docs, err := s.splitter.Transform(ctx, []*schema.Document{{ID: up.Filename, Content: text}})
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}
	chunks, err := document.ChunkTexts(docs)
	if err != nil {
		return nil, err
	}
	count := len(chunks)
	file := &model.File{
		ConversationID: conv.ID,
		FileName:       up.Filename,
		Kind:           kind,
		FileSize:       size,
		TextContent:    &text,
		ChunksCount:    &count,
	}
	if err := s.repo.File.CreateWithChunks(ctx, file, chunks); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	return &UploadResponse{
		Status:      StatusSuccess,
		SessionID:   conv.SessionID,
		Message:     uploadMessage(kind, up.Filename),
		ChunksCount: count,
	}, nil
}

func uploadMessage(kind model.FileKind, filename string) string {
	switch kind {
	case model.FileKindPDF:
		return fmt.Sprintf("PDF '%s' uploaded!", filename)
	case model.FileKindWord:
		return fmt.Sprintf("Word document '%s' uploaded!", filename)
	default:
		return fmt.Sprintf("Text file '%s' uploaded!", filename)
	}
}

// ========== 回答 ==========

func (s *Service) answer(ctx context.Context, conv *model.Conversation, message string) (*AnswerResponse, error) {
	if err := s.appendMessage(ctx, conv, &model.Message{
		ConversationID: conv.ID,
		Role:           model.RoleUser,
		Content:        message,
	}); err != nil {
		return nil, err
	}

	latest, err := s.repo.File.GetLatest(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest file: %w", err)
	}
	chunks, err := s.repo.Context.List(ctx, conv.ID, s.window)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}

	var (
		mode     model.Mode
		category routing.Category
		messages []*schema.Message
		source   string
	)
	switch {
	case latest != nil && latest.IsImage:
		mode, category, source = model.ModeImageAnalysis, routing.CategoryVision, latest.FileName
		messages = visionMessages(message, latest.DataURL())
	case len(chunks) > 0:
		mode, category, source = model.ModeDocumentAnalysis, routing.CategoryDocument, "document"
		if latest != nil {
			source = latest.FileName
		}
		messages = documentMessages(message, chunkTexts(chunks))
	default:
		mode, category = model.ModeGeneralChat, routing.CategoryChat
		messages = chatMessages(message)
	}

	log.Printf("[Chat] session=%s mode=%s", conv.SessionID, mode)

	reply, err := s.ai.Generate(ctx, category, messages)
	if err != nil {
		return nil, err
	}

	modelUsed := reply.Model
	if err := s.appendMessage(ctx, conv, &model.Message{
		ConversationID: conv.ID,
		Role:           model.RoleAssistant,
		Content:        reply.Answer,
		ModelUsed:      &modelUsed,
		Mode:           &mode,
	}); err != nil {
		return nil, err
	}

	return &AnswerResponse{
		Answer:    reply.Answer,
		SessionID: conv.SessionID,
		Mode:      mode,
		ModelUsed: reply.Model,
		Source:    source,
	}, nil
}

// appendMessage 保存消息并刷新会话；默认标题的会话以首条用户消息命名
func (s *Service) appendMessage(ctx context.Context, conv *model.Conversation, msg *model.Message) error {
	if err := s.repo.Message.Create(ctx, msg); err != nil {
		return fmt.Errorf("failed to save %s message: %w", msg.Role, err)
	}

	title := ""
	if msg.Role == model.RoleUser && conv.Title == model.DefaultConversationTitle {
		title = titleFrom(msg.Content)
		conv.Title = title
	}
	if err := s.repo.Conversation.Touch(ctx, conv.ID, title); err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	return nil
}

func chunkTexts(chunks []*model.ContextChunk) []string {
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.ChunkText)
	}
	return texts
}

func titleFrom(message string) string {
	r := []rune(message)
	if len(r) > TitleMaxRunes {
		r = r[:TitleMaxRunes]
	}
	return string(r)
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
