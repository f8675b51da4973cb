package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/ashwinyue/next-chat/internal/model"
	"github.com/cloudwego/eino-ext/components/document/parser/docx"
	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoparser "github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
)

var (
	ErrNoPages           = errors.New("document has no pages")
	ErrNoText            = errors.New("no text could be extracted")
	ErrUnreadable        = errors.New("document is unreadable")
	ErrMissingDependency = errors.New("extraction dependency is unavailable")
	ErrUnsupported       = errors.New("unsupported file type")
)

// ExtractionError 文本提取失败，Detail 面向调用方
type ExtractionError struct {
	Kind   model.FileKind
	Detail string
	Err    error
	Cause  error
}

func (e *ExtractionError) Error() string {
	return e.Detail
}

func (e *ExtractionError) Unwrap() []error {
	errs := []error{e.Err}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Extractor 按文件类型提取纯文本
type Extractor struct {
	pdf  einoparser.Parser
	word einoparser.Parser
	text einoparser.Parser
}

// NewExtractor 创建提取器
// Word 解析器创建失败时仅记录警告，此后 Word 文件返回 ErrMissingDependency
func NewExtractor(ctx context.Context) (*Extractor, error) {
	pdfParser, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: true})
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf parser: %w", err)
	}

	e := &Extractor{pdf: pdfParser, text: &einoparser.TextParser{}}

	wordParser, err := docx.NewDocxParser(ctx, &docx.Config{
		ToSections:      false,
		IncludeComments: false,
		IncludeHeaders:  true,
		IncludeFooters:  false,
		IncludeTables:   true,
	})
	if err != nil {
		log.Printf("Warning: failed to create docx parser: %v", err)
		return e, nil
	}
	e.word = wordParser

	return e, nil
}

// Extract 提取文件文本，空白结果视为失败
func (e *Extractor) Extract(ctx context.Context, kind model.FileKind, data []byte) (string, error) {
	switch kind {
	case model.FileKindPDF:
		return e.extractPDF(ctx, data)
	case model.FileKindWord:
		return e.extractWord(ctx, data)
	case model.FileKindText:
		return e.extractText(ctx, data)
	default:
		return "", &ExtractionError{Kind: kind, Detail: "Unsupported file type", Err: ErrUnsupported}
	}
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte) (string, error) {
	docs, err := e.pdf.Parse(ctx, bytes.NewReader(data))
	if err != nil {
		return "", &ExtractionError{
			Kind:   model.FileKindPDF,
			Detail: fmt.Sprintf("PDF read error: %v. The file may be corrupted or password-protected", err),
			Err:    ErrUnreadable,
			Cause:  err,
		}
	}
	if len(docs) == 0 {
		return "", &ExtractionError{Kind: model.FileKindPDF, Detail: "PDF has no pages", Err: ErrNoPages}
	}

	var sb strings.Builder
	for _, page := range docs {
		if page == nil || page.Content == "" {
			continue
		}
		sb.WriteString(page.Content)
		sb.WriteString("\n")
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", &ExtractionError{Kind: model.FileKindPDF, Detail: "No text could be extracted from PDF", Err: ErrNoText}
	}
	return text, nil
}

func (e *Extractor) extractWord(ctx context.Context, data []byte) (string, error) {
	if e.word == nil {
		return "", &ExtractionError{
			Kind:   model.FileKindWord,
			Detail: "Word document support is not available",
			Err:    ErrMissingDependency,
		}
	}

	docs, err := e.word.Parse(ctx, bytes.NewReader(data))
	if err != nil {
		return "", &ExtractionError{
			Kind:   model.FileKindWord,
			Detail: fmt.Sprintf("Word read error: %v", err),
			Err:    ErrUnreadable,
			Cause:  err,
		}
	}

	text := joinContent(docs, "\n")
	if strings.TrimSpace(text) == "" {
		return "", &ExtractionError{Kind: model.FileKindWord, Detail: "No text found in Word document", Err: ErrNoText}
	}
	return text, nil
}

func (e *Extractor) extractText(ctx context.Context, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", &ExtractionError{Kind: model.FileKindText, Detail: "Text file is not valid UTF-8", Err: ErrUnreadable}
	}

	docs, err := e.text.Parse(ctx, bytes.NewReader(data))
	if err != nil {
		return "", &ExtractionError{
			Kind:   model.FileKindText,
			Detail: fmt.Sprintf("Text read error: %v", err),
			Err:    ErrUnreadable,
			Cause:  err,
		}
	}

	text := joinContent(docs, "")
	if strings.TrimSpace(text) == "" {
		return "", &ExtractionError{Kind: model.FileKindText, Detail: "No text found in text file", Err: ErrNoText}
	}
	return text, nil
}

func joinContent(docs []*schema.Document, sep string) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if d != nil {
			parts = append(parts, d.Content)
		}
	}
	return strings.Join(parts, sep)
}
