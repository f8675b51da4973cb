package document

import (
	"context"
	"fmt"

	einodoc "github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
)

// DefaultChunkSize 默认分块长度（字符数）
const DefaultChunkSize = 500

// MetaChunkIndex 分块序号的元数据键
const MetaChunkIndex = "chunk_index"

// SplitText 按固定窗口切分文本
// 除最后一块外每块恰好 size 个字符，拼接后还原原文
func SplitText(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// Splitter 固定窗口分块器，实现 eino document.Transformer
type Splitter struct {
	size int
}

var _ einodoc.Transformer = (*Splitter)(nil)

// NewSplitter 创建分块器
func NewSplitter(size int) *Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &Splitter{size: size}
}

// Split 切分单段文本
func (s *Splitter) Split(text string) []string {
	return SplitText(text, s.size)
}

// Transform 将每个文档切分为固定长度的子文档
func (s *Splitter) Transform(_ context.Context, src []*schema.Document, _ ...einodoc.TransformerOption) ([]*schema.Document, error) {
	out := make([]*schema.Document, 0, len(src))
	for _, doc := range src {
		if doc == nil {
			continue
		}
		for i, part := range s.Split(doc.Content) {
			meta := make(map[string]any, len(doc.MetaData)+1)
			for k, v := range doc.MetaData {
				meta[k] = v
			}
			meta[MetaChunkIndex] = i

			out = append(out, &schema.Document{
				ID:       fmt.Sprintf("%s_%d", doc.ID, i),
				Content:  part,
				MetaData: meta,
			})
		}
	}
	return out, nil
}

// ChunkTexts 按 MetaChunkIndex 还原分块文本顺序
func ChunkTexts(docs []*schema.Document) ([]string, error) {
	texts := make([]string, len(docs))
	seen := make([]bool, len(docs))
	for _, doc := range docs {
		idx, ok := doc.MetaData[MetaChunkIndex].(int)
		if !ok || idx < 0 || idx >= len(docs) || seen[idx] {
			return nil, fmt.Errorf("invalid chunk index %v in document %q", doc.MetaData[MetaChunkIndex], doc.ID)
		}
		texts[idx] = doc.Content
		seen[idx] = true
	}
	return texts, nil
}
