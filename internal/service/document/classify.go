// Package document 提供文件分类、文本提取与固定窗口分块
package document

import (
	"path/filepath"
	"strings"

	"github.com/ashwinyue/next-chat/internal/model"
)

// DefaultMediaType 未识别扩展名的图片媒体类型
const DefaultMediaType = "image/jpeg"

var kindByExt = map[string]model.FileKind{
	"jpg":  model.FileKindImage,
	"jpeg": model.FileKindImage,
	"png":  model.FileKindImage,
	"webp": model.FileKindImage,
	"gif":  model.FileKindImage,
	"bmp":  model.FileKindImage,
	"pdf":  model.FileKindPDF,
	"doc":  model.FileKindWord,
	"docx": model.FileKindWord,
	"txt":  model.FileKindText,
	"md":   model.FileKindText,
	"csv":  model.FileKindText,
	"json": model.FileKindText,
	"xml":  model.FileKindText,
	"html": model.FileKindText,
	"css":  model.FileKindText,
	"js":   model.FileKindText,
	"py":   model.FileKindText,
	"java": model.FileKindText,
	"cpp":  model.FileKindText,
	"c":    model.FileKindText,
	"h":    model.FileKindText,
}

var mediaTypeByExt = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
}

// Classify 根据扩展名判断文件类型（不区分大小写）
func Classify(filename string) model.FileKind {
	if kind, ok := kindByExt[extension(filename)]; ok {
		return kind
	}
	return model.FileKindUnknown
}

// MediaType 返回图片的媒体类型
func MediaType(filename string) string {
	if mt, ok := mediaTypeByExt[extension(filename)]; ok {
		return mt
	}
	return DefaultMediaType
}

func extension(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}
