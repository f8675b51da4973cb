package model

import (
	"time"
)

// FileKind 文件类别
type FileKind string

const (
	FileKindImage   FileKind = "image"
	FileKindPDF     FileKind = "pdf"
	FileKindWord    FileKind = "word"
	FileKindText    FileKind = "text"
	FileKindUnknown FileKind = "unknown"
)

// HasText 是否为需要抽取文本的类别
func (k FileKind) HasText() bool {
	return k == FileKindPDF || k == FileKindWord || k == FileKindText
}

// File 会话中上传的文件
type File struct {
	ID             uint     `gorm:"primaryKey"`
	ConversationID uint     `gorm:"index;not null"`
	FileName       string   `gorm:"size:500;not null"`
	Kind           FileKind `gorm:"column:file_type;size:20;not null"`
	FileSize       int64    `gorm:"default:0"`
	TextContent    *string  `gorm:"type:text"`
	ChunksCount    *int
	IsImage        bool      `gorm:"default:false"`
	ImageBase64    *string   `gorm:"type:text"`
	MediaType      *string   `gorm:"size:100"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index"`
}

// DataURL 图片的 data URL，非图片返回空串
func (f *File) DataURL() string {
	if !f.IsImage || f.ImageBase64 == nil || f.MediaType == nil {
		return ""
	}
	return "data:" + *f.MediaType + ";base64," + *f.ImageBase64
}

// TableName 指定表名
func (File) TableName() string {
	return "files"
}
