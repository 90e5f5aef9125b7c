package model

import (
	"time"
)

// MediaUpload 上传台账，记录每个写入键值存储的媒体记录.
// 仅供运维检索，HTTP 读路径不依赖它.
type MediaUpload struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// Key 媒体记录的上传键，全局唯一
	Key             string `gorm:"column:media_key;size:255;uniqueIndex" json:"key"`
	FileID          string `gorm:"size:255"             json:"file_id"`
	FileName        string `gorm:"size:512;index"       json:"file_name"`
	MimeType        string `gorm:"size:255;index"       json:"mime_type"`
	Kind            string `gorm:"size:32;index"        json:"kind"`
	FileSize        int64  `gorm:"index"                json:"file_size"`
	ThumbnailFileID string `gorm:"size:255"             json:"thumbnail_file_id"`
	// Source upload 或 reconcile
	Source string `gorm:"size:32" json:"source"`
	// UploadedAt 由上传键中的毫秒时间戳推出
	UploadedAt time.Time `gorm:"index" json:"uploaded_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName 指定表名.
func (MediaUpload) TableName() string {
	return "media_uploads"
}
