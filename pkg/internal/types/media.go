package types

import "mime/multipart"

// MediaRecord 保存在 KV 中的媒体记录，键为 UploadKey.
// 缩略图相关字段只在上游返回缩略图时出现.
type MediaRecord struct {
	Key             string `json:"key"`
	FileID          string `json:"fileId"`
	FileName        string `json:"fileName"`
	MimeType        string `json:"mimeType"`
	Kind            string `json:"kind"`
	FileSize        int64  `json:"fileSize,omitempty"`
	URL             string `json:"url"`
	ThumbnailFileID string `json:"thumbnailFileId,omitempty"`
	ThumbnailKey    string `json:"thumbnailKey,omitempty"`
	ThumbnailURL    string `json:"thumbnailUrl,omitempty"`
	MessageID       int64  `json:"message_id,omitempty"`
	Date            int64  `json:"date,omitempty"`
}

// HasThumbnail 是否带缩略图句柄.
func (r *MediaRecord) HasThumbnail() bool {
	return r.ThumbnailFileID != ""
}

// UploadFileForm POST /api/upload-file 的表单.
type UploadFileForm struct {
	File *multipart.FileHeader `form:"file" rule:"required"`
}

// SuccessResponse 成功响应的统一包装.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

// ErrorResponse 失败响应的统一包装，Error 为上游原始错误负载或错误描述.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   any    `json:"error,omitempty"`
}

// HealthResponse 组件健康状态.
type HealthResponse struct {
	Component string `json:"component"`
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
}

// MediaLedgerEntry 台账列表项.
type MediaLedgerEntry struct {
	Key          string `json:"key"`
	Kind         string `json:"kind"`
	FileName     string `json:"fileName"`
	MimeType     string `json:"mimeType"`
	FileSize     int64  `json:"fileSize,omitempty"`
	HasThumbnail bool   `json:"hasThumbnail"`
	StoredAt     int64  `json:"storedAt"`
}
