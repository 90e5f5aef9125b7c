package queue

import "time"

// EventHeader 事件头.
type EventHeader struct {
	// Topic 冗余记录主题，便于离线转储后定位来源.
	Topic string `json:"topic"`
	// TraceID 追踪 ID，来自请求的 span.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件时间（UTC）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 负载版本.
	Version string `json:"version,omitempty"`
}

// Message 事件信封.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// MediaRef 事件中携带的媒体记录快照.
type MediaRef struct {
	Key             string `json:"key"`
	FileID          string `json:"fileId"`
	FileName        string `json:"fileName"`
	MimeType        string `json:"mimeType"`
	Kind            string `json:"kind"`
	FileSize        int64  `json:"fileSize,omitempty"`
	URL             string `json:"url"`
	ThumbnailFileID string `json:"thumbnailFileId,omitempty"`
	ThumbnailKey    string `json:"thumbnailKey,omitempty"`
}

// MediaStoredPayload moments.media.stored 的负载.
type MediaStoredPayload struct {
	Media MediaRef `json:"media"`
	// Source 产生来源：upload（HTTP 上传）或 reconcile（对账补录）.
	Source string `json:"source"`
}

// 媒体事件来源.
const (
	SourceUpload    = "upload"
	SourceReconcile = "reconcile"
)
