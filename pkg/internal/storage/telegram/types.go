package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

// Kind 附件类型.
type Kind string

const (
	KindVideo    Kind = "video"
	KindDocument Kind = "document"
	KindAudio    Kind = "audio"
	KindPhoto    Kind = "photo"
)

// apiResponse Bot API 的统一响应包装.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

// PhotoSize 图片或缩略图的一个尺寸.
type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
}

// BaseFile 视频与文件附件共有的字段；thumbnail 为新版字段名，thumb 为旧版.
type BaseFile struct {
	FileID       string     `json:"file_id"`
	FileUniqueID string     `json:"file_unique_id,omitempty"`
	FileName     string     `json:"file_name,omitempty"`
	MimeType     string     `json:"mime_type,omitempty"`
	FileSize     int64      `json:"file_size,omitempty"`
	Thumbnail    *PhotoSize `json:"thumbnail,omitempty"`
	Thumb        *PhotoSize `json:"thumb,omitempty"`
}

// Handle 返回文件句柄.
func (f *BaseFile) Handle() string { return f.FileID }

// ThumbnailHandle 返回缩略图句柄，没有缩略图时为空.
func (f *BaseFile) ThumbnailHandle() string {
	if f.Thumbnail != nil && f.Thumbnail.FileID != "" {
		return f.Thumbnail.FileID
	}

	if f.Thumb != nil {
		return f.Thumb.FileID
	}

	return ""
}

// Attachment 消息携带的附件，只有 Video、Document、Audio、Photo 四种实现.
type Attachment interface {
	Kind() Kind
	attachment()
}

// Video 视频附件.
type Video struct {
	BaseFile

	Width    int `json:"width,omitempty"`
	Height   int `json:"height,omitempty"`
	Duration int `json:"duration,omitempty"`
}

// Document 通用文件附件，部分文件带预览缩略图.
type Document struct {
	BaseFile
}

// Audio 音频附件，不使用缩略图.
type Audio struct {
	FileID    string `json:"file_id"`
	FileName  string `json:"file_name,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
	FileSize  int64  `json:"file_size,omitempty"`
	Duration  int    `json:"duration,omitempty"`
	Performer string `json:"performer,omitempty"`
	Title     string `json:"title,omitempty"`
}

// Photo 图片附件.
// Bot API 返回按尺寸升序排列的 PhotoSize 数组，也兼容单个对象的写法.
type Photo struct {
	FileID    string
	FileName  string
	MimeType  string
	FileSize  int64
	ThumbID   string
	SizeCount int
}

func (*Video) Kind() Kind    { return KindVideo }
func (*Document) Kind() Kind { return KindDocument }
func (*Audio) Kind() Kind    { return KindAudio }
func (*Photo) Kind() Kind    { return KindPhoto }

func (*Video) attachment()    {}
func (*Document) attachment() {}
func (*Audio) attachment()    {}
func (*Photo) attachment()    {}

// UnmarshalJSON 支持 PhotoSize 数组与单对象两种形态.
func (p *Photo) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '[' {
		var sizes []PhotoSize
		if err := sonic.Unmarshal(data, &sizes); err != nil {
			return fmt.Errorf("decode photo sizes: %w", err)
		}

		if len(sizes) == 0 {
			return nil
		}

		largest := sizes[len(sizes)-1]
		*p = Photo{FileID: largest.FileID, FileSize: largest.FileSize, MimeType: "image/jpeg", SizeCount: len(sizes)}

		if len(sizes) > 1 {
			p.ThumbID = sizes[0].FileID
		}

		return nil
	}

	var f BaseFile
	if err := sonic.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode photo: %w", err)
	}

	*p = Photo{
		FileID:    f.FileID,
		FileName:  f.FileName,
		MimeType:  f.MimeType,
		FileSize:  f.FileSize,
		ThumbID:   f.ThumbnailHandle(),
		SizeCount: 1,
	}

	return nil
}

// Message sendDocument 返回的消息，chat 与 from 字段不解析.
type Message struct {
	MessageID int64     `json:"message_id"`
	Date      int64     `json:"date"`
	Video     *Video    `json:"video,omitempty"`
	Document  *Document `json:"document,omitempty"`
	Audio     *Audio    `json:"audio,omitempty"`
	Photo     *Photo    `json:"photo,omitempty"`
}

// Attachment 依次检查 video、document、audio、photo，返回第一个带句柄的附件.
func (m *Message) Attachment() (Attachment, bool) {
	switch {
	case m.Video != nil && m.Video.FileID != "":
		return m.Video, true
	case m.Document != nil && m.Document.FileID != "":
		return m.Document, true
	case m.Audio != nil && m.Audio.FileID != "":
		return m.Audio, true
	case m.Photo != nil && m.Photo.FileID != "":
		return m.Photo, true
	default:
		return nil, false
	}
}

// File getFile 的结果，FilePath 为临时下载路径.
type File struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
	FilePath     string `json:"file_path,omitempty"`
}

// User getMe 的结果.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}
