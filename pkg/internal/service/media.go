package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/moments/pkg/configs"
	ctxPkg "github.com/yeisme/moments/pkg/context"
	"github.com/yeisme/moments/pkg/internal/storage/kv"
	"github.com/yeisme/moments/pkg/internal/storage/telegram"
	"github.com/yeisme/moments/pkg/internal/types"
	nlog "github.com/yeisme/moments/pkg/log"
	"github.com/yeisme/moments/pkg/metrics"
	"github.com/yeisme/moments/pkg/queue"
	"github.com/yeisme/moments/pkg/tracing"
)

const (
	// DefaultExt 文件名没有可用扩展名时使用.
	DefaultExt = "bin"
	// ThumbPrefix 缩略图键前缀.
	ThumbPrefix = "thumb/"
)

var safeExt = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// MediaService 负责媒体转存与读取，不处理 HTTP 细节.
type MediaService struct {
	kv        kv.KVStore
	blob      *telegram.Client
	publisher message.Publisher
	cfg       configs.MediaConfig
	now       func() time.Time
}

// Option MediaService 选项.
type Option func(*MediaService)

// WithPublisher 上传成功后发布 moments.media.stored.
func WithPublisher(pub message.Publisher) Option {
	return func(s *MediaService) { s.publisher = pub }
}

// WithClock 替换时钟，键中的时间戳取自它.
func WithClock(now func() time.Time) Option {
	return func(s *MediaService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMediaServiceWith 使用显式依赖创建服务.
func NewMediaServiceWith(store kv.KVStore, blob *telegram.Client, cfg configs.MediaConfig, opts ...Option) *MediaService {
	s := &MediaService{kv: store, blob: blob, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NewMediaService 从 context 获取依赖实例.
func NewMediaService(c context.Context) (*MediaService, error) {
	kvc := ctxPkg.GetKVClient(c)
	blob := ctxPkg.GetBlobClient(c)

	if kvc == nil || kvc.KVStore == nil || blob == nil {
		return nil, errors.New("storage clients not initialized")
	}

	cfg := configs.GetConfig()

	var opts []Option
	if mqc := ctxPkg.GetMQClient(c); mqc != nil && cfg.Events.Enabled && cfg.Events.Media.Stored {
		opts = append(opts, WithPublisher(mqc.Publisher()))
	}

	return NewMediaServiceWith(kvc, blob, cfg.Media, opts...), nil
}

// UploadInput 待转存的文件.
type UploadInput struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// Upload 把文件转发到上游会话，提取句柄并写入媒体记录.
// 写入 KV 之前的任何失败都不会留下记录.
func (s *MediaService) Upload(ctx context.Context, in *UploadInput) (rec *types.MediaRecord, err error) {
	ctx, span := tracing.StartSpan(ctx, "media.upload")
	defer span.End()

	kind := "none"

	defer func() {
		result := "ok"
		if err != nil {
			result = "error"

			tracing.RecordError(span, err)
		}

		metrics.ObserveUpload(kind, result)
	}()

	if in == nil || in.Body == nil {
		return nil, badRequest("missing file")
	}

	name, contentType := forwardedFile(in.FileName, in.ContentType)

	msg, err := s.blob.SendDocument(ctx, telegram.Upload{FileName: name, ContentType: contentType, Body: in.Body})
	if err != nil {
		return nil, upstreamFrom("upload to telegram failed", err)
	}

	att, ok := msg.Attachment()
	if !ok {
		return nil, upstream("could not extract file handle", nil, nil)
	}

	kind = string(att.Kind())

	rec = s.buildRecord(att, msg, name, contentType)
	span.SetAttributes(attribute.String("media.key", rec.Key), attribute.String("media.kind", rec.Kind))

	data, err := sonic.Marshal(rec)
	if err != nil {
		return nil, internal("encode media record", err)
	}

	if err := s.kv.Set(ctx, rec.Key, data, 0); err != nil {
		return nil, internal("store media record", err)
	}

	s.publishStored(ctx, rec)

	logger := ctxPkg.WithTraceContext(ctx, *nlog.Logger())
	logger.Info().Str("key", rec.Key).Str("kind", rec.Kind).Int64("size", rec.FileSize).Msg("media stored")

	return rec, nil
}

// forwardedFile gif 按静态图片转发：类型改为 image/jpeg，扩展名 .gif 改为 .jpeg.
func forwardedFile(name, contentType string) (string, string) {
	if strings.HasPrefix(strings.ToLower(contentType), "image/gif") {
		if strings.EqualFold(extOf(name), "gif") {
			name = name[:len(name)-len(".gif")] + ".jpeg"
		}

		return name, "image/jpeg"
	}

	return name, contentType
}

// keyExt 键使用转发文件名的扩展名.
func keyExt(name string) string {
	if ext := extOf(name); safeExt.MatchString(ext) {
		return ext
	}

	return DefaultExt
}

// buildRecord 按附件类型填充记录，音频不取缩略图.
func (s *MediaService) buildRecord(att telegram.Attachment, msg *telegram.Message, name, contentType string) *types.MediaRecord {
	ts := s.now().UnixMilli()
	ext := keyExt(name)

	rec := &types.MediaRecord{
		Kind:      string(att.Kind()),
		MessageID: msg.MessageID,
		Date:      msg.Date,
	}

	var thumbID string

	switch a := att.(type) {
	case *telegram.Video:
		rec.FileID, rec.FileName, rec.MimeType, rec.FileSize = a.FileID, a.FileName, a.MimeType, a.FileSize
		thumbID = a.ThumbnailHandle()
	case *telegram.Document:
		rec.FileID, rec.FileName, rec.MimeType, rec.FileSize = a.FileID, a.FileName, a.MimeType, a.FileSize
		thumbID = a.ThumbnailHandle()
	case *telegram.Audio:
		rec.FileID, rec.FileName, rec.MimeType, rec.FileSize = a.FileID, a.FileName, a.MimeType, a.FileSize
	case *telegram.Photo:
		rec.FileID, rec.FileName, rec.MimeType, rec.FileSize = a.FileID, a.FileName, a.MimeType, a.FileSize
		thumbID = a.ThumbID
	}

	rec.Key = fmt.Sprintf("%d.%s", ts, ext)
	rec.URL = s.fileURL(rec.Key)

	if rec.FileName == "" {
		rec.FileName = fmt.Sprintf("file_%d.%s", ts, ext)
	}

	if rec.MimeType == "" {
		rec.MimeType = contentType
	}

	if thumbID != "" {
		rec.ThumbnailFileID = thumbID
		rec.ThumbnailKey = ThumbPrefix + rec.Key
		rec.ThumbnailURL = s.fileURL(rec.ThumbnailKey)
	}

	return rec
}

func (s *MediaService) fileURL(key string) string {
	return s.cfg.Domain() + "/api/file/" + key
}

// publishStored 记录已持久化，发布失败只记录日志.
func (s *MediaService) publishStored(ctx context.Context, rec *types.MediaRecord) {
	if s.publisher == nil {
		return
	}

	var opts []func(*queue.EventHeader)
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		opts = append(opts, queue.WithTraceID(sc.TraceID().String()))
	}

	payload := queue.MediaStoredPayload{Media: MediaRefOf(rec), Source: queue.SourceUpload}
	if err := queue.PublishMediaStored(s.publisher, payload, opts...); err != nil {
		logger := ctxPkg.WithTraceContext(ctx, *nlog.Logger())
		logger.Warn().Err(err).Str("key", rec.Key).Msg("publish media stored event failed")
	}
}

// MediaRefOf 构造事件中的媒体快照.
func MediaRefOf(rec *types.MediaRecord) queue.MediaRef {
	return queue.MediaRef{
		Key:             rec.Key,
		FileID:          rec.FileID,
		FileName:        rec.FileName,
		MimeType:        rec.MimeType,
		Kind:            rec.Kind,
		FileSize:        rec.FileSize,
		URL:             rec.URL,
		ThumbnailFileID: rec.ThumbnailFileID,
		ThumbnailKey:    rec.ThumbnailKey,
	}
}

// upstreamFrom 上游状态错误保留原始负载；传输层错误只进日志，不带负载.
func upstreamFrom(msg string, err error) *MediaError {
	var apiErr *telegram.APIError
	if errors.As(err, &apiErr) {
		return upstream(msg, apiErr.Payload(), err)
	}

	return upstream(msg, nil, err)
}

// Remove 删除媒体记录，上游保存的文件不受影响. 仅供运维清理使用.
func (s *MediaService) Remove(ctx context.Context, key string) error {
	if key == "" {
		return badRequest("missing file key")
	}

	exists, err := s.kv.Exists(ctx, key)
	if err != nil {
		return internal("check media record", err)
	}

	if !exists {
		return notFound("media not found")
	}

	if err := s.kv.Delete(ctx, key); err != nil {
		return internal("delete media record", err)
	}

	return nil
}
