package service

import (
	"context"
	"errors"
	"io"

	"github.com/bytedance/sonic"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/moments/pkg/internal/storage/kv"
	"github.com/yeisme/moments/pkg/internal/types"
	"github.com/yeisme/moments/pkg/metrics"
	"github.com/yeisme/moments/pkg/tracing"
)

// MaxResolveAttempts getFile 最多尝试次数，只有成功响应缺少路径时才重试.
const MaxResolveAttempts = 3

// 读取的变体，用于指标与日志.
const (
	VariantPrimary   = "primary"
	VariantThumbnail = "thumbnail"
)

// MediaStream 待回传的媒体字节，调用方负责关闭 Body.
type MediaStream struct {
	Body io.ReadCloser
	// ContentLength 未知时为 -1
	ContentLength int64
	ContentType   string
}

// Info 返回持久化的原始记录 JSON.
func (s *MediaService) Info(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, badRequest("missing file key")
	}

	data, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return nil, notFound("media not found")
		}

		return nil, internal("load media record", err)
	}

	return data, nil
}

// Lookup 读取并解析媒体记录.
func (s *MediaService) Lookup(ctx context.Context, key string) (*types.MediaRecord, error) {
	data, err := s.Info(ctx, key)
	if err != nil {
		return nil, err
	}

	var rec types.MediaRecord
	if err := sonic.Unmarshal(data, &rec); err != nil {
		return nil, internal("decode media record", err)
	}

	return &rec, nil
}

// OpenPrimary 解析主文件并打开下载流，类型取自键的扩展名.
func (s *MediaService) OpenPrimary(ctx context.Context, key string) (stream *MediaStream, err error) {
	ctx, span := tracing.StartSpan(ctx, "media.fetch.primary")
	defer span.End()

	span.SetAttributes(attribute.String("media.key", key))

	defer func() { observeFetch(span, VariantPrimary, err) }()

	rec, err := s.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}

	stream, _, err = s.open(ctx, rec.FileID)
	if err != nil {
		return nil, err
	}

	stream.ContentType = ContentTypeFor(extOf(key))

	return stream, nil
}

// OpenThumbnail 解析缩略图并打开下载流.
// 类型取自上游路径的扩展名，路径没有扩展名时退回键的扩展名.
func (s *MediaService) OpenThumbnail(ctx context.Context, key string) (stream *MediaStream, err error) {
	ctx, span := tracing.StartSpan(ctx, "media.fetch.thumbnail")
	defer span.End()

	span.SetAttributes(attribute.String("media.key", key))

	defer func() { observeFetch(span, VariantThumbnail, err) }()

	rec, err := s.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}

	if !rec.HasThumbnail() {
		return nil, badRequest("media has no thumbnail")
	}

	stream, filePath, err := s.open(ctx, rec.ThumbnailFileID)
	if err != nil {
		return nil, err
	}

	// 视频缩略图是 jpg，主键的扩展名是视频的，所以优先按上游路径判断
	ext := extOf(filePath)
	if ext == "" {
		ext = extOf(key)
	}

	stream.ContentType = ContentTypeFor(ext)

	return stream, nil
}

// open 解析句柄的临时路径并发起下载.
func (s *MediaService) open(ctx context.Context, fileID string) (*MediaStream, string, error) {
	filePath, err := s.resolve(ctx, fileID)
	if err != nil {
		return nil, "", err
	}

	dl, err := s.blob.Download(ctx, filePath)
	if err != nil {
		return nil, "", upstreamFrom("download file failed", err)
	}

	return &MediaStream{Body: dl.Body, ContentLength: dl.ContentLength}, filePath, nil
}

// resolve 立即重试至多 MaxResolveAttempts 次，非 2xx 状态不重试.
func (s *MediaService) resolve(ctx context.Context, fileID string) (string, error) {
	for attempt := 1; attempt <= MaxResolveAttempts; attempt++ {
		file, err := s.blob.GetFile(ctx, fileID)
		if err != nil {
			return "", upstreamFrom("resolve file path failed", err)
		}

		if file.FilePath != "" {
			metrics.ObserveResolveAttempts(attempt)

			return file.FilePath, nil
		}
	}

	metrics.ObserveResolveAttempts(MaxResolveAttempts)

	return "", upstream("could not resolve download path", nil, nil)
}

// observeFetch 记录读取结果，只有上游或内部错误标记 span.
func observeFetch(span trace.Span, variant string, err error) {
	result := "ok"

	switch {
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case errors.Is(err, ErrBadRequest):
		result = "bad_request"
	case err != nil:
		result = "error"

		tracing.RecordError(span, err)
	}

	metrics.ObserveFetch(variant, result)
}
