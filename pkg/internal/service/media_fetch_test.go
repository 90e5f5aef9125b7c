package service_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/moments/pkg/internal/service"
	"github.com/yeisme/moments/pkg/internal/storage/telegram/telegramtest"
)

func TestFetchPrimaryRoundTrip(t *testing.T) {
	f := newFixture(t)

	rec, err := upload(t, f, "cat.png", "image/png", "\x89PNG raw bytes")
	require.NoError(t, err)

	stream, err := f.svc.OpenPrimary(context.Background(), rec.Key)
	require.NoError(t, err)

	assert.Equal(t, "image/png", stream.ContentType)
	assert.Equal(t, int64(len("\x89PNG raw bytes")), stream.ContentLength)
	assert.Equal(t, "\x89PNG raw bytes", readAll(t, stream))
	assert.Equal(t, 1, f.tg.GetFileCalls(rec.FileID))
}

func TestFetchUnknownKey(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.OpenPrimary(context.Background(), "1712000000000.png")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = f.svc.OpenThumbnail(context.Background(), "1712000000000.png")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = f.svc.Info(context.Background(), "1712000000000.png")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = f.svc.Info(context.Background(), "")
	assert.ErrorIs(t, err, service.ErrBadRequest)
}

func TestFetchThumbnailAbsent(t *testing.T) {
	f := newFixture(t)

	rec, err := upload(t, f, "a.pdf", "application/pdf", "x")
	require.NoError(t, err)

	_, err = f.svc.OpenThumbnail(context.Background(), rec.Key)
	assert.ErrorIs(t, err, service.ErrBadRequest)
}

func TestFetchThumbnail(t *testing.T) {
	f := newFixture(t)
	f.tg.SendReply = reply(`{"ok":true,"result":{"message_id":1,"date":1,
		"video":{"file_id":"V1","file_name":"clip.mp4","thumbnail":{"file_id":"VT"}}}}`)
	f.tg.AddFile("V1", "videos/file_1.mp4", []byte("video"))
	f.tg.AddFile("VT", "thumbnails/file_2.jpg", []byte("thumb"))

	rec, err := upload(t, f, "clip.mp4", "video/mp4", "video")
	require.NoError(t, err)

	stream, err := f.svc.OpenThumbnail(context.Background(), rec.Key)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", stream.ContentType)
	assert.Equal(t, "thumb", readAll(t, stream))

	stream, err = f.svc.OpenPrimary(context.Background(), rec.Key)
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", stream.ContentType)
	assert.Equal(t, "video", readAll(t, stream))
}

func TestFetchThumbnailFallsBackToKeyExtension(t *testing.T) {
	f := newFixture(t)
	f.tg.SendReply = reply(`{"ok":true,"result":{"message_id":1,"date":1,
		"video":{"file_id":"V1","thumbnail":{"file_id":"VT"}}}}`)
	f.tg.AddFile("VT", "thumbnails/file_2", []byte("thumb"))

	rec, err := upload(t, f, "clip.mp4", "video/mp4", "video")
	require.NoError(t, err)

	stream, err := f.svc.OpenThumbnail(context.Background(), rec.Key)
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", stream.ContentType)
	readAll(t, stream)
}

func TestResolveRetriesMissingPathExactlyThreeTimes(t *testing.T) {
	f := newFixture(t)

	rec, err := upload(t, f, "a.png", "image/png", "x")
	require.NoError(t, err)

	f.tg.GetFileReply = func(fileID string, _ int) telegramtest.Reply {
		return telegramtest.Reply{Status: http.StatusOK, Body: fmt.Sprintf(`{"ok":true,"result":{"file_id":%q}}`, fileID)}
	}

	_, err = f.svc.OpenPrimary(context.Background(), rec.Key)
	require.ErrorIs(t, err, service.ErrUpstream)
	assert.Equal(t, "could not resolve download path", service.AsMediaError(err).Message)
	assert.Equal(t, service.MaxResolveAttempts, f.tg.GetFileCalls(rec.FileID))
}

func TestResolveSucceedsOnThirdAttempt(t *testing.T) {
	f := newFixture(t)

	rec, err := upload(t, f, "a.txt", "text/plain", "hello")
	require.NoError(t, err)

	f.tg.GetFileReply = func(fileID string, attempt int) telegramtest.Reply {
		if attempt < 3 {
			return telegramtest.Reply{Status: http.StatusOK, Body: `{"ok":false}`}
		}

		return telegramtest.Reply{Status: http.StatusOK, Body: `{"ok":true,"result":{"file_id":"x","file_path":"documents/file_1.txt"}}`}
	}

	stream, err := f.svc.OpenPrimary(context.Background(), rec.Key)
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=UTF-8", stream.ContentType)
	assert.Equal(t, "hello", readAll(t, stream))
	assert.Equal(t, 3, f.tg.GetFileCalls(rec.FileID))
}

func TestResolveDoesNotRetryStatusError(t *testing.T) {
	f := newFixture(t)

	rec, err := upload(t, f, "a.png", "image/png", "x")
	require.NoError(t, err)

	f.tg.GetFileReply = func(string, int) telegramtest.Reply {
		return telegramtest.Reply{Status: http.StatusTooManyRequests, Body: `{"ok":false,"error_code":429,"description":"Too Many Requests"}`}
	}

	_, err = f.svc.OpenPrimary(context.Background(), rec.Key)
	require.ErrorIs(t, err, service.ErrUpstream)
	assert.Equal(t, 1, f.tg.GetFileCalls(rec.FileID))
	assert.NotNil(t, service.AsMediaError(err).Detail)
}

func TestDownloadStatusError(t *testing.T) {
	f := newFixture(t)

	rec, err := upload(t, f, "a.png", "image/png", "x")
	require.NoError(t, err)

	f.tg.GetFileReply = func(string, int) telegramtest.Reply {
		return telegramtest.Reply{Status: http.StatusOK, Body: `{"ok":true,"result":{"file_id":"x","file_path":"gone/file.png"}}`}
	}

	_, err = f.svc.OpenPrimary(context.Background(), rec.Key)
	assert.ErrorIs(t, err, service.ErrUpstream)
}

func TestInfoReturnsRawRecord(t *testing.T) {
	f := newFixture(t)

	rec, err := upload(t, f, "a.png", "image/png", "x")
	require.NoError(t, err)

	raw, err := f.svc.Info(context.Background(), rec.Key)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"key":"1712000000123.png"`)
	assert.Contains(t, string(raw), `"url":"https://m.example.com/api/file/1712000000123.png"`)
}
