package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/moments/pkg/configs"
	"github.com/yeisme/moments/pkg/internal/service"
	"github.com/yeisme/moments/pkg/internal/storage/kv"
	"github.com/yeisme/moments/pkg/internal/storage/telegram"
	"github.com/yeisme/moments/pkg/internal/storage/telegram/telegramtest"
	"github.com/yeisme/moments/pkg/internal/types"
	"github.com/yeisme/moments/pkg/queue"
)

const testDomain = "https://m.example.com"

var fixedNow = time.UnixMilli(1712000000123)

type fixture struct {
	tg    *telegramtest.Server
	store kv.KVStore
	svc   *service.MediaService
}

func newFixture(t *testing.T, opts ...service.Option) *fixture {
	t.Helper()

	tg := telegramtest.NewServer()
	t.Cleanup(tg.Close)

	blob, err := tg.NewClient()
	require.NoError(t, err)

	store, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	opts = append([]service.Option{service.WithClock(func() time.Time { return fixedNow })}, opts...)
	svc := service.NewMediaServiceWith(store, blob, configs.MediaConfig{PublicDomain: testDomain + "/"}, opts...)

	return &fixture{tg: tg, store: store, svc: svc}
}

func reply(body string) func(telegramtest.Document) telegramtest.Reply {
	return func(telegramtest.Document) telegramtest.Reply {
		return telegramtest.Reply{Status: http.StatusOK, Body: body}
	}
}

func upload(t *testing.T, f *fixture, name, contentType, data string) (*types.MediaRecord, error) {
	t.Helper()

	return f.svc.Upload(context.Background(), &service.UploadInput{
		FileName:    name,
		ContentType: contentType,
		Body:        strings.NewReader(data),
	})
}

func TestUploadDocument(t *testing.T) {
	f := newFixture(t)

	rec, err := upload(t, f, "notes.pdf", "application/pdf", "pdf bytes")
	require.NoError(t, err)

	assert.Equal(t, "1712000000123.pdf", rec.Key)
	assert.Equal(t, testDomain+"/api/file/1712000000123.pdf", rec.URL)
	assert.Equal(t, "document", rec.Kind)
	assert.Equal(t, "notes.pdf", rec.FileName)
	assert.Equal(t, "application/pdf", rec.MimeType)
	assert.Equal(t, int64(9), rec.FileSize)
	assert.NotEmpty(t, rec.FileID)
	assert.False(t, rec.HasThumbnail())
	assert.Empty(t, rec.ThumbnailKey)
	assert.Empty(t, rec.ThumbnailURL)

	docs := f.tg.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, telegramtest.ChatID, docs[0].ChatID)
	assert.Equal(t, "pdf bytes", string(docs[0].Data))

	raw, err := f.store.Get(context.Background(), rec.Key)
	require.NoError(t, err)

	var stored types.MediaRecord
	require.NoError(t, sonic.Unmarshal(raw, &stored))
	assert.Equal(t, *rec, stored)
	assert.NotContains(t, string(raw), "chat")
	assert.NotContains(t, string(raw), "from")
}

func TestUploadGifIsForwardedAsJPEG(t *testing.T) {
	f := newFixture(t)

	rec, err := upload(t, f, "funny.GIF", "image/gif", "GIF89a")
	require.NoError(t, err)

	docs := f.tg.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "funny.jpeg", docs[0].FileName)
	assert.Equal(t, "image/jpeg", docs[0].ContentType)

	assert.Equal(t, "1712000000123.jpeg", rec.Key)
	assert.True(t, strings.HasSuffix(rec.Key, ".jpeg"))
}

func TestUploadWithoutExtension(t *testing.T) {
	f := newFixture(t)
	f.tg.SendReply = reply(`{"ok":true,"result":{"message_id":1,"date":1,"document":{"file_id":"D1"}}}`)

	rec, err := upload(t, f, "README", "", "x")
	require.NoError(t, err)

	assert.Equal(t, "1712000000123.bin", rec.Key)
	assert.Equal(t, "file_1712000000123.bin", rec.FileName)
}

func TestUploadVariants(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		kind      string
		fileID    string
		thumbID   string
		fileName  string
		mediaType string
	}{
		{
			name:     "video with thumbnail",
			body:     `{"ok":true,"result":{"message_id":2,"date":3,"video":{"file_id":"V1","file_name":"clip.mp4","mime_type":"video/mp4","file_size":42,"thumbnail":{"file_id":"VT"}}}}`,
			kind:     "video",
			fileID:   "V1",
			thumbID:  "VT",
			fileName: "clip.mp4", mediaType: "video/mp4",
		},
		{
			name:     "document with legacy thumb",
			body:     `{"ok":true,"result":{"message_id":2,"date":3,"document":{"file_id":"D1","file_name":"a.pdf","mime_type":"application/pdf","thumb":{"file_id":"DT"}}}}`,
			kind:     "document",
			fileID:   "D1",
			thumbID:  "DT",
			fileName: "a.pdf", mediaType: "application/pdf",
		},
		{
			name:     "audio never has thumbnail",
			body:     `{"ok":true,"result":{"message_id":2,"date":3,"audio":{"file_id":"A1","file_name":"song.mp3","mime_type":"audio/mpeg","thumbnail":{"file_id":"AT"}}}}`,
			kind:     "audio",
			fileID:   "A1",
			fileName: "song.mp3", mediaType: "audio/mpeg",
		},
		{
			name:     "photo sizes",
			body:     `{"ok":true,"result":{"message_id":2,"date":3,"photo":[{"file_id":"P-small"},{"file_id":"P-large","file_size":900}]}}`,
			kind:     "photo",
			fileID:   "P-large",
			thumbID:  "P-small",
			fileName: "file_1712000000123.mp4", mediaType: "image/jpeg",
		},
		{
			name:     "photo object",
			body:     `{"ok":true,"result":{"message_id":2,"date":3,"photo":{"file_id":"P1","file_name":"pic.png","mime_type":"image/png","thumb":{"file_id":"PT"}}}}`,
			kind:     "photo",
			fileID:   "P1",
			thumbID:  "PT",
			fileName: "pic.png", mediaType: "image/png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.tg.SendReply = reply(tt.body)

			rec, err := upload(t, f, "upload.mp4", "video/mp4", "data")
			require.NoError(t, err)

			assert.Equal(t, tt.kind, rec.Kind)
			assert.Equal(t, tt.fileID, rec.FileID)
			assert.Equal(t, tt.fileName, rec.FileName)
			assert.Equal(t, tt.mediaType, rec.MimeType)
			assert.Equal(t, int64(2), rec.MessageID)
			assert.Equal(t, int64(3), rec.Date)

			if tt.thumbID == "" {
				assert.False(t, rec.HasThumbnail())
				assert.Empty(t, rec.ThumbnailKey)

				return
			}

			assert.Equal(t, tt.thumbID, rec.ThumbnailFileID)
			assert.Equal(t, "thumb/1712000000123.mp4", rec.ThumbnailKey)
			assert.Equal(t, testDomain+"/api/file/thumb/1712000000123.mp4", rec.ThumbnailURL)
		})
	}
}

func TestUploadVariantPrecedence(t *testing.T) {
	f := newFixture(t)
	f.tg.SendReply = reply(`{"ok":true,"result":{"message_id":1,"date":1,
		"document":{"file_id":"D1"},"video":{"file_id":"V1"}}}`)

	rec, err := upload(t, f, "a.mp4", "video/mp4", "x")
	require.NoError(t, err)
	assert.Equal(t, "video", rec.Kind)
	assert.Equal(t, "V1", rec.FileID)
}

func TestConcurrentUploadsGetDistinctKeys(t *testing.T) {
	var tick atomic.Int64

	clock := func() time.Time {
		return fixedNow.Add(time.Duration(tick.Add(1)) * time.Millisecond)
	}

	f := newFixture(t, service.WithClock(clock))

	const n = 8

	recs := make([]*types.MediaRecord, n)

	var g errgroup.Group

	for i := range n {
		g.Go(func() error {
			rec, err := f.svc.Upload(context.Background(), &service.UploadInput{
				FileName:    fmt.Sprintf("photo-%d.png", i),
				ContentType: "image/png",
				Body:        strings.NewReader(fmt.Sprintf("bytes %d", i)),
			})
			recs[i] = rec

			return err
		})
	}

	require.NoError(t, g.Wait())

	seen := make(map[string]bool, n)

	for _, rec := range recs {
		require.NotNil(t, rec)
		assert.False(t, seen[rec.Key], "duplicate key %s", rec.Key)
		seen[rec.Key] = true

		raw, err := f.store.Get(context.Background(), rec.Key)
		require.NoError(t, err)

		var stored types.MediaRecord
		require.NoError(t, sonic.Unmarshal(raw, &stored))
		assert.Equal(t, rec.FileName, stored.FileName)
	}

	keys, err := f.store.Keys(context.Background(), "*")
	require.NoError(t, err)
	assert.Len(t, keys, n)
}

func TestUploadUnreachableProvider(t *testing.T) {
	blob, err := telegram.New(configs.TelegramConfig{APIBase: "http://127.0.0.1:1", BotToken: "7:hidden", ChatID: "-100"})
	require.NoError(t, err)

	store, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	svc := service.NewMediaServiceWith(store, blob, configs.MediaConfig{PublicDomain: testDomain})

	_, err = svc.Upload(context.Background(), &service.UploadInput{FileName: "a.png", ContentType: "image/png", Body: strings.NewReader("x")})
	require.ErrorIs(t, err, service.ErrUpstream)

	me := service.AsMediaError(err)
	assert.Nil(t, me.Detail)
	assert.NotContains(t, me.Error(), "7:hidden")
}

func TestUploadMissingFile(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Upload(context.Background(), nil)
	assert.ErrorIs(t, err, service.ErrBadRequest)

	assert.Empty(t, f.tg.Documents())
}

func TestUploadUpstreamStatus(t *testing.T) {
	f := newFixture(t)
	f.tg.SendReply = func(telegramtest.Document) telegramtest.Reply {
		return telegramtest.Reply{Status: http.StatusBadRequest, Body: `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`}
	}

	_, err := upload(t, f, "a.png", "image/png", "x")
	require.ErrorIs(t, err, service.ErrUpstream)

	me := service.AsMediaError(err)
	raw, ok := me.Detail.(interface{ MarshalJSON() ([]byte, error) })
	require.True(t, ok)

	b, _ := raw.MarshalJSON()
	assert.JSONEq(t, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`, string(b))

	keys, _ := f.store.Keys(context.Background(), "")
	assert.Empty(t, keys)
}

func TestUploadNoHandle(t *testing.T) {
	f := newFixture(t)
	f.tg.SendReply = reply(`{"ok":true,"result":{"message_id":1,"date":1,"text":"hi"}}`)

	_, err := upload(t, f, "a.png", "image/png", "x")
	require.ErrorIs(t, err, service.ErrUpstream)
	assert.Equal(t, "could not extract file handle", service.AsMediaError(err).Message)

	keys, _ := f.store.Keys(context.Background(), "")
	assert.Empty(t, keys)
}

type failingStore struct {
	kv.KVStore
}

func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("store unavailable")
}

func TestUploadStoreFailure(t *testing.T) {
	tg := telegramtest.NewServer()
	defer tg.Close()

	blob, err := tg.NewClient()
	require.NoError(t, err)

	svc := service.NewMediaServiceWith(failingStore{}, blob, configs.MediaConfig{PublicDomain: testDomain})

	_, err = svc.Upload(context.Background(), &service.UploadInput{FileName: "a.png", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, service.ErrInternal)
}

func TestUploadPublishesStoredEvent(t *testing.T) {
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 4}, watermill.NopLogger{})
	defer ps.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := ps.Subscribe(ctx, queue.TopicMediaStored)
	require.NoError(t, err)

	f := newFixture(t, service.WithPublisher(ps))

	rec, err := upload(t, f, "a.png", "image/png", "png")
	require.NoError(t, err)

	select {
	case msg := <-ch:
		ev, err := queue.ParseMediaStored(msg)
		require.NoError(t, err)
		msg.Ack()

		assert.Equal(t, rec.Key, ev.Payload.Media.Key)
		assert.Equal(t, rec.FileID, ev.Payload.Media.FileID)
		assert.Equal(t, queue.SourceUpload, ev.Payload.Source)
	case <-ctx.Done():
		t.Fatal("stored event not published")
	}
}

func TestRemove(t *testing.T) {
	f := newFixture(t)

	rec, err := upload(t, f, "a.png", "image/png", "png")
	require.NoError(t, err)

	require.NoError(t, f.svc.Remove(context.Background(), rec.Key))
	assert.ErrorIs(t, f.svc.Remove(context.Background(), rec.Key), service.ErrNotFound)
	assert.ErrorIs(t, f.svc.Remove(context.Background(), ""), service.ErrBadRequest)
}

func readAll(t *testing.T, stream *service.MediaStream) string {
	t.Helper()

	defer stream.Body.Close()

	b, err := io.ReadAll(stream.Body)
	require.NoError(t, err)

	return string(b)
}
