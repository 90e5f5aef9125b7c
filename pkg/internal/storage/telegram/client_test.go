package telegram_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/moments/pkg/configs"
	"github.com/yeisme/moments/pkg/internal/storage/telegram"
)

func newClient(t *testing.T, handler http.HandlerFunc) *telegram.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := telegram.New(configs.TelegramConfig{APIBase: srv.URL, BotToken: "1:abc", ChatID: "-100"}, telegram.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	return c
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := telegram.New(configs.TelegramConfig{ChatID: "1"})
	assert.Error(t, err)

	_, err = telegram.New(configs.TelegramConfig{BotToken: "1:a"})
	assert.Error(t, err)
}

func TestSendDocumentMultipart(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot1:abc/sendDocument", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}

		assert.Equal(t, "-100", r.FormValue("chat_id"))

		f, hdr, err := r.FormFile("document")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()

		body, _ := io.ReadAll(f)
		assert.Equal(t, "clip bytes", string(body))
		assert.Equal(t, "clip.mp4", hdr.Filename)
		assert.Equal(t, "video/mp4", hdr.Header.Get("Content-Type"))

		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":7,"date":1712000000,
			"chat":{"id":-100},"from":{"id":1,"is_bot":true},
			"video":{"file_id":"VID","file_name":"clip.mp4","mime_type":"video/mp4","file_size":10,
			"thumbnail":{"file_id":"THUMB","width":320,"height":180}}}}`)
	})

	msg, err := c.SendDocument(context.Background(), telegram.Upload{
		FileName:    "clip.mp4",
		ContentType: "video/mp4",
		Body:        strings.NewReader("clip bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), msg.MessageID)

	att, ok := msg.Attachment()
	require.True(t, ok)

	video, ok := att.(*telegram.Video)
	require.True(t, ok)
	assert.Equal(t, "VID", video.Handle())
	assert.Equal(t, "THUMB", video.ThumbnailHandle())
}

func TestSendDocumentUpstreamError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	})

	_, err := c.SendDocument(context.Background(), telegram.Upload{FileName: "a.txt", Body: strings.NewReader("a")})
	require.Error(t, err)

	var apiErr *telegram.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "chat not found")
	assert.JSONEq(t, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`, string(apiErr.Body))
}

func TestGetFileMissingPath(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "H1", r.URL.Query().Get("file_id"))
		_, _ = io.WriteString(w, `{"ok":true,"result":{"file_id":"H1"}}`)
	})

	f, err := c.GetFile(context.Background(), "H1")
	require.NoError(t, err)
	assert.Empty(t, f.FilePath)
}

func TestGetFileNotOK(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"ok":false}`)
	})

	f, err := c.GetFile(context.Background(), "H1")
	require.NoError(t, err)
	assert.Empty(t, f.FilePath)
}

func TestGetFileStatusError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `not json`)
	})

	_, err := c.GetFile(context.Background(), "H1")

	var apiErr *telegram.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "not json", apiErr.Payload())
}

func TestDownload(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/file/bot1:abc/photos/file_3.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		_, _ = io.WriteString(w, "jpeg bytes")
	})

	dl, err := c.Download(context.Background(), "photos/file_3.jpg")
	require.NoError(t, err)
	defer dl.Body.Close()

	body, _ := io.ReadAll(dl.Body)
	assert.Equal(t, "jpeg bytes", string(body))

	_, err = c.Download(context.Background(), "photos/missing.jpg")
	assert.Error(t, err)
}

func TestGetMe(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"moments","username":"moments_bot"}}`)
	})

	u, err := c.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "moments_bot", u.Username)
}

func TestTransportErrorOmitsToken(t *testing.T) {
	const token = "42:very-secret"

	c, err := telegram.New(configs.TelegramConfig{APIBase: "http://127.0.0.1:1", BotToken: token, ChatID: "-100"})
	require.NoError(t, err)

	ctx := context.Background()

	_, sendErr := c.SendDocument(ctx, telegram.Upload{FileName: "a.txt", Body: strings.NewReader("x")})
	_, getErr := c.GetFile(ctx, "F1")
	_, dlErr := c.Download(ctx, "documents/file_1.txt")
	_, meErr := c.GetMe(ctx)

	for _, err := range []error{sendErr, getErr, dlErr, meErr} {
		require.Error(t, err)

		var te *telegram.TransportError
		assert.ErrorAs(t, err, &te)
		assert.NotContains(t, err.Error(), token)
		assert.NotContains(t, err.Error(), "very-secret")
	}
}

func TestTransportErrorKeepsContextCause(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetFile(ctx, "F1")
	assert.ErrorIs(t, err, context.Canceled)
}
