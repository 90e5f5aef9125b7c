package telegram_test

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/moments/pkg/internal/storage/telegram"
)

func decodeMessage(t *testing.T, raw string) *telegram.Message {
	t.Helper()

	var msg telegram.Message
	require.NoError(t, sonic.UnmarshalString(raw, &msg))

	return &msg
}

func TestAttachmentOrder(t *testing.T) {
	msg := decodeMessage(t, `{"message_id":1,
		"document":{"file_id":"DOC","file_name":"a.pdf","mime_type":"application/pdf"},
		"audio":{"file_id":"AUD"}}`)

	att, ok := msg.Attachment()
	require.True(t, ok)
	assert.Equal(t, telegram.KindDocument, att.Kind())
}

func TestAttachmentNone(t *testing.T) {
	msg := decodeMessage(t, `{"message_id":1,"text":"hello"}`)

	_, ok := msg.Attachment()
	assert.False(t, ok)
}

func TestAudioHasNoThumbnail(t *testing.T) {
	msg := decodeMessage(t, `{"audio":{"file_id":"AUD","file_name":"song.mp3","mime_type":"audio/mpeg","thumbnail":{"file_id":"T"}}}`)

	att, ok := msg.Attachment()
	require.True(t, ok)

	audio, ok := att.(*telegram.Audio)
	require.True(t, ok)
	assert.Equal(t, "AUD", audio.FileID)
	assert.Equal(t, "audio/mpeg", audio.MimeType)
}

func TestLegacyThumbField(t *testing.T) {
	msg := decodeMessage(t, `{"document":{"file_id":"DOC","thumb":{"file_id":"OLD"}}}`)

	att, _ := msg.Attachment()
	assert.Equal(t, "OLD", att.(*telegram.Document).ThumbnailHandle())
}

func TestPhotoSizesArray(t *testing.T) {
	msg := decodeMessage(t, `{"photo":[
		{"file_id":"S","width":90,"height":90},
		{"file_id":"M","width":320,"height":320},
		{"file_id":"L","width":1280,"height":1280,"file_size":2048}]}`)

	att, ok := msg.Attachment()
	require.True(t, ok)

	photo := att.(*telegram.Photo)
	assert.Equal(t, "L", photo.FileID)
	assert.Equal(t, "S", photo.ThumbID)
	assert.Equal(t, int64(2048), photo.FileSize)
	assert.Equal(t, "image/jpeg", photo.MimeType)
}

func TestPhotoSingleSizeHasNoThumbnail(t *testing.T) {
	msg := decodeMessage(t, `{"photo":[{"file_id":"ONLY"}]}`)

	att, _ := msg.Attachment()
	assert.Empty(t, att.(*telegram.Photo).ThumbID)
}

func TestPhotoObject(t *testing.T) {
	msg := decodeMessage(t, `{"photo":{"file_id":"P","file_name":"p.png","mime_type":"image/png","thumb":{"file_id":"PT"}}}`)

	att, _ := msg.Attachment()
	photo := att.(*telegram.Photo)
	assert.Equal(t, "P", photo.FileID)
	assert.Equal(t, "PT", photo.ThumbID)
	assert.Equal(t, "p.png", photo.FileName)
}
