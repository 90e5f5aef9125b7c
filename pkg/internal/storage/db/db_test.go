package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/moments/pkg/configs"
	"github.com/yeisme/moments/pkg/internal/model"
	"github.com/yeisme/moments/pkg/internal/storage/db"
)

func newMemoryDB(t *testing.T) *db.Client {
	t.Helper()

	client, err := db.New(context.Background(), &configs.DBConfig{
		Type:         configs.SQLite,
		Database:     "file:" + t.Name() + "?mode=memory&cache=shared",
		MaxIdleConns: 1,
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestRegisteredDBTypes(t *testing.T) {
	types := db.GetRegisteredDBTypes()
	assert.Contains(t, types, configs.SQLite)
	assert.Contains(t, types, configs.PostgreSQL)
	assert.Contains(t, types, configs.MySQL)
}

func TestUnsupportedDBType(t *testing.T) {
	_, err := db.New(context.Background(), &configs.DBConfig{Type: "oracle"})
	assert.Error(t, err)
}

func TestSQLiteMigrateAndUniqueKey(t *testing.T) {
	client := newMemoryDB(t)
	ctx := context.Background()

	require.NoError(t, client.Ping(ctx))

	row := model.MediaUpload{
		Key:        "1712000000000.png",
		FileID:     "f1",
		Kind:       "photo",
		Source:     "upload",
		UploadedAt: time.UnixMilli(1712000000000),
	}
	require.NoError(t, client.WithContext(ctx).Create(&row).Error)

	dup := row
	dup.ID = 0
	assert.Error(t, client.WithContext(ctx).Create(&dup).Error)

	var count int64
	require.NoError(t, client.WithContext(ctx).Model(&model.MediaUpload{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
