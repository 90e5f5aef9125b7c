package configs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/moments/pkg/configs"
)

func TestInitConfigDefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, configs.InitConfig(dir))

	cfg := configs.GetConfig()
	assert.Equal(t, configs.DefaultPort, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.KV.Type)
	assert.Equal(t, configs.DefaultTelegramAPIBase, cfg.Telegram.APIBase)
	assert.Equal(t, configs.DefaultMediaCacheMaxAge, cfg.Media.CacheMaxAge)
	assert.Equal(t, configs.MQTypeGoChannel, cfg.MQ.Type)
	assert.False(t, cfg.Events.Enabled)
	assert.False(t, cfg.DB.Enabled)
}

func TestInitConfigEnvOverride(t *testing.T) {
	t.Setenv("MOMENTS_TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("MOMENTS_TELEGRAM_CHAT_ID", "-100200300")
	t.Setenv("MOMENTS_MEDIA_PUBLIC_DOMAIN", "https://moments.example.com/")

	require.NoError(t, configs.InitConfig(t.TempDir()))

	cfg := configs.GetConfig()
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, "-100200300", cfg.Telegram.ChatID)
	assert.Equal(t, "https://moments.example.com", cfg.Media.Domain())
	assert.NoError(t, configs.Validate())
}

func TestInitConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`server:
  port: 9000
  reload_config: false
telegram:
  bot_token: "42:token"
  chat_id: "@moments_media"
media:
  public_domain: "https://cdn.example.com"
  cache_max_age: 600
kv:
  type: redis
  redis:
    addr: "redis:6379"
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	require.NoError(t, configs.InitConfig(dir))

	cfg := configs.GetConfig()
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.KV.Type)
	assert.Equal(t, "redis:6379", cfg.KV.Redis.Addr)
	assert.Equal(t, 600, cfg.Media.CacheMaxAge)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRequiresTelegramCredentials(t *testing.T) {
	require.NoError(t, configs.InitConfig(t.TempDir()))

	cfg := *configs.GetConfig()
	cfg.Telegram.BotToken = ""
	cfg.Telegram.ChatID = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram")
}

func TestValidateRejectsUnknownKVType(t *testing.T) {
	require.NoError(t, configs.InitConfig(t.TempDir()))

	cfg := *configs.GetConfig()
	cfg.Telegram.BotToken = "1:a"
	cfg.Telegram.ChatID = "1"
	cfg.KV.Type = "etcd"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kv")
}

func TestValidateRejectsGroupcachePeers(t *testing.T) {
	require.NoError(t, configs.InitConfig(t.TempDir()))

	cfg := *configs.GetConfig()
	cfg.Telegram.BotToken = "1:a"
	cfg.Telegram.ChatID = "1"
	cfg.KV.Type = "groupcache"
	require.NoError(t, cfg.Validate())

	cfg.KV.Groupcache.Peers = []string{"http://10.0.0.1:8080"}
	assert.ErrorIs(t, cfg.Validate(), configs.ErrGroupcachePeers)

	cfg.KV.Type = "memory"
	assert.NoError(t, cfg.Validate())
}

func TestTelegramEndpoints(t *testing.T) {
	c := configs.TelegramConfig{APIBase: "https://api.telegram.org/", BotToken: "1:abc"}

	assert.Equal(t, "https://api.telegram.org/bot1:abc/sendDocument", c.BotEndpoint("sendDocument"))
	assert.Equal(t, "https://api.telegram.org/file/bot1:abc/videos/file_1.mp4", c.FileEndpoint("videos/file_1.mp4"))
}

func TestDBConfigDSN(t *testing.T) {
	c := configs.DBConfig{Type: "pg", Host: "db", Port: 5432, User: "u", Password: "p", Database: "moments", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=moments sslmode=disable", c.GetDSN())
	assert.Equal(t, "PostgreSQL", c.GetDBType())

	c = configs.DBConfig{Type: configs.SQLite, Database: "moments"}
	assert.Equal(t, "file:moments.db", c.GetDSN())

	c.Database = ":memory:"
	assert.Equal(t, ":memory:", c.GetDSN())
}
