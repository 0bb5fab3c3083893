package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[mainConfig]
port = 9100

[databaseConfig]
driver = "sqlite"
databaseName = "pair.db"

[giftConfig]
requestExpiry = "90s"

[agentConfig]
mailboxMax = "6s"
`), 0o644))

	t.Setenv("PAIR_GIFT_TOKEN_SECRET", "from-env")

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, c.MainConfig.Port)
	assert.Equal(t, "sqlite", c.DatabaseConfig.Driver)
	assert.Equal(t, 90*time.Second, c.GiftConfig.RequestExpiry)
	assert.Equal(t, "from-env", c.GiftConfig.TokenSecret)
	assert.Equal(t, 6*time.Second, c.AgentConfig.MailboxMax)
	// 未配置的字段取默认值
	assert.Equal(t, 3*time.Second, c.AgentConfig.MailboxBase)
	assert.Equal(t, 30, c.AgentConfig.DurationFloorSecs)
	assert.Equal(t, "http://127.0.0.1:9100", c.AgentConfig.BaseURL)
}

func TestLoadConfigMissingFile(t *testing.T) {
	c, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "channel", c.KafkaConfig.MessageMode)
	assert.Equal(t, 2*time.Minute, c.GiftConfig.RequestExpiry)
}
