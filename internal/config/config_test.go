package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadRequiresTokens(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("CRYPTO_PAY_TOKEN", "cp")
	t.Setenv("LICENSE_KEY", "KEY-1")
	t.Setenv("ADMIN_IDS", "1, 2,nope,3")
	t.Setenv("REQUIRED_CHANNELS", "@one,@two")
	t.Setenv("CHANNEL_NAMES", "Один")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3}, cfg.AdminIDs)
	assert.Equal(t, "https://pay.crypt.bot/api", cfg.CryptoPayURL)
	assert.Equal(t, 1, cfg.MinGateChannels)
	assert.Equal(t, 24*time.Hour, cfg.SweepInterval)
	assert.Equal(t, 24*time.Hour, cfg.ExpiryWarning)
	assert.Equal(t, float64(90), cfg.UsdToRub)

	assert.Len(t, cfg.SeedChannels, 2)
	assert.Equal(t, "Один", cfg.SeedChannels[0].Title)
	// A missing name falls back to the username.
	assert.Equal(t, "@two", cfg.SeedChannels[1].Title)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.env")
	content := "# comment\nFOO_VALUE=bar\nexport QUOTED_VALUE='with spaces'\nPRESET_VALUE=from_file\n"
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("PRESET_VALUE", "from_env")
	t.Setenv("FOO_VALUE", "")
	os.Unsetenv("FOO_VALUE")
	os.Unsetenv("QUOTED_VALUE")

	assert.NoError(t, LoadEnvFile(path))

	assert.Equal(t, "bar", os.Getenv("FOO_VALUE"))
	assert.Equal(t, "with spaces", os.Getenv("QUOTED_VALUE"))
	// Already-set variables win over the file.
	assert.Equal(t, "from_env", os.Getenv("PRESET_VALUE"))
}

func TestLoadEnvFileMissingIsNoError(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")))
}
