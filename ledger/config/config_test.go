package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pingcap-incubator/tinyledger/ledger/util/typeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.Nil(t, cfg.Validate())
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, defaultLatchSlots, cfg.LatchSlots)
}

func TestValidate(t *testing.T) {
	cfg := NewTestConfig()
	cfg.Storage = "sqlite"
	assert.NotNil(t, cfg.Validate())

	cfg = NewTestConfig()
	cfg.LatchSlots = -1
	assert.NotNil(t, cfg.Validate())

	cfg = NewTestConfig()
	cfg.RateLimit = 10
	cfg.RateBurst = 0
	assert.NotNil(t, cfg.Validate())

	cfg = NewTestConfig()
	cfg.Engine.NumL0TablesStall = 1
	assert.NotNil(t, cfg.Validate())
}

func TestParseFileAndFlags(t *testing.T) {
	dir, err := ioutil.TempDir("", "ledger_config")
	require.Nil(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "ledger.toml")
	content := `
app-name = "SecurePay"
admin-api-key = "secret"
storage = "badger"
rate-limit = 50.0
unknown-item = 1

shutdown-timeout = "3s"

[engine]
db-path = "/var/lib/ledger"
num-compactors = 2
max-table-size = "32MB"
`
	require.Nil(t, ioutil.WriteFile(path, []byte(content), 0644))

	cfg := NewConfig()
	err = cfg.Parse([]string{"-config", path, "-addr", "0.0.0.0:9000"})
	require.Nil(t, err)

	assert.Equal(t, "SecurePay", cfg.AppName)
	assert.Equal(t, "secret", cfg.AdminAPIKey)
	assert.Equal(t, StorageBadger, cfg.Storage)
	assert.Equal(t, "0.0.0.0:9000", cfg.HTTPAddr)
	assert.Equal(t, "/var/lib/ledger", cfg.Engine.DBPath)
	assert.Equal(t, 2, cfg.Engine.NumCompactors)
	assert.Equal(t, typeutil.ByteSize(32*MB), cfg.Engine.MaxTableSize)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout.Duration)
	assert.Equal(t, typeutil.ByteSize(256*MB), cfg.Engine.VlogFileSize)
	// Not set in the file, so the default survives.
	assert.Equal(t, 4, cfg.Engine.NumL0Tables)
	assert.Equal(t, int64(defaultRateBurst), cfg.RateBurst)
	require.Len(t, cfg.WarningMsgs, 1)
	assert.Contains(t, cfg.WarningMsgs[0], "unknown-item")
}

func TestParseRejectsPositionalArgs(t *testing.T) {
	cfg := NewConfig()
	err := cfg.Parse([]string{"extra"})
	assert.NotNil(t, err)
}

func TestStringHidesAPIKey(t *testing.T) {
	cfg := NewTestConfig()
	assert.NotContains(t, cfg.String(), cfg.AdminAPIKey)
}
