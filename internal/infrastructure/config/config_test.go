package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, DriverRedis, cfg.Cache.Driver)
	assert.Equal(t, 10*time.Second, cfg.Lock.InventoryWait)
	assert.Equal(t, 30*time.Second, cfg.Lock.InventoryLease)
	assert.Equal(t, 15*time.Second, cfg.Lock.CallbackLease)
	assert.Equal(t, 10*time.Minute, cfg.Idempotency.TokenTTL)
	assert.Equal(t, 30*time.Minute, cfg.Idempotency.RecordTTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile_EnvOverride(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: mysql\n  password: fromfile\n")
	t.Setenv("FLASHORDER_DATABASE_PASSWORD", "fromenv")
	t.Setenv("FLASHORDER_CACHE_DRIVER", "memory")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "fromenv", cfg.Database.Password)
	assert.Equal(t, DriverMemory, cfg.Cache.Driver)
}

func TestLoadFile_Validation(t *testing.T) {
	cases := map[string]string{
		"bad port":          "server:\n  port: 70000\n",
		"bad db driver":     "database:\n  driver: postgres\n",
		"bad cache driver":  "cache:\n  driver: memcached\n",
		"memory in release": "server:\n  mode: release\ncache:\n  driver: memory\n",
		"mq without url":    "mq:\n  enabled: true\n  url: \"\"\n",
		"zero lock lease":   "lock:\n  inventory_lease: 0s\n",
		"broken rate limit": "rate_limit:\n  enabled: true\n  requests: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		User: "root", Password: "pw", Host: "db", Port: 3306, DBName: "flashorder",
		Charset: "utf8mb4", ParseTime: true, Loc: "Asia/Shanghai",
	}
	assert.Equal(t, "root:pw@tcp(db:3306)/flashorder?charset=utf8mb4&parseTime=true&loc=Asia%2FShanghai", d.DSN())
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
