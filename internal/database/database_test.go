package database

import (
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/qs3c/hms_go_server/config"
	"github.com/qs3c/hms_go_server/internal/model"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestNewRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewRedis(&config.RedisConfig{Host: mr.Host(), Port: mustPort(t, mr.Port())})
	require.NoError(t, err)
	defer client.Close()
}

func TestNewRedis_Unreachable(t *testing.T) {
	_, err := NewRedis(&config.RedisConfig{Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
}

func mustPort(t *testing.T, s string) int {
	t.Helper()
	p, err := strconv.Atoi(s)
	require.NoError(t, err)
	return p
}

func TestMigrate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), gormConfig())
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	assert.True(t, db.Migrator().HasTable(&model.Booking{}))
	assert.True(t, db.Migrator().HasTable(&model.Invoice{}))

	// 重复执行不报错
	assert.NoError(t, Migrate(db))
}
