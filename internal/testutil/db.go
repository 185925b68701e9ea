package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/qs3c/hms_go_server/internal/model"
)

// SetupTestDB 创建测试数据库（SQLite 内存模式）
// 内存库只存在于单个连接上，连接数固定为 1，并发事务会在连接池上排队。
// SQLite 忽略 FOR UPDATE，行锁只在 MySQL/Postgres 上生效，见 integration 构建标签下的测试
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("Failed to connect test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get underlying DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// CleanupTestDB 清理测试数据库
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	if err != nil {
		t.Logf("Warning: Failed to get underlying DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		t.Logf("Warning: Failed to close test database: %v", err)
	}
}

// TruncateTables 清空所有表数据，供连接共享数据库的集成测试使用
func TruncateTables(t *testing.T, db *gorm.DB) {
	t.Helper()

	// 逆序删除，先删引用方
	models := model.All()
	for i := len(models) - 1; i >= 0; i-- {
		m := models[i]
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			t.Fatalf("Failed to parse model %T: %v", m, err)
		}
		if err := db.Exec(fmt.Sprintf("DELETE FROM %s", stmt.Schema.Table)).Error; err != nil {
			t.Fatalf("Failed to truncate table %s: %v", stmt.Schema.Table, err)
		}
	}
}
