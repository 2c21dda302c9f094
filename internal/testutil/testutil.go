// Package testutil wires an in-memory SQLite database and fixed key material
// for tests that exercise the real gorm repositories.
package testutil

import (
	"testing"

	mysqlinfra "github.com/charbel0004/Unishelf-sub000/internal/infra/mysql"
	"github.com/charbel0004/Unishelf-sub000/internal/security"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// IDKey is a fixed 32 byte key, only ever used by tests.
var IDKey = []byte("0123456789abcdef0123456789abcdef")

// NewDB opens a private in-memory database with the full schema. A single
// connection keeps every statement on the same in-memory instance.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	cfg := mysqlinfra.GormConfig(zerolog.Nop())
	cfg.Logger = logger.Discard
	db, err := gorm.Open(sqlite.Open(":memory:"), cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := mysqlinfra.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func NewObfuscator(t testing.TB) security.Obfuscator {
	t.Helper()
	o, err := security.NewObfuscator(IDKey)
	if err != nil {
		t.Fatalf("obfuscator: %v", err)
	}
	return o
}

func IntPtr(v int) *int { return &v }

func Uint64Ptr(v uint64) *uint64 { return &v }
