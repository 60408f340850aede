package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/BruksfildServices01/calendar-booking/internal/db"
	"github.com/BruksfildServices01/calendar-booking/internal/models"
)

// NewDB opens a migrated SQLite database in a temp dir. It is closed when
// the test ends.
func NewDB(tb testing.TB) *gorm.DB {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "booking.db")
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		tb.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		tb.Fatalf("failed to get sql.DB: %v", err)
	}
	// one writer at a time, like a row lock would give us
	sqlDB.SetMaxOpenConns(1)

	if err := db.Migrate(gdb); err != nil {
		_ = sqlDB.Close()
		tb.Fatalf("failed to migrate: %v", err)
	}

	tb.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

// Password is the plaintext behind every seeded user's hash.
const Password = "Passw0rd!"

// SeedUser inserts a user with the given email and role.
func SeedUser(tb testing.TB, gdb *gorm.DB, email, role string) *models.User {
	tb.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		tb.Fatalf("failed to hash password: %v", err)
	}

	u := &models.User{
		Name:         "Seeded User",
		Email:        email,
		PasswordHash: string(hash),
		ContactNo:    "9999999999",
		Role:         role,
	}
	if err := gdb.WithContext(context.Background()).Create(u).Error; err != nil {
		tb.Fatalf("failed to seed user: %v", err)
	}
	return u
}
