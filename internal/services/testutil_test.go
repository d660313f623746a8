package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/frosty888/eProtokoll/internal/db/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frosty888/eProtokoll/pkg/metrics"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// Serialize access; sqlite returns SQLITE_BUSY under concurrent writers.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Institution{},
		&models.ProtocolCounter{},
		&models.Document{},
		&models.RoutingEvent{},
		&models.DocumentAssignment{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestServices(t *testing.T, db *gorm.DB) (*ProtocolService, *DocumentService) {
	t.Helper()
	logger := zap.NewNop()
	collector := metrics.NewMetricsCollector()
	ps := NewProtocolService(db, "", logger, collector)
	ds := NewDocumentService(db, ps, logger, collector)
	return ps, ds
}

func seedUser(t *testing.T, db *gorm.DB, username string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		PasswordHash: "x",
		FullName:     username + " Test",
		Role:         role,
		Department:   "Operations",
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user
}

func timePtr(t time.Time) *time.Time {
	return &t
}
