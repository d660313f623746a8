package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frosty888/eProtokoll/internal/api"
	"github.com/frosty888/eProtokoll/internal/config"
	"github.com/frosty888/eProtokoll/internal/db"
	"github.com/frosty888/eProtokoll/internal/db/models"
	"github.com/frosty888/eProtokoll/internal/services"
	"github.com/frosty888/eProtokoll/internal/storage"
	"github.com/frosty888/eProtokoll/internal/utils"
	"github.com/frosty888/eProtokoll/pkg/logger"
	"github.com/frosty888/eProtokoll/pkg/metrics"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	var cfg *config.Configuration
	var err error
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		cfg, err = config.LoadConfig(path)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	} else {
		cfg = config.InitializeDefaultConfig()
	}

	zapLogger, err := logger.NewLogger(cfg.Logging.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zap.ReplaceGlobals(zapLogger)

	config.LogConfig(zapLogger)

	database, err := db.Initialize(cfg)
	if err != nil {
		zapLogger.Fatal("Failed to initialize database", zap.Error(err))
	}

	metricsCollector := metrics.NewMetricsCollector()

	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		zapLogger.Fatal("Failed to initialize blob store", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := seedDatabase(ctx, database, zapLogger); err != nil {
		zapLogger.Fatal("Failed to seed database", zap.Error(err))
	}

	protocolService := services.NewProtocolService(database, cfg.Protocol.Prefix, zapLogger, metricsCollector)
	documentService := services.NewDocumentService(database, protocolService, zapLogger, metricsCollector)
	reportService := services.NewReportService(database, zapLogger)
	userService := services.NewUserService(database, zapLogger)
	institutionService := services.NewInstitutionService(database, zapLogger)
	authService := services.NewAuthService(database, cfg.Session.SessionTimeout, zapLogger)

	router := api.NewRouter(cfg, zapLogger, metricsCollector,
		authService, documentService, reportService, userService, institutionService,
		store, database)
	router.SetupRoutes()

	go func() {
		if err := router.Run(":" + cfg.Server.Port); err != nil {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()
	zapLogger.Info("Server started", zap.String("port", cfg.Server.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	sqlDB, err := database.DB()
	if err == nil {
		sqlDB.Close()
	}
	zapLogger.Info("Server gracefully stopped")
}

// seedDatabase creates the first admin account and the protocol counter for
// the current year on an empty database.
func seedDatabase(ctx context.Context, database *gorm.DB, logger *zap.Logger) error {
	var count int64
	if err := database.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Database already seeded, skipping")
		return nil
	}
	logger.Info("Seeding database with initial data")

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "changeme"
		logger.Warn("ADMIN_PASSWORD not set, using default admin password")
	}
	hash, err := utils.EncryptPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Username:     "admin",
		PasswordHash: hash,
		FullName:     "Administrator",
		Role:         models.RoleAdmin,
		Department:   "Administration",
		IsActive:     true,
	}
	if err := database.WithContext(ctx).Create(&admin).Error; err != nil {
		return err
	}
	logger.Info("Created initial admin user", zap.Uint("user_id", admin.ID))

	institutions := []models.Institution{
		{Name: "Ministry of Interior", Type: models.InstGovernment, IsActive: true},
		{Name: "City Council", Type: models.InstGovernment, IsActive: true},
	}
	for i := range institutions {
		if err := database.WithContext(ctx).Where(models.Institution{Name: institutions[i].Name}).
			FirstOrCreate(&institutions[i]).Error; err != nil {
			return err
		}
	}
	logger.Info("Seeded reference institutions", zap.Int("count", len(institutions)))

	year := time.Now().Year()
	counter := models.ProtocolCounter{Year: year, Counter: 0, Prefix: models.DefaultProtocolPrefix}
	if err := database.WithContext(ctx).Where(models.ProtocolCounter{Year: year}).
		FirstOrCreate(&counter).Error; err != nil {
		return err
	}
	logger.Info("Protocol counter initialized", zap.Int("year", year))

	return nil
}
