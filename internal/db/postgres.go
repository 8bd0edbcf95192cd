package db

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vietcv/skillpath/internal/platform/envutil"
	"github.com/vietcv/skillpath/internal/platform/logger"
	"github.com/vietcv/skillpath/internal/types"
)

// Service owns the relational connection backing skill metadata search.
// SKILL_DB_DRIVER=sqlite switches to a local file for development.
type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewService(log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "MetadataDB")

	var conn gorm.Dialector
	switch envutil.Str("SKILL_DB_DRIVER", "postgres") {
	case "sqlite":
		conn = sqlite.Open(envutil.Str("SKILL_DB_PATH", "skillpath.db"))
	default:
		dsn := fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=%s",
			envutil.Str("POSTGRES_USER", "postgres"),
			envutil.Str("POSTGRES_PASSWORD", ""),
			envutil.Str("POSTGRES_HOST", "localhost"),
			envutil.Str("POSTGRES_PORT", "5432"),
			envutil.Str("POSTGRES_NAME", "skillpath"),
			envutil.Str("POSTGRES_SSLMODE", "disable"),
		)
		conn = postgres.Open(dsn)
	}

	gdb, err := gorm.Open(conn, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect: %w", err)
	}
	return &Service{db: gdb, log: serviceLog}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

// AutoMigrateAll keeps the metadata schema current. The engine only reads
// the table; migration exists so local sqlite mode works out of the box.
func (s *Service) AutoMigrateAll() error {
	s.log.Info("migrating metadata tables")
	return s.db.AutoMigrate(&types.SkillMeta{})
}

// Healthy reports connectivity for the healthcheck endpoint.
func (s *Service) Healthy(ctx context.Context) bool {
	if s == nil || s.db == nil {
		return false
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.PingContext(ctx) == nil
}
