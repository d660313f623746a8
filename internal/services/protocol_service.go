package services

import (
	"context"
	"fmt"
	"time"

	"github.com/frosty888/eProtokoll/internal/apperrors"
	"github.com/frosty888/eProtokoll/internal/db/models"
	"github.com/frosty888/eProtokoll/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProtocolService issues the year-scoped sequential protocol numbers.
// The counter value is never cached in process memory; every allocation is a
// single atomic increment-and-fetch against the database.
type ProtocolService struct {
	db      *gorm.DB
	prefix  string
	logger  *zap.Logger
	metrics *metrics.MetricsCollector
}

func NewProtocolService(db *gorm.DB, prefix string, logger *zap.Logger, metrics *metrics.MetricsCollector) *ProtocolService {
	if prefix == "" {
		prefix = models.DefaultProtocolPrefix
	}
	return &ProtocolService{
		db:      db,
		prefix:  prefix,
		logger:  logger.With(zap.String("service", "protocol_service")),
		metrics: metrics,
	}
}

// AllocateNext returns the next protocol number for the year (current year
// when 0). No two calls ever return the same number: the increment and the
// read happen in one UPDATE ... RETURNING statement, so concurrent callers
// observe distinct contiguous counter values.
func (ps *ProtocolService) AllocateNext(ctx context.Context, year int) (string, error) {
	const op = "protocol.allocate"
	start := time.Now()

	if year == 0 {
		year = time.Now().Year()
	}

	// Lazily create the counter row for the year. Idempotent under races.
	seed := models.ProtocolCounter{Year: year, Counter: 0, Prefix: ps.prefix}
	if err := ps.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "year"}}, DoNothing: true}).
		Create(&seed).Error; err != nil {
		return "", apperrors.Allocation(op, err)
	}

	var row struct {
		Counter int64
		Prefix  string
	}
	res := ps.db.WithContext(ctx).
		Raw("UPDATE protocol_counters SET counter = counter + 1 WHERE year = ? RETURNING counter, prefix", year).
		Scan(&row)
	if res.Error != nil {
		return "", apperrors.Allocation(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return "", apperrors.Allocation(op, fmt.Errorf("counter row for year %d disappeared", year))
	}

	number := FormatProtocolNumber(row.Prefix, year, row.Counter)

	ps.metrics.ObserveLatency("protocol_allocation", time.Since(start))
	ps.logger.Debug("Allocated protocol number",
		zap.String("number", number),
		zap.Int("year", year),
		zap.Int64("counter", row.Counter))

	return number, nil
}

// FormatProtocolNumber renders PREFIX-YYYY-NNNN. The counter is zero padded
// to a minimum of 4 digits and never truncated, so lexicographic order on
// the result matches numeric order within a year.
func FormatProtocolNumber(prefix string, year int, counter int64) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, counter)
}
