package services

import (
	"context"
	"time"

	"github.com/frosty888/eProtokoll/internal/apperrors"
	"github.com/frosty888/eProtokoll/internal/db/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReportService derives read-only projections over the document collection.
// Reports run outside any transaction; a storage failure propagates instead
// of degrading to an empty result.
type ReportService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewReportService(db *gorm.DB, logger *zap.Logger) *ReportService {
	return &ReportService{
		db:     db,
		logger: logger.With(zap.String("service", "report_service")),
	}
}

type YearStatistics struct {
	Year     int            `json:"year"`
	Total    int            `json:"total"`
	Incoming int            `json:"incoming"`
	Outgoing int            `json:"outgoing"`
	Internal int            `json:"internal"`
	Pending  int            `json:"pending"`
	Approved int            `json:"approved"`
	Rejected int            `json:"rejected"`
	Archived int            `json:"archived"`
	Overdue  int            `json:"overdue"`
	DueSoon  int            `json:"due_soon"`
	Monthly  [12]MonthStats `json:"monthly"`
}

type MonthStats struct {
	Incoming int `json:"incoming"`
	Outgoing int `json:"outgoing"`
	Internal int `json:"internal"`
}

// Statistics aggregates the documents created in the given calendar year.
// Due-soon means PENDING with a deadline within the next three days,
// counted at day granularity with ceiling division.
func (rs *ReportService) Statistics(ctx context.Context, year int, now time.Time) (*YearStatistics, error) {
	const op = "report.statistics"

	if year == 0 {
		year = now.Year()
	}
	start, end := yearRange(year)

	var docs []models.Document
	if err := rs.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", start, end).
		Find(&docs).Error; err != nil {
		return nil, apperrors.Persistence(op, "", err)
	}

	stats := &YearStatistics{Year: year, Total: len(docs)}
	for i := range docs {
		d := &docs[i]

		switch d.DocumentType {
		case models.TypeIncoming:
			stats.Incoming++
		case models.TypeOutgoing:
			stats.Outgoing++
		case models.TypeInternal:
			stats.Internal++
		}

		switch d.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusApproved:
			stats.Approved++
		case models.StatusRejected:
			stats.Rejected++
		case models.StatusArchived:
			stats.Archived++
		}

		if d.IsOverdue(now) {
			stats.Overdue++
		}
		if isDueSoon(d, now) {
			stats.DueSoon++
		}

		month := d.CreatedAt.Month() - 1
		switch d.DocumentType {
		case models.TypeIncoming:
			stats.Monthly[month].Incoming++
		case models.TypeOutgoing:
			stats.Monthly[month].Outgoing++
		case models.TypeInternal:
			stats.Monthly[month].Internal++
		}
	}

	return stats, nil
}

// ProtocolBook lists the year's documents that carry a protocol number,
// ordered by the number. Lexicographic order matches numeric order because
// the counter is zero padded.
func (rs *ReportService) ProtocolBook(ctx context.Context, year int, now time.Time) ([]models.Document, error) {
	const op = "report.protocol_book"

	if year == 0 {
		year = now.Year()
	}
	start, end := yearRange(year)

	var docs []models.Document
	if err := rs.db.WithContext(ctx).
		Where("protocol_number IS NOT NULL").
		Where("created_at >= ? AND created_at < ?", start, end).
		Order("protocol_number ASC").
		Find(&docs).Error; err != nil {
		return nil, apperrors.Persistence(op, "", err)
	}
	return docs, nil
}

// Deadlines lists every pending document that has a deadline, tightest first.
func (rs *ReportService) Deadlines(ctx context.Context) ([]models.Document, error) {
	const op = "report.deadlines"

	var docs []models.Document
	if err := rs.db.WithContext(ctx).
		Where("deadline IS NOT NULL AND status = ?", models.StatusPending).
		Order("deadline ASC").
		Find(&docs).Error; err != nil {
		return nil, apperrors.Persistence(op, "", err)
	}
	return docs, nil
}

type DashboardSummary struct {
	TotalDocuments   int64             `json:"total_documents"`
	PendingDocuments int64             `json:"pending_documents"`
	ActiveUsers      int64             `json:"active_users"`
	RecentDocuments  []models.Document `json:"recent_documents"`
}

// Dashboard returns the landing-page counters and the ten newest documents.
func (rs *ReportService) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	const op = "report.dashboard"

	summary := &DashboardSummary{}

	if err := rs.db.WithContext(ctx).Model(&models.Document{}).
		Count(&summary.TotalDocuments).Error; err != nil {
		return nil, apperrors.Persistence(op, "", err)
	}
	if err := rs.db.WithContext(ctx).Model(&models.Document{}).
		Where("status = ?", models.StatusPending).
		Count(&summary.PendingDocuments).Error; err != nil {
		return nil, apperrors.Persistence(op, "", err)
	}
	if err := rs.db.WithContext(ctx).Model(&models.User{}).
		Where("is_active = ?", true).
		Count(&summary.ActiveUsers).Error; err != nil {
		return nil, apperrors.Persistence(op, "", err)
	}
	if err := rs.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(10).
		Find(&summary.RecentDocuments).Error; err != nil {
		return nil, apperrors.Persistence(op, "", err)
	}

	return summary, nil
}

func yearRange(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

func isDueSoon(d *models.Document, now time.Time) bool {
	if d.Deadline == nil || d.Status != models.StatusPending {
		return false
	}
	left := d.Deadline.Sub(now)
	daysLeft := int64(left / (24 * time.Hour))
	if left%(24*time.Hour) > 0 {
		daysLeft++
	}
	return daysLeft >= 0 && daysLeft <= 3
}
