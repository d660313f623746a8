package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frosty888/eProtokoll/internal/apperrors"
	"github.com/frosty888/eProtokoll/internal/db/models"
	"github.com/frosty888/eProtokoll/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocumentService owns the document lifecycle: registration with a protocol
// number, the append-only routing trail, delegation and status transitions.
type DocumentService struct {
	db              *gorm.DB
	protocolService *ProtocolService
	logger          *zap.Logger
	metrics         *metrics.MetricsCollector
}

func NewDocumentService(db *gorm.DB, protocolService *ProtocolService, logger *zap.Logger, metrics *metrics.MetricsCollector) *DocumentService {
	return &DocumentService{
		db:              db,
		protocolService: protocolService,
		logger:          logger.With(zap.String("service", "document_service")),
		metrics:         metrics,
	}
}

type CreateDocumentInput struct {
	Type           models.DocumentType
	Title          string
	Description    string
	Classification models.Classification
	Deadline       *time.Time
	Department     string
	Correspondence models.Correspondence
	UploaderID     uint

	FileName string
	FilePath string
	FileSize int64
}

// Create registers a document: validates the input, allocates the next
// protocol number and persists the record with status PENDING. An allocation
// failure aborts the whole creation; no document is ever stored without a
// protocol number.
func (ds *DocumentService) Create(ctx context.Context, in CreateDocumentInput) (*models.Document, error) {
	const op = "document.create"
	start := time.Now()

	if in.Title == "" {
		return nil, apperrors.Validation(op, "title is required")
	}
	if in.Type == "" {
		return nil, apperrors.Validation(op, "document type is required")
	}
	if !in.Type.Valid() {
		return nil, apperrors.Validation(op, "unknown document type %q", in.Type)
	}
	if in.UploaderID == 0 {
		return nil, apperrors.Validation(op, "uploader is required")
	}
	if in.Classification == "" {
		in.Classification = models.ClassPublic
	}
	if !in.Classification.Valid() {
		return nil, apperrors.Validation(op, "unknown classification %q", in.Classification)
	}

	corr := in.Correspondence.NormalizeFor(in.Type)

	number, err := ds.protocolService.AllocateNext(ctx, 0)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		ProtocolNumber:  &number,
		Title:           in.Title,
		Description:     in.Description,
		DocumentType:    in.Type,
		ReceivedFrom:    corr.ReceivedFrom,
		SentTo:          corr.SentTo,
		FromDepartment:  corr.FromDepartment,
		ToDepartment:    corr.ToDepartment,
		ExternalAddress: corr.ExternalAddress,
		Classification:  in.Classification,
		Status:          models.StatusPending,
		Deadline:        in.Deadline,
		Department:      in.Department,
		FileName:        in.FileName,
		FilePath:        in.FilePath,
		FileSize:        in.FileSize,
		UploadedBy:      in.UploaderID,
	}

	if err := ds.db.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, apperrors.Persistence(op, number, err)
	}

	ds.metrics.IncrementCounter("documents_registered", map[string]string{"type": string(in.Type)})
	ds.metrics.ObserveLatency("document_create", time.Since(start))
	ds.metrics.ObserveSize("document_size", float64(in.FileSize))
	ds.logger.Info("Document registered",
		zap.Uint("doc_id", doc.ID),
		zap.String("protocol_number", number),
		zap.Uint("uploader", in.UploaderID))

	return doc, nil
}

// Get loads a document with its routing trail and assignment set, enforcing
// the classification rules for the acting user.
func (ds *DocumentService) Get(ctx context.Context, docID, actorID uint, role models.UserRole) (*models.Document, error) {
	const op = "document.get"

	doc, err := ds.load(ctx, op, docID)
	if err != nil {
		return nil, err
	}
	if !CanView(doc.Classification, role, actorID, doc.UploadedBy) {
		return nil, apperrors.Permission(op, fmt.Sprintf("document %d", docID))
	}
	return doc, nil
}

// List returns the documents visible to the actor, newest first. Visibility
// is the classification tiers of the role plus the actor's own uploads.
func (ds *DocumentService) List(ctx context.Context, actorID uint, role models.UserRole) ([]models.Document, error) {
	const op = "document.list"

	var docs []models.Document
	if err := ds.db.WithContext(ctx).
		Where("classification IN ? OR uploaded_by = ?", VisibleClassifications(role), actorID).
		Order("created_at DESC").
		Find(&docs).Error; err != nil {
		return nil, apperrors.Persistence(op, "", err)
	}
	return docs, nil
}

// ListAssignedTo returns the pending documents delegated to the user,
// tightest deadline first; documents without a deadline sort last, ties
// break on newest creation.
func (ds *DocumentService) ListAssignedTo(ctx context.Context, userID uint) ([]models.Document, error) {
	const op = "document.list_assigned"

	var docs []models.Document
	if err := ds.db.WithContext(ctx).
		Joins("JOIN document_assignments ON document_assignments.document_id = documents.id").
		Where("document_assignments.user_id = ? AND documents.status = ?", userID, models.StatusPending).
		Order("documents.deadline IS NULL").
		Order("documents.deadline ASC").
		Order("documents.created_at DESC").
		Find(&docs).Error; err != nil {
		return nil, apperrors.Persistence(op, "", err)
	}
	return docs, nil
}

// Delegate routes a document to another user for action. Only managers and
// admins delegate. The target joins the assignment set with set semantics,
// the trail records the event, and a response deadline, when given, replaces
// the document deadline outright.
func (ds *DocumentService) Delegate(ctx context.Context, docID, actorID uint, role models.UserRole, targetID uint, action, remarks string, responseDeadline *time.Time) error {
	const op = "document.delegate"

	if !CanModerate(role) {
		return apperrors.Permission(op, fmt.Sprintf("document %d", docID))
	}

	doc, err := ds.load(ctx, op, docID)
	if err != nil {
		return err
	}

	var target models.User
	if err := ds.db.WithContext(ctx).First(&target, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound(op, fmt.Sprintf("user %d", targetID))
		}
		return apperrors.Persistence(op, fmt.Sprintf("user %d", targetID), err)
	}
	if !target.IsActive {
		return apperrors.Validation(op, "user %d is not active", targetID)
	}

	if action == "" {
		action = "delegated for response"
	}

	now := time.Now()
	err = ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := appendRouting(tx, doc.ID, actorID, &targetID, action, remarks, now); err != nil {
			return err
		}

		if err := tx.Where(models.DocumentAssignment{DocumentID: doc.ID, UserID: targetID}).
			FirstOrCreate(&models.DocumentAssignment{DocumentID: doc.ID, UserID: targetID}).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"updated_at": now}
		if responseDeadline != nil {
			updates["deadline"] = *responseDeadline
		}
		return tx.Model(&models.Document{}).Where("id = ?", doc.ID).Updates(updates).Error
	})
	if err != nil {
		return apperrors.Persistence(op, fmt.Sprintf("document %d", docID), err)
	}

	ds.metrics.IncrementCounter("delegations", nil)
	ds.logger.Info("Document delegated",
		zap.Uint("doc_id", docID),
		zap.Uint("from", actorID),
		zap.Uint("to", targetID))
	return nil
}

// Respond appends a general (undirected) response to the trail. The actor
// stays in the assignment set and the status is untouched.
func (ds *DocumentService) Respond(ctx context.Context, docID, actorID uint, role models.UserRole, response, remarks string) error {
	const op = "document.respond"

	doc, err := ds.load(ctx, op, docID)
	if err != nil {
		return err
	}
	if !CanRespond(doc, actorID, role) {
		return apperrors.Permission(op, fmt.Sprintf("document %d", docID))
	}

	if response == "" {
		response = "responded"
	}

	now := time.Now()
	err = ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := appendRouting(tx, doc.ID, actorID, nil, response, remarks, now); err != nil {
			return err
		}
		return tx.Model(&models.Document{}).Where("id = ?", doc.ID).
			Update("updated_at", now).Error
	})
	if err != nil {
		return apperrors.Persistence(op, fmt.Sprintf("document %d", docID), err)
	}

	ds.metrics.IncrementCounter("responses", nil)
	return nil
}

// ChangeStatus moves the document to the new status and notifies the
// uploader through the trail. Any status may move to any other.
func (ds *DocumentService) ChangeStatus(ctx context.Context, docID, actorID uint, role models.UserRole, newStatus models.DocumentStatus, remarks string) error {
	const op = "document.change_status"

	if !CanModerate(role) {
		return apperrors.Permission(op, fmt.Sprintf("document %d", docID))
	}
	if !newStatus.Valid() {
		return apperrors.Validation(op, "unknown status %q", newStatus)
	}

	doc, err := ds.load(ctx, op, docID)
	if err != nil {
		return err
	}

	action := "rejected/updated"
	if newStatus == models.StatusApproved {
		action = "approved"
	}

	now := time.Now()
	uploader := doc.UploadedBy
	err = ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := appendRouting(tx, doc.ID, actorID, &uploader, action, remarks, now); err != nil {
			return err
		}
		return tx.Model(&models.Document{}).Where("id = ?", doc.ID).
			Updates(map[string]interface{}{"status": newStatus, "updated_at": now}).Error
	})
	if err != nil {
		return apperrors.Persistence(op, fmt.Sprintf("document %d", docID), err)
	}

	ds.metrics.IncrementCounter("status_changes", map[string]string{"status": string(newStatus)})
	ds.logger.Info("Document status changed",
		zap.Uint("doc_id", docID),
		zap.String("status", string(newStatus)),
		zap.Uint("actor", actorID))
	return nil
}

func (ds *DocumentService) load(ctx context.Context, op string, docID uint) (*models.Document, error) {
	var doc models.Document
	err := ds.db.WithContext(ctx).
		Preload("Routing", func(db *gorm.DB) *gorm.DB { return db.Order("routing_events.id ASC") }).
		Preload("AssignedTo").
		First(&doc, docID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(op, fmt.Sprintf("document %d", docID))
		}
		return nil, apperrors.Persistence(op, fmt.Sprintf("document %d", docID), err)
	}
	return &doc, nil
}

// appendRouting is the single write path into the trail. Events are only
// ever inserted; nothing updates or deletes a routing row.
func appendRouting(tx *gorm.DB, docID, fromID uint, toID *uint, action, remarks string, at time.Time) error {
	return tx.Create(&models.RoutingEvent{
		DocumentID: docID,
		FromUserID: fromID,
		ToUserID:   toID,
		Action:     action,
		Remarks:    remarks,
		Date:       at,
	}).Error
}
