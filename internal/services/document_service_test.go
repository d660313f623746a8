package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/frosty888/eProtokoll/internal/apperrors"
	"github.com/frosty888/eProtokoll/internal/db/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTestDocument(t *testing.T, ds *DocumentService, uploader uint, in CreateDocumentInput) *models.Document {
	t.Helper()
	if in.Type == "" {
		in.Type = models.TypeIncoming
	}
	if in.Title == "" {
		in.Title = "Test Document"
	}
	in.UploaderID = uploader
	doc, err := ds.Create(context.Background(), in)
	require.NoError(t, err)
	return doc
}

func TestCreateValidation(t *testing.T) {
	db := setupTestDB(t)
	_, ds := newTestServices(t, db)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateDocumentInput
	}{
		{"missing title", CreateDocumentInput{Type: models.TypeIncoming, UploaderID: 1}},
		{"missing type", CreateDocumentInput{Title: "x", UploaderID: 1}},
		{"unknown type", CreateDocumentInput{Title: "x", Type: "FAX", UploaderID: 1}},
		{"missing uploader", CreateDocumentInput{Title: "x", Type: models.TypeIncoming}},
		{"unknown classification", CreateDocumentInput{Title: "x", Type: models.TypeIncoming, UploaderID: 1, Classification: "TOP"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ds.Create(ctx, tc.in)
			require.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}

	// Nothing was persisted and no protocol number was consumed.
	var docs int64
	require.NoError(t, db.Model(&models.Document{}).Count(&docs).Error)
	require.Zero(t, docs)
	var counter models.ProtocolCounter
	err := db.Where("year = ?", time.Now().Year()).First(&counter).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCreateAssignsProtocolNumberAndDefaults(t *testing.T) {
	db := setupTestDB(t)
	_, ds := newTestServices(t, db)
	uploader := seedUser(t, db, "u1", models.RoleStaff)

	year := time.Now().Year()
	require.NoError(t, db.Create(&models.ProtocolCounter{Year: year, Counter: 3, Prefix: "PROT"}).Error)

	doc := createTestDocument(t, ds, uploader.ID, CreateDocumentInput{Title: "Invoice"})

	require.NotNil(t, doc.ProtocolNumber)
	require.Equal(t, fmt.Sprintf("PROT-%d-0004", year), *doc.ProtocolNumber)
	require.Equal(t, models.StatusPending, doc.Status)
	require.Equal(t, models.ClassPublic, doc.Classification)
	require.False(t, doc.CreatedAt.IsZero())
	require.False(t, doc.UpdatedAt.IsZero())
}

func TestCreateStripsForeignCorrespondenceFields(t *testing.T) {
	db := setupTestDB(t)
	_, ds := newTestServices(t, db)
	uploader := seedUser(t, db, "u1", models.RoleStaff)

	doc := createTestDocument(t, ds, uploader.ID, CreateDocumentInput{
		Type: models.TypeIncoming,
		Correspondence: models.Correspondence{
			ReceivedFrom:    "Ministry of Finance",
			ExternalAddress: "Tirana",
			SentTo:          "should be dropped",
			FromDepartment:  "should be dropped",
			ToDepartment:    "should be dropped",
		},
	})

	var stored models.Document
	require.NoError(t, db.First(&stored, doc.ID).Error)
	require.Equal(t, "Ministry of Finance", stored.ReceivedFrom)
	require.Equal(t, "Tirana", stored.ExternalAddress)
	require.Empty(t, stored.SentTo)
	require.Empty(t, stored.FromDepartment)
	require.Empty(t, stored.ToDepartment)
}

func TestCorrespondenceNormalizePerType(t *testing.T) {
	full := models.Correspondence{
		ReceivedFrom:    "rf",
		SentTo:          "st",
		FromDepartment:  "fd",
		ToDepartment:    "td",
		ExternalAddress: "ea",
	}

	in := full.NormalizeFor(models.TypeIncoming)
	require.Equal(t, models.Correspondence{ReceivedFrom: "rf", ExternalAddress: "ea"}, in)

	out := full.NormalizeFor(models.TypeOutgoing)
	require.Equal(t, models.Correspondence{SentTo: "st", ExternalAddress: "ea"}, out)

	internal := full.NormalizeFor(models.TypeInternal)
	require.Equal(t, models.Correspondence{FromDepartment: "fd", ToDepartment: "td"}, internal)
}

func TestIsOverdueDerivation(t *testing.T) {
	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)

	doc := &models.Document{Status: models.StatusPending, Deadline: &yesterday}
	require.True(t, doc.IsOverdue(now))

	doc.Status = models.StatusApproved
	require.False(t, doc.IsOverdue(now), "approved documents are never overdue")
	require.Equal(t, yesterday, *doc.Deadline, "deadline itself stays untouched")

	doc.Status = models.StatusPending
	doc.Deadline = nil
	require.False(t, doc.IsOverdue(now), "no deadline, never overdue")

	tomorrow := now.Add(24 * time.Hour)
	doc.Deadline = &tomorrow
	require.False(t, doc.IsOverdue(now))
}

func TestGetEnforcesClassification(t *testing.T) {
	db := setupTestDB(t)
	_, ds := newTestServices(t, db)
	ctx := context.Background()
	uploader := seedUser(t, db, "uploader", models.RoleStaff)
	other := seedUser(t, db, "other", models.RoleStaff)
	manager := seedUser(t, db, "manager", models.RoleManager)

	doc := createTestDocument(t, ds, uploader.ID, CreateDocumentInput{
		Classification: models.ClassSecret,
	})

	_, err := ds.Get(ctx, doc.ID, other.ID, other.Role)
	require.ErrorIs(t, err, apperrors.ErrPermission)

	_, err = ds.Get(ctx, doc.ID, manager.ID, manager.Role)
	require.ErrorIs(t, err, apperrors.ErrPermission, "secret is admin-only")

	got, err := ds.Get(ctx, doc.ID, uploader.ID, uploader.Role)
	require.NoError(t, err, "uploader always sees their own document")
	require.Equal(t, doc.ID, got.ID)

	_, err = ds.Get(ctx, 9999, uploader.ID, uploader.Role)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDelegatePermissionsAndTargets(t *testing.T) {
	db := setupTestDB(t)
	_, ds := newTestServices(t, db)
	ctx := context.Background()
	uploader := seedUser(t, db, "uploader", models.RoleStaff)
	staff := seedUser(t, db, "staff", models.RoleStaff)
	manager := seedUser(t, db, "manager", models.RoleManager)
	inactive := seedUser(t, db, "inactive", models.RoleStaff)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	doc := createTestDocument(t, ds, uploader.ID, CreateDocumentInput{})

	err := ds.Delegate(ctx, doc.ID, staff.ID, staff.Role, manager.ID, "", "", nil)
	require.ErrorIs(t, err, apperrors.ErrPermission, "staff may never delegate")

	err = ds.Delegate(ctx, doc.ID, manager.ID, manager.Role, 9999, "", "", nil)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	err = ds.Delegate(ctx, doc.ID, manager.ID, manager.Role, inactive.ID, "", "", nil)
	require.ErrorIs(t, err, apperrors.ErrValidation)

	err = ds.Delegate(ctx, doc.ID, manager.ID, manager.Role, staff.ID, "", "follow up", nil)
	require.NoError(t, err)

	got, err := ds.Get(ctx, doc.ID, manager.ID, manager.Role)
	require.NoError(t, err)
	require.True(t, got.IsAssignedTo(staff.ID))
	require.Len(t, got.Routing, 1)
	require.Equal(t, manager.ID, got.Routing[0].FromUserID)
	require.NotNil(t, got.Routing[0].ToUserID)
	require.Equal(t, staff.ID, *got.Routing[0].ToUserID)
	require.Equal(t, "delegated for response", got.Routing[0].Action)
	require.Equal(t, "follow up", got.Routing[0].Remarks)
}

func TestDelegateIdempotentAssignmentSet(t *testing.T) {
	db := setupTestDB(t)
	_, ds := newTestServices(t, db)
	ctx := context.Background()
	uploader := seedUser(t, db, "uploader", models.RoleStaff)
	staff := seedUser(t, db, "staff", models.RoleStaff)
	manager := seedUser(t, db, "manager", models.RoleManager)

	doc := createTestDocument(t, ds, uploader.ID, CreateDocumentInput{})

	require.NoError(t, ds.Delegate(ctx, doc.ID, manager.ID, manager.Role, staff.ID, "first pass", "", nil))
	require.NoError(t, ds.Delegate(ctx, doc.ID, manager.ID, manager.Role, staff.ID, "second pass", "", nil))

	var assignments int64
	require.NoError(t, db.Model(&models.DocumentAssignment{}).
		Where("document_id = ? AND user_id = ?", doc.ID, staff.ID).
		Count(&assignments).Error)
	require.EqualValues(t, 1, assignments, "assignment set has set semantics")

	var events int64
	require.NoError(t, db.Model(&models.RoutingEvent{}).
		Where("document_id = ?", doc.ID).
		Count(&events).Error)
	require.EqualValues(t, 2, events, "each delegation is still recorded in the trail")
}

func TestDelegateResponseDeadlineLastWriterWins(t *testing.T) {
	db := setupTestDB(t)
	_, ds := newTestServices(t, db)
	ctx := context.Background()
	uploader := seedUser(t, db, "uploader", models.RoleStaff)
	staff := seedUser(t, db, "staff", models.RoleStaff)
	manager := seedUser(t, db, "manager", models.RoleManager)

	first := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	second := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)

	doc := createTestDocument(t, ds, uploader.ID, CreateDocumentInput{Deadline: timePtr(first)})

	require.NoError(t, ds.Delegate(ctx, doc.ID, manager.ID, manager.Role, staff.ID, "", "", timePtr(second)))

	var stored models.Document
	require.NoError(t, db.First(&stored, doc.ID).Error)
	require.NotNil(t, stored.Deadline)
	require.True(t, stored.Deadline.Equal(second), "response deadline replaces the old one")

	// Delegating without a deadline leaves the current one in place.
	require.NoError(t, ds.Delegate(ctx, doc.ID, manager.ID, manager.Role, staff.ID, "", "", nil))
	require.NoError(t, db.First(&stored, doc.ID).Error)
	require.True(t, stored.Deadline.Equal(second))
}

func TestRespondPermissions(t *testing.T) {
	db := setupTestDB(t)
	_, ds := newTestServices(t, db)
	ctx := context.Background()
	uploader := seedUser(t, db, "uploader", models.RoleStaff)
	assignee := seedUser(t, db, "assignee", models.RoleStaff)
	outsider := seedUser(t, db, "outsider", models.RoleStaff)
	manager := seedUser(t, db, "manager", models.RoleManager)

	doc := createTestDocument(t, ds, uploader.ID, CreateDocumentInput{})
	require.NoError(t, ds.Delegate(ctx, doc.ID, manager.ID, manager.Role, assignee.ID, "", "", nil))

	err := ds.Respond(ctx, doc.ID, outsider.ID, outsider.Role, "done", "")
	require.ErrorIs(t, err, apperrors.ErrPermission)

	require.NoError(t, ds.Respond(ctx, doc.ID, uploader.ID, uploader.Role, "noted", ""))
	require.NoError(t, ds.Respond(ctx, doc.ID, assignee.ID, assignee.Role, "processed", "see attachment"))
	require.NoError(t, ds.Respond(ctx, doc.ID, manager.ID, manager.Role, "", ""))
}

func TestRespondAppendsGeneralEventOnly(t *testing.T) {
	db := setupTestDB(t)
	_, ds := newTestServices(t, db)
	ctx := context.Background()
	uploader := seedUser(t, db, "uploader", models.RoleStaff)
	assignee := seedUser(t, db, "assignee", models.RoleStaff)
	manager := seedUser(t, db, "manager", models.RoleManager)

	doc := createTestDocument(t, ds, uploader.ID, CreateDocumentInput{})
	require.NoError(t, ds.Delegate(ctx, doc.ID, manager.ID, manager.Role, assignee.ID, "", "", nil))
	require.NoError(t, ds.Respond(ctx, doc.ID, assignee.ID, assignee.Role, "processed", ""))

	got, err := ds.Get(ctx, doc.ID, manager.ID, manager.Role)
	require.NoError(t, err)

	require.Len(t, got.Routing, 2)
	last := got.Routing[1]
	require.Equal(t, assignee.ID, last.FromUserID)
	require.Nil(t, last.ToUserID, "a response is undirected")
	require.Equal(t, "processed", last.Action)

	require.Equal(t, models.StatusPending, got.Status, "responding never changes status")
	require.True(t, got.IsAssignedTo(assignee.ID), "responding does not close the assignment")
}

func TestRoutingTrailAppendOnlyOrder(t *testing.T) {
	db := setupTestDB(t)
	_, ds := newTestServices(t, db)
	ctx := context.Background()
	uploader := seedUser(t, db, "uploader", models.RoleStaff)

	doc := createTestDocument(t, ds, uploader.ID, CreateDocumentInput{})

	const n = 5
	for i := 0; i < n; i++ {
		require.NoError(t, ds.Respond(ctx, doc.ID, uploader.ID, uploader.Role, fmt.Sprintf("update %d", i), ""))
	}

	got, err := ds.Get(ctx, doc.ID, uploader.ID, uploader.Role)
	require.NoError(t, err)
	require.Len(t, got.Routing, n)
	for i, ev := range got.Routing {
		require.Equal(t, fmt.Sprintf("update %d", i), ev.Action, "insertion order is chronological order")
	}
}

func TestChangeStatusPermissionsAndTrail(t *testing.T) {
	db := setupTestDB(t)
	_, ds := newTestServices(t, db)
	ctx := context.Background()
	uploader := seedUser(t, db, "uploader", models.RoleStaff)
	staff := seedUser(t, db, "staff", models.RoleStaff)
	manager := seedUser(t, db, "manager", models.RoleManager)

	doc := createTestDocument(t, ds, uploader.ID, CreateDocumentInput{})

	err := ds.ChangeStatus(ctx, doc.ID, staff.ID, staff.Role, models.StatusApproved, "")
	require.ErrorIs(t, err, apperrors.ErrPermission, "staff may never change status")

	err = ds.ChangeStatus(ctx, doc.ID, manager.ID, manager.Role, "SHREDDED", "")
	require.ErrorIs(t, err, apperrors.ErrValidation)

	require.NoError(t, ds.ChangeStatus(ctx, doc.ID, manager.ID, manager.Role, models.StatusApproved, "ok"))

	got, err := ds.Get(ctx, doc.ID, manager.ID, manager.Role)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, got.Status)
	require.Len(t, got.Routing, 1)
	require.Equal(t, manager.ID, got.Routing[0].FromUserID)
	require.NotNil(t, got.Routing[0].ToUserID)
	require.Equal(t, uploader.ID, *got.Routing[0].ToUserID, "uploader is notified through the trail")
	require.Equal(t, "approved", got.Routing[0].Action)

	require.NoError(t, ds.ChangeStatus(ctx, doc.ID, manager.ID, manager.Role, models.StatusRejected, ""))
	got, err = ds.Get(ctx, doc.ID, manager.ID, manager.Role)
	require.NoError(t, err)
	require.Equal(t, "rejected/updated", got.Routing[1].Action)

	// Transitions are deliberately unrestricted: any status to any other.
	require.NoError(t, ds.ChangeStatus(ctx, doc.ID, manager.ID, manager.Role, models.StatusPending, "reopen"))
	got, err = ds.Get(ctx, doc.ID, manager.ID, manager.Role)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, got.Status)
}

func TestMutationsRefreshUpdatedAt(t *testing.T) {
	db := setupTestDB(t)
	_, ds := newTestServices(t, db)
	ctx := context.Background()
	uploader := seedUser(t, db, "uploader", models.RoleStaff)
	staff := seedUser(t, db, "staff", models.RoleStaff)
	manager := seedUser(t, db, "manager", models.RoleManager)

	doc := createTestDocument(t, ds, uploader.ID, CreateDocumentInput{})

	stale := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.Document{}).Where("id = ?", doc.ID).
		UpdateColumn("updated_at", stale).Error)

	require.NoError(t, ds.Delegate(ctx, doc.ID, manager.ID, manager.Role, staff.ID, "", "", nil))

	var stored models.Document
	require.NoError(t, db.First(&stored, doc.ID).Error)
	require.True(t, stored.UpdatedAt.After(stale), "delegation refreshes updated_at")

	stale2 := stored.UpdatedAt
	require.NoError(t, ds.Respond(ctx, doc.ID, staff.ID, staff.Role, "done", ""))
	require.NoError(t, db.First(&stored, doc.ID).Error)
	require.False(t, stored.UpdatedAt.Before(stale2), "responding refreshes updated_at too")
}

func TestListVisibilityByRole(t *testing.T) {
	db := setupTestDB(t)
	_, ds := newTestServices(t, db)
	ctx := context.Background()
	staff := seedUser(t, db, "staff", models.RoleStaff)
	manager := seedUser(t, db, "manager", models.RoleManager)
	admin := seedUser(t, db, "admin", models.RoleAdmin)

	createTestDocument(t, ds, manager.ID, CreateDocumentInput{Title: "public doc", Classification: models.ClassPublic})
	createTestDocument(t, ds, manager.ID, CreateDocumentInput{Title: "restricted doc", Classification: models.ClassRestricted})
	createTestDocument(t, ds, manager.ID, CreateDocumentInput{Title: "secret doc", Classification: models.ClassSecret})
	createTestDocument(t, ds, staff.ID, CreateDocumentInput{Title: "own secret", Classification: models.ClassSecret})

	staffDocs, err := ds.List(ctx, staff.ID, staff.Role)
	require.NoError(t, err)
	require.Len(t, staffDocs, 2, "staff sees public plus own uploads")

	managerDocs, err := ds.List(ctx, manager.ID, manager.Role)
	require.NoError(t, err)
	require.Len(t, managerDocs, 3, "manager sees public, restricted, and own")

	adminDocs, err := ds.List(ctx, admin.ID, admin.Role)
	require.NoError(t, err)
	require.Len(t, adminDocs, 4)
}

func TestListAssignedOrdering(t *testing.T) {
	db := setupTestDB(t)
	_, ds := newTestServices(t, db)
	ctx := context.Background()
	uploader := seedUser(t, db, "uploader", models.RoleStaff)
	staff := seedUser(t, db, "staff", models.RoleStaff)
	manager := seedUser(t, db, "manager", models.RoleManager)

	near := time.Now().Add(24 * time.Hour)
	far := time.Now().Add(10 * 24 * time.Hour)

	farDoc := createTestDocument(t, ds, uploader.ID, CreateDocumentInput{Title: "far", Deadline: timePtr(far)})
	noneDoc := createTestDocument(t, ds, uploader.ID, CreateDocumentInput{Title: "none"})
	nearDoc := createTestDocument(t, ds, uploader.ID, CreateDocumentInput{Title: "near", Deadline: timePtr(near)})
	doneDoc := createTestDocument(t, ds, uploader.ID, CreateDocumentInput{Title: "done", Deadline: timePtr(near)})

	for _, d := range []*models.Document{farDoc, noneDoc, nearDoc, doneDoc} {
		require.NoError(t, ds.Delegate(ctx, d.ID, manager.ID, manager.Role, staff.ID, "", "", nil))
	}
	require.NoError(t, ds.ChangeStatus(ctx, doneDoc.ID, manager.ID, manager.Role, models.StatusApproved, ""))

	docs, err := ds.ListAssignedTo(ctx, staff.ID)
	require.NoError(t, err)
	require.Len(t, docs, 3, "only pending documents are listed")
	require.Equal(t, "near", docs[0].Title)
	require.Equal(t, "far", docs[1].Title)
	require.Equal(t, "none", docs[2].Title, "documents without a deadline sort last")

	docs2, err := ds.ListAssignedTo(ctx, uploader.ID)
	require.NoError(t, err)
	require.Empty(t, docs2, "uploading does not put you in the assignment set")
}

// Registration -> approval -> unauthorized response, end to end.
func TestDocumentLifecycleScenario(t *testing.T) {
	db := setupTestDB(t)
	_, ds := newTestServices(t, db)
	ctx := context.Background()
	u1 := seedUser(t, db, "u1", models.RoleStaff)
	m1 := seedUser(t, db, "m1", models.RoleManager)
	s1 := seedUser(t, db, "s1", models.RoleStaff)

	year := time.Now().Year()
	require.NoError(t, db.Create(&models.ProtocolCounter{Year: year, Counter: 3, Prefix: "PROT"}).Error)

	doc, err := ds.Create(ctx, CreateDocumentInput{
		Type:           models.TypeIncoming,
		Title:          "Invoice",
		Classification: models.ClassPublic,
		UploaderID:     u1.ID,
	})
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("PROT-%d-0004", year), *doc.ProtocolNumber)
	require.Equal(t, models.StatusPending, doc.Status)

	require.NoError(t, ds.ChangeStatus(ctx, doc.ID, m1.ID, m1.Role, models.StatusApproved, "ok"))

	got, err := ds.Get(ctx, doc.ID, m1.ID, m1.Role)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, got.Status)
	require.Len(t, got.Routing, 1)
	require.Equal(t, m1.ID, got.Routing[0].FromUserID)
	require.Equal(t, u1.ID, *got.Routing[0].ToUserID)
	require.Equal(t, "approved", got.Routing[0].Action)

	err = ds.Respond(ctx, doc.ID, s1.ID, s1.Role, "attempt", "")
	require.ErrorIs(t, err, apperrors.ErrPermission)
}
