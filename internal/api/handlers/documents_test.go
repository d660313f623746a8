package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/frosty888/eProtokoll/internal/config"
	"github.com/frosty888/eProtokoll/internal/db/models"
	"github.com/frosty888/eProtokoll/internal/services"
	"github.com/frosty888/eProtokoll/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frosty888/eProtokoll/pkg/metrics"
)

type testEnv struct {
	db     *gorm.DB
	engine *gin.Engine
}

// identity the request runs under; swapped per call.
type testIdentity struct {
	userID uint
	role   models.UserRole
}

func setupHandlerTest(t *testing.T) (*testEnv, *testIdentity) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ProtocolCounter{},
		&models.Document{},
		&models.RoutingEvent{},
		&models.DocumentAssignment{},
	))

	logger := zap.NewNop()
	collector := metrics.NewMetricsCollector()
	ps := services.NewProtocolService(db, "", logger, collector)
	ds := services.NewDocumentService(db, ps, logger, collector)

	store, err := storage.NewStore(config.StorageConfig{
		UploadDir:         t.TempDir(),
		MaxFileSize:       1024 * 1024,
		AllowedExtensions: []string{".pdf", ".txt"},
	})
	require.NoError(t, err)

	h := NewDocumentHandler(ds, store, logger)

	identity := &testIdentity{}
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set("userID", identity.userID)
		c.Set("role", identity.role)
	})
	engine.POST("/documents", h.Upload)
	engine.GET("/documents/:id", h.Get)
	engine.POST("/documents/:id/status", h.ChangeStatus)
	engine.POST("/documents/:id/respond", h.Respond)

	return &testEnv{db: db, engine: engine}, identity
}

func seedHandlerUser(t *testing.T, db *gorm.DB, username string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Username: username, PasswordHash: "x", FullName: username,
		Role: role, Department: "Operations", IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func multipartUpload(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("document", "invoice.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 test"))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadStripsForeignFields(t *testing.T) {
	env, identity := setupHandlerTest(t)
	uploader := seedHandlerUser(t, env.db, "u1", models.RoleStaff)
	identity.userID = uploader.ID
	identity.role = uploader.Role

	body, contentType := multipartUpload(t, map[string]string{
		"title":         "Invoice",
		"document_type": "INCOMING",
		"received_from": "Ministry",
		"to_department": "should vanish",
	})

	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var view documentView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.NotNil(t, view.ProtocolNumber)
	require.Equal(t, models.StatusPending, view.Status)
	require.Equal(t, "Ministry", view.ReceivedFrom)
	require.Empty(t, view.ToDepartment, "foreign correspondence field must be stripped")
	require.Equal(t, "invoice.pdf", view.FileName)
}

func TestUploadRequiresFileAndTitle(t *testing.T) {
	env, identity := setupHandlerTest(t)
	uploader := seedHandlerUser(t, env.db, "u1", models.RoleStaff)
	identity.userID = uploader.ID
	identity.role = uploader.Role

	// Missing file entirely.
	req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec := httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// File present, title missing: ValidationError maps to 400.
	body, contentType := multipartUpload(t, map[string]string{"document_type": "INCOMING"})
	req = httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangeStatusPermissionMapping(t *testing.T) {
	env, identity := setupHandlerTest(t)
	uploader := seedHandlerUser(t, env.db, "u1", models.RoleStaff)
	manager := seedHandlerUser(t, env.db, "m1", models.RoleManager)
	identity.userID = uploader.ID
	identity.role = uploader.Role

	body, contentType := multipartUpload(t, map[string]string{
		"title":         "Invoice",
		"document_type": "INCOMING",
	})
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created documentView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	statusBody := `{"status":"APPROVED","remarks":"ok"}`

	// STAFF actor: PermissionError maps to 403.
	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/documents/%d/status", created.ID), strings.NewReader(statusBody))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// MANAGER succeeds.
	identity.userID = manager.ID
	identity.role = manager.Role
	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/documents/%d/status", created.ID), strings.NewReader(statusBody))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Unknown document: NotFoundError maps to 404.
	req = httptest.NewRequest(http.MethodPost, "/documents/99999/status", strings.NewReader(statusBody))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Trail shows the approval directed at the uploader.
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/documents/%d", created.ID), nil)
	rec = httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var view documentView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, models.StatusApproved, view.Status)
	require.Len(t, view.Routing, 1)
	require.Equal(t, manager.ID, view.Routing[0].From)
	require.NotNil(t, view.Routing[0].To)
	require.Equal(t, uploader.ID, *view.Routing[0].To)
	require.Equal(t, "approved", view.Routing[0].Action)
}
