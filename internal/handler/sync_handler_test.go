package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/evalboard/evalboard-api/internal/middleware"
	"github.com/evalboard/evalboard-api/internal/models"
	appErrors "github.com/evalboard/evalboard-api/pkg/errors"
)

type fakeSyncSrv struct {
	result    *models.SyncResult
	err       error
	lastToken string
	lastLimit int
	runs      []models.SyncRunDetail
	last      *models.SyncRunDetail
}

func (f *fakeSyncSrv) Sync(_ context.Context, _ string, accessToken string) (*models.SyncResult, error) {
	f.lastToken = accessToken
	return f.result, f.err
}

func (f *fakeSyncSrv) History(_ context.Context, limit int) ([]models.SyncRunDetail, error) {
	f.lastLimit = limit
	return f.runs, nil
}

func (f *fakeSyncSrv) LastStatus(context.Context) (*models.SyncRunDetail, error) {
	return f.last, nil
}

func TestSyncHandlerTriggerRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSyncHandler(&fakeSyncSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/sync", nil)

	handler.Trigger(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSyncHandlerTriggerPassesToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeSyncSrv{result: &models.SyncResult{Success: true, RowsProcessed: 3, RowsAdded: 2, RowsUpdated: 1}}
	handler := NewSyncHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	body := strings.NewReader(`{"access_token":"ya29.token"}`)
	c.Request = httptest.NewRequest(http.MethodPost, "/sync", body)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1"})

	handler.Trigger(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ya29.token", service.lastToken)

	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, true, envelope.Data["success"])
	assert.Equal(t, float64(3), envelope.Data["rows_processed"])
}

func TestSyncHandlerTriggerConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSyncHandler(&fakeSyncSrv{err: appErrors.ErrSyncInProgress})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/sync", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1"})

	handler.Trigger(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSyncHandlerHistoryRejectsBadLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSyncHandler(&fakeSyncSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/sync/history?limit=abc", nil)

	handler.History(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncHandlerHistoryForwardsLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeSyncSrv{}
	handler := NewSyncHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/sync/history?limit=5", nil)

	handler.History(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, service.lastLimit)
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}
