package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/evalboard/evalboard-api/internal/models"
)

func newRBACTestRouter(role models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: role})
	})

	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	sync := router.Group("/sync", RequireRoles(models.RoleAdmin))
	sync.POST("", ok)
	sync.GET("/history", ok)
	sync.GET("/status", ok)

	return router
}

func TestSyncRoutesAdminOnly(t *testing.T) {
	requests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/sync"},
		{http.MethodGet, "/sync/history"},
		{http.MethodGet, "/sync/status"},
	}

	admin := newRBACTestRouter(models.RoleAdmin)
	for _, r := range requests {
		rec := httptest.NewRecorder()
		admin.ServeHTTP(rec, httptest.NewRequest(r.method, r.path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, "%s %s as ADMIN", r.method, r.path)
	}

	for _, role := range []models.UserRole{models.RoleTeacher, models.RoleViewer} {
		router := newRBACTestRouter(role)
		for _, r := range requests {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(r.method, r.path, nil))
			assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s as %s", r.method, r.path, role)
		}
	}
}

func TestRBACRejectsMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRBACAllowsSelfOnMatchingID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: models.RoleViewer})
	})
	router.GET("/users/:id", RBAC(string(models.RoleAdmin), "SELF"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/user-1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/user-2", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
