package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crowdmint-backend/internal/dto"
	"crowdmint-backend/internal/handlers"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func echoContext(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user":   c.GetString(handlers.ContextUserID),
		"worker": c.GetString(handlers.ContextWorkerID),
		"admin":  c.GetString(handlers.ContextAdminUsername),
	})
}

func request(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireRole(t *testing.T) {
	secret := "user-secret"
	auth := NewAuthMiddleware(secret, quietLogger())

	r := gin.New()
	r.GET("/", auth.RequireRole(dto.RoleWorker), echoContext)

	workerToken, err := handlers.GenerateJWTToken([]byte(secret), "crowdmint-backend", "worker-1", dto.RoleWorker, time.Hour)
	require.NoError(t, err)
	userToken, err := handlers.GenerateJWTToken([]byte(secret), "crowdmint-backend", "user-1", dto.RoleUser, time.Hour)
	require.NoError(t, err)
	foreignToken, err := handlers.GenerateJWTToken([]byte("other"), "crowdmint-backend", "worker-1", dto.RoleWorker, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreignToken, http.StatusUnauthorized},
		{"wrong role", "Bearer " + userToken, http.StatusForbidden},
		{"worker", "Bearer " + workerToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(r, tt.header)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	w := request(r, "Bearer "+workerToken)
	assert.JSONEq(t, `{"user":"","worker":"worker-1","admin":""}`, w.Body.String())
}

func TestRequireRole_UserSetsUserID(t *testing.T) {
	secret := "user-secret"
	r := gin.New()
	r.GET("/", NewAuthMiddleware(secret, quietLogger()).RequireRole(dto.RoleUser), echoContext)

	token, err := handlers.GenerateJWTToken([]byte(secret), "crowdmint-backend", "user-1", dto.RoleUser, time.Hour)
	require.NoError(t, err)

	w := request(r, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"user-1","worker":"","admin":""}`, w.Body.String())
}

func TestRequireAdminAuth(t *testing.T) {
	secret := "admin-secret"
	r := gin.New()
	r.GET("/", NewAdminAuthMiddleware(secret, quietLogger()).RequireAdminAuth(), echoContext)

	adminToken, err := handlers.GenerateAdminJWTToken([]byte(secret), "ops", time.Hour)
	require.NoError(t, err)
	// a worker token signed with the admin secret still lacks the admin role
	workerToken, err := handlers.GenerateJWTToken([]byte(secret), "crowdmint-backend", "worker-1", dto.RoleWorker, time.Hour)
	require.NoError(t, err)

	w := request(r, "Bearer "+adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"","worker":"","admin":"ops"}`, w.Body.String())

	assert.Equal(t, http.StatusForbidden, request(r, "Bearer "+workerToken).Code)
	assert.Equal(t, http.StatusUnauthorized, request(r, "").Code)
}

func TestLocalhostOnly(t *testing.T) {
	l := NewLocalhostOnly(quietLogger(), []string{"10.0.0.0/8", "192.168.1.7", "bad/cidr"})

	tests := []struct {
		ip      string
		allowed bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"10.20.30.40", true},
		{"192.168.1.7", true},
		{"192.168.1.8", false},
		{"8.8.8.8", false},
		{"not-an-ip", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.allowed, l.isAllowedIP(tt.ip), tt.ip)
	}

	r := gin.New()
	r.GET("/", l.Restrict(), echoContext)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "8.8.8.8:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLocalhostOnly_NoWhitelist(t *testing.T) {
	l := NewLocalhostOnly(quietLogger(), nil)
	assert.True(t, l.isAllowedIP("127.0.0.1"))
	assert.False(t, l.isAllowedIP("10.0.0.1"))
}

func TestHTTPMetrics_PassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(HTTPMetrics())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	assert.Equal(t, http.StatusTeapot, request(r, "").Code)
	assert.Equal(t, http.StatusNotFound, func() int {
		req := httptest.NewRequest(http.MethodGet, "/missing", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}())
}
