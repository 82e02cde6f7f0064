package gateway

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminRouter(cfg AdminAuthConfig) *gin.Engine {
	r := gin.New()
	r.GET("/admin", RequireAdmin(cfg), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRequireAdmin(t *testing.T) {
	basic := func(user, pass string) string {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
	}
	tests := []struct {
		name   string
		cfg    AdminAuthConfig
		header map[string]string
		want   int
	}{
		{"not configured", AdminAuthConfig{}, nil, http.StatusServiceUnavailable},
		{"debug bypass", AdminAuthConfig{Debug: true}, nil, http.StatusOK},
		{"key accepted", AdminAuthConfig{Key: "s3cret"}, map[string]string{AdminKeyHeader: "s3cret"}, http.StatusOK},
		{"key rejected", AdminAuthConfig{Key: "s3cret"}, map[string]string{AdminKeyHeader: "nope"}, http.StatusUnauthorized},
		{"basic accepted", AdminAuthConfig{User: "ops", Password: "pw"}, map[string]string{"Authorization": basic("ops", "pw")}, http.StatusOK},
		{"basic wrong password", AdminAuthConfig{User: "ops", Password: "pw"}, map[string]string{"Authorization": basic("ops", "x")}, http.StatusUnauthorized},
		{"basic malformed", AdminAuthConfig{User: "ops", Password: "pw"}, map[string]string{"Authorization": "Basic !!!"}, http.StatusUnauthorized},
		{"bearer ignored", AdminAuthConfig{User: "ops", Password: "pw"}, map[string]string{"Authorization": "Bearer token"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			adminRouter(tt.cfg).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireAdminNotConfiguredPayload(t *testing.T) {
	w := httptest.NewRecorder()
	adminRouter(AdminAuthConfig{Key: "", User: "ops"}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "service_unavailable", body["code"])
	assert.Equal(t, "admin auth not configured", body["message"])
	assert.Empty(t, w.Header().Get("WWW-Authenticate"))
}
