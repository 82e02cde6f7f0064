package gateway

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/adonese/apikit/apperr"
	"github.com/gin-gonic/gin"
)

const AdminKeyHeader = "X-Admin-Key"

var (
	errAdminNotConfigured = apperr.Wrap(errors.New("no admin key or credentials set"), apperr.ErrUnavailable, "admin auth not configured")
	errUnauthorized       = apperr.New("unauthorized", http.StatusUnauthorized, "unauthorized")
)

// AdminAuthConfig controls access to admin-only endpoints.
type AdminAuthConfig struct {
	Key      string
	User     string
	Password string
	Debug    bool
}

// RequireAdmin guards admin endpoints using X-Admin-Key or HTTP Basic auth.
// If Debug is true, the guard is bypassed.
func RequireAdmin(cfg AdminAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Debug {
			c.Next()
			return
		}

		if cfg.Key != "" {
			key := strings.TrimSpace(c.GetHeader(AdminKeyHeader))
			if key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(cfg.Key)) == 1 {
				c.Next()
				return
			}
		}

		if cfg.User != "" && cfg.Password != "" {
			if checkBasicAuth(c.GetHeader("Authorization"), cfg.User, cfg.Password) {
				c.Next()
				return
			}
		}

		if cfg.Key == "" && (cfg.User == "" || cfg.Password == "") {
			apperr.Abort(c, errAdminNotConfigured)
			return
		}
		c.Header("WWW-Authenticate", `Basic realm="admin"`)
		apperr.Abort(c, errUnauthorized)
	}
}

func checkBasicAuth(header, user, pass string) bool {
	if header == "" {
		return false
	}
	scheme, encoded, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "basic") {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return false
	}
	gotUser, gotPass, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(gotUser), []byte(user)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(gotPass), []byte(pass)) == 1
	return userOK && passOK
}
