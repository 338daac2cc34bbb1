package middlewares

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	router.GET("/me", Auth(AuthConfig{Secret: testSecret, Issuer: "astranum"}, log), func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, userID.String())
	})
	return router
}

func TestAuth(t *testing.T) {
	userID := uuid.New()
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{
			name:       "valid user_id claim",
			header:     "Bearer " + sign(t, jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userID.String(), "iss": "astranum", "exp": exp}),
			wantStatus: http.StatusOK,
		},
		{
			name:       "sub claim",
			header:     "Bearer " + sign(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": userID.String(), "iss": "astranum", "exp": exp}),
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired",
			header:     "Bearer " + sign(t, jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userID.String(), "iss": "astranum", "exp": time.Now().Add(-time.Hour).Unix()}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong issuer",
			header:     "Bearer " + sign(t, jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userID.String(), "iss": "other", "exp": exp}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong algorithm",
			header:     "Bearer " + sign(t, jwt.SigningMethodHS512, jwt.MapClaims{"user_id": userID.String(), "iss": "astranum", "exp": exp}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "not a uuid",
			header:     "Bearer " + sign(t, jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "42", "iss": "astranum", "exp": exp}),
			wantStatus: http.StatusUnauthorized,
		},
	}

	router := newAuthRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, userID.String(), rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"error_code":"unauthorized"`)
			}
		})
	}
}

func TestAdminToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/admin", AdminToken("s3cret"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodPost, "/admin", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/admin", nil)
	req.Header.Set("X-Admin-Token", "s3cret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
