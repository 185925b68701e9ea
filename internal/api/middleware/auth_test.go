package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/hms_go_server/internal/pkg/jwt"
	"github.com/qs3c/hms_go_server/internal/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testJWTSecret = "test-secret-key-for-middleware"

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func bearer(t *testing.T, userID int64, secret string, hours int) string {
	t.Helper()
	token, err := jwt.GenerateToken(userID, secret, hours)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"valid", bearer(t, 123, testJWTSecret, 24), response.CodeSuccess},
		{"missing header", "", response.CodeAuthFailed},
		{"no bearer prefix", "some-token-without-bearer", response.CodeAuthFailed},
		{"garbage token", "Bearer invalid-token", response.CodeAuthFailed},
		{"wrong secret", bearer(t, 123, "different-secret", 24), response.CodeAuthFailed},
		{"expired", bearer(t, 123, testJWTSecret, 0), response.CodeAuthFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(Auth(testJWTSecret))
			router.GET("/test", func(c *gin.Context) {
				userID, ok := GetUserID(c)
				assert.True(t, ok)
				response.Success(c, gin.H{"user_id": userID})
			})

			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.code, parseResponse(t, w).Code)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	tests := []struct {
		name          string
		header        string
		authenticated bool
	}{
		{"valid", bearer(t, 456, testJWTSecret, 24), true},
		{"no header", "", false},
		{"invalid token", "Bearer invalid-token", false},
		{"no bearer prefix", "no-bearer-prefix", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(OptionalAuth(testJWTSecret))
			router.GET("/test", func(c *gin.Context) {
				userID, ok := GetUserID(c)
				c.JSON(http.StatusOK, gin.H{"user_id": userID, "authenticated": ok})
			})

			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			var result map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
			assert.Equal(t, tt.authenticated, result["authenticated"])
			if tt.authenticated {
				assert.Equal(t, float64(456), result["user_id"])
			}
		})
	}
}

func TestGetUserID_WrongType(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetUserID(c)
	assert.False(t, ok)

	c.Set(UserIDKey, "not-an-int64")
	userID, ok := GetUserID(c)
	assert.False(t, ok)
	assert.Equal(t, int64(0), userID)
}
