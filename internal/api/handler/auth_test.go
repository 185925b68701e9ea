package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/hms_go_server/config"
	"github.com/qs3c/hms_go_server/internal/api/middleware"
	"github.com/qs3c/hms_go_server/internal/model/dto"
	"github.com/qs3c/hms_go_server/internal/pkg/jwt"
	"github.com/qs3c/hms_go_server/internal/pkg/response"
	"github.com/qs3c/hms_go_server/internal/repository"
	"github.com/qs3c/hms_go_server/internal/service"
	"github.com/qs3c/hms_go_server/internal/testutil"
)

const testSecret = "test-secret-key"

func init() {
	gin.SetMode(gin.TestMode)
}

func setupAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:      testSecret,
			ExpireHours: 24,
		},
	}

	authService := service.NewAuthService(repository.NewUserRepository(db), repository.NewTenantRepository(db), cfg)
	return NewAuthHandler(authService)
}

func performRequest(r http.Handler, method, path string, body interface{}, header ...string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func TestAuthHandler_Register(t *testing.T) {
	handler := setupAuthHandler(t)

	router := gin.New()
	router.POST("/register", handler.Register)

	req := dto.RegisterRequest{
		Email:    "Chidi@Example.com",
		Password: "password123",
		FullName: "Chidi Okafor",
	}

	w := performRequest(router, "POST", "/register", req)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	// 重复邮箱（大小写不敏感）
	req.Email = "chidi@example.com"
	w = performRequest(router, "POST", "/register", req)
	assert.Equal(t, response.CodeParamError, parseResponse(t, w).Code)
}

func TestAuthHandler_Register_InvalidBody(t *testing.T) {
	handler := setupAuthHandler(t)

	router := gin.New()
	router.POST("/register", handler.Register)

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing email", map[string]string{"password": "password123", "full_name": "A"}},
		{"bad email", map[string]string{"email": "nope", "password": "password123", "full_name": "A"}},
		{"short password", map[string]string{"email": "a@example.com", "password": "short", "full_name": "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, "POST", "/register", tt.body)
			assert.Equal(t, response.CodeParamError, parseResponse(t, w).Code)
		})
	}
}

func TestAuthHandler_LoginAndMe(t *testing.T) {
	handler := setupAuthHandler(t)

	router := gin.New()
	router.POST("/register", handler.Register)
	router.POST("/login", handler.Login)
	router.GET("/me", middleware.Auth(testSecret), handler.Me)

	performRequest(router, "POST", "/register", dto.RegisterRequest{
		Email:    "ngozi@example.com",
		Password: "password123",
		FullName: "Ngozi Eze",
	})

	w := performRequest(router, "POST", "/login", dto.LoginRequest{Email: "ngozi@example.com", Password: "wrong-pass"})
	assert.Equal(t, response.CodeAuthFailed, parseResponse(t, w).Code)

	w = performRequest(router, "POST", "/login", dto.LoginRequest{Email: "ngozi@example.com", Password: "password123"})
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	data := resp.Data.(map[string]interface{})
	token := data["token"].(string)
	claims, err := jwt.ParseToken(token, testSecret)
	require.NoError(t, err)

	w = performRequest(router, "GET", "/me", nil, "Authorization", "Bearer "+token)
	resp = parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	me := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(claims.UserID), me["id"])
	assert.Equal(t, "Ngozi Eze", me["full_name"])
}
