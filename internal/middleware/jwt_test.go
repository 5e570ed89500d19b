package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"echo-diary/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubAuth map[string]*model.User

func (s stubAuth) Authenticate(_ context.Context, raw string) (*model.User, error) {
	if u, ok := s[raw]; ok {
		return u, nil
	}
	return nil, errors.New("bad token")
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := stubAuth{
		"user-token":  {ID: "u1", Username: "u1", Role: model.RoleUser},
		"admin-token": {ID: "a1", Username: "admin", Role: model.RoleAdmin},
	}
	r := gin.New()
	r.Use(AccessLog())
	api := r.Group("/api", JWTAuth(auth))
	api.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUser(c).ID})
	})
	api.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	r := newRouter()

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, `{"error":"unauthorized"}`},
		{"wrong scheme", "Basic user-token", http.StatusUnauthorized, `{"error":"unauthorized"}`},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, `{"error":"invalid token"}`},
		{"valid", "Bearer user-token", http.StatusOK, `{"id":"u1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, "/api/me", tt.header)
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	r := newRouter()

	assert.Equal(t, http.StatusForbidden, do(r, "/api/admin", "Bearer user-token").Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/api/admin", "Bearer admin-token").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/api/admin", "").Code)
}

func TestCurrentUser_Absent(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, CurrentUser(c))
}
