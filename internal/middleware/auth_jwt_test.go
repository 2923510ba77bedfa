package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/middleware"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test_secret"

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	assert.NoError(t, err)
	return s
}

func doAuthRequest(authz string) (*httptest.ResponseRecorder, echo.Context, bool) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/merchant/orders", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	cfg := config.Config{JWTSecret: testSecret}
	reached := false
	h := middleware.AuthJWT(cfg)(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	_ = h(c)
	return rec, c, reached
}

func TestAuthJWT_NoHeader(t *testing.T) {
	rec, _, reached := doAuthRequest("")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthJWT_NotBearer(t *testing.T) {
	rec, _, reached := doAuthRequest("Basic abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthJWT_BadSignature(t *testing.T) {
	tok := signedToken(t, "other_secret", jwt.MapClaims{
		"sub":  float64(1),
		"role": "USER",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	rec, _, reached := doAuthRequest("Bearer " + tok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthJWT_Expired(t *testing.T) {
	tok := signedToken(t, testSecret, jwt.MapClaims{
		"sub":  float64(1),
		"role": "USER",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})
	rec, _, reached := doAuthRequest("Bearer " + tok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthJWT_MissingRole(t *testing.T) {
	tok := signedToken(t, testSecret, jwt.MapClaims{
		"sub": float64(1),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	rec, _, reached := doAuthRequest("Bearer " + tok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

// 正常系：user_idとroleがcontextへ入る
func TestAuthJWT_OK(t *testing.T) {
	tok := signedToken(t, testSecret, jwt.MapClaims{
		"sub":  float64(42),
		"role": "USER",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	rec, c, reached := doAuthRequest("Bearer " + tok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
	assert.Equal(t, int64(42), c.Get(middleware.CtxUserIDKey))
	assert.Equal(t, "USER", c.Get(middleware.CtxUserRoleKey))
}

// =====================
// AdminRoleGuard tests
// =====================

func doAdminRequest(role interface{}) (*httptest.ResponseRecorder, bool) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/withdrawals", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set(middleware.CtxUserRoleKey, role)
	}

	reached := false
	h := middleware.AdminRoleGuard()(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	_ = h(c)
	return rec, reached
}

func TestAdminRoleGuard_NoRole(t *testing.T) {
	rec, reached := doAdminRequest(nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAdminRoleGuard_UserForbidden(t *testing.T) {
	rec, reached := doAdminRequest("USER")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)
}

func TestAdminRoleGuard_AdminAllowed(t *testing.T) {
	rec, reached := doAdminRequest("ADMIN")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
}
