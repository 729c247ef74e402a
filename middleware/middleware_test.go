package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"food-marketplace-api/apperr"
	"food-marketplace-api/models"
	"food-marketplace-api/store"
	"food-marketplace-api/testutil"
	"food-marketplace-api/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type authEnv struct {
	router *gin.Engine
	tokens *token.Service
	user   *models.User
	owner  *models.User
}

func newAuthEnv(t *testing.T) *authEnv {
	db := testutil.NewDB(t)
	tokens := token.NewService(token.Config{AccessSecret: "a", RefreshSecret: "r"})
	env := &authEnv{
		tokens: tokens,
		user:   testutil.CreateUser(t, db, "user@example.com", models.RoleUser),
		owner:  testutil.CreateUser(t, db, "owner@example.com", models.RoleRestaurantOwner),
	}

	r := gin.New()
	r.Use(RequestLogger())
	authed := r.Group("/", Authenticate(tokens, store.NewUserStore(db)))
	authed.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUser(c).ID})
	})
	authed.GET("/owner", RoleRequired(models.RoleRestaurantOwner), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/boom", func(c *gin.Context) {
		AbortWithError(c, errors.New("db exploded"))
	})
	env.router = r
	return env
}

func (e *authEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *authEnv) accessToken(t *testing.T, user *models.User) string {
	pair, err := e.tokens.Issue(user.ID, user.Role)
	require.NoError(t, err)
	return pair.AccessToken
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	return body
}

func TestAuthenticate(t *testing.T) {
	env := newAuthEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	errorBody(t, w)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+env.accessToken(t, env.user))
	w = env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: env.accessToken(t, env.owner)})
	req.Header.Set("Authorization", "Bearer garbage")
	w = env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":2}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = env.do(req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "invalid token", errorBody(t, w)["error"])
}

func TestAuthenticate_ExpiredTokenIsUnauthenticated(t *testing.T) {
	env := newAuthEnv(t)
	now := time.Now()
	env.tokens.Now = func() time.Time { return now }
	access := env.accessToken(t, env.user)
	now = now.Add(token.DefaultAccessTTL + time.Second)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	w := env.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_UnknownUser(t *testing.T) {
	env := newAuthEnv(t)
	ghost := &models.User{ID: 99, Role: models.RoleUser}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+env.accessToken(t, ghost))
	w := env.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "user not found", errorBody(t, w)["error"])
}

func TestRoleRequired(t *testing.T) {
	env := newAuthEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/owner", nil)
	req.Header.Set("Authorization", "Bearer "+env.accessToken(t, env.user))
	w := env.do(req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/owner", nil)
	req.Header.Set("Authorization", "Bearer "+env.accessToken(t, env.owner))
	w = env.do(req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAbortWithError_HidesInternalCause(t *testing.T) {
	env := newAuthEnv(t)
	w := env.do(httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := errorBody(t, w)
	assert.Equal(t, "internal server error", body["error"])
	assert.NotContains(t, w.Body.String(), "exploded")
}

func TestAbortWithError_Details(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		AbortWithError(c, apperr.InvalidTransition("invalid state transition", nil).WithDetail("currentStatus", "delivered"))
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"invalid state transition","details":{"currentStatus":"delivered"}}`, w.Body.String())
}

func TestRequestLogger_PropagatesRequestID(t *testing.T) {
	env := newAuthEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := env.do(req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	w = env.do(httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Now()
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.POST("/login", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })
	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2"))

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, call("10.0.0.1"))

	now = now.Add(limiterIdleTTL + time.Minute)
	call("10.0.0.3")
	rl.mu.Lock()
	assert.Len(t, rl.limiters, 1)
	rl.mu.Unlock()
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:8081/"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:8081")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:8081", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
