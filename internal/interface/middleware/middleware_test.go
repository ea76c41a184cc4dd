package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-entra-users/pkg/entra"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type stubValidator struct {
	claims *entra.Claims
	err    error
	tokens []string
}

func (s *stubValidator) Validate(token string) (*entra.Claims, error) {
	s.tokens = append(s.tokens, token)
	if token == "" {
		return nil, entra.ErrMissingToken
	}
	return s.claims, s.err
}

func do(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBearer(t *testing.T) {
	ok := &stubValidator{claims: &entra.Claims{ObjectID: "oid-7", Name: "Ana"}}
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/p", Bearer(ok, quietLogger()), func(c *gin.Context) {
		claims, found := ClaimsFrom(c)
		require.True(t, found)
		c.String(http.StatusOK, claims.Username()+"|"+c.GetString("userID"))
	})

	w := do(r, http.MethodGet, "/p", map[string]string{"Authorization": "Bearer abc"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ana|oid-7", w.Body.String())
	assert.Equal(t, []string{"abc"}, ok.tokens)

	w = do(r, http.MethodGet, "/p", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing access token")
	assert.Contains(t, w.Body.String(), `"request_id"`)
}

func TestBearer_InvalidToken(t *testing.T) {
	bad := &stubValidator{err: entra.ErrInvalidAudience}
	r := gin.New()
	r.GET("/p", Bearer(bad, quietLogger()), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, http.MethodGet, "/p", map[string]string{"Authorization": "Bearer abc"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid access token")
	assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
}

func TestOptionalBearer(t *testing.T) {
	bad := &stubValidator{err: errors.New("nope")}
	r := gin.New()
	r.GET("/d", OptionalBearer(bad, quietLogger()), func(c *gin.Context) {
		_, found := ClaimsFrom(c)
		if found {
			c.String(http.StatusOK, "auth")
			return
		}
		c.String(http.StatusOK, "anon")
	})

	w := do(r, http.MethodGet, "/d", map[string]string{"Authorization": "Bearer abc"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anon", w.Body.String())
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := do(r, http.MethodGet, "/", nil)
	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))

	const given = "3f2c7a0e-8c1b-4d7e-9b1a-2f4e6c8d0a1b"
	w = do(r, http.MethodGet, "/", map[string]string{RequestIDHeader: given})
	assert.Equal(t, given, w.Body.String())

	w = do(r, http.MethodGet, "/", map[string]string{RequestIDHeader: "<script>"})
	assert.NotEqual(t, "<script>", w.Body.String())
}

func TestRealIP(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("real_ip")) })

	w := do(r, http.MethodGet, "/", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"})
	assert.Equal(t, "203.0.113.9", w.Body.String())

	w = do(r, http.MethodGet, "/", map[string]string{"CF-Connecting-IP": "198.51.100.4", "X-Forwarded-For": "203.0.113.9"})
	assert.Equal(t, "198.51.100.4", w.Body.String())
}

func newLimitedRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RealIP(), mw)
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimit_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := newLimitedRouter(RateLimit(rdb, 2, time.Minute, KeyByIP(), AllowPaths("/health")))
	hdr := map[string]string{"X-Forwarded-For": "203.0.113.1"}

	w := do(r, http.MethodGet, "/x", hdr)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/x", hdr).Code)

	w = do(r, http.MethodGet, "/x", hdr)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, w.Body.String(), "rate limit exceeded")

	// other client, own window
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/x", map[string]string{"X-Forwarded-For": "203.0.113.2"}).Code)
	// allowlisted path
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", hdr).Code)

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/x", hdr).Code)
}

func TestRateLimit_KeyByIPAndPath(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := newLimitedRouter(RateLimit(rdb, 1, time.Minute, KeyByIPAndPath(), nil))
	hdr := map[string]string{"X-Forwarded-For": "203.0.113.9"}

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/x", hdr).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodGet, "/x", hdr).Code)
	// each path has its own window
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", hdr).Code)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	r := newLimitedRouter(RateLimit(rdb, 1, time.Minute, KeyByIP(), nil))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/x", nil).Code)
	}
}

func TestLocalRateLimit(t *testing.T) {
	r := newLimitedRouter(LocalRateLimit(2, time.Hour, KeyByIP(), AllowPrivateIP()))
	pub := map[string]string{"X-Forwarded-For": "203.0.113.1"}

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/x", pub).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/x", pub).Code)
	w := do(r, http.MethodGet, "/x", pub)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	priv := map[string]string{"X-Forwarded-For": "10.1.2.3"}
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/x", priv).Code)
	}
}

func TestMetricsAndAccessLog(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware(), Metrics(), AccessLog(quietLogger()))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	assert.Equal(t, http.StatusTeapot, do(r, http.MethodGet, "/x", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/missing", nil).Code)
}
