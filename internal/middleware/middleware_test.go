package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCheckRateLimit(t *testing.T) {
	t.Run("development bypass", func(t *testing.T) {
		t.Setenv("APP_ENV", "development")
		allowed, err := CheckRateLimit(context.Background(), nil, "login", "1", 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("nil redis errors outside dev", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		allowed, err := CheckRateLimit(context.Background(), nil, "login", "1", 1, time.Minute)
		assert.Error(t, err)
		assert.False(t, allowed)
	})

	t.Run("limit enforced with redis", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		mr, rdb := newTestRedis(t)

		for i := 0; i < 2; i++ {
			allowed, err := CheckRateLimit(context.Background(), rdb, "login", "ip:1", 2, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}
		allowed, err := CheckRateLimit(context.Background(), rdb, "login", "ip:1", 2, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)

		assert.True(t, mr.Exists("rl:login:ip:1"))
		assert.Greater(t, mr.TTL("rl:login:ip:1"), time.Duration(0))
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	_, rdb := newTestRedis(t)

	app := fiber.New()
	app.Post("/login", RateLimit(rdb, 1, time.Minute, "auth_login"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestRateLimitWithPolicy_FailClosed(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	app := fiber.New()
	app.Get("/", RateLimitWithPolicy(nil, 1, time.Minute, FailClosed, "x"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestSessionTokens_IssueParseRevoke(t *testing.T) {
	_, rdb := newTestRedis(t)
	tokens := NewSessionTokens("test-secret-test-secret-test-secret", time.Hour, rdb)

	signed, issued, err := tokens.Issue(42, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	parsed, err := tokens.Parse(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, uint(42), parsed.UserID)
	assert.Equal(t, issued.ID, parsed.ID)

	require.NoError(t, tokens.Revoke(context.Background(), parsed))
	_, err = tokens.Parse(context.Background(), signed)
	assert.ErrorIs(t, err, ErrRevokedToken)
}

func TestSessionTokens_RejectsForeignAndExpired(t *testing.T) {
	tokens := NewSessionTokens("test-secret-test-secret-test-secret", time.Hour, nil)
	other := NewSessionTokens("another-secret-another-secret-xxxx", time.Hour, nil)

	signed, _, err := other.Issue(1, "bob")
	require.NoError(t, err)
	_, err = tokens.Parse(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewSessionTokens("test-secret-test-secret-test-secret", -time.Minute, nil)
	signed, _, err = expired.Issue(1, "bob")
	require.NoError(t, err)
	_, err = tokens.Parse(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestTokenFromRequest(t *testing.T) {
	app := fiber.New()
	app.All("/*", func(c *fiber.Ctx) error {
		return c.SendString(TokenFromRequest(c))
	})

	read := func(req *http.Request) string {
		resp, err := app.Test(req)
		require.NoError(t, err)
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return buf.String()
	}

	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	req.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", read(req))

	req = httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", read(req))

	assert.Equal(t, "", read(httptest.NewRequest(http.MethodGet, "/api/rooms?token=q", nil)))
	assert.Equal(t, "q", read(httptest.NewRequest(http.MethodGet, "/api/ws/rooms/1?token=q", nil)))
}

func TestContextMiddleware_EnrichesLogs(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger
	Logger = slog.New(&ctxHandler{slog.NewJSONHandler(&buf, nil)})
	defer func() { Logger = prev }()

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "req-1")
		c.Locals("userID", uint(9))
		return c.Next()
	})
	app.Use(ContextMiddleware())
	app.Use(StructuredLogger())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"user_id":9`)
	assert.Contains(t, out, `"status":204`)
}
