package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"studybud/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionCookie carries the session token for browser clients.
	SessionCookie = "studybud_session"

	tokenIssuer   = "studybud-api"
	tokenAudience = "studybud-client"
)

var (
	ErrMissingToken = errors.New("missing session token")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrRevokedToken = errors.New("token has been revoked")
)

// SessionClaims is the decoded content of a valid session token.
type SessionClaims struct {
	UserID    uint
	ID        string
	ExpiresAt time.Time
}

// SessionTokens issues, verifies and revokes signed session tokens.
// Revocations are stored in Redis under blacklist:<jti> until the token would have expired.
type SessionTokens struct {
	secret []byte
	ttl    time.Duration
	redis  *redis.Client
}

// NewSessionTokens returns a token manager. rdb may be nil, in which case revocation is a no-op.
func NewSessionTokens(secret string, ttl time.Duration, rdb *redis.Client) *SessionTokens {
	return &SessionTokens{secret: []byte(secret), ttl: ttl, redis: rdb}
}

// TTL is the lifetime of newly issued tokens.
func (t *SessionTokens) TTL() time.Duration {
	return t.ttl
}

// Issue signs a new token for userID.
func (t *SessionTokens) Issue(userID uint, username string) (string, SessionClaims, error) {
	if len(t.secret) == 0 {
		return "", SessionClaims{}, fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	sc := SessionClaims{
		UserID:    userID,
		ID:        fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8]),
		ExpiresAt: now.Add(t.ttl),
	}
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      sc.ExpiresAt.Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      sc.ID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", SessionClaims{}, err
	}
	return signed, sc, nil
}

// Parse validates the signature, issuer, audience and expiry of tokenString and checks revocation.
func (t *SessionTokens) Parse(ctx context.Context, tokenString string) (SessionClaims, error) {
	if tokenString == "" {
		return SessionClaims{}, ErrMissingToken
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithAudience(tokenAudience))
	if err != nil || !token.Valid {
		return SessionClaims{}, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return SessionClaims{}, ErrInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return SessionClaims{}, ErrInvalidToken
	}

	sc := SessionClaims{UserID: uint(userID)}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		sc.ExpiresAt = exp.Time
	}
	if jti, ok := claims["jti"].(string); ok {
		sc.ID = jti
	}

	if sc.ID != "" && t.redis != nil {
		n, err := t.redis.Exists(ctx, "blacklist:"+sc.ID).Result()
		if err != nil {
			observability.RecordRedisError("token_blacklist_check")
		} else if n > 0 {
			return SessionClaims{}, ErrRevokedToken
		}
	}

	return sc, nil
}

// Revoke blacklists the token until its natural expiry.
func (t *SessionTokens) Revoke(ctx context.Context, sc SessionClaims) error {
	if t.redis == nil || sc.ID == "" {
		return nil
	}
	ttl := time.Until(sc.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := t.redis.Set(ctx, "blacklist:"+sc.ID, "1", ttl).Err(); err != nil {
		observability.RecordRedisError("token_blacklist_set")
		return err
	}
	return nil
}

// TokenFromRequest extracts a session token from the Authorization header, the session cookie,
// or (for websocket upgrades) the token query parameter.
func TokenFromRequest(c *fiber.Ctx) string {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	if cookie := c.Cookies(SessionCookie); cookie != "" {
		return cookie
	}
	if strings.HasPrefix(c.Path(), "/api/ws") {
		return c.Query("token")
	}
	return ""
}
