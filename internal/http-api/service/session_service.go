package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"pixelboard/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Cookie names used by the authorization flow.
const (
	VerifierCookie  = "pkce-verifier"
	AuthTokenCookie = "auth-token"
)

// Identity is the resolved credential context for one request. The token is
// an opaque string owned by the identity provider; it is carried for
// downstream calls and never parsed locally.
type Identity struct {
	UserID string
	Token  string
}

// SessionService is the session token carrier: it moves the PKCE verifier
// and the auth token through scoped cookies and maps tokens back to users.
type SessionService interface {
	StoreVerifier(c *gin.Context, verifier string)
	Verifier(c *gin.Context) (string, bool)

	// Bind stores the token->user mapping and sets the auth-token cookie.
	// The verifier cookie is superseded here since the flow is complete.
	Bind(c *gin.Context, token, userID string) error
	// Resolve maps a token cookie back to an identity. A nil Identity with a
	// nil error means anonymous.
	Resolve(ctx context.Context, token string) (*Identity, error)
	// Logout expires every cookie the client sent plus the flow cookies,
	// and drops the server-side session entry.
	Logout(c *gin.Context) error
}

type sessionService struct {
	rdb         *redis.Client
	secure      bool
	sameSite    http.SameSite
	sessionTTL  time.Duration
	verifierTTL time.Duration
}

// NewSessionService builds the carrier. Cookie attributes follow the
// environment: Secure + SameSite=Strict in production, Lax without Secure
// in development so the flow works over plain-HTTP localhost.
// A nil redis client disables the server-side map (handler tests).
func NewSessionService(rdb *redis.Client, cfg *config.Config) SessionService {
	sameSite := http.SameSiteStrictMode
	if cfg.IsDevelopment() {
		sameSite = http.SameSiteLaxMode
	}
	return &sessionService{
		rdb:         rdb,
		secure:      !cfg.IsDevelopment(),
		sameSite:    sameSite,
		sessionTTL:  cfg.SessionTTL,
		verifierTTL: cfg.VerifierTTL,
	}
}

func (s *sessionService) StoreVerifier(c *gin.Context, verifier string) {
	c.SetSameSite(s.sameSite)
	c.SetCookie(VerifierCookie, verifier, int(s.verifierTTL.Seconds()), "/", "", s.secure, true)
}

func (s *sessionService) Verifier(c *gin.Context) (string, bool) {
	verifier, err := c.Cookie(VerifierCookie)
	if err != nil || verifier == "" {
		return "", false
	}
	return verifier, true
}

func (s *sessionService) Bind(c *gin.Context, token, userID string) error {
	if s.rdb != nil {
		err := s.rdb.Set(c.Request.Context(), sessionKey(token), userID, s.sessionTTL).Err()
		if err != nil {
			return err
		}
	}

	c.SetSameSite(s.sameSite)
	c.SetCookie(AuthTokenCookie, token, int(s.sessionTTL.Seconds()), "/", "", s.secure, true)
	// verifier is single-flight; drop it now that the exchange is done
	c.SetCookie(VerifierCookie, "", -1, "/", "", s.secure, true)
	return nil
}

func (s *sessionService) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" || s.rdb == nil {
		return nil, nil
	}
	userID, err := s.rdb.Get(ctx, sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: userID, Token: token}, nil
}

func (s *sessionService) Logout(c *gin.Context) error {
	if s.rdb != nil {
		if token, err := c.Cookie(AuthTokenCookie); err == nil && token != "" {
			if err := s.rdb.Del(c.Request.Context(), sessionKey(token)).Err(); err != nil {
				return err
			}
		}
	}

	c.SetSameSite(s.sameSite)
	cleared := map[string]bool{}
	for _, ck := range c.Request.Cookies() {
		c.SetCookie(ck.Name, "", -1, "/", "", s.secure, true)
		cleared[ck.Name] = true
	}
	// Expire the flow cookies explicitly even if the client didn't send
	// them; logout is idempotent over absent cookies.
	for _, name := range []string{VerifierCookie, AuthTokenCookie} {
		if !cleared[name] {
			c.SetCookie(name, "", -1, "/", "", s.secure, true)
		}
	}
	return nil
}

// sessionKey hashes the opaque token so raw credentials never land in redis
// keyspace dumps.
func sessionKey(token string) string {
	digest := sha256.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(digest[:])
}
