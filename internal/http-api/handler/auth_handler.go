package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"pixelboard/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	oauth    service.OAuthService
	accounts service.AccountService
	sessions service.SessionService
	logger   *slog.Logger
}

func NewAuthHandler(oauth service.OAuthService, accounts service.AccountService, sessions service.SessionService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{oauth: oauth, accounts: accounts, sessions: sessions, logger: logger}
}

// Signup starts the signup authorization flow: generate a PKCE pair, stash
// the verifier in a short-lived cookie, redirect to the provider with the
// challenge.
func (h *AuthHandler) Signup(c *gin.Context) {
	h.begin(c, service.PurposeSignup)
}

// Signin starts the sign-in authorization flow.
func (h *AuthHandler) Signin(c *gin.Context) {
	h.begin(c, service.PurposeSignin)
}

func (h *AuthHandler) begin(c *gin.Context, purpose string) {
	redirectURL, verifier, err := h.oauth.AuthorizeURL(purpose)
	if err != nil {
		h.logger.Error("failed to build authorization redirect", "purpose", purpose, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start authorization"})
		return
	}

	// The verifier cookie must be set before the redirect so it is present
	// at callback time.
	h.sessions.StoreVerifier(c, verifier)
	c.Redirect(http.StatusMovedPermanently, redirectURL)
}

// CallbackSignup finishes signup: exchange the code, provision the account
// from the upstream provider, bind the session token.
func (h *AuthHandler) CallbackSignup(c *gin.Context) {
	h.logger.Info("handling sign-up callback")

	token, ok := h.exchange(c)
	if !ok {
		return
	}

	user, err := h.accounts.Provision(c.Request.Context(), token)
	if err != nil {
		h.logger.Error("account provisioning failed", "error", err)
		status := http.StatusUnauthorized
		if errors.Is(err, service.ErrUnsupportedProvider) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessions.Bind(c, token.AuthToken, user.ID); err != nil {
		h.logger.Error("session bind failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not establish session"})
		return
	}
	c.Redirect(http.StatusFound, "/welcome")
}

// CallbackSignin finishes sign-in for an existing account.
func (h *AuthHandler) CallbackSignin(c *gin.Context) {
	h.logger.Info("handling sign-in callback")

	token, ok := h.exchange(c)
	if !ok {
		return
	}

	user, err := h.accounts.Lookup(c.Request.Context(), token.IdentityID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessions.Bind(c, token.AuthToken, user.ID); err != nil {
		h.logger.Error("session bind failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not establish session"})
		return
	}
	c.Redirect(http.StatusFound, "/home")
}

// exchange runs the shared callback steps: code and verifier presence are
// checked before any network call; a provider rejection is surfaced with
// the upstream body and never retried.
func (h *AuthHandler) exchange(c *gin.Context) (*service.TokenResponse, bool) {
	code := c.Query("code")
	if code == "" {
		providerErr := c.DefaultQuery("error", "Unknown error")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("%s. OAuth provider responded with error: %s", service.ErrMissingCode, providerErr),
		})
		return nil, false
	}

	verifier, ok := h.sessions.Verifier(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": service.ErrMissingVerifier.Error() +
				". Is this the same user agent/browser that started the authorization flow?",
		})
		return nil, false
	}

	token, err := h.oauth.Exchange(c.Request.Context(), code, verifier)
	if err != nil {
		var providerErr *service.ProviderError
		if errors.As(err, &providerErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": providerErr.Error()})
			return nil, false
		}
		h.logger.Error("code exchange failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "code exchange failed"})
		return nil, false
	}
	return token, true
}

// Logout clears every cookie the client sent plus the flow cookies.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c); err != nil {
		h.logger.Error("logout failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.Redirect(http.StatusFound, "/")
}
