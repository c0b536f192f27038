package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"pixelboard/internal/config"
	"pixelboard/internal/http-api/models"
	"pixelboard/internal/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOAuthService mocks the OAuthService interface
type MockOAuthService struct {
	mock.Mock
}

func (m *MockOAuthService) AuthorizeURL(purpose string) (string, string, error) {
	args := m.Called(purpose)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockOAuthService) Exchange(ctx context.Context, code, verifier string) (*service.TokenResponse, error) {
	args := m.Called(ctx, code, verifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenResponse), args.Error(1)
}

// MockAccountService mocks the AccountService interface
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Provision(ctx context.Context, token *service.TokenResponse) (*models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAccountService) Lookup(ctx context.Context, identityID string) (*models.User, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testSessions builds a real session carrier with the server-side map
// disabled, so cookie behavior is exercised end to end.
func testSessions() service.SessionService {
	return service.NewSessionService(nil, &config.Config{
		GoEnv:       "development",
		SessionTTL:  time.Hour,
		VerifierTTL: 10 * time.Minute,
	})
}

func setupAuthRouter(oauth *MockOAuthService, accounts *MockAccountService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAuthHandler(oauth, accounts, testSessions(), testLogger())
	r.GET("/auth/ui/signup", h.Signup)
	r.GET("/auth/ui/signin", h.Signin)
	r.GET("/auth/callback/signup", h.CallbackSignup)
	r.GET("/auth/callback/signin", h.CallbackSignin)
	r.GET("/auth/logout", h.Logout)
	return r
}

func cookieByName(t *testing.T, resp *http.Response, name string) *http.Cookie {
	t.Helper()
	for _, ck := range resp.Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestSignup_RedirectsWithChallengeAndVerifierCookie(t *testing.T) {
	mockOAuth := new(MockOAuthService)
	mockOAuth.On("AuthorizeURL", service.PurposeSignup).
		Return("http://auth.example.com/ui/signup?challenge=chal-1", "verifier-1", nil)

	router := setupAuthRouter(mockOAuth, new(MockAccountService))

	req, _ := http.NewRequest("GET", "/auth/ui/signup", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "http://auth.example.com/ui/signup?challenge=chal-1", w.Header().Get("Location"))

	verifier := cookieByName(t, w.Result(), service.VerifierCookie)
	require.NotNil(t, verifier, "verifier cookie must be set before the redirect")
	assert.Equal(t, "verifier-1", verifier.Value)
	assert.True(t, verifier.HttpOnly)
	assert.Equal(t, "/", verifier.Path)

	mockOAuth.AssertExpectations(t)
}

func TestCallback_MissingCode(t *testing.T) {
	mockOAuth := new(MockOAuthService)
	router := setupAuthRouter(mockOAuth, new(MockAccountService))

	req, _ := http.NewRequest("GET", "/auth/callback/signin?error=access_denied", nil)
	req.AddCookie(&http.Cookie{Name: service.VerifierCookie, Value: "verifier-1"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "missing 'code'")
	assert.Contains(t, w.Body.String(), "access_denied")
	mockOAuth.AssertNotCalled(t, "Exchange", mock.Anything, mock.Anything, mock.Anything)
}

func TestCallback_MissingCodeDefaultError(t *testing.T) {
	router := setupAuthRouter(new(MockOAuthService), new(MockAccountService))

	req, _ := http.NewRequest("GET", "/auth/callback/signin", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Unknown error")
}

func TestCallback_MissingVerifierCookie(t *testing.T) {
	mockOAuth := new(MockOAuthService)
	router := setupAuthRouter(mockOAuth, new(MockAccountService))

	req, _ := http.NewRequest("GET", "/auth/callback/signin?code=code-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "verifier")
	mockOAuth.AssertNotCalled(t, "Exchange", mock.Anything, mock.Anything, mock.Anything)
}

func TestCallback_ProviderRejected(t *testing.T) {
	mockOAuth := new(MockOAuthService)
	mockOAuth.On("Exchange", mock.Anything, "code-1", "verifier-1").
		Return(nil, &service.ProviderError{StatusCode: 400, Body: "code already used"})

	router := setupAuthRouter(mockOAuth, new(MockAccountService))

	req, _ := http.NewRequest("GET", "/auth/callback/signin?code=code-1", nil)
	req.AddCookie(&http.Cookie{Name: service.VerifierCookie, Value: "verifier-1"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "code already used")
	assert.Nil(t, cookieByName(t, w.Result(), service.AuthTokenCookie), "no session cookie on rejection")
}

func TestCallbackSignin_Success(t *testing.T) {
	token := &service.TokenResponse{AuthToken: "tok-1", IdentityID: "id-1"}

	mockOAuth := new(MockOAuthService)
	mockOAuth.On("Exchange", mock.Anything, "code-1", "verifier-1").Return(token, nil)

	mockAccounts := new(MockAccountService)
	mockAccounts.On("Lookup", mock.Anything, "id-1").Return(&models.User{ID: "user-1"}, nil)

	router := setupAuthRouter(mockOAuth, mockAccounts)

	req, _ := http.NewRequest("GET", "/auth/callback/signin?code=code-1", nil)
	req.AddCookie(&http.Cookie{Name: service.VerifierCookie, Value: "verifier-1"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/home", w.Header().Get("Location"))

	authCookie := cookieByName(t, w.Result(), service.AuthTokenCookie)
	require.NotNil(t, authCookie)
	assert.Equal(t, "tok-1", authCookie.Value)
	assert.True(t, authCookie.HttpOnly)

	// flow complete: verifier cookie is superseded
	verifier := cookieByName(t, w.Result(), service.VerifierCookie)
	require.NotNil(t, verifier)
	assert.Empty(t, verifier.Value)
	assert.Less(t, verifier.MaxAge, 0)

	mockOAuth.AssertExpectations(t)
	mockAccounts.AssertExpectations(t)
}

func TestCallbackSignup_Success(t *testing.T) {
	token := &service.TokenResponse{AuthToken: "tok-1", IdentityID: "id-1", Provider: "github", ProviderToken: "gh-1"}

	mockOAuth := new(MockOAuthService)
	mockOAuth.On("Exchange", mock.Anything, "code-1", "verifier-1").Return(token, nil)

	mockAccounts := new(MockAccountService)
	mockAccounts.On("Provision", mock.Anything, token).Return(&models.User{ID: "user-1"}, nil)

	router := setupAuthRouter(mockOAuth, mockAccounts)

	req, _ := http.NewRequest("GET", "/auth/callback/signup?code=code-1", nil)
	req.AddCookie(&http.Cookie{Name: service.VerifierCookie, Value: "verifier-1"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/welcome", w.Header().Get("Location"))
	require.NotNil(t, cookieByName(t, w.Result(), service.AuthTokenCookie))

	mockAccounts.AssertExpectations(t)
}

func TestCallbackSignup_ProvisioningFailure(t *testing.T) {
	token := &service.TokenResponse{AuthToken: "tok-1", IdentityID: "id-1"}

	mockOAuth := new(MockOAuthService)
	mockOAuth.On("Exchange", mock.Anything, "code-1", "verifier-1").Return(token, nil)

	mockAccounts := new(MockAccountService)
	mockAccounts.On("Provision", mock.Anything, token).Return(nil, service.ErrNoPrimaryEmail)

	router := setupAuthRouter(mockOAuth, mockAccounts)

	req, _ := http.NewRequest("GET", "/auth/callback/signup?code=code-1", nil)
	req.AddCookie(&http.Cookie{Name: service.VerifierCookie, Value: "verifier-1"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, cookieByName(t, w.Result(), service.AuthTokenCookie))
}

func TestLogout_ClearsEveryCookie(t *testing.T) {
	router := setupAuthRouter(new(MockOAuthService), new(MockAccountService))

	req, _ := http.NewRequest("GET", "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: service.AuthTokenCookie, Value: "tok-1"})
	req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	// every sent cookie is expired, plus the verifier cookie that was never sent
	for _, name := range []string{service.AuthTokenCookie, "theme", service.VerifierCookie} {
		ck := cookieByName(t, w.Result(), name)
		require.NotNil(t, ck, "cookie %s must be cleared", name)
		assert.Empty(t, ck.Value)
		assert.Less(t, ck.MaxAge, 0, "cookie %s must be expired", name)
	}
}

func TestLogout_IdempotentWithoutCookies(t *testing.T) {
	router := setupAuthRouter(new(MockOAuthService), new(MockAccountService))

	req, _ := http.NewRequest("GET", "/auth/logout", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	for _, name := range []string{service.AuthTokenCookie, service.VerifierCookie} {
		ck := cookieByName(t, w.Result(), name)
		require.NotNil(t, ck)
		assert.Less(t, ck.MaxAge, 0)
	}
}
