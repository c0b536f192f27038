package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"pixelboard/internal/config"
)

var (
	// ErrMissingCode: the provider redirected back without a ?code parameter.
	ErrMissingCode = errors.New("oauth callback is missing 'code'")
	// ErrMissingVerifier: no PKCE verifier cookie accompanied the callback,
	// usually a different browser than the one that started the flow.
	ErrMissingVerifier = errors.New("could not find PKCE verifier in the cookie store")
	// ErrUnknownPurpose: AuthorizeURL called with something other than signup/signin.
	ErrUnknownPurpose = errors.New("unknown authorization purpose")
)

// Authorization flow purposes. They select the provider UI page and the
// matching callback route.
const (
	PurposeSignup = "signup"
	PurposeSignin = "signin"
)

// ProviderError carries the identity provider's response when a code
// exchange is rejected. Exchanges are never retried: authorization codes
// are single-use, a retry cannot succeed.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("error talking to the auth server: %s", e.Body)
	}
	return fmt.Sprintf("error from the auth server (status %d): %s", e.StatusCode, e.Body)
}

// TokenResponse is the provider's token-endpoint payload. AuthToken is an
// opaque capability; nothing in this process parses or verifies it locally.
type TokenResponse struct {
	AuthToken     string `json:"auth_token"`
	IdentityID    string `json:"identity_id"`
	Provider      string `json:"provider"`
	ProviderToken string `json:"provider_token"` // upstream (e.g. GitHub) token, present on signup
}

type OAuthService interface {
	// AuthorizeURL builds the provider redirect for the given purpose and
	// returns it together with the PKCE verifier the caller must stash in a
	// short-lived cookie before redirecting.
	AuthorizeURL(purpose string) (redirectURL, verifier string, err error)
	// Exchange trades an authorization code plus its verifier for a session
	// token. Single outbound call, bounded timeout, no retry.
	Exchange(ctx context.Context, code, verifier string) (*TokenResponse, error)
}

type oauthService struct {
	baseURL string
	pkce    PKCEService
	client  *http.Client
}

func NewOAuthService(cfg *config.Config, pkce PKCEService) OAuthService {
	return &oauthService{
		baseURL: strings.TrimRight(cfg.AuthBaseURL, "/") + "/",
		pkce:    pkce,
		client:  &http.Client{Timeout: cfg.ExchangeTimeout},
	}
}

func (s *oauthService) AuthorizeURL(purpose string) (string, string, error) {
	if purpose != PurposeSignup && purpose != PurposeSignin {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownPurpose, purpose)
	}

	verifier, err := s.pkce.GenerateCodeVerifier()
	if err != nil {
		return "", "", err
	}
	challenge := s.pkce.GenerateCodeChallenge(verifier)

	return s.baseURL + "ui/" + purpose + "?challenge=" + url.QueryEscape(challenge), verifier, nil
}

func (s *oauthService) Exchange(ctx context.Context, code, verifier string) (*TokenResponse, error) {
	if code == "" {
		return nil, ErrMissingCode
	}
	if verifier == "" {
		return nil, ErrMissingVerifier
	}

	params := url.Values{}
	params.Set("code", code)
	params.Set("verifier", verifier)
	exchangeURL := s.baseURL + "token?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exchangeURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		// Transport failures and timeouts surface like a rejection; the
		// code is burned either way.
		return nil, &ProviderError{Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: "unparseable token response: " + err.Error()}
	}
	if token.AuthToken == "" {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: "token response is missing auth_token"}
	}

	return &token, nil
}
