package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pixelboard/internal/http-api/models"
	"pixelboard/internal/http-api/repository"
)

var (
	// ErrUnsupportedProvider: the exchange payload names an upstream issuer
	// this service has no provisioning path for.
	ErrUnsupportedProvider = errors.New("unsupported identity provider")
	// ErrNoPrimaryEmail: the upstream account exposes no usable primary email.
	ErrNoPrimaryEmail = errors.New("no primary email found for account")
	// ErrAccountExists: signup for an identity or email that is already registered.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountNotFound: signin for an identity with no local account.
	ErrAccountNotFound = errors.New("no account for this identity")
)

const defaultGitHubAPIURL = "https://api.github.com"

// AccountService provisions local accounts from identity-provider exchange
// payloads and resolves identities on sign-in.
type AccountService interface {
	// Provision creates a user for a fresh signup, resolving the primary
	// email from the upstream provider with the forwarded provider token.
	Provision(ctx context.Context, token *TokenResponse) (*models.User, error)
	// Lookup resolves an existing account by identity-provider subject.
	Lookup(ctx context.Context, identityID string) (*models.User, error)
}

type accountService struct {
	users        repository.UserRepository
	client       *http.Client
	githubAPIURL string
}

// NewAccountService builds an AccountService talking to the public GitHub
// API. githubAPIURL overrides the endpoint for tests; empty means default.
func NewAccountService(users repository.UserRepository, githubAPIURL string) AccountService {
	if githubAPIURL == "" {
		githubAPIURL = defaultGitHubAPIURL
	}
	return &accountService{
		users:        users,
		client:       &http.Client{Timeout: 10 * time.Second},
		githubAPIURL: strings.TrimRight(githubAPIURL, "/"),
	}
}

func (s *accountService) Provision(ctx context.Context, token *TokenResponse) (*models.User, error) {
	var email string
	switch token.Provider {
	// The provider field is empty on older auth-server revisions, which only
	// supported GitHub.
	case "github", "builtin::oauth_github", "":
		var err error
		email, err = s.primaryGitHubEmail(ctx, token.ProviderToken)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, token.Provider)
	}

	user := &models.User{
		Username:   usernameFromEmail(email),
		Email:      email,
		IdentityID: token.IdentityID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Signing up twice with the same identity is fine; reuse the row.
			if existing, lookupErr := s.users.FindByIdentityID(ctx, token.IdentityID); lookupErr == nil {
				return existing, nil
			}
			return nil, ErrAccountExists
		}
		return nil, err
	}
	return user, nil
}

func (s *accountService) Lookup(ctx context.Context, identityID string) (*models.User, error) {
	user, err := s.users.FindByIdentityID(ctx, identityID)
	if err != nil {
		return nil, ErrAccountNotFound
	}
	return user, nil
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (s *accountService) primaryGitHubEmail(ctx context.Context, providerToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.githubAPIURL+"/user/emails", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+providerToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &ProviderError{Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &ProviderError{StatusCode: resp.StatusCode, Body: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var emails []githubEmail
	if err := json.Unmarshal(body, &emails); err != nil {
		return "", &ProviderError{StatusCode: resp.StatusCode, Body: "unparseable emails response: " + err.Error()}
	}
	for _, e := range emails {
		if e.Primary {
			return e.Email, nil
		}
	}
	return "", ErrNoPrimaryEmail
}

func usernameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
