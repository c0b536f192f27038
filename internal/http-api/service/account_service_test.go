package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"pixelboard/internal/http-api/models"
	"pixelboard/internal/http-api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func githubStub(t *testing.T, wantToken string, body string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/emails", r.URL.Path)
		assert.Equal(t, "Bearer "+wantToken, r.Header.Get("Authorization"))
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestProvision_CreatesUserFromPrimaryEmail(t *testing.T) {
	github := githubStub(t, "gh-token",
		`[{"email":"side@example.com","primary":false},{"email":"corbin@example.com","primary":true,"verified":true}]`,
		http.StatusOK)
	defer github.Close()

	mockUsers := new(MockUserRepository)
	mockUsers.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "corbin@example.com" && u.Username == "corbin" && u.IdentityID == "id-42"
	})).Return(nil)

	svc := NewAccountService(mockUsers, github.URL)

	user, err := svc.Provision(context.Background(), &TokenResponse{
		AuthToken:     "tok",
		IdentityID:    "id-42",
		Provider:      "github",
		ProviderToken: "gh-token",
	})
	require.NoError(t, err)
	assert.Equal(t, "corbin@example.com", user.Email)

	mockUsers.AssertExpectations(t)
}

func TestProvision_UnsupportedProvider(t *testing.T) {
	mockUsers := new(MockUserRepository)
	svc := NewAccountService(mockUsers, "http://unused.invalid")

	_, err := svc.Provision(context.Background(), &TokenResponse{
		Provider:      "gitlab",
		ProviderToken: "whatever",
	})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
	mockUsers.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProvision_NoPrimaryEmail(t *testing.T) {
	github := githubStub(t, "gh-token", `[{"email":"side@example.com","primary":false}]`, http.StatusOK)
	defer github.Close()

	svc := NewAccountService(new(MockUserRepository), github.URL)

	_, err := svc.Provision(context.Background(), &TokenResponse{
		Provider:      "github",
		ProviderToken: "gh-token",
	})
	assert.ErrorIs(t, err, ErrNoPrimaryEmail)
}

func TestProvision_UpstreamRejection(t *testing.T) {
	github := githubStub(t, "bad-token", `{"message":"Bad credentials"}`, http.StatusUnauthorized)
	defer github.Close()

	svc := NewAccountService(new(MockUserRepository), github.URL)

	_, err := svc.Provision(context.Background(), &TokenResponse{
		Provider:      "github",
		ProviderToken: "bad-token",
	})
	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, http.StatusUnauthorized, providerErr.StatusCode)
	assert.Contains(t, providerErr.Body, "Bad credentials")
}

func TestProvision_DuplicateIdentityReusesAccount(t *testing.T) {
	github := githubStub(t, "gh-token", `[{"email":"corbin@example.com","primary":true}]`, http.StatusOK)
	defer github.Close()

	existing := &models.User{ID: "user-1", IdentityID: "id-42"}

	mockUsers := new(MockUserRepository)
	mockUsers.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)
	mockUsers.On("FindByIdentityID", mock.Anything, "id-42").Return(existing, nil)

	svc := NewAccountService(mockUsers, github.URL)

	user, err := svc.Provision(context.Background(), &TokenResponse{
		IdentityID:    "id-42",
		Provider:      "github",
		ProviderToken: "gh-token",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
}

func TestLookup(t *testing.T) {
	existing := &models.User{ID: "user-1", IdentityID: "id-42"}

	mockUsers := new(MockUserRepository)
	mockUsers.On("FindByIdentityID", mock.Anything, "id-42").Return(existing, nil)
	mockUsers.On("FindByIdentityID", mock.Anything, "id-unknown").Return(nil, assert.AnError)

	svc := NewAccountService(mockUsers, "")

	user, err := svc.Lookup(context.Background(), "id-42")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	_, err = svc.Lookup(context.Background(), "id-unknown")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
