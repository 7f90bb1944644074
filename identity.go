package openlearnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrAccountExists is returned when an account with the same email
	// already exists in the user directory.
	ErrAccountExists = errors.New("account creation failed")
	// ErrUserNotFound is returned when no profile document exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidFederatedToken is returned when a federated ID token
	// fails verification.
	ErrInvalidFederatedToken = errors.New("invalid federated token")
)

// DefaultTokenInfoURL is Google's ID token verification endpoint.
const DefaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// FederatedClaims are the identity fields extracted from a verified
// federated ID token.
type FederatedClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// FederatedVerifier verifies federated (Google) ID tokens against the
// provider's tokeninfo endpoint.
type FederatedVerifier struct {
	endpoint   string
	httpClient *http.Client
}

// NewFederatedVerifier creates a verifier. An empty endpoint uses the
// Google tokeninfo URL.
func NewFederatedVerifier(endpoint string) *FederatedVerifier {
	if endpoint == "" {
		endpoint = DefaultTokenInfoURL
	}
	return &FederatedVerifier{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify checks an ID token with the provider and returns the identity
// claims it carries.
func (fv *FederatedVerifier) Verify(ctx context.Context, idToken string) (*FederatedClaims, error) {
	reqURL := fv.endpoint + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tokeninfo request: %w", err)
	}

	resp, err := fv.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: tokeninfo %d: %s", ErrInvalidFederatedToken, resp.StatusCode, string(body))
	}

	var claims FederatedClaims
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}
	if claims.Sub == "" {
		return nil, fmt.Errorf("%w: tokeninfo response has no subject", ErrInvalidFederatedToken)
	}
	return &claims, nil
}

// IdentityGateway wraps the user directory: account creation, profile
// reads and writes, and federated token verification. Every call
// reaches the store directly; nothing is cached and nothing retries.
type IdentityGateway struct {
	db       *DB
	verifier *FederatedVerifier
}

// NewIdentityGateway creates an identity gateway over the store and
// federated verifier.
func NewIdentityGateway(db *DB, verifier *FederatedVerifier) *IdentityGateway {
	return &IdentityGateway{db: db, verifier: verifier}
}

// CreateAccount creates a credential record in the user directory and
// returns the provider-assigned uid.
func (g *IdentityGateway) CreateAccount(ctx context.Context, email, password, displayName string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	uid := uuid.NewString()
	rec := &accountRecord{
		UID:          uid,
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		CreatedAt:    time.Now(),
	}
	if err := g.db.insertAccount(ctx, rec); err != nil {
		return "", err
	}
	return uid, nil
}

// Signup creates an account and writes its profile document. The two
// writes are not atomic; when the profile write fails the account is
// deleted again so no orphaned credential record is left behind.
func (g *IdentityGateway) Signup(ctx context.Context, fullName, username, email, password string) (string, error) {
	uid, err := g.CreateAccount(ctx, email, password, fullName)
	if err != nil {
		return "", err
	}

	profile := &UserAccount{
		UID:      uid,
		FullName: fullName,
		Username: username,
		Email:    email,
	}
	if err := g.UpsertProfile(ctx, profile); err != nil {
		if delErr := g.db.deleteAccount(ctx, uid); delErr != nil {
			log.Printf("Failed to roll back account %s after profile write error: %v", uid, delErr)
		}
		return "", err
	}
	return uid, nil
}

// FindByEmail looks up a user's profile by email address. Returns
// ErrUserNotFound when the email is not in the directory.
func (g *IdentityGateway) FindByEmail(ctx context.Context, email string) (*UserAccount, error) {
	return g.db.profileByEmail(ctx, email)
}

// FindByUID looks up a user's profile by identifier.
func (g *IdentityGateway) FindByUID(ctx context.Context, uid string) (*UserAccount, error) {
	return g.db.profileByUID(ctx, uid)
}

// UpsertProfile writes the profile fields only if no record exists yet.
func (g *IdentityGateway) UpsertProfile(ctx context.Context, account *UserAccount) error {
	return g.db.upsertProfile(ctx, account)
}

// VerifyFederatedToken verifies a federated ID token and returns the
// identity claims.
func (g *IdentityGateway) VerifyFederatedToken(ctx context.Context, idToken string) (*FederatedClaims, error) {
	return g.verifier.Verify(ctx, idToken)
}
