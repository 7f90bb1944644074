package openlearnhub

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by Verify for any token that cannot be
// accepted: bad signature, malformed payload, or past expiry.
var ErrInvalidToken = errors.New("invalid token")

// TokenService issues and verifies the signed session tokens handed out
// at login and sign-in. Validity is purely a function of the signature
// and the expiry claim; there is no revocation list.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a token service from the signing secret.
func NewTokenService(secret string) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token signing secret is required")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Issue mints a signed token carrying the user identifier. A non-zero
// ttl sets an expiry; ttl == 0 produces a non-expiring token. The two
// sign-in paths deliberately disagree here: password login issues
// 1-hour tokens while federated sign-in issues non-expiring ones.
// TODO: decide whether federated tokens should expire too.
func (ts *TokenService) Issue(uid string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"uid": uid,
		"iat": jwt.NewNumericDate(now),
	}
	if ttl != 0 {
		claims["exp"] = jwt.NewNumericDate(now.Add(ttl))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify checks the signature and expiry of a token and returns the
// user identifier it carries.
func (ts *TokenService) Verify(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return "", ErrInvalidToken
	}
	return uid, nil
}
