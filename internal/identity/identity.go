// ABOUTME: Identity providers that supply the user's email to the chat core
// ABOUTME: Static email from config, or the email claim of an OpenID ID token

package identity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity errors
var (
	ErrNoIdentity   = errors.New("no identity configured")
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingClaim = errors.New("missing required claim")
)

// Provider supplies the identity of the signed-in user.
type Provider interface {
	// Email returns the user's email address.
	Email(ctx context.Context) (string, error)
	// Token returns the raw bearer token, or "" when there is none.
	Token(ctx context.Context) (string, error)
}

// Static is a Provider with a fixed email and no token.
type Static string

// Email implements Provider.
func (s Static) Email(ctx context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrNoIdentity
	}
	return string(s), nil
}

// Token implements Provider.
func (s Static) Token(ctx context.Context) (string, error) {
	return "", nil
}

// IDToken reads the email claim of an ID token issued by the sign-in provider.
// The token is not verified here; the backend is the authority and the local
// copy only tells the client who it is acting for.
type IDToken struct {
	raw  string
	path string
}

// NewIDToken wraps a raw token string.
func NewIDToken(raw string) *IDToken {
	return &IDToken{raw: strings.TrimSpace(raw)}
}

// NewIDTokenFile reads the token from path on every call, so a refreshed
// token file is picked up without restarting.
func NewIDTokenFile(path string) *IDToken {
	return &IDToken{path: path}
}

// Token implements Provider.
func (t *IDToken) Token(ctx context.Context) (string, error) {
	if t.path == "" {
		if t.raw == "" {
			return "", ErrNoIdentity
		}
		return t.raw, nil
	}
	data, err := os.ReadFile(t.path)
	if err != nil {
		return "", fmt.Errorf("reading id token: %w", err)
	}
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrNoIdentity, t.path)
	}
	return raw, nil
}

// Email implements Provider by extracting the "email" claim.
func (t *IDToken) Email(ctx context.Context) (string, error) {
	raw, err := t.Token(ctx)
	if err != nil {
		return "", err
	}
	return EmailClaim(raw)
}

// EmailClaim returns the "email" claim of an unverified JWT.
func EmailClaim(tokenString string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	email, ok := claims["email"].(string)
	if !ok || strings.TrimSpace(email) == "" {
		return "", fmt.Errorf("%w: email", ErrMissingClaim)
	}
	return email, nil
}
