package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GoogleProviderID marks identities that may back up to Google Drive.
const GoogleProviderID = "google.com"

var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the signed in user as seen by the core.
type Identity struct {
	ID        string   `json:"id"`
	Email     string   `json:"email,omitempty"`
	Providers []string `json:"providers,omitempty"`
}

// IsGoogle is evaluated on every call from the current provider list.
func (i *Identity) IsGoogle() bool {
	return i != nil && slices.Contains(i.Providers, GoogleProviderID)
}

type Claims struct {
	Email     string   `json:"email,omitempty"`
	Providers []string `json:"providers,omitempty"`
	jwt.RegisteredClaims
}

// Verifier issues and checks HS256 identity tokens.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Issue(id Identity, ttl time.Duration) (string, error) {
	if id.ID == "" {
		return "", fmt.Errorf("identity without id")
	}
	now := time.Now()
	claims := Claims{
		Email:     id.Email,
		Providers: id.Providers,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &Identity{ID: claims.Subject, Email: claims.Email, Providers: claims.Providers}, nil
}
