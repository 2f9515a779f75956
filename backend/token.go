package backend

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

// TokenClaims is the access-token payload minted by self-managed client
// implementations (inmem, postgres).
type TokenClaims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
}

// MintSession creates a session with a signed HS256 access token.
func MintSession(secret, userID, email string, ttl time.Duration) (*Session, error) {
	now := NowFunc()
	exp := now.Add(ttl)
	claims := &TokenClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			IssuedAt:  now.Unix(),
			ExpiresAt: exp.Unix(),
		},
		Email: email,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return nil, errors.Wrap(err, "signing token")
	}
	return &Session{
		UserID:      userID,
		Email:       email,
		AccessToken: token,
		ExpiresAt:   exp.UTC(),
	}, nil
}

// ParseSessionToken validates a minted token and rebuilds its session.
// Any parse or expiry failure surfaces as an invalid-credentials AuthError.
func ParseSessionToken(secret, token string) (*Session, error) {
	claims := new(TokenClaims)
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, NewAuthError(ReasonInvalidCredentials)
	}
	return &Session{
		UserID:      claims.Subject,
		Email:       claims.Email,
		AccessToken: token,
		ExpiresAt:   time.Unix(claims.ExpiresAt, 0).UTC(),
	}, nil
}
