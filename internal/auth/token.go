package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Purpose tags a token with the single flow it is valid for.
type Purpose string

const (
	PurposeAccess Purpose = "access"
	PurposeVerify Purpose = "email_verification"
	PurposeReset  Purpose = "password_reset"
)

// Claims carries the subject, purpose, and lifetime of an issued token.
type Claims struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim as a user identifier.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// TokenCodec signs and verifies purpose-bound HS256 tokens. Access and
// verification tokens share one secret; reset tokens use a distinct
// secret so a leaked access secret cannot forge reset tokens.
type TokenCodec struct {
	accessSecret []byte
	resetSecret  []byte
	leeway       time.Duration
}

// NewTokenCodec constructs a codec from the two configured secrets.
func NewTokenCodec(accessSecret, resetSecret string) *TokenCodec {
	return &TokenCodec{
		accessSecret: []byte(accessSecret),
		resetSecret:  []byte(resetSecret),
		leeway:       5 * time.Second,
	}
}

func (c *TokenCodec) secretFor(purpose Purpose) []byte {
	if purpose == PurposeReset {
		return c.resetSecret
	}
	return c.accessSecret
}

// Issue signs a token for userID bound to purpose, expiring after ttl.
func (c *TokenCodec) Issue(userID int64, purpose Purpose, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(c.secretFor(purpose))
}

// Verify parses the token, checks its signature against the secret for
// the expected purpose, and rejects purpose mismatches. Expired tokens
// return ErrTokenExpired; anything else invalid returns ErrInvalidToken.
func (c *TokenCodec) Verify(tokenString string, purpose Purpose) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return c.secretFor(purpose), nil
	}, jwt.WithLeeway(c.leeway))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
