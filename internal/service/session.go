package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the JWT claims structure of a call-session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	PublicKey   string `json:"public_key"`
	CallID      string `json:"call_id"`
	AssistantID string `json:"assistant_id,omitempty"`
}

// SessionService mints and validates call-session tokens.
type SessionService struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionService creates a SessionService with the given signing
// secret and token lifetime.
func NewSessionService(secret string, ttl time.Duration) *SessionService {
	return &SessionService{secret: []byte(secret), ttl: ttl}
}

// Mint issues a signed session token for one call.
func (s *SessionService) Mint(publicKey, callID, assistantID string) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		PublicKey:   publicKey,
		CallID:      callID,
		AssistantID: assistantID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses a session token and returns its claims.
func (s *SessionService) Validate(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	if claims.PublicKey == "" {
		return nil, errors.New("token missing public key")
	}
	if claims.CallID == "" {
		return nil, errors.New("token missing call ID")
	}
	return claims, nil
}
