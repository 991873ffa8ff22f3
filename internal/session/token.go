package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)

// Revoker remembers token ids that were logged out before they expired.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

func (t *TokenIssuer) Issue(id Identity) (string, Identity, error) {
	id.TokenID = uuid.NewString()
	claims := jwt.MapClaims{
		"jti":        id.TokenID,
		"user_id":    id.UserID.String(),
		"role":       string(id.Role),
		"email":      id.Email,
		"first_name": id.FirstName,
		"last_name":  id.LastName,
		"exp":        t.now().Add(t.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", Identity{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, id, nil
}

// Parse validates the token and rebuilds the Identity carried in its claims.
func (t *TokenIssuer) Parse(tokenString string) (Identity, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, time.Time{}, ErrTokenExpired
		}
		return Identity{}, time.Time{}, ErrInvalidToken
	}
	if !token.Valid {
		return Identity{}, time.Time{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, time.Time{}, ErrInvalidToken
	}

	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return Identity{}, time.Time{}, ErrInvalidToken
	}
	rawRole, _ := claims["role"].(string)
	role, ok := ParseRole(rawRole)
	if !ok {
		return Identity{}, time.Time{}, ErrInvalidToken
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	id := Identity{UserID: userID, Role: role}
	id.TokenID, _ = claims["jti"].(string)
	id.Email, _ = claims["email"].(string)
	id.FirstName, _ = claims["first_name"].(string)
	id.LastName, _ = claims["last_name"].(string)
	return id, expiresAt, nil
}
