package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	PurposeAccess = "access"
	PurposeInvite = "invite"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongPurpose = errors.New("token purpose mismatch")
)

type Claims struct {
	UserID  uuid.UUID `json:"user_id"`
	Email   string    `json:"email,omitempty"`
	Purpose string    `json:"purpose"`
	jwt.RegisteredClaims
}

type Parser struct {
	secret []byte
	now    func() time.Time
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret), now: time.Now}
}

func (p *Parser) Issue(userID uuid.UUID, email, purpose string, ttl time.Duration) (string, time.Time, error) {
	now := p.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		UserID:  userID,
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies signature and expiry and requires the given purpose.
func (p *Parser) Parse(tokenString, purpose string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}
