package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/ecomm-dev/accounts/shared/domain"
	"github.com/golang-jwt/jwt/v5"
)

// TTL is the fixed lifetime of an access token.
const TTL = time.Hour

var (
	ErrMissingKey   = errors.New("jwt signing key is not configured")
	ErrInvalidToken = errors.New("invalid token")
)

type JwtService interface {
	NewToken(identity domain.Identity) (string, error)
	DecodeToken(jwtStr string) (*Claims, error)
}

// Claims is the token payload: {email, id, isAdmin, iat, exp}.
type Claims struct {
	Email   string `json:"email"`
	Id      string `json:"id"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() domain.Identity {
	return domain.Identity{Id: c.Id, Email: c.Email, Admin: c.IsAdmin}
}

type Jwt struct {
	secretKey []byte
	now       func() time.Time
}

func New(secretKey string) (*Jwt, error) {
	if secretKey == "" {
		return nil, ErrMissingKey
	}
	return &Jwt{secretKey: []byte(secretKey), now: time.Now}, nil
}

func (j *Jwt) NewToken(identity domain.Identity) (string, error) {
	if len(j.secretKey) == 0 {
		return "", ErrMissingKey
	}
	issuedAt := j.now()
	claims := Claims{
		Email:   identity.Email,
		Id:      identity.Id,
		IsAdmin: identity.Admin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("can't create token: %w", err)
	}

	return tokenString, nil
}

func (j *Jwt) DecodeToken(jwtStr string) (*Claims, error) {
	if jwtStr == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(jwtStr, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing algorithm
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
