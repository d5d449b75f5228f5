package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Ananth-NQI/smartservice-backend/internal/models"
)

const tokenIssuer = "smart-service"

// Claims is the identity carried by an access token.
type Claims struct {
	Role   models.Role `json:"role"`
	Name   string      `json:"name"`
	Mobile string      `json:"mobile"`
	jwt.RegisteredClaims
}

// TokenService signs and validates HS256 access tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for p.
func (t *TokenService) Issue(p models.Principal) (string, error) {
	now := t.now()
	claims := Claims{
		Role:   p.Role,
		Name:   p.Name,
		Mobile: p.Mobile,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(p.ID), 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns the principal it names.
func (t *TokenService) Parse(token string) (models.Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%w: bad subject", ErrUnauthorized)
	}
	switch claims.Role {
	case models.RoleCustomer, models.RoleEmployee:
	default:
		return models.Principal{}, fmt.Errorf("%w: unknown role", ErrUnauthorized)
	}
	return models.Principal{Role: claims.Role, ID: uint(id), Name: claims.Name, Mobile: claims.Mobile}, nil
}
