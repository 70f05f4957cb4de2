package auth

import (
	"errors"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/shophub/internal/domain/account"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultUserTTL  = 30 * 24 * time.Hour
	DefaultAdminTTL = 7 * 24 * time.Hour
)

type claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

// JWTIssuer signs HS256 tokens whose "type" claim says whether they were issued to a shopper or an admin.
type JWTIssuer struct {
	secret   []byte
	userTTL  time.Duration
	adminTTL time.Duration
	now      func() time.Time
}

func NewJWTIssuer(secret string, userTTL, adminTTL time.Duration) (*JWTIssuer, error) {
	if secret == "" {
		return nil, errors.New("auth: jwt secret is required")
	}
	if userTTL <= 0 {
		userTTL = DefaultUserTTL
	}
	if adminTTL <= 0 {
		adminTTL = DefaultAdminTTL
	}
	return &JWTIssuer{
		secret:   []byte(secret),
		userTTL:  userTTL,
		adminTTL: adminTTL,
		now:      time.Now,
	}, nil
}

func (j *JWTIssuer) Issue(p domain.Principal) (string, error) {
	ttl := j.userTTL
	if p.Kind == domain.KindAdmin {
		ttl = j.adminTTL
	}
	now := j.now()
	c := claims{
		ID:    p.ID,
		Email: p.Email,
		Type:  string(p.Kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

func (j *JWTIssuer) Parse(token string) (domain.Principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return j.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	kind := domain.Kind(c.Type)
	if c.ID == "" || (kind != domain.KindUser && kind != domain.KindAdmin) {
		return domain.Principal{}, domain.ErrInvalidToken
	}
	return domain.Principal{ID: c.ID, Email: c.Email, Kind: kind}, nil
}
