package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"syncauth/internal/auth/models"
	dErrors "syncauth/pkg/domain-errors"
)

// SessionClaims are carried by the session token issued after a successful
// authorization.
type SessionClaims struct {
	UID        string `json:"uid"`
	PrimaryUID string `json:"primary_uid"`
	Alias      string `json:"alias,omitempty"`
	jwt.RegisteredClaims
}

// IdentityClaims are carried by the token the external OAuth flow issues once
// it has verified a primary account. The subject is the primary UID.
type IdentityClaims struct {
	jwt.RegisteredClaims
}

// JWTService issues session tokens and verifies identity tokens.
type JWTService struct {
	signingKey  []byte
	identityKey []byte
	issuer      string
	tokenTTL    time.Duration
	now         func() time.Time
}

// NewJWTService builds the service. An empty identityKey reuses signingKey.
func NewJWTService(signingKey, identityKey, issuer string, tokenTTL time.Duration) *JWTService {
	if identityKey == "" {
		identityKey = signingKey
	}
	return &JWTService{
		signingKey:  []byte(signingKey),
		identityKey: []byte(identityKey),
		issuer:      issuer,
		tokenTTL:    tokenTTL,
		now:         time.Now,
	}
}

// IssueSessionToken signs a session token for a successful verdict.
func (s *JWTService) IssueSessionToken(verdict *models.Verdict) (string, time.Time, error) {
	if verdict == nil || !verdict.Success {
		return "", time.Time{}, dErrors.New(dErrors.CodeInvalidInput, "session tokens are only issued for successful verdicts")
	}
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		UID:        verdict.UID,
		PrimaryUID: verdict.PrimaryUID,
		Alias:      verdict.Alias,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   verdict.UID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, dErrors.Wrap(err, dErrors.CodeInternal, "sign session token")
	}
	return signed, expiresAt, nil
}

func (s *JWTService) ValidateSessionToken(tokenString string) (*SessionClaims, error) {
	claims := new(SessionClaims)
	if err := s.parse(tokenString, claims, s.signingKey); err != nil {
		return nil, err
	}
	if claims.Issuer != s.issuer {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token issuer")
	}
	return claims, nil
}

// GenerateIdentityToken signs an identity token for primaryUID. The OAuth flow
// uses it, and so do local tooling and tests.
func (s *JWTService) GenerateIdentityToken(primaryUID string, ttl time.Duration) (string, error) {
	if primaryUID == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "primary uid is required")
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   primaryUID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.identityKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "sign identity token")
	}
	return signed, nil
}

// ParseIdentityToken verifies an identity token and returns the primary UID
// it vouches for.
func (s *JWTService) ParseIdentityToken(tokenString string) (string, error) {
	claims := new(IdentityClaims)
	if err := s.parse(tokenString, claims, s.identityKey); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "identity token has no subject")
	}
	return claims.Subject, nil
}

func (s *JWTService) parse(tokenString string, claims jwt.Claims, key []byte) error {
	if tokenString == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "empty token")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return key, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return dErrors.New(dErrors.CodeUnauthorized, "token expired")
		}
		return dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	return nil
}
