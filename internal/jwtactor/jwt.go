// Package jwtactor issues and validates the HS256 bearer tokens that carry an
// actor identity. Token issuance happens at login, outside this service; the
// validator side is what the middleware uses.
package jwtactor

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"grievance/pkg/domain"
	dErrors "grievance/pkg/domain-errors"
)

// Claims represents the JWT claims for our access tokens.
type Claims struct {
	ActorKind string `json:"actor_kind"`
	ActorID   string `json:"actor_id"`
	Authority string `json:"authority,omitempty"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey string, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// GenerateToken signs a token for the given actor.
func (s *Service) GenerateToken(actor domain.Actor, expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ActorKind: string(actor.Kind),
		ActorID:   actor.ID.String(),
		Authority: actor.Authority,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// ValidateToken parses and verifies a token, returning the actor it carries.
func (s *Service) ValidateToken(tokenString string) (domain.Actor, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	actorID, err := uuid.Parse(claims.ActorID)
	if err != nil {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid actor id in token")
	}
	return domain.NewActor(domain.ActorKind(claims.ActorKind), actorID, claims.Authority)
}
