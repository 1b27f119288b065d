package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "gatepass/pkg/domain-errors"
)

// Claims represents the JWT claims carried by access tokens. Tokens are
// issued by the external account service; the subject is the user id.
type Claims struct {
	Roles       []string `json:"roles"`
	HouseholdID string   `json:"household_id,omitempty"`
	Name        string   `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenSpec describes the caller encoded into a generated token.
type TokenSpec struct {
	UserID      uuid.UUID
	Roles       []string
	HouseholdID *uuid.UUID
	Name        string
}

// JWTService handles JWT creation and validation
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewJWTService(signingKey string, issuer string, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// GenerateAccessToken signs a token for ts. Production tokens come from
// the account service; this is used by tests and local tooling.
func (s *JWTService) GenerateAccessToken(ts TokenSpec, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Roles: ts.Roles,
		Name:  ts.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ts.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}
	if ts.HouseholdID != nil {
		claims.HouseholdID = ts.HouseholdID.String()
	}

	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	var opts []jwt.ParserOption
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, opts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	return claims, nil
}
