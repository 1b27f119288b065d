package jwttoken

import (
	id "gatepass/pkg/domain"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/identity"
)

// ToCaller converts validated claims into the caller identity the visitor
// engine consumes. Unknown roles make the token invalid.
func ToCaller(claims *Claims) (*identity.Caller, error) {
	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}

	var roles identity.RoleSet
	for _, name := range claims.Roles {
		role, err := identity.ParseRole(name)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token roles")
		}
		roles |= identity.Roles(role)
	}

	caller := &identity.Caller{
		ID:          userID,
		Roles:       roles,
		DisplayName: claims.Name,
	}
	if claims.HouseholdID != "" {
		household, err := id.ParseHouseholdID(claims.HouseholdID)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token household")
		}
		caller.HouseholdID = &household
	}
	return caller, nil
}

// JWTServiceAdapter satisfies the auth middleware's validator contract.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*identity.Caller, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToCaller(claims)
}
