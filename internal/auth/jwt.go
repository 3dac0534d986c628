package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Roles allowed to act on other employees' attendance.
const (
	RoleHR    = "hr"
	RoleAdmin = "admin"
)

// Claims represents JWT payload issued by the portal's identity service.
type Claims struct {
	Subject string `json:"sub"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// Privileged reports whether the caller may access any employee.
func (c Claims) Privileged() bool {
	return c.Role == RoleHR || c.Role == RoleAdmin
}

// CanAccess reports whether the caller may read or write employeeID's attendance.
func (c Claims) CanAccess(employeeID string) bool {
	return c.Privileged() || (c.Subject != "" && c.Subject == employeeID)
}

// Parse validates a token and returns claims.
func Parse(tokenStr, key, issuer string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Claims{}, errors.New("issuer mismatch")
	}
	if claims.Subject == "" {
		return Claims{}, errors.New("missing subject")
	}
	return *claims, nil
}
