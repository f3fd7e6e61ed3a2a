// Package jwt firma y valida los tokens de operador de la API local del agente.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrEmptySecret = errors.New("jwt: secret vacío")
	ErrMissingUser = errors.New("jwt: token sin operador")
	ErrMissingRole = errors.New("jwt: token sin rol")
	ErrUnknownRole = errors.New("jwt: rol desconocido")
)

// Roles que acepta la API local; coinciden con entity.Role*.
var roles = map[string]bool{"admin": true, "encargado": true, "lector": true}

// Margen para relojes de tablets desfasados respecto al agente.
const leeway = 30 * time.Second

// Claims claims estándar JWT más el operador y su rol en la API local del agente.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"` // "admin" | "encargado" | "lector"
}

func (c *Claims) check() error {
	if c.Username == "" {
		return ErrMissingUser
	}
	if c.Subject != "" && c.Subject != c.Username {
		return fmt.Errorf("jwt: subject %q no coincide con el operador", c.Subject)
	}
	if c.Role == "" {
		return ErrMissingRole
	}
	if !roles[c.Role] {
		return fmt.Errorf("%w: %q", ErrUnknownRole, c.Role)
	}
	return nil
}

// Generate firma un token HS256 para el operador con un jti único.
func Generate(secret, username, role, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		Username: username,
		Role:     role,
	}
	if err := claims.check(); err != nil {
		return "", err
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseClaims valida firma, vigencia, emisor (si issuer no es vacío) y rol del token.
func ParseClaims(secret, issuer, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(leeway),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if err := claims.check(); err != nil {
		return nil, err
	}
	return claims, nil
}

// Parse valida el token sin exigir emisor y devuelve username y role.
func Parse(secret, tokenString string) (username, role string, err error) {
	c, err := ParseClaims(secret, "", tokenString)
	if err != nil {
		return "", "", err
	}
	return c.Username, c.Role, nil
}
