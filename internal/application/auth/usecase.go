package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Inventario-agent/internal/application/dto"
	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase login de operadores de la API local. Los operadores vienen de la configuración.
type AuthUseCase struct {
	operators map[string]entity.Operator
	jwtCfg    JWTConfig
}

// dummyHash se compara cuando el usuario no existe para no revelar cuáles existen por tiempo de respuesta.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("inventario-agent"), bcrypt.DefaultCost)

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(operators []entity.Operator, jwtCfg JWTConfig) *AuthUseCase {
	m := make(map[string]entity.Operator, len(operators))
	for _, op := range operators {
		if op.Username == "" || op.PasswordHash == "" {
			continue
		}
		if op.Role == "" {
			op.Role = entity.RoleAdmin
		}
		m[strings.ToLower(op.Username)] = op
	}
	return &AuthUseCase{operators: m, jwtCfg: jwtCfg}
}

// HashPassword hashea una contraseña con bcrypt (para generar AGENT_PASSWORD_HASH).
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login verifica usuario/contraseña y genera el JWT.
func (uc *AuthUseCase) Login(_ context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, domain.Validation("usuario y contraseña requeridos", map[string]string{
			"username": "requerido", "password": "requerido",
		})
	}
	op, ok := uc.operators[strings.ToLower(username)]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(in.Password))
		return nil, domain.NewError(domain.KindUnauthorized, "credenciales inválidas")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.NewError(domain.KindUnauthorized, "credenciales inválidas")
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, op.Username, op.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, domain.Wrap(domain.KindUnknown, "generar token", err)
	}
	return &dto.LoginResponse{Token: token, Username: op.Username, Role: op.Role}, nil
}
