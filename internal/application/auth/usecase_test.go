package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Inventario-agent/internal/application/auth"
	"github.com/jhoicas/Inventario-agent/internal/application/dto"
	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	pkgjwt "github.com/jhoicas/Inventario-agent/pkg/jwt"
)

const secret = "test-secret-key-for-unit-tests"

func newUseCase(t *testing.T) *auth.AuthUseCase {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	return auth.NewAuthUseCase([]entity.Operator{
		{Username: "Maria", PasswordHash: string(hash), Role: entity.RoleEncargado},
		{Username: "sinclave"},
	}, auth.JWTConfig{Secret: secret, ExpMinutes: 60, Issuer: "inventario-agent-test"})
}

func TestLogin_OK(t *testing.T) {
	resp, err := newUseCase(t).Login(context.Background(), dto.LoginRequest{Username: "maria", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "Maria", resp.Username)
	assert.Equal(t, entity.RoleEncargado, resp.Role)

	username, role, err := pkgjwt.Parse(secret, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "Maria", username)
	assert.Equal(t, entity.RoleEncargado, role)
}

func TestLogin_Rechazos(t *testing.T) {
	uc := newUseCase(t)
	cases := []struct {
		name string
		in   dto.LoginRequest
		is   error
	}{
		{"password incorrecto", dto.LoginRequest{Username: "maria", Password: "x"}, domain.ErrUnauthorized},
		{"usuario inexistente", dto.LoginRequest{Username: "pedro", Password: "s3cret"}, domain.ErrUnauthorized},
		{"operador sin hash ignorado", dto.LoginRequest{Username: "sinclave", Password: "x"}, domain.ErrUnauthorized},
		{"campos vacíos", dto.LoginRequest{}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Login(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.is)
		})
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := auth.HashPassword("abc")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("abc")))
}
