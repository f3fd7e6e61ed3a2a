package entity

// Roles válidos para Operator.
const (
	RoleAdmin     = "admin"
	RoleEncargado = "encargado" // encargado de stock: registra movimientos
	RoleLector    = "lector"    // solo lectura
)

// Operator usuario de la API local del agente. PasswordHash es bcrypt.
type Operator struct {
	Username     string
	PasswordHash string
	Role         string
}
