package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración del agente (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App    AppConfig
	API    APIConfig
	Sync   SyncConfig
	DB     DBConfig
	JWT    JWTConfig
	HTTP   HTTPConfig
	Agent  AgentConfig
	Device DeviceConfig
	Report ReportConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// APIConfig backend REST remoto.
type APIConfig struct {
	BaseURL string        // EXPO_PUBLIC_API_URL
	Timeout time.Duration // por petición
}

// SyncConfig sondeo periódico de notificaciones del backend.
type SyncConfig struct {
	Interval   time.Duration
	MaxBackoff time.Duration
	Jitter     float64 // fracción 0..1 aplicada sobre el intervalo
}

// DBConfig configuración de PostgreSQL (opcional: sin DatabaseURL ni Host se usa almacenamiento en memoria).
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// Enabled indica si hay base de datos configurada.
func (c DBConfig) Enabled() bool {
	return c.DatabaseURL != "" || c.Host != ""
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT de la API local.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP local.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AgentConfig credenciales del operador de la API local.
type AgentConfig struct {
	User         string
	PasswordHash string // bcrypt
	Role         string

	// RefreshInterval cada cuánto se relee la lista de productos (0 desactiva).
	RefreshInterval time.Duration
}

// DeviceConfig token push y plataforma a registrar en el backend.
type DeviceConfig struct {
	PushToken string
	Platform  string
	DeviceID  string
	// GrantNotifications simula la respuesta del diálogo de permisos de la plataforma.
	GrantNotifications bool
}

// ReportConfig destino de los reportes PDF semanales.
type ReportConfig struct {
	Dir string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	baseURL := getString(v, "EXPO_PUBLIC_API_URL", "")
	if baseURL == "" {
		baseURL = getString(v, "API_URL", "")
	}
	return &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "inventario-agent"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		API: APIConfig{
			BaseURL: strings.TrimRight(baseURL, "/"),
			Timeout: getDuration(v, "API_TIMEOUT", 15*time.Second),
		},
		Sync: SyncConfig{
			Interval:   getDuration(v, "SYNC_INTERVAL", 2*time.Minute),
			MaxBackoff: getDuration(v, "SYNC_MAX_BACKOFF", 30*time.Minute),
			Jitter:     getFloat(v, "SYNC_JITTER", 0.2),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", ""),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "inventario_agent"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "inventario-agent"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "127.0.0.1"),
			Port: getInt(v, "HTTP_PORT", 8090),
		},
		Agent: AgentConfig{
			User:            getString(v, "AGENT_USER", "admin"),
			PasswordHash:    getString(v, "AGENT_PASSWORD_HASH", ""),
			Role:            getString(v, "AGENT_ROLE", "admin"),
			RefreshInterval: getDuration(v, "PRODUCTS_REFRESH_INTERVAL", 5*time.Minute),
		},
		Device: DeviceConfig{
			PushToken:          getString(v, "PUSH_TOKEN", ""),
			Platform:           getString(v, "DEVICE_PLATFORM", "android"),
			DeviceID:           getString(v, "DEVICE_ID", ""),
			GrantNotifications: getBool(v, "NOTIFICATIONS_GRANTED", true),
		},
		Report: ReportConfig{
			Dir: getString(v, "REPORT_DIR", "./reports"),
		},
	}
}

// Validate rechaza configuraciones con las que el agente no puede arrancar.
// Sin URL base todas las llamadas al backend fallarían en tiempo de ejecución.
func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("EXPO_PUBLIC_API_URL es obligatorio"))
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("EXPO_PUBLIC_API_URL inválido: %q", c.API.BaseURL))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET es obligatorio"))
	}
	if c.Sync.Interval <= 0 {
		errs = append(errs, errors.New("SYNC_INTERVAL debe ser positivo"))
	}
	if c.Sync.MaxBackoff < c.Sync.Interval {
		errs = append(errs, errors.New("SYNC_MAX_BACKOFF debe ser >= SYNC_INTERVAL"))
	}
	if c.Sync.Jitter < 0 || c.Sync.Jitter > 1 {
		errs = append(errs, errors.New("SYNC_JITTER debe estar entre 0 y 1"))
	}
	return errors.Join(errs...)
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getFloat(v *viper.Viper, key string, def float64) float64 {
	if v.IsSet(key) {
		f, err := strconv.ParseFloat(v.GetString(key), 64)
		if err != nil {
			return def
		}
		return f
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		b, err := strconv.ParseBool(v.GetString(key))
		if err != nil {
			return def
		}
		return b
	}
	return def
}

// getDuration acepta "90s", "2m" o un entero en segundos.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	raw := strings.TrimSpace(v.GetString(key))
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
