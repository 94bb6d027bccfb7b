// Package config carga la configuración del servicio desde YAML con
// overrides por variables de entorno. El archivo es opcional; env siempre
// gana sobre YAML, y los defaults cubren desarrollo local.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

		// DefaultRedirect es el destino post-auth cuando redirect_to no pasa
		// el allow-list.
		DefaultRedirect string `yaml:"default_redirect"`

		// RedirectAllowedHosts es el allow-list de hosts para redirect_to.
		// Paths relativos siempre se permiten.
		RedirectAllowedHosts []string `yaml:"redirect_allowed_hosts"`
	} `yaml:"server"`

	Genuka struct {
		URL          string `yaml:"url"`
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		RedirectURI  string `yaml:"redirect_uri"`

		// CallbackMaxAge es la ventana de frescura del timestamp firmado.
		CallbackMaxAge time.Duration `yaml:"callback_max_age"`
	} `yaml:"genuka"`

	Storage struct {
		// postgres | memory
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int           `yaml:"max_conns"`
			MinConns        int           `yaml:"min_conns"`
			ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL time.Duration `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Session struct {
		SessionTTL   time.Duration `yaml:"session_ttl"`
		RefreshTTL   time.Duration `yaml:"refresh_ttl"`
		CookieDomain string        `yaml:"cookie_domain"`
	} `yaml:"session"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load lee el YAML (si path no está vacío y existe), aplica env overrides y
// defaults. No valida: llamar Validate() después.
func Load(path string) (*Config, error) {
	var c Config

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// archivo opcional
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	c.applyEnv()
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyEnv() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}
	if v, ok := getEnvStr("DEFAULT_REDIRECT"); ok {
		c.Server.DefaultRedirect = v
	}
	if v, ok := getEnvCSV("REDIRECT_ALLOWED_HOSTS"); ok {
		c.Server.RedirectAllowedHosts = v
	}

	if v, ok := getEnvStr("GENUKA_URL"); ok {
		c.Genuka.URL = v
	}
	if v, ok := getEnvStr("GENUKA_CLIENT_ID"); ok {
		c.Genuka.ClientID = v
	}
	if v, ok := getEnvStr("GENUKA_CLIENT_SECRET"); ok {
		c.Genuka.ClientSecret = v
	}
	if v, ok := getEnvStr("GENUKA_REDIRECT_URI"); ok {
		c.Genuka.RedirectURI = v
	}

	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("DATABASE_URL"); ok {
		c.Storage.DSN = v
	}

	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}

	if v, ok := getEnvStr("SESSION_COOKIE_DOMAIN"); ok {
		c.Session.CookieDomain = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.DefaultRedirect == "" {
		c.Server.DefaultRedirect = "/dashboard"
	}
	if c.Genuka.URL == "" {
		c.Genuka.URL = "https://api.genuka.com"
	}
	if c.Genuka.CallbackMaxAge <= 0 {
		c.Genuka.CallbackMaxAge = 5 * time.Minute
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL <= 0 {
		c.Cache.Memory.DefaultTTL = 5 * time.Minute
	}
	if c.Session.SessionTTL <= 0 {
		c.Session.SessionTTL = 7 * time.Hour
	}
	if c.Session.RefreshTTL <= 0 {
		c.Session.RefreshTTL = 30 * 24 * time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// IsProd reporta si corremos en producción (afecta p.ej. el flag Secure de
// las cookies).
func (c *Config) IsProd() bool {
	return strings.EqualFold(c.App.Env, "prod") || strings.EqualFold(c.App.Env, "production")
}

// Validate falla rápido si faltan credenciales del provider o el DSN del
// storage configurado.
func (c *Config) Validate() error {
	var missing []string
	if c.Genuka.ClientID == "" {
		missing = append(missing, "GENUKA_CLIENT_ID")
	}
	if c.Genuka.ClientSecret == "" {
		missing = append(missing, "GENUKA_CLIENT_SECRET")
	}
	if c.Genuka.RedirectURI == "" {
		missing = append(missing, "GENUKA_REDIRECT_URI")
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required values: %s", strings.Join(missing, ", "))
	}
	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown cache kind %q", c.Cache.Kind)
	}
	return nil
}

func getEnvStr(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func getEnvInt(key string) (int, bool) {
	s, ok := getEnvStr(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func getEnvCSV(key string) ([]string, bool) {
	s, ok := getEnvStr(key)
	if !ok {
		return nil, false
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, true
}
