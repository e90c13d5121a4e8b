package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		Driver   string `yaml:"driver"` // postgres | memory
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns int `yaml:"max_open_conns"`
			MaxIdleConns int `yaml:"max_idle_conns"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	JWT struct {
		Issuer    string `yaml:"issuer"`
		AccessTTL string `yaml:"access_ttl"`
		KeyPath   string `yaml:"key_path"`
	} `yaml:"jwt"`

	Auth struct {
		Session struct {
			TTL         string `yaml:"ttl"`
			RememberTTL string `yaml:"remember_ttl"`
		} `yaml:"session"`
		Reset struct {
			TTL time.Duration `yaml:"ttl"`
		} `yaml:"reset"`
		Verify struct {
			TTL time.Duration `yaml:"ttl"`
		} `yaml:"verify"`
		Lockout struct {
			MaxAttempts int    `yaml:"max_attempts"`
			Duration    string `yaml:"duration"`
		} `yaml:"lockout"`
		TOTP struct {
			Issuer string `yaml:"issuer"` // label shown in authenticator apps
		} `yaml:"totp"`
	} `yaml:"auth"`

	Register struct {
		AllowRoleSelection bool `yaml:"allow_role_selection"`
	} `yaml:"register"`

	Rate struct {
		Enabled bool `yaml:"enabled"`

		Login struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"login"`

		Forgot struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"forgot"`

		TwoFactor struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"two_factor"`
	} `yaml:"rate"`

	Flags struct {
		Migrate bool `yaml:"migrate"`
	} `yaml:"flags"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"`                  // auto | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"` // sólo dev
	} `yaml:"smtp"`

	Email struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"email"`

	Security struct {
		SecretBoxMasterKey string `yaml:"secretbox_master_key"` // base64(32 bytes), cifra secretos TOTP en DB
		PasswordPolicy     struct {
			MinLength     int  `yaml:"min_length"`
			RequireUpper  bool `yaml:"require_upper"`
			RequireLower  bool `yaml:"require_lower"`
			RequireDigit  bool `yaml:"require_digit"`
			RequireSymbol bool `yaml:"require_symbol"`
		} `yaml:"password_policy"`
		PasswordBlacklistPath string `yaml:"password_blacklist_path"`
	} `yaml:"security"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "idmanager"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "15m"
	}
	if c.Auth.Session.TTL == "" {
		c.Auth.Session.TTL = "12h"
	}
	if c.Auth.Session.RememberTTL == "" {
		c.Auth.Session.RememberTTL = "720h" // 30d
	}
	if c.Auth.Reset.TTL == 0 {
		c.Auth.Reset.TTL = 60 * time.Minute
	}
	if c.Auth.Verify.TTL == 0 {
		c.Auth.Verify.TTL = 48 * time.Hour
	}
	if c.Auth.Lockout.MaxAttempts == 0 {
		c.Auth.Lockout.MaxAttempts = 5
	}
	if c.Auth.Lockout.Duration == "" {
		c.Auth.Lockout.Duration = "5m"
	}
	if c.Auth.TOTP.Issuer == "" {
		c.Auth.TOTP.Issuer = c.JWT.Issuer
	}
	// Endpoint-specific rate limit defaults
	if c.Rate.Login.Limit == 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == "" {
		c.Rate.Login.Window = "1m"
	}
	if c.Rate.Forgot.Limit == 0 {
		c.Rate.Forgot.Limit = 5
	}
	if c.Rate.Forgot.Window == "" {
		c.Rate.Forgot.Window = "10m"
	}
	if c.Rate.TwoFactor.Limit == 0 {
		c.Rate.TwoFactor.Limit = 10
	}
	if c.Rate.TwoFactor.Window == "" {
		c.Rate.TwoFactor.Window = "1m"
	}
	// Password policy default
	if c.Security.PasswordPolicy.MinLength == 0 {
		c.Security.PasswordPolicy.MinLength = 10
	}
	// SMTP defaults
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if c.Email.BaseURL == "" {
		c.Email.BaseURL = "http://localhost:8080"
	}

	// validate string durations
	for _, d := range []string{
		c.JWT.AccessTTL,
		c.Auth.Session.TTL,
		c.Auth.Session.RememberTTL,
		c.Auth.Lockout.Duration,
		c.Rate.Login.Window,
		c.Rate.Forgot.Window,
		c.Rate.TwoFactor.Window,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return nil, fmt.Errorf("config: invalid duration %q: %w", d, err)
		}
	}

	// Overrides por env + salvaguarda prod
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	// Normalizar ruta de blacklist (si relativa) respecto al directorio del YAML
	if p := strings.TrimSpace(c.Security.PasswordBlacklistPath); p != "" {
		if !filepath.IsAbs(p) {
			base := filepath.Dir(path)
			c.Security.PasswordBlacklistPath = filepath.Clean(filepath.Join(base, p))
		}
	}

	return &c, nil
}

// Validate enforces the minimum a runnable config needs.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Driver) {
	case "postgres", "pg":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("config: storage.dsn is required for driver %q", c.Storage.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if strings.EqualFold(c.App.Env, "prod") {
		if strings.TrimSpace(c.Security.SecretBoxMasterKey) == "" {
			return fmt.Errorf("config: security.secretbox_master_key is required in prod")
		}
		if c.SMTP.InsecureSkipVerify {
			return fmt.Errorf("config: smtp.insecure_skip_verify is not allowed in prod")
		}
	}
	return nil
}

// AccessTTLDuration devuelve jwt.access_ttl ya parseado.
func (c *Config) AccessTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.JWT.AccessTTL)
	return d
}

// SessionTTLDuration devuelve el TTL de sesión según remember_me.
func (c *Config) SessionTTLDuration(remember bool) time.Duration {
	s := c.Auth.Session.TTL
	if remember {
		s = c.Auth.Session.RememberTTL
	}
	d, _ := time.ParseDuration(s)
	return d
}

// LockoutDuration devuelve auth.lockout.duration ya parseado.
func (c *Config) LockoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Auth.Lockout.Duration)
	return d
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides permite pisar valores sensibles sin tocar el YAML.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_HOST"); ok {
		c.Cache.Redis.Host = v
	}
	if v, ok := getEnvInt("REDIS_PORT"); ok {
		c.Cache.Redis.Port = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("JWT_KEY_PATH"); ok {
		c.JWT.KeyPath = v
	}
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("EMAIL_BASE_URL"); ok {
		c.Email.BaseURL = v
	}
	if v, ok := getEnvStr("SECRETBOX_MASTER_KEY"); ok {
		c.Security.SecretBoxMasterKey = v
	}
	if v, ok := getEnvBool("MIGRATE"); ok {
		c.Flags.Migrate = v
	}
}
