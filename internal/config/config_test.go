package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "app:\n  app_env: development\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "memory", cfg.Storage.Driver)
	require.Equal(t, "memory", cfg.Cache.Kind)
	require.Equal(t, "idmanager", cfg.JWT.Issuer)
	require.Equal(t, 15*time.Minute, cfg.AccessTTLDuration())
	require.Equal(t, 12*time.Hour, cfg.SessionTTLDuration(false))
	require.Equal(t, 720*time.Hour, cfg.SessionTTLDuration(true))
	require.Equal(t, 5, cfg.Auth.Lockout.MaxAttempts)
	require.Equal(t, 5*time.Minute, cfg.LockoutDuration())
	require.Equal(t, 48*time.Hour, cfg.Auth.Verify.TTL)
	require.Equal(t, time.Hour, cfg.Auth.Reset.TTL)
	require.Equal(t, 10, cfg.Security.PasswordPolicy.MinLength)
	// el label TOTP hereda el issuer de JWT
	require.Equal(t, "idmanager", cfg.Auth.TOTP.Issuer)
}

func TestLoad_RejectsBadDuration(t *testing.T) {
	path := writeConfig(t, "jwt:\n  access_ttl: \"quince minutos\"\n")

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid duration")
}

func TestLoad_PostgresNeedsDSN(t *testing.T) {
	path := writeConfig(t, "storage:\n  driver: postgres\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":9999\"\n")
	t.Setenv("SERVER_ADDR", ":7777")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":7777", cfg.Server.Addr)
}

func TestLoad_BlacklistPathRelativeToYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "security:\n  password_blacklist_path: blacklist.txt\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "blacklist.txt"), cfg.Security.PasswordBlacklistPath)
}
