package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/atinyakov/go-link-gate/internal/config"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("no env, no config", func(t *testing.T) {
		os.Clearenv()
		opts := config.Parse()
		require.Equal(t, "localhost:8080", opts.ServerAddress)
		require.Equal(t, "localhost", opts.CanonicalDomain)
		require.Equal(t, "http://localhost:8080", opts.BaseURL)
		require.Equal(t, "", opts.DatabaseDSN)
		require.Equal(t, "info", opts.LogLevel)
		require.Equal(t, 3200, opts.GRPCPort)
		require.False(t, opts.EnableHTTPS)
		require.False(t, opts.EnablePprof)
		require.Equal(t, config.DefaultSessionSecret, opts.SessionSecret)
	})

	t.Run("env overrides", func(t *testing.T) {
		os.Clearenv()
		t.Setenv("SERVER_ADDRESS", "127.0.0.1:9999")
		t.Setenv("CANONICAL_DOMAIN", "links.example")
		t.Setenv("DATABASE_DSN", "postgres://env")
		t.Setenv("ENABLE_HTTPS", "true")
		t.Setenv("TRUSTED_SUBNET", "192.168.0.0/24")
		t.Setenv("GRPC_PORT", "0")
		t.Setenv("ADMIN_NAME", "root")
		t.Setenv("ADMIN_PASSWORD", "secret")

		opts := config.Parse()
		require.Equal(t, "127.0.0.1:9999", opts.ServerAddress)
		require.Equal(t, "links.example", opts.CanonicalDomain)
		require.Equal(t, "postgres://env", opts.DatabaseDSN)
		require.True(t, opts.EnableHTTPS)
		require.Equal(t, "192.168.0.0/24", opts.TrustedSubnet)
		require.Equal(t, 0, opts.GRPCPort)
		require.Equal(t, "root", opts.AdminName)
		require.Equal(t, "secret", opts.AdminPassword)
	})

	t.Run("config file then env", func(t *testing.T) {
		os.Clearenv()

		tmpDir := t.TempDir()
		cfgPath := filepath.Join(tmpDir, "cfg.json")
		cfg := config.Options{
			ServerAddress:   "10.0.0.1:8081",
			CanonicalDomain: "short.example",
			DatabaseDSN:     "postgres://file",
			RedisAddr:       "redis:6379",
			EnablePprof:     true,
			TrustedSubnet:   "10.10.0.0/16",
		}
		content, _ := json.Marshal(cfg)
		require.NoError(t, os.WriteFile(cfgPath, content, 0644))
		t.Setenv("CONFIG", cfgPath)
		t.Setenv("DATABASE_DSN", "postgres://env")

		opts := config.Parse()
		require.Equal(t, "10.0.0.1:8081", opts.ServerAddress)
		require.Equal(t, "short.example", opts.CanonicalDomain)
		require.Equal(t, "redis:6379", opts.RedisAddr)
		require.True(t, opts.EnablePprof)
		require.Equal(t, "10.10.0.0/16", opts.TrustedSubnet)
		require.Equal(t, "postgres://env", opts.DatabaseDSN)
		require.Equal(t, cfgPath, opts.Config)
	})

	t.Run("unreadable config file is ignored", func(t *testing.T) {
		os.Clearenv()
		t.Setenv("CONFIG", filepath.Join(t.TempDir(), "missing.json"))

		opts := config.Parse()
		require.Equal(t, "localhost:8080", opts.ServerAddress)
	})
}
