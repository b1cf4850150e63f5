package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9100"
  read_timeout: 3s
jwt:
  secret: file-secret
stripe:
  currency: eur
kafka:
  brokers: ["k1:9092"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, "eur", cfg.Stripe.Currency)
	assert.Equal(t, []string{"k1:9092"}, cfg.Kafka.Brokers)
	// untouched sections keep defaults
	assert.Equal(t, "/api/commissions", cfg.Server.BasePath)
	assert.Equal(t, 2*time.Minute, cfg.Decision.LockTTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "jwt:\n  secret: file-secret\n")

	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("KAFKA_BROKERS", "a:1,b:2")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/nemu")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Kafka.Brokers)
	assert.Equal(t, "postgres://u:p@db/nemu", cfg.Database.GetDSN())
	assert.Equal(t, "sk_test_env", cfg.Stripe.SecretKey)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "only-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Contains(t, cfg.Database.GetDSN(), "dbname=nemu")
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load(writeConfig(t, "server:\n  port: \"1\"\n"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}
