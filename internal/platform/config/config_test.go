package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		DatabaseURL:        "postgres://localhost/nomina",
		Environment:        "development",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 60,
		PayrollWorkers:     4,
	}
}

func TestValidateOK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseURL = ""
	require.Error(t, cfg.Validate())
}

func TestValidateProductionRequiresSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Environment = "production"
	require.Error(t, cfg.Validate())

	cfg.JWTSecret = "secret"
	cfg.DataEncryptionKey = "0123456789abcdef0123456789abcdef"
	require.NoError(t, cfg.Validate())
}

func TestValidateWorkerCount(t *testing.T) {
	cfg := validConfig()
	cfg.PayrollWorkers = 0
	require.Error(t, cfg.Validate())
}

func TestValidateEmailNeedsHost(t *testing.T) {
	cfg := validConfig()
	cfg.EmailEnabled = true
	require.Error(t, cfg.Validate())
	cfg.SMTPHost = "smtp.example.com"
	require.NoError(t, cfg.Validate())
}
