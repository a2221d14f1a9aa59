package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:         "8080",
		JWTSecret:    "secure-secret-at-least-32-chars-long",
		DBDriver:     "postgres",
		DBPassword:   "secure-password",
		DBSSLMode:    "require",
		DBSchemaMode: "hybrid",
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProductionSecrets(t *testing.T) {
	c := validConfig()
	c.Env = "production"
	c.JWTSecret = defaultJWTSecret
	assert.Error(t, c.Validate())

	c.JWTSecret = "short"
	assert.Error(t, c.Validate())

	c.JWTSecret = "secure-secret-at-least-32-chars-long"
	c.DBPassword = "password"
	assert.Error(t, c.Validate())

	// sqlite deployments have no DB password or TLS to check
	c.DBDriver = "sqlite"
	c.DBSSLMode = ""
	assert.NoError(t, c.Validate())
}

func TestConfig_ValidateDriverAndSchemaMode(t *testing.T) {
	c := validConfig()
	c.DBDriver = "mysql"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.DBSchemaMode = "yolo"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.Port = ""
	assert.Error(t, c.Validate())
}

func TestLoadConfig_Normalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer os.Unsetenv("DB_DRIVER")
	defer os.Unsetenv("HOME_TOPIC_LIMIT")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")
	os.Setenv("DB_DRIVER", " SQLite ")
	os.Setenv("HOME_TOPIC_LIMIT", "0")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 5, c.HomeTopicLimit)
	assert.Equal(t, "8375", c.Port)
	assert.False(t, c.IsProduction())
}
