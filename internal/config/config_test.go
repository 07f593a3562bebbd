package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "memory", cfg.History.Driver)
	assert.Equal(t, float64(75), cfg.Admissions.IQPassScore)
	assert.Equal(t, "passed_interview", cfg.Admissions.PassedInterviewDecision)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: 9090
  read_timeout: 5s
history:
  driver: sqlite
  path: /tmp/history.db
admissions:
  iq_pass_score: 80
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "sqlite", cfg.History.Driver)
	assert.Equal(t, "/tmp/history.db", cfg.History.Path)
	assert.Equal(t, float64(80), cfg.Admissions.IQPassScore)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", "server:\n  port: 9090\n")
	t.Setenv("ADMISSIONS_SERVER_PORT", "7070")
	t.Setenv("ADMISSIONS_ADMISSIONS_IQ_PASS_SCORE", "60.5")

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 60.5, cfg.Admissions.IQPassScore)
}

func TestLoad_EnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "ADMISSIONS_LOGGER_LEVEL=debug\n")
	t.Setenv("ADMISSIONS_LOGGER_LEVEL", "")
	os.Unsetenv("ADMISSIONS_LOGGER_LEVEL")

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown driver", "history:\n  driver: redis\n"},
		{"postgres without dsn", "history:\n  driver: postgres\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"empty decision", "admissions:\n  passed_interview_decision: \"\"\n"},
		{"zero pass score", "admissions:\n  iq_pass_score: 0\n"},
		{"negative pass score", "admissions:\n  iq_pass_score: -5\n"},
		{"broken yaml", "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.yaml", tt.content), "")
			assert.Error(t, err)
		})
	}
}

func TestToContainerConfig(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)
	cfg.History.DSN = "postgres://localhost/admissions"

	cc := cfg.ToContainerConfig()
	assert.Equal(t, cfg.History.Driver, cc.History.Driver)
	assert.Equal(t, cfg.History.DSN, cc.History.DSN)
	assert.Equal(t, cfg.Admissions.IQPassScore, cc.Admissions.IQPassScore)
	assert.Equal(t, cfg.Server.Port, cc.Server.Port)
	assert.NoError(t, cc.Validate())

	lc := cfg.ToLoggerConfig()
	assert.Equal(t, cfg.Logger.Format, lc.Format)
}
