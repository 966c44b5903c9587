package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "adminkit_session", cfg.Session.CookieName)
	assert.Contains(t, cfg.LLM.Providers, "qwen")
	assert.Contains(t, cfg.LLM.Providers, "deepseek")
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("LLM_TIMEOUT", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("DEEPSEEK_MODEL", "deepseek-reasoner")
	t.Setenv("TASK_WORKERS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "deepseek-reasoner", cfg.LLM.Providers["deepseek"].Model)
	assert.Equal(t, 4, cfg.Tasks.Workers)
}

func TestDatabaseURL(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "adminkit", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/adminkit?sslmode=disable", db.URL())
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=adminkit sslmode=disable", db.DSN())
}

func TestDatabaseURLEscapesCredentials(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "admin", Password: "p@ss/word", Name: "adminkit", SSLMode: "require"}
	assert.Equal(t, "postgres://admin:p%40ss%2Fword@db:5432/adminkit?sslmode=require", db.URL())
}
