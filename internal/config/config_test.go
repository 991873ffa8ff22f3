package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "")
	t.Setenv("LEAVE_WORKING_DAY_POLICY", "")

	cfg, err := Load()

	// empty env vars are treated as unset
	assert.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "calendar", cfg.WorkingDayPolicy)
	assert.Empty(t, cfg.HolidayList())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "8080")
	t.Setenv("LEAVE_WORKING_DAY_POLICY", "business")
	t.Setenv("LEAVE_HOLIDAYS", "2024-12-25, 2025-01-01")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()

	assert.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "business", cfg.WorkingDayPolicy)
	assert.Equal(t, []string{"2024-12-25", "2025-01-01"}, cfg.HolidayList())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Origins())
}

func TestValidate(t *testing.T) {
	base := Config{Port: "3000", JWTSecret: "secret", WorkingDayPolicy: "calendar"}

	t.Run("ok", func(t *testing.T) {
		c := base
		assert.NoError(t, c.Validate())
	})

	t.Run("unknown policy", func(t *testing.T) {
		c := base
		c.WorkingDayPolicy = "lunar"
		assert.Error(t, c.Validate())
	})

	t.Run("production rejects default secret", func(t *testing.T) {
		c := base
		c.Env = "production"
		c.JWTSecret = defaultJWTSecret
		assert.Error(t, c.Validate())
	})

	t.Run("production rejects short secret", func(t *testing.T) {
		c := base
		c.Env = "production"
		c.JWTSecret = "short"
		assert.Error(t, c.Validate())
	})
}
