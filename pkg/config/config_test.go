package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 75.0, cfg.Attendance.ThresholdPercent)
	assert.True(t, cfg.Attendance.VacuousPass)
	assert.Equal(t, 20.0, cfg.Grading.CanonicalScale)
	assert.Equal(t, 10.0, cfg.Grading.PassingThreshold)
	assert.Equal(t, 1.0, cfg.Grading.ManualScoreWeight)
	assert.Equal(t, 5*time.Minute, cfg.Cache.ReportTTL)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "./exports", cfg.Export.Dir)
	assert.Equal(t, 24*time.Hour, cfg.Export.ResultTTL)
	assert.Equal(t, cfg.JWT.Secret, cfg.Export.SigningSecret)
}

func TestLoadSeparateExportSigningSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("EXPORT_SIGNING_SECRET", "export-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "jwt-secret", cfg.JWT.Secret)
	assert.Equal(t, "export-secret", cfg.Export.SigningSecret)
}

func TestLoadOverridesPolicyFromEnv(t *testing.T) {
	t.Setenv("ATTENDANCE_THRESHOLD_PERCENT", "80")
	t.Setenv("ATTENDANCE_VACUOUS_PASS", "false")
	t.Setenv("GRADING_CANONICAL_SCALE", "100")
	t.Setenv("GRADING_PASSING_THRESHOLD", "60")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 80.0, cfg.Attendance.ThresholdPercent)
	assert.False(t, cfg.Attendance.VacuousPass)
	assert.Equal(t, 100.0, cfg.Grading.CanonicalScale)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoadRejectsInvalidPolicy(t *testing.T) {
	t.Setenv("GRADING_PASSING_THRESHOLD", "30")
	_, err := Load()
	require.Error(t, err)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}
