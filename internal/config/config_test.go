package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"vehicle-tracker-go/internal/tracker"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, time.Minute, cfg.Tracker.TimeWithoutFrames)
	assert.Equal(t, tracker.DefaultConfig(), cfg.TrackerConfig())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DATA_DIR", "/srv/detections")
	t.Setenv("TRACK_SIGMA_H", "0.5")
	t.Setenv("TRACK_T_MIN", "3")
	t.Setenv("TRACK_T_MISS_MAX", "not a number")
	t.Setenv("TRACK_TIME_WITHOUT_FRAMES", "90")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "/srv/detections", cfg.Data.Dir)
	assert.Equal(t, 0.5, cfg.Tracker.SigmaH)
	assert.Equal(t, 3, cfg.Tracker.TMin)
	assert.Equal(t, tracker.DefaultConfig().TMissMax, cfg.Tracker.TMissMax)
	assert.Equal(t, 90*time.Second, cfg.Tracker.TimeWithoutFrames)
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "2m30s")
	assert.Equal(t, 150*time.Second, getEnvDuration("TEST_DURATION", time.Second))

	t.Setenv("TEST_DURATION", "garbage")
	assert.Equal(t, time.Second, getEnvDuration("TEST_DURATION", time.Second))
}
