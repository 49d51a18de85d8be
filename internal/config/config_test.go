package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.APIAddr)
	assert.Equal(t, "video.processing", cfg.KafkaTopic)
	assert.Equal(t, time.Hour, cfg.SignedURLTTL)
	assert.Equal(t, 10*time.Minute, cfg.SpeechTimeout)
}

func TestLoad_BrokerList(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092 ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_DurationForms(t *testing.T) {
	t.Setenv("SPEECH_TIMEOUT", "600")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.SpeechTimeout)

	t.Setenv("SPEECH_TIMEOUT", "5m")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.SpeechTimeout)

	t.Setenv("SPEECH_TIMEOUT", "soon")
	_, err = Load()
	require.Error(t, err)
}
