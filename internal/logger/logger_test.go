package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs_RedactsSecrets(t *testing.T) {
	kv := sanitizeKVs([]interface{}{"jwt_secret", "abc", "owner", "42", "Authorization", "Bearer x"})
	assert.Equal(t, []interface{}{"jwt_secret", "[REDACTED]", "owner", "42", "Authorization", "[REDACTED]"}, kv)
}

func TestSanitizeKVs_OddLength(t *testing.T) {
	kv := sanitizeKVs([]interface{}{"plan", "p1", "dangling"})
	assert.Equal(t, []interface{}{"plan", "p1", "dangling"}, kv)
}

func TestLogger_WritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("component", "materializer").Info("batch done", "created", 3, "access_key_id", "AKIA")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "materializer", fields["component"])
		assert.EqualValues(t, 3, fields["created"])
		assert.Equal(t, "[REDACTED]", fields["access_key_id"])
	}
}
