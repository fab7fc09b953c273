package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/wick/internal/core/domain"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level domain.LogLevel
		want  string
	}{
		{domain.LogLevelDebug, "DEBUG"},
		{domain.LogLevelInfo, "INFO"},
		{domain.LogLevelWarn, "WARN"},
		{domain.LogLevelError, "ERROR"},
		{domain.LogLevel(99), "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.level.String())
		})
	}
}

func TestLoadSource_IsCached(t *testing.T) {
	tests := []struct {
		source domain.LoadSource
		cached bool
	}{
		{domain.SourceRegistry, true},
		{domain.SourceCache, true},
		{domain.SourceAmbient, true},
		{domain.SourceNetwork, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.source), func(t *testing.T) {
			assert.Equal(t, tt.cached, tt.source.IsCached())
		})
	}
}
