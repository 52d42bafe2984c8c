package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewLevelByEnvironment(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, New("production").GetLevel())
	assert.Equal(t, zerolog.DebugLevel, New("development").GetLevel())
}
