package ratelimit

import (
	"testing"
	"time"

	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewManagerDefaults(t *testing.T) {
	zapLogger, _ := zap.NewDevelopment()
	manager := NewManager(nil, zapadapter.NewZapEctoLogger(zapLogger, nil))

	// One sweep per user per hour, regardless of the scheduler poll interval.
	assert.Equal(t, int64(1), manager.limit)
	assert.Equal(t, time.Hour, manager.window)
}
