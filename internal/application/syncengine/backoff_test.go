package syncengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	o := New(nil, nil, nil, nil, nil, Config{Interval: time.Minute, RetryBase: 10 * time.Second}, nil)

	assert.Equal(t, 10*time.Second, o.backoff(1))
	assert.Equal(t, 20*time.Second, o.backoff(2))
	assert.Equal(t, 40*time.Second, o.backoff(3))
	assert.Equal(t, time.Minute, o.backoff(4), "tope en Interval")
	assert.Equal(t, time.Minute, o.backoff(60))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "IDLE", StateIdle.String())
	assert.Equal(t, "DRAINING", StateDraining.String())
	assert.Equal(t, "PULLING", StatePulling.String())
}
