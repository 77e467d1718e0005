package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adverant/flashread-worker/internal/config"
)

func TestNew_InstanceIDIsPrefixedAndUniquePerProcess(t *testing.T) {
	cfg := &config.Config{WorkerID: "worker-1", WorkerConcurrency: 1}

	a := New(cfg, nil, nil, nil, nil, nil)
	b := New(cfg, nil, nil, nil, nil, nil)

	assert.True(t, strings.HasPrefix(a.InstanceID(), "worker-1-"))
	assert.True(t, strings.HasPrefix(b.InstanceID(), "worker-1-"))
	assert.NotEqual(t, a.InstanceID(), b.InstanceID())
}
