package peer

import (
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLaunchForwardsOutput(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	core, logs := observer.New(zapcore.DebugLevel)

	// sh -c binds "-H 127.0.0.1 -p 3000" to $0..$3.
	p, err := Launch(sh, []string{"-c", `echo "connect $1 $3"`}, "127.0.0.1", 3000, zap.New(core).Sugar())
	require.NoError(t, err)
	require.NoError(t, p.Close(5*time.Second))

	entries := logs.FilterMessage("peer output").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "connect 127.0.0.1 3000", entries[0].ContextMap()["line"])
}

func TestLaunchKillsAfterGrace(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	p, err := Launch(sh, []string{"-c", "exec sleep 30"}, "127.0.0.1", 3000, zap.NewNop().Sugar())
	require.NoError(t, err)

	start := time.Now()
	assert.Error(t, p.Close(50*time.Millisecond))
	assert.Less(t, time.Since(start), 10*time.Second)
	select {
	case <-p.Done():
	default:
		t.Fatal("process still running")
	}
}

func TestLaunchMissingBinary(t *testing.T) {
	_, err := Launch("/nonexistent/othello-peer", nil, "127.0.0.1", 3000, zap.NewNop().Sugar())
	assert.Error(t, err)
}
