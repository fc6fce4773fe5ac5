package profiling

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopOnNilProfile(t *testing.T) {
	var p *CPU
	assert.NotPanics(t, p.Stop)
}

func TestStopFlushesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpu.pprof")
	p, err := StartCPU(path, 0)
	require.NoError(t, err)

	deadline := time.Now().Add(50 * time.Millisecond)
	for x := 0; time.Now().Before(deadline); x++ {
		_ = x * x
	}
	p.Stop()
	p.Stop()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// profiling can start again once the previous profile stopped
	again, err := StartCPU(filepath.Join(t.TempDir(), "again.pprof"), 0)
	require.NoError(t, err)
	again.Stop()
}

func TestLimitStopsProfile(t *testing.T) {
	p, err := StartCPU(filepath.Join(t.TempDir(), "cpu.pprof"), 10*time.Millisecond)
	require.NoError(t, err)
	defer p.Stop()

	require.Eventually(t, func() bool {
		next, err := StartCPU(filepath.Join(t.TempDir(), "next.pprof"), 0)
		if err != nil {
			return false
		}
		next.Stop()
		return true
	}, 2*time.Second, 20*time.Millisecond)
}

func TestStartCPUBadPath(t *testing.T) {
	_, err := StartCPU(filepath.Join(t.TempDir(), "missing", "cpu.pprof"), 0)
	assert.Error(t, err)
}
