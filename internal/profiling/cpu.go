// Package profiling wraps runtime/pprof for the command-line flags.
package profiling

import (
	"os"
	"runtime/pprof"
	"sync"
	"time"
)

// CPU is a running CPU profile. Stop is safe to call more than once and on
// a nil profile, so exit paths can call it unconditionally.
type CPU struct {
	f    *os.File
	once sync.Once
}

// StartCPU begins writing a CPU profile to path. A positive limit stops the
// profile on its own after that long.
func StartCPU(path string, limit time.Duration) (*CPU, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, err
	}
	p := &CPU{f: f}
	if limit > 0 {
		time.AfterFunc(limit, p.Stop)
	}
	return p, nil
}

// Stop ends the profile and closes its file.
func (p *CPU) Stop() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		pprof.StopCPUProfile()
		_ = p.f.Close()
	})
}
