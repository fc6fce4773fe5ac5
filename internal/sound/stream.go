// Package sound synthesizes the flame roar played alongside the simulation.
package sound

import (
	"math/rand"
	"sync"
	"time"
)

const (
	// SampleRate of every stream in this package.
	SampleRate = 48000
	// FrameBytes is one stereo 16-bit frame.
	FrameBytes = 4

	pcm16Max = 32767
)

// Roar is an io.Reader producing stereo 16-bit little-endian PCM: filtered
// noise whose loudness follows the heat reported through SetHeat, optionally
// mixed with a looped crackle sample.
type Roar struct {
	mu      sync.Mutex
	target  float32
	level   float32
	low     float32
	rng     *rand.Rand
	crackle *Loop

	// HeatScale is the heat that drives the roar to full volume.
	HeatScale float32
	// CrackleMix scales the loop before it is added.
	CrackleMix float32
}

// NewRoar returns a silent roar. crackle may be nil.
func NewRoar(crackle *Loop) *Roar {
	return &Roar{
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		crackle:    crackle,
		HeatScale:  1,
		CrackleMix: 0.35,
	}
}

// SetHeat updates the loudness target. Negative heat is silence.
func (r *Roar) SetHeat(heat float32) {
	v := float32(0)
	if r.HeatScale > 0 {
		v = heat / r.HeatScale
	}
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	r.mu.Lock()
	r.target = v
	r.mu.Unlock()
}

// Level returns the current smoothed loudness in [0, 1].
func (r *Roar) Level() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.level
}

func (r *Roar) Read(p []byte) (int, error) {
	n := len(p) - len(p)%FrameBytes
	if n == 0 {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	// per-sample smoothing keeps level changes between frames click free
	const levelAlpha = 0.0008
	const lowAlpha = 0.06
	for i := 0; i < n; i += FrameBytes {
		r.level += levelAlpha * (r.target - r.level)
		white := r.rng.Float32()*2 - 1
		r.low += lowAlpha * (white - r.low)
		s := r.low * 3 * r.level
		if r.crackle != nil {
			s += r.crackle.Next() * r.CrackleMix * r.level
		}
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * pcm16Max)
		p[i] = byte(v)
		p[i+1] = byte(v >> 8)
		p[i+2] = p[i]
		p[i+3] = p[i+1]
	}
	return n, nil
}

// Close implements io.Closer.
func (r *Roar) Close() error { return nil }
