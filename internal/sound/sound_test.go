package sound

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoarIsSilentWhenCold(t *testing.T) {
	r := NewRoar(nil)
	r.SetHeat(-5)
	buf := make([]byte, 4096+3)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 4096, n)
	assert.Equal(t, make([]byte, 4096), buf[:n])
	assert.Zero(t, r.Level())
}

func TestRoarFollowsHeat(t *testing.T) {
	r := NewRoar(nil)
	r.HeatScale = 2
	r.SetHeat(10)
	buf := make([]byte, SampleRate*FrameBytes/4)
	_, err := r.Read(buf)
	require.NoError(t, err)
	assert.Greater(t, r.Level(), float32(0.9))
	assert.LessOrEqual(t, r.Level(), float32(1))
	assert.NotEqual(t, make([]byte, len(buf)), buf)

	// stereo channels carry the same sample
	for i := 0; i < len(buf); i += FrameBytes {
		require.Equal(t, buf[i:i+2], buf[i+2:i+4])
	}
}

func TestRoarReadsWholeFrames(t *testing.T) {
	r := NewRoar(nil)
	n, err := r.Read(make([]byte, 3))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoopWraps(t *testing.T) {
	assert.Nil(t, NewLoop(nil))
	l := NewLoop([]float32{1, 2, 3})
	var got []float32
	for i := 0; i < 7; i++ {
		got = append(got, l.Next())
	}
	assert.Equal(t, []float32{1, 2, 3, 1, 2, 3, 1}, got)
	assert.Equal(t, 3, l.Len())
}

func wavBytes(t *testing.T, frames [][2]int16) []byte {
	t.Helper()
	var data bytes.Buffer
	for _, f := range frames {
		require.NoError(t, binary.Write(&data, binary.LittleEndian, f))
	}
	var b bytes.Buffer
	w := func(v any) { require.NoError(t, binary.Write(&b, binary.LittleEndian, v)) }
	b.WriteString("RIFF")
	w(uint32(36 + data.Len()))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	w(uint32(16))
	w(uint16(1)) // PCM
	w(uint16(2))
	w(uint32(SampleRate))
	w(uint32(SampleRate * FrameBytes))
	w(uint16(FrameBytes))
	w(uint16(16))
	b.WriteString("data")
	w(uint32(data.Len()))
	b.Write(data.Bytes())
	return b.Bytes()
}

func TestDecodeLoopDownmixes(t *testing.T) {
	raw := wavBytes(t, [][2]int16{{16384, 16384}, {-32768, 0}, {0, 0}, {8192, -8192}})
	l, err := DecodeLoop(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, 4, l.Len())
	assert.InDelta(t, 0.5, l.Next(), 1e-6)
	assert.InDelta(t, -0.5, l.Next(), 1e-6)
	assert.InDelta(t, 0, l.Next(), 1e-6)
	assert.InDelta(t, 0, l.Next(), 1e-6)
}

func TestDecodeLoopRejectsGarbage(t *testing.T) {
	_, err := DecodeLoop(bytes.NewReader([]byte("not a wav file at all")))
	assert.Error(t, err)
}

func TestRoarMixesCrackle(t *testing.T) {
	r := NewRoar(NewLoop([]float32{0.5}))
	r.SetHeat(1)
	buf := make([]byte, 2048)
	_, err := r.Read(buf)
	require.NoError(t, err)
	assert.NotEqual(t, make([]byte, len(buf)), buf)
}
