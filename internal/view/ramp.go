package view

import (
	"image/color"

	"github.com/chewxy/math32"
)

// Stop is one control point of a Ramp. At is in [0, 1].
type Stop struct {
	At    float32
	Color color.RGBA
}

// Ramp maps a scalar to a color by piecewise-linear interpolation between
// stops. Values are multiplied by Gain and clamped to [0, 1] first.
type Ramp struct {
	Stops []Stop
	Gain  float32
}

// FlameRamp runs black, red, orange, yellow, white.
func FlameRamp() Ramp {
	return Ramp{
		Gain: 1,
		Stops: []Stop{
			{0, color.RGBA{0, 0, 0, 255}},
			{0.25, color.RGBA{170, 20, 0, 255}},
			{0.5, color.RGBA{255, 110, 0, 255}},
			{0.75, color.RGBA{255, 210, 40, 255}},
			{1, color.RGBA{255, 255, 255, 255}},
		},
	}
}

// GrayRamp maps density to luminance.
func GrayRamp() Ramp {
	return Ramp{
		Gain: 1,
		Stops: []Stop{
			{0, color.RGBA{0, 0, 0, 255}},
			{1, color.RGBA{255, 255, 255, 255}},
		},
	}
}

// At returns the color for v.
func (r Ramp) At(v float32) color.RGBA {
	if len(r.Stops) == 0 {
		return color.RGBA{0, 0, 0, 255}
	}
	v = math32.Max(0, math32.Min(1, v*r.Gain))
	if v <= r.Stops[0].At {
		return r.Stops[0].Color
	}
	for i := 1; i < len(r.Stops); i++ {
		hi := r.Stops[i]
		if v > hi.At {
			continue
		}
		lo := r.Stops[i-1]
		span := hi.At - lo.At
		if span <= 0 {
			return hi.Color
		}
		t := (v - lo.At) / span
		return color.RGBA{
			R: lerp8(lo.Color.R, hi.Color.R, t),
			G: lerp8(lo.Color.G, hi.Color.G, t),
			B: lerp8(lo.Color.B, hi.Color.B, t),
			A: lerp8(lo.Color.A, hi.Color.A, t),
		}
	}
	return r.Stops[len(r.Stops)-1].Color
}

func lerp8(a, b uint8, t float32) uint8 {
	return uint8(float32(a) + (float32(b)-float32(a))*t + 0.5)
}
