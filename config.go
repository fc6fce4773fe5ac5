package main

import "time"

// Display, timing, and audio constants for the candle window. Simulation
// parameters live in flame.Params and may be overridden from a TOML file.
const (
	defaultSurfaceWidth  = 400
	defaultSurfaceHeight = 600
	windowTitle          = "Candle Flame"
	defaultTPS           = 60

	// roarHeatScale is the mean wick temperature that plays the roar at
	// full volume.
	roarHeatScale      = 4.0
	audioBufferLatency = 80 * time.Millisecond
)
