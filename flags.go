package main

import "flag"

// Command-line flags. Simulation constants come from -config; everything here
// selects hardware, display and diagnostics.
var (
	// configFlag names a TOML file overriding flame.DefaultParams.
	configFlag = flag.String("config", "", "TOML file with simulation parameter overrides")

	// openCLFlag runs the kernels on an OpenCL device instead of the CPU.
	openCLFlag = flag.Bool("opencl", false, "run kernels on an OpenCL device (requires the opencl build tag)")

	// preferFP16Flag stores fields as 16-bit floats on the OpenCL device.
	preferFP16Flag = flag.Bool("prefer-fp16", false, "use 16-bit device storage for the OpenCL backend")

	workersFlag = flag.Int("workers", 0, "CPU backend worker count (0 uses GOMAXPROCS)")

	widthFlag  = flag.Int("width", defaultSurfaceWidth, "display surface width in pixels")
	heightFlag = flag.Int("height", defaultSurfaceHeight, "display surface height in pixels")

	// debugFlag enables the FPS and simulation overlay at startup; F1 toggles it.
	debugFlag = flag.Bool("debug", false, "show FPS and simulation overlay")

	verboseFlag = flag.Bool("verbose", false, "log per-frame simulation events")

	// traceFlag logs every kernel dispatch with the buffers bound to it.
	traceFlag = flag.Bool("trace", false, "log every kernel dispatch (implies -verbose)")

	grayFlag = flag.Bool("gray", false, "render density in grayscale instead of flame colors")

	// enableAudioFlag plays a roar whose loudness follows the wick heat.
	enableAudioFlag = flag.Bool("enable-audio", false, "play a flame roar driven by wick heat")

	audioLoopFlag = flag.String("audio-loop", "", "WAV file mixed into the roar as a crackle loop")

	cpuProfileFlag     = flag.String("cpuprofile", "", "write a CPU profile to this file")
	profileSecondsFlag = flag.Int("profile-seconds", 0, "stop CPU profiling after this many seconds (0 profiles until exit)")
)
