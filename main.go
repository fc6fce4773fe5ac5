package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"candleflame/internal/flame"
	"candleflame/internal/kernel"
	"candleflame/internal/profiling"
)

func main() {
	flag.Parse()
	setupLogging()

	params := flame.DefaultParams()
	if *configFlag != "" {
		p, err := flame.LoadParams(*configFlag)
		if err != nil {
			log.Fatalf("Loading config: %v", err)
		}
		params = p
	}

	var profile *profiling.CPU
	if *cpuProfileFlag != "" {
		p, err := profiling.StartCPU(*cpuProfileFlag, time.Duration(*profileSecondsFlag)*time.Second)
		if err != nil {
			log.Fatalf("CPU profile: %v", err)
		}
		profile = p
		defer profile.Stop()
	}
	// log.Fatalf skips deferred calls; flush the profile first
	fatalf := func(format string, args ...any) {
		profile.Stop()
		log.Fatalf(format, args...)
	}

	backend := selectBackend()
	var recorder *kernel.Recorder
	if *traceFlag {
		recorder = traceDispatches(backend)
		backend = recorder
	}

	sim, err := flame.New(context.Background(), backend, params)
	if err != nil {
		fatalf("Simulation initialization failed: %v", err)
	}
	defer sim.Close()
	log.Printf("Simulation ready on %s (%dx%d grid)", sim.Backend(), flame.GridWidth, flame.GridHeight)

	g, err := newGame(sim, *widthFlag, *heightFlag)
	if err != nil {
		fatalf("Display setup failed: %v", err)
	}
	g.trace = recorder
	g.setDebug(*debugFlag)
	if *enableAudioFlag {
		g.startAudio(*audioLoopFlag)
	}
	defer g.stopAudio()

	ebiten.SetWindowSize(g.width, g.height)
	ebiten.SetWindowTitle(windowTitle)
	ebiten.SetTPS(defaultTPS)
	g.loop.Start()
	if err := ebiten.RunGame(g); err != nil {
		log.Printf("Game loop ended: %v", err)
	}
}

// setupLogging routes simulation events to stderr. Lifecycle events are
// always shown; per-frame events need -verbose or -trace.
func setupLogging() {
	level := slog.LevelInfo
	if *verboseFlag || *traceFlag {
		level = slog.LevelDebug
	}
	flame.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// traceDispatches wraps backend so every dispatch is logged at Debug level
// as it runs.
func traceDispatches(backend kernel.Backend) *kernel.Recorder {
	rec := kernel.NewRecorder(backend)
	logger := flame.Logger()
	rec.OnDispatch = func(c kernel.Call) {
		logger.Debug("dispatch", "kernel", c.Kernel, "in", c.In, "out", c.Out)
	}
	return rec
}

// selectBackend returns the OpenCL backend when requested and available,
// and the CPU backend otherwise.
func selectBackend() kernel.Backend {
	if *openCLFlag {
		cl, err := kernel.NewOpenCL(*preferFP16Flag)
		if err == nil {
			return cl
		}
		log.Printf("OpenCL unavailable, using CPU: %v", err)
	}
	return kernel.NewCPU(*workersFlag)
}
