package main

import (
	"fmt"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"candleflame/internal/driver"
	"candleflame/internal/flame"
	"candleflame/internal/kernel"
	"candleflame/internal/sound"
	"candleflame/internal/view"
)

// Game adapts the frame loop to ebiten: input and one step per Update, the
// last good image per Draw.
type Game struct {
	loop *driver.Loop

	width  int
	height int

	showDebug bool

	trace *kernel.Recorder

	roar        *sound.Roar
	audioCtx    *audio.Context
	audioPlayer *audio.Player
}

// newGame constructs a game presenting sim on a width×height surface.
func newGame(sim *flame.Simulation, width, height int) (*Game, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: surface %dx%d", flame.ErrInitialization, width, height)
	}
	sampler := view.NewSampler(width, height)
	if *grayFlag {
		sampler.Ramp = view.GrayRamp()
	}
	loop, err := driver.New(sim, sampler)
	if err != nil {
		return nil, err
	}
	g := &Game{loop: loop, width: width, height: height}
	loop.OnFrame = g.afterFrame
	return g, nil
}

// setDebug toggles the overlay and the totals it shows.
func (g *Game) setDebug(on bool) {
	g.showDebug = on
	g.loop.Totals = on
}

// Update handles input and, while running, advances one step. Step errors
// are logged by the loop; a halted simulation keeps its last image on screen.
func (g *Game) Update() error {
	g.handleControls()
	_ = g.loop.Advance(time.Now())
	return nil
}

func (g *Game) afterFrame(flame.Frame) {
	g.feedAudio()
	if g.trace != nil {
		// dispatches were logged as they ran
		g.trace.Reset()
	}
}

func (g *Game) reset() {
	if err := g.loop.Reset(); err != nil {
		log.Printf("Reset failed: %v", err)
		return
	}
	log.Printf("Flame relit")
}
