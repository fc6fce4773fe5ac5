package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// handleControls processes the keyboard: Space toggles stepping, R relights
// the flame from cleared fields and F1 toggles the overlay.
func (g *Game) handleControls() {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if g.loop.Running() {
			g.loop.Stop()
		} else {
			g.loop.Start()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.reset()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.setDebug(!g.showDebug)
	}
}
