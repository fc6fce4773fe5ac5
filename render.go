package main

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// Draw presents the latest rendered frame and the optional overlay.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.WritePixels(g.loop.Pixels())

	if !g.showDebug {
		return
	}
	state := "running"
	switch {
	case g.loop.Failed() != nil:
		state = "halted"
	case !g.loop.Running():
		state = "stopped"
	}
	frame := g.loop.Frame()
	soot, heat := g.loop.Sums()
	msg := fmt.Sprintf("FPS: %.1f (%.1f TPS)\nBackend: %s\nFrame %d (%s)\nStep: %.2f ms, dt %.3f s, host %.1f ms\nSoot: %.1f  Heat: %.1f\nSpace start/stop, R relight, F1 overlay",
		ebiten.ActualFPS(), ebiten.ActualTPS(),
		g.loop.Simulation().Backend(),
		frame.Index, state,
		g.loop.StepTime().Seconds()*1000, frame.DT, frame.Elapsed.Seconds()*1000,
		soot, heat)
	if g.roar != nil {
		msg += fmt.Sprintf("\nRoar: %.2f", g.roar.Level())
	}
	ebitenutil.DebugPrint(screen, msg)
}

// Layout reports the fixed surface size; the window scales it.
func (g *Game) Layout(_, _ int) (int, int) { return g.width, g.height }
