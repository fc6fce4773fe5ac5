package main

import (
	"log"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"candleflame/internal/sound"
)

// startAudio plays the roar stream, mixing in the WAV at loopPath when set.
// Audio failures are logged and leave the game silent.
func (g *Game) startAudio(loopPath string) {
	var crackle *sound.Loop
	if loopPath != "" {
		l, err := sound.LoadLoop(loopPath)
		if err != nil {
			log.Printf("Crackle loop disabled: %v", err)
		} else {
			crackle = l
			log.Printf("Crackle loop loaded (%d samples)", l.Len())
		}
	}
	g.roar = sound.NewRoar(crackle)
	g.roar.HeatScale = roarHeatScale

	g.audioCtx = audio.NewContext(sound.SampleRate)
	player, err := g.audioCtx.NewPlayer(g.roar)
	if err != nil {
		log.Printf("Audio player creation failed: %v", err)
		g.roar = nil
		return
	}
	player.SetBufferSize(audioBufferLatency)
	player.Play()
	g.audioPlayer = player
}

// feedAudio sets the roar loudness from the heat over the wick.
func (g *Game) feedAudio() {
	if g.roar == nil {
		return
	}
	heat, err := g.loop.Simulation().WickHeat()
	if err != nil {
		return
	}
	g.roar.SetHeat(heat)
}

func (g *Game) stopAudio() {
	if g.audioPlayer != nil {
		_ = g.audioPlayer.Close()
		g.audioPlayer = nil
	}
}
