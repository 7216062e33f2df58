package ui

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/dgmq/gbcore/internal/emu"
	"github.com/dgmq/gbcore/internal/ppu"
)

// shades maps the four DMG palette indices to on-screen colors, the
// classic DMG-green look.
var shades = [4]color.RGBA{
	{224, 248, 208, 255},
	{136, 192, 112, 255},
	{52, 104, 86, 255},
	{8, 24, 32, 255},
}

// App is an ebiten.Game driving a Machine: it polls keyboard input
// into Buttons each Update, steps one frame, and blits the framebuffer
// each Draw.
type App struct {
	cfg Config
	m   *emu.Machine

	tex *ebiten.Image
	img *image.RGBA

	audioCtx    *audio.Context
	audioPlayer *audio.Player
	stream      *apuStream
}

func NewApp(cfg Config, m *emu.Machine) *App {
	cfg.Defaults()
	a := &App{cfg: cfg, m: m}
	a.tex = ebiten.NewImage(ppu.ScreenWidth, ppu.ScreenHeight)
	a.img = image.NewRGBA(image.Rect(0, 0, ppu.ScreenWidth, ppu.ScreenHeight))

	a.audioCtx = audio.NewContext(44100)
	a.stream = newAPUStream()
	m.SetAudioReady(a.stream.push)
	if p, err := a.audioCtx.NewPlayer(a.stream); err == nil {
		a.audioPlayer = p
		a.audioPlayer.Play()
	}
	return a
}

func (a *App) Run() error {
	ebiten.SetWindowTitle(a.cfg.Title)
	ebiten.SetWindowSize(ppu.ScreenWidth*a.cfg.Scale, ppu.ScreenHeight*a.cfg.Scale)
	return ebiten.RunGame(a)
}

func (a *App) pollButtons() emu.Buttons {
	return emu.Buttons{
		Right:  ebiten.IsKeyPressed(ebiten.KeyRight),
		Left:   ebiten.IsKeyPressed(ebiten.KeyLeft),
		Up:     ebiten.IsKeyPressed(ebiten.KeyUp),
		Down:   ebiten.IsKeyPressed(ebiten.KeyDown),
		A:      ebiten.IsKeyPressed(ebiten.KeyZ),
		B:      ebiten.IsKeyPressed(ebiten.KeyX),
		Start:  ebiten.IsKeyPressed(ebiten.KeyEnter),
		Select: ebiten.IsKeyPressed(ebiten.KeyShiftRight),
	}
}

func (a *App) Update() error {
	a.m.SetButtons(a.pollButtons())
	a.m.StepFrame()
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	fb := a.m.Framebuffer()
	for y := 0; y < ppu.ScreenHeight; y++ {
		for x := 0; x < ppu.ScreenWidth; x++ {
			a.img.SetRGBA(x, y, shades[fb[y][x]&3])
		}
	}
	a.tex.WritePixels(a.img.Pix)

	op := &ebiten.DrawImageOptions{}
	sx := float64(screen.Bounds().Dx()) / ppu.ScreenWidth
	sy := float64(screen.Bounds().Dy()) / ppu.ScreenHeight
	op.GeoM.Scale(sx, sy)
	screen.DrawImage(a.tex, op)
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ppu.ScreenWidth * a.cfg.Scale, ppu.ScreenHeight * a.cfg.Scale
}
