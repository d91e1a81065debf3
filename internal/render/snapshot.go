// Package render draws a debug/spectator PNG snapshot of the arena. It is
// not part of the authoritative simulation: the engine never calls it, and
// nothing it does can affect a tick. Grounded on the teacher's stream
// renderer, which draws the same game state onto a gg.Context for RTMP
// encoding; this package draws once, to a file, for a human to look at.
package render

import (
	"image/color"

	"github.com/fogleman/gg"

	"lightcycle/internal/arena"
)

// Config controls the pixel size and margins of a snapshot.
type Config struct {
	Width, Height int
	Margin        float64 // pixels of blank border around the field
}

// DefaultConfig returns a reasonable 720p snapshot configuration.
func DefaultConfig() Config {
	return Config{Width: 1280, Height: 720, Margin: 24}
}

// Snapshot is the read-only view of engine state a renderer needs. The
// engine has no dependency on this package; callers (e.g. a debug HTTP
// handler) build a Snapshot from whatever the engine exposes.
type Snapshot struct {
	AspectRatio float64
	LineWidth   float64
	Players     []PlayerView
}

// PlayerView is one player's drawable state.
type PlayerView struct {
	Name     string
	Color    arena.Color
	Segments []arena.Segment
	Dead     bool
}

// DrawPNG renders snap to a PNG file at path.
func DrawPNG(snap Snapshot, cfg Config, path string) error {
	dc := gg.NewContext(cfg.Width, cfg.Height)
	drawBackground(dc, cfg)
	drawGrid(dc, cfg)

	for _, p := range snap.Players {
		drawTrail(dc, cfg, snap.AspectRatio, p)
	}

	return dc.SavePNG(path)
}

func drawBackground(dc *gg.Context, cfg Config) {
	dc.SetColor(color.RGBA{12, 12, 28, 255})
	dc.DrawRectangle(0, 0, float64(cfg.Width), float64(cfg.Height))
	dc.Fill()
}

func drawGrid(dc *gg.Context, cfg Config) {
	dc.SetColor(color.RGBA{30, 30, 45, 255})
	dc.SetLineWidth(1)

	const gridSize = 80.0
	for x := cfg.Margin; x < float64(cfg.Width)-cfg.Margin; x += gridSize {
		dc.DrawLine(x, cfg.Margin, x, float64(cfg.Height)-cfg.Margin)
		dc.Stroke()
	}
	for y := cfg.Margin; y < float64(cfg.Height)-cfg.Margin; y += gridSize {
		dc.DrawLine(cfg.Margin, y, float64(cfg.Width)-cfg.Margin, y)
		dc.Stroke()
	}
}

// drawTrail plots every segment of one player's trail, mapping the
// simulation's [-aspectRatio, aspectRatio] x [-1, 1] field onto pixel space.
func drawTrail(dc *gg.Context, cfg Config, aspectRatio float64, p PlayerView) {
	if len(p.Segments) == 0 {
		return
	}

	innerW := float64(cfg.Width) - 2*cfg.Margin
	innerH := float64(cfg.Height) - 2*cfg.Margin

	toPixel := func(pt arena.Point) (float64, float64) {
		nx := (pt.X + aspectRatio) / (2 * aspectRatio)
		ny := (pt.Y + 1) / 2
		return cfg.Margin + nx*innerW, cfg.Margin + (1-ny)*innerH
	}

	r, g, b := p.Color.R, p.Color.G, p.Color.B
	if p.Dead {
		r, g, b = r*0.4, g*0.4, b*0.4
	}
	dc.SetRGB(r, g, b)
	dc.SetLineWidth(3)

	for _, seg := range p.Segments {
		x0, y0 := toPixel(seg.Start)
		x1, y1 := toPixel(seg.End)
		dc.DrawLine(x0, y0, x1, y1)
		dc.Stroke()
	}

	head := p.Segments[len(p.Segments)-1].End
	hx, hy := toPixel(head)
	dc.DrawCircle(hx, hy, 5)
	dc.Fill()
}
