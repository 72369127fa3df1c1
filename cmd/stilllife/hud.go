package main

import (
	"fmt"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/ansi"

	"github.com/taigrr/stilllife/pkg/render"
	"github.com/taigrr/stilllife/pkg/scene"
)

// HUD draws an overlay with the frame rate, view mode and culling counters
// on the first and last terminal rows.
type HUD struct {
	Visible bool

	fps       float64
	fpsFrames int
	fpsTime   time.Time
}

// NewHUD creates a hidden HUD.
func NewHUD() *HUD {
	return &HUD{fpsTime: time.Now()}
}

// UpdateFPS counts a frame; call once per frame.
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

var (
	hudBase  = ansi.Style{}.BackgroundColor(ansi.Black)
	hudFPS   = hudBase.ForegroundColor(ansi.BrightGreen)
	hudTitle = hudBase.ForegroundColor(ansi.BrightWhite).Bold()
	hudStats = hudBase.ForegroundColor(ansi.BrightCyan)
	hudHint  = hudBase.ForegroundColor(ansi.BrightYellow).Faint()
)

// Draw paints the overlay into scr. Nothing is drawn when the HUD is hidden.
func (h *HUD) Draw(scr uv.Screen, area uv.Rectangle, mode scene.ViewMode, wireframe bool, stats render.CullingStats) {
	if !h.Visible || area.Dx() <= 0 || area.Dy() <= 0 {
		return
	}
	width := area.Dx()
	top, bottom := area.Min.Y, area.Max.Y-1

	put := func(col, row int, style ansi.Style, text string) {
		text = ansi.Truncate(" "+text+" ", width-col, "…")
		w := ansi.StringWidth(text)
		if w == 0 {
			return
		}
		uv.NewStyledString(style.Styled(text)).Draw(scr, uv.Rect(area.Min.X+col, row, w, 1))
	}

	put(0, top, hudFPS, fmt.Sprintf("%.0f FPS", h.fps))
	title := "still life"
	put(max((width-ansi.StringWidth(title)-2)/2, 0), top, hudTitle, title)
	polys := fmt.Sprintf("%d tris", stats.Triangles)
	put(max(width-ansi.StringWidth(polys)-2, 0), top, hudStats, polys)

	check := "[ ]"
	if wireframe {
		check = "[✓]"
	}
	put(0, bottom, hudBase.ForegroundColor(ansi.BrightWhite),
		fmt.Sprintf("%s view  %s X-Ray (wireframe)  culled %d/%d", mode, check, stats.MeshesCulled, stats.MeshesTested))
	hint := "P/O: view  Esc: quit"
	put(max(width-ansi.StringWidth(hint)-2, 0), bottom, hudHint, hint)
}
