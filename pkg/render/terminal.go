package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// HalfBlock is drawn in every cell: foreground paints the top pixel,
// background the bottom one.
const HalfBlock = "▀"

// FramebufferSize returns the pixel size that fills cols×rows cells.
func FramebufferSize(cols, rows int) (width, height int) {
	return max(cols, 1), max(rows, 1) * 2
}

// Draw paints the framebuffer onto scr inside area, two pixel rows per
// terminal row.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := (row - area.Min.Y) * 2
		if topY >= fb.Height {
			break
		}
		for col := area.Min.X; col < area.Max.X; col++ {
			x := col - area.Min.X
			if x >= fb.Width {
				break
			}
			scr.SetCell(col, row, &uv.Cell{
				Content: HalfBlock,
				Width:   1,
				Style: uv.Style{
					Fg: cellColor(fb.GetPixel(x, topY)),
					Bg: cellColor(fb.GetPixel(x, topY+1)),
				},
			})
		}
	}
}

// cellColor maps fully transparent pixels to the terminal default.
func cellColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil
	}
	return c
}
