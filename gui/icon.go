//go:build gui

package gui

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"fyne.io/fyne/v2"

	"voxsheet/session"
)

const iconSize = 22

var trayIcons = map[session.State]fyne.Resource{}

func init() {
	for _, s := range []session.State{session.Idle, session.Recording, session.Transcribing} {
		trayIcons[s] = dotIcon(fmt.Sprintf("tray-%s.png", s), statusColor(s))
	}
}

// dotIcon draws a filled circle with a soft dark rim.
func dotIcon(name string, core color.RGBA) fyne.Resource {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	center := float64(iconSize) / 2
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx := float64(x) - center + 0.5
			dy := float64(y) - center + 0.5
			dist := math.Sqrt(dx*dx + dy*dy)
			switch {
			case dist < 6:
				img.Set(x, y, core)
			case dist < 9:
				t := (dist - 6) / 3
				img.Set(x, y, color.RGBA{
					R: uint8(float64(core.R) * (1 - t)),
					G: uint8(float64(core.G) * (1 - t)),
					B: uint8(float64(core.B) * (1 - t)),
					A: uint8(255 * (1 - t)),
				})
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return fyne.NewStaticResource(name, buf.Bytes())
}
