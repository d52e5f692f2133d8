//go:build gui

package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"voxsheet/session"
)

var (
	colorRecording    = color.RGBA{220, 50, 50, 255}
	colorTranscribing = color.RGBA{60, 120, 220, 255}
	colorReady        = color.RGBA{60, 180, 90, 255}
)

// statusColor is red while recording, blue while transcribing and green otherwise.
func statusColor(s session.State) color.RGBA {
	switch s {
	case session.Recording:
		return colorRecording
	case session.Transcribing:
		return colorTranscribing
	}
	return colorReady
}

type darkTheme struct{}

func (d *darkTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return color.RGBA{18, 18, 18, 255}
	case theme.ColorNameForeground:
		return color.RGBA{200, 200, 200, 255}
	case theme.ColorNamePrimary:
		return colorTranscribing
	}
	return theme.DefaultTheme().Color(name, theme.VariantDark)
}

func (d *darkTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (d *darkTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (d *darkTheme) Size(name fyne.ThemeSizeName) float32 {
	return theme.DefaultTheme().Size(name)
}
