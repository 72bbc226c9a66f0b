// Package presentation maps connection state and telemetry to display
// attributes. Nothing here feeds back into the state machine.
package presentation

import (
	"github.com/fatih/color"

	"github.com/bluenav/navlink/internal/session"
	"github.com/bluenav/navlink/internal/wire"
)

// Palette names used by the mobile screen background
const (
	White       = "white"
	Green       = "green"
	YellowGreen = "yellowgreen"
	Yellow      = "yellow"
	Red         = "red"
	Purple      = "purple"
	Orange      = "orange"
)

// NoReading is shown in place of SOG before the first notification
const NoReading = "--"

var palette = map[session.State]string{
	session.Idle:           White,
	session.Scanning:       White,
	session.Connecting:     White,
	session.Connected:      Green,
	session.Streaming:      YellowGreen,
	session.NoData:         Yellow,
	session.ErrorReceiving: Red,
	session.ConnectFailed:  Purple,
	session.Disconnected:   Orange,
}

var terminal = map[string][]color.Attribute{
	White:       {color.FgWhite},
	Green:       {color.FgGreen},
	YellowGreen: {color.FgHiGreen, color.Bold},
	Yellow:      {color.FgYellow},
	Red:         {color.FgRed, color.Bold},
	Purple:      {color.FgMagenta},
	Orange:      {color.FgHiYellow},
}

// Color returns the palette name for st. Unknown states render white.
func Color(st session.State) string {
	if c, ok := palette[st]; ok {
		return c
	}
	return White
}

// Attributes returns the terminal attributes for a palette name
func Attributes(name string) []color.Attribute {
	if a, ok := terminal[name]; ok {
		return a
	}
	return []color.Attribute{color.Reset}
}

// Colorize renders text in the terminal colour of st
func Colorize(st session.State, text string) string {
	return color.New(Attributes(Color(st))...).Sprint(text)
}

// SOGText formats the latest reading for display
func SOGText(r *wire.Reading) string {
	if r == nil {
		return NoReading
	}
	return r.String()
}

// Controls lists which screen controls are visible
type Controls struct {
	Scan    bool
	Battery bool
	SOG     bool
	Anchor  bool
	Heading bool
}

// ControlsFor returns the visible controls for st. The scan entry point is
// also offered in every failure state, since those only recover by rescanning.
func ControlsFor(st session.State) Controls {
	switch st {
	case session.Idle, session.Scanning, session.Connecting:
		return Controls{Scan: true, Battery: true}
	case session.Connected, session.Streaming:
		return Controls{SOG: true, Anchor: true, Heading: true}
	case session.NoData, session.ErrorReceiving, session.ConnectFailed, session.Disconnected:
		return Controls{Scan: true}
	default:
		return Controls{}
	}
}

// Battery gauge fill colours
const (
	BatteryGood     = "#4CAF50"
	BatteryLow      = "#FFC107"
	BatteryCritical = "#F44336"
)

// BatteryFill clamps level to 0..100 and returns it with its fill colour
func BatteryFill(level int) (int, string) {
	level = max(0, min(level, 100))
	switch {
	case level > 50:
		return level, BatteryGood
	case level > 20:
		return level, BatteryLow
	default:
		return level, BatteryCritical
	}
}
