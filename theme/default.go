package theme

import (
	"github.com/pterm/pterm"
)

// Theme defines the colour scheme and styling for the application
type Theme struct {
	// Log level colours
	Debug *pterm.Style
	Info  *pterm.Style
	Warn  *pterm.Style
	Error *pterm.Style
	Fatal *pterm.Style

	// Component colours
	Success   *pterm.Style
	Highlight *pterm.Style
	Muted     *pterm.Style
	Accent    *pterm.Style

	// Functional colours
	Primary   pterm.Color
	Secondary pterm.Color
	Danger    pterm.Color
	Warning   pterm.Color
	Good      pterm.Color

	// Health status colours
	Target        pterm.Color
	HealthUp      pterm.Color
	HealthDown    pterm.Color
	HealthUnknown pterm.Color
	Counts        pterm.Color
}

// Default returns the default application theme
func Default() *Theme {
	return &Theme{
		Debug: pterm.NewStyle(pterm.FgLightBlue),
		Info:  pterm.NewStyle(pterm.FgGreen),
		Warn:  pterm.NewStyle(pterm.FgYellow, pterm.Bold),
		Error: pterm.NewStyle(pterm.FgRed, pterm.Bold),
		Fatal: pterm.NewStyle(pterm.FgWhite, pterm.BgRed, pterm.Bold),

		Success:   pterm.NewStyle(pterm.FgGreen, pterm.Bold),
		Highlight: pterm.NewStyle(pterm.FgCyan, pterm.Bold),
		Muted:     pterm.NewStyle(pterm.FgGray),
		Accent:    pterm.NewStyle(pterm.FgMagenta),

		Primary:   pterm.FgBlue,
		Secondary: pterm.FgCyan,
		Danger:    pterm.FgRed,
		Warning:   pterm.FgYellow,
		Good:      pterm.FgGreen,

		Target:        pterm.FgCyan,
		HealthUp:      pterm.FgGreen,
		HealthDown:    pterm.FgRed,
		HealthUnknown: pterm.FgGray,
		Counts:        pterm.FgLightMagenta,
	}
}

// Dark returns a dark theme variant
func Dark() *Theme {
	t := Default()
	t.Debug = pterm.NewStyle(pterm.FgLightBlue)
	t.Info = pterm.NewStyle(pterm.FgLightGreen)
	t.Warn = pterm.NewStyle(pterm.FgLightYellow, pterm.Bold)
	t.Error = pterm.NewStyle(pterm.FgLightRed, pterm.Bold)
	t.Success = pterm.NewStyle(pterm.FgLightGreen, pterm.Bold)
	t.Highlight = pterm.NewStyle(pterm.FgLightCyan, pterm.Bold)
	t.Accent = pterm.NewStyle(pterm.FgLightMagenta)
	t.Primary = pterm.FgLightBlue
	t.Secondary = pterm.FgLightCyan
	t.Danger = pterm.FgLightRed
	t.Warning = pterm.FgLightYellow
	t.Good = pterm.FgLightGreen
	t.Target = pterm.FgLightCyan
	t.HealthUp = pterm.FgLightGreen
	t.HealthDown = pterm.FgLightRed
	return t
}

// GetTheme returns the appropriate theme based on environment or preference
func GetTheme(name string) *Theme {
	switch name {
	case "dark":
		return Dark()
	default:
		return Default()
	}
}

// ColourSplash Colours for the splash screen
func ColourSplash(message ...any) string {
	return pterm.LightGreen(message...)
}

// ColourVersion Colours version numbers, used for the splash screen
func ColourVersion(message ...any) string {
	return pterm.LightYellow(message...)
}

// StyleUrl styles hyperlinks for the splash screen
func StyleUrl(message ...any) string {
	return pterm.Cyan(message...)
}

// Hyperlink renders an OSC 8 terminal hyperlink
func Hyperlink(uri, text string) string {
	return "\x1b]8;;" + uri + "\x1b\\" + text + "\x1b]8;;\x1b\\"
}
