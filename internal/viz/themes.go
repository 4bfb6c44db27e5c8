package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the palette used to draw the cloud and its overlays.
type Theme struct {
	Name  string
	Point lipgloss.Color // freshly drawn dots
	Trail lipgloss.Color // fading dots
	Empty lipgloss.Color // slider track past the thumb
	Full  lipgloss.Color // slider track before the thumb
	Thumb lipgloss.Color
	Text  lipgloss.Color
	Muted lipgloss.Color
	// Background fills SVG exports.
	Background lipgloss.Color
}

var (
	// ThemeMinimal is white on black with grey sliders.
	ThemeMinimal = Theme{
		Name:       "minimal",
		Point:      lipgloss.Color("#ffffff"),
		Trail:      lipgloss.Color("#777777"),
		Empty:      lipgloss.Color("#7f7f7f"),
		Full:       lipgloss.Color("#bfbfbf"),
		Thumb:      lipgloss.Color("#ffffff"),
		Text:       lipgloss.Color("#ffffff"),
		Muted:      lipgloss.Color("#888888"),
		Background: lipgloss.Color("#000000"),
	}

	ThemeCyberpunk = Theme{
		Name:       "cyberpunk",
		Point:      lipgloss.Color("#00ffff"),
		Trail:      lipgloss.Color("#ff00ff"),
		Empty:      lipgloss.Color("#444466"),
		Full:       lipgloss.Color("#ff00ff"),
		Thumb:      lipgloss.Color("#ffff00"),
		Text:       lipgloss.Color("#ffffff"),
		Muted:      lipgloss.Color("#666666"),
		Background: lipgloss.Color("#0a0a0a"),
	}

	ThemeRetroGreen = Theme{
		Name:       "retro",
		Point:      lipgloss.Color("#88ff88"), // green phosphor
		Trail:      lipgloss.Color("#005500"),
		Empty:      lipgloss.Color("#005500"),
		Full:       lipgloss.Color("#00cc00"),
		Thumb:      lipgloss.Color("#88ff88"),
		Text:       lipgloss.Color("#00ff00"),
		Muted:      lipgloss.Color("#005500"),
		Background: lipgloss.Color("#001100"),
	}

	ThemeOcean = Theme{
		Name:       "ocean",
		Point:      lipgloss.Color("#e0f0ff"),
		Trail:      lipgloss.Color("#0077be"),
		Empty:      lipgloss.Color("#4488aa"),
		Full:       lipgloss.Color("#00a8cc"),
		Thumb:      lipgloss.Color("#ffd700"),
		Text:       lipgloss.Color("#e0f0ff"),
		Muted:      lipgloss.Color("#4488aa"),
		Background: lipgloss.Color("#001a33"),
	}

	ThemeSunset = Theme{
		Name:       "sunset",
		Point:      lipgloss.Color("#feca57"),
		Trail:      lipgloss.Color("#ff6b6b"),
		Empty:      lipgloss.Color("#8b6b8c"),
		Full:       lipgloss.Color("#ff9ff3"),
		Thumb:      lipgloss.Color("#fff5f5"),
		Text:       lipgloss.Color("#fff5f5"),
		Muted:      lipgloss.Color("#8b6b8c"),
		Background: lipgloss.Color("#2d1b2e"),
	}

	Themes = []Theme{
		ThemeMinimal,
		ThemeCyberpunk,
		ThemeRetroGreen,
		ThemeOcean,
		ThemeSunset,
	}
)

// GetTheme returns a theme by name, falling back to ThemeMinimal.
func GetTheme(name string) (Theme, bool) {
	for _, t := range Themes {
		if t.Name == name {
			return t, true
		}
	}
	return ThemeMinimal, false
}

// NextTheme is the theme after name in Themes, wrapping around.
func NextTheme(name string) Theme {
	for i, t := range Themes {
		if t.Name == name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
