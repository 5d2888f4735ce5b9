package config

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Patch sources for fingerprinting
const (
	PatchNative = "native"
	PatchGit    = "git"
)

// Config holds the application configuration
type Config struct {
	Days    int
	RefDays int // 0 means the same as Days
	Reverse bool
	// Author restricts commits to this author; nil shows everyone.
	Author      *string
	Branches    []string
	Search      string
	Variants    bool
	Remote      string
	RefScript   string
	PatchSource string

	Theme        Theme
	ThemePreset  ThemePreset
	HighContrast bool
	Spacing      SpacingOptions
	Keybindings  Keybindings
}

// ThemePreset describes a named theme configuration.
type ThemePreset string

const (
	PresetDefault  ThemePreset = "default"
	PresetSolarize ThemePreset = "solarized"
	PresetDracula  ThemePreset = "dracula"
)

// SpacingOptions controls row layout.
type SpacingOptions struct {
	LinePadding int `yaml:"line_padding"`
	HashWidth   int `yaml:"hash_width"`
}

// Keybindings maps semantic actions to one or more key sequences.
type Keybindings map[string][]string

// Theme defines the colours used around the branch columns. Column colours
// come from the fixed palette and are not themed.
type Theme struct {
	TimeFg        lipgloss.Color
	TimeAltFg     lipgloss.Color
	HashFg        lipgloss.Color
	FingerprintFg lipgloss.Color
	SubjectFg     lipgloss.Color
	AbsentFg      lipgloss.Color
	AddedFg       lipgloss.Color
	RemovedFg     lipgloss.Color
	BorderFg      lipgloss.Color
	TitleFg       lipgloss.Color
	TitleBg       lipgloss.Color
	HelpFg        lipgloss.Color
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Days:        30,
		Remote:      "origin",
		PatchSource: PatchNative,
		ThemePreset: PresetDefault,
		Theme:       ThemeForPreset(PresetDefault, false),
		Spacing:     DefaultSpacing(),
		Keybindings: DefaultKeybindings(),
	}
}

// CommitMaxAge is the cutoff for individual commits.
func (c *Config) CommitMaxAge() time.Duration {
	return days(c.Days)
}

// RefMaxAge is the cutoff for branch heads; it follows Days unless RefDays
// is set.
func (c *Config) RefMaxAge() time.Duration {
	if c.RefDays > 0 {
		return days(c.RefDays)
	}
	return days(c.Days)
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

// Validate checks values that flags and files can get wrong.
func (c *Config) Validate() error {
	if c.Days < 0 {
		return fmt.Errorf("days must not be negative: %d", c.Days)
	}
	if c.RefDays < 0 {
		return fmt.Errorf("ref-days must not be negative: %d", c.RefDays)
	}
	if c.Spacing.LinePadding < 0 {
		return fmt.Errorf("line_padding must not be negative: %d", c.Spacing.LinePadding)
	}
	switch c.PatchSource {
	case PatchNative, PatchGit:
	default:
		return fmt.Errorf("unknown patch source %q (want %s or %s)", c.PatchSource, PatchNative, PatchGit)
	}
	switch c.ThemePreset {
	case PresetDefault, PresetSolarize, PresetDracula:
	default:
		return fmt.Errorf("unknown theme %q", c.ThemePreset)
	}
	return nil
}

// DefaultTheme returns the default color theme
func DefaultTheme() Theme {
	return Theme{
		TimeFg:        lipgloss.Color("#FFC800"),
		TimeAltFg:     lipgloss.Color("#997800"),
		HashFg:        lipgloss.Color("#8A8A8A"),
		FingerprintFg: lipgloss.Color("#5FAFAF"),
		SubjectFg:     lipgloss.Color("#FFFFFF"),
		AbsentFg:      lipgloss.Color("#4E4E4E"),
		AddedFg:       lipgloss.Color("#A8E6A3"),
		RemovedFg:     lipgloss.Color("#E6A3A3"),
		BorderFg:      lipgloss.Color("#3A3A3A"),
		TitleFg:       lipgloss.Color("#FFFFFF"),
		TitleBg:       lipgloss.Color("#5F5FAF"),
		HelpFg:        lipgloss.Color("#888888"),
	}
}

// ThemeForPreset resolves a preset name to a concrete Theme, optionally
// applying a high-contrast variation.
func ThemeForPreset(preset ThemePreset, highContrast bool) Theme {
	switch preset {
	case PresetSolarize:
		return applyContrast(Theme{
			TimeFg:        lipgloss.Color("#B58900"),
			TimeAltFg:     lipgloss.Color("#CB4B16"),
			HashFg:        lipgloss.Color("#586E75"),
			FingerprintFg: lipgloss.Color("#2AA198"),
			SubjectFg:     lipgloss.Color("#EEE8D5"),
			AbsentFg:      lipgloss.Color("#073642"),
			AddedFg:       lipgloss.Color("#859900"),
			RemovedFg:     lipgloss.Color("#DC322F"),
			BorderFg:      lipgloss.Color("#657B83"),
			TitleFg:       lipgloss.Color("#EEE8D5"),
			TitleBg:       lipgloss.Color("#586E75"),
			HelpFg:        lipgloss.Color("#93A1A1"),
		}, highContrast)
	case PresetDracula:
		return applyContrast(Theme{
			TimeFg:        lipgloss.Color("#F1FA8C"),
			TimeAltFg:     lipgloss.Color("#FFB86C"),
			HashFg:        lipgloss.Color("#6272A4"),
			FingerprintFg: lipgloss.Color("#8BE9FD"),
			SubjectFg:     lipgloss.Color("#F8F8F2"),
			AbsentFg:      lipgloss.Color("#44475A"),
			AddedFg:       lipgloss.Color("#50FA7B"),
			RemovedFg:     lipgloss.Color("#FF79C6"),
			BorderFg:      lipgloss.Color("#44475A"),
			TitleFg:       lipgloss.Color("#F8F8F2"),
			TitleBg:       lipgloss.Color("#6272A4"),
			HelpFg:        lipgloss.Color("#BD93F9"),
		}, highContrast)
	default:
		return applyContrast(DefaultTheme(), highContrast)
	}
}

// DefaultSpacing returns the default layout spacing configuration.
func DefaultSpacing() SpacingOptions {
	return SpacingOptions{LinePadding: 0, HashWidth: 12}
}

// DefaultKeybindings returns the built-in keybinding map.
func DefaultKeybindings() Keybindings {
	return Keybindings{
		"quit":            {"ctrl+c", "q"},
		"toggle_help":     {"?", "h"},
		"toggle_variants": {"v"},
		"toggle_reverse":  {"r"},
		"show_detail":     {"enter"},
		"close_detail":    {"esc"},
		"scroll_down":     {"j", "down"},
		"scroll_up":       {"k", "up"},
		"page_down":       {"d"},
		"page_up":         {"u"},
		"go_top":          {"g"},
		"go_bottom":       {"G"},
	}
}

// MergeKeybindings overlays user overrides onto defaults.
func MergeKeybindings(overrides Keybindings) Keybindings {
	defaults := DefaultKeybindings()
	for action, keys := range overrides {
		if len(keys) == 0 {
			continue
		}
		defaults[action] = keys
	}
	return defaults
}

func applyContrast(theme Theme, highContrast bool) Theme {
	if !highContrast {
		return theme
	}

	return Theme{
		TimeFg:        adjustBrightness(theme.TimeFg, 0.25),
		TimeAltFg:     adjustBrightness(theme.TimeAltFg, 0.25),
		HashFg:        adjustBrightness(theme.HashFg, 0.2),
		FingerprintFg: adjustBrightness(theme.FingerprintFg, 0.2),
		SubjectFg:     adjustBrightness(theme.SubjectFg, 0.2),
		AbsentFg:      adjustBrightness(theme.AbsentFg, 0.2),
		AddedFg:       adjustBrightness(theme.AddedFg, 0.25),
		RemovedFg:     adjustBrightness(theme.RemovedFg, 0.25),
		BorderFg:      adjustBrightness(theme.BorderFg, 0.2),
		TitleFg:       adjustBrightness(theme.TitleFg, 0.2),
		TitleBg:       adjustBrightness(theme.TitleBg, 0.2),
		HelpFg:        adjustBrightness(theme.HelpFg, 0.2),
	}
}

// adjustBrightness scales each channel by 1+factor, clamped. Colours that
// are not #rrggbb are returned unchanged.
func adjustBrightness(c lipgloss.Color, factor float64) lipgloss.Color {
	col, err := colorful.Hex(string(c))
	if err != nil {
		return c
	}
	boosted := colorful.Color{
		R: col.R * (1 + factor),
		G: col.G * (1 + factor),
		B: col.B * (1 + factor),
	}.Clamped()
	return lipgloss.Color(boosted.Hex())
}

// Dim blends a column colour halfway toward the theme's absent colour.
// Colours that are not #rrggbb are returned unchanged.
func Dim(c, absent lipgloss.Color) lipgloss.Color {
	col, err := colorful.Hex(string(c))
	if err != nil {
		return c
	}
	toward, err := colorful.Hex(string(absent))
	if err != nil {
		return c
	}
	return lipgloss.Color(col.BlendRgb(toward, 0.5).Clamped().Hex())
}
