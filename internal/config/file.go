package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

const appName = "gcontains"

// File is the on-disk configuration. Unset fields leave the defaults alone.
type File struct {
	Days         *int            `yaml:"days"`
	RefDays      *int            `yaml:"ref_days"`
	Reverse      *bool           `yaml:"reverse"`
	Author       *string         `yaml:"author"`
	Branches     []string        `yaml:"branches"`
	Search       *string         `yaml:"search"`
	Variants     *bool           `yaml:"variants"`
	Remote       *string         `yaml:"remote"`
	RefScript    *string         `yaml:"refscript"`
	PatchSource  *string         `yaml:"patch_source"`
	Theme        *string         `yaml:"theme"`
	HighContrast *bool           `yaml:"high_contrast"`
	Spacing      *SpacingOptions `yaml:"spacing"`
	Keybindings  Keybindings     `yaml:"keybindings"`
}

// ConfigDir returns the platform-appropriate config directory.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName), nil
		}
		return filepath.Join(home, "AppData", "Roaming", appName), nil
	default:
		return filepath.Join(home, ".config", appName), nil
	}
}

// ConfigPath returns the full path to the default config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadFile reads a YAML config file. An empty path means ConfigPath. A
// missing file yields an empty File and no error.
func LoadFile(path string) (File, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return File{}, err
		}
		path = p
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("reading config file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return f, nil
}

// Apply overlays the set fields of f onto cfg.
func (f File) Apply(cfg *Config) {
	if f.Days != nil {
		cfg.Days = *f.Days
	}
	if f.RefDays != nil {
		cfg.RefDays = *f.RefDays
	}
	if f.Reverse != nil {
		cfg.Reverse = *f.Reverse
	}
	if f.Author != nil {
		author := *f.Author
		cfg.Author = &author
	}
	if len(f.Branches) > 0 {
		cfg.Branches = append([]string(nil), f.Branches...)
	}
	if f.Search != nil {
		cfg.Search = *f.Search
	}
	if f.Variants != nil {
		cfg.Variants = *f.Variants
	}
	if f.Remote != nil {
		cfg.Remote = *f.Remote
	}
	if f.RefScript != nil {
		cfg.RefScript = *f.RefScript
	}
	if f.PatchSource != nil {
		cfg.PatchSource = *f.PatchSource
	}
	if f.Theme != nil {
		cfg.ThemePreset = ThemePreset(*f.Theme)
	}
	if f.HighContrast != nil {
		cfg.HighContrast = *f.HighContrast
	}
	if f.Spacing != nil {
		cfg.Spacing = *f.Spacing
	}
	if len(f.Keybindings) > 0 {
		cfg.Keybindings = MergeKeybindings(f.Keybindings)
	}
	cfg.Theme = ThemeForPreset(cfg.ThemePreset, cfg.HighContrast)
}
