package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cj3636/gcontains/internal/config"
	"github.com/cj3636/gcontains/internal/export"
	"github.com/cj3636/gcontains/internal/fingerprint"
	"github.com/cj3636/gcontains/internal/repo"
	"github.com/cj3636/gcontains/internal/report"
	"github.com/cj3636/gcontains/internal/resolve"
	"github.com/cj3636/gcontains/internal/tui"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	flag "github.com/spf13/pflag"
)

const version = "0.1.0"

var (
	days         int
	refDays      int
	reverse      bool
	author       string
	branches     []string
	search       string
	variants     bool
	remote       string
	patchSource  string
	interactive  bool
	exportFormat string
	exportFile   string
	exportCopy   bool
	configFile   string
	theme        string
	highContrast bool
	noColor      bool
	debug        bool
	showVersion  bool
	help         bool
)

func init() {
	flag.IntVarP(&days, "days", "d", 30, "Only show commits from the last N days")
	flag.IntVar(&refDays, "ref-days", 0, "Ignore branches whose head is older than N days (defaults to --days)")
	flag.BoolVarP(&reverse, "reverse", "r", false, "Newest first, branch legend on top")
	flag.StringVar(&author, "author", "", "Only show commits whose author name or email contains this text (defaults to git user.name; pass an empty value for everyone)")
	flag.StringArrayVar(&branches, "branch", nil, "Branch selector: glob, !glob to always show, or tool:arg trigger (repeatable, in priority order)")
	flag.StringVar(&search, "search", "", "Only show changes whose subject contains this text")
	flag.BoolVarP(&variants, "variants", "v", false, "One line per commit, with content fingerprints for cherry-picks")
	flag.StringVar(&remote, "remote", "", "Remote whose tracking branches are considered (default origin)")
	flag.StringVar(&patchSource, "patch-source", "", "Where fingerprints read patches from: native or git")
	flag.BoolVarP(&interactive, "interactive", "i", false, "Browse the report in a terminal UI")
	flag.StringVar(&exportFormat, "export-format", "", "Export the report as html, markdown, or ansi")
	flag.StringVar(&exportFile, "export-file", "", "Write the exported report to the provided file path")
	flag.BoolVar(&exportCopy, "export-copy", false, "Copy the exported report to your clipboard")
	flag.StringVar(&configFile, "config", "", "Path to a YAML config file")
	flag.StringVar(&theme, "theme", "", "Theme preset: default, solarized, or dracula")
	flag.BoolVar(&highContrast, "high-contrast", false, "Brighten theme colours")
	flag.BoolVar(&noColor, "no-color", false, "Disable colour output")
	flag.BoolVar(&debug, "debug", false, "Log skipped refs and commits to stderr")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVarP(&help, "help", "h", false, "Show help information")
	flag.Usage = usage
}

func usage() {
	fmt.Println("gcontains - which branches contain which changes")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  gcontains [options] [git-dir]")
	fmt.Println("")
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println("")
	fmt.Println("Examples:")
	fmt.Println("  gcontains --branch 'release/*' --branch '!main'")
	fmt.Println("  gcontains -v -d 90 --author jane@corp.com       # Show cherry-pick variants")
	fmt.Println("  gcontains --branch review:1234                 # Ask contains.refscript for a branch")
	fmt.Println("  gcontains --export-format html --export-file report.html")
	fmt.Println("")
	fmt.Println("Keyboard shortcuts (-i):")
	fmt.Println("  j/↓ k/↑  Move")
	fmt.Println("  d u      Half page down/up")
	fmt.Println("  g G      Top/bottom")
	fmt.Println("  v        Toggle variants")
	fmt.Println("  r        Toggle reverse")
	fmt.Println("  enter    Compare the variants of a change")
	fmt.Println("  ?/h      Toggle help panel")
	fmt.Println("  q        Quit")
}

func parseExportFormat(raw string) (export.Format, error) {
	switch strings.ToLower(raw) {
	case "", string(export.FormatMarkdown), "md":
		return export.FormatMarkdown, nil
	case string(export.FormatHTML), "htm":
		return export.FormatHTML, nil
	case string(export.FormatANSI), "text":
		return export.FormatANSI, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", raw)
	}
}

func setupLogging() {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func colorProfile() termenv.Profile {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return termenv.Ascii
	}
	return termenv.NewOutput(os.Stdout).EnvColorProfile()
}

// loadConfig layers git config, the YAML file and flags over the defaults.
func loadConfig(g *repo.GitRepository) (*config.Config, error) {
	cfg := config.DefaultConfig()

	identity, err := g.Identity()
	if err != nil {
		return nil, err
	}
	if identity != "" {
		cfg.Author = &identity
	}
	if cfg.RefScript, err = g.ConfigOption("contains", "refscript"); err != nil {
		return nil, err
	}

	file, err := config.LoadFile(configFile)
	if err != nil {
		return nil, err
	}
	file.Apply(cfg)

	set := flag.CommandLine.Changed
	if set("days") {
		cfg.Days = days
	}
	if set("ref-days") {
		cfg.RefDays = refDays
	}
	if set("reverse") {
		cfg.Reverse = reverse
	}
	if set("author") {
		cfg.Author = &author
	}
	if set("branch") {
		cfg.Branches = branches
	}
	if set("search") {
		cfg.Search = search
	}
	if set("variants") {
		cfg.Variants = variants
	}
	if set("remote") {
		cfg.Remote = remote
	}
	if set("patch-source") {
		cfg.PatchSource = patchSource
	}
	if set("theme") {
		cfg.ThemePreset = config.ThemePreset(theme)
	}
	if set("high-contrast") {
		cfg.HighContrast = highContrast
	}
	cfg.Theme = config.ThemeForPreset(cfg.ThemePreset, cfg.HighContrast)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	flag.Parse()

	if help {
		usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("gcontains version %s\n", version)
		os.Exit(0)
	}

	setupLogging()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dir := "."
	if args := flag.Args(); len(args) > 0 {
		dir = args[0]
	}
	if len(flag.Args()) > 1 {
		usage()
		return fmt.Errorf("expected at most one git-dir argument, got %d", len(flag.Args()))
	}

	g, err := repo.Open(dir)
	if err != nil {
		return err
	}
	slog.Debug("opened repository", "repo", g.String())

	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}

	home := resolve.UserHome(slog.Default())
	var patch repo.PatchFunc
	if cfg.PatchSource == config.PatchGit {
		patch = repo.GitShowPatch(g.Path())
	}

	build := func(variants, reversed bool) (*report.Report, error) {
		return report.Build(g, report.Options{
			Branches:     cfg.Branches,
			Remote:       cfg.Remote,
			RefScript:    cfg.RefScript,
			Home:         home,
			Trigger:      resolve.ExecTrigger,
			Author:       cfg.Author,
			RefMaxAge:    cfg.RefMaxAge(),
			CommitMaxAge: cfg.CommitMaxAge(),
			Variants:     variants,
			Reverse:      reversed,
			Search:       cfg.Search,
			Patch:        patch,
		})
	}

	rep, err := build(cfg.Variants, cfg.Reverse)
	if err != nil {
		return err
	}

	profile := colorProfile()
	opts := export.Options{
		Theme:       cfg.Theme,
		HashWidth:   cfg.Spacing.HashWidth,
		LinePadding: cfg.Spacing.LinePadding,
		Profile:     profile,
	}

	if exportFormat != "" || exportFile != "" || exportCopy {
		return exportReport(rep, opts)
	}

	if interactive {
		lipgloss.SetColorProfile(profile)
		source := patch
		if source == nil {
			source = g.Patch
		}
		fp := fingerprint.New(source)
		ctx := tui.RepoContext{Path: g.Path(), Remote: cfg.Remote, Days: cfg.Days, Search: cfg.Search}
		if cfg.Author != nil {
			ctx.Author = *cfg.Author
		}
		model := tui.NewModel(rep, build, fp, ctx, cfg)
		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running TUI: %w", err)
		}
		return nil
	}

	rendered, err := export.Render(rep, export.FormatANSI, opts)
	if err != nil {
		return err
	}
	fmt.Print(rendered)
	return nil
}

func exportReport(rep *report.Report, opts export.Options) error {
	format, err := parseExportFormat(exportFormat)
	if err != nil {
		return err
	}
	if format == export.FormatANSI && (exportFile != "" || exportCopy) {
		opts.Profile = termenv.TrueColor
	}

	rendered, err := export.Render(rep, format, opts)
	if err != nil {
		return fmt.Errorf("exporting report: %w", err)
	}

	if exportFile != "" {
		if err := os.WriteFile(exportFile, []byte(rendered), 0o644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Report saved to %s\n", exportFile)
	}

	if exportCopy {
		if err := export.CopyToClipboard(rendered, nil); err != nil {
			return fmt.Errorf("copying report to clipboard: %w", err)
		}
		fmt.Println("Report copied to clipboard.")
	}

	if exportFile == "" && !exportCopy {
		fmt.Print(rendered)
	}
	return nil
}
