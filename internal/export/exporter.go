package export

import (
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cj3636/gcontains/internal/config"
	"github.com/cj3636/gcontains/internal/layout"
	"github.com/cj3636/gcontains/internal/report"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
)

// Format represents the desired export format.
type Format string

const (
	// FormatHTML emits an HTML document with a table of rows.
	FormatHTML Format = "html"
	// FormatMarkdown emits a Markdown table.
	FormatMarkdown Format = "markdown"
	// FormatANSI emits the terminal rendering.
	FormatANSI Format = "ansi"
)

// Glyphs for a branch column
const (
	Contained    = "x"
	NotContained = "┊"
	Bar          = "│"
)

// TimeLayout is how row timestamps are printed. Times are shown in UTC.
const TimeLayout = "2006.01.02 15:04:05"

const timeSeparator = " | "

// Options control how a report is exported.
type Options struct {
	// Title will be shown in HTML/Markdown outputs when provided.
	Title string
	Theme config.Theme
	// HashWidth is how many hex digits of a commit id to print.
	HashWidth int
	// Profile selects the ANSI colour depth; termenv.Ascii disables colour.
	Profile termenv.Profile
	// MaxSubject truncates subjects to this display width when positive.
	MaxSubject int
	// LinePadding is the number of blank lines between rows in ANSI output.
	LinePadding int
}

// DefaultOptions uses the default theme and spacing.
func DefaultOptions() Options {
	cfg := config.DefaultConfig()
	return Options{
		Theme:       cfg.Theme,
		HashWidth:   cfg.Spacing.HashWidth,
		LinePadding: cfg.Spacing.LinePadding,
		Profile:     termenv.TrueColor,
	}
}

// Render returns the report in the requested format.
func Render(rep *report.Report, format Format, opts Options) (string, error) {
	if rep == nil {
		return "", errors.New("report is nil")
	}
	if opts.HashWidth <= 0 {
		opts.HashWidth = config.DefaultSpacing().HashWidth
	}

	switch strings.ToLower(string(format)) {
	case string(FormatHTML):
		return renderHTML(rep, opts), nil
	case string(FormatMarkdown), "md":
		return renderMarkdown(rep, opts), nil
	case string(FormatANSI), "text":
		return renderANSI(rep, opts), nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
}

// line is one printed line of a report: a whole row in collapsed mode or
// one variant in variant mode.
type line struct {
	row         int
	shade       int
	divergent   bool
	time        string
	hash        string
	fingerprint string
	subject     string
	contains    func(name string) bool
}

func lines(rep *report.Report, opts Options) []line {
	var out []line
	for i, row := range rep.Rows {
		ts := row.Time.UTC().Format(TimeLayout)
		if !rep.Variants {
			union := row.Union()
			var hash string
			if len(row.Variants) > 0 {
				hash = row.Variants[0].ID.Short(opts.HashWidth)
			}
			out = append(out, line{row: i, shade: row.Shade, time: ts, hash: hash, subject: row.Subject, contains: union.Contains})
			continue
		}
		divergent := row.Divergent()
		for _, v := range row.Variants {
			l := line{
				row:       i,
				shade:     row.Shade,
				divergent: divergent,
				time:      ts,
				hash:      v.ID.Short(opts.HashWidth),
				subject:   row.Subject,
				contains:  v.Branches.Contains,
			}
			if v.Fingerprint != nil {
				l.fingerprint = v.Fingerprint.Short()
			}
			out = append(out, l)
		}
	}
	return out
}

func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

func renderANSI(rep *report.Report, opts Options) string {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(opts.Profile)

	theme := opts.Theme
	timeStyles := [2]lipgloss.Style{
		r.NewStyle().Foreground(theme.TimeFg),
		r.NewStyle().Foreground(theme.TimeAltFg),
	}
	hashStyle := r.NewStyle().Foreground(theme.HashFg)
	fpStyle := r.NewStyle().Foreground(theme.FingerprintFg)
	divergentStyle := r.NewStyle().Foreground(theme.RemovedFg).Bold(true)
	subjectStyle := r.NewStyle().Foreground(theme.SubjectFg).Bold(true)
	colStyles := make([]lipgloss.Style, len(rep.Columns))
	absentStyles := make([]lipgloss.Style, len(rep.Columns))
	for i, c := range rep.Columns {
		colStyles[i] = r.NewStyle().Foreground(c.Color)
		absentStyles[i] = r.NewStyle().Foreground(config.Dim(c.Color, theme.AbsentFg))
	}

	var b strings.Builder
	if opts.Title != "" {
		fmt.Fprintf(&b, "%s\n\n", opts.Title)
	}

	legend := legendLines(rep.Columns, colStyles)
	rule := ruleLine(colStyles)
	if rep.Reversed {
		writeLines(&b, legend)
		b.WriteString(rule + "\n")
	}

	padding := strings.Repeat("\n", max(opts.LinePadding, 0))
	prev := 0
	for n, l := range lines(rep, opts) {
		if n > 0 && l.row != prev {
			b.WriteString(padding)
		}
		prev = l.row
		b.WriteString(timeStyles[l.shade&1].Render(l.time + timeSeparator))
		for i, c := range rep.Columns {
			if l.contains(c.Name) {
				b.WriteString(colStyles[i].Render(Contained))
			} else {
				b.WriteString(absentStyles[i].Render(NotContained))
			}
		}
		b.WriteString(" ")
		b.WriteString(hashStyle.Render(l.hash))
		if rep.Variants {
			style := fpStyle
			if l.divergent {
				style = divergentStyle
			}
			b.WriteString(" ")
			b.WriteString(style.Render(fmt.Sprintf("%-8s", l.fingerprint)))
		}
		b.WriteString(" ")
		b.WriteString(subjectStyle.Render(truncate(l.subject, opts.MaxSubject)))
		b.WriteString("\n")
	}

	if !rep.Reversed {
		b.WriteString(rule + "\n")
		for i := len(legend) - 1; i >= 0; i-- {
			b.WriteString(legend[i] + "\n")
		}
	}
	return b.String()
}

func indent() string {
	return strings.Repeat(" ", len(TimeLayout)+len(timeSeparator))
}

// legendLines returns one line per column; line i carries bars for the
// columns before it and then its name, so names sit under their glyphs.
func legendLines(cols []layout.Column, styles []lipgloss.Style) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		var b strings.Builder
		b.WriteString(indent())
		for j := 0; j < i; j++ {
			b.WriteString(styles[j].Render(Bar))
		}
		b.WriteString(styles[i].Render(c.Name))
		out[i] = b.String()
	}
	return out
}

func ruleLine(styles []lipgloss.Style) string {
	var b strings.Builder
	b.WriteString(indent())
	for _, s := range styles {
		b.WriteString(s.Render(Bar))
	}
	return b.String()
}

func writeLines(b *strings.Builder, ls []string) {
	for _, l := range ls {
		b.WriteString(l + "\n")
	}
}

func renderMarkdown(rep *report.Report, opts Options) string {
	var b strings.Builder

	if opts.Title != "" {
		b.WriteString("# ")
		b.WriteString(opts.Title)
		b.WriteString("\n\n")
	}

	header := []string{"Time"}
	header = append(header, layout.Names(rep.Columns)...)
	header = append(header, "Commit")
	if rep.Variants {
		header = append(header, "Fingerprint")
	}
	header = append(header, "Subject")
	writeMarkdownRow(&b, header)

	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	writeMarkdownRow(&b, sep)

	for _, l := range lines(rep, opts) {
		cells := []string{l.time}
		for _, c := range rep.Columns {
			mark := ""
			if l.contains(c.Name) {
				mark = Contained
			}
			cells = append(cells, mark)
		}
		cells = append(cells, "`"+l.hash+"`")
		if rep.Variants {
			fp := l.fingerprint
			if l.divergent {
				fp = "**" + fp + "**"
			}
			cells = append(cells, fp)
		}
		cells = append(cells, truncate(l.subject, opts.MaxSubject))
		writeMarkdownRow(&b, cells)
	}
	return b.String()
}

func writeMarkdownRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(strings.ReplaceAll(c, "|", `\|`))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

func renderHTML(rep *report.Report, opts Options) string {
	var b strings.Builder
	theme := opts.Theme

	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&b, "<style>body{background:#0f111a;color:#e5e7eb;font-family:Menlo,Consolas,monospace;}"+
		"table{border-collapse:collapse;}"+
		"td,th{padding:2px 6px;text-align:left;}"+
		".time{color:%s;}.time.alt{color:%s;}"+
		".hash{color:%s;}.fp{color:%s;}.fp.divergent{color:%s;font-weight:bold;}"+
		".subject{color:%s;font-weight:bold;}"+
		".mark{text-align:center;}"+
		"h1{font-size:18px;margin-bottom:12px;}"+
		"</style></head><body>",
		theme.TimeFg, theme.TimeAltFg, theme.HashFg, theme.FingerprintFg, theme.RemovedFg, theme.SubjectFg)

	title := opts.Title
	if title == "" {
		title = "Branch containment"
	}
	fmt.Fprintf(&b, "<h1>%s</h1>\n<table>\n<tr><th>Time</th>", html.EscapeString(title))
	for _, c := range rep.Columns {
		fmt.Fprintf(&b, "<th style=\"color:%s\">%s</th>", c.Color, html.EscapeString(c.Name))
	}
	b.WriteString("<th>Commit</th>")
	if rep.Variants {
		b.WriteString("<th>Fingerprint</th>")
	}
	b.WriteString("<th>Subject</th></tr>\n")

	for _, l := range lines(rep, opts) {
		class := "time"
		if l.shade == 1 {
			class = "time alt"
		}
		fmt.Fprintf(&b, "<tr><td class=\"%s\">%s</td>", class, l.time)
		for _, c := range rep.Columns {
			mark := ""
			if l.contains(c.Name) {
				mark = Contained
			}
			fmt.Fprintf(&b, "<td class=\"mark\" style=\"color:%s\">%s</td>", c.Color, mark)
		}
		fmt.Fprintf(&b, "<td class=\"hash\">%s</td>", l.hash)
		if rep.Variants {
			class := "fp"
			if l.divergent {
				class = "fp divergent"
			}
			fmt.Fprintf(&b, "<td class=\"%s\">%s</td>", class, l.fingerprint)
		}
		fmt.Fprintf(&b, "<td class=\"subject\">%s</td></tr>\n", html.EscapeString(truncate(l.subject, opts.MaxSubject)))
	}

	b.WriteString("</table></body></html>")
	return b.String()
}
