package export

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/cj3636/gcontains/internal/config"
	"github.com/cj3636/gcontains/internal/fingerprint"
	"github.com/cj3636/gcontains/internal/layout"
	"github.com/cj3636/gcontains/internal/membership"
	"github.com/cj3636/gcontains/internal/report"
	"github.com/cj3636/gcontains/internal/repo/repotest"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	idA = repotest.ID("a")
	idB = repotest.ID("b")
	idC = repotest.ID("c")
)

func sampleReport(variants bool) *report.Report {
	m := membership.New()
	m.Add(idA, "main")
	m.Add(idB, "release/1.0")
	m.Add(idC, "main")

	fix := report.Row{
		Time:    time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		Subject: "fix parser | lexer",
		Variants: []report.Variant{
			{ID: idA, Branches: m.Branches(idA)},
			{ID: idB, Branches: m.Branches(idB)},
		},
	}
	if variants {
		fa, fb := fingerprint.Sum("one"), fingerprint.Sum("two")
		fix.Variants[0].Fingerprint = &fa
		fix.Variants[1].Fingerprint = &fb
	}
	docs := report.Row{
		Time:     time.Date(2024, 6, 2, 13, 30, 0, 0, time.FixedZone("CEST", 2*3600)),
		Subject:  "add docs",
		Variants: []report.Variant{{ID: idC, Branches: m.Branches(idC)}},
		Shade:    1,
	}
	return &report.Report{
		Rows: []report.Row{fix, docs},
		Columns: []layout.Column{
			{Name: "main", Color: lipgloss.Color("#646464")},
			{Name: "release/1.0", Color: lipgloss.Color("#6464b1")},
		},
		Variants: variants,
	}
}

func plain() Options {
	opts := DefaultOptions()
	opts.Profile = termenv.Ascii
	return opts
}

func TestRenderANSI_Collapsed(t *testing.T) {
	out, err := Render(sampleReport(false), FormatANSI, plain())
	require.NoError(t, err)

	pad := strings.Repeat(" ", 22)
	want := strings.Join([]string{
		"2024.06.01 10:00:00 | xx " + idA.Short(12) + " fix parser | lexer",
		"2024.06.02 11:30:00 | x┊ " + idC.Short(12) + " add docs",
		pad + "││",
		pad + "│release/1.0",
		pad + "main",
		"",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestRenderANSI_Reversed(t *testing.T) {
	out, err := Render(sampleReport(false).Reverse(), FormatANSI, plain())
	require.NoError(t, err)

	pad := strings.Repeat(" ", 22)
	want := strings.Join([]string{
		pad + "release/1.0",
		pad + "│main",
		pad + "││",
		"2024.06.02 11:30:00 | ┊x " + idC.Short(12) + " add docs",
		"2024.06.01 10:00:00 | xx " + idA.Short(12) + " fix parser | lexer",
		"",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestRenderANSI_Variants(t *testing.T) {
	rep := sampleReport(true)
	out, err := Render(rep, FormatANSI, plain())
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	fa := rep.Rows[0].Variants[0].Fingerprint.Short()
	fb := rep.Rows[0].Variants[1].Fingerprint.Short()
	assert.Equal(t, "2024.06.01 10:00:00 | x┊ "+idA.Short(12)+" "+fa+" fix parser | lexer", lines[0])
	assert.Equal(t, "2024.06.01 10:00:00 | ┊x "+idB.Short(12)+" "+fb+" fix parser | lexer", lines[1])
	assert.Equal(t, "2024.06.02 11:30:00 | x┊ "+idC.Short(12)+"          add docs", lines[2])
}

func TestRenderANSI_LinePadding(t *testing.T) {
	opts := plain()
	opts.LinePadding = 1

	out, err := Render(sampleReport(false), FormatANSI, opts)
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	assert.Contains(t, lines[0], "fix parser")
	assert.Equal(t, "", lines[1])
	assert.Contains(t, lines[2], "add docs")

	out, err = Render(sampleReport(true), FormatANSI, opts)
	require.NoError(t, err)
	lines = strings.Split(out, "\n")
	assert.Contains(t, lines[1], idB.Short(12), "variants of one row stay together")
	assert.Equal(t, "", lines[2])
	assert.Contains(t, lines[3], "add docs")
}

func TestRenderANSI_AbsentAndDivergent(t *testing.T) {
	opts := DefaultOptions()
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.TrueColor)

	out, err := Render(sampleReport(true), FormatANSI, opts)
	require.NoError(t, err)
	absent := r.NewStyle().Foreground(config.Dim("#646464", opts.Theme.AbsentFg)).Render(NotContained)
	assert.Contains(t, out, absent)

	rep := sampleReport(true)
	fa := rep.Rows[0].Variants[0].Fingerprint.Short()
	divergent := r.NewStyle().Foreground(opts.Theme.RemovedFg).Bold(true).Render(fa)
	assert.Contains(t, out, divergent)

	same := fingerprint.Sum("one")
	rep.Rows[0].Variants[1].Fingerprint = &same
	out, err = Render(rep, FormatANSI, opts)
	require.NoError(t, err)
	assert.NotContains(t, out, divergent)
	assert.Contains(t, out, r.NewStyle().Foreground(opts.Theme.FingerprintFg).Render(fa))
}

func TestRenderANSI_Colour(t *testing.T) {
	opts := DefaultOptions()
	opts.Profile = termenv.ANSI256
	out, err := Render(sampleReport(false), FormatANSI, opts)
	require.NoError(t, err)
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "fix parser")
}

func TestRenderMarkdown(t *testing.T) {
	opts := plain()
	opts.Title = "Backports"
	out, err := Render(sampleReport(false), FormatMarkdown, opts)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "# Backports\n\n"))
	assert.Contains(t, out, "| Time | main | release/1.0 | Commit | Subject |\n")
	assert.Contains(t, out, "| --- | --- | --- | --- | --- |\n")
	assert.Contains(t, out, "| 2024.06.01 10:00:00 | x | x | `"+idA.Short(12)+"` | fix parser \\| lexer |\n")
	assert.Contains(t, out, "| 2024.06.02 11:30:00 | x |  | `"+idC.Short(12)+"` | add docs |\n")

	rep := sampleReport(true)
	out, err = Render(rep, "md", plain())
	require.NoError(t, err)
	assert.Contains(t, out, "| Commit | Fingerprint | Subject |")
	assert.Contains(t, out, "| **"+rep.Rows[0].Variants[0].Fingerprint.Short()+"** |")
}

func TestRenderHTML(t *testing.T) {
	out, err := Render(sampleReport(false), FormatHTML, plain())
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Branch containment</h1>")
	assert.Contains(t, out, "<th style=\"color:#6464b1\">release/1.0</th>")
	assert.Contains(t, out, "fix parser | lexer")
	assert.Contains(t, out, "<td class=\"time alt\">2024.06.02 11:30:00</td>")
	assert.NotContains(t, out, "Fingerprint")

	out, err = Render(sampleReport(true), FormatHTML, plain())
	require.NoError(t, err)
	assert.Contains(t, out, "<td class=\"fp divergent\">")
}

func TestRender_Errors(t *testing.T) {
	_, err := Render(nil, FormatANSI, plain())
	assert.Error(t, err)
	_, err = Render(sampleReport(false), "pdf", plain())
	assert.Error(t, err)
}

func TestTruncateSubject(t *testing.T) {
	opts := plain()
	opts.MaxSubject = 8
	out, err := Render(sampleReport(false), FormatMarkdown, opts)
	require.NoError(t, err)
	assert.Contains(t, out, "| fix p... |")
}

func TestCopyToClipboard(t *testing.T) {
	t.Setenv("TMUX", "")
	var buf bytes.Buffer
	require.NoError(t, CopyToClipboard("hello", &buf))
	assert.Equal(t, "\x1b]52;c;aGVsbG8=\x07", buf.String())
}
