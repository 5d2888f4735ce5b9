package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cj3636/gcontains/internal/config"
	"github.com/cj3636/gcontains/internal/diff"
	"github.com/cj3636/gcontains/internal/export"
	"github.com/cj3636/gcontains/internal/fingerprint"
	"github.com/cj3636/gcontains/internal/report"
	"github.com/mattn/go-runewidth"
)

// BuildFunc produces a report in the requested mode.
type BuildFunc func(variants, reversed bool) (*report.Report, error)

// Model represents the application state
type Model struct {
	report   *report.Report
	build    BuildFunc
	fp       *fingerprint.Fingerprinter
	context  RepoContext
	config   *config.Config
	styles   *Styles
	keys     keyMap
	help     help.Model
	lines    []entry
	cursor   int
	viewport Viewport
	width    int
	height   int
	showHelp bool
	detail   *detailPanel
	err      error

	helpPanelHeight   int
	detailPanelHeight int
}

// Viewport controls the visible portion of the rows
type Viewport struct {
	offset int // Current scroll position
	height int // Available height for content
}

// Styles holds all the lipgloss styles
type Styles struct {
	time        [2]lipgloss.Style
	hash        lipgloss.Style
	fingerprint lipgloss.Style
	divergent   lipgloss.Style
	subject     lipgloss.Style
	cursor      lipgloss.Style
	added       lipgloss.Style
	removed     lipgloss.Style
	unchanged   lipgloss.Style
	title       lipgloss.Style
	help        lipgloss.Style
	statusBar   lipgloss.Style
	panel       lipgloss.Style
}

// entry is one displayed line: a whole row, or one variant of it.
type entry struct {
	row     int
	variant int // -1 in collapsed mode
}

type detailPanel struct {
	title  string
	lines  []string
	offset int
}

// NewModel creates a new TUI model
func NewModel(rep *report.Report, build BuildFunc, fp *fingerprint.Fingerprinter, ctx RepoContext, cfg *config.Config) Model {
	m := Model{
		report:            rep,
		build:             build,
		fp:                fp,
		context:           ctx,
		config:            cfg,
		styles:            createStyles(cfg.Theme),
		keys:              newKeyMap(cfg.Keybindings),
		help:              help.New(),
		viewport:          Viewport{offset: 0, height: 20},
		helpPanelHeight:   7,
		detailPanelHeight: 14,
	}
	m.help.ShowAll = true
	m.lines = flatten(rep)
	return m
}

// createStyles initializes all lipgloss styles based on theme
func createStyles(theme config.Theme) *Styles {
	return &Styles{
		time: [2]lipgloss.Style{
			lipgloss.NewStyle().Foreground(theme.TimeFg),
			lipgloss.NewStyle().Foreground(theme.TimeAltFg),
		},
		hash:        lipgloss.NewStyle().Foreground(theme.HashFg),
		fingerprint: lipgloss.NewStyle().Foreground(theme.FingerprintFg),
		divergent:   lipgloss.NewStyle().Foreground(theme.RemovedFg).Bold(true),
		subject:     lipgloss.NewStyle().Foreground(theme.SubjectFg).Bold(true),
		cursor:      lipgloss.NewStyle().Reverse(true),
		added:       lipgloss.NewStyle().Foreground(theme.AddedFg),
		removed:     lipgloss.NewStyle().Foreground(theme.RemovedFg),
		unchanged:   lipgloss.NewStyle().Foreground(theme.HelpFg),
		title: lipgloss.NewStyle().
			Foreground(theme.TitleFg).
			Background(theme.TitleBg).
			Bold(true).
			Padding(0, 1),
		help: lipgloss.NewStyle().
			Foreground(theme.HelpFg).
			Italic(true),
		statusBar: lipgloss.NewStyle().
			Foreground(theme.TitleFg).
			Background(theme.TitleBg).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.BorderFg).
			Padding(0, 1),
	}
}

func flatten(rep *report.Report) []entry {
	var out []entry
	for i, row := range rep.Rows {
		if !rep.Variants {
			out = append(out, entry{row: i, variant: -1})
			continue
		}
		for j := range row.Variants {
			out = append(out, entry{row: i, variant: j})
		}
	}
	return out
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			if m.showHelp {
				m.detail = nil
			}
			m.updateViewportHeight()
		case key.Matches(msg, m.keys.Close):
			m.detail = nil
			m.showHelp = false
			m.updateViewportHeight()
		case key.Matches(msg, m.keys.Detail):
			m.openDetail()
			m.updateViewportHeight()
		case key.Matches(msg, m.keys.Variants):
			m.rebuild(!m.report.Variants, m.report.Reversed)
		case key.Matches(msg, m.keys.Reverse):
			m.report = m.report.Reverse()
			m.lines = flatten(m.report)
			m.cursor = max(0, len(m.lines)-1-m.cursor)
			m.keepCursorVisible()
		case key.Matches(msg, m.keys.Down):
			m.scrollDown()
		case key.Matches(msg, m.keys.Up):
			m.scrollUp()
		case key.Matches(msg, m.keys.PageDown):
			m.scrollPageDown()
		case key.Matches(msg, m.keys.PageUp):
			m.scrollPageUp()
		case key.Matches(msg, m.keys.Top):
			m.scrollToTop()
		case key.Matches(msg, m.keys.Bottom):
			m.scrollToBottom()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.updateViewportHeight()
	}

	return m, nil
}

func (m *Model) rebuild(variants, reversed bool) {
	if m.build == nil {
		return
	}
	rep, err := m.build(variants, reversed)
	if err != nil {
		m.err = err
		return
	}
	m.report = rep
	m.lines = flatten(rep)
	m.cursor = 0
	m.viewport.offset = 0
	m.detail = nil
}

func (m *Model) openDetail() {
	if m.cursor >= len(m.lines) {
		return
	}
	row := m.report.Rows[m.lines[m.cursor].row]
	panel := &detailPanel{title: row.Subject}
	if len(row.Variants) < 2 || m.fp == nil {
		panel.lines = []string{m.styles.unchanged.Render("Only one commit carries this change.")}
		m.detail = panel
		m.showHelp = false
		return
	}

	cmps, err := diff.Variants(m.fp, row)
	if err != nil {
		panel.lines = []string{m.styles.removed.Render("Error: " + err.Error())}
	}
	for _, c := range cmps {
		panel.lines = append(panel.lines, m.renderComparison(c)...)
	}
	m.detail = panel
	m.showHelp = false
}

func (m Model) renderComparison(c *diff.Comparison) []string {
	added, removed, _ := c.Stats()
	header := fmt.Sprintf("%s ↔ %s  similarity %.1f%%  +%d -%d",
		c.BaseName, c.OtherName, c.Similarity*100, added, removed)
	out := []string{m.styles.subject.Render(header)}
	if !c.Changed() {
		return append(out, m.styles.unchanged.Render("  identical content"))
	}
	for _, l := range c.Lines {
		switch l.Kind {
		case diff.Added:
			out = append(out, m.styles.added.Render("+ "+l.Content))
		case diff.Removed:
			out = append(out, m.styles.removed.Render("- "+l.Content))
		default:
			out = append(out, m.styles.unchanged.Render("  "+l.Content))
		}
	}
	return out
}

// View renders the UI
func (m Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}

	sections := []string{m.renderTitle(), m.renderRows()}
	if m.showHelp {
		sections = append(sections, m.renderHelpPanel())
	} else if m.detail != nil {
		sections = append(sections, m.renderDetailPanel())
	}
	sections = append(sections, m.renderStatusBar())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderTitle renders the title bar
func (m Model) renderTitle() string {
	title := "gcontains: " + m.context.describe()
	if m.width > 4 {
		title = truncate(title, m.width-2)
	}
	return m.styles.title.Render(title)
}

func (m Model) renderRows() string {
	if len(m.lines) == 0 {
		return m.styles.unchanged.Render("No commits in the selected window.")
	}

	start := m.viewport.offset
	end := min(start+m.pageSize(), len(m.lines))
	parts := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		if i > start && m.lines[i].row != m.lines[i-1].row {
			for range m.config.Spacing.LinePadding {
				parts = append(parts, "")
			}
		}
		parts = append(parts, m.renderLine(i))
	}
	return strings.Join(parts, "\n")
}

// pageSize is how many lines fit the viewport once padding is counted.
func (m Model) pageSize() int {
	pad := max(m.config.Spacing.LinePadding, 0)
	return max(1, (m.viewport.height+pad)/(1+pad))
}

func (m Model) renderLine(i int) string {
	e := m.lines[i]
	row := m.report.Rows[e.row]

	var b strings.Builder
	b.WriteString(m.styles.time[row.Shade&1].Render(row.Time.UTC().Format(export.TimeLayout) + " | "))

	contains := row.Union().Contains
	id := ""
	if len(row.Variants) > 0 {
		id = row.Variants[0].ID.Short(m.config.Spacing.HashWidth)
	}
	fp := ""
	if e.variant >= 0 {
		v := row.Variants[e.variant]
		contains = v.Branches.Contains
		id = v.ID.Short(m.config.Spacing.HashWidth)
		if v.Fingerprint != nil {
			fp = v.Fingerprint.Short()
		}
	}
	for _, c := range m.report.Columns {
		if contains(c.Name) {
			b.WriteString(lipgloss.NewStyle().Foreground(c.Color).Render(export.Contained))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(config.Dim(c.Color, m.config.Theme.AbsentFg)).Render(export.NotContained))
		}
	}
	b.WriteString(" " + m.styles.hash.Render(id))
	if m.report.Variants {
		style := m.styles.fingerprint
		if row.Divergent() {
			style = m.styles.divergent
		}
		b.WriteString(" " + style.Render(fmt.Sprintf("%-8s", fp)))
	}

	subject := row.Subject
	if m.width > 0 {
		used := lipgloss.Width(b.String())
		subject = truncate(subject, max(8, m.width-used-1))
	}
	subjectStyle := m.styles.subject
	if i == m.cursor {
		subjectStyle = subjectStyle.Inherit(m.styles.cursor)
	}
	b.WriteString(" " + subjectStyle.Render(subject))
	return b.String()
}

// renderStatusBar renders the status bar
func (m Model) renderStatusBar() string {
	mode := "collapsed"
	if m.report.Variants {
		mode = "variants"
	}
	order := "oldest first"
	if m.report.Reversed {
		order = "newest first"
	}

	legend := make([]string, 0, len(m.report.Columns))
	for i, c := range m.report.Columns {
		legend = append(legend, lipgloss.NewStyle().Foreground(c.Color).Render(fmt.Sprintf("%d:%s", i+1, c.Name)))
	}

	status := fmt.Sprintf("Rows: %d | Pos: %d/%d | %s | %s | ?:help q:quit",
		len(m.report.Rows), min(m.cursor+1, len(m.lines)), len(m.lines), mode, order)
	bar := m.styles.statusBar.Width(m.width).Render(status)
	if len(legend) == 0 {
		return bar
	}
	return lipgloss.JoinVertical(lipgloss.Left, strings.Join(legend, " "), bar)
}

// renderHelpPanel renders the help panel below the main view
func (m Model) renderHelpPanel() string {
	return m.styles.panel.Width(max(m.width-2, 20)).Render(m.help.View(m.keys))
}

func (m Model) renderDetailPanel() string {
	height := m.detailPanelHeight - 3
	start := min(m.detail.offset, max(0, len(m.detail.lines)-1))
	end := min(start+height, len(m.detail.lines))
	body := append([]string{m.styles.title.Render(truncate(m.detail.title, max(m.width-8, 20)))}, m.detail.lines[start:end]...)
	return m.styles.panel.Width(max(m.width-2, 20)).Render(strings.Join(body, "\n"))
}

// Scroll functions
func (m *Model) scrollDown() {
	if m.detail != nil {
		if m.detail.offset < len(m.detail.lines)-1 {
			m.detail.offset++
		}
		return
	}
	if m.cursor < len(m.lines)-1 {
		m.cursor++
	}
	m.keepCursorVisible()
}

func (m *Model) scrollUp() {
	if m.detail != nil {
		if m.detail.offset > 0 {
			m.detail.offset--
		}
		return
	}
	if m.cursor > 0 {
		m.cursor--
	}
	m.keepCursorVisible()
}

func (m *Model) scrollPageDown() {
	halfPage := max(m.pageSize()/2, 1)
	m.cursor = min(m.cursor+halfPage, max(0, len(m.lines)-1))
	m.keepCursorVisible()
}

func (m *Model) scrollPageUp() {
	halfPage := max(m.pageSize()/2, 1)
	m.cursor = max(m.cursor-halfPage, 0)
	m.keepCursorVisible()
}

func (m *Model) scrollToTop() {
	m.cursor = 0
	m.keepCursorVisible()
}

func (m *Model) scrollToBottom() {
	m.cursor = max(0, len(m.lines)-1)
	m.keepCursorVisible()
}

func (m *Model) keepCursorVisible() {
	if m.cursor < m.viewport.offset {
		m.viewport.offset = m.cursor
	}
	page := m.pageSize()
	if m.cursor >= m.viewport.offset+page {
		m.viewport.offset = m.cursor - page + 1
	}
	maxOffset := max(0, len(m.lines)-page)
	m.viewport.offset = max(0, min(m.viewport.offset, maxOffset))
}

// updateViewportHeight sizes the row area from the screen and open panels
func (m *Model) updateViewportHeight() {
	// title, legend, status bar
	baseHeight := m.height - 3

	if m.showHelp {
		baseHeight -= m.helpPanelHeight
	} else if m.detail != nil {
		baseHeight -= m.detailPanelHeight
	}

	if baseHeight < 5 {
		baseHeight = 5
	}

	m.viewport.height = baseHeight
	m.keepCursorVisible()
}

func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}
