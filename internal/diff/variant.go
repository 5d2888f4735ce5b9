package diff

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cj3636/gcontains/internal/fingerprint"
	"github.com/cj3636/gcontains/internal/report"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Kind is the role of a line in a comparison
type Kind int

const (
	Equal Kind = iota
	Added
	Removed
)

// Line is one line of a comparison. BaseNo and OtherNo are 1-based and zero
// when the line does not exist on that side.
type Line struct {
	Kind    Kind
	Content string
	BaseNo  int
	OtherNo int
}

// Comparison holds the line diff between two normalized patches.
type Comparison struct {
	BaseName  string
	OtherName string
	Lines     []Line
	// Similarity is in [0,1]; 1 means identical text.
	Similarity float64
}

// Compare diffs other against base line by line and scores how similar the
// two texts are.
func Compare(base, other, baseName, otherName string) *Comparison {
	a, b := splitLines(base), splitLines(other)
	c := &Comparison{
		BaseName:   baseName,
		OtherName:  otherName,
		Similarity: similarity(base, other),
	}

	baseNo, otherNo := 1, 1
	matcher := difflib.NewMatcher(a, b)
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			for i := op.I1; i < op.I2; i++ {
				c.Lines = append(c.Lines, Line{Kind: Equal, Content: a[i], BaseNo: baseNo, OtherNo: otherNo})
				baseNo++
				otherNo++
			}
		case 'd', 'r':
			for i := op.I1; i < op.I2; i++ {
				c.Lines = append(c.Lines, Line{Kind: Removed, Content: a[i], BaseNo: baseNo})
				baseNo++
			}
			if op.Tag == 'd' {
				continue
			}
			fallthrough
		case 'i':
			for j := op.J1; j < op.J2; j++ {
				c.Lines = append(c.Lines, Line{Kind: Added, Content: b[j], OtherNo: otherNo})
				otherNo++
			}
		}
	}
	return c
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	return 1 - float64(dmp.DiffLevenshtein(diffs))/float64(longest)
}

// Stats counts lines by kind.
func (c *Comparison) Stats() (added, removed, unchanged int) {
	for _, l := range c.Lines {
		switch l.Kind {
		case Added:
			added++
		case Removed:
			removed++
		case Equal:
			unchanged++
		}
	}
	return
}

// Changed reports whether the two sides differ
func (c *Comparison) Changed() bool {
	for _, l := range c.Lines {
		if l.Kind != Equal {
			return true
		}
	}
	return false
}

// Variants compares every later commit of a row against its first commit,
// using normalized patches so hunk offsets and index lines never show up as
// changes. Rows with a single commit yield nothing.
func Variants(fp *fingerprint.Fingerprinter, row report.Row) ([]*Comparison, error) {
	if len(row.Variants) < 2 {
		return nil, nil
	}
	first := row.Variants[0].ID
	base, err := fp.NormalizedPatch(first)
	if err != nil {
		return nil, fmt.Errorf("patch of %s: %w", first.Short(12), err)
	}

	out := make([]*Comparison, 0, len(row.Variants)-1)
	for _, v := range row.Variants[1:] {
		other, err := fp.NormalizedPatch(v.ID)
		if err != nil {
			return nil, fmt.Errorf("patch of %s: %w", v.ID.Short(12), err)
		}
		out = append(out, Compare(base, other, first.Short(12), v.ID.Short(12)))
	}
	return out, nil
}
