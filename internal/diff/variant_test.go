package diff

import (
	"testing"

	"github.com/cj3636/gcontains/internal/fingerprint"
	"github.com/cj3636/gcontains/internal/report"
	"github.com/cj3636/gcontains/internal/repo/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare_Identical(t *testing.T) {
	c := Compare("a\nb\n", "a\nb\n", "x", "y")
	assert.False(t, c.Changed())
	assert.InDelta(t, 1.0, c.Similarity, 1e-9)
	added, removed, unchanged := c.Stats()
	assert.Equal(t, [3]int{0, 0, 2}, [3]int{added, removed, unchanged})
}

func TestCompare_Replace(t *testing.T) {
	c := Compare("a\nb\nc\n", "a\nB\nc\nd\n", "x", "y")
	require.True(t, c.Changed())
	assert.Equal(t, []Line{
		{Kind: Equal, Content: "a", BaseNo: 1, OtherNo: 1},
		{Kind: Removed, Content: "b", BaseNo: 2},
		{Kind: Added, Content: "B", OtherNo: 2},
		{Kind: Equal, Content: "c", BaseNo: 3, OtherNo: 3},
		{Kind: Added, Content: "d", OtherNo: 4},
	}, c.Lines)
	assert.Greater(t, c.Similarity, 0.5)
	assert.Less(t, c.Similarity, 1.0)
}

func TestCompare_Empty(t *testing.T) {
	c := Compare("", "", "x", "y")
	assert.Empty(t, c.Lines)
	assert.Equal(t, 1.0, c.Similarity)

	c = Compare("", "new\n", "x", "y")
	assert.Equal(t, []Line{{Kind: Added, Content: "new", OtherNo: 1}}, c.Lines)
	assert.Equal(t, 0.0, c.Similarity)
}

func TestVariants(t *testing.T) {
	r := repotest.New()
	a := r.Add(repotest.CommitSpec{Label: "a", Message: "fix", Patch: "@@ -1 +1 @@\n+one\n"})
	b := r.Add(repotest.CommitSpec{Label: "b", Message: "fix", Patch: "@@ -9 +9 @@\n+one\n"})
	c := r.Add(repotest.CommitSpec{Label: "c", Message: "fix", Patch: "@@ -1 +1 @@\n+two\n"})
	fp := fingerprint.New(r.Patch)

	row := report.Row{Subject: "fix", Variants: []report.Variant{{ID: a}, {ID: b}, {ID: c}}}
	cmps, err := Variants(fp, row)
	require.NoError(t, err)
	require.Len(t, cmps, 2)

	assert.False(t, cmps[0].Changed(), "offsets are normalized away")
	assert.Equal(t, a.Short(12), cmps[0].BaseName)
	assert.Equal(t, b.Short(12), cmps[0].OtherName)
	assert.True(t, cmps[1].Changed())

	single, err := Variants(fp, report.Row{Variants: []report.Variant{{ID: a}}})
	require.NoError(t, err)
	assert.Nil(t, single)

	_, err = Variants(fp, report.Row{Variants: []report.Variant{{ID: a}, {ID: repotest.ID("missing")}}})
	assert.Error(t, err)
}
