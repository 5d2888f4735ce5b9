package fingerprint

import (
	"encoding/hex"
	"strings"

	"github.com/cj3636/gcontains/internal/repo"
	"lukechampine.com/blake3"
)

const (
	// HunkToken replaces every hunk header line.
	HunkToken = "@@"
	// IndexToken replaces every index metadata line.
	IndexToken = ""
)

// Fingerprint is the digest of a normalised patch.
type Fingerprint [32]byte

// String returns the full hex digest
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Short returns the first 8 hex characters, as shown next to variants
func (f Fingerprint) Short() string {
	return f.String()[:8]
}

// Normalize rewrites the line-number bearing parts of a patch to fixed
// tokens so that patches differing only in offsets compare equal.
func Normalize(patch string) string {
	lines := strings.Split(patch, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "@@"):
			lines[i] = HunkToken
		case strings.HasPrefix(line, "index"):
			lines[i] = IndexToken
		}
	}
	return strings.Join(lines, "\n")
}

// Sum fingerprints raw patch text
func Sum(patch string) Fingerprint {
	return Fingerprint(blake3.Sum256([]byte(Normalize(patch))))
}

// Fingerprinter computes fingerprints from a patch source. Results are not
// cached; each call retrieves the patch again.
type Fingerprinter struct {
	Patch repo.PatchFunc
}

// New returns a Fingerprinter reading patches from source
func New(source repo.PatchFunc) *Fingerprinter {
	return &Fingerprinter{Patch: source}
}

// Compute retrieves and fingerprints the patch for id
func (f *Fingerprinter) Compute(id repo.CommitID) (Fingerprint, error) {
	patch, err := f.Patch(id)
	if err != nil {
		return Fingerprint{}, err
	}
	return Sum(patch), nil
}

// NormalizedPatch retrieves the patch for id in normalised form.
func (f *Fingerprinter) NormalizedPatch(id repo.CommitID) (string, error) {
	patch, err := f.Patch(id)
	if err != nil {
		return "", err
	}
	return Normalize(patch), nil
}
