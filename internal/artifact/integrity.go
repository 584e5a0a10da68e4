package artifact

import (
	"errors"
	"sort"
)

// Fingerprint maps file paths to their SHA-384.
type Fingerprint map[string]string

// TakeFingerprint hashes every path that exists. Missing files are left out;
// the engine reports them itself.
func TakeFingerprint(paths []string) (Fingerprint, error) {
	fp := make(Fingerprint, len(paths))
	for _, p := range paths {
		hash, err := ComputeHash(p)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		fp[p] = hash
	}
	return fp, nil
}

// Changed returns, sorted, the fingerprinted paths whose content no longer
// matches or that have disappeared.
func (f Fingerprint) Changed() ([]string, error) {
	var changed []string
	for p, hash := range f {
		err := VerifyHash(p, hash)
		switch {
		case err == nil:
		case errors.Is(err, ErrHashMismatch), errors.Is(err, ErrNotFound):
			changed = append(changed, p)
		default:
			return nil, err
		}
	}
	sort.Strings(changed)
	return changed, nil
}
