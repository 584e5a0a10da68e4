package pipeline

import (
	"errors"
	"strconv"

	"github.com/jaypatrick/ad-blocking-sub007/internal/artifact"
	"github.com/jaypatrick/ad-blocking-sub007/internal/lock"
)

// DriftEntry is one recorded property of the artifact that no longer holds.
type DriftEntry struct {
	Field    string
	Expected string
	Actual   string
}

// CheckResult holds the outcome of Check.
type CheckResult struct {
	Record  *lock.Record
	Clean   bool
	Missing bool
	Drifted []DriftEntry
}

// Check compares a compile record against the artifact it describes.
// Returns Clean=true if the file exists with the recorded hash and rule count.
func Check(recordPath string) (*CheckResult, error) {
	rec, err := lock.Load(recordPath)
	if err != nil {
		return nil, err
	}
	result := &CheckResult{Record: rec, Clean: true}

	err = artifact.VerifyHash(rec.Output.Path, rec.Output.SHA384)
	switch {
	case errors.Is(err, artifact.ErrNotFound):
		result.Missing = true
		result.Clean = false
		return result, nil
	case errors.Is(err, artifact.ErrHashMismatch):
		actual, hashErr := artifact.ComputeHash(rec.Output.Path)
		if hashErr != nil {
			return nil, hashErr
		}
		result.Drifted = append(result.Drifted, DriftEntry{
			Field:    "sha384",
			Expected: rec.Output.SHA384,
			Actual:   actual,
		})
		result.Clean = false
	case err != nil:
		return nil, err
	}

	count, err := artifact.CountRules(rec.Output.Path)
	if err != nil {
		return nil, err
	}
	if count != rec.Output.Rules {
		result.Drifted = append(result.Drifted, DriftEntry{
			Field:    "rules",
			Expected: strconv.Itoa(rec.Output.Rules),
			Actual:   strconv.Itoa(count),
		})
		result.Clean = false
	}

	return result, nil
}
