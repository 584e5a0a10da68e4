package compiler

import (
	"time"

	"github.com/jaypatrick/ad-blocking-sub007/internal/config"
)

// State is a step of a compilation run.
type State string

const (
	StateStart          State = "START"
	StateConfigResolved State = "CONFIG_RESOLVED"
	StateValidated      State = "VALIDATED"
	StateCompiled       State = "COMPILED"
	StateVerified       State = "VERIFIED"
	StatePublished      State = "PUBLISHED"
	StateDone           State = "DONE"
	StateAborted        State = "ABORTED"
)

// Result is the outcome of one compilation run. It starts out failed and is
// filled in stage by stage; callers must not modify it after it is returned.
type Result struct {
	Success          bool                     `json:"success"`
	ConfigName       string                   `json:"config_name,omitempty"`
	ConfigVersion    string                   `json:"config_version,omitempty"`
	ConfigPath       string                   `json:"config_path,omitempty"`
	ConfigFormat     config.Format            `json:"config_format,omitempty"`
	RuleCount        int                      `json:"rule_count"`
	OutputPath       string                   `json:"output_path,omitempty"`
	OutputHash       string                   `json:"output_hash,omitempty"`
	ElapsedMs        int64                    `json:"elapsed_ms"`
	ErrorMessage     string                   `json:"error_message,omitempty"`
	CompilerOutput   string                   `json:"compiler_output,omitempty"`
	CopiedToRules    bool                     `json:"copied_to_rules"`
	RulesDestination string                   `json:"rules_destination,omitempty"`
	ArchivedPath     string                   `json:"archived_path,omitempty"`
	Validation       *config.ValidationResult `json:"validation,omitempty"`
	State            State                    `json:"state"`
	Timestamp        time.Time                `json:"timestamp"`

	// Err is the typed failure for errors.Is / errors.As.
	Err error `json:"-"`
}

// NewResult returns a failed result stamped with now.
func NewResult(now time.Time) *Result {
	return &Result{State: StateStart, Timestamp: now}
}

// Fail marks the result as aborted with err.
func (r *Result) Fail(err error) *Result {
	r.Success = false
	r.Err = err
	r.State = StateAborted
	if err != nil && r.ErrorMessage == "" {
		r.ErrorMessage = err.Error()
	}
	return r
}
