// Package bisect implements binary-search fault isolation over a prompt's
// version history: the operator marks versions good or bad and the engine
// narrows the range until the first bad version is found.
package bisect

import (
	"strconv"
	"time"
)

// State tags where a session is in its lifecycle.
type State string

const (
	StateRunning   State = "running"
	StateCompleted State = "completed"
)

// Verdict is the outcome of testing one version against the failing input.
type Verdict string

const (
	VerdictGood Verdict = "good"
	VerdictBad  Verdict = "bad"
	VerdictSkip Verdict = "skip"
)

// Session is the persisted state of a bisect run. At most one session
// exists per project. Version bounds use 0 for "not yet set"; real version
// numbers start at 1.
type Session struct {
	State           State              `json:"state"`
	PromptName      string             `json:"prompt_name"`
	PromptID        string             `json:"prompt_id"`
	FailingInput    string             `json:"failing_input"`
	GoodVersion     int                `json:"good_version,omitempty"`
	BadVersion      int                `json:"bad_version,omitempty"`
	CurrentVersion  int                `json:"current_version,omitempty"`
	TestedVersions  map[string]Verdict `json:"tested_versions"`
	StartedAt       string             `json:"started_at"`
	CompletedAt     string             `json:"completed_at,omitempty"`
	FirstBadVersion int                `json:"first_bad_version,omitempty"`
}

func newSession(promptName, promptID, failingInput string) *Session {
	return &Session{
		State:          StateRunning,
		PromptName:     promptName,
		PromptID:       promptID,
		FailingInput:   failingInput,
		TestedVersions: make(map[string]Verdict),
		StartedAt:      time.Now().Format(time.RFC3339),
	}
}

// verdictFor returns the recorded verdict for a version number, if any.
func (s *Session) verdictFor(versionNum int) (Verdict, bool) {
	v, ok := s.TestedVersions[strconv.Itoa(versionNum)]
	return v, ok
}

func (s *Session) recordVerdict(versionNum int, verdict Verdict) {
	if s.TestedVersions == nil {
		s.TestedVersions = make(map[string]Verdict)
	}
	s.TestedVersions[strconv.Itoa(versionNum)] = verdict
}

// Remaining reports how many untested versions sit strictly between the
// bounds. The second return is false until both bounds are set.
func (s *Session) Remaining() (int, bool) {
	if s.GoodVersion == 0 || s.BadVersion == 0 {
		return 0, false
	}
	return s.BadVersion - s.GoodVersion - 1, true
}
