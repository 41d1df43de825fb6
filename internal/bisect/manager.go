package bisect

import (
	"fmt"
	"time"
)

// Manager drives bisect sessions against an injected state store.
type Manager struct {
	store StateStore
}

// NewManager returns a manager over the given store.
func NewManager(store StateStore) *Manager {
	return &Manager{store: store}
}

// Session returns the current session, or nil when none exists.
func (m *Manager) Session() (*Session, error) {
	return m.store.Load()
}

// Start creates a new RUNNING session. It fails while another session is
// still running; the caller resolves the prompt first and passes its
// identity here.
func (m *Manager) Start(promptName, promptID, failingInput string) (*Session, error) {
	existing, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.State == StateRunning {
		return nil, fmt.Errorf("a bisect session is already running; run 'bisect reset' first")
	}

	s := newSession(promptName, promptID, failingInput)
	if err := m.store.Save(s); err != nil {
		return nil, err
	}
	return s, nil
}

// MarkVersion records a verdict for a version and advances the session.
// versionNum 0 means "the session's current candidate". allVersions is the
// prompt's full ordered version-number list; the marked version must be in
// it. Good bounds only move up, bad bounds only move down; once the bounds
// become adjacent the session completes with FirstBadVersion set.
func (m *Manager) MarkVersion(verdict Verdict, versionNum int, allVersions []int) (*Session, error) {
	s, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	if s == nil || s.State != StateRunning {
		return nil, fmt.Errorf("no active bisect session; run 'bisect start' first")
	}

	if versionNum == 0 {
		if s.CurrentVersion == 0 {
			return nil, fmt.Errorf("specify a version: 'bisect good 1' or 'bisect bad 5'")
		}
		versionNum = s.CurrentVersion
	}
	if !containsVersion(allVersions, versionNum) {
		return nil, fmt.Errorf("version %d does not exist for prompt %q", versionNum, s.PromptName)
	}

	switch verdict {
	case VerdictGood:
		if s.GoodVersion != 0 && versionNum <= s.GoodVersion {
			return nil, fmt.Errorf("version %d is not newer than current good version %d", versionNum, s.GoodVersion)
		}
		s.recordVerdict(versionNum, verdict)
		s.GoodVersion = versionNum
	case VerdictBad:
		if s.BadVersion != 0 && versionNum >= s.BadVersion {
			return nil, fmt.Errorf("version %d is not older than current bad version %d", versionNum, s.BadVersion)
		}
		s.recordVerdict(versionNum, verdict)
		s.BadVersion = versionNum
	case VerdictSkip:
		// Recorded but never narrows the bounds.
		s.recordVerdict(versionNum, verdict)
	default:
		return nil, fmt.Errorf("unknown verdict %q", verdict)
	}

	if s.GoodVersion != 0 && s.BadVersion != 0 && s.BadVersion == s.GoodVersion+1 {
		s.State = StateCompleted
		s.FirstBadVersion = s.BadVersion
		s.CompletedAt = time.Now().Format(time.RFC3339)
		s.CurrentVersion = 0
		if err := m.store.Save(s); err != nil {
			return nil, err
		}
		return s, nil
	}

	s.CurrentVersion = pickNext(s, allVersions)
	if err := m.store.Save(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset discards the current session, if any.
func (m *Manager) Reset() error {
	return m.store.Clear()
}

// pickNext selects the next candidate by binary search between the bounds.
// It keeps working index bounds [low, high] over the ordered version list,
// takes the midpoint, and when the midpoint was already tested nudges the
// matching bound past it: a prior good moves low up, a prior bad moves
// high down, a skip moves low up. Returns 0 when no candidate exists —
// either a bound is still missing or the bounds are adjacent.
func pickNext(s *Session, allVersions []int) int {
	if s.GoodVersion == 0 || s.BadVersion == 0 {
		return 0
	}

	low := indexOf(allVersions, s.GoodVersion)
	high := indexOf(allVersions, s.BadVersion)
	if low < 0 || high < 0 {
		return 0
	}

	for high-low > 1 {
		mid := (low + high) / 2
		candidate := allVersions[mid]

		verdict, tested := s.verdictFor(candidate)
		if !tested {
			return candidate
		}
		switch verdict {
		case VerdictBad:
			high = mid
		default: // good or skip moves toward the bad side
			low = mid
		}
	}
	return 0
}

func containsVersion(versions []int, n int) bool {
	return indexOf(versions, n) >= 0
}

func indexOf(versions []int, n int) int {
	for i, v := range versions {
		if v == n {
			return i
		}
	}
	return -1
}
