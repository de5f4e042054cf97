package progression

// Status is a derived stage state. Completed is terminal: once persisted it
// is never recomputed away, whatever the current metrics say.
type Status string

const (
	StatusLocked     Status = "locked"
	StatusAvailable  Status = "available"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

const (
	// Partial-credit share of requirement rules that moves a stage from
	// available to in_progress.
	inProgressPartialThreshold = 0.4
	// XP share that does the same.
	inProgressXPThreshold = 0.5
)

// StageInputs is everything the state machine needs for one stage. It is
// assembled fresh on every request; only completion is ever persisted.
type StageInputs struct {
	// Persisted completion wins over everything else.
	AlreadyCompleted bool

	Requirements Outcome

	XPCurrent int
	XPTotal   int

	// Previous stage completed (or this is the first stage).
	PrevCompleted bool
	First         bool
}

// Derive returns the stage's status plus whether the caller must run the
// finalize action (first observation of a completion condition). Finalize
// must be a set-once write; racing observers are harmless.
func Derive(in StageInputs) (Status, bool) {
	if in.AlreadyCompleted {
		return StatusCompleted, false
	}

	if in.Requirements.Met || xpMaxed(in.XPCurrent, in.XPTotal) {
		return StatusCompleted, true
	}

	if in.Requirements.Partial >= inProgressPartialThreshold || xpRatio(in.XPCurrent, in.XPTotal) >= inProgressXPThreshold {
		return StatusInProgress, false
	}

	if in.First || in.PrevCompleted {
		return StatusAvailable, false
	}

	return StatusLocked, false
}

func xpMaxed(current, total int) bool {
	return total > 0 && current >= total
}

func xpRatio(current, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(current) / float64(total)
}

// UnlockedUpToIndex is the highest index holding a completed stage, found by
// scanning from the last stage backward. -1 when nothing is completed.
func UnlockedUpToIndex(statuses []Status) int {
	for i := len(statuses) - 1; i >= 0; i-- {
		if statuses[i] == StatusCompleted {
			return i
		}
	}
	return -1
}

// ActiveStageIndex is the first non-completed stage, or nil when the whole
// journey is done.
func ActiveStageIndex(statuses []Status) *int {
	for i, s := range statuses {
		if s != StatusCompleted {
			idx := i
			return &idx
		}
	}
	return nil
}
