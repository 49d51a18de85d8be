package domain

import "fmt"

type Status string

const (
	Pending    Status = "pending"
	Processing Status = "processing"
	Ready      Status = "ready"
	Failed     Status = "failed"
)

// CanTransition encodes the monotonic lifecycle: pending -> processing ->
// ready|failed. Terminal states have no way out.
func CanTransition(from, to Status) bool {
	switch from {
	case Pending:
		return to == Processing
	case Processing:
		return to == Ready || to == Failed
	case Ready:
		return false
	case Failed:
		// A failed record may be claimed again for a fresh attempt.
		return to == Processing
	default:
		return false
	}
}

func ValidateTransition(from, to Status) error {
	if from == to {
		return nil
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid transition: %s -> %s", from, to)
	}
	return nil
}
