package mediaupload

import (
	"errors"
	"fmt"
	"sync"
)

// State is the client side view of an upload transfer.
type State int

const (
	StateIdle State = iota
	StateSessionOpen
	StateUploading
	StateAllPartsAcked
	StateComplete
	StateFailed
)

var (
	// ErrInvalidTransition is returned for a transition the transfer lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid transfer state transition")
	// ErrTransferFinished is returned when a completed or failed transfer is driven further.
	ErrTransferFinished = errors.New("transfer already finished")
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSessionOpen:
		return "session-open"
	case StateUploading:
		return "uploading"
	case StateAllPartsAcked:
		return "all-parts-acked"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

var transitions = map[State][]State{
	StateIdle:          {StateSessionOpen, StateFailed},
	StateSessionOpen:   {StateUploading, StateAllPartsAcked, StateFailed},
	StateUploading:     {StateUploading, StateAllPartsAcked, StateFailed},
	StateAllPartsAcked: {StateComplete, StateFailed},
}

// Transfer tracks the state of one upload.
type Transfer struct {
	mu    sync.Mutex
	state State
}

// NewTransfer returns a transfer in StateIdle.
func NewTransfer() *Transfer {
	return &Transfer{state: StateIdle}
}

// State ...
func (t *Transfer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// MoveTo switches the transfer to next if the lifecycle allows it.
func (t *Transfer) MoveTo(next State) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Terminal() {
		return fmt.Errorf("%s -> %s: %w", t.state, next, ErrTransferFinished)
	}
	for _, allowed := range transitions[t.state] {
		if allowed == next {
			t.state = next
			return nil
		}
	}
	return fmt.Errorf("%s -> %s: %w", t.state, next, ErrInvalidTransition)
}

// Fail moves a transfer that is still running to StateFailed.
func (t *Transfer) Fail() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.state.Terminal() {
		t.state = StateFailed
	}
}
