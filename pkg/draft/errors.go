package draft

import (
	"errors"
	"fmt"
)

var (
	// ErrSubmitInFlight is returned when Submit is called while another submit
	// of the same draft has not finished.
	ErrSubmitInFlight = errors.New("workflow submit already in progress")
	// ErrDraftClosed is returned when Submit is called on a discarded draft.
	ErrDraftClosed = errors.New("workflow draft is closed")
)

// SubmitFailedMessage is the single message shown to users when a submit fails.
const SubmitFailedMessage = "Failed to create workflow."

// SubmitError reports a failed submit. The draft is left as it was so the
// user can retry. Err is the transport or server error returned by the sender.
type SubmitError struct {
	Path string
	Err  error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit workflow to %s: %v", e.Path, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// UserMessage is the generic text the editing surface displays.
func (*SubmitError) UserMessage() string {
	return SubmitFailedMessage
}

// IsSubmitError checks if an error is a failed submit.
func IsSubmitError(err error) bool {
	var se *SubmitError

	return errors.As(err, &se)
}
