package registration

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotSubmittable is returned when Submit or Checkout is attempted
	// outside step 3 or with an incomplete form.
	ErrNotSubmittable = errors.New("registration: form is not ready for submission")
	// ErrUnknownField rejects updates to a field the form does not declare.
	ErrUnknownField = errors.New("registration: unknown field")
	// ErrUnknownEvent rejects toggles for ids outside the catalog.
	ErrUnknownEvent = errors.New("registration: unknown event")
	// ErrSubmitted rejects edits once the form has been handed off.
	ErrSubmitted = errors.New("registration: form already submitted")
	// ErrPending rejects edits while a submission is in flight.
	ErrPending = errors.New("registration: submission in progress")
	// ErrNotPending is returned by Complete without a preceding Checkout.
	ErrNotPending = errors.New("registration: no submission in progress")
)

// Ack is the collaborator's receipt for an accepted registration.
type Ack struct {
	ID         string
	ReceivedAt time.Time
	Message    string
}

// Submitter hands a completed form to whatever accepts registrations.
type Submitter interface {
	Submit(ctx context.Context, form Form) (Ack, error)
}

// SubmitterFunc adapts a function into a Submitter.
type SubmitterFunc func(ctx context.Context, form Form) (Ack, error)

// Submit executes f(ctx, form).
func (f SubmitterFunc) Submit(ctx context.Context, form Form) (Ack, error) {
	if f == nil {
		return Ack{}, errors.New("registration: nil submitter")
	}
	return f(ctx, form)
}

// SubmissionError reports a collaborator failure. The wizard keeps the form
// so the user may retry.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	if e == nil || e.Err == nil {
		return "registration: submission failed"
	}
	return fmt.Sprintf("registration: submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ResetPolicy decides what happens after a successful submission. With Auto
// set, hosts call Reset once Delay has elapsed; otherwise the confirmation
// stays until the user starts over.
type ResetPolicy struct {
	Auto  bool
	Delay time.Duration
}

// DefaultResetDelay matches the confirmation display time of the site.
const DefaultResetDelay = 3 * time.Second

// Wait is how long the confirmation stays before an automatic reset.
func (p ResetPolicy) Wait() time.Duration {
	if p.Delay <= 0 {
		return DefaultResetDelay
	}
	return p.Delay
}
