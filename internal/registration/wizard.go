package registration

import (
	"context"
	"errors"
)

// State is the externally visible wizard state.
type State int

const (
	StateStep1 State = iota + 1
	StateStep2
	StateStep3
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateStep1:
		return "step1"
	case StateStep2:
		return "step2"
	case StateStep3:
		return "step3"
	case StateSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Status tracks the submission lifecycle on top of the step.
type Status int

const (
	StatusEditing Status = iota
	StatusPending
	StatusFailed
	StatusSubmitted
)

func (s Status) String() string {
	switch s {
	case StatusEditing:
		return "editing"
	case StatusPending:
		return "pending"
	case StatusFailed:
		return "failed"
	case StatusSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Option customizes Wizard construction.
type Option func(*Wizard)

// WithProfile selects the flow variant.
func WithProfile(p Profile) Option {
	return func(w *Wizard) {
		w.profile = p
	}
}

// WithResetPolicy sets the post-submission behaviour.
func WithResetPolicy(p ResetPolicy) Option {
	return func(w *Wizard) {
		w.reset = p
	}
}

// WithSubmitter injects the submission collaborator.
func WithSubmitter(s Submitter) Option {
	return func(w *Wizard) {
		if s != nil {
			w.submitter = s
		}
	}
}

// Wizard is the registration controller. It owns the step index, the form
// and the submission status.
type Wizard struct {
	catalog   Catalog
	profile   Profile
	reset     ResetPolicy
	submitter Submitter

	step    Step
	form    Form
	status  Status
	ack     Ack
	lastErr error
}

// New creates a wizard at step 1 with an empty form.
func New(catalog Catalog, opts ...Option) *Wizard {
	w := &Wizard{
		catalog: catalog,
		profile: DefaultProfile(),
		step:    Step1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Catalog returns the event catalog the wizard validates against.
func (w *Wizard) Catalog() Catalog { return w.catalog }

// Profile returns the active flow variant.
func (w *Wizard) Profile() Profile { return w.profile }

// ResetPolicy returns the post-submission policy.
func (w *Wizard) ResetPolicy() ResetPolicy { return w.reset }

// Step returns the current step; it stays at Step3 after submission.
func (w *Wizard) Step() Step { return w.step }

// Status returns the submission status.
func (w *Wizard) Status() Status { return w.status }

// State folds step and status into the four-state view.
func (w *Wizard) State() State {
	if w.status == StatusSubmitted {
		return StateSubmitted
	}
	return State(w.step)
}

// Form returns a snapshot of the aggregate.
func (w *Wizard) Form() Form { return w.form.Clone() }

// Ack returns the receipt of the last successful submission.
func (w *Wizard) Ack() Ack { return w.ack }

// Err returns the last submission failure, if any.
func (w *Wizard) Err() error { return w.lastErr }

// Valid evaluates the predicate for step s against the current form.
func (w *Wizard) Valid(s Step) bool {
	return ValidateStep(w.form, s, w.profile)
}

// Missing lists the keys still required on step s.
func (w *Wizard) Missing(s Step) []string {
	return missingForStep(w.form, s, w.profile, &w.catalog)
}

// CanAdvance reports whether Advance would move forward.
func (w *Wizard) CanAdvance() bool {
	return w.editable() && w.step < Step3 && w.Valid(w.step)
}

// CanSubmit reports whether the submit guard holds.
func (w *Wizard) CanSubmit() bool {
	if !w.editable() || w.step != Step3 {
		return false
	}
	return ValidateAll(w.form, w.profile)
}

// Advance moves to the next step when the current one is valid.
func (w *Wizard) Advance() bool {
	if !w.CanAdvance() {
		return false
	}
	w.step++
	return true
}

// Retreat moves one step back; it is a no-op on step 1.
func (w *Wizard) Retreat() bool {
	if !w.editable() || w.step <= Step1 {
		return false
	}
	w.step--
	return true
}

// JumpTo revisits an earlier step. Forward jumps are never permitted.
func (w *Wizard) JumpTo(s Step) bool {
	if !w.editable() || !s.Valid() || s >= w.step {
		return false
	}
	w.step = s
	return true
}

// SetField updates one scalar field.
func (w *Wizard) SetField(f Field, value string) error {
	if err := w.guardEdit(); err != nil {
		return err
	}
	if !f.Valid() {
		return ErrUnknownField
	}
	w.form.set(f, value)
	w.clearFailure()
	return nil
}

// ToggleEvent adds id to the selection, or removes it if already present.
func (w *Wizard) ToggleEvent(id EventID) error {
	if err := w.guardEdit(); err != nil {
		return err
	}
	if !w.catalog.Contains(id) {
		return ErrUnknownEvent
	}
	w.form.toggle(id)
	w.clearFailure()
	return nil
}

// Checkout runs the submit guard and, if it holds, marks the wizard pending
// and returns the snapshot to hand to the collaborator.
func (w *Wizard) Checkout() (Form, error) {
	if !w.CanSubmit() {
		return Form{}, ErrNotSubmittable
	}
	w.status = StatusPending
	w.lastErr = nil
	return w.form.Clone(), nil
}

// Complete finalizes a submission started with Checkout. A nil err moves the
// wizard to Submitted; otherwise it returns to step 3 with the form intact.
func (w *Wizard) Complete(ack Ack, err error) error {
	if w.status != StatusPending {
		return ErrNotPending
	}
	if err != nil {
		var subErr *SubmissionError
		if !errors.As(err, &subErr) {
			err = &SubmissionError{Err: err}
		}
		w.status = StatusFailed
		w.lastErr = err
		return err
	}
	w.status = StatusSubmitted
	w.ack = ack
	w.lastErr = nil
	return nil
}

// Submit hands the form to the configured Submitter exactly once when the
// guard holds.
func (w *Wizard) Submit(ctx context.Context) (Ack, error) {
	if w.submitter == nil {
		return Ack{}, errors.New("registration: no submitter configured")
	}
	form, err := w.Checkout()
	if err != nil {
		return Ack{}, err
	}
	ack, subErr := w.submitter.Submit(ctx, form)
	if err := w.Complete(ack, subErr); err != nil {
		return Ack{}, err
	}
	return ack, nil
}

// Reset discards the aggregate and returns to step 1.
func (w *Wizard) Reset() {
	w.step = Step1
	w.form = Form{}
	w.status = StatusEditing
	w.ack = Ack{}
	w.lastErr = nil
}

func (w *Wizard) editable() bool {
	return w.status == StatusEditing || w.status == StatusFailed
}

func (w *Wizard) guardEdit() error {
	switch w.status {
	case StatusPending:
		return ErrPending
	case StatusSubmitted:
		return ErrSubmitted
	}
	return nil
}

func (w *Wizard) clearFailure() {
	if w.status == StatusFailed {
		w.status = StatusEditing
	}
}
