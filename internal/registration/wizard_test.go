package registration

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fillStep1(t *testing.T, w *Wizard) {
	t.Helper()
	mustSet(t, w, FieldFullName, "Team Neon")
	mustSet(t, w, FieldEmail, "a@b.com")
	mustSet(t, w, FieldPhone, "123")
}

func fillStep2(t *testing.T, w *Wizard) {
	t.Helper()
	mustSet(t, w, FieldCollege, "X College")
	mustSet(t, w, FieldBranch, "CS")
	mustSet(t, w, FieldYear, "2nd")
}

func fillStep3(t *testing.T, w *Wizard) {
	t.Helper()
	mustSet(t, w, FieldTeamName, "Neon")
	mustSet(t, w, FieldMemberCount, "4")
}

func mustSet(t *testing.T, w *Wizard, f Field, value string) {
	t.Helper()
	if err := w.SetField(f, value); err != nil {
		t.Fatalf("set %s: %v", f, err)
	}
}

func TestStep1ValidityTracksFields(t *testing.T) {
	w := New(DefaultCatalog())
	if w.Valid(Step1) {
		t.Fatalf("empty form must not satisfy step 1")
	}
	fillStep1(t, w)
	if !w.Valid(Step1) {
		t.Fatalf("filled step 1 should be valid, missing %v", w.Missing(Step1))
	}
	for _, field := range []Field{FieldFullName, FieldEmail, FieldPhone} {
		prev := w.Form().Get(field)
		mustSet(t, w, field, "")
		if w.Valid(Step1) {
			t.Fatalf("clearing %s should invalidate step 1", field)
		}
		mustSet(t, w, field, prev)
	}
}

func TestStep2RejectsPlaceholderChoice(t *testing.T) {
	w := New(DefaultCatalog())
	mustSet(t, w, FieldCollege, "X College")
	mustSet(t, w, FieldBranch, "CS")
	mustSet(t, w, FieldYear, "")
	if w.Valid(Step2) {
		t.Fatalf("placeholder year must not satisfy step 2")
	}
	mustSet(t, w, FieldYear, "5th")
	if w.Valid(Step2) {
		t.Fatalf("out-of-range year must not satisfy step 2")
	}
	mustSet(t, w, FieldYear, "4th")
	if !w.Valid(Step2) {
		t.Fatalf("expected step 2 valid, missing %v", w.Missing(Step2))
	}
}

func TestExperienceProfileUsesExperienceField(t *testing.T) {
	w := New(DefaultCatalog(), WithProfile(Profile{Classification: ClassifyByExperience}))
	mustSet(t, w, FieldCollege, "X College")
	mustSet(t, w, FieldBranch, "CS")
	mustSet(t, w, FieldYear, "2nd")
	if w.Valid(Step2) {
		t.Fatalf("year should not satisfy the experience profile")
	}
	mustSet(t, w, FieldExperience, "advanced")
	if !w.Valid(Step2) {
		t.Fatalf("expected step 2 valid, missing %v", w.Missing(Step2))
	}
	if err := w.ToggleEvent("cipher"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !w.Valid(Step3) {
		t.Fatalf("step 3 without team fields should only need events, missing %v", w.Missing(Step3))
	}
}

func TestAdvanceBlockedWhenStepInvalid(t *testing.T) {
	w := New(DefaultCatalog())
	if w.Advance() {
		t.Fatalf("advance must be rejected on an empty form")
	}
	if w.Step() != Step1 {
		t.Fatalf("step = %d, want 1", w.Step())
	}
	fillStep1(t, w)
	if !w.Advance() || w.Step() != Step2 {
		t.Fatalf("expected step 2 after valid advance, got %d", w.Step())
	}
	if w.Advance() {
		t.Fatalf("advance from an invalid step 2 must be rejected")
	}
	fillStep2(t, w)
	if !w.Advance() || w.Step() != Step3 {
		t.Fatalf("expected step 3, got %d", w.Step())
	}
	fillStep3(t, w)
	if err := w.ToggleEvent("dsa"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if w.Advance() {
		t.Fatalf("advance beyond step 3 must be rejected")
	}
}

func TestRetreatIgnoresValidity(t *testing.T) {
	w := New(DefaultCatalog())
	if w.Retreat() {
		t.Fatalf("retreat at step 1 must be a no-op")
	}
	fillStep1(t, w)
	w.Advance()
	fillStep2(t, w)
	w.Advance()
	mustSet(t, w, FieldFullName, "")
	if !w.Retreat() || w.Step() != Step2 {
		t.Fatalf("retreat from step 3 should land on 2, got %d", w.Step())
	}
	if !w.Retreat() || w.Step() != Step1 {
		t.Fatalf("retreat from step 2 should land on 1, got %d", w.Step())
	}
	if w.Retreat() || w.Step() != Step1 {
		t.Fatalf("step must not drop below 1, got %d", w.Step())
	}
}

func TestJumpToOnlyGoesBack(t *testing.T) {
	w := New(DefaultCatalog())
	fillStep1(t, w)
	fillStep2(t, w)
	w.Advance()
	w.Advance()
	if w.JumpTo(Step3) {
		t.Fatalf("jump to the current step must be rejected")
	}
	if !w.JumpTo(Step1) || w.Step() != Step1 {
		t.Fatalf("jump back to step 1 failed, at %d", w.Step())
	}
	if w.JumpTo(Step2) {
		t.Fatalf("forward jump must be rejected")
	}
	if w.JumpTo(Step(0)) {
		t.Fatalf("out of range jump must be rejected")
	}
}

func TestToggleEventRoundTrip(t *testing.T) {
	w := New(DefaultCatalog())
	if err := w.ToggleEvent("cipher"); err != nil {
		t.Fatalf("toggle cipher: %v", err)
	}
	before := w.Form().Events
	for i := 0; i < 2; i++ {
		if err := w.ToggleEvent("dsa"); err != nil {
			t.Fatalf("toggle dsa: %v", err)
		}
	}
	after := w.Form().Events
	if len(after) != len(before) || after[0] != before[0] {
		t.Fatalf("double toggle changed selection: %v -> %v", before, after)
	}
}

func TestToggleUnknownEventLeavesFormUntouched(t *testing.T) {
	w := New(DefaultCatalog())
	if err := w.ToggleEvent("hackathon"); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
	if len(w.Form().Events) != 0 {
		t.Fatalf("unknown event leaked into selection: %v", w.Form().Events)
	}
	if err := w.SetField(Field(99), "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestSubmitRequiresEventsAndStep3(t *testing.T) {
	calls := 0
	submitter := SubmitterFunc(func(context.Context, Form) (Ack, error) {
		calls++
		return Ack{ID: "ok"}, nil
	})
	w := New(DefaultCatalog(), WithSubmitter(submitter))
	fillStep1(t, w)
	fillStep2(t, w)
	fillStep3(t, w)
	if _, err := w.Submit(context.Background()); !errors.Is(err, ErrNotSubmittable) {
		t.Fatalf("submit from step 1 should be rejected, got %v", err)
	}
	w.Advance()
	w.Advance()
	if _, err := w.Submit(context.Background()); !errors.Is(err, ErrNotSubmittable) {
		t.Fatalf("submit without events should be rejected, got %v", err)
	}
	if w.State() != StateStep3 {
		t.Fatalf("rejected submit changed state to %s", w.State())
	}
	if err := w.ToggleEvent("cipher"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, err := w.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if w.State() != StateSubmitted {
		t.Fatalf("state = %s, want submitted", w.State())
	}
	if calls != 1 {
		t.Fatalf("collaborator called %d times, want 1", calls)
	}
}

func TestSubmissionFailureKeepsForm(t *testing.T) {
	boom := errors.New("endpoint down")
	w := New(DefaultCatalog(), WithSubmitter(SubmitterFunc(func(context.Context, Form) (Ack, error) {
		return Ack{}, boom
	})))
	fillStep1(t, w)
	fillStep2(t, w)
	w.Advance()
	w.Advance()
	fillStep3(t, w)
	_ = w.ToggleEvent("ethitech")
	_, err := w.Submit(context.Background())
	var subErr *SubmissionError
	if !errors.As(err, &subErr) || !errors.Is(err, boom) {
		t.Fatalf("expected SubmissionError wrapping cause, got %v", err)
	}
	if w.State() != StateStep3 || w.Status() != StatusFailed {
		t.Fatalf("failure should stay on step 3, state=%s status=%s", w.State(), w.Status())
	}
	if got := w.Form().TeamName; got != "Neon" {
		t.Fatalf("form lost data after failure: %q", got)
	}
	if !w.CanSubmit() {
		t.Fatalf("retry should be permitted after failure")
	}
}

func TestCheckoutBlocksEditsUntilComplete(t *testing.T) {
	w := New(DefaultCatalog())
	fillStep1(t, w)
	fillStep2(t, w)
	w.Advance()
	w.Advance()
	fillStep3(t, w)
	_ = w.ToggleEvent("dsa")
	snapshot, err := w.Checkout()
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if err := w.SetField(FieldTeamName, "Other"); !errors.Is(err, ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}
	if w.Retreat() {
		t.Fatalf("retreat must be blocked while pending")
	}
	if _, err := w.Checkout(); !errors.Is(err, ErrNotSubmittable) {
		t.Fatalf("second checkout should be rejected, got %v", err)
	}
	snapshot.TeamName = "mutated"
	if w.Form().TeamName != "Neon" {
		t.Fatalf("snapshot aliases the aggregate")
	}
	if err := w.Complete(Ack{ID: "r-1"}, nil); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := w.SetField(FieldTeamName, "Other"); !errors.Is(err, ErrSubmitted) {
		t.Fatalf("expected ErrSubmitted, got %v", err)
	}
	if err := w.Complete(Ack{}, nil); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
	w.Reset()
	if w.State() != StateStep1 || w.Form().FullName != "" || len(w.Form().Events) != 0 {
		t.Fatalf("reset should clear the aggregate, got %+v", w.Form())
	}
}

func TestEndToEndRegistration(t *testing.T) {
	var received []Form
	w := New(DefaultCatalog(), WithSubmitter(SubmitterFunc(func(_ context.Context, form Form) (Ack, error) {
		received = append(received, form)
		return Ack{ID: "reg-1"}, nil
	})))
	fillStep1(t, w)
	if !w.Advance() || w.State() != StateStep2 {
		t.Fatalf("expected step 2, got %s", w.State())
	}
	fillStep2(t, w)
	if !w.Advance() || w.State() != StateStep3 {
		t.Fatalf("expected step 3, got %s", w.State())
	}
	fillStep3(t, w)
	if err := w.ToggleEvent("dsa"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	ack, err := w.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ack.ID != "reg-1" || w.Ack().ID != "reg-1" {
		t.Fatalf("ack not recorded: %+v", ack)
	}
	if len(received) != 1 {
		t.Fatalf("collaborator received %d forms, want 1", len(received))
	}
	want := Form{
		FullName: "Team Neon", Email: "a@b.com", Phone: "123",
		College: "X College", Branch: "CS", Year: "2nd",
		TeamName: "Neon", MemberCount: "4",
	}
	got := received[0]
	for _, field := range []Field{FieldFullName, FieldEmail, FieldPhone, FieldCollege, FieldBranch, FieldYear, FieldTeamName, FieldMemberCount} {
		if got.Get(field) != want.Get(field) {
			t.Fatalf("%s = %q, want %q", field, got.Get(field), want.Get(field))
		}
	}
	if len(got.Events) != 1 || got.Events[0] != "dsa" {
		t.Fatalf("events = %v, want [dsa]", got.Events)
	}
}

func TestResetPolicyWaitFallsBackToDefault(t *testing.T) {
	if got := (ResetPolicy{Auto: true}).Wait(); got != DefaultResetDelay {
		t.Fatalf("zero delay should wait %s, got %s", DefaultResetDelay, got)
	}
	if got := (ResetPolicy{Auto: true, Delay: 5 * time.Second}).Wait(); got != 5*time.Second {
		t.Fatalf("explicit delay ignored, got %s", got)
	}
}
