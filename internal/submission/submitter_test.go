package submission

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/techfest/internal/config"
	"github.com/kingrea/techfest/internal/registration"
)

func sampleForm() registration.Form {
	return registration.Form{
		FullName:    " Ada Lovelace ",
		Email:       "ada@example.com",
		Phone:       "555-0100",
		College:     "Analytical College",
		Branch:      "CSE",
		Year:        "2nd",
		TeamName:    "Engines",
		MemberCount: "2",
		Events:      []registration.EventID{"dsa", "Cipher"},
	}
}

func TestNewPayloadNormalizesAndFingerprints(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := NewPayload(sampleForm(), at)
	if first.FullName != "Ada Lovelace" {
		t.Fatalf("full name not trimmed: %q", first.FullName)
	}
	if got := strings.Join(first.Events, ","); got != "dsa,cipher" {
		t.Fatalf("events not normalized: %s", got)
	}
	second := NewPayload(sampleForm(), at.Add(time.Hour))
	if first.ID == "" || first.ID != second.ID {
		t.Fatalf("same answers should share an id: %q vs %q", first.ID, second.ID)
	}
	changed := sampleForm()
	changed.TeamName = "Looms"
	if NewPayload(changed, at).ID == first.ID {
		t.Fatalf("different answers must not share an id")
	}
	form := first.Form()
	if form.FullName != "Ada Lovelace" || len(form.Events) != 2 || form.Events[1] != "cipher" {
		t.Fatalf("payload did not convert back: %+v", form)
	}
}

func TestPayloadSameAnswersIgnoresIDAndTime(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := NewPayload(sampleForm(), at)
	later := NewPayload(sampleForm(), at.Add(time.Hour))
	later.ID = "resent"
	if !first.SameAnswers(later) {
		t.Fatalf("payloads with the same answers should match")
	}
	other := first
	other.Events = []string{"dsa"}
	if first.SameAnswers(other) {
		t.Fatalf("payloads with different events must not match")
	}
	if strings.Join(first.Events, ",") != "dsa,cipher" {
		t.Fatalf("comparison mutated events: %v", first.Events)
	}
}

func TestHTTPSubmitterPostsPayload(t *testing.T) {
	var gotKey string
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		gotKey = r.Header.Get(IdempotencyHeader)
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(AckResponse{ID: got.ID, Status: "accepted", Message: "see you there"})
	}))
	defer srv.Close()

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sub := NewHTTPSubmitter(srv.URL, time.Second, WithClock(func() time.Time { return at }))
	ack, err := sub.Submit(context.Background(), sampleForm())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if gotKey == "" || gotKey != got.ID {
		t.Fatalf("idempotency key %q does not match payload id %q", gotKey, got.ID)
	}
	if !got.SubmittedAt.Equal(at) {
		t.Fatalf("submitted_at = %s, want %s", got.SubmittedAt, at)
	}
	if ack.ID != got.ID || ack.Message != "see you there" {
		t.Fatalf("unexpected ack %+v", ack)
	}
}

func TestHTTPSubmitterReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "registration incomplete", Missing: []string{"team_name"}})
	}))
	defer srv.Close()

	_, err := NewHTTPSubmitter(srv.URL, time.Second).Submit(context.Background(), sampleForm())
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
	if rejected.StatusCode != http.StatusUnprocessableEntity || len(rejected.Missing) != 1 {
		t.Fatalf("unexpected rejection %+v", rejected)
	}
	if !strings.Contains(err.Error(), "team_name") {
		t.Fatalf("error should mention the missing field: %v", err)
	}
}

func TestHTTPSubmitterFailureKeepsWizardForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	wiz := registration.New(registration.DefaultCatalog(),
		registration.WithSubmitter(NewHTTPSubmitter(srv.URL, time.Second)))
	form := sampleForm()
	for _, f := range []registration.Field{
		registration.FieldFullName, registration.FieldEmail, registration.FieldPhone,
		registration.FieldCollege, registration.FieldBranch, registration.FieldYear,
		registration.FieldTeamName, registration.FieldMemberCount,
	} {
		if err := wiz.SetField(f, form.Get(f)); err != nil {
			t.Fatalf("set %s: %v", f, err)
		}
	}
	wiz.Advance()
	wiz.Advance()
	if err := wiz.ToggleEvent("dsa"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	_, err := wiz.Submit(context.Background())
	var subErr *registration.SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
	var rejected *RejectedError
	if !errors.As(err, &rejected) || rejected.Message != "down for maintenance" {
		t.Fatalf("plain-text body not carried: %v", err)
	}
	if wiz.Step() != registration.Step3 || wiz.Status() != registration.StatusFailed {
		t.Fatalf("wizard should stay on step 3 after failure, got %d/%s", wiz.Step(), wiz.Status())
	}
	if wiz.Form().TeamName != "Engines" {
		t.Fatalf("form lost after failure")
	}
}

type recordingLogger struct{ lines []string }

func (r *recordingLogger) Printf(format string, args ...any) {
	r.lines = append(r.lines, format)
}

func TestNewSelectsByMode(t *testing.T) {
	cfg := &config.Config{}
	cfg.Project.Submission = config.SubmissionConfig{Mode: config.SubmissionModeLog}
	logger := &recordingLogger{}
	sub, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := sub.(*LogSubmitter); !ok {
		t.Fatalf("log mode returned %T", sub)
	}
	ack, err := sub.Submit(context.Background(), sampleForm())
	if err != nil || ack.ID == "" {
		t.Fatalf("log submit: ack=%+v err=%v", ack, err)
	}
	if len(logger.lines) != 1 {
		t.Fatalf("expected payload to be logged once, got %d", len(logger.lines))
	}

	cfg.Project.Submission = config.SubmissionConfig{Mode: config.SubmissionModeHTTP, Endpoint: "http://127.0.0.1:1/registrations", Timeout: time.Second}
	sub, err = New(cfg, logger)
	if err != nil {
		t.Fatalf("new http: %v", err)
	}
	if _, ok := sub.(*HTTPSubmitter); !ok {
		t.Fatalf("http mode returned %T", sub)
	}

	cfg.Project.Submission.Mode = "fax"
	if _, err := New(cfg, logger); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
