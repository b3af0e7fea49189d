package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kingrea/techfest/internal/config"
	"github.com/kingrea/techfest/internal/registration"
)

// IdempotencyHeader carries the payload id so the intake service can dedupe retries.
const IdempotencyHeader = "Idempotency-Key"

const maxResponseBytes = 64 << 10

// Logger matches logging.Logger.
type Logger interface {
	Printf(format string, args ...any)
}

// RejectedError is returned when the intake service refuses a payload.
type RejectedError struct {
	StatusCode int
	Message    string
	Missing    []string
}

func (e *RejectedError) Error() string {
	msg := fmt.Sprintf("submission rejected (%d)", e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if len(e.Missing) > 0 {
		msg += fmt.Sprintf(" [missing: %s]", strings.Join(e.Missing, ", "))
	}
	return msg
}

// HTTPOption customizes an HTTPSubmitter.
type HTTPOption func(*HTTPSubmitter)

// WithHTTPClient swaps the underlying client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSubmitter) {
		if client != nil {
			s.client = client
		}
	}
}

// WithClock allows tests to control submitted_at.
func WithClock(clock func() time.Time) HTTPOption {
	return func(s *HTTPSubmitter) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// HTTPSubmitter posts payloads to the intake service.
type HTTPSubmitter struct {
	endpoint string
	client   *http.Client
	clock    func() time.Time
}

// NewHTTPSubmitter targets endpoint with the given request timeout.
func NewHTTPSubmitter(endpoint string, timeout time.Duration, opts ...HTTPOption) *HTTPSubmitter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s := &HTTPSubmitter{
		endpoint: strings.TrimSpace(endpoint),
		client:   &http.Client{Timeout: timeout},
		clock:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Submit implements registration.Submitter.
func (s *HTTPSubmitter) Submit(ctx context.Context, form registration.Form) (registration.Ack, error) {
	if s.endpoint == "" {
		return registration.Ack{}, errors.New("submission: endpoint is not configured")
	}
	payload := NewPayload(form, s.clock())
	body, err := json.Marshal(payload)
	if err != nil {
		return registration.Ack{}, fmt.Errorf("submission: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return registration.Ack{}, fmt.Errorf("submission: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(IdempotencyHeader, payload.ID)

	resp, err := s.client.Do(req)
	if err != nil {
		return registration.Ack{}, fmt.Errorf("submission: post %s: %w", s.endpoint, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return registration.Ack{}, fmt.Errorf("submission: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rejected := &RejectedError{StatusCode: resp.StatusCode}
		var envelope ErrorResponse
		if err := json.Unmarshal(raw, &envelope); err == nil {
			rejected.Message = envelope.Error
			rejected.Missing = envelope.Missing
		} else {
			rejected.Message = strings.TrimSpace(string(raw))
		}
		return registration.Ack{}, rejected
	}
	var ack AckResponse
	if err := json.Unmarshal(raw, &ack); err != nil {
		return registration.Ack{}, fmt.Errorf("submission: decode ack: %w", err)
	}
	if ack.ID == "" {
		ack.ID = payload.ID
	}
	return registration.Ack{ID: ack.ID, ReceivedAt: ack.ReceivedAt, Message: ack.Message}, nil
}

// LogSubmitter acknowledges every registration after writing it to the log.
type LogSubmitter struct {
	logger Logger
	clock  func() time.Time
}

// NewLogSubmitter records payloads through logger.
func NewLogSubmitter(logger Logger) *LogSubmitter {
	return &LogSubmitter{logger: logger, clock: func() time.Time { return time.Now().UTC() }}
}

// Submit implements registration.Submitter.
func (s *LogSubmitter) Submit(ctx context.Context, form registration.Form) (registration.Ack, error) {
	if err := ctx.Err(); err != nil {
		return registration.Ack{}, err
	}
	now := s.clock()
	payload := NewPayload(form, now)
	data, err := json.Marshal(payload)
	if err != nil {
		return registration.Ack{}, fmt.Errorf("submission: encode payload: %w", err)
	}
	if s.logger != nil {
		s.logger.Printf("registration submitted (dry run): %s", data)
	}
	return registration.Ack{ID: payload.ID, ReceivedAt: now, Message: "recorded locally"}, nil
}

// New picks the collaborator configured for this project.
func New(cfg *config.Config, logger Logger) (registration.Submitter, error) {
	if cfg == nil {
		return nil, errors.New("submission: config is required")
	}
	sub := cfg.Project.Submission
	switch sub.Mode {
	case config.SubmissionModeHTTP:
		return NewHTTPSubmitter(sub.Endpoint, sub.Timeout), nil
	case config.SubmissionModeLog:
		return NewLogSubmitter(logger), nil
	default:
		return nil, fmt.Errorf("submission: unknown mode %q", sub.Mode)
	}
}
