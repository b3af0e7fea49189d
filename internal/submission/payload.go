// Package submission serializes completed registrations and delivers them to
// the intake service (or to the local log in dry-run mode).
package submission

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/techfest/internal/registration"
)

// SchemaVersion identifies the payload layout accepted by the intake service.
const SchemaVersion = 1

// Payload is the wire form of a registration.
type Payload struct {
	Version     int       `json:"version"`
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submitted_at"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	College     string    `json:"college"`
	Branch      string    `json:"branch"`
	Year        string    `json:"year,omitempty"`
	Experience  string    `json:"experience,omitempty"`
	TeamName    string    `json:"team_name,omitempty"`
	MemberCount string    `json:"member_count,omitempty"`
	Events      []string  `json:"events"`
}

// AckResponse is returned by the intake service for stored registrations.
type AckResponse struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	ReceivedAt time.Time `json:"received_at"`
	Message    string    `json:"message,omitempty"`
}

// ErrorResponse is the JSON error envelope of the intake service.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

// NewPayload serializes form. The id is derived from the form contents so a
// retried submission of the same answers carries the same id.
func NewPayload(form registration.Form, submittedAt time.Time) Payload {
	p := Payload{
		Version:     SchemaVersion,
		SubmittedAt: submittedAt.UTC(),
		FullName:    form.FullName,
		Email:       form.Email,
		Phone:       form.Phone,
		College:     form.College,
		Branch:      form.Branch,
		Year:        form.Year,
		Experience:  form.Experience,
		TeamName:    form.TeamName,
		MemberCount: form.MemberCount,
		Events:      make([]string, 0, len(form.Events)),
	}
	for _, id := range form.Events {
		p.Events = append(p.Events, string(id))
	}
	p.Normalize()
	p.ID = p.fingerprint()
	return p
}

// Normalize trims whitespace and canonicalizes event ids.
func (p *Payload) Normalize() {
	if p == nil {
		return
	}
	if p.Version == 0 {
		p.Version = SchemaVersion
	}
	p.ID = strings.TrimSpace(p.ID)
	for _, field := range []*string{&p.FullName, &p.Email, &p.Phone, &p.College, &p.Branch, &p.Year, &p.Experience, &p.TeamName, &p.MemberCount} {
		*field = strings.TrimSpace(*field)
	}
	for i := range p.Events {
		p.Events[i] = strings.ToLower(strings.TrimSpace(p.Events[i]))
	}
}

// Form converts the payload back into the registration aggregate.
func (p Payload) Form() registration.Form {
	form := registration.Form{
		FullName:    p.FullName,
		Email:       p.Email,
		Phone:       p.Phone,
		College:     p.College,
		Branch:      p.Branch,
		Year:        p.Year,
		Experience:  p.Experience,
		TeamName:    p.TeamName,
		MemberCount: p.MemberCount,
	}
	for _, id := range p.Events {
		form.Events = append(form.Events, registration.EventID(id))
	}
	return form
}

var payloadNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://techfest2026.com/registrations"))

// SameAnswers reports whether p and other carry the same registration,
// ignoring the id and submission time.
func (p Payload) SameAnswers(other Payload) bool {
	a, errA := p.canonical()
	b, errB := other.canonical()
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}

func (p Payload) canonical() ([]byte, error) {
	c := p
	c.Events = append(make([]string, 0, len(p.Events)), p.Events...)
	c.Normalize()
	c.ID = ""
	c.SubmittedAt = time.Time{}
	return json.Marshal(c)
}

func (p Payload) fingerprint() string {
	data, err := p.canonical()
	if err != nil {
		return uuid.NewString()
	}
	return uuid.NewSHA1(payloadNamespace, data).String()
}
