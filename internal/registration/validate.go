package registration

import (
	"strings"
)

// Step is one stage of the wizard.
type Step int

const (
	Step1 Step = iota + 1
	Step2
	Step3
)

// Steps lists the wizard steps in order.
var Steps = []Step{Step1, Step2, Step3}

// Valid reports whether s is within 1..3.
func (s Step) Valid() bool { return s >= Step1 && s <= Step3 }

// Title is the heading shown above the step body.
func (s Step) Title() string {
	switch s {
	case Step1:
		return "Personal Information"
	case Step2:
		return "College Information"
	case Step3:
		return "Team & Events"
	default:
		return ""
	}
}

// EventsKey is reported by MissingFields when no event is selected.
const EventsKey = "events"

// ValidateStep is the validity predicate for step s.
func ValidateStep(form Form, s Step, profile Profile) bool {
	return len(missingForStep(form, s, profile, nil)) == 0
}

// ValidateAll reports whether every step predicate holds.
func ValidateAll(form Form, profile Profile) bool {
	for _, s := range Steps {
		if !ValidateStep(form, s, profile) {
			return false
		}
	}
	return true
}

// MissingFields lists the wire keys that keep form from being submittable.
// When catalog is non-nil, selected events outside it are reported too.
func MissingFields(form Form, profile Profile, catalog *Catalog) []string {
	var missing []string
	for _, s := range Steps {
		missing = append(missing, missingForStep(form, s, profile, catalog)...)
	}
	return missing
}

func missingForStep(form Form, s Step, profile Profile, catalog *Catalog) []string {
	var missing []string
	for _, field := range profile.StepFields(s) {
		if !fieldSatisfied(form.Get(field), profile.Options(field)) {
			missing = append(missing, field.Key())
		}
	}
	if s == Step3 && !eventsSatisfied(form.Events, catalog) {
		missing = append(missing, EventsKey)
	}
	return missing
}

func fieldSatisfied(value string, options []string) bool {
	if strings.TrimSpace(value) == "" {
		return false
	}
	if options == nil {
		return true
	}
	for _, option := range options {
		if value == option {
			return true
		}
	}
	return false
}

func eventsSatisfied(events []EventID, catalog *Catalog) bool {
	if len(events) == 0 {
		return false
	}
	if catalog == nil {
		return true
	}
	seen := make(map[EventID]struct{}, len(events))
	for _, id := range events {
		if !catalog.Contains(id) {
			return false
		}
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
	}
	return true
}
