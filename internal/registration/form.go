package registration

import (
	"fmt"
	"strings"
)

// Field names one scalar entry of the Form.
type Field int

const (
	FieldFullName Field = iota + 1
	FieldEmail
	FieldPhone
	FieldCollege
	FieldBranch
	FieldYear
	FieldExperience
	FieldTeamName
	FieldMemberCount
)

var fieldKeys = map[Field]string{
	FieldFullName:    "full_name",
	FieldEmail:       "email",
	FieldPhone:       "phone",
	FieldCollege:     "college",
	FieldBranch:      "branch",
	FieldYear:        "year",
	FieldExperience:  "experience",
	FieldTeamName:    "team_name",
	FieldMemberCount: "member_count",
}

var fieldLabels = map[Field]string{
	FieldFullName:    "Full Name",
	FieldEmail:       "Email",
	FieldPhone:       "Phone Number",
	FieldCollege:     "College Name",
	FieldBranch:      "Branch",
	FieldYear:        "Year of Study",
	FieldExperience:  "Experience Level",
	FieldTeamName:    "Team Name",
	FieldMemberCount: "Number of Members",
}

// Valid reports whether f is one of the declared fields.
func (f Field) Valid() bool {
	_, ok := fieldKeys[f]
	return ok
}

// Key is the stable snake_case identifier used on the wire.
func (f Field) Key() string {
	if key, ok := fieldKeys[f]; ok {
		return key
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// Label is the human readable name shown next to inputs.
func (f Field) Label() string {
	if label, ok := fieldLabels[f]; ok {
		return label
	}
	return f.Key()
}

func (f Field) String() string { return f.Key() }

// ParseField resolves a wire key back to a Field.
func ParseField(key string) (Field, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for field, candidate := range fieldKeys {
		if candidate == key {
			return field, true
		}
	}
	return 0, false
}

// EventID identifies an event in the catalog.
type EventID string

// Form is the registration aggregate.
type Form struct {
	FullName    string
	Email       string
	Phone       string
	College     string
	Branch      string
	Year        string
	Experience  string
	TeamName    string
	MemberCount string
	Events      []EventID
}

// Get returns the value stored for f.
func (f Form) Get(field Field) string {
	if ptr := f.slot(field); ptr != nil {
		return *ptr
	}
	return ""
}

func (f *Form) set(field Field, value string) bool {
	ptr := f.slot(field)
	if ptr == nil {
		return false
	}
	*ptr = value
	return true
}

func (f *Form) slot(field Field) *string {
	switch field {
	case FieldFullName:
		return &f.FullName
	case FieldEmail:
		return &f.Email
	case FieldPhone:
		return &f.Phone
	case FieldCollege:
		return &f.College
	case FieldBranch:
		return &f.Branch
	case FieldYear:
		return &f.Year
	case FieldExperience:
		return &f.Experience
	case FieldTeamName:
		return &f.TeamName
	case FieldMemberCount:
		return &f.MemberCount
	default:
		return nil
	}
}

// HasEvent reports whether id is currently selected.
func (f Form) HasEvent(id EventID) bool {
	for _, selected := range f.Events {
		if selected == id {
			return true
		}
	}
	return false
}

// toggle flips membership of id, preserving selection order for the rest.
func (f *Form) toggle(id EventID) {
	for i, selected := range f.Events {
		if selected == id {
			f.Events = append(f.Events[:i:i], f.Events[i+1:]...)
			return
		}
	}
	f.Events = append(f.Events, id)
}

// Clone returns a deep copy so snapshots never alias the wizard's aggregate.
func (f Form) Clone() Form {
	out := f
	if f.Events != nil {
		out.Events = append([]EventID(nil), f.Events...)
	}
	return out
}
