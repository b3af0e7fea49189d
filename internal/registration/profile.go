package registration

import (
	"fmt"
	"strings"
)

// Classification selects which enumerated field qualifies a registrant on step 2.
type Classification string

const (
	ClassifyByYear       Classification = "year"
	ClassifyByExperience Classification = "experience"
)

var (
	// YearOptions are the accepted values for FieldYear.
	YearOptions = []string{"1st", "2nd", "3rd", "4th"}
	// ExperienceOptions are the accepted values for FieldExperience.
	ExperienceOptions = []string{"beginner", "intermediate", "advanced"}
	// MemberCountOptions are the accepted values for FieldMemberCount.
	MemberCountOptions = []string{"1", "2", "3", "4", "5"}
)

// Profile captures the flow variant: which classification step 2 asks for and
// whether step 3 carries team fields.
type Profile struct {
	Classification Classification
	RequireTeam    bool
}

// DefaultProfile is the year-of-study variant with team fields on step 3.
func DefaultProfile() Profile {
	return Profile{Classification: ClassifyByYear, RequireTeam: true}
}

// ParseClassification accepts "year" or "experience" (case-insensitive).
func ParseClassification(value string) (Classification, error) {
	switch Classification(strings.ToLower(strings.TrimSpace(value))) {
	case "", ClassifyByYear:
		return ClassifyByYear, nil
	case ClassifyByExperience:
		return ClassifyByExperience, nil
	default:
		return "", fmt.Errorf("registration: unknown classification %q", value)
	}
}

// ClassificationField is the step-2 enumerated field for this profile.
func (p Profile) ClassificationField() Field {
	if p.Classification == ClassifyByExperience {
		return FieldExperience
	}
	return FieldYear
}

// StepFields lists the scalar fields rendered on step s, in display order.
func (p Profile) StepFields(s Step) []Field {
	switch s {
	case Step1:
		return []Field{FieldFullName, FieldEmail, FieldPhone}
	case Step2:
		return []Field{FieldCollege, FieldBranch, p.ClassificationField()}
	case Step3:
		if p.RequireTeam {
			return []Field{FieldTeamName, FieldMemberCount}
		}
		return nil
	default:
		return nil
	}
}

// Options returns the allowed values of an enumerated field, or nil for free text.
func (p Profile) Options(f Field) []string {
	switch f {
	case FieldYear:
		return YearOptions
	case FieldExperience:
		return ExperienceOptions
	case FieldMemberCount:
		return MemberCountOptions
	default:
		return nil
	}
}
