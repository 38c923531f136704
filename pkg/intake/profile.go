// Package intake turns a resume or a manual form into a validated candidate profile and
// the short overview that seeds question generation.
package intake

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"talentscout/pkg/workflow"
)

// Profile is the candidate's self-description. Every field is mandatory after trimming.
type Profile struct {
	FullName          string `json:"full_name" validate:"required"`
	EmailAddress      string `json:"email_address" validate:"required"`
	PhoneNumber       string `json:"phone_number" validate:"required"`
	YearsOfExperience string `json:"years_of_experience" validate:"required"`
	DesiredPosition   string `json:"desired_position" validate:"required"`
	CurrentLocation   string `json:"current_location" validate:"required"`
	TechStack         string `json:"tech_stack" validate:"required"`
	OtherDetails      string `json:"other_details" validate:"required"`
}

// Overview is the short text summary of a submitted profile.
type Overview string

//nolint:gochecknoglobals // validator caches struct metadata and is safe for concurrent use
var validate = validator.New(validator.WithRequiredStructEnabled())

func init() { //nolint:gochecknoinits // report json field names in validation errors
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		return name
	})
}

// Normalized returns a copy with surrounding whitespace removed from every field.
func (p Profile) Normalized() Profile {
	return Profile{
		FullName:          strings.TrimSpace(p.FullName),
		EmailAddress:      strings.TrimSpace(p.EmailAddress),
		PhoneNumber:       strings.TrimSpace(p.PhoneNumber),
		YearsOfExperience: strings.TrimSpace(p.YearsOfExperience),
		DesiredPosition:   strings.TrimSpace(p.DesiredPosition),
		CurrentLocation:   strings.TrimSpace(p.CurrentLocation),
		TechStack:         strings.TrimSpace(p.TechStack),
		OtherDetails:      strings.TrimSpace(p.OtherDetails),
	}
}

// Validate checks that every field is filled in after trimming.
// The error lists the missing fields by their json name.
func (p Profile) Validate() error {
	n := p.Normalized()
	err := validate.Struct(&n)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return workflow.Wrap(workflow.StageIntake, workflow.KindValidation, err, "invalid profile")
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return workflow.Errorf(workflow.StageIntake, workflow.KindValidation,
		"please fill out all fields before submitting (missing: %s)", strings.Join(missing, ", "))
}

// String renders the profile the way it is handed to the overview prompt.
func (p Profile) String() string {
	return fmt.Sprintf("full_name: %s\nemail_address: %s\nphone_number: %s\nyears_of_experience: %s\n"+
		"desired_position: %s\ncurrent_location: %s\ntech_stack: %s\nother_details: %s",
		p.FullName, p.EmailAddress, p.PhoneNumber, p.YearsOfExperience,
		p.DesiredPosition, p.CurrentLocation, p.TechStack, p.OtherDetails)
}
