package models

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "kycflow/pkg/domain-errors"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// PersonalDetails is the step 1 form.
type PersonalDetails struct {
	FullName   string `json:"fullName" validate:"required,max=200"`
	DOB        string `json:"dob" validate:"required,datetime=2006-01-02"`
	FatherName string `json:"fatherName" validate:"required,max=200"`
	Address    string `json:"address" validate:"required,max=500"`
	City       string `json:"city,omitempty" validate:"max=100"`
	State      string `json:"state,omitempty" validate:"max=100"`
	Pincode    string `json:"pincode,omitempty" validate:"omitempty,numeric,len=6"`
	Gender     string `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
}

func (p *PersonalDetails) Normalize() {
	p.FullName = strings.TrimSpace(p.FullName)
	p.DOB = strings.TrimSpace(p.DOB)
	p.FatherName = strings.TrimSpace(p.FatherName)
	p.Address = strings.TrimSpace(p.Address)
	p.City = strings.TrimSpace(p.City)
	p.State = strings.TrimSpace(p.State)
	p.Pincode = strings.TrimSpace(p.Pincode)
	p.Gender = strings.ToLower(strings.TrimSpace(p.Gender))
}

func (p *PersonalDetails) Validate() error {
	if err := validate.Struct(p); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, describe(err))
	}
	return nil
}

// DocumentSelectionRequest is the step 2 form.
type DocumentSelectionRequest struct {
	Category DocumentCategory `json:"category" validate:"required,oneof=address identity"`
	Kind     DocumentKind     `json:"kind" validate:"required"`
	Number   string           `json:"number" validate:"required,max=20"`
}

var numberPatterns = map[DocumentKind]*regexp.Regexp{
	KindAadhaar:  regexp.MustCompile(`^\d{12}$`),
	KindPassport: regexp.MustCompile(`^[A-Za-z0-9]{5,20}$`),
	KindVoterID:  regexp.MustCompile(`^[A-Za-z0-9]{6,20}$`),
	KindPAN:      regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`),
}

func (r *DocumentSelectionRequest) Normalize() {
	r.Category = DocumentCategory(strings.ToLower(strings.TrimSpace(string(r.Category))))
	r.Number = strings.TrimSpace(r.Number)
	if r.Kind == KindPAN {
		r.Number = strings.ToUpper(r.Number)
	}
}

func (r *DocumentSelectionRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, describe(err))
	}
	if !r.Category.Accepts(r.Kind) {
		return dErrors.New(dErrors.CodeBadRequest, string(r.Kind)+" is not accepted as "+string(r.Category)+" proof")
	}
	if !numberPatterns[r.Kind].MatchString(r.Number) {
		return dErrors.New(dErrors.CodeBadRequest, "Invalid "+string(r.Kind)+" number")
	}
	return nil
}

// ReviewDecision is an admin verdict on a pending application.
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionReject  ReviewDecision = "reject"
)

type ReviewRequest struct {
	Decision ReviewDecision `json:"decision" validate:"required,oneof=approve reject"`
	Reason   string         `json:"reason" validate:"max=500"`
}

func (r *ReviewRequest) Normalize() {
	r.Decision = ReviewDecision(strings.ToLower(strings.TrimSpace(string(r.Decision))))
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *ReviewRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, describe(err))
	}
	if r.Decision == DecisionReject && r.Reason == "" {
		return dErrors.New(dErrors.CodeBadRequest, "reason is required when rejecting")
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "datetime":
		return field + " must be a date in YYYY-MM-DD format"
	case "numeric", "len":
		return field + " must be " + fe.Param() + " digits"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	default:
		return field + " is invalid"
	}
}
