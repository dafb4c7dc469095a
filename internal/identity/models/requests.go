package models

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	dErrors "kycflow/pkg/domain-errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

const MinPasswordLength = 6

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Mobile   string `json:"mobile" validate:"required,max=32"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func (r *RegisterRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.Mobile = NormalizeMobile(r.Mobile)
}

func (r *RegisterRequest) Validate() error {
	if r.Email == "" || r.Mobile == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeBadRequest, "email, mobile and password are required")
	}
	if err := validate.Struct(r); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, describe(err))
	}
	return nil
}

type LoginRequest struct {
	KycID    string `json:"kycId"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.KycID = strings.ToUpper(strings.TrimSpace(r.KycID))
	r.Email = NormalizeEmail(r.Email)
}

func (r *LoginRequest) Validate() error {
	if r.Password == "" || (r.KycID == "" && r.Email == "") {
		return dErrors.New(dErrors.CodeBadRequest, "Provide password and either kycId or email")
	}
	return nil
}

type RegisterResponse struct {
	Message string `json:"message"`
	KycID   string `json:"kycId"`
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

type LoginResponse struct {
	Token     string    `json:"token"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}

// describe turns the first validator failure into a client-facing sentence.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "email is malformed"
	case "min":
		return field + " must be at least " + fe.Param() + " characters"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	default:
		return field + " is invalid"
	}
}
