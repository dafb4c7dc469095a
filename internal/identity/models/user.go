package models

import (
	"strings"
	"time"

	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

func (r Role) String() string { return string(r) }

// User is a registered applicant or administrator.
//
// Invariants:
//   - Email is stored lowercase and is unique across users
//   - Mobile is stored trimmed and is unique (case-sensitive)
//   - KycID is issued once at registration and never changes
//   - PasswordHash never leaves the service boundary
type User struct {
	ID           id.UserID `json:"id"`
	Email        string    `json:"email"`
	Mobile       string    `json:"mobile"`
	PasswordHash string    `json:"-"`
	KycID        id.KycID  `json:"kycId"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewUser builds a user after checking construction invariants. Input
// validation belongs to the request types; failures here are programming errors.
func NewUser(userID id.UserID, email, mobile, passwordHash string, kycID id.KycID, role Role, now time.Time) (*User, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user id is required")
	}
	email = NormalizeEmail(email)
	mobile = NormalizeMobile(mobile)
	if email == "" || mobile == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email and mobile are required")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash is required")
	}
	if _, err := id.ParseKycID(kycID.String()); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "malformed kyc id")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown role")
	}
	return &User{
		ID:           userID,
		Email:        email,
		Mobile:       mobile,
		PasswordHash: passwordHash,
		KycID:        kycID,
		Role:         role,
		CreatedAt:    now,
	}, nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NormalizeEmail gives the case-insensitive form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeMobile trims whitespace; mobile comparison stays case-sensitive.
func NormalizeMobile(mobile string) string {
	return strings.TrimSpace(mobile)
}
