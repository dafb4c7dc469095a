// Package domain holds typed identifiers shared across bounded contexts.
//
// Typed IDs wrap uuid.UUID so a UserID can never be passed where an
// ApplicationID is expected. Construct them with the Parse functions at trust
// boundaries; the zero value is the nil UUID and is never a valid identifier.
package domain

import (
	"database/sql/driver"

	"github.com/google/uuid"

	dErrors "kycflow/pkg/domain-errors"
)

type (
	UserID        uuid.UUID
	ApplicationID uuid.UUID
	DocumentID    uuid.UUID
)

func NewUserID() UserID               { return UserID(uuid.New()) }
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }
func NewDocumentID() DocumentID       { return DocumentID(uuid.New()) }

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id DocumentID) String() string    { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id ApplicationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id DocumentID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error        { return unmarshalUUID(b, (*uuid.UUID)(id)) }
func (id *ApplicationID) UnmarshalText(b []byte) error { return unmarshalUUID(b, (*uuid.UUID)(id)) }
func (id *DocumentID) UnmarshalText(b []byte) error    { return unmarshalUUID(b, (*uuid.UUID)(id)) }

// Value and Scan let the typed IDs travel through database/sql directly.
func (id UserID) Value() (driver.Value, error)        { return id.String(), nil }
func (id ApplicationID) Value() (driver.Value, error) { return id.String(), nil }
func (id DocumentID) Value() (driver.Value, error)    { return id.String(), nil }

func (id *UserID) Scan(src any) error        { return (*uuid.UUID)(id).Scan(src) }
func (id *ApplicationID) Scan(src any) error { return (*uuid.UUID)(id).Scan(src) }
func (id *DocumentID) Scan(src any) error    { return (*uuid.UUID)(id).Scan(src) }

func unmarshalUUID(b []byte, dst *uuid.UUID) error {
	if len(b) == 0 {
		*dst = uuid.Nil
		return nil
	}
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid identifier")
	}
	*dst = u
	return nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user_id")
	return UserID(u), err
}

func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseUUID(s, "application_id")
	return ApplicationID(u), err
}

func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s, "document_id")
	return DocumentID(u), err
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" cannot be nil")
	}
	return u, nil
}
