package domain

import (
	"github.com/google/uuid"

	dErrors "grievance/pkg/domain-errors"
)

// Typed UUID identifiers. Distinct types keep a complaint ID from ever being
// passed where a citizen ID is expected; the compiler enforces it.
type (
	// ComplaintID identifies a complaint header.
	ComplaintID uuid.UUID
	// CitizenID identifies a citizen account.
	CitizenID uuid.UUID
	// UserID identifies an internal user (staff member or administrator).
	UserID uuid.UUID
	// EntryID identifies a single history ledger entry.
	EntryID uuid.UUID
)

func (id ComplaintID) String() string { return uuid.UUID(id).String() }
func (id CitizenID) String() string   { return uuid.UUID(id).String() }
func (id UserID) String() string      { return uuid.UUID(id).String() }
func (id EntryID) String() string     { return uuid.UUID(id).String() }

// Defined types do not inherit uuid.UUID's text marshaling, so IDs would
// otherwise serialize as byte arrays in JSON.
func (id ComplaintID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id CitizenID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id UserID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id EntryID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }

func (id *ComplaintID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *CitizenID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *UserID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *EntryID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }

func (id ComplaintID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id CitizenID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs. Validation happens once, at the trust boundary.
func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" id cannot be the nil UUID")
	}
	return u, nil
}

// ParseComplaintID validates and returns a ComplaintID.
func ParseComplaintID(s string) (ComplaintID, error) {
	u, err := parseUUID(s, "complaint")
	return ComplaintID(u), err
}

// ParseCitizenID validates and returns a CitizenID.
func ParseCitizenID(s string) (CitizenID, error) {
	u, err := parseUUID(s, "citizen")
	return CitizenID(u), err
}

// ParseUserID validates and returns a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user")
	return UserID(u), err
}

// ParseEntryID validates and returns an EntryID.
func ParseEntryID(s string) (EntryID, error) {
	u, err := parseUUID(s, "entry")
	return EntryID(u), err
}
