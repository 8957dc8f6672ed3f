package models

import "strings"

// UserType is the identity class of the person being onboarded.
//
// Invariants:
//   - Transitions only advance ANON → TEMP → PARTNER
//   - Once PARTNER, every backend request carries PARTNER
type UserType string

const (
	UserTypeAnon    UserType = "ANON"
	UserTypeTemp    UserType = "TEMP"
	UserTypePartner UserType = "PARTNER"
)

// ParseUserType accepts the backend's spelling case-insensitively.
func ParseUserType(s string) (UserType, bool) {
	switch UserType(strings.ToUpper(strings.TrimSpace(s))) {
	case UserTypeAnon:
		return UserTypeAnon, true
	case UserTypeTemp:
		return UserTypeTemp, true
	case UserTypePartner:
		return UserTypePartner, true
	}
	return "", false
}

func (u UserType) rank() int {
	switch u {
	case UserTypeTemp:
		return 1
	case UserTypePartner:
		return 2
	default:
		return 0
	}
}

// CanAdvanceTo reports whether moving from u to next keeps the lifecycle
// monotonic. Staying in place is allowed.
func (u UserType) CanAdvanceTo(next UserType) bool {
	return next.rank() >= u.rank()
}

func (u UserType) String() string {
	return string(u)
}

// Identity is the (userId, userType) pair every backend call is made as.
type Identity struct {
	UserID   int64    `json:"userId"`
	UserType UserType `json:"userType"`
}

// IsZero reports whether no identity has been established yet.
func (i Identity) IsZero() bool {
	return i.UserID == 0
}

// Caller is the identity a backend request is made as, plus the credential
// to attach. Token is empty when none is held or the held one has expired.
type Caller struct {
	Identity
	Token string
}
