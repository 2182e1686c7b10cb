package domain

import (
	"database/sql/driver"
	"fmt"
)

// Role is a position in the linear role hierarchy. Higher values carry more privilege.
type Role int

const (
	RoleUnknown Role = iota
	RoleFreelancer
	RoleEmployee
	RoleManager
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleFreelancer: "freelancer",
	RoleEmployee:   "employee",
	RoleManager:    "manager",
	RoleAdmin:      "admin",
}

// Roles lists the known roles in ascending order of privilege.
func Roles() []Role {
	return []Role{RoleFreelancer, RoleEmployee, RoleManager, RoleAdmin}
}

// ParseRole returns the role with the given name, or RoleUnknown.
func ParseRole(s string) Role {
	for r, name := range roleNames {
		if name == s {
			return r
		}
	}
	return RoleUnknown
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// AtLeast reports whether r is at or above min in the hierarchy. Unknown roles never qualify.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && min.Valid() && r >= min
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed := ParseRole(string(b))
	if parsed == RoleUnknown {
		return fmt.Errorf("invalid role %q", string(b))
	}
	*r = parsed
	return nil
}

// Scan implements sql.Scanner for the users.role TEXT column.
func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	case nil:
		*r = RoleUnknown
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}
}

// Value implements driver.Valuer.
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return r.String(), nil
}
