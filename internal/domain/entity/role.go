package entity

// Role identifies the kind of actor interacting with the workflow. The set
// is closed: routing switches over roles exhaustively instead of comparing
// free-form strings.
type Role string

const (
	RoleUser   Role = "USER"
	RoleAdmin  Role = "ADMIN"
	RoleBroker Role = "BROKER"
)

// IsValid returns true if the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleBroker:
		return true
	}
	return false
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}
