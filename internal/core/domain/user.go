package domain

// Role is the coarse account role carried in session tokens.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is a dashboard operator account. Password holds the bcrypt hash,
// never the plaintext.
type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// Identity is the verified subject of a request, decoded from a session
// token. It carries no pointer back to the stored User record: every
// authorization decision re-reads the stores.
type Identity struct {
	Username string
	Role     Role
}

// IsAdmin reports whether the identity bypasses assignment checks.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// UserSummary is the admin-facing listing shape: credentials stripped,
// assignments attached.
type UserSummary struct {
	Username      string           `json:"username"`
	Role          Role             `json:"role"`
	AssignedNodes []NodeAssignment `json:"assignedNodes"`
}
