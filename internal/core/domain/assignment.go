package domain

// Permission is the access level granted on a single node.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
	PermissionAdmin Permission = "admin"
)

// NodeAssignment grants a permission level on one node. Assignments are
// keyed by username; the (username, nodeId) pair is logically unique and
// the last entry wins if callers submit duplicates.
type NodeAssignment struct {
	NodeID     NodeID     `json:"nodeId"`
	Permission Permission `json:"permission"`
}

// AssignmentTable maps a username to its ordered assignment list.
type AssignmentTable map[string][]NodeAssignment

// HasNode reports whether any entry grants access to the given node.
// A dangling nodeId (node deleted concurrently) simply never matches,
// which degrades to "no access" rather than an error.
func HasNode(entries []NodeAssignment, id NodeID) bool {
	for _, a := range entries {
		if a.NodeID == id {
			return true
		}
	}
	return false
}
