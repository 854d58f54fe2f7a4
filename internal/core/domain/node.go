package domain

// NodeID identifies a registered worker node ("node_<unix-millis>").
type NodeID string

// Node is a registered worker service with its own API and stream URLs.
// AssignedTo is computed for admin listings and never persisted.
type Node struct {
	ID      NodeID `json:"id"`
	Name    string `json:"name"`
	APIURL  string `json:"apiUrl"`
	WSURL   string `json:"wsUrl"`
	Enabled bool   `json:"enabled"`

	AssignedTo []string `json:"assignedTo,omitempty"`
}
