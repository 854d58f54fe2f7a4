package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateNodeID generates a node id of the form node_<unix-millis>.
// Dashboard clients match on the node_ prefix, keep it stable.
func GenerateNodeID() string {
	return fmt.Sprintf("node_%d", Now().UnixMilli())
}

// GenerateCommandID generates a command id of the form cmd_<unix-millis>.
func GenerateCommandID() string {
	return fmt.Sprintf("cmd_%d", Now().UnixMilli())
}

// GenerateRequestID generates a unique request ID
func GenerateRequestID() string {
	return "req_" + uuid.New().String()
}

// Now returns current time (useful for mocking in tests)
var Now = time.Now
