package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	// UsernameRegex validates username format
	UsernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// NodeIDRegex validates node id format
	NodeIDRegex = regexp.MustCompile(`^node_\d+$`)
)

// ValidateUsername validates username
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if len(username) > 50 {
		return fmt.Errorf("username is too long (max 50 characters)")
	}
	if !UsernameRegex.MatchString(username) {
		return fmt.Errorf("username contains invalid characters (only letters, numbers, _, - allowed)")
	}
	return nil
}

// ValidatePassword validates password
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) > 128 {
		return fmt.Errorf("password is too long (max 128 characters)")
	}
	return nil
}

// ValidateNodeID validates node id
func ValidateNodeID(id string) error {
	if id == "" {
		return fmt.Errorf("node id is required")
	}
	if !NodeIDRegex.MatchString(id) {
		return fmt.Errorf("invalid node id format")
	}
	return nil
}

// ValidateAPIURL validates a node's upstream API URL
func ValidateAPIURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("apiUrl is required")
	}
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid apiUrl format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid apiUrl scheme (must be http or https)")
	}
	if u.Host == "" {
		return fmt.Errorf("apiUrl must have a host")
	}
	return nil
}

// ValidateWSURL validates a node's upstream stream URL
func ValidateWSURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("wsUrl is required")
	}
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid wsUrl format: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" && u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid wsUrl scheme (must be ws, wss, http or https)")
	}
	if u.Host == "" {
		return fmt.Errorf("wsUrl must have a host")
	}
	return nil
}

// ValidateNodeName validates a node's display name
func ValidateNodeName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("node name is required")
	}
	if len(name) > 100 {
		return fmt.Errorf("node name is too long (max 100 characters)")
	}
	return nil
}
