package domain

import "errors"

var (
	ErrNodeNotFound       = errors.New("node not found")
	ErrNodeDisabled       = errors.New("node is disabled")
	ErrNodeAccessDenied   = errors.New("access to this node is forbidden")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
