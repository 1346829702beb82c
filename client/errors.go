package client

import "errors"

var (
	// ErrInviteTimeout is returned by Connect when a control or data
	// invitation receives no reply before the deadline.
	ErrInviteTimeout = errors.New("client: invitation timed out")
	// ErrInviteRejected is returned by Connect when a peer replies NO.
	ErrInviteRejected = errors.New("client: invitation rejected")
)
