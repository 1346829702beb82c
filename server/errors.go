package server

import "errors"

// ErrAlreadyBound is returned by Bind when the control address (host:port)
// is already bound by this Server.
var ErrAlreadyBound = errors.New("server: address already bound")

// BindError wraps a socket-setup failure at startup. It is fatal: callers
// (the cmd/ binaries) are expected to exit non-zero on it.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string { return "server: bind " + e.Addr + ": " + e.Err.Error() }
func (e *BindError) Unwrap() error { return e.Err }
