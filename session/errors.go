package session

import "errors"

// ErrUnknownCommand is logged (not returned to callers) when a control or
// data packet carries a command this protocol does not handle.
var ErrUnknownCommand = errors.New("session: unknown command")
