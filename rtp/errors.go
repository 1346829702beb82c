// Package rtp implements the RTP-MIDI payload codec (RFC 6295): the MIDI
// command section with running-status decoding, and the recovery journal
// (parsed and skipped, never replayed). The 12-byte RTP envelope itself is
// handled by github.com/pion/rtp; this package owns everything carried in
// its payload.
package rtp

import "errors"

var (
	ErrTruncated            = errors.New("rtp: truncated packet")
	ErrRunningStatusUnderflow = errors.New("rtp: no running status available")
	ErrLengthOverflow       = errors.New("rtp: event list too large to encode")
)

// ParseError wraps a decode-time failure with the packet section in which it
// occurred.
type ParseError struct {
	Section string
	Err     error
}

func (e *ParseError) Error() string { return "rtp: parse " + e.Section + ": " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

func parseErr(section string, err error) error {
	return &ParseError{Section: section, Err: err}
}

// BuildError wraps an encode-time failure.
type BuildError struct {
	Section string
	Err     error
}

func (e *BuildError) Error() string { return "rtp: build " + e.Section + ": " + e.Err.Error() }
func (e *BuildError) Unwrap() error { return e.Err }

func buildErr(section string, err error) error {
	return &BuildError{Section: section, Err: err}
}
