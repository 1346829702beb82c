package session

import "time"

// Unit100us is the tick unit used by the CK timestamp-sync exchange:
// 100 microseconds per count, per the AppleMIDI protocol in practice
// (RFC 6295 nominally uses sampling-rate ticks; this module follows what
// real peers expect, as a documented constant rather than a configurable
// one — see the design notes on this decision).
const Unit100us = 100 * time.Microsecond

// Clock supplies the local time in Unit100us ticks. Production code uses
// systemClock; tests can supply a fake for deterministic offsets.
type Clock interface {
	Now100us() uint64
}

type systemClock struct{}

func (systemClock) Now100us() uint64 {
	return uint64(time.Now().UnixNano() / int64(Unit100us))
}

// DefaultClock wraps time.Now.
var DefaultClock Clock = systemClock{}
