// Package peer tracks the set of remote participants in a session, keyed by
// their SSRC.
package peer

import (
	"log/slog"
	"net"
	"sync"
)

// Peer is a remote participant in an AppleMIDI session.
type Peer struct {
	Name string
	Addr *net.UDPAddr
	SSRC uint32
}

// Table is a mutex-guarded SSRC -> *Peer map. The control protocol owns the
// authoritative table for a session binding; the data protocol holds a
// mirror kept in sync via a linkage callback (see the session package).
type Table struct {
	mu     sync.RWMutex
	byID   map[uint32]*Peer
	logger *slog.Logger
}

// NewTable returns an empty peer table. A nil logger defaults to slog.Default().
func NewTable(logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	return &Table{byID: make(map[uint32]*Peer), logger: logger}
}

// Register adds p to the table. If a peer with the same SSRC is already
// registered, the existing entry is kept, a warning is logged, and
// didRegister is false.
func (t *Table) Register(p *Peer) (existing *Peer, didRegister bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prior, ok := t.byID[p.SSRC]; ok {
		t.logger.Warn("duplicate peer registration ignored", "ssrc", p.SSRC, "name", prior.Name)
		return prior, false
	}
	t.byID[p.SSRC] = p
	return p, true
}

// Unregister removes and returns the peer for ssrc, if any.
func (t *Table) Unregister(ssrc uint32) (*Peer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.byID[ssrc]
	if !ok {
		return nil, false
	}
	delete(t.byID, ssrc)
	return p, true
}

// Lookup returns the peer for ssrc, if any.
func (t *Table) Lookup(ssrc uint32) (*Peer, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.byID[ssrc]
	return p, ok
}

// Len reports the number of registered peers.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}
