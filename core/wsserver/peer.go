package wsserver

import (
	"sync"
	"time"

	"github.com/dmitrymomot/wsbridge/core/ws"
)

// Peer is one connected remote client. Peers are created by the server on
// upgrade and removed when their session ends.
type Peer struct {
	id       string
	session  ws.Session
	joinedAt time.Time

	claimsMu sync.RWMutex
	claims   map[string]string
}

func newPeer(id string, session ws.Session) *Peer {
	return &Peer{
		id:       id,
		session:  session,
		joinedAt: time.Now(),
		claims:   make(map[string]string),
	}
}

// ID returns the peer's unique identity, assigned on upgrade.
func (p *Peer) ID() string { return p.id }

// RemoteAddr returns the network address of the peer.
func (p *Peer) RemoteAddr() string { return p.session.RemoteAddr() }

// JoinedAt returns when the peer connected.
func (p *Peer) JoinedAt() time.Time { return p.joinedAt }

// IsOpen reports whether the peer's session can still carry frames.
func (p *Peer) IsOpen() bool { return p.session.IsOpen() }

// SetClaim attaches caller-defined metadata to the peer, available to
// BroadcastFilter predicates. Typical claims are user IDs or room names set
// from the peer-message hook.
func (p *Peer) SetClaim(key, value string) {
	p.claimsMu.Lock()
	defer p.claimsMu.Unlock()
	p.claims[key] = value
}

// Claim returns the metadata value for key and whether it is set.
func (p *Peer) Claim(key string) (string, bool) {
	p.claimsMu.RLock()
	defer p.claimsMu.RUnlock()
	v, ok := p.claims[key]
	return v, ok
}
