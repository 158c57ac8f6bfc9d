package wsserver

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/wsbridge/core/codec"
	"github.com/dmitrymomot/wsbridge/core/stream"
	"github.com/dmitrymomot/wsbridge/core/ws"
)

// Server is the server-side bridge Subject. It accepts peers over HTTP, fans
// every peer's inbound entities out to the local subscribers, and broadcasts
// outbound items to all peers. All methods are safe for concurrent use.
type Server[T any] struct {
	codec    codec.Codec[T]
	upgrader *ws.Upgrader
	hook     func(peer *Peer, entity T)
	logger   *slog.Logger

	reg *stream.Registry[T]

	mu    sync.RWMutex
	peers map[string]*Peer
}

// Option configures a Server.
type Option[T any] func(*Server[T])

// WithCodec replaces the default JSON codec.
func WithCodec[T any](c codec.Codec[T]) Option[T] {
	return func(s *Server[T]) {
		if c != nil {
			s.codec = c
		}
	}
}

// WithUpgrader replaces the default upgrader. Use it to set buffer sizes,
// subprotocols, or a custom origin policy in one place.
func WithUpgrader[T any](u *ws.Upgrader) Option[T] {
	return func(s *Server[T]) {
		if u != nil {
			s.upgrader = u
		}
	}
}

// WithAllowAnyOrigin accepts upgrade requests from any origin.
func WithAllowAnyOrigin[T any]() Option[T] {
	return func(s *Server[T]) {
		s.upgrader = ws.NewUpgrader(ws.WithAllowAnyOrigin())
	}
}

// WithPeerMessageHook registers a callback invoked for every decoded inbound
// entity with the peer that sent it, after the entity has been fanned out to
// the subscribers. The hook runs on the peer's read goroutine.
func WithPeerMessageHook[T any](fn func(peer *Peer, entity T)) Option[T] {
	return func(s *Server[T]) {
		s.hook = fn
	}
}

// WithLogger configures structured logging for the server.
// Use slog.New(slog.NewTextHandler(io.Discard, nil)) to disable logging.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(s *Server[T]) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Server with no connected peers.
func New[T any](opts ...Option[T]) *Server[T] {
	s := &Server[T]{
		codec:    codec.JSON[T]{},
		upgrader: ws.NewUpgrader(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		peers:    make(map[string]*Peer),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reg = stream.NewRegistry[T](stream.WithLogger(s.logger))
	return s
}

// pendingPeer lets session callbacks wait for the peer registration that
// happens right after the upgrade returns. The session's read goroutine may
// deliver events before ServeHTTP finishes wiring the peer up.
type pendingPeer struct {
	ready chan struct{}
	peer  *Peer
}

func (p *pendingPeer) set(peer *Peer) {
	p.peer = peer
	close(p.ready)
}

func (p *pendingPeer) get() *Peer {
	<-p.ready
	return p.peer
}

// ServeHTTP upgrades the request to a websocket session and registers the
// remote end as a peer. The handler returns once the peer is registered; the
// session lives on until the peer disconnects or the server closes.
func (s *Server[T]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	pending := &pendingPeer{ready: make(chan struct{})}
	sess, err := s.upgrader.Upgrade(w, r, ws.Callbacks{
		OnMessage: func(_ ws.Session, text string) {
			s.handleMessage(pending.get(), text)
		},
		OnError: func(_ ws.Session, cause error) {
			s.dropPeer(pending.get(), cause)
		},
		OnClose: func(_ ws.Session) {
			s.dropPeer(pending.get(), nil)
		},
	})
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		s.logger.Warn("websocket upgrade rejected", slog.Any("error", err))
		return
	}

	peer := newPeer(uuid.NewString(), sess)
	s.mu.Lock()
	s.peers[peer.id] = peer
	s.mu.Unlock()
	pending.set(peer)
	s.logger.Info("peer connected",
		slog.String("peer_id", peer.id), slog.String("remote", peer.RemoteAddr()))
}

func (s *Server[T]) handleMessage(peer *Peer, text string) {
	entity, err := s.codec.Decode(text)
	if err != nil {
		// A malformed frame violates the wire contract; the stream
		// cannot continue.
		s.reg.Error(err)
		return
	}
	s.reg.Publish(entity)
	if s.hook != nil {
		s.hook(peer, entity)
	}
}

// dropPeer removes one peer from the set. Peer churn never touches the
// stream's terminal state.
func (s *Server[T]) dropPeer(peer *Peer, cause error) {
	s.mu.Lock()
	_, present := s.peers[peer.id]
	delete(s.peers, peer.id)
	s.mu.Unlock()
	if !present {
		return
	}
	if cause != nil {
		s.logger.Warn("peer failed",
			slog.String("peer_id", peer.id), slog.Any("error", cause))
	} else {
		s.logger.Info("peer disconnected", slog.String("peer_id", peer.id))
	}
}

// Subscribe attaches sub to the stream of inbound entities from all peers.
// Subscribing after the stream terminated replays the recorded outcome
// synchronously.
func (s *Server[T]) Subscribe(sub stream.Subscriber[T]) *stream.Subscription[T] {
	return s.reg.Attach(sub)
}

// Broadcast encodes entity once and writes it to every connected peer.
// Delivery is best-effort: a failure for one peer is routed to the
// unhandled-error sink and the remaining peers still receive the item.
func (s *Server[T]) Broadcast(entity T) {
	s.BroadcastFilter(entity, nil)
}

// BroadcastFilter behaves like Broadcast restricted to peers matching pred.
// A nil predicate matches every peer.
func (s *Server[T]) BroadcastFilter(entity T, pred func(peer *Peer) bool) {
	text, err := s.codec.Encode(entity)
	if err != nil {
		s.logger.Warn("outbound entity dropped", slog.Any("error", err))
		stream.UnhandledError(err)
		return
	}
	for _, peer := range s.snapshot() {
		if pred != nil && !pred(peer) {
			continue
		}
		if err := peer.session.Send(text); err != nil {
			s.logger.Warn("broadcast to peer failed",
				slog.String("peer_id", peer.id), slog.Any("error", err))
			stream.UnhandledError(err)
		}
	}
}

// OnNext accepts an item from an upstream producer and broadcasts it to all
// peers.
func (s *Server[T]) OnNext(item T) {
	s.Broadcast(item)
}

// OnError accepts an upstream producer error. There is no semantic way to
// send an error over the wire, so it is discarded; subscribers and peers are
// unaffected.
func (s *Server[T]) OnError(cause error) {}

// OnComplete accepts an upstream completion signal and discards it; the
// endpoint stays open until Close.
func (s *Server[T]) OnComplete() {}

// Peers returns a snapshot of the currently connected peers.
func (s *Server[T]) Peers() []*Peer {
	return s.snapshot()
}

// PeerCount returns the number of currently connected peers.
func (s *Server[T]) PeerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}

// HasSubscribers reports whether any subscriber is currently attached.
func (s *Server[T]) HasSubscribers() bool { return s.reg.HasSubscribers() }

// Terminated reports whether the stream reached its terminal state.
func (s *Server[T]) Terminated() bool { return s.reg.Terminated() }

// Completed reports whether the stream terminated normally.
func (s *Server[T]) Completed() bool { return s.reg.Completed() }

// Err returns the terminal error, or nil if the stream is open or completed.
func (s *Server[T]) Err() error { return s.reg.Err() }

// Close completes the stream, disposes all subscribers, and closes every peer
// session. Close failures are joined and returned; the stream is completed
// regardless.
func (s *Server[T]) Close() error {
	s.reg.Complete()
	s.mu.Lock()
	peers := make([]*Peer, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	clear(s.peers)
	s.mu.Unlock()

	var errs []error
	for _, p := range peers {
		if err := p.session.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Server[T]) snapshot() []*Peer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Peer, 0, len(s.peers))
	for _, p := range s.peers {
		out = append(out, p)
	}
	return out
}
