package wsserver_test

import (
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/wsbridge/core/codec"
	"github.com/dmitrymomot/wsbridge/core/stream"
	"github.com/dmitrymomot/wsbridge/core/wsserver"
)

type chatMessage struct {
	From string `json:"from"`
	Text string `json:"text"`
}

func startServer[T any](t *testing.T, srv *wsserver.Server[T]) string {
	t.Helper()
	hs := httptest.NewServer(srv)
	t.Cleanup(hs.Close)
	return "ws" + strings.TrimPrefix(hs.URL, "http")
}

func dialRaw(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readFrames pumps text frames from conn into the returned channel until the
// connection ends.
func readFrames(conn *websocket.Conn) <-chan string {
	ch := make(chan string, 16)
	go func() {
		defer close(ch)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			ch <- string(data)
		}
	}()
	return ch
}

func recv(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "connection closed before a frame arrived")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		panic("unreachable")
	}
}

func waitPeerCount[T any](t *testing.T, srv *wsserver.Server[T], want int) {
	t.Helper()
	require.Eventually(t, func() bool { return srv.PeerCount() == want },
		2*time.Second, 10*time.Millisecond)
}

func TestServer_ServeHTTP(t *testing.T) {
	t.Parallel()

	t.Run("tracks peers across connect and disconnect", func(t *testing.T) {
		t.Parallel()

		srv := wsserver.New[chatMessage]()
		defer srv.Close()
		url := startServer(t, srv)

		conn1 := dialRaw(t, url)
		dialRaw(t, url)
		waitPeerCount(t, srv, 2)

		peers := srv.Peers()
		require.Len(t, peers, 2)
		assert.NotEqual(t, peers[0].ID(), peers[1].ID())
		assert.True(t, peers[0].IsOpen())

		require.NoError(t, conn1.Close())
		waitPeerCount(t, srv, 1)
		assert.False(t, srv.Terminated(), "peer churn never ends the subject")
	})
}

func TestServer_Inbound(t *testing.T) {
	t.Parallel()

	t.Run("peer message fans out to subscribers and hook", func(t *testing.T) {
		t.Parallel()

		type hookCall struct {
			peerID string
			entity chatMessage
		}
		hooked := make(chan hookCall, 1)
		srv := wsserver.New(
			wsserver.WithPeerMessageHook[chatMessage](func(peer *wsserver.Peer, entity chatMessage) {
				hooked <- hookCall{peerID: peer.ID(), entity: entity}
			}),
		)
		defer srv.Close()
		url := startServer(t, srv)

		received := make(chan chatMessage, 2)
		srv.Subscribe(stream.Subscriber[chatMessage]{
			OnNext: func(m chatMessage) { received <- m },
		})

		conn := dialRaw(t, url)
		waitPeerCount(t, srv, 1)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"from":"nick","text":"hi"}`)))

		want := chatMessage{From: "nick", Text: "hi"}
		select {
		case got := <-received:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatal("subscriber did not receive the entity")
		}

		select {
		case call := <-hooked:
			assert.Equal(t, want, call.entity)
			assert.Equal(t, srv.Peers()[0].ID(), call.peerID)
		case <-time.After(2 * time.Second):
			t.Fatal("peer hook was not invoked")
		}
	})

	t.Run("malformed frame terminates the stream", func(t *testing.T) {
		t.Parallel()

		srv := wsserver.New[chatMessage]()
		defer srv.Close()
		url := startServer(t, srv)

		failed := make(chan error, 1)
		srv.Subscribe(stream.Subscriber[chatMessage]{
			OnError: func(err error) { failed <- err },
		})

		conn := dialRaw(t, url)
		waitPeerCount(t, srv, 1)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{malformed")))

		select {
		case err := <-failed:
			assert.ErrorIs(t, err, codec.ErrDecodeFailed)
		case <-time.After(2 * time.Second):
			t.Fatal("subscriber did not receive the terminal error")
		}
		assert.True(t, srv.Terminated())
	})
}

func TestServer_Broadcast(t *testing.T) {
	t.Parallel()

	t.Run("delivers to every peer", func(t *testing.T) {
		t.Parallel()

		srv := wsserver.New[chatMessage]()
		defer srv.Close()
		url := startServer(t, srv)

		frames1 := readFrames(dialRaw(t, url))
		frames2 := readFrames(dialRaw(t, url))
		frames3 := readFrames(dialRaw(t, url))
		waitPeerCount(t, srv, 3)

		srv.Broadcast(chatMessage{From: "srv", Text: "hello everyone"})

		want := `{"from":"srv","text":"hello everyone"}`
		assert.JSONEq(t, want, recv(t, frames1))
		assert.JSONEq(t, want, recv(t, frames2))
		assert.JSONEq(t, want, recv(t, frames3))
	})

	t.Run("one dead peer does not abort delivery to the rest", func(t *testing.T) {
		t.Parallel()

		srv := wsserver.New[chatMessage]()
		defer srv.Close()
		url := startServer(t, srv)

		frames1 := readFrames(dialRaw(t, url))
		dead := dialRaw(t, url)
		frames3 := readFrames(dialRaw(t, url))
		waitPeerCount(t, srv, 3)

		// Kill the middle peer without a close handshake.
		require.NoError(t, dead.UnderlyingConn().Close())

		srv.Broadcast(chatMessage{From: "srv", Text: "still here"})

		want := `{"from":"srv","text":"still here"}`
		assert.JSONEq(t, want, recv(t, frames1))
		assert.JSONEq(t, want, recv(t, frames3))
		assert.False(t, srv.Terminated(), "a failed peer write never ends the subject")
	})

	t.Run("OnNext broadcasts like an attached producer would", func(t *testing.T) {
		t.Parallel()

		srv := wsserver.New[chatMessage]()
		defer srv.Close()
		url := startServer(t, srv)

		frames := readFrames(dialRaw(t, url))
		waitPeerCount(t, srv, 1)

		srv.OnNext(chatMessage{From: "producer", Text: "pushed"})

		assert.JSONEq(t, `{"from":"producer","text":"pushed"}`, recv(t, frames))
	})
}

func TestServer_BroadcastFilter(t *testing.T) {
	t.Parallel()

	t.Run("delivers only to matching peers", func(t *testing.T) {
		t.Parallel()

		srv := wsserver.New[chatMessage]()
		defer srv.Close()
		url := startServer(t, srv)

		conn1 := dialRaw(t, url)
		frames1 := readFrames(conn1)
		frames2 := readFrames(dialRaw(t, url))
		waitPeerCount(t, srv, 2)

		// Pick the peer that belongs to conn1 by its remote address.
		var target string
		for _, p := range srv.Peers() {
			if p.RemoteAddr() == conn1.LocalAddr().String() {
				p.SetClaim("room", "lobby")
				target = p.ID()
			}
		}
		require.NotEmpty(t, target)

		srv.BroadcastFilter(chatMessage{From: "srv", Text: "lobby only"}, func(p *wsserver.Peer) bool {
			room, ok := p.Claim("room")
			return ok && room == "lobby"
		})
		srv.Broadcast(chatMessage{From: "srv", Text: "everyone"})

		assert.JSONEq(t, `{"from":"srv","text":"lobby only"}`, recv(t, frames1))
		assert.JSONEq(t, `{"from":"srv","text":"everyone"}`, recv(t, frames1))
		// The filtered send must have skipped peer 2, so its first frame is
		// the unfiltered one.
		assert.JSONEq(t, `{"from":"srv","text":"everyone"}`, recv(t, frames2))
	})
}

func TestServer_Close(t *testing.T) {
	t.Parallel()

	t.Run("completes subscribers once and closes every peer", func(t *testing.T) {
		t.Parallel()

		srv := wsserver.New[chatMessage]()
		url := startServer(t, srv)

		var mu sync.Mutex
		var first, second int
		srv.Subscribe(stream.Subscriber[chatMessage]{OnComplete: func() { mu.Lock(); first++; mu.Unlock() }})
		srv.Subscribe(stream.Subscriber[chatMessage]{OnComplete: func() { mu.Lock(); second++; mu.Unlock() }})

		conn := dialRaw(t, url)
		frames := readFrames(conn)
		waitPeerCount(t, srv, 1)

		require.NoError(t, srv.Close())

		mu.Lock()
		assert.Equal(t, 1, first)
		assert.Equal(t, 1, second)
		mu.Unlock()
		assert.True(t, srv.Completed())
		assert.Equal(t, 0, srv.PeerCount())

		// The peer observes the close handshake: its frame channel drains
		// and closes without another message.
		select {
		case _, ok := <-frames:
			assert.False(t, ok)
		case <-time.After(2 * time.Second):
			t.Fatal("peer connection was not closed")
		}
	})

	t.Run("subscribe after close replays completion", func(t *testing.T) {
		t.Parallel()

		srv := wsserver.New[chatMessage]()
		require.NoError(t, srv.Close())

		var completed bool
		sub := srv.Subscribe(stream.Subscriber[chatMessage]{OnComplete: func() { completed = true }})

		assert.True(t, completed)
		assert.True(t, sub.Disposed())
	})

	t.Run("upstream terminal signals are discarded", func(t *testing.T) {
		t.Parallel()

		srv := wsserver.New[chatMessage]()
		defer srv.Close()

		srv.OnError(errors.New("upstream failed"))
		srv.OnComplete()

		assert.False(t, srv.Terminated())
	})
}

func TestServer_EncodeFailure(t *testing.T) {
	// Not parallel: captures the process-wide unhandled-error sink.
	var sunk []error
	stream.SetUnhandledErrorHandler(func(err error) { sunk = append(sunk, err) })
	defer stream.SetUnhandledErrorHandler(nil)

	srv := wsserver.New[chan int]()
	defer srv.Close()

	srv.Broadcast(make(chan int))

	require.Len(t, sunk, 1)
	assert.ErrorIs(t, sunk[0], codec.ErrEncodeFailed)
	assert.False(t, srv.Terminated())
}
