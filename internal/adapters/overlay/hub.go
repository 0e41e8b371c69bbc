package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/okian/monopad/pkg/logger"
	"github.com/okian/monopad/pkg/metrics"
)

const (
	writeDeadline     = 5 * time.Second
	pingInterval      = 30 * time.Second
	pongDeadline      = 60 * time.Second
	messageBufferSize = 16
)

// ErrHubStopped is returned when registering on a stopped hub.
var ErrHubStopped = errors.New("overlay hub stopped")

type hubCmd interface{ hubCmd() }

type registerCmd struct {
	conn     *websocket.Conn
	greeting [][]byte
	errCh    chan error
}

type unregisterCmd struct {
	conn *websocket.Conn
}

type broadcastCmd struct {
	msg []byte
}

type countCmd struct {
	replyCh chan int
}

func (registerCmd) hubCmd()   {}
func (unregisterCmd) hubCmd() {}
func (broadcastCmd) hubCmd()  {}
func (countCmd) hubCmd()      {}

// Hub fans overlay frames out to every connected browser. All client
// bookkeeping happens on the hub goroutine.
type Hub struct {
	cmdCh   chan hubCmd
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
	clock   clockwork.Clock
	log     logger.Logger
	clients map[*websocket.Conn]*clientWriter
}

// NewHub starts the hub goroutine.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		cmdCh:   make(chan hubCmd, 64),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		clock:   clockwork.NewRealClock(),
		log:     logger.Named("overlay-hub"),
		clients: make(map[*websocket.Conn]*clientWriter),
	}
	for _, opt := range opts {
		opt(h)
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.stopped)
	for {
		select {
		case cmd := <-h.cmdCh:
			h.handle(cmd)
		case <-h.done:
			for conn, cw := range h.clients {
				cw.stop()
				delete(h.clients, conn)
			}
			metrics.UpdateOverlayClients(0)
			return
		}
	}
}

func (h *Hub) handle(cmd hubCmd) {
	switch c := cmd.(type) {
	case registerCmd:
		cw := newClientWriter(c.conn, h.clock)
		for _, msg := range c.greeting {
			cw.send(msg)
		}
		h.clients[c.conn] = cw
		metrics.UpdateOverlayClients(len(h.clients))
		c.errCh <- nil
	case unregisterCmd:
		if cw, ok := h.clients[c.conn]; ok {
			cw.stop()
			delete(h.clients, c.conn)
			metrics.UpdateOverlayClients(len(h.clients))
		}
	case broadcastCmd:
		for conn, cw := range h.clients {
			if !cw.send(c.msg) {
				h.log.Warn(context.Background(), "dropping slow overlay client",
					logger.String("remote", conn.RemoteAddr().String()))
				cw.stop()
				delete(h.clients, conn)
			}
		}
		metrics.UpdateOverlayClients(len(h.clients))
	case countCmd:
		c.replyCh <- len(h.clients)
	}
}

func (h *Hub) submit(cmd hubCmd) bool {
	select {
	case h.cmdCh <- cmd:
		return true
	case <-h.done:
		return false
	}
}

// Register hands conn to the hub. Greeting frames are queued ahead of any
// broadcast so a new client starts from the current state. The caller
// keeps reading from conn and calls Unregister when the read fails.
func (h *Hub) Register(conn *websocket.Conn, greeting ...Frame) error {
	msgs := make([][]byte, 0, len(greeting))
	for _, f := range greeting {
		b, err := json.Marshal(f)
		if err != nil {
			return err
		}
		msgs = append(msgs, b)
	}
	errCh := make(chan error, 1)
	if !h.submit(registerCmd{conn: conn, greeting: msgs, errCh: errCh}) {
		return ErrHubStopped
	}
	select {
	case err := <-errCh:
		return err
	case <-h.done:
		return ErrHubStopped
	}
}

// Unregister closes conn and forgets it.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.submit(unregisterCmd{conn: conn})
}

// Publish implements Publisher.
func (h *Hub) Publish(f Frame) {
	b, err := json.Marshal(f)
	if err != nil {
		h.log.Error(context.Background(), "encode overlay frame", logger.Error(err))
		return
	}
	h.submit(broadcastCmd{msg: b})
}

// Clients reports the number of connected browsers.
func (h *Hub) Clients() int {
	replyCh := make(chan int, 1)
	if !h.submit(countCmd{replyCh: replyCh}) {
		return 0
	}
	select {
	case n := <-replyCh:
		return n
	case <-h.done:
		return 0
	}
}

// Stop disconnects every client and stops the hub goroutine.
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.done) })
	<-h.stopped
}

// clientWriter owns all writes to one connection.
type clientWriter struct {
	conn     *websocket.Conn
	clock    clockwork.Clock
	sendCh   chan []byte
	doneCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newClientWriter(conn *websocket.Conn, clock clockwork.Clock) *clientWriter {
	cw := &clientWriter{
		conn:   conn,
		clock:  clock,
		sendCh: make(chan []byte, messageBufferSize),
		doneCh: make(chan struct{}),
	}
	cw.updateReadDeadline()
	conn.SetPongHandler(func(string) error {
		cw.updateReadDeadline()
		return nil
	})
	cw.wg.Add(1)
	go cw.run()
	return cw
}

// send queues msg and reports false when the client buffer is full.
func (cw *clientWriter) send(msg []byte) bool {
	select {
	case cw.sendCh <- msg:
		return true
	default:
		return false
	}
}

func (cw *clientWriter) run() {
	ticker := cw.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer cw.wg.Done()

	for {
		select {
		case msg := <-cw.sendCh:
			cw.updateWriteDeadline()
			if err := cw.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.Chan():
			cw.updateWriteDeadline()
			if err := cw.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-cw.doneCh:
			return
		}
	}
}

func (cw *clientWriter) stop() {
	cw.stopOnce.Do(func() {
		close(cw.doneCh)
		cw.wg.Wait()
		cw.updateWriteDeadline()
		_ = cw.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		_ = cw.conn.Close()
	})
}

// Socket deadlines are checked by the network poller against wall time,
// so they never come from the injected clock.
func (cw *clientWriter) updateWriteDeadline() {
	_ = cw.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
}

func (cw *clientWriter) updateReadDeadline() {
	_ = cw.conn.SetReadDeadline(time.Now().Add(pongDeadline))
}

// HubOption applies a configuration option to the Hub.
type HubOption func(*Hub)

// WithHubClock sets the clock driving the ping ticker.
func WithHubClock(c clockwork.Clock) HubOption {
	return func(h *Hub) {
		if c != nil {
			h.clock = c
		}
	}
}

// WithHubLogger sets the hub logger.
func WithHubLogger(l logger.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.log = l
		}
	}
}
