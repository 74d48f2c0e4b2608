// Package sse implements a Server-Sent Events broker that tells the UI which
// notes changed and when the tree or graph views should refresh.
//
// Every frame carries a sequence id. A client reconnecting with
// Last-Event-ID gets the frames it missed from a bounded history, or a
// single resync event when the gap is no longer covered.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Note change kinds.
const (
	KindCreated  = "created"
	KindUpdated  = "updated"
	KindRenamed  = "renamed"
	KindMoved    = "moved"
	KindTrashed  = "trashed"
	KindRestored = "restored"
	KindDeleted  = "deleted"
)

// Event types broadcast alongside note events.
const (
	TypeTreeUpdated  = "tree.updated"
	TypeGraphUpdated = "graph.updated"
	// TypeResync asks a client to reload everything; its missed events are gone.
	TypeResync = "resync"
)

const (
	defaultThrottle  = 2 * time.Second
	defaultHeartbeat = 15 * time.Second
	defaultHistory   = 128
	clientBuffer     = 64
)

// changesTree reports whether a note change alters the tree view.
func changesTree(kind string) bool {
	return kind != KindUpdated
}

// changesGraph reports whether a note change can alter the link graph.
func changesGraph(kind string) bool {
	return kind != KindMoved
}

// Event represents an SSE event to broadcast.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type noteEventReq struct {
	kind   string
	noteID string
}

type subscribeReq struct {
	ch     chan []byte
	lastID uint64
	replay bool
}

type frame struct {
	id  uint64
	raw []byte
}

// Option configures a Broker.
type Option func(*Broker)

// WithHeartbeat sets how often an idle stream gets a comment line. Zero
// disables heartbeats.
func WithHeartbeat(d time.Duration) Option {
	return func(b *Broker) {
		if d >= 0 {
			b.heartbeat = d
		}
	}
}

// WithHistory sets how many frames are kept for Last-Event-ID replay.
func WithHistory(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.historySize = n
		}
	}
}

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop goroutine owns the clients, the frame history and the
// view throttles. Public methods talk to it through channels.
type Broker struct {
	throttle    time.Duration
	heartbeat   time.Duration
	historySize int

	subscribeCh   chan subscribeReq
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	noteEventCh   chan noteEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. tree.updated and graph.updated are each
// sent at most once per throttle interval.
func NewBroker(throttle time.Duration, opts ...Option) *Broker {
	if throttle <= 0 {
		throttle = defaultThrottle
	}

	b := &Broker{
		throttle:      throttle,
		heartbeat:     defaultHeartbeat,
		historySize:   defaultHistory,
		subscribeCh:   make(chan subscribeReq),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		noteEventCh:   make(chan noteEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	go b.run()
	return b
}

func encode(id uint64, event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)), nil
	}
	return []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", id, event.Type, payload)), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	history := make([]frame, 0, b.historySize)
	var seq uint64
	treeRefresh := rate.Sometimes{Interval: b.throttle}
	graphRefresh := rate.Sometimes{Interval: b.throttle}

	send := func(ch chan []byte, raw []byte) {
		select {
		case ch <- raw:
		default:
			// Client buffer full; the client will resync on reconnect.
		}
	}

	broadcast := func(event Event) {
		raw, err := encode(seq+1, event)
		if err != nil {
			return
		}
		seq++
		if len(history) == b.historySize {
			copy(history, history[1:])
			history = history[:len(history)-1]
		}
		history = append(history, frame{id: seq, raw: raw})
		for ch := range clients {
			send(ch, raw)
		}
	}

	// replay sends the frames after lastID, or a resync event when history
	// no longer reaches back that far or lastID is from another broker.
	replay := func(ch chan []byte, lastID uint64) {
		if lastID == seq {
			return
		}
		if lastID > seq || len(history) == 0 || history[0].id > lastID+1 {
			raw, _ := encode(0, Event{Type: TypeResync, Data: map[string]uint64{"id": seq}})
			send(ch, raw)
			return
		}
		for _, f := range history {
			if f.id > lastID {
				send(ch, f.raw)
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case req := <-b.subscribeCh:
			clients[req.ch] = struct{}{}
			if req.replay {
				replay(req.ch, req.lastID)
			}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.noteEventCh:
			broadcast(Event{Type: "note." + req.kind, Data: map[string]string{"id": req.noteID}})
			if changesTree(req.kind) {
				treeRefresh.Do(func() {
					broadcast(Event{Type: TypeTreeUpdated, Data: map[string]string{}})
				})
			}
			if changesGraph(req.kind) {
				graphRefresh.Do(func() {
					broadcast(Event{Type: TypeGraphUpdated, Data: map[string]string{}})
				})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client that receives events from now on.
func (b *Broker) Subscribe() chan []byte {
	return b.subscribe(subscribeReq{})
}

// SubscribeFrom adds a client and first replays the frames published after
// lastID.
func (b *Broker) SubscribeFrom(lastID uint64) chan []byte {
	return b.subscribe(subscribeReq{lastID: lastID, replay: true})
}

func (b *Broker) subscribe(req subscribeReq) chan []byte {
	req.ch = make(chan []byte, clientBuffer+b.historySize)
	if b.closed.Load() {
		close(req.ch)
		return req.ch
	}

	select {
	case b.subscribeCh <- req:
	case <-b.stopped:
		close(req.ch)
	}
	return req.ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishNoteEvent publishes note.<kind> for noteID followed by throttled
// tree.updated and graph.updated events where the change affects those views.
func (b *Broker) PublishNoteEvent(kind, noteID string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.noteEventCh <- noteEventReq{kind: kind, noteID: noteID}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). A numeric
// Last-Event-ID header triggers replay.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var ch chan []byte
	if lastID, err := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64); err == nil {
		ch = b.SubscribeFrom(lastID)
	} else {
		ch = b.Subscribe()
	}
	defer b.Unsubscribe(ch)

	var tick <-chan time.Time
	if b.heartbeat > 0 {
		ticker := time.NewTicker(b.heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
