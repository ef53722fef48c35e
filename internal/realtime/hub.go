// Package realtime is the change feed behind every live view: named channels
// subscribe to a table (optionally narrowed by a column=value filter) and
// receive insert/update/delete notifications after the write commits.
//
// Delivery is asynchronous and ordered per subscription. Each subscription
// owns a buffered channel drained by one goroutine; when the buffer is full
// the event is dropped and counted. Every consumer in this service reacts to
// an event with a full reload, so a dropped event only delays a refresh.
package realtime

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-support-desk/internal/observability"
)

// EventType is the kind of change carried by an Event.
type EventType string

const (
	Insert    EventType = "INSERT"
	Update    EventType = "UPDATE"
	Delete    EventType = "DELETE"
	Broadcast EventType = "BROADCAST"
)

// AnyTable subscribes to every table.
const AnyTable = "*"

// DefaultBuffer is the per-subscription queue length.
const DefaultBuffer = 64

// ErrChannelExists is returned when a live subscription already uses the name.
var ErrChannelExists = errors.New("realtime: channel already subscribed")

// ErrClosed is returned by Subscribe after Close.
var ErrClosed = errors.New("realtime: hub closed")

// Event is one change notification.
type Event struct {
	Table  string            `json:"table"`
	Type   EventType         `json:"type"`
	Keys   map[string]string `json:"keys,omitempty"`
	Record json.RawMessage   `json:"record,omitempty"`
	At     time.Time         `json:"at"`
	Origin string            `json:"origin,omitempty"`
}

// Filter narrows a subscription to events whose key Column equals Value.
// The zero Filter matches everything.
type Filter struct {
	Column string
	Value  string
}

// Eq builds an equality filter.
func Eq(column, value string) Filter { return Filter{Column: column, Value: value} }

// ParseFilter accepts "column=value" and the PostgREST-style
// "column=eq.value". An empty string yields the zero Filter.
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Filter{}, nil
	}
	col, val, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(col) == "" {
		return Filter{}, errors.New("realtime: filter must be column=value")
	}
	val = strings.TrimPrefix(val, "eq.")
	return Filter{Column: strings.TrimSpace(col), Value: val}, nil
}

// Match reports whether ev passes the filter. Events that carry no value for
// the filtered column are delivered; the subscriber's reload sorts them out.
func (f Filter) Match(ev Event) bool {
	if f.Column == "" {
		return true
	}
	v, ok := ev.Keys[f.Column]
	if !ok || v == "" {
		return true
	}
	return v == f.Value
}

// Publisher accepts events. It returns how many subscriptions queued the event.
type Publisher interface {
	Publish(ev Event) int
}

type subscription struct {
	name    string
	table   string
	filter  Filter
	ch      chan Event
	fn      func(Event)
	stopped atomic.Bool
}

func (s *subscription) run(log zerolog.Logger) {
	for ev := range s.ch {
		if s.stopped.Load() {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Str("channel", s.name).Msg("realtime handler panic")
				}
			}()
			s.fn(ev)
		}()
	}
}

// Hub fans events out to named subscriptions.
type Hub struct {
	id     string
	buffer int
	log    zerolog.Logger

	mu     sync.Mutex
	subs   map[string]*subscription
	taps   []func(Event)
	closed bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithBuffer sets the per-subscription queue length.
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// NewHub builds an empty hub with a random instance id.
func NewHub(log zerolog.Logger, opts ...Option) *Hub {
	h := &Hub{
		id:     uuid.NewString(),
		buffer: DefaultBuffer,
		log:    log.With().Str("component", "realtime").Logger(),
		subs:   make(map[string]*subscription),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// ID identifies this hub instance in Event.Origin.
func (h *Hub) ID() string { return h.id }

// Subscribe registers fn under a unique channel name. The returned function
// tears the subscription down; it is safe to call more than once. No event is
// handed to fn after it returns.
func (h *Hub) Subscribe(channel, table string, f Filter, fn func(Event)) (func(), error) {
	if channel == "" || fn == nil {
		return nil, errors.New("realtime: channel name and handler are required")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	if _, dup := h.subs[channel]; dup {
		return nil, ErrChannelExists
	}
	s := &subscription{
		name:   channel,
		table:  table,
		filter: f,
		ch:     make(chan Event, h.buffer),
		fn:     fn,
	}
	h.subs[channel] = s
	go s.run(h.log)

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(s) })
	}, nil
}

func (h *Hub) remove(s *subscription) {
	s.stopped.Store(true)
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.subs[s.name]; ok && cur == s {
		delete(h.subs, s.name)
		close(s.ch)
	}
}

// Publish stamps missing At/Origin and queues ev on every matching
// subscription without blocking.
func (h *Hub) Publish(ev Event) int {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if ev.Origin == "" {
		ev.Origin = h.id
	}

	h.mu.Lock()
	taps := h.taps
	accepted := 0
	for _, s := range h.subs {
		if s.table != AnyTable && s.table != ev.Table {
			continue
		}
		if !s.filter.Match(ev) {
			continue
		}
		select {
		case s.ch <- ev:
			accepted++
		default:
			observability.RealtimeDropped.Inc()
			h.log.Warn().Str("channel", s.name).Str("table", ev.Table).Msg("subscriber buffer full; event dropped")
		}
	}
	h.mu.Unlock()

	observability.RealtimeEvents.WithLabelValues(ev.Table, string(ev.Type)).Inc()
	for _, tap := range taps {
		tap(ev)
	}
	return accepted
}

// Tap registers fn to observe every published event synchronously, after
// fan-out. Used by bridges that forward events elsewhere.
func (h *Hub) Tap(fn func(Event)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.taps = append(append([]func(Event){}, h.taps...), fn)
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close tears down every subscription. Later Subscribe calls fail.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for name, s := range h.subs {
		s.stopped.Store(true)
		close(s.ch)
		delete(h.subs, name)
	}
}
