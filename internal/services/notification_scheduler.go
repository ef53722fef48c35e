// Package services – MotivationalScheduler
//
// MotivationalScheduler implements the "receive motivation" action: a single
// countdown-gated schedule that, once the delay elapses, delivers a random
// library message through the native bridge and falls back to a browser
// notification. Delivery channels are reached through the realtime hub; the
// connected client shells listen on the notifications stream and act on the
// broadcast events.
package services

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-support-desk/internal/kvstore"
	"github.com/tbourn/go-support-desk/internal/observability"
	"github.com/tbourn/go-support-desk/internal/realtime"
)

// Countdown is the number of ticks shown while a notification is scheduled.
const Countdown = 5

// NotificationIcon is the icon shown on browser notifications.
const NotificationIcon = "/pwa-192x192.png"

// Broadcast event names and listener channels on the notifications stream.
const (
	EventHaptic            = "haptic"
	EventLocalPush         = "localpush"
	EventNotification      = "notification"
	EventPermissionRequest = "permission_request"

	ChannelNative  = "native"
	ChannelBrowser = "browser"
)

// KeyNotificationPermission holds the browser permission last reported by the client.
const KeyNotificationPermission = "notification-permission"

// Permission mirrors the browser notification permission states.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// ParsePermission maps unknown values to PermissionDefault.
func ParsePermission(s string) Permission {
	switch p := Permission(strings.ToLower(strings.TrimSpace(s))); p {
	case PermissionGranted, PermissionDenied:
		return p
	}
	return PermissionDefault
}

// Haptics triggers device vibration. Styles are "light" and "medium".
type Haptics interface {
	Pulse(ctx context.Context, style string) error
}

// NativeBridge opens a native-shell URL such as localpush://<title>/<body>.
type NativeBridge interface {
	Open(ctx context.Context, rawURL string) error
}

// BrowserNotifier displays standard browser notifications.
type BrowserNotifier interface {
	Permission(ctx context.Context) (Permission, error)
	RequestPermission(ctx context.Context) (Permission, error)
	Show(ctx context.Context, title, body, icon string) error
}

// BroadcastBridge implements Haptics, NativeBridge and BrowserNotifier by
// publishing broadcast events for connected client shells. A publish that
// no listener accepted counts as "unavailable".
type BroadcastBridge struct {
	Pub realtime.Publisher
	KV  kvstore.Store
}

func (b *BroadcastBridge) publish(channel, event string, payload any) int {
	raw, _ := json.Marshal(payload)
	return b.Pub.Publish(realtime.Event{
		Table:  BroadcastTable,
		Type:   realtime.Broadcast,
		Keys:   map[string]string{"event": event, "channel": channel},
		Record: raw,
	})
}

func (b *BroadcastBridge) Pulse(_ context.Context, style string) error {
	if b.publish(ChannelNative, EventHaptic, map[string]string{"url": style + "haptic://"}) == 0 {
		return ErrNativeUnavailable
	}
	return nil
}

func (b *BroadcastBridge) Open(_ context.Context, rawURL string) error {
	if b.publish(ChannelNative, EventLocalPush, map[string]string{"url": rawURL}) == 0 {
		return ErrNativeUnavailable
	}
	return nil
}

// Permission returns the permission last reported by the client.
func (b *BroadcastBridge) Permission(ctx context.Context) (Permission, error) {
	v, ok, err := b.KV.Get(ctx, KeyNotificationPermission)
	if err != nil || !ok {
		return PermissionDefault, err
	}
	return ParsePermission(v), nil
}

// SetPermission records the permission reported by the client.
func (b *BroadcastBridge) SetPermission(ctx context.Context, p Permission) error {
	return b.KV.Set(ctx, KeyNotificationPermission, string(p))
}

// RequestPermission asks connected browsers to prompt the user. The answer
// arrives later through SetPermission, so the current value is returned.
func (b *BroadcastBridge) RequestPermission(ctx context.Context) (Permission, error) {
	if b.publish(ChannelBrowser, EventPermissionRequest, struct{}{}) == 0 {
		return PermissionDefault, ErrNotificationsUnsupported
	}
	return b.Permission(ctx)
}

func (b *BroadcastBridge) Show(_ context.Context, title, body, icon string) error {
	n := b.publish(ChannelBrowser, EventNotification, map[string]string{
		"title": title, "body": body, "icon": icon, "badge": icon,
	})
	if n == 0 {
		return ErrNotificationsUnsupported
	}
	return nil
}

// SchedulerState is the externally visible scheduler state.
type SchedulerState struct {
	Scheduled   bool                 `json:"scheduled"`
	Countdown   int                  `json:"countdown"`
	LastChannel string               `json:"last_channel,omitempty"`
	LastMessage *MotivationalMessage `json:"last_message,omitempty"`
}

// MotivationalScheduler runs at most one countdown at a time.
type MotivationalScheduler struct {
	Library *MotivationalLibrary
	Haptics Haptics
	Native  NativeBridge
	Browser BrowserNotifier
	Log     zerolog.Logger

	// Delay is the wait before delivery; Tick is the countdown step.
	Delay time.Duration
	Tick  time.Duration

	mu    sync.Mutex
	state SchedulerState
	wg    sync.WaitGroup
}

// NewMotivationalScheduler wires a scheduler whose delivery channels all go
// through bridge.
func NewMotivationalScheduler(lib *MotivationalLibrary, bridge *BroadcastBridge, delay, tick time.Duration, log zerolog.Logger) *MotivationalScheduler {
	return &MotivationalScheduler{
		Library: lib,
		Haptics: bridge,
		Native:  bridge,
		Browser: bridge,
		Log:     log.With().Str("component", "motivational-scheduler").Logger(),
		Delay:   delay,
		Tick:    tick,
	}
}

// Trigger schedules a notification. It reports false, changing nothing,
// when one is already scheduled. The schedule cannot be cancelled.
func (s *MotivationalScheduler) Trigger(ctx context.Context) bool {
	s.mu.Lock()
	if s.state.Scheduled {
		s.mu.Unlock()
		return false
	}
	s.state.Scheduled = true
	s.state.Countdown = Countdown
	s.wg.Add(1)
	s.mu.Unlock()

	if err := s.Haptics.Pulse(ctx, "light"); err != nil {
		s.Log.Debug().Err(err).Msg("light haptic unavailable")
	}
	go s.run()
	return true
}

// Status returns a copy of the current state.
func (s *MotivationalScheduler) Status() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	if st.LastMessage != nil {
		m := *st.LastMessage
		st.LastMessage = &m
	}
	return st
}

// Wait blocks until the active schedule, if any, has finished.
func (s *MotivationalScheduler) Wait() { s.wg.Wait() }

func (s *MotivationalScheduler) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.Tick)
	defer ticker.Stop()
	timer := time.NewTimer(s.Delay)
	defer timer.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			if s.state.Countdown > 0 {
				s.state.Countdown--
			}
			s.mu.Unlock()
		case <-timer.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			msg, channel := s.deliver(ctx)
			cancel()

			s.mu.Lock()
			s.state = SchedulerState{LastChannel: channel, LastMessage: &msg}
			s.mu.Unlock()
			return
		}
	}
}

// deliver tries the native bridge, then the browser. It returns the channel
// that displayed the message, or "none".
func (s *MotivationalScheduler) deliver(ctx context.Context) (MotivationalMessage, string) {
	msg := s.Library.Random(ctx)

	nativeURL := "localpush://" + encodeURIComponent(msg.Title) + "/" + encodeURIComponent(msg.Body)
	err := s.Native.Open(ctx, nativeURL)
	if err == nil {
		if herr := s.Haptics.Pulse(ctx, "medium"); herr != nil {
			s.Log.Debug().Err(herr).Msg("medium haptic unavailable")
		}
		observability.Notifications.WithLabelValues(ChannelNative).Inc()
		return msg, ChannelNative
	}
	s.Log.Debug().Err(err).Msg("native delivery failed, falling back to browser")

	channel := "none"
	perm, err := s.Browser.Permission(ctx)
	if err != nil {
		s.Log.Warn().Err(err).Msg("read notification permission")
	}
	switch perm {
	case PermissionGranted:
		if err := s.Browser.Show(ctx, msg.Title, msg.Body, NotificationIcon); err == nil {
			channel = ChannelBrowser
		}
	case PermissionDenied:
	default:
		if p, err := s.Browser.RequestPermission(ctx); err == nil && p == PermissionGranted {
			if err := s.Browser.Show(ctx, msg.Title, msg.Body, NotificationIcon); err == nil {
				channel = ChannelBrowser
			}
		}
	}
	observability.Notifications.WithLabelValues(channel).Inc()
	return msg, channel
}

// encodeURIComponent escapes s for use as one URL component, encoding
// spaces as %20.
func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
