// Package services – ConversationStore
//
// ConversationStore is one support agent's live view of the support desk:
// the conversation list and the open thread. Every refresh is a full
// re-read through SupportService, triggered either by the agent's own
// actions or by realtime change events; results from a fetch that was
// overtaken by a newer one are discarded, so late completions never roll
// the view back.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-support-desk/internal/domain"
	"github.com/tbourn/go-support-desk/internal/realtime"
)

// Subscriber opens realtime change channels. *realtime.Hub implements it.
type Subscriber interface {
	Subscribe(channel, table string, f realtime.Filter, fn func(realtime.Event)) (func(), error)
}

// ConversationState is a snapshot of the store.
type ConversationState struct {
	AgentID        string                       `json:"agent_id"`
	Conversations  []domain.ConversationSummary `json:"conversations"`
	SelectedUserID string                       `json:"selected_user_id,omitempty"`
	Messages       []domain.ThreadMessage       `json:"messages"`
	Loading        bool                         `json:"loading"`
	Input          string                       `json:"input"`
}

// ConversationStore holds the agent's view. Methods are safe for concurrent use.
type ConversationStore struct {
	svc     *SupportService
	sub     Subscriber
	agentID string
	log     zerolog.Logger

	// refreshTimeout bounds reloads triggered by realtime events.
	refreshTimeout time.Duration

	mu            sync.Mutex
	state         ConversationState
	closed        bool
	listUnsub     func()
	threadUnsub   func()
	convGen       uint64
	convApplied   uint64
	threadGen     uint64
	threadApplied uint64
	onChange      func(ConversationState)
}

// NewConversationStore builds an empty store for agentID. Call Open to load
// the conversation list and start following it.
func NewConversationStore(svc *SupportService, sub Subscriber, agentID string, log zerolog.Logger) *ConversationStore {
	return &ConversationStore{
		svc:            svc,
		sub:            sub,
		agentID:        agentID,
		log:            log.With().Str("component", "conversation-store").Str("agent_id", agentID).Logger(),
		refreshTimeout: 10 * time.Second,
		state: ConversationState{
			AgentID:       agentID,
			Conversations: []domain.ConversationSummary{},
			Messages:      []domain.ThreadMessage{},
		},
	}
}

// OnChange registers fn to receive a snapshot after every state change.
// fn runs with no store lock held.
func (s *ConversationStore) OnChange(fn func(ConversationState)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Open loads the conversation list and subscribes to every support_chat
// change so the list stays current.
func (s *ConversationStore) Open(ctx context.Context) error {
	name := fmt.Sprintf("support-conversations-%s-%s", s.agentID, uuid.NewString())
	unsub, err := s.sub.Subscribe(name, "support_chat", realtime.Filter{}, func(realtime.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), s.refreshTimeout)
		defer cancel()
		s.ListConversations(ctx)
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		unsub()
		return ErrStoreClosed
	}
	s.listUnsub = unsub
	s.mu.Unlock()

	s.ListConversations(ctx)
	return nil
}

// ListConversations refreshes the conversation list and returns it. A fetch
// failure is logged, leaves the current list in place and returns an empty
// list.
func (s *ConversationStore) ListConversations(ctx context.Context) []domain.ConversationSummary {
	s.mu.Lock()
	s.convGen++
	gen := s.convGen
	s.mu.Unlock()

	list, err := s.svc.ListConversations(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("load conversations failed")
		return []domain.ConversationSummary{}
	}

	s.mu.Lock()
	if s.closed || gen < s.convApplied {
		s.mu.Unlock()
		return list
	}
	s.convApplied = gen
	s.state.Conversations = list
	snap, fn := s.snapshotLocked()
	s.mu.Unlock()

	notify(fn, snap)
	return list
}

// LoadMessages replaces the open thread with a fresh read of userID's
// messages. Results are applied only if userID is still selected and no
// newer load has been applied. On failure the current thread is kept.
func (s *ConversationStore) LoadMessages(ctx context.Context, userID string, showLoading bool) error {
	s.mu.Lock()
	s.threadGen++
	gen := s.threadGen
	var (
		snap ConversationState
		fn   func(ConversationState)
	)
	if showLoading {
		s.state.Loading = true
		snap, fn = s.snapshotLocked()
	}
	s.mu.Unlock()
	notify(fn, snap)

	msgs, err := s.svc.LoadThread(ctx, userID)

	s.mu.Lock()
	changed := false
	if showLoading {
		s.state.Loading = false
		changed = true
	}
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("load messages failed")
	} else if !s.closed && userID == s.state.SelectedUserID && gen > s.threadApplied {
		s.threadApplied = gen
		s.state.Messages = msgs
		changed = true
	}
	if changed {
		snap, fn = s.snapshotLocked()
	} else {
		fn = nil
	}
	s.mu.Unlock()
	notify(fn, snap)
	return err
}

// Select switches the open thread to userID: the previous thread channel is
// torn down first, then a channel scoped to userID is opened and the thread
// is loaded with the loading flag set. An empty userID clears the thread.
func (s *ConversationStore) Select(ctx context.Context, userID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	prev := s.threadUnsub
	s.threadUnsub = nil
	s.state.SelectedUserID = userID
	s.state.Messages = []domain.ThreadMessage{}
	// Any load still in flight belongs to the previous selection.
	s.threadApplied = s.threadGen
	s.mu.Unlock()

	if prev != nil {
		prev()
	}
	if userID == "" {
		s.emit()
		return nil
	}

	unsub, err := s.subscribeThread(userID)
	if err != nil {
		s.mu.Lock()
		if s.state.SelectedUserID == userID && s.threadUnsub == nil {
			s.state.SelectedUserID = ""
		}
		s.mu.Unlock()
		s.emit()
		return err
	}
	s.mu.Lock()
	if s.closed || s.state.SelectedUserID != userID || s.threadUnsub != nil {
		// Closed, reselected, or a concurrent Select for the same user won.
		s.mu.Unlock()
		unsub()
		return nil
	}
	s.threadUnsub = unsub
	s.mu.Unlock()

	return s.LoadMessages(ctx, userID, true)
}

// subscribeThread opens a channel for userID's rows. The name carries a
// random suffix so reselecting the same user never collides with a channel
// that is still being torn down.
func (s *ConversationStore) subscribeThread(userID string) (func(), error) {
	name := fmt.Sprintf("support-chat-%s-%s", userID, uuid.NewString())
	return s.sub.Subscribe(name, "support_chat", realtime.Eq("user_id", userID), func(realtime.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), s.refreshTimeout)
		defer cancel()
		_ = s.LoadMessages(ctx, userID, false)
		s.ListConversations(ctx)
	})
}

// SetInput stores the composer text.
func (s *ConversationStore) SetInput(text string) {
	s.mu.Lock()
	s.state.Input = text
	snap, fn := s.snapshotLocked()
	s.mu.Unlock()
	notify(fn, snap)
}

// SendMessage sends body, or the stored input when body is empty, to the
// selected thread. The input is cleared before the insert whatever its
// outcome; the thread itself is only updated by the realtime reload.
func (s *ConversationStore) SendMessage(ctx context.Context, body string) (*domain.SupportMessage, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	if body == "" {
		body = s.state.Input
	}
	userID := s.state.SelectedUserID
	if userID == "" {
		s.mu.Unlock()
		return nil, ErrNoConversation
	}
	if _, err := s.svc.validBody(body); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.state.Input = ""
	s.state.Loading = true
	snap, fn := s.snapshotLocked()
	s.mu.Unlock()
	notify(fn, snap)

	msg, err := s.svc.SendMessage(ctx, userID, s.agentID, body)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("send message failed")
	}

	s.mu.Lock()
	s.state.Loading = false
	snap, fn = s.snapshotLocked()
	s.mu.Unlock()
	notify(fn, snap)
	return msg, err
}

// SendImage uploads f and sends it as an image message to the selected thread.
func (s *ConversationStore) SendImage(ctx context.Context, f FileInput) (*domain.SupportMessage, error) {
	userID, err := s.selected()
	if err != nil {
		return nil, err
	}
	return s.svc.SendImage(ctx, userID, s.agentID, f)
}

// SendFile uploads f and sends it as a file message to the selected thread.
func (s *ConversationStore) SendFile(ctx context.Context, f FileInput) (*domain.SupportMessage, error) {
	userID, err := s.selected()
	if err != nil {
		return nil, err
	}
	return s.svc.SendFile(ctx, userID, s.agentID, f)
}

func (s *ConversationStore) selected() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrStoreClosed
	}
	if s.state.SelectedUserID == "" {
		return "", ErrNoConversation
	}
	return s.state.SelectedUserID, nil
}

// Snapshot returns a copy of the current state.
func (s *ConversationStore) Snapshot() ConversationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, _ := s.snapshotLocked()
	return snap
}

// Close tears down both channels. Later calls are no-ops.
func (s *ConversationStore) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubs := []func(){s.listUnsub, s.threadUnsub}
	s.listUnsub, s.threadUnsub = nil, nil
	s.onChange = nil
	s.mu.Unlock()

	for _, u := range unsubs {
		if u != nil {
			u()
		}
	}
}

func (s *ConversationStore) emit() {
	s.mu.Lock()
	snap, fn := s.snapshotLocked()
	s.mu.Unlock()
	notify(fn, snap)
}

func (s *ConversationStore) snapshotLocked() (ConversationState, func(ConversationState)) {
	st := s.state
	st.Conversations = append(make([]domain.ConversationSummary, 0, len(s.state.Conversations)), s.state.Conversations...)
	st.Messages = append(make([]domain.ThreadMessage, 0, len(s.state.Messages)), s.state.Messages...)
	if s.closed {
		return st, nil
	}
	return st, s.onChange
}

func notify(fn func(ConversationState), st ConversationState) {
	if fn != nil {
		fn(st)
	}
}
