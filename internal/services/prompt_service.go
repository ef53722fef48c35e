// Package services – PromptService
//
// PromptService decides when the push opt-in prompt is offered.
package services

import (
	"context"

	"github.com/tbourn/go-support-desk/internal/kvstore"
)

// KeyPromptDismissed marks the notification opt-in prompt as dismissed.
const KeyPromptDismissed = "notification-prompt-dismissed"

// PromptService decides whether the push opt-in prompt is shown. Dismissals
// are scoped to a client session.
type PromptService struct {
	KV kvstore.Store
}

func promptKey(session string) string {
	if session == "" {
		return KeyPromptDismissed
	}
	return KeyPromptDismissed + ":" + session
}

// ShouldShow reports true only for supported, unsubscribed clients that have
// not dismissed the prompt in this session. Store errors hide the prompt.
func (p *PromptService) ShouldShow(ctx context.Context, supported, subscribed bool, session string) bool {
	if !supported || subscribed {
		return false
	}
	v, ok, err := p.KV.Get(ctx, promptKey(session))
	if err != nil {
		return false
	}
	return !ok || v != "true"
}

// Dismiss hides the prompt for the rest of the session.
func (p *PromptService) Dismiss(ctx context.Context, session string) error {
	return p.KV.Set(ctx, promptKey(session), "true")
}
