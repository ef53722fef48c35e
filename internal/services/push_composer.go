// Package services – PushComposer
//
// PushComposer turns an admin-authored title and body into a push provider
// payload addressed to every subscriber. Without an API key the payload is
// only logged, which is how the admin screen behaves in development.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-support-desk/internal/observability"
)

// DefaultPushAppID is the provider application used when none is configured.
const DefaultPushAppID = "3260a824-ee35-4a20-bb87-d14e7ba0cd1b"

// DefaultPushEndpoint is the provider notifications endpoint.
const DefaultPushEndpoint = "https://onesignal.com/api/v1/notifications"

// PushPayload is the provider request body.
type PushPayload struct {
	AppID            string            `json:"app_id"`
	Headings         map[string]string `json:"headings"`
	Contents         map[string]string `json:"contents"`
	IncludedSegments []string          `json:"included_segments"`
}

// PushResult reports what Send did.
type PushResult struct {
	Payload PushPayload `json:"payload"`
	Sent    bool        `json:"sent"`
}

// PushComposer builds and delivers broadcast pushes.
type PushComposer struct {
	AppID    string
	APIKey   string
	Endpoint string
	Client   *http.Client
	Log      zerolog.Logger

	// MaxElapsed bounds retries of transient failures.
	MaxElapsed time.Duration
}

// NewPushComposer fills in the default app id, endpoint and client.
func NewPushComposer(appID, apiKey, endpoint string, log zerolog.Logger) *PushComposer {
	if appID == "" {
		appID = DefaultPushAppID
	}
	if endpoint == "" {
		endpoint = DefaultPushEndpoint
	}
	return &PushComposer{
		AppID:      appID,
		APIKey:     apiKey,
		Endpoint:   endpoint,
		Client:     &http.Client{Timeout: 10 * time.Second},
		Log:        log.With().Str("component", "push").Logger(),
		MaxElapsed: 30 * time.Second,
	}
}

// Compose validates title and body and builds the payload.
func (p *PushComposer) Compose(title, body string) (PushPayload, error) {
	title, body = strings.TrimSpace(title), strings.TrimSpace(body)
	if title == "" || body == "" {
		return PushPayload{}, ErrMessageRequired
	}
	return PushPayload{
		AppID:            p.AppID,
		Headings:         map[string]string{"en": title},
		Contents:         map[string]string{"en": body},
		IncludedSegments: []string{"All"},
	}, nil
}

// Send composes and delivers a push. Provider 4xx responses are not retried.
func (p *PushComposer) Send(ctx context.Context, title, body string) (PushResult, error) {
	payload, err := p.Compose(title, body)
	if err != nil {
		return PushResult{}, err
	}
	if p.APIKey == "" {
		p.Log.Info().Interface("payload", payload).Msg("push api key not configured; payload not sent")
		return PushResult{Payload: payload}, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return PushResult{}, err
	}
	op := func() error { return p.post(ctx, raw) }

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = p.MaxElapsed
	notify := func(err error, wait time.Duration) {
		p.Log.Warn().Err(err).Dur("retry_in", wait).Msg("push delivery failed")
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), notify); err != nil {
		return PushResult{Payload: payload}, fmt.Errorf("send push: %w", err)
	}
	observability.Notifications.WithLabelValues("push").Inc()
	return PushResult{Payload: payload, Sent: true}, nil
}

func (p *PushComposer) post(ctx context.Context, raw []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(raw))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Basic "+p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		return backoff.Permanent(fmt.Errorf("push provider: %s: %s", resp.Status, bytes.TrimSpace(msg)))
	default:
		return fmt.Errorf("push provider: %s", resp.Status)
	}
}
