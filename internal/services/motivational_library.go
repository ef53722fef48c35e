// Package services – MotivationalLibrary
//
// MotivationalLibrary keeps the admin-editable list of motivational
// notifications in the key-value store, falling back to the built-in set
// when nothing usable is stored.
package services

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-support-desk/internal/kvstore"
)

// KeyMotivationalMessages is the kvstore key holding the library as a JSON array.
const KeyMotivationalMessages = "motivational_messages"

// MotivationalMessage is one entry of the library.
type MotivationalMessage struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

var defaultMotivational = [][2]string{
	{"Você está no caminho certo! 🚀", "Continue focado, cada passo conta!"},
	{"Hora de brilhar! ✨", "Sua dedicação vai te levar longe!"},
	{"Não desista! 💪", "Os melhores resultados vêm com persistência."},
	{"Você é incrível! 🌟", "Acredite no seu potencial ilimitado!"},
	{"Foco total! 🎯", "Mantenha os olhos no objetivo!"},
	{"Energia positiva! ⚡", "Hoje é dia de fazer acontecer!"},
	{"Momento de ação! 🔥", "Transforme seus sonhos em realidade!"},
	{"Você consegue! 🏆", "Campeões nunca desistem!"},
	{"Inspire-se! 💡", "Cada dia é uma nova oportunidade!"},
	{"Vamos juntos! 🤝", "A comunidade está com você!"},
	{"Supere seus limites! 🦅", "Você é mais forte do que imagina!"},
	{"Acredite mais! 💎", "Seu esforço será recompensado!"},
	{"Momento de crescer! 🌱", "Evolua um pouco mais hoje!"},
	{"Você é especial! ⭐", "Sua jornada é única e valiosa!"},
	{"Continue firme! 🛡️", "A consistência é a chave do sucesso!"},
}

// DefaultMotivationalMessages returns the built-in library with ids "1".."15".
func DefaultMotivationalMessages() []MotivationalMessage {
	out := make([]MotivationalMessage, len(defaultMotivational))
	for i, m := range defaultMotivational {
		out[i] = MotivationalMessage{ID: strconv.Itoa(i + 1), Title: m[0], Body: m[1]}
	}
	return out
}

// MotivationalLibrary is the editable message list. An absent, empty or
// unreadable entry reads as the defaults.
type MotivationalLibrary struct {
	KV  kvstore.Store
	Log zerolog.Logger
	Now func() time.Time

	mu     sync.Mutex
	intn   func(int) int
	lastID int64
}

// NewMotivationalLibrary constructs a library backed by kv.
func NewMotivationalLibrary(kv kvstore.Store, log zerolog.Logger) *MotivationalLibrary {
	return &MotivationalLibrary{
		KV:   kv,
		Log:  log.With().Str("component", "motivational").Logger(),
		Now:  time.Now,
		intn: rand.Intn,
	}
}

// List returns the current messages.
func (l *MotivationalLibrary) List(ctx context.Context) []MotivationalMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

func (l *MotivationalLibrary) load(ctx context.Context) []MotivationalMessage {
	raw, ok, err := l.KV.Get(ctx, KeyMotivationalMessages)
	if err != nil {
		l.Log.Error().Err(err).Msg("load motivational messages")
		return DefaultMotivationalMessages()
	}
	if !ok {
		return DefaultMotivationalMessages()
	}
	var msgs []MotivationalMessage
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		l.Log.Error().Err(err).Msg("stored motivational messages are corrupt, using defaults")
		return DefaultMotivationalMessages()
	}
	if len(msgs) == 0 {
		return DefaultMotivationalMessages()
	}
	return msgs
}

func (l *MotivationalLibrary) save(ctx context.Context, msgs []MotivationalMessage) error {
	b, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	return l.KV.Set(ctx, KeyMotivationalMessages, string(b))
}

// Add appends a message with a millisecond timestamp id.
func (l *MotivationalLibrary) Add(ctx context.Context, title, body string) (MotivationalMessage, error) {
	title, body = strings.TrimSpace(title), strings.TrimSpace(body)
	if title == "" || body == "" {
		return MotivationalMessage{}, ErrMessageRequired
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.Now().UnixMilli()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	l.lastID = id

	m := MotivationalMessage{ID: strconv.FormatInt(id, 10), Title: title, Body: body}
	if err := l.save(ctx, append(l.load(ctx), m)); err != nil {
		return MotivationalMessage{}, err
	}
	return m, nil
}

// Remove deletes the message with id. The last remaining message cannot be removed.
func (l *MotivationalLibrary) Remove(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	msgs := l.load(ctx)
	if len(msgs) <= 1 {
		return ErrLastMessage
	}
	kept := msgs[:0:0]
	for _, m := range msgs {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(msgs) {
		return ErrLibraryMessageNotFound
	}
	return l.save(ctx, kept)
}

// Random picks a message uniformly.
func (l *MotivationalLibrary) Random(ctx context.Context) MotivationalMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	msgs := l.load(ctx)
	return msgs[l.intn(len(msgs))]
}
