// Package services – SettingsService
//
// SettingsService reads and writes the flat support_settings table and
// derives the process-wide theme from a subset of its keys. Reads degrade to
// built-in defaults; writes upsert by key and report a missing table
// distinctly so the operator knows to provision it.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-support-desk/internal/domain"
	"github.com/tbourn/go-support-desk/internal/realtime"
	"github.com/tbourn/go-support-desk/internal/repo"
)

// Setting keys.
const (
	KeyPrimaryHue        = "app_primary_hue"
	KeyPrimarySaturation = "app_primary_saturation"
	KeyPrimaryLightness  = "app_primary_lightness"
	KeyAppName           = "app_name"
	KeyCommunityName     = "community_name"
	KeyAutoReplyEnabled  = "auto_reply_enabled"
	KeyAutoReplyMessage  = "auto_reply_message"
)

// DefaultAutoReplyMessage is sent when auto-reply is on and no message is set.
const DefaultAutoReplyMessage = "Olá! Recebemos sua mensagem. Nossa equipe de suporte responderá em até 10 minutos. Obrigado pela paciência! 🙏"

const autoReplyDescription = "Controla se a mensagem automática de suporte está ativada"

// BroadcastTable is the pseudo-table used for in-process broadcast events.
const BroadcastTable = "broadcast"

// EventThemeReload is the broadcast event telling clients to re-apply the theme.
const EventThemeReload = "theme_reload"

var themeKeys = []string{KeyPrimaryHue, KeyPrimarySaturation, KeyPrimaryLightness, KeyAppName, KeyCommunityName}

// Theme is the presentation subset of the settings.
type Theme struct {
	PrimaryHue        int    `json:"primary_hue"`
	PrimarySaturation int    `json:"primary_saturation"`
	PrimaryLightness  int    `json:"primary_lightness"`
	AppName           string `json:"app_name"`
	CommunityName     string `json:"community_name"`
}

// DefaultTheme is returned whenever settings cannot be read.
func DefaultTheme() Theme {
	return Theme{
		PrimaryHue:        25,
		PrimarySaturation: 95,
		PrimaryLightness:  53,
		AppName:           "Sociedade Nutra",
		CommunityName:     "Comunidade dos Sócios",
	}
}

// ThemePatch carries the fields to write; nil fields are left alone.
type ThemePatch struct {
	PrimaryHue        *int    `json:"primary_hue"`
	PrimarySaturation *int    `json:"primary_saturation"`
	PrimaryLightness  *int    `json:"primary_lightness"`
	AppName           *string `json:"app_name"`
	CommunityName     *string `json:"community_name"`
}

// Palette is the applied theme: the source values plus the derived
// presentation variables.
type Palette struct {
	Theme Theme             `json:"theme"`
	Vars  map[string]string `json:"vars"`
}

// DerivePalette computes the presentation variables for t.
func DerivePalette(t Theme) Palette {
	hsl := func(l int) string {
		return fmt.Sprintf("%d %d%% %d%%", t.PrimaryHue, t.PrimarySaturation, l)
	}
	l := t.PrimaryLightness
	primary := hsl(l)
	return Palette{
		Theme: t,
		Vars: map[string]string{
			"--primary":   primary,
			"--secondary": hsl(max(l-8, 40)),
			"--ring":      primary,
			"--gradient-primary": fmt.Sprintf("linear-gradient(135deg, hsl(%s) 0%%, hsl(%s) 100%%)",
				hsl(max(l-3, 50)), hsl(min(l+7, 60))),
			"--sidebar-primary": primary,
			"--sidebar-ring":    primary,
			"--primary-dark":    hsl(min(l+2, 55)),
		},
	}
}

// ThemeContext holds the single applied palette. Only SettingsService writes it.
type ThemeContext struct {
	p atomic.Pointer[Palette]
}

// Current returns the applied palette, or the default one before any Apply.
func (c *ThemeContext) Current() Palette {
	if p := c.p.Load(); p != nil {
		return *p
	}
	return DerivePalette(DefaultTheme())
}

func (c *ThemeContext) store(p Palette) { c.p.Store(&p) }

// SettingsService reads and writes support_settings.
type SettingsService struct {
	DB  *gorm.DB
	Pub realtime.Publisher
	Log zerolog.Logger

	// ReloadDelay separates a successful theme write from the reload broadcast.
	ReloadDelay time.Duration

	theme     ThemeContext
	afterFunc func(time.Duration, func())
}

// NewSettingsService applies the default theme so readers never see an empty palette.
func NewSettingsService(db *gorm.DB, pub realtime.Publisher, reloadDelay time.Duration, log zerolog.Logger) *SettingsService {
	s := &SettingsService{
		DB:          db,
		Pub:         pub,
		Log:         log.With().Str("component", "settings").Logger(),
		ReloadDelay: reloadDelay,
		afterFunc:   func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
	s.Apply(DefaultTheme())
	return s
}

// Theme returns the process-wide theme context.
func (s *SettingsService) Theme() *ThemeContext { return &s.theme }

// Read fetches the theme keys in one query. Any failure, including a missing
// table, yields DefaultTheme.
func (s *SettingsService) Read(ctx context.Context) Theme {
	tr := otel.Tracer("services/SettingsService")
	ctx, span := tr.Start(ctx, "Read")
	defer span.End()

	rows, err := repo.ListSettings(ctx, s.DB, themeKeys...)
	if err != nil {
		s.Log.Warn().Err(err).Msg("theme settings unavailable, using defaults")
		return DefaultTheme()
	}
	return themeFromRows(rows)
}

func themeFromRows(rows []domain.SupportSetting) Theme {
	t := DefaultTheme()
	def := DefaultTheme()
	for _, r := range rows {
		switch r.Key {
		case KeyPrimaryHue:
			t.PrimaryHue = intOr(r.Value, def.PrimaryHue)
		case KeyPrimarySaturation:
			t.PrimarySaturation = intOr(r.Value, def.PrimarySaturation)
		case KeyPrimaryLightness:
			t.PrimaryLightness = intOr(r.Value, def.PrimaryLightness)
		case KeyAppName:
			t.AppName = stringOr(r.Value, def.AppName)
		case KeyCommunityName:
			t.CommunityName = stringOr(r.Value, def.CommunityName)
		}
	}
	return t
}

// Write stores each field present in patch, one key at a time. On success a
// theme reload is broadcast after ReloadDelay.
func (s *SettingsService) Write(ctx context.Context, patch ThemePatch) error {
	tr := otel.Tracer("services/SettingsService")
	ctx, span := tr.Start(ctx, "Write")
	defer span.End()

	updates, err := patchUpdates(patch)
	if err != nil {
		return err
	}
	for _, u := range updates {
		if err := s.Update(ctx, u[0], u[1]); err != nil {
			return err
		}
	}
	if len(updates) > 0 {
		s.scheduleReload()
	}
	return nil
}

func patchUpdates(p ThemePatch) ([][2]string, error) {
	var out [][2]string
	addInt := func(key string, v *int, hi int) error {
		if v == nil {
			return nil
		}
		if *v < 0 || *v > hi {
			return fmt.Errorf("%w: %s must be between 0 and %d", ErrInvalidTheme, key, hi)
		}
		out = append(out, [2]string{key, strconv.Itoa(*v)})
		return nil
	}
	addString := func(key string, v *string) error {
		if v == nil {
			return nil
		}
		if strings.TrimSpace(*v) == "" {
			return fmt.Errorf("%w: %s must not be blank", ErrInvalidTheme, key)
		}
		out = append(out, [2]string{key, strings.TrimSpace(*v)})
		return nil
	}
	if err := errors.Join(
		addInt(KeyPrimaryHue, p.PrimaryHue, 360),
		addInt(KeyPrimarySaturation, p.PrimarySaturation, 100),
		addInt(KeyPrimaryLightness, p.PrimaryLightness, 100),
		addString(KeyAppName, p.AppName),
		addString(KeyCommunityName, p.CommunityName),
	); err != nil {
		return nil, err
	}
	return out, nil
}

// scheduleReload re-reads and applies the theme after ReloadDelay, then
// broadcasts a reload to connected clients.
func (s *SettingsService) scheduleReload() {
	s.afterFunc(s.ReloadDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Refresh(ctx)
		if s.Pub == nil {
			return
		}
		s.Pub.Publish(realtime.Event{
			Table: BroadcastTable,
			Type:  realtime.Broadcast,
			Keys:  map[string]string{"event": EventThemeReload},
		})
	})
}

// Apply derives the palette for t and installs it as the current theme.
func (s *SettingsService) Apply(t Theme) Palette {
	p := DerivePalette(t)
	s.theme.store(p)
	return p
}

// Refresh reads and applies the theme.
func (s *SettingsService) Refresh(ctx context.Context) Palette {
	return s.Apply(s.Read(ctx))
}

// Watch re-applies the theme whenever a settings row changes. The returned
// function stops watching.
func (s *SettingsService) Watch(sub Subscriber) (func(), error) {
	name := fmt.Sprintf("support-settings-%d", time.Now().UnixNano())
	return sub.Subscribe(name, "support_settings", realtime.Filter{}, func(realtime.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Refresh(ctx)
	})
}

// All returns every setting as a key/value map.
func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	rows, err := repo.ListSettings(ctx, s.DB)
	if err != nil {
		if repo.IsMissingTable(err) {
			return nil, s.missingTable()
		}
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// Update writes value under key: an existing row is updated, otherwise a
// new row is inserted. The check and the write are not serialized, so
// concurrent writers to one key resolve last-write-wins.
func (s *SettingsService) Update(ctx context.Context, key, value string) error {
	tr := otel.Tracer("services/SettingsService")
	ctx, span := tr.Start(ctx, "Update", trace.WithAttributes(attribute.String("setting.key", key)))
	defer span.End()

	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptySettingKey
	}
	existing, err := repo.GetSettingByKey(ctx, s.DB, key)
	switch {
	case err == nil:
		err = repo.UpdateSettingValue(ctx, s.DB, existing.ID, value)
	case errors.Is(err, repo.ErrNotFound):
		_, err = repo.InsertSetting(ctx, s.DB, key, value, nil)
	}
	if err != nil {
		if repo.IsMissingTable(err) {
			return s.missingTable()
		}
		return err
	}
	return nil
}

// AutoReplyEnabled reports the auto-reply toggle. It is on unless a row
// says otherwise.
func (s *SettingsService) AutoReplyEnabled(ctx context.Context) bool {
	row, err := repo.GetSettingByKey(ctx, s.DB, KeyAutoReplyEnabled)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			s.Log.Error().Err(err).Msg("auto-reply setting unavailable, assuming enabled")
		}
		return true
	}
	return row.Value == "true"
}

// AutoReplyMessage returns the configured auto-reply text or the default.
func (s *SettingsService) AutoReplyMessage(ctx context.Context) string {
	row, err := repo.GetSettingByKey(ctx, s.DB, KeyAutoReplyMessage)
	if err != nil || row.Value == "" {
		return DefaultAutoReplyMessage
	}
	return row.Value
}

// SetAutoReply stores the toggle. A missing row is upserted with its description.
func (s *SettingsService) SetAutoReply(ctx context.Context, enabled bool) error {
	value := strconv.FormatBool(enabled)
	existing, err := repo.GetSettingByKey(ctx, s.DB, KeyAutoReplyEnabled)
	if err == nil {
		err = repo.UpdateSettingValue(ctx, s.DB, existing.ID, value)
	} else {
		desc := autoReplyDescription
		err = repo.UpsertSetting(ctx, s.DB, KeyAutoReplyEnabled, value, &desc)
	}
	if err != nil {
		if repo.IsMissingTable(err) {
			return s.missingTable()
		}
		return err
	}
	s.Log.Info().Bool("enabled", enabled).Msg("auto-reply toggled")
	return nil
}

// SetAutoReplyMessage stores the auto-reply text; blank text stores the default.
func (s *SettingsService) SetAutoReplyMessage(ctx context.Context, msg string) error {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		msg = DefaultAutoReplyMessage
	}
	return s.Update(ctx, KeyAutoReplyMessage, msg)
}

func (s *SettingsService) missingTable() error {
	return configErr(ErrSettingsTableMissing,
		"the support_settings table does not exist; run the database migrations to create it")
}

// intOr parses a leading integer the way a lenient form field would:
// "42px" is 42. Unparseable input and zero fall back to def.
func intOr(s string, def int) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n == 0 {
		return def
	}
	return n
}

func stringOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
