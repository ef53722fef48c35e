package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-support-desk/internal/domain"
	"github.com/tbourn/go-support-desk/internal/realtime"
)

type pubRecorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *pubRecorder) Publish(ev realtime.Event) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return 1
}

func (p *pubRecorder) all() []realtime.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]realtime.Event(nil), p.events...)
}

func newSettingsSvc(t *testing.T, migrate bool) (*SettingsService, *pubRecorder) {
	t.Helper()
	var tables []any
	if migrate {
		tables = []any{&domain.SupportSetting{}}
	}
	db := newSvcDB(t, tables...)
	pub := &pubRecorder{}
	s := NewSettingsService(db, pub, time.Second, zerolog.Nop())
	// run reloads inline
	s.afterFunc = func(_ time.Duration, f func()) { f() }
	return s, pub
}

func intp(v int) *int { return &v }

func TestSettingsRead_DefaultsWhenTableMissing(t *testing.T) {
	s, _ := newSettingsSvc(t, false)
	if got := s.Read(context.Background()); got != DefaultTheme() {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestSettingsRead_ParsesLeniently(t *testing.T) {
	s, _ := newSettingsSvc(t, true)
	ctx := context.Background()
	for k, v := range map[string]string{
		KeyPrimaryHue:        "200deg",
		KeyPrimarySaturation: "0",
		KeyPrimaryLightness:  "abc",
		KeyAppName:           "Minha App",
		KeyCommunityName:     "",
	} {
		if err := s.Update(ctx, k, v); err != nil {
			t.Fatalf("Update(%s): %v", k, err)
		}
	}
	got := s.Read(ctx)
	def := DefaultTheme()
	want := Theme{PrimaryHue: 200, PrimarySaturation: def.PrimarySaturation, PrimaryLightness: def.PrimaryLightness,
		AppName: "Minha App", CommunityName: def.CommunityName}
	if got != want {
		t.Fatalf("Read = %+v, want %+v", got, want)
	}
}

func TestSettingsUpdate_InsertThenUpdateKeepsOneRow(t *testing.T) {
	s, _ := newSettingsSvc(t, true)
	ctx := context.Background()

	if err := s.Update(ctx, "app_name", "One"); err != nil {
		t.Fatalf("first Update: %v", err)
	}
	if err := s.Update(ctx, "app_name", "Two"); err != nil {
		t.Fatalf("second Update: %v", err)
	}
	var rows []domain.SupportSetting
	s.DB.Where("key = ?", "app_name").Find(&rows)
	if len(rows) != 1 || rows[0].Value != "Two" {
		t.Fatalf("expected one row with the latest value, got %+v", rows)
	}

	if err := s.Update(ctx, "  ", "x"); !errors.Is(err, ErrEmptySettingKey) {
		t.Fatalf("expected ErrEmptySettingKey, got %v", err)
	}
}

func TestSettingsWrite_MissingTable(t *testing.T) {
	s, pub := newSettingsSvc(t, false)
	err := s.Write(context.Background(), ThemePatch{PrimaryHue: intp(10)})
	var ce *ConfigError
	if !errors.As(err, &ce) || !errors.Is(err, ErrSettingsTableMissing) {
		t.Fatalf("expected ConfigError(ErrSettingsTableMissing), got %v", err)
	}
	if len(pub.all()) != 0 {
		t.Fatalf("failed writes must not broadcast a reload")
	}
}

func TestSettingsWrite_ValidatesAndReloads(t *testing.T) {
	s, pub := newSettingsSvc(t, true)
	ctx := context.Background()

	if err := s.Write(ctx, ThemePatch{PrimaryHue: intp(400)}); !errors.Is(err, ErrInvalidTheme) {
		t.Fatalf("expected ErrInvalidTheme, got %v", err)
	}
	blank := " "
	if err := s.Write(ctx, ThemePatch{AppName: &blank}); !errors.Is(err, ErrInvalidTheme) {
		t.Fatalf("expected ErrInvalidTheme for blank name, got %v", err)
	}

	name := "Nova"
	if err := s.Write(ctx, ThemePatch{PrimaryHue: intp(210), PrimaryLightness: intp(60), AppName: &name}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	cur := s.Theme().Current()
	if cur.Theme.PrimaryHue != 210 || cur.Theme.PrimaryLightness != 60 || cur.Theme.AppName != "Nova" {
		t.Fatalf("reload should apply the new theme, got %+v", cur.Theme)
	}
	evs := pub.all()
	if len(evs) != 1 || evs[0].Type != realtime.Broadcast || evs[0].Keys["event"] != EventThemeReload {
		t.Fatalf("expected one reload broadcast, got %+v", evs)
	}
}

func TestDerivePalette(t *testing.T) {
	p := DerivePalette(DefaultTheme())
	want := map[string]string{
		"--primary":          "25 95% 53%",
		"--secondary":        "25 95% 45%",
		"--ring":             "25 95% 53%",
		"--gradient-primary": "linear-gradient(135deg, hsl(25 95% 50%) 0%, hsl(25 95% 60%) 100%)",
		"--sidebar-primary":  "25 95% 53%",
		"--sidebar-ring":     "25 95% 53%",
		"--primary-dark":     "25 95% 55%",
	}
	for k, v := range want {
		if p.Vars[k] != v {
			t.Fatalf("%s = %q, want %q", k, p.Vars[k], v)
		}
	}

	// clamps
	p = DerivePalette(Theme{PrimaryHue: 1, PrimarySaturation: 2, PrimaryLightness: 30})
	if p.Vars["--secondary"] != "1 2% 40%" || p.Vars["--primary-dark"] != "1 2% 32%" {
		t.Fatalf("unexpected clamped palette %+v", p.Vars)
	}
}

func TestThemeContext_DefaultsBeforeApply(t *testing.T) {
	var c ThemeContext
	if c.Current().Theme != DefaultTheme() {
		t.Fatalf("zero ThemeContext should report defaults")
	}
}

func TestAutoReplySettings(t *testing.T) {
	s, _ := newSettingsSvc(t, true)
	ctx := context.Background()

	if !s.AutoReplyEnabled(ctx) {
		t.Fatalf("auto-reply defaults to enabled")
	}
	if s.AutoReplyMessage(ctx) != DefaultAutoReplyMessage {
		t.Fatalf("expected default auto-reply text")
	}

	if err := s.SetAutoReply(ctx, false); err != nil {
		t.Fatalf("SetAutoReply(false): %v", err)
	}
	if s.AutoReplyEnabled(ctx) {
		t.Fatalf("auto-reply should be off")
	}
	if err := s.SetAutoReply(ctx, true); err != nil {
		t.Fatalf("SetAutoReply(true): %v", err)
	}
	var rows []domain.SupportSetting
	s.DB.Where("key = ?", KeyAutoReplyEnabled).Find(&rows)
	if len(rows) != 1 || rows[0].Value != "true" || rows[0].Description == nil {
		t.Fatalf("unexpected toggle rows %+v", rows)
	}

	if err := s.SetAutoReplyMessage(ctx, "  "); err != nil {
		t.Fatalf("SetAutoReplyMessage: %v", err)
	}
	if s.AutoReplyMessage(ctx) != DefaultAutoReplyMessage {
		t.Fatalf("blank message should store the default")
	}
	if err := s.SetAutoReplyMessage(ctx, "Já volto"); err != nil {
		t.Fatalf("SetAutoReplyMessage: %v", err)
	}
	if s.AutoReplyMessage(ctx) != "Já volto" {
		t.Fatalf("custom message not stored")
	}

	all, err := s.All(ctx)
	if err != nil || all[KeyAutoReplyEnabled] != "true" || all[KeyAutoReplyMessage] != "Já volto" {
		t.Fatalf("All = %v, %v", all, err)
	}
}

func TestAutoReplyEnabled_DefaultsOnMissingTable(t *testing.T) {
	s, _ := newSettingsSvc(t, false)
	if !s.AutoReplyEnabled(context.Background()) {
		t.Fatalf("missing table should read as enabled")
	}
	if _, err := s.All(context.Background()); !errors.Is(err, ErrSettingsTableMissing) {
		t.Fatalf("expected ErrSettingsTableMissing from All, got %v", err)
	}
}
