package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if v, ok, err := s.Get(ctx, "k"); !ok || err != nil || v != "v2" {
		t.Fatalf("Get: %q %v %v", v, ok, err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("key should be gone")
	}
}

func TestMemory(t *testing.T) { exercise(t, NewMemory()) }

func TestFile(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "nested", "kv.json"))
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	exercise(t, f)
}

func TestFile_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	a, _ := NewFile(path)
	if err := a.Set(context.Background(), "motivational_messages", `[{"id":1}]`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	b, _ := NewFile(path)
	v, ok, err := b.Get(context.Background(), "motivational_messages")
	if !ok || err != nil || v != `[{"id":1}]` {
		t.Fatalf("reopened store lost data: %q %v %v", v, ok, err)
	}
}

func TestFile_CorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, _ := NewFile(path)
	if _, _, err := f.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNewFile_RequiresPath(t *testing.T) {
	if _, err := NewFile(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
