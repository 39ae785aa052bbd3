package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

// exerciseStorage runs the same contract checks against any backend
func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	if _, ok, err := s.GetItem(ctx, "missing"); err != nil || ok {
		t.Fatalf("GetItem(missing) = ok=%v err=%v, want absent", ok, err)
	}

	if err := s.SetItem(ctx, "solvedProblems", `{"10":true}`); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	v, ok, err := s.GetItem(ctx, "solvedProblems")
	if err != nil || !ok || v != `{"10":true}` {
		t.Fatalf("GetItem = %q ok=%v err=%v", v, ok, err)
	}

	if err := s.SetItem(ctx, "solvedProblems", `{}`); err != nil {
		t.Fatalf("SetItem overwrite: %v", err)
	}
	if v, _, _ := s.GetItem(ctx, "solvedProblems"); v != `{}` {
		t.Fatalf("overwrite not applied, got %q", v)
	}

	if err := s.RemoveItem(ctx, "solvedProblems"); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if _, ok, _ := s.GetItem(ctx, "solvedProblems"); ok {
		t.Fatal("item still present after RemoveItem")
	}

	// removing a missing key is not an error
	if err := s.RemoveItem(ctx, "solvedProblems"); err != nil {
		t.Fatalf("RemoveItem(missing): %v", err)
	}
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemoryStorage())
}

func TestFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storage.json")
	s, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	exerciseStorage(t, s)
}

func TestFileStorageSharedAcrossHandles(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage.json")

	a, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	b, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}

	if err := a.SetItem(ctx, "darkMode", "true"); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	if v, ok, _ := b.GetItem(ctx, "darkMode"); !ok || v != "true" {
		t.Fatalf("second handle did not see write, got %q ok=%v", v, ok)
	}
}

func TestFileStorageCorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}

	if _, ok, err := s.GetItem(ctx, "showTags"); err != nil || ok {
		t.Fatalf("corrupt file should read as empty, ok=%v err=%v", ok, err)
	}
	if err := s.SetItem(ctx, "showTags", "false"); err != nil {
		t.Fatalf("SetItem after corruption: %v", err)
	}
	if v, _, _ := s.GetItem(ctx, "showTags"); v != "false" {
		t.Fatalf("got %q", v)
	}
}

func TestBoltStorage(t *testing.T) {
	s, err := NewBoltStorage(filepath.Join(t.TempDir(), "ladder.db"))
	if err != nil {
		t.Fatalf("NewBoltStorage: %v", err)
	}
	defer s.Close()
	exerciseStorage(t, s)
}

func TestRedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisStorage(context.Background(), RedisConfig{Address: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisStorage: %v", err)
	}
	defer s.Close()
	exerciseStorage(t, s)

	if err := s.SetItem(context.Background(), "k", "v"); err != nil {
		t.Fatal(err)
	}
	if got, err := mr.Get("ladder:k"); err != nil || got != "v" {
		t.Errorf("expected prefixed key in redis, got %q err=%v", got, err)
	}
}

func TestPostgresStorage(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set, skipping")
	}

	ctx := context.Background()
	if err := MigrateFromDSN(ctx, dsn, ""); err != nil {
		t.Fatalf("MigrateFromDSN: %v", err)
	}
	s, err := NewPostgresStorage(ctx, PostgresConfig{DSN: dsn})
	if err != nil {
		t.Fatalf("NewPostgresStorage: %v", err)
	}
	defer s.Close()
	exerciseStorage(t, s)
}

func TestNamespacedIsolation(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryStorage()
	alice := NewNamespaced(base, "alice")
	bob := NewNamespaced(base, "bob")

	exerciseStorage(t, alice)

	if err := alice.SetItem(ctx, "solvedProblems", `{"1":true}`); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := bob.GetItem(ctx, "solvedProblems"); ok {
		t.Fatal("namespace leaked between clients")
	}
	if v, ok, _ := base.GetItem(ctx, "alice/solvedProblems"); !ok || v != `{"1":true}` {
		t.Fatalf("unexpected base key layout: %q ok=%v", v, ok)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Config{Backend: "cassandra"})
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("got %v, want ErrUnknownBackend", err)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := os.ReadDir("migrations")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no migrations found")
	}
	if _, err := Migrations().Open(entries[0].Name()); err != nil {
		t.Fatalf("embedded migration %s missing: %v", entries[0].Name(), err)
	}
}
