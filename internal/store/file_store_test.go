// internal/store/file_store_test.go
package store_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"w3session/internal/domain"
	"w3session/internal/store"
)

func exercise(t *testing.T, kv domain.KeyValueStore) {
	t.Helper()

	if _, ok, err := kv.Get(domain.KeySessionID); err != nil || ok {
		t.Fatalf("empty get: ok=%v err=%v", ok, err)
	}
	if err := kv.Set(domain.KeySessionID, "abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set(domain.KeySessionID, "def"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := kv.Set("google", "share"); err != nil {
		t.Fatalf("set share: %v", err)
	}
	v, ok, err := kv.Get(domain.KeySessionID)
	if err != nil || !ok || v != "def" {
		t.Fatalf("get: v=%q ok=%v err=%v", v, ok, err)
	}
	if err := kv.Delete(domain.KeySessionID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := kv.Delete(domain.KeySessionID); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if _, ok, _ := kv.Get(domain.KeySessionID); ok {
		t.Fatal("key still present after delete")
	}
	if v, ok, _ := kv.Get("google"); !ok || v != "share" {
		t.Fatalf("unrelated key lost: %q %v", v, ok)
	}
}

func TestFileStore_Plain(t *testing.T) {
	home := t.TempDir()
	exercise(t, store.NewFileStore(home, ""))

	// A second instance sees the same data.
	v, ok, err := store.NewFileStore(home, "").Get("google")
	if err != nil || !ok || v != "share" {
		t.Fatalf("reopen: v=%q ok=%v err=%v", v, ok, err)
	}
}

func TestFileStore_Sealed(t *testing.T) {
	home := t.TempDir()
	exercise(t, store.NewFileStore(home, "pass"))

	b, err := os.ReadFile(filepath.Join(home, "session.enc"))
	if err != nil {
		t.Fatalf("read sealed file: %v", err)
	}
	if strings.Contains(string(b), "share") {
		t.Fatal("sealed file contains plaintext values")
	}
}

func TestFileStore_WrongPassphrase_Fails(t *testing.T) {
	home := t.TempDir()
	if err := store.NewFileStore(home, "correct").Set("k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	_, _, err := store.NewFileStore(home, "wrong").Get("k")
	if !errors.Is(err, store.ErrWrongPassphrase) {
		t.Fatalf("want ErrWrongPassphrase, got %v", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := store.OpenSQLiteStore(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	exercise(t, s)
}

func TestMemoryStore(t *testing.T) {
	exercise(t, store.NewMemoryStore())
}
